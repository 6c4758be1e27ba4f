package services

import (
	"fmt"
	"testing"

	"github.com/218451LIJIAQI/edutech-platform-sub000/config"
	"github.com/218451LIJIAQI/edutech-platform-sub000/gateway"
	"github.com/218451LIJIAQI/edutech-platform-sub000/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testDefaultRate = 20.0

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

func newTestServices(t *testing.T, db *gorm.DB, gw gateway.Gateway) (*WalletService, *PaymentService, *RefundService) {
	t.Helper()

	wallets := NewWalletService(db, "USD")
	payments := NewPaymentService(db, gw, wallets, testDefaultRate, "USD")
	refunds := NewRefundService(db, wallets, testDefaultRate)
	return wallets, payments, refunds
}

func createStudent(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()

	user := models.User{Name: "Student", Email: email, Role: models.RoleStudent}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createTeacher(t *testing.T, db *gorm.DB, email string, rate *float64) models.User {
	t.Helper()

	user := models.User{Name: "Teacher", Email: email, Role: models.RoleTeacher}
	require.NoError(t, db.Create(&user).Error)

	profile := models.TeacherProfile{UserID: user.ID, CommissionRate: rate}
	require.NoError(t, db.Create(&profile).Error)
	return user
}

func createPackage(t *testing.T, db *gorm.DB, teacherID uint, price float64, durationDays int) models.CoursePackage {
	t.Helper()

	course := models.Course{
		TeacherID:   teacherID,
		Title:       fmt.Sprintf("Course by teacher %d", teacherID),
		IsPublished: true,
	}
	require.NoError(t, db.Create(&course).Error)

	pkg := models.CoursePackage{
		CourseID:     course.ID,
		Name:         "Standard",
		Price:        price,
		FinalPrice:   price,
		DurationDays: durationDays,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&pkg).Error)

	pkg.Course = course
	return pkg
}

func addToCart(t *testing.T, db *gorm.DB, userID, packageID uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.CartItem{UserID: userID, PackageID: packageID}).Error)
}

func walletBalance(t *testing.T, db *gorm.DB, teacherID uint) float64 {
	t.Helper()

	var wallet models.Wallet
	err := db.Where("user_id = ?", teacherID).First(&wallet).Error
	if err == gorm.ErrRecordNotFound {
		return 0
	}
	require.NoError(t, err)
	return wallet.Balance
}

func teacherProfile(t *testing.T, db *gorm.DB, teacherID uint) models.TeacherProfile {
	t.Helper()

	var profile models.TeacherProfile
	require.NoError(t, db.Where("user_id = ?", teacherID).First(&profile).Error)
	return profile
}

func floatPtr(v float64) *float64 { return &v }

// fakeGateway is an in-memory Gateway for tests. Charges start pending
// and are settled explicitly.
type fakeGateway struct {
	charges map[string]*gateway.Charge
	nextID  int
	failing bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{charges: map[string]*gateway.Charge{}}
}

func (f *fakeGateway) CreateCharge(amount int64, currency string, paymentID string) (*gateway.Charge, error) {
	if f.failing {
		return nil, fmt.Errorf("gateway unavailable")
	}

	f.nextID++
	charge := &gateway.Charge{
		ID:        fmt.Sprintf("ch_%d", f.nextID),
		Amount:    amount,
		Currency:  currency,
		Status:    gateway.StatusPending,
		PaymentID: paymentID,
	}
	f.charges[charge.ID] = charge
	return charge, nil
}

func (f *fakeGateway) GetCharge(chargeID string) (*gateway.Charge, error) {
	charge, ok := f.charges[chargeID]
	if !ok {
		return nil, fmt.Errorf("charge %s not found", chargeID)
	}
	copied := *charge
	return &copied, nil
}

func (f *fakeGateway) settle(chargeID string) {
	if charge, ok := f.charges[chargeID]; ok {
		charge.Status = gateway.StatusSucceeded
	}
}
