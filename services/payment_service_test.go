package services

import (
	"fmt"
	"testing"

	"github.com/218451LIJIAQI/edutech-platform-sub000/gateway"
	"github.com/218451LIJIAQI/edutech-platform-sub000/models"
	"github.com/218451LIJIAQI/edutech-platform-sub000/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePackageIntent(t *testing.T) {
	db := newTestDB(t)
	gw := newFakeGateway()
	_, payments, _ := newTestServices(t, db, gw)

	student := createStudent(t, db, "student@example.com")
	teacher := createTeacher(t, db, "teacher@example.com", floatPtr(10))
	pkg := createPackage(t, db, teacher.ID, 199.99, 30)

	payment, err := payments.CreatePackageIntent(student.ID, pkg.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.InDelta(t, 199.99, payment.Amount, 1e-9)
	assert.InDelta(t, 19.999, payment.PlatformFee, 1e-9)
	assert.InDelta(t, 179.991, payment.TeacherEarning, 1e-9)
	assert.NotEmpty(t, payment.GatewayChargeID)

	charge, err := gw.GetCharge(payment.GatewayChargeID)
	require.NoError(t, err)
	assert.Equal(t, utils.ToMinorUnits(199.99), charge.Amount)
	assert.Equal(t, fmt.Sprintf("%d", payment.ID), charge.PaymentID)
}

func TestCreatePackageIntentValidation(t *testing.T) {
	db := newTestDB(t)
	_, payments, _ := newTestServices(t, db, nil)

	student := createStudent(t, db, "student@example.com")
	teacher := createTeacher(t, db, "teacher@example.com", nil)

	t.Run("unknown package", func(t *testing.T) {
		_, err := payments.CreatePackageIntent(student.ID, 9999)
		require.Error(t, err)
		assert.True(t, utils.IsNotFoundError(err))
	})

	t.Run("inactive package", func(t *testing.T) {
		pkg := createPackage(t, db, teacher.ID, 50, 0)
		require.NoError(t, db.Model(&pkg).Update("is_active", false).Error)

		_, err := payments.CreatePackageIntent(student.ID, pkg.ID)
		require.Error(t, err)
		assert.True(t, utils.IsValidationError(err))
	})

	t.Run("unpublished course", func(t *testing.T) {
		pkg := createPackage(t, db, teacher.ID, 50, 0)
		require.NoError(t, db.Model(&models.Course{}).
			Where("id = ?", pkg.CourseID).Update("is_published", false).Error)

		_, err := payments.CreatePackageIntent(student.ID, pkg.ID)
		require.Error(t, err)
		assert.True(t, utils.IsValidationError(err))
	})

	t.Run("already enrolled", func(t *testing.T) {
		pkg := createPackage(t, db, teacher.ID, 50, 0)
		require.NoError(t, db.Create(&models.Enrollment{
			UserID:    student.ID,
			PackageID: pkg.ID,
			IsActive:  true,
		}).Error)

		_, err := payments.CreatePackageIntent(student.ID, pkg.ID)
		require.Error(t, err)
		appErr := utils.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, 409, appErr.Code)
	})
}

func TestCreatePackageIntentSurvivesGatewayFailure(t *testing.T) {
	db := newTestDB(t)
	gw := newFakeGateway()
	gw.failing = true
	_, payments, _ := newTestServices(t, db, gw)

	student := createStudent(t, db, "student@example.com")
	teacher := createTeacher(t, db, "teacher@example.com", nil)
	pkg := createPackage(t, db, teacher.ID, 99, 0)

	payment, err := payments.CreatePackageIntent(student.ID, pkg.ID)
	require.NoError(t, err)
	assert.Empty(t, payment.GatewayChargeID)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
}

func TestConfirmPackagePayment(t *testing.T) {
	db := newTestDB(t)
	gw := newFakeGateway()
	_, payments, _ := newTestServices(t, db, gw)

	student := createStudent(t, db, "student@example.com")
	teacher := createTeacher(t, db, "teacher@example.com", floatPtr(10))
	pkg := createPackage(t, db, teacher.ID, 199.99, 30)

	payment, err := payments.CreatePackageIntent(student.ID, pkg.ID)
	require.NoError(t, err)
	gw.settle(payment.GatewayChargeID)

	result, err := payments.ConfirmPayment(payment.ID, "")
	require.NoError(t, err)
	assert.False(t, result.AlreadyCompleted)
	require.NotNil(t, result.EnrollmentID)
	assert.Nil(t, result.OrderID)

	var confirmed models.Payment
	require.NoError(t, db.First(&confirmed, payment.ID).Error)
	assert.Equal(t, models.PaymentStatusCompleted, confirmed.Status)
	require.NotNil(t, confirmed.PaidAt)

	var enrollment models.Enrollment
	require.NoError(t, db.First(&enrollment, *result.EnrollmentID).Error)
	assert.Equal(t, student.ID, enrollment.UserID)
	assert.Equal(t, pkg.ID, enrollment.PackageID)
	assert.True(t, enrollment.IsActive)
	require.NotNil(t, enrollment.ExpiresAt, "30 day package must carry an expiry")

	profile := teacherProfile(t, db, teacher.ID)
	assert.EqualValues(t, 1, profile.TotalStudents)
	assert.InDelta(t, 179.991, profile.TotalEarnings, 1e-9)

	assert.InDelta(t, 179.991, walletBalance(t, db, teacher.ID), 1e-9)

	var intent models.WalletIntent
	require.NoError(t, db.Where("reference = ?",
		fmt.Sprintf("SALE-PAYMENT-%d", payment.ID)).First(&intent).Error)
	assert.Equal(t, models.IntentStatusProcessed, intent.Status)
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	gw := newFakeGateway()
	_, payments, _ := newTestServices(t, db, gw)

	student := createStudent(t, db, "student@example.com")
	teacher := createTeacher(t, db, "teacher@example.com", nil)
	pkg := createPackage(t, db, teacher.ID, 100, 0)

	payment, err := payments.CreatePackageIntent(student.ID, pkg.ID)
	require.NoError(t, err)
	gw.settle(payment.GatewayChargeID)

	first, err := payments.ConfirmPayment(payment.ID, "")
	require.NoError(t, err)

	second, err := payments.ConfirmPayment(payment.ID, "")
	require.NoError(t, err)
	assert.True(t, second.AlreadyCompleted)
	require.NotNil(t, second.EnrollmentID)
	assert.Equal(t, *first.EnrollmentID, *second.EnrollmentID)

	// One wallet credit and one student, not two.
	assert.InDelta(t, 80, walletBalance(t, db, teacher.ID), 1e-9)
	profile := teacherProfile(t, db, teacher.ID)
	assert.EqualValues(t, 1, profile.TotalStudents)

	var txnCount int64
	require.NoError(t, db.Model(&models.WalletTransaction{}).Count(&txnCount).Error)
	assert.EqualValues(t, 1, txnCount)
}

func TestConfirmPaymentRejectsBadCharges(t *testing.T) {
	db := newTestDB(t)
	gw := newFakeGateway()
	_, payments, _ := newTestServices(t, db, gw)

	student := createStudent(t, db, "student@example.com")
	teacher := createTeacher(t, db, "teacher@example.com", nil)
	pkg := createPackage(t, db, teacher.ID, 100, 0)

	payment, err := payments.CreatePackageIntent(student.ID, pkg.ID)
	require.NoError(t, err)

	t.Run("unsettled charge", func(t *testing.T) {
		_, err := payments.ConfirmPayment(payment.ID, "")
		require.Error(t, err)
		assert.True(t, utils.IsValidationError(err))
	})

	t.Run("amount mismatch", func(t *testing.T) {
		gw.charges[payment.GatewayChargeID].Status = gateway.StatusSucceeded
		gw.charges[payment.GatewayChargeID].Amount = 1

		_, err := payments.ConfirmPayment(payment.ID, "")
		require.Error(t, err)
		assert.True(t, utils.IsValidationError(err))
		gw.charges[payment.GatewayChargeID].Amount = utils.ToMinorUnits(payment.Amount)
	})

	t.Run("charge for another payment", func(t *testing.T) {
		other, err := gw.CreateCharge(utils.ToMinorUnits(payment.Amount), "USD", "999999")
		require.NoError(t, err)
		gw.settle(other.ID)

		_, err = payments.ConfirmPayment(payment.ID, other.ID)
		require.Error(t, err)
		assert.True(t, utils.IsValidationError(err))
	})

	var untouched models.Payment
	require.NoError(t, db.First(&untouched, payment.ID).Error)
	assert.Equal(t, models.PaymentStatusPending, untouched.Status)
	assert.InDelta(t, 0, walletBalance(t, db, teacher.ID), 1e-9)
}

func TestCreateCartIntent(t *testing.T) {
	db := newTestDB(t)
	_, payments, _ := newTestServices(t, db, nil)

	student := createStudent(t, db, "student@example.com")
	alice := createTeacher(t, db, "alice@example.com", floatPtr(10))
	bob := createTeacher(t, db, "bob@example.com", nil)
	pkgA := createPackage(t, db, alice.ID, 100, 30)
	pkgB := createPackage(t, db, bob.ID, 50, 0)
	addToCart(t, db, student.ID, pkgA.ID)
	addToCart(t, db, student.ID, pkgB.ID)

	payment, order, err := payments.CreateCartIntent(student.ID)
	require.NoError(t, err)

	assert.InDelta(t, 150, order.TotalAmount, 1e-9)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	require.Len(t, order.OrderItems, 2)
	assert.NotEmpty(t, order.OrderNumber)

	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.InDelta(t, 150, payment.Amount, 1e-9)
	// 10% of 100 plus the 20% default on 50.
	assert.InDelta(t, 20, payment.PlatformFee, 1e-9)
	assert.InDelta(t, 130, payment.TeacherEarning, 1e-9)
	require.NotNil(t, payment.OrderID)
	assert.Equal(t, order.ID, *payment.OrderID)
}

func TestCreateCartIntentEmptyCart(t *testing.T) {
	db := newTestDB(t)
	_, payments, _ := newTestServices(t, db, nil)
	student := createStudent(t, db, "student@example.com")

	_, _, err := payments.CreateCartIntent(student.ID)
	require.Error(t, err)
	assert.True(t, utils.IsValidationError(err))
}

func TestConfirmOrderPayment(t *testing.T) {
	db := newTestDB(t)
	gw := newFakeGateway()
	_, payments, _ := newTestServices(t, db, gw)

	student := createStudent(t, db, "student@example.com")
	alice := createTeacher(t, db, "alice@example.com", floatPtr(10))
	bob := createTeacher(t, db, "bob@example.com", nil)
	pkgA := createPackage(t, db, alice.ID, 100, 30)
	pkgB := createPackage(t, db, bob.ID, 50, 0)
	addToCart(t, db, student.ID, pkgA.ID)
	addToCart(t, db, student.ID, pkgB.ID)

	payment, order, err := payments.CreateCartIntent(student.ID)
	require.NoError(t, err)
	gw.settle(payment.GatewayChargeID)

	result, err := payments.ConfirmPayment(payment.ID, "")
	require.NoError(t, err)
	require.NotNil(t, result.OrderID)
	assert.Equal(t, order.ID, *result.OrderID)
	assert.Nil(t, result.EnrollmentID)

	var paid models.Order
	require.NoError(t, db.First(&paid, order.ID).Error)
	assert.Equal(t, models.OrderStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	var enrollments int64
	require.NoError(t, db.Model(&models.Enrollment{}).
		Where("user_id = ?", student.ID).Count(&enrollments).Error)
	assert.EqualValues(t, 2, enrollments)

	var cartLeft int64
	require.NoError(t, db.Model(&models.CartItem{}).
		Where("user_id = ?", student.ID).Count(&cartLeft).Error)
	assert.EqualValues(t, 0, cartLeft)

	assert.InDelta(t, 90, walletBalance(t, db, alice.ID), 1e-9)
	assert.InDelta(t, 40, walletBalance(t, db, bob.ID), 1e-9)

	assert.EqualValues(t, 1, teacherProfile(t, db, alice.ID).TotalStudents)
	assert.EqualValues(t, 1, teacherProfile(t, db, bob.ID).TotalStudents)
}

func TestConfirmOrderPaymentReactivatesExpiredEnrollment(t *testing.T) {
	db := newTestDB(t)
	_, payments, _ := newTestServices(t, db, nil)

	student := createStudent(t, db, "student@example.com")
	teacher := createTeacher(t, db, "teacher@example.com", nil)
	pkg := createPackage(t, db, teacher.ID, 60, 30)

	// A lapsed enrollment from an earlier purchase. IsActive carries
	// gorm:"default:true", so force the column past GORM's zero-value
	// omission on insert.
	lapsed := models.Enrollment{
		UserID:    student.ID,
		PackageID: pkg.ID,
		IsActive:  false,
	}
	require.NoError(t, db.Create(&lapsed).Error)
	require.NoError(t, db.Model(&lapsed).UpdateColumn("is_active", false).Error)

	payment, err := payments.CreatePackageIntent(student.ID, pkg.ID)
	require.NoError(t, err)

	result, err := payments.ConfirmPayment(payment.ID, "")
	require.NoError(t, err)
	require.NotNil(t, result.EnrollmentID)

	var enrollment models.Enrollment
	require.NoError(t, db.First(&enrollment, *result.EnrollmentID).Error)
	assert.True(t, enrollment.IsActive)
	require.NotNil(t, enrollment.ExpiresAt)

	// A repeat purchase does not count as a new student.
	profile := teacherProfile(t, db, teacher.ID)
	assert.EqualValues(t, 0, profile.TotalStudents)
	assert.InDelta(t, 48, profile.TotalEarnings, 1e-9)
}
