package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/218451LIJIAQI/edutech-platform-sub000/gateway"
	"github.com/218451LIJIAQI/edutech-platform-sub000/models"
	"github.com/218451LIJIAQI/edutech-platform-sub000/utils"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentService implements checkout intents and the payment
// confirmation workflow.
type PaymentService struct {
	db          *gorm.DB
	gateway     gateway.Gateway // nil when no provider is configured
	wallets     *WalletService
	defaultRate float64
	currency    string
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(db *gorm.DB, gw gateway.Gateway, wallets *WalletService, defaultRate float64, currency string) *PaymentService {
	return &PaymentService{
		db:          db,
		gateway:     gw,
		wallets:     wallets,
		defaultRate: defaultRate,
		currency:    currency,
	}
}

// ConfirmResult reports the outcome of a payment confirmation. Exactly
// one of EnrollmentID (package flow) and OrderID (cart flow) is set.
type ConfirmResult struct {
	PaymentID        uint  `json:"payment_id"`
	EnrollmentID     *uint `json:"enrollment_id,omitempty"`
	OrderID          *uint `json:"order_id,omitempty"`
	AlreadyCompleted bool  `json:"already_completed"`
}

// CreatePackageIntent creates a PENDING payment for a single package and
// best-effort requests a gateway charge handle for it. Gateway failure
// leaves the payment without a handle rather than aborting checkout.
func (s *PaymentService) CreatePackageIntent(userID, packageID uint) (*models.Payment, error) {
	var pkg models.CoursePackage
	if err := s.db.Preload("Course").First(&pkg, packageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundError("package not found", err)
		}
		return nil, err
	}
	if !pkg.IsActive || !pkg.Course.IsPublished {
		return nil, utils.ValidationError("package is not available for purchase", nil)
	}

	var existing models.Enrollment
	err := s.db.Where("user_id = ? AND package_id = ? AND is_active = ?", userID, packageID, true).
		First(&existing).Error
	if err == nil {
		return nil, utils.ConflictError("already enrolled in this package", nil)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	rate, err := teacherRateTx(s.db, pkg.Course.TeacherID)
	if err != nil {
		return nil, err
	}
	platformFee, teacherEarning := CalculateCommission(pkg.FinalPrice, rate, s.defaultRate)

	payment := models.Payment{
		UserID:         userID,
		PackageID:      &pkg.ID,
		Amount:         pkg.FinalPrice,
		PlatformFee:    platformFee,
		TeacherEarning: teacherEarning,
		Status:         models.PaymentStatusPending,
	}
	if err := s.db.Create(&payment).Error; err != nil {
		return nil, err
	}

	s.attachCharge(&payment)
	return &payment, nil
}

// CreateCartIntent snapshots the user's cart into an order with
// immutable items, computes the aggregate commission split using each
// item teacher's rate and creates one PENDING payment for the order.
func (s *PaymentService) CreateCartIntent(userID uint) (*models.Payment, *models.Order, error) {
	var cart []models.CartItem
	if err := s.db.Preload("Package.Course").Where("user_id = ?", userID).Find(&cart).Error; err != nil {
		return nil, nil, err
	}
	if len(cart) == 0 {
		return nil, nil, utils.ValidationError("cart is empty", nil)
	}

	for _, line := range cart {
		if !line.Package.IsActive || !line.Package.Course.IsPublished {
			return nil, nil, utils.ValidationError(
				fmt.Sprintf("package %d is no longer available", line.PackageID), nil)
		}
		var existing models.Enrollment
		err := s.db.Where("user_id = ? AND package_id = ? AND is_active = ?", userID, line.PackageID, true).
			First(&existing).Error
		if err == nil {
			return nil, nil, utils.ConflictError(
				fmt.Sprintf("already enrolled in package %d", line.PackageID), nil)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
	}

	var (
		order   *models.Order
		payment *models.Payment
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		o := models.Order{
			OrderNumber: generateOrderNumber(),
			UserID:      userID,
			Status:      models.OrderStatusPending,
		}

		var total, platformFee, teacherEarning float64
		items := make([]models.OrderItem, 0, len(cart))
		for _, line := range cart {
			pkg := line.Package
			rate, err := teacherRateTx(tx, pkg.Course.TeacherID)
			if err != nil {
				return err
			}
			fee, earn := CalculateCommission(pkg.FinalPrice, rate, s.defaultRate)

			total += pkg.FinalPrice
			platformFee += fee
			teacherEarning += earn
			items = append(items, models.OrderItem{
				PackageID:  pkg.ID,
				UnitPrice:  pkg.Price,
				Discount:   pkg.Discount,
				FinalPrice: pkg.FinalPrice,
			})
		}

		o.TotalAmount = total
		o.OrderItems = items
		if err := tx.Create(&o).Error; err != nil {
			return err
		}

		p := models.Payment{
			UserID:         userID,
			OrderID:        &o.ID,
			Amount:         total,
			PlatformFee:    platformFee,
			TeacherEarning: teacherEarning,
			Status:         models.PaymentStatusPending,
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}

		order = &o
		payment = &p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.attachCharge(payment)
	return payment, order, nil
}

// ConfirmPayment verifies the gateway charge (when one is known) and
// atomically applies the sale: payment completed, enrollments upserted,
// teacher counters incremented, order paid and cart cleared. Wallet
// postings are enqueued in the same transaction and posted after commit;
// the outbox worker retries any that fail.
//
// Re-confirming an already COMPLETED payment returns the original result
// without touching any state.
func (s *PaymentService) ConfirmPayment(paymentID uint, chargeID string) (*ConfirmResult, error) {
	var payment models.Payment
	if err := s.db.First(&payment, paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundError("payment not found", err)
		}
		return nil, err
	}

	if payment.Status == models.PaymentStatusCompleted {
		return s.completedResult(&payment)
	}

	if err := s.verifyCharge(&payment, chargeID); err != nil {
		return nil, err
	}

	switch {
	case payment.PackageID != nil:
		return s.confirmPackagePayment(&payment)
	case payment.OrderID != nil:
		return s.confirmOrderPayment(&payment)
	default:
		return nil, utils.ValidationError("payment references neither a package nor an order", nil)
	}
}

// completedResult rebuilds the original confirmation response for an
// already completed payment.
func (s *PaymentService) completedResult(payment *models.Payment) (*ConfirmResult, error) {
	result := &ConfirmResult{PaymentID: payment.ID, AlreadyCompleted: true}

	if payment.PackageID != nil {
		var enrollment models.Enrollment
		if err := s.db.Where("user_id = ? AND package_id = ?", payment.UserID, *payment.PackageID).
			First(&enrollment).Error; err != nil {
			return nil, err
		}
		result.EnrollmentID = &enrollment.ID
		return result, nil
	}

	result.OrderID = payment.OrderID
	return result, nil
}

// verifyCharge checks the gateway's view of the charge against the
// payment: succeeded status, matching amount in minor units and a
// metadata reference to this exact payment. A payment without any known
// handle skips verification (manual/dev flow).
func (s *PaymentService) verifyCharge(payment *models.Payment, chargeID string) error {
	handle := chargeID
	if handle == "" {
		handle = payment.GatewayChargeID
	}
	if handle == "" || s.gateway == nil {
		return nil
	}

	charge, err := s.gateway.GetCharge(handle)
	if err != nil {
		return utils.ValidationError("payment verification failed", err)
	}
	if charge.Status != gateway.StatusSucceeded {
		return utils.ValidationError(
			fmt.Sprintf("charge is not settled (status %s)", charge.Status), nil)
	}
	if charge.Amount != utils.ToMinorUnits(payment.Amount) {
		return utils.ValidationError("charge amount does not match payment amount", nil)
	}
	if charge.PaymentID != strconv.FormatUint(uint64(payment.ID), 10) {
		return utils.ValidationError("charge does not reference this payment", nil)
	}
	return nil
}

func (s *PaymentService) confirmPackagePayment(payment *models.Payment) (*ConfirmResult, error) {
	var pkg models.CoursePackage
	if err := s.db.Preload("Course").First(&pkg, *payment.PackageID).Error; err != nil {
		return nil, err
	}

	var enrollmentID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := completePayment(tx, payment, now); err != nil {
			return err
		}

		id, created, err := upsertEnrollment(tx, payment.UserID, &pkg, now)
		if err != nil {
			return err
		}
		enrollmentID = id

		if err := s.creditTeacherStats(tx, pkg.Course.TeacherID, created, payment.TeacherEarning); err != nil {
			return err
		}

		metadata := datatypes.JSON(fmt.Sprintf(`{"payment_id":%d,"package_id":%d}`, payment.ID, pkg.ID))
		return s.wallets.EnqueueIntent(tx, &models.WalletIntent{
			TeacherID:   pkg.Course.TeacherID,
			Amount:      payment.TeacherEarning,
			Type:        models.TransactionTypeCredit,
			Source:      models.TransactionSourceCourseSale,
			Reference:   fmt.Sprintf("SALE-PAYMENT-%d", payment.ID),
			Description: fmt.Sprintf("Earning for course sale, payment #%d", payment.ID),
			PaymentID:   &payment.ID,
			Metadata:    metadata,
		})
	})
	if err != nil {
		return nil, err
	}

	s.flushWalletIntents()
	return &ConfirmResult{PaymentID: payment.ID, EnrollmentID: &enrollmentID}, nil
}

func (s *PaymentService) confirmOrderPayment(payment *models.Payment) (*ConfirmResult, error) {
	var order models.Order
	if err := s.db.Preload("OrderItems.Package.Course").First(&order, *payment.OrderID).Error; err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := completePayment(tx, payment, now); err != nil {
			return err
		}

		for i := range order.OrderItems {
			item := &order.OrderItems[i]
			pkg := item.Package

			_, created, err := upsertEnrollment(tx, payment.UserID, &pkg, now)
			if err != nil {
				return err
			}

			rate, err := teacherRateTx(tx, pkg.Course.TeacherID)
			if err != nil {
				return err
			}
			_, earning := CalculateCommission(item.FinalPrice, rate, s.defaultRate)

			if err := s.creditTeacherStats(tx, pkg.Course.TeacherID, created, earning); err != nil {
				return err
			}

			metadata := datatypes.JSON(fmt.Sprintf(`{"payment_id":%d,"order_item_id":%d}`, payment.ID, item.ID))
			if err := s.wallets.EnqueueIntent(tx, &models.WalletIntent{
				TeacherID:   pkg.Course.TeacherID,
				Amount:      earning,
				Type:        models.TransactionTypeCredit,
				Source:      models.TransactionSourceCourseSale,
				Reference:   fmt.Sprintf("SALE-ORDER-ITEM-%d", item.ID),
				Description: fmt.Sprintf("Earning for order %s item #%d", order.OrderNumber, item.ID),
				PaymentID:   &payment.ID,
				OrderItemID: &item.ID,
				Metadata:    metadata,
			}); err != nil {
				return err
			}
		}

		if err := tx.Model(&order).Updates(map[string]interface{}{
			"status":  models.OrderStatusPaid,
			"paid_at": &now,
		}).Error; err != nil {
			return err
		}

		return tx.Where("user_id = ?", payment.UserID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}

	s.flushWalletIntents()
	return &ConfirmResult{PaymentID: payment.ID, OrderID: &order.ID}, nil
}

// completePayment marks the payment COMPLETED only if it is still
// PENDING, so two racing confirmations cannot both apply the sale.
func completePayment(tx *gorm.DB, payment *models.Payment, now time.Time) error {
	res := tx.Model(&models.Payment{}).
		Where("id = ? AND status = ?", payment.ID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":  models.PaymentStatusCompleted,
			"paid_at": &now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ConflictError("payment is already being confirmed", nil)
	}
	payment.Status = models.PaymentStatusCompleted
	payment.PaidAt = &now
	return nil
}

// upsertEnrollment inserts the (user, package) enrollment with
// ON CONFLICT DO NOTHING; the affected-row count tells the caller
// atomically whether the enrollment is new. Existing enrollments are
// reactivated with a fresh expiry.
func upsertEnrollment(tx *gorm.DB, userID uint, pkg *models.CoursePackage, paidAt time.Time) (uint, bool, error) {
	enrollment := models.Enrollment{
		UserID:    userID,
		PackageID: pkg.ID,
		IsActive:  true,
		ExpiresAt: enrollmentExpiry(pkg, paidAt),
	}

	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "package_id"}},
		DoNothing: true,
	}).Create(&enrollment)
	if res.Error != nil {
		return 0, false, res.Error
	}

	created := res.RowsAffected == 1
	if created {
		return enrollment.ID, true, nil
	}

	var existing models.Enrollment
	if err := tx.Where("user_id = ? AND package_id = ?", userID, pkg.ID).First(&existing).Error; err != nil {
		return 0, false, err
	}
	if err := tx.Model(&existing).Updates(map[string]interface{}{
		"is_active":  true,
		"expires_at": enrollmentExpiry(pkg, paidAt),
	}).Error; err != nil {
		return 0, false, err
	}
	return existing.ID, false, nil
}

func enrollmentExpiry(pkg *models.CoursePackage, paidAt time.Time) *time.Time {
	if pkg.DurationDays <= 0 {
		return nil
	}
	expiry := paidAt.AddDate(0, 0, pkg.DurationDays)
	return &expiry
}

// creditTeacherStats bumps the teacher's running counters: students only
// for a brand new enrollment, earnings always.
func (s *PaymentService) creditTeacherStats(tx *gorm.DB, teacherID uint, newStudent bool, earning float64) error {
	studentDelta := 0
	if newStudent {
		studentDelta = 1
	}

	res := tx.Model(&models.TeacherProfile{}).Where("user_id = ?", teacherID).
		UpdateColumns(map[string]interface{}{
			"total_students": gorm.Expr("total_students + ?", studentDelta),
			"total_earnings": gorm.Expr("total_earnings + ?", earning),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		profile := models.TeacherProfile{
			UserID:        teacherID,
			TotalStudents: int64(studentDelta),
			TotalEarnings: earning,
		}
		return tx.Create(&profile).Error
	}
	return nil
}

// attachCharge best-effort requests a gateway charge handle and stores
// it on the payment. Checkout proceeds without a handle on failure.
func (s *PaymentService) attachCharge(payment *models.Payment) {
	if s.gateway == nil {
		return
	}

	charge, err := s.gateway.CreateCharge(
		utils.ToMinorUnits(payment.Amount),
		s.currency,
		strconv.FormatUint(uint64(payment.ID), 10),
	)
	if err != nil {
		utils.LogError("Failed to create gateway charge for payment %d: %v", payment.ID, err)
		return
	}

	if err := s.db.Model(payment).UpdateColumn("gateway_charge_id", charge.ID).Error; err != nil {
		utils.LogError("Failed to store charge handle for payment %d: %v", payment.ID, err)
		return
	}
	payment.GatewayChargeID = charge.ID
}

// flushWalletIntents drains the outbox once, immediately after a commit.
// Errors are logged and left for the scheduled worker to retry.
func (s *PaymentService) flushWalletIntents() {
	if _, err := s.wallets.ProcessPendingIntents(100); err != nil {
		utils.LogError("Failed to process wallet intents: %v", err)
	}
}

func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%s-%s",
		time.Now().Format("20060102150405"),
		uuid.New().String()[:8])
}
