package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/218451LIJIAQI/edutech-platform-sub000/models"
	"github.com/218451LIJIAQI/edutech-platform-sub000/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RefundService drives the refund state machine:
// PENDING -> APPROVED | REJECTED, APPROVED -> PROCESSING | COMPLETED,
// PROCESSING -> COMPLETED. Completion prorates the refund across the
// order's items and debits each affected teacher's wallet for their net
// share.
type RefundService struct {
	db          *gorm.DB
	wallets     *WalletService
	defaultRate float64
}

// NewRefundService creates a new RefundService
func NewRefundService(db *gorm.DB, wallets *WalletService, defaultRate float64) *RefundService {
	return &RefundService{db: db, wallets: wallets, defaultRate: defaultRate}
}

// Request opens a refund on a PAID order owned by the requester. Only
// one refund may be PENDING or PROCESSING per order at a time.
func (s *RefundService) Request(userID, orderID uint, amount float64, reason, category string) (*models.Refund, error) {
	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundError("order not found", err)
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, utils.ForbiddenError("order does not belong to you", nil)
	}
	if order.Status != models.OrderStatusPaid {
		return nil, utils.ValidationError("only paid orders can be refunded", nil)
	}
	if amount <= 0 || amount > order.TotalAmount {
		return nil, utils.ValidationError("refund amount must be positive and not exceed the order total", nil)
	}

	var open int64
	if err := s.db.Model(&models.Refund{}).
		Where("order_id = ? AND status IN ?", orderID,
			[]string{models.RefundStatusPending, models.RefundStatusProcessing}).
		Count(&open).Error; err != nil {
		return nil, err
	}
	if open > 0 {
		return nil, utils.ConflictError("a refund is already in progress for this order", nil)
	}

	refund := models.Refund{
		OrderID:     orderID,
		RequesterID: userID,
		Amount:      amount,
		Reason:      reason,
		Category:    category,
		Status:      models.RefundStatusPending,
		Method:      models.RefundMethodOriginal,
	}
	if err := s.db.Create(&refund).Error; err != nil {
		return nil, err
	}
	return &refund, nil
}

// Approve moves a PENDING refund to APPROVED.
func (s *RefundService) Approve(refundID uint, notes string) (*models.Refund, error) {
	refund, err := s.find(refundID)
	if err != nil {
		return nil, err
	}
	if refund.Status != models.RefundStatusPending {
		return nil, utils.ValidationError(
			fmt.Sprintf("cannot approve a refund in %s state", refund.Status), nil)
	}

	now := time.Now()
	if err := s.db.Model(refund).Updates(map[string]interface{}{
		"status":       models.RefundStatusApproved,
		"admin_notes":  notes,
		"processed_at": &now,
	}).Error; err != nil {
		return nil, err
	}
	return refund, nil
}

// Reject moves a PENDING refund to REJECTED; a reason is mandatory.
func (s *RefundService) Reject(refundID uint, reason string) (*models.Refund, error) {
	if reason == "" {
		return nil, utils.ValidationError("a rejection reason is required", nil)
	}

	refund, err := s.find(refundID)
	if err != nil {
		return nil, err
	}
	if refund.Status != models.RefundStatusPending {
		return nil, utils.ValidationError(
			fmt.Sprintf("cannot reject a refund in %s state", refund.Status), nil)
	}

	now := time.Now()
	if err := s.db.Model(refund).Updates(map[string]interface{}{
		"status":       models.RefundStatusRejected,
		"admin_notes":  reason,
		"processed_at": &now,
	}).Error; err != nil {
		return nil, err
	}
	return refund, nil
}

// MarkProcessing moves an APPROVED refund to PROCESSING.
func (s *RefundService) MarkProcessing(refundID uint) (*models.Refund, error) {
	refund, err := s.find(refundID)
	if err != nil {
		return nil, err
	}
	if refund.Status != models.RefundStatusApproved {
		return nil, utils.ValidationError(
			fmt.Sprintf("cannot start processing a refund in %s state", refund.Status), nil)
	}

	if err := s.db.Model(refund).Update("status", models.RefundStatusProcessing).Error; err != nil {
		return nil, err
	}
	return refund, nil
}

// Complete settles an APPROVED or PROCESSING refund: the order becomes
// REFUNDED, the student's enrollments for the order are deactivated,
// each order item's proportional share of the refund is computed and the
// owning teacher's wallet is debited for that share net of their
// commission. Debits go through the outbox so a ledger failure cannot
// roll back the refund itself.
func (s *RefundService) Complete(refundID uint) (*models.Refund, error) {
	refund, err := s.find(refundID)
	if err != nil {
		return nil, err
	}
	if refund.Status != models.RefundStatusApproved && refund.Status != models.RefundStatusProcessing {
		return nil, utils.ValidationError(
			fmt.Sprintf("cannot complete a refund in %s state", refund.Status), nil)
	}

	var order models.Order
	if err := s.db.Preload("OrderItems.Package.Course").First(&order, refund.OrderID).Error; err != nil {
		return nil, err
	}

	var itemsTotal float64
	for _, item := range order.OrderItems {
		itemsTotal += item.FinalPrice
	}
	if itemsTotal <= 0 {
		return nil, utils.ValidationError("order has no refundable items", nil)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(refund).Updates(map[string]interface{}{
			"status":       models.RefundStatusCompleted,
			"completed_at": &now,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&order).Updates(map[string]interface{}{
			"status":        models.OrderStatusRefunded,
			"refunded_at":   &now,
			"refund_amount": refund.Amount,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Payment{}).
			Where("order_id = ? AND status = ?", order.ID, models.PaymentStatusCompleted).
			Update("status", models.PaymentStatusRefunded).Error; err != nil {
			return err
		}

		// Enrollments are never deleted; a refund revokes access by
		// deactivating them.
		packageIDs := make([]uint, 0, len(order.OrderItems))
		for _, item := range order.OrderItems {
			packageIDs = append(packageIDs, item.PackageID)
		}
		if err := tx.Model(&models.Enrollment{}).
			Where("user_id = ? AND package_id IN ?", order.UserID, packageIDs).
			Update("is_active", false).Error; err != nil {
			return err
		}

		for i := range order.OrderItems {
			item := &order.OrderItems[i]
			share := item.FinalPrice / itemsTotal * refund.Amount

			rate, err := teacherRateTx(tx, item.Package.Course.TeacherID)
			if err != nil {
				return err
			}
			_, teacherShare := CalculateCommission(share, rate, s.defaultRate)
			if teacherShare <= 0 {
				continue
			}

			metadata := datatypes.JSON(fmt.Sprintf(
				`{"refund_id":%d,"order_item_id":%d,"gross_share":%.4f}`,
				refund.ID, item.ID, share))
			if err := s.wallets.EnqueueIntent(tx, &models.WalletIntent{
				TeacherID:   item.Package.Course.TeacherID,
				Amount:      teacherShare,
				Type:        models.TransactionTypeDebit,
				Source:      models.TransactionSourceRefund,
				Reference:   fmt.Sprintf("REFUND-%d-ITEM-%d", refund.ID, item.ID),
				Description: fmt.Sprintf("Refund adjustment for order %s item #%d", order.OrderNumber, item.ID),
				OrderItemID: &item.ID,
				Metadata:    metadata,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.wallets.ProcessPendingIntents(100); err != nil {
		utils.LogError("Failed to process wallet intents after refund %d: %v", refund.ID, err)
	}
	return refund, nil
}

// List returns refunds filtered by status ("" for all), newest first.
func (s *RefundService) List(status string, limit, offset int) ([]models.Refund, int64, error) {
	query := s.db.Model(&models.Refund{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var refunds []models.Refund
	if err := query.Order("id DESC").Limit(limit).Offset(offset).Find(&refunds).Error; err != nil {
		return nil, 0, err
	}
	return refunds, total, nil
}

func (s *RefundService) find(refundID uint) (*models.Refund, error) {
	var refund models.Refund
	if err := s.db.First(&refund, refundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundError("refund not found", err)
		}
		return nil, err
	}
	return &refund, nil
}

func teacherRateTx(tx *gorm.DB, teacherID uint) (*float64, error) {
	var profile models.TeacherProfile
	err := tx.Where("user_id = ?", teacherID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return profile.CommissionRate, nil
}
