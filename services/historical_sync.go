package services

import (
	"fmt"
	"time"

	"github.com/218451LIJIAQI/edutech-platform-sub000/models"
	"github.com/218451LIJIAQI/edutech-platform-sub000/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// HistoricalSyncReference marks the one-shot backfill transaction on
// each wallet. Re-running the sync finds the marker and skips the
// wallet, so the job is idempotent.
const HistoricalSyncReference = "HIST_SYNC_V1"

// HistoricalSyncService recomputes net historical earnings (gross minus
// the completed-refund portion) per teacher and posts a single credit
// per wallet.
type HistoricalSyncService struct {
	db          *gorm.DB
	wallets     *WalletService
	defaultRate float64
}

// NewHistoricalSyncService creates a new HistoricalSyncService
func NewHistoricalSyncService(db *gorm.DB, wallets *WalletService, defaultRate float64) *HistoricalSyncService {
	return &HistoricalSyncService{db: db, wallets: wallets, defaultRate: defaultRate}
}

// teacherAccumulator collects one teacher's historical totals.
type teacherAccumulator struct {
	Net      float64
	Gross    float64
	Refunded float64
	Payments int
	From     time.Time
	To       time.Time
}

// SyncReport summarizes one run.
type SyncReport struct {
	TeachersCredited int
	TeachersSkipped  int
	TotalCredited    float64
}

// Run walks every COMPLETED payment with a paid timestamp, nets out the
// completed-refund ratio of its order and posts one HIST_SYNC_V1 credit
// per teacher with a positive net. Already-synced wallets are skipped.
func (s *HistoricalSyncService) Run() (*SyncReport, error) {
	var payments []models.Payment
	if err := s.db.Preload("Package.Course").
		Preload("Order.OrderItems.Package.Course").
		Where("status = ? AND paid_at IS NOT NULL", models.PaymentStatusCompleted).
		Find(&payments).Error; err != nil {
		return nil, err
	}

	perTeacher := map[uint]*teacherAccumulator{}
	record := func(teacherID uint, gross, net float64, paidAt time.Time) {
		acc, ok := perTeacher[teacherID]
		if !ok {
			acc = &teacherAccumulator{From: paidAt, To: paidAt}
			perTeacher[teacherID] = acc
		}
		acc.Payments++
		acc.Gross += gross
		acc.Refunded += gross - net
		acc.Net += net
		if paidAt.Before(acc.From) {
			acc.From = paidAt
		}
		if paidAt.After(acc.To) {
			acc.To = paidAt
		}
	}

	for i := range payments {
		p := &payments[i]

		ratio, err := s.refundRatio(p)
		if err != nil {
			return nil, err
		}

		switch {
		case p.PackageID != nil && p.Package != nil:
			gross := p.TeacherEarning
			record(p.Package.Course.TeacherID, gross, gross*(1-ratio), *p.PaidAt)

		case p.OrderID != nil && p.Order != nil:
			for _, item := range p.Order.OrderItems {
				rate, err := teacherRateTx(s.db, item.Package.Course.TeacherID)
				if err != nil {
					return nil, err
				}
				_, gross := CalculateCommission(item.FinalPrice, rate, s.defaultRate)
				record(item.Package.Course.TeacherID, gross, gross*(1-ratio), *p.PaidAt)
			}
		}
	}

	report := &SyncReport{}
	for teacherID, acc := range perTeacher {
		if acc.Net <= 0 {
			continue
		}

		synced, err := s.wallets.HasTransactionWithReference(teacherID, HistoricalSyncReference)
		if err != nil {
			return nil, err
		}
		if synced {
			report.TeachersSkipped++
			continue
		}

		metadata := datatypes.JSON(fmt.Sprintf(
			`{"payments":%d,"gross":%.4f,"refunded":%.4f,"from":%q,"to":%q}`,
			acc.Payments, acc.Gross, acc.Refunded,
			acc.From.Format(time.RFC3339), acc.To.Format(time.RFC3339)))

		if _, err := s.wallets.Post(Posting{
			TeacherID:   teacherID,
			Amount:      acc.Net,
			Type:        models.TransactionTypeCredit,
			Source:      models.TransactionSourceHistoricalSync,
			Reference:   HistoricalSyncReference,
			Description: "Historical earnings backfill",
			Metadata:    metadata,
		}); err != nil {
			return nil, err
		}

		report.TeachersCredited++
		report.TotalCredited += acc.Net
		utils.LogInfo("Historical sync credited teacher %d with %.2f (%d payments)",
			teacherID, acc.Net, acc.Payments)
	}

	return report, nil
}

// refundRatio returns min(1, completedRefundTotal/orderTotal) for the
// payment's order, or zero for direct package payments.
func (s *HistoricalSyncService) refundRatio(p *models.Payment) (float64, error) {
	if p.OrderID == nil || p.Order == nil || p.Order.TotalAmount <= 0 {
		return 0, nil
	}

	var refunded float64
	if err := s.db.Model(&models.Refund{}).
		Where("order_id = ? AND status = ?", *p.OrderID, models.RefundStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").Scan(&refunded).Error; err != nil {
		return 0, err
	}
	if refunded <= 0 {
		return 0, nil
	}

	ratio := refunded / p.Order.TotalAmount
	if ratio > 1 {
		ratio = 1
	}
	return ratio, nil
}
