package services

import (
	"time"

	"github.com/218451LIJIAQI/edutech-platform-sub000/models"
	"gorm.io/gorm"
)

// Earning entry kinds
const (
	EarningKindDirect    = "direct_sale"
	EarningKindOrderItem = "order_item"
)

// EarningEntry is the normalized view of one unit of teacher income,
// whether it came from a direct package sale or a cart order item.
type EarningEntry struct {
	Kind        string    `json:"kind"`
	PaymentID   uint      `json:"payment_id"`
	OrderItemID *uint     `json:"order_item_id,omitempty"`
	CourseID    uint      `json:"course_id"`
	CourseTitle string    `json:"course_title"`
	PackageID   uint      `json:"package_id"`
	Amount      float64   `json:"amount"`
	EarnedAt    time.Time `json:"earned_at"`
}

// CourseEarnings aggregates a teacher's income per course.
type CourseEarnings struct {
	CourseID    uint    `json:"course_id"`
	CourseTitle string  `json:"course_title"`
	Sales       int     `json:"sales"`
	Total       float64 `json:"total"`
}

// EarningsSummary totals a teacher's confirmed income.
type EarningsSummary struct {
	Entries int     `json:"entries"`
	Total   float64 `json:"total"`
}

// EarningsService builds teacher earnings views from confirmed payments.
type EarningsService struct {
	db          *gorm.DB
	defaultRate float64
}

// NewEarningsService creates a new EarningsService
func NewEarningsService(db *gorm.DB, defaultRate float64) *EarningsService {
	return &EarningsService{db: db, defaultRate: defaultRate}
}

// EntriesForTeacher returns every confirmed earning for the teacher,
// newest first: direct package sales carry the payment's recorded
// teacher earning, order items carry the item's net share under the
// teacher's current rate.
func (s *EarningsService) EntriesForTeacher(teacherID uint) ([]EarningEntry, error) {
	entries := []EarningEntry{}

	var direct []models.Payment
	if err := s.db.Preload("Package.Course").
		Joins("JOIN course_packages ON course_packages.id = payments.package_id").
		Joins("JOIN courses ON courses.id = course_packages.course_id").
		Where("payments.package_id IS NOT NULL AND payments.status IN ? AND courses.teacher_id = ?",
			[]string{models.PaymentStatusCompleted, models.PaymentStatusRefunded}, teacherID).
		Find(&direct).Error; err != nil {
		return nil, err
	}
	for _, p := range direct {
		earnedAt := p.CreatedAt
		if p.PaidAt != nil {
			earnedAt = *p.PaidAt
		}
		entries = append(entries, EarningEntry{
			Kind:        EarningKindDirect,
			PaymentID:   p.ID,
			CourseID:    p.Package.CourseID,
			CourseTitle: p.Package.Course.Title,
			PackageID:   *p.PackageID,
			Amount:      p.TeacherEarning,
			EarnedAt:    earnedAt,
		})
	}

	rate, err := teacherRateTx(s.db, teacherID)
	if err != nil {
		return nil, err
	}

	type itemRow struct {
		models.OrderItem
		PaymentID uint
		PaidAt    *time.Time
	}
	var items []itemRow
	if err := s.db.Model(&models.OrderItem{}).
		Select("order_items.*, payments.id AS payment_id, payments.paid_at AS paid_at").
		Joins("JOIN payments ON payments.order_id = order_items.order_id").
		Joins("JOIN course_packages ON course_packages.id = order_items.package_id").
		Joins("JOIN courses ON courses.id = course_packages.course_id").
		Where("payments.status IN ? AND courses.teacher_id = ?",
			[]string{models.PaymentStatusCompleted, models.PaymentStatusRefunded}, teacherID).
		Scan(&items).Error; err != nil {
		return nil, err
	}
	for i := range items {
		row := &items[i]
		var pkg models.CoursePackage
		if err := s.db.Preload("Course").First(&pkg, row.PackageID).Error; err != nil {
			return nil, err
		}
		_, earning := CalculateCommission(row.FinalPrice, rate, s.defaultRate)

		earnedAt := time.Now()
		if row.PaidAt != nil {
			earnedAt = *row.PaidAt
		}
		itemID := row.ID
		entries = append(entries, EarningEntry{
			Kind:        EarningKindOrderItem,
			PaymentID:   row.PaymentID,
			OrderItemID: &itemID,
			CourseID:    pkg.CourseID,
			CourseTitle: pkg.Course.Title,
			PackageID:   pkg.ID,
			Amount:      earning,
			EarnedAt:    earnedAt,
		})
	}

	return entries, nil
}

// SummaryForTeacher totals the teacher's earnings entries.
func (s *EarningsService) SummaryForTeacher(teacherID uint) (*EarningsSummary, error) {
	entries, err := s.EntriesForTeacher(teacherID)
	if err != nil {
		return nil, err
	}

	summary := &EarningsSummary{Entries: len(entries)}
	for _, e := range entries {
		summary.Total += e.Amount
	}
	return summary, nil
}

// ByCourse groups the teacher's earnings entries per course.
func (s *EarningsService) ByCourse(teacherID uint) ([]CourseEarnings, error) {
	entries, err := s.EntriesForTeacher(teacherID)
	if err != nil {
		return nil, err
	}

	byCourse := map[uint]*CourseEarnings{}
	order := []uint{}
	for _, e := range entries {
		agg, ok := byCourse[e.CourseID]
		if !ok {
			agg = &CourseEarnings{CourseID: e.CourseID, CourseTitle: e.CourseTitle}
			byCourse[e.CourseID] = agg
			order = append(order, e.CourseID)
		}
		agg.Sales++
		agg.Total += e.Amount
	}

	result := make([]CourseEarnings, 0, len(order))
	for _, id := range order {
		result = append(result, *byCourse[id])
	}
	return result, nil
}
