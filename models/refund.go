package models

import (
	"time"
)

// Refund status constants. Valid transitions:
// PENDING -> APPROVED | REJECTED, APPROVED -> PROCESSING | COMPLETED,
// PROCESSING -> COMPLETED. REJECTED and COMPLETED are terminal.
const (
	RefundStatusPending    = "PENDING"
	RefundStatusApproved   = "APPROVED"
	RefundStatusRejected   = "REJECTED"
	RefundStatusProcessing = "PROCESSING"
	RefundStatusCompleted  = "COMPLETED"
)

// Refund method constants
const (
	RefundMethodOriginal = "ORIGINAL_PAYMENT"
	RefundMethodManual   = "MANUAL"
)

// Refund is one refund request against a PAID order. At most one refund
// may sit in PENDING or PROCESSING state per order at a time.
type Refund struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	OrderID     uint       `json:"order_id" gorm:"index"`
	Order       Order      `json:"-" gorm:"foreignKey:OrderID"`
	RequesterID uint       `json:"requester_id"`
	Amount      float64    `json:"amount"`
	Reason      string     `json:"reason"`
	Category    string     `json:"category"`
	Status      string     `json:"status" gorm:"default:'PENDING';index"`
	Method      string     `json:"method" gorm:"default:'ORIGINAL_PAYMENT'"`
	AdminNotes  string     `json:"admin_notes"`
	ProcessedAt *time.Time `json:"processed_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
