package models

import (
	"time"
)

// Order status constants. Transitions are one-directional:
// Pending -> Paid, Pending -> Cancelled, Paid -> Refunded.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusPaid      = "PAID"
	OrderStatusCancelled = "CANCELLED"
	OrderStatusRefunded  = "REFUNDED"
)

// Order is a snapshot of the user's cart at checkout time. Items are
// immutable once created.
type Order struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	OrderNumber  string      `json:"order_number" gorm:"uniqueIndex"`
	UserID       uint        `json:"user_id" gorm:"index"`
	User         User        `json:"-" gorm:"foreignKey:UserID"`
	TotalAmount  float64     `json:"total_amount"`
	Status       string      `json:"status" gorm:"default:'PENDING'"`
	PaidAt       *time.Time  `json:"paid_at"`
	CancelledAt  *time.Time  `json:"cancelled_at"`
	RefundedAt   *time.Time  `json:"refunded_at"`
	RefundAmount float64     `json:"refund_amount"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	OrderItems   []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
}

// OrderItem snapshots a package's pricing at the moment the order was
// placed so later catalog changes cannot alter what was sold.
type OrderItem struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	OrderID    uint          `json:"order_id" gorm:"index"`
	PackageID  uint          `json:"package_id"`
	Package    CoursePackage `json:"package" gorm:"foreignKey:PackageID"`
	UnitPrice  float64       `json:"unit_price"`
	Discount   float64       `json:"discount"`
	FinalPrice float64       `json:"final_price"`
}
