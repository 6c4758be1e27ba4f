package models

import (
	"time"
)

// Payment status constants
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusRefunded  = "REFUNDED"
)

// Payment represents one checkout attempt. Exactly one of PackageID and
// OrderID is set: a direct single-package purchase or a cart order.
// Payments are created PENDING, moved to COMPLETED by the confirmation
// workflow and never deleted.
type Payment struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `json:"user_id" gorm:"index"`
	User            User           `json:"-" gorm:"foreignKey:UserID"`
	PackageID       *uint          `json:"package_id"`
	Package         *CoursePackage `json:"package,omitempty" gorm:"foreignKey:PackageID"`
	OrderID         *uint          `json:"order_id"`
	Order           *Order         `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Amount          float64        `json:"amount"`
	PlatformFee     float64        `json:"platform_fee"`
	TeacherEarning  float64        `json:"teacher_earning"`
	Status          string         `json:"status" gorm:"default:'PENDING'"`
	GatewayChargeID string         `json:"gateway_charge_id" gorm:"index"`
	PaidAt          *time.Time     `json:"paid_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
