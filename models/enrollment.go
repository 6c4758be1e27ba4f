package models

import (
	"time"
)

// Enrollment grants a user access to a course package. The composite
// unique index on (user_id, package_id) is the idempotency anchor for
// payment confirmation: re-confirming the same payment can never create
// a second row for the same pair.
type Enrollment struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	UserID           uint          `json:"user_id" gorm:"uniqueIndex:idx_enrollment_user_package"`
	PackageID        uint          `json:"package_id" gorm:"uniqueIndex:idx_enrollment_user_package"`
	Package          CoursePackage `json:"package,omitempty" gorm:"foreignKey:PackageID"`
	IsActive         bool          `json:"is_active" gorm:"default:true"`
	ExpiresAt        *time.Time    `json:"expires_at"`
	CompletedLessons int           `json:"completed_lessons" gorm:"default:0"`
	LastAccessedAt   *time.Time    `json:"last_accessed_at"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}
