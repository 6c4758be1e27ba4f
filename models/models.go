package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User represents an account in the system (student, teacher or admin)
type User struct {
	gorm.Model
	Name      string    `json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `json:"-"`
	Role      string    `json:"role" gorm:"default:'student'"`
	IsBlocked bool      `json:"is_blocked" gorm:"default:false"`
	LastLogin time.Time `json:"last_login"`

	TeacherProfile *TeacherProfile `json:"teacher_profile,omitempty" gorm:"foreignKey:UserID"`
}

// TeacherProfile holds per-teacher commission configuration and running
// sales counters. CommissionRate overrides the platform default when set.
type TeacherProfile struct {
	gorm.Model
	UserID         uint     `json:"user_id" gorm:"uniqueIndex"`
	User           User     `json:"-" gorm:"foreignKey:UserID"`
	Bio            string   `json:"bio"`
	CommissionRate *float64 `json:"commission_rate"` // percent, 0-100
	TotalStudents  int64    `json:"total_students" gorm:"default:0"`
	TotalEarnings  float64  `json:"total_earnings" gorm:"default:0"`
}

// Course represents a teacher-owned course
type Course struct {
	gorm.Model
	TeacherID   uint   `json:"teacher_id" gorm:"index"`
	Teacher     User   `json:"-" gorm:"foreignKey:TeacherID"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IsPublished bool   `json:"is_published" gorm:"default:false"`

	Packages []CoursePackage `json:"packages,omitempty" gorm:"foreignKey:CourseID"`
}

// CoursePackage is the sellable unit of a course. DurationDays of zero
// means lifetime access.
type CoursePackage struct {
	gorm.Model
	CourseID     uint    `json:"course_id" gorm:"index"`
	Course       Course  `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Discount     float64 `json:"discount"`
	FinalPrice   float64 `json:"final_price"`
	DurationDays int     `json:"duration_days" gorm:"default:0"`
	IsActive     bool    `json:"is_active" gorm:"default:true"`
}

// CartItem is one line of a user's cart
type CartItem struct {
	gorm.Model
	UserID    uint          `json:"user_id" gorm:"index"`
	User      User          `json:"-" gorm:"foreignKey:UserID"`
	PackageID uint          `json:"package_id"`
	Package   CoursePackage `json:"package" gorm:"foreignKey:PackageID"`
}
