package course

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment status values for an enrollment. The normal path is pending -> paid;
// failed and refunded are terminal side exits. Free enrollments start and stay free.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFree     = "free"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Enrollment is the record of a user's relationship to a course. Exactly one
// row may exist per (user, course); the unique index is the authority, the
// handler pre-check only produces the friendly error. Enrollments are never
// hard-deleted; refunds and expiry are status changes.
type Enrollment struct {
	gorm.Model
	UserID     uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course"`
	CourseID   uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course"`
	EnrolledAt time.Time `json:"enrolled_at"`

	PaymentStatus   string         `json:"payment_status" gorm:"index;default:'free'"`
	PaymentAmount   float64        `json:"payment_amount" gorm:"default:0"`
	TransactionID   string         `json:"transaction_id"`
	PaymentMethod   string         `json:"payment_method"`
	PaymentDate     *time.Time     `json:"payment_date"`
	PaymentResponse datatypes.JSON `json:"payment_response,omitempty"`

	AccessExpiresAt *time.Time `json:"access_expires_at" gorm:"index"`
	AccessIsActive  bool       `json:"access_is_active" gorm:"default:false"`

	LastAccessed      *time.Time `json:"last_accessed"`
	OverallCompletion int        `json:"overall_completion" gorm:"default:0"` // 0-100

	CompletedVideos []CompletedVideo `json:"completed_videos,omitempty" gorm:"foreignKey:EnrollmentID"`
	Course          *Course          `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

// HasContentAccess reports whether this enrollment currently grants access to
// course content.
func (e *Enrollment) HasContentAccess(now time.Time) bool {
	if e.PaymentStatus != PaymentStatusFree && e.PaymentStatus != PaymentStatusPaid {
		return false
	}
	if !e.AccessIsActive {
		return false
	}
	if e.AccessExpiresAt != nil && !e.AccessExpiresAt.After(now) {
		return false
	}
	return true
}

// CompletedVideo is one per-video progress entry, upserted by (enrollment, video).
type CompletedVideo struct {
	gorm.Model
	EnrollmentID       uint      `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_progress_enrollment_video"`
	VideoID            uint      `json:"video_id" gorm:"not null;uniqueIndex:idx_progress_enrollment_video"`
	ProgressPercentage float64   `json:"progress_percentage"`
	CompletedAt        time.Time `json:"completed_at"`
}
