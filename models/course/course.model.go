package course

import (
	"time"

	"gorm.io/gorm"
)

// Course represents a yoga course with its live sessions, recorded videos
// and denormalized enrollment membership.
type Course struct {
	gorm.Model
	Title       string  `json:"title" gorm:"not null"`
	Description string  `json:"description" gorm:"type:text"`
	Thumbnail   string  `json:"thumbnail"`
	Category    string  `json:"category" gorm:"default:'beginner'"` // beginner, intermediate, advanced, therapy, meditation
	Level       string  `json:"level" gorm:"default:'beginner'"`    // beginner, intermediate, advanced
	Duration    int     `json:"duration" gorm:"default:0"`          // duration in days
	IsFree      bool    `json:"is_free" gorm:"default:true"`
	Price       float64 `json:"price" gorm:"default:0"`
	IsFeatured  bool    `json:"is_featured" gorm:"default:false"`
	IsDeleted   bool    `json:"-" gorm:"default:false"`

	LiveSessions   []LiveSession        `json:"live_sessions,omitempty" gorm:"foreignKey:CourseID"`
	RecordedVideos []RecordedVideo      `json:"recorded_videos,omitempty" gorm:"foreignKey:CourseID"`
	EnrolledUsers  []CourseEnrolledUser `json:"enrolled_users,omitempty" gorm:"foreignKey:CourseID"`
}

// BeforeSave keeps the free/price invariant: a free course can never carry a price.
func (course *Course) BeforeSave(tx *gorm.DB) error {
	if course.IsFree {
		course.Price = 0
	}
	return nil
}

// LiveSession is a scheduled Zoom session belonging to a course. DateTime is
// immutable after creation; only completion and recording fields mutate.
// ReminderSent transitions false -> true exactly once.
type LiveSession struct {
	gorm.Model
	CourseID     uint      `json:"course_id" gorm:"index;not null"`
	Title        string    `json:"title" gorm:"not null"`
	DateTime     time.Time `json:"date_time" gorm:"not null"`
	Duration     int       `json:"duration" gorm:"not null"` // minutes
	MeetingLink  string    `json:"meeting_link"`
	IsLive       bool      `json:"is_live" gorm:"default:false"`
	IsCompleted  bool      `json:"is_completed" gorm:"default:false"`
	RecordingURL string    `json:"recording_url"`
	ReminderSent bool      `json:"reminder_sent" gorm:"default:false"`
}

// RecordedVideo is an on-demand video belonging to a course. The count of
// recorded videos is the denominator for enrollment progress.
type RecordedVideo struct {
	gorm.Model
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url" gorm:"not null"`
	Duration    int    `json:"duration" gorm:"default:0"` // minutes
}

// CourseEnrolledUser is the denormalized membership entry kept on the course
// side for fast lookups (the reminder scheduler reads these). Written on free
// enrollment and on payment confirmation, never for pending enrollments.
type CourseEnrolledUser struct {
	gorm.Model
	CourseID      uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_course_user"`
	UserID        uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_course_user"`
	PaymentStatus string    `json:"payment_status" gorm:"default:'free'"` // paid, free
	EnrolledAt    time.Time `json:"enrolled_at"`
}
