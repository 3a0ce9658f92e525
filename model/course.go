package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Course types
const (
	CourseTypeOneTime   = "one_time"
	CourseTypeRecurring = "recurring"
)

// Course represents a training course with embedded video and quiz questions
type Course struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`

	// Video source: an uploaded file path or an external URL.
	// When both are set the URL takes precedence.
	VideoPath string `gorm:"type:varchar(512)" json:"video_path"`
	VideoURL  string `gorm:"type:varchar(512)" json:"video_url"`

	// Embedded quiz questions, used as fallback when no Quiz entity exists
	Questions datatypes.JSON `gorm:"type:jsonb" json:"questions,omitempty"`

	CourseType          string `gorm:"type:varchar(20);default:'one_time'" json:"course_type"` // one_time, recurring
	RenewalPeriodMonths int    `gorm:"default:0" json:"renewal_period_months"`
	DefaultDeadlineDays int    `gorm:"default:30" json:"default_deadline_days"`
	ReminderDays        int    `gorm:"default:7" json:"reminder_days"`

	IsComplianceCourse       bool `gorm:"default:false" json:"is_compliance_course"`
	IsAutoEnrollNewEmployees bool `gorm:"default:false" json:"is_auto_enroll_new_employees"`
	IsActive                 bool `gorm:"default:true" json:"is_active"`

	// Relationships
	Quizzes      []Quiz        `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Enrollments  []Enrollment  `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Certificates []Certificate `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// EffectiveVideoSource returns the video reference the client should play.
// An external URL wins over an uploaded file.
func (c *Course) EffectiveVideoSource() string {
	if c.VideoURL != "" {
		return c.VideoURL
	}
	return c.VideoPath
}

// IsRecurring reports whether certificates for this course carry an expiry.
func (c *Course) IsRecurring() bool {
	return c.CourseType == CourseTypeRecurring
}
