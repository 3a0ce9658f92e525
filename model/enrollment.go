package model

import (
	"time"

	"gorm.io/gorm"
)

// EnrollmentStatus represents the lifecycle state of an enrollment
type EnrollmentStatus string

const (
	EnrollmentStatusPending   EnrollmentStatus = "pending"
	EnrollmentStatusAccessed  EnrollmentStatus = "accessed"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusExpired   EnrollmentStatus = "expired"
)

// Enrollment links a user (or, before registration, a bare email) to a course
// and tracks progress through the training lifecycle.
type Enrollment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// UserID is null for email invitations until the token is redeemed
	UserID   *uint `gorm:"index" json:"user_id,omitempty"`
	CourseID uint  `gorm:"not null;index" json:"course_id"`

	// Email-invitation fields, set only when assigned before account
	// creation. The token stays NULL on direct assignments so the unique
	// index never collides across tokenless rows.
	AssignedEmail   string  `gorm:"type:varchar(255);index" json:"assigned_email,omitempty"`
	AssignmentToken *string `gorm:"type:varchar(64);uniqueIndex" json:"-"`

	Status            EnrollmentStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Progress          int              `gorm:"default:0" json:"progress"` // 0-100
	QuizScore         *int             `json:"quiz_score,omitempty"`
	CertificateIssued bool             `gorm:"default:false" json:"certificate_issued"`
	Deadline          *time.Time       `gorm:"index" json:"deadline,omitempty"`
	CompletedAt       *time.Time       `json:"completed_at,omitempty"`
	RemindersSent     int              `gorm:"default:0" json:"reminders_sent"`

	// Compliance renewal tracking for recurring courses
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	IsExpired    bool       `gorm:"default:false" json:"is_expired"`
	RenewalCount int        `gorm:"default:0" json:"renewal_count"`

	// Relationships
	User   *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName specifies the table name for Enrollment
func (Enrollment) TableName() string {
	return "enrollments"
}

// IsLinked reports whether the enrollment has been linked to a registered user.
func (e *Enrollment) IsLinked() bool {
	return e.UserID != nil
}

// DeadlinePassed reports whether the enrollment deadline lies before now.
func (e *Enrollment) DeadlinePassed(now time.Time) bool {
	return e.Deadline != nil && e.Deadline.Before(now)
}
