package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Certificate is issued once per (user, course). Re-acknowledgment updates
// the existing row; the synthetic CertificateID is preserved across updates.
type Certificate struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID        uint   `gorm:"not null;index:idx_certificates_user_course" json:"user_id"`
	CourseID      uint   `gorm:"not null;index:idx_certificates_user_course" json:"course_id"`
	EnrollmentID  uint   `gorm:"not null;index" json:"enrollment_id"`
	CertificateID string `gorm:"type:varchar(64);uniqueIndex" json:"certificate_id"`

	// Display payload consumed by the certificate rendering UI
	Data datatypes.JSON `gorm:"type:jsonb" json:"data"`

	AcknowledgedAt time.Time  `gorm:"not null" json:"acknowledged_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`

	// Relationships
	User       User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course     Course     `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Enrollment Enrollment `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE" json:"-"`
}

// CertificateData is the JSON payload persisted on a certificate, used
// purely for display and printing.
type CertificateData struct {
	Score            int    `json:"score"`
	CompletedAt      string `json:"completedAt"`
	AcknowledgedAt   string `json:"acknowledgedAt"`
	DigitalSignature string `json:"digitalSignature"`
	ParticipantName  string `json:"participantName"`
	CourseName       string `json:"courseName"`
	CompletionDate   string `json:"completionDate"`
	CertificateID    string `json:"certificateId"`
	CourseType       string `json:"courseType"`
	ExpiresAt        string `json:"expiresAt,omitempty"`
}
