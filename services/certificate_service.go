package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Basavaraj-fidelis/train-track-sub000/model"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// daysPerRenewalMonth is the fixed month approximation used for certificate
// expiry. Not calendar-accurate.
const daysPerRenewalMonth = 30

// CertificateService builds and persists certificates. Invoked exclusively
// from the acknowledgment transition of the enrollment engine.
type CertificateService struct {
	db *gorm.DB
}

// NewCertificateService creates a new certificate service
func NewCertificateService(db *gorm.DB) *CertificateService {
	return &CertificateService{db: db}
}

// CertificateExpiry computes the expiry for a recurring course certificate:
// acknowledgedAt + renewalPeriodMonths * 30 days. Returns nil for one-time
// courses or a zero renewal period.
func CertificateExpiry(course *model.Course, acknowledgedAt time.Time) *time.Time {
	if !course.IsRecurring() || course.RenewalPeriodMonths <= 0 {
		return nil
	}
	expiry := acknowledgedAt.Add(time.Duration(course.RenewalPeriodMonths) * daysPerRenewalMonth * 24 * time.Hour)
	return &expiry
}

// BuildCertificateData assembles the display payload persisted on the
// certificate row.
func BuildCertificateData(user *model.User, course *model.Course, certificateID, signature string, score int, acknowledgedAt time.Time, expiresAt *time.Time) model.CertificateData {
	data := model.CertificateData{
		Score:            score,
		CompletedAt:      acknowledgedAt.Format(time.RFC3339),
		AcknowledgedAt:   acknowledgedAt.Format(time.RFC3339),
		DigitalSignature: signature,
		ParticipantName:  user.Name,
		CourseName:       course.Title,
		CompletionDate:   acknowledgedAt.Format("January 2, 2006"),
		CertificateID:    certificateID,
		CourseType:       course.CourseType,
	}
	if expiresAt != nil {
		data.ExpiresAt = expiresAt.Format(time.RFC3339)
	}
	return data
}

// Issue creates the certificate for (user, course), or updates the existing
// row on re-acknowledgment. The synthetic CertificateID is preserved across
// updates. Runs inside the caller's transaction.
func (s *CertificateService) Issue(tx *gorm.DB, user *model.User, course *model.Course, enrollment *model.Enrollment, signature string, score int, acknowledgedAt time.Time) (*model.Certificate, error) {
	expiresAt := CertificateExpiry(course, acknowledgedAt)

	var cert model.Certificate
	err := tx.Where("user_id = ? AND course_id = ?", user.ID, course.ID).First(&cert).Error
	switch {
	case err == nil:
		// Re-acknowledgment: update in place, keep the certificate ID.
	case err == gorm.ErrRecordNotFound:
		cert = model.Certificate{
			UserID:        user.ID,
			CourseID:      course.ID,
			EnrollmentID:  enrollment.ID,
			CertificateID: NewCertificateID(),
		}
	default:
		return nil, fmt.Errorf("failed to look up certificate: %w", err)
	}

	payload := BuildCertificateData(user, course, cert.CertificateID, signature, score, acknowledgedAt, expiresAt)
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal certificate data: %w", err)
	}

	cert.EnrollmentID = enrollment.ID
	cert.Data = datatypes.JSON(payloadJSON)
	cert.AcknowledgedAt = acknowledgedAt
	cert.ExpiresAt = expiresAt

	if err := tx.Save(&cert).Error; err != nil {
		return nil, fmt.Errorf("failed to persist certificate: %w", err)
	}

	return &cert, nil
}

// GetForUser returns the certificate for a (user, course) pair, if issued.
func (s *CertificateService) GetForUser(userID, courseID uint) (*model.Certificate, error) {
	var cert model.Certificate
	if err := s.db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&cert).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCertificateNotFound
		}
		return nil, err
	}
	return &cert, nil
}

// NewCertificateID mints the synthetic human-facing certificate identifier.
func NewCertificateID() string {
	return fmt.Sprintf("CERT-%s", uuid.New().String())
}
