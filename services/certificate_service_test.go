package services

import (
	"strings"
	"testing"
	"time"

	"github.com/Basavaraj-fidelis/train-track-sub000/model"
)

func TestCertificateExpiry_Recurring(t *testing.T) {
	course := &model.Course{
		CourseType:          model.CourseTypeRecurring,
		RenewalPeriodMonths: 3,
	}
	ackAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	expiry := CertificateExpiry(course, ackAt)
	if expiry == nil {
		t.Fatal("expected an expiry for a recurring course")
	}

	// Months are a fixed 30-day approximation, not calendar months.
	want := ackAt.Add(90 * 24 * time.Hour)
	if !expiry.Equal(want) {
		t.Errorf("expiry = %v, want %v", expiry, want)
	}
}

func TestCertificateExpiry_OneTime(t *testing.T) {
	course := &model.Course{CourseType: model.CourseTypeOneTime}

	if expiry := CertificateExpiry(course, time.Now()); expiry != nil {
		t.Errorf("expiry = %v, want nil for a one-time course", expiry)
	}
}

func TestCertificateExpiry_RecurringWithoutPeriod(t *testing.T) {
	course := &model.Course{CourseType: model.CourseTypeRecurring}

	if expiry := CertificateExpiry(course, time.Now()); expiry != nil {
		t.Errorf("expiry = %v, want nil when renewal period is zero", expiry)
	}
}

func TestBuildCertificateData(t *testing.T) {
	user := &model.User{Name: "Jane Doe", Email: "jane@example.com"}
	course := &model.Course{Title: "Workplace Safety", CourseType: model.CourseTypeRecurring}
	ackAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expiry := ackAt.Add(90 * 24 * time.Hour)

	data := BuildCertificateData(user, course, "CERT-abc", "Jane Doe", 85, ackAt, &expiry)

	if data.Score != 85 {
		t.Errorf("Score = %d, want 85", data.Score)
	}
	if data.ParticipantName != "Jane Doe" {
		t.Errorf("ParticipantName = %q, want Jane Doe", data.ParticipantName)
	}
	if data.CourseName != "Workplace Safety" {
		t.Errorf("CourseName = %q, want Workplace Safety", data.CourseName)
	}
	if data.CertificateID != "CERT-abc" {
		t.Errorf("CertificateID = %q, want CERT-abc", data.CertificateID)
	}
	if data.DigitalSignature != "Jane Doe" {
		t.Errorf("DigitalSignature = %q, want Jane Doe", data.DigitalSignature)
	}
	if data.CompletionDate != "June 1, 2025" {
		t.Errorf("CompletionDate = %q, want human-readable June 1, 2025", data.CompletionDate)
	}
	if data.AcknowledgedAt != ackAt.Format(time.RFC3339) {
		t.Errorf("AcknowledgedAt = %q, want RFC3339 timestamp", data.AcknowledgedAt)
	}
	if data.ExpiresAt != expiry.Format(time.RFC3339) {
		t.Errorf("ExpiresAt = %q, want RFC3339 timestamp", data.ExpiresAt)
	}
	if data.CourseType != model.CourseTypeRecurring {
		t.Errorf("CourseType = %q, want recurring", data.CourseType)
	}
}

func TestBuildCertificateData_NoExpiry(t *testing.T) {
	user := &model.User{Name: "John"}
	course := &model.Course{Title: "Onboarding", CourseType: model.CourseTypeOneTime}

	data := BuildCertificateData(user, course, "CERT-xyz", "John", 100, time.Now(), nil)

	if data.ExpiresAt != "" {
		t.Errorf("ExpiresAt = %q, want empty for a one-time course", data.ExpiresAt)
	}
}

func TestNewCertificateID(t *testing.T) {
	id1 := NewCertificateID()
	id2 := NewCertificateID()

	if !strings.HasPrefix(id1, "CERT-") {
		t.Errorf("id = %q, want CERT- prefix", id1)
	}
	if id1 == id2 {
		t.Error("certificate IDs should be unique")
	}
}
