package services

import (
	"testing"
	"time"

	"github.com/Basavaraj-fidelis/train-track-sub000/model"
)

func TestClampProgress(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{-10, 0},
		{0, 0},
		{50, 50},
		{100, 100},
		{150, 100},
	}
	for _, c := range cases {
		if got := ClampProgress(c.in); got != c.want {
			t.Errorf("ClampProgress(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestDeadlineFrom(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	deadline := DeadlineFrom(now, 30)

	want := now.Add(30 * 24 * time.Hour)
	if !deadline.Equal(want) {
		t.Errorf("DeadlineFrom = %v, want %v", deadline, want)
	}
}

func TestApplyQuizOutcome_PassWithoutCertificate(t *testing.T) {
	e := &model.Enrollment{Status: model.EnrollmentStatusPending, Progress: 80}

	passed, needsAck := ApplyQuizOutcome(e, 85, 70)

	if !passed {
		t.Fatal("expected a passing outcome")
	}
	if !needsAck {
		t.Error("expected acknowledgment to be needed before certificate issuance")
	}
	if e.Progress != 95 {
		t.Errorf("Progress = %d, want 95 (awaiting acknowledgment)", e.Progress)
	}
	if e.Status != model.EnrollmentStatusAccessed {
		t.Errorf("Status = %s, want accessed", e.Status)
	}
	if e.QuizScore == nil || *e.QuizScore != 85 {
		t.Errorf("QuizScore = %v, want 85", e.QuizScore)
	}
}

func TestApplyQuizOutcome_PassWithCertificate(t *testing.T) {
	e := &model.Enrollment{
		Status:            model.EnrollmentStatusCompleted,
		Progress:          95,
		CertificateIssued: true,
	}

	passed, needsAck := ApplyQuizOutcome(e, 90, 70)

	if !passed || needsAck {
		t.Fatalf("passed=%v needsAck=%v, want passed without acknowledgment", passed, needsAck)
	}
	if e.Progress != 100 {
		t.Errorf("Progress = %d, want 100", e.Progress)
	}
	// A completed enrollment stays completed on a retake.
	if e.Status != model.EnrollmentStatusCompleted {
		t.Errorf("Status = %s, want completed", e.Status)
	}
}

func TestApplyQuizOutcome_FailCapsProgress(t *testing.T) {
	e := &model.Enrollment{Status: model.EnrollmentStatusAccessed, Progress: 95}

	passed, needsAck := ApplyQuizOutcome(e, 40, 70)

	if passed || needsAck {
		t.Fatalf("passed=%v needsAck=%v, want failed outcome", passed, needsAck)
	}
	if e.Progress != 90 {
		t.Errorf("Progress = %d, want capped at 90", e.Progress)
	}
	if e.Status != model.EnrollmentStatusAccessed {
		t.Errorf("Status = %s, want unchanged accessed", e.Status)
	}
}

func TestApplyQuizOutcome_FailKeepsLowerProgress(t *testing.T) {
	e := &model.Enrollment{Status: model.EnrollmentStatusPending, Progress: 45}

	ApplyQuizOutcome(e, 20, 70)

	if e.Progress != 45 {
		t.Errorf("Progress = %d, want 45 (watch progress preserved)", e.Progress)
	}
}

func TestApplyQuizOutcome_RetakeOverwritesScore(t *testing.T) {
	e := &model.Enrollment{Status: model.EnrollmentStatusAccessed}

	ApplyQuizOutcome(e, 40, 70)
	ApplyQuizOutcome(e, 90, 70)

	if e.QuizScore == nil || *e.QuizScore != 90 {
		t.Errorf("QuizScore = %v, want latest score 90", e.QuizScore)
	}
}

func TestReminderEligible(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(5 * 24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	cases := []struct {
		name string
		e    model.Enrollment
		want bool
	}{
		{"pending ahead of deadline", model.Enrollment{Status: model.EnrollmentStatusPending, Deadline: &future}, true},
		{"accessed ahead of deadline", model.Enrollment{Status: model.EnrollmentStatusAccessed, Progress: 50, Deadline: &future}, true},
		{"completed", model.Enrollment{Status: model.EnrollmentStatusCompleted, Deadline: &future}, false},
		{"expired", model.Enrollment{Status: model.EnrollmentStatusExpired, Deadline: &future}, false},
		{"certificate issued", model.Enrollment{Status: model.EnrollmentStatusAccessed, CertificateIssued: true, Deadline: &future}, false},
		{"progress 100", model.Enrollment{Status: model.EnrollmentStatusAccessed, Progress: 100, Deadline: &future}, false},
		{"deadline passed", model.Enrollment{Status: model.EnrollmentStatusPending, Deadline: &past}, false},
		{"no deadline", model.Enrollment{Status: model.EnrollmentStatusPending}, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ReminderEligible(&c.e, now); got != c.want {
				t.Errorf("ReminderEligible = %v, want %v", got, c.want)
			}
		})
	}
}

func TestWithinReminderWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	inWindow := now.Add(3 * 24 * time.Hour)
	outOfWindow := now.Add(10 * 24 * time.Hour)

	if !WithinReminderWindow(&model.Enrollment{Deadline: &inWindow}, 7, now) {
		t.Error("deadline 3 days out should be inside a 7-day window")
	}
	if WithinReminderWindow(&model.Enrollment{Deadline: &outOfWindow}, 7, now) {
		t.Error("deadline 10 days out should be outside a 7-day window")
	}
	if WithinReminderWindow(&model.Enrollment{}, 7, now) {
		t.Error("nil deadline is never inside the window")
	}
}

func TestDeadlinePassed(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	if !(&model.Enrollment{Deadline: &past}).DeadlinePassed(now) {
		t.Error("past deadline should report passed")
	}
	if (&model.Enrollment{Deadline: &future}).DeadlinePassed(now) {
		t.Error("future deadline should not report passed")
	}
	if (&model.Enrollment{}).DeadlinePassed(now) {
		t.Error("nil deadline should never report passed")
	}
}
