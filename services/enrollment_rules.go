package services

import (
	"time"

	"github.com/Basavaraj-fidelis/train-track-sub000/model"
)

// Progress milestones used by the enrollment lifecycle.
const (
	// progressAwaitingAck is set when the quiz is passed but the
	// certificate has not been acknowledged yet.
	progressAwaitingAck = 95
	// progressFailCap bounds progress after a failed quiz attempt,
	// preserving any previously recorded video-watch progress below it.
	progressFailCap = 90
	progressDone    = 100
)

// ClampProgress bounds a client-reported percentage to [0, 100].
func ClampProgress(progress int) int {
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

// DeadlineFrom computes an assignment deadline a number of days from now.
func DeadlineFrom(now time.Time, days int) time.Time {
	return now.Add(time.Duration(days) * 24 * time.Hour)
}

// ApplyQuizOutcome records a quiz attempt on the enrollment and returns
// whether the attempt passed and whether acknowledgment is still needed.
// The latest score always overwrites the stored one; retakes are unlimited.
func ApplyQuizOutcome(e *model.Enrollment, score, passingScore int) (passed bool, needsAck bool) {
	e.QuizScore = &score

	if score >= passingScore {
		if e.CertificateIssued {
			e.Progress = progressDone
		} else {
			e.Progress = progressAwaitingAck
			needsAck = true
		}
		if e.Status != model.EnrollmentStatusCompleted {
			e.Status = model.EnrollmentStatusAccessed
		}
		return true, needsAck
	}

	// Failed attempt: keep watch progress but cap it below the
	// awaiting-acknowledgment milestone. Status stays as-is.
	if e.Progress > progressFailCap {
		e.Progress = progressFailCap
	}
	return false, false
}

// ReminderEligible reports whether a reminder email may be sent for the
// enrollment: not completed or expired, no certificate, progress below 100,
// and the deadline still ahead.
func ReminderEligible(e *model.Enrollment, now time.Time) bool {
	if e.Status == model.EnrollmentStatusCompleted || e.Status == model.EnrollmentStatusExpired {
		return false
	}
	if e.CertificateIssued || e.Progress >= progressDone {
		return false
	}
	if e.Deadline == nil || e.Deadline.Before(now) {
		return false
	}
	return true
}

// WithinReminderWindow reports whether the deadline falls within the
// course's reminder window from now. Used by the automatic daily batch;
// admin-triggered batches ignore the window.
func WithinReminderWindow(e *model.Enrollment, reminderDays int, now time.Time) bool {
	if e.Deadline == nil {
		return false
	}
	return e.Deadline.Sub(now) <= time.Duration(reminderDays)*24*time.Hour
}
