package cron

import (
	"context"
	"fmt"
	"time"
)

// ExpireOverdueEnrollments transitions pending enrollments whose deadline
// has passed to expired. Runs hourly; the sweep interval determines how
// stale an overdue enrollment can be.
func (m *CronManager) ExpireOverdueEnrollments() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "expire_overdue_enrollments"

	expired, err := m.enrollments.ExpireOverdue(ctx, time.Now())
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to expire enrollments: %w", err))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Expired %d enrollments", expired))
}

// SendDeadlineReminders emails enrollees whose deadline falls inside their
// course's reminder window. Runs daily.
func (m *CronManager) SendDeadlineReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	jobName := "send_deadline_reminders"

	result, err := m.enrollments.SendReminders(ctx, time.Now(), true)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to send reminders: %w", err))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Eligible %d, sent %d, failed %d",
		result.Eligible, result.Sent, result.Failed))
}

// ResetReminderCounts zeroes RemindersSent on enrollments older than 30
// days that already received a reminder, re-arming future batches.
func (m *CronManager) ResetReminderCounts() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "reset_reminder_counts"

	reset, err := m.enrollments.ResetStaleReminderCounts(ctx, time.Now())
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to reset reminder counts: %w", err))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Reset %d reminder counters", reset))
}
