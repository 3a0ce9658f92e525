package cron

import (
	"log"
	"time"

	"github.com/Basavaraj-fidelis/train-track-sub000/model"
	"github.com/Basavaraj-fidelis/train-track-sub000/services"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CronManager manages all scheduled background jobs
type CronManager struct {
	cron        *cron.Cron
	db          *gorm.DB
	enrollments *services.EnrollmentService
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, enrollments *services.EnrollmentService) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:        c,
		db:          db,
		enrollments: enrollments,
	}
}

// Start registers and starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Every hour: expire overdue pending enrollments
	_, err := m.cron.AddFunc("0 0 * * * *", func() {
		m.logJobStart("expire_overdue_enrollments")
		m.ExpireOverdueEnrollments()
	})
	if err != nil {
		return err
	}

	// Daily at 8 AM: reminder batch for deadlines inside the course window
	_, err = m.cron.AddFunc("0 0 8 * * *", func() {
		m.logJobStart("send_deadline_reminders")
		m.SendDeadlineReminders()
	})
	if err != nil {
		return err
	}

	// Daily at 2 AM: re-arm reminder counters on stale enrollments
	_, err = m.cron.AddFunc("0 0 2 * * *", func() {
		m.logJobStart("reset_reminder_counts")
		m.ResetReminderCounts()
	})
	if err != nil {
		return err
	}

	log.Println("All cron jobs registered successfully")
	return nil
}

// logJobStart logs the start of a cron job
func (m *CronManager) logJobStart(jobName string) {
	log.Printf("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))

	cronLog := model.CronJobLog{
		JobName:   jobName,
		Status:    "running",
		StartedAt: time.Now(),
	}
	m.db.Create(&cronLog)
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(jobName string, message string) {
	log.Printf("[CRON] Completed job: %s - %s", jobName, message)

	m.db.Model(&model.CronJobLog{}).
		Where("job_name = ? AND status = ?", jobName, "running").
		Order("started_at DESC").
		Limit(1).
		Updates(map[string]interface{}{
			"status":       "completed",
			"completed_at": time.Now(),
			"message":      message,
		})
}

// logJobError logs a failed cron job
func (m *CronManager) logJobError(jobName string, err error) {
	log.Printf("[CRON] Job failed: %s - %v", jobName, err)

	m.db.Model(&model.CronJobLog{}).
		Where("job_name = ? AND status = ?", jobName, "running").
		Order("started_at DESC").
		Limit(1).
		Updates(map[string]interface{}{
			"status":       "failed",
			"completed_at": time.Now(),
			"error_msg":    err.Error(),
		})
}
