package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Basavaraj-fidelis/train-track-sub000/model"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils/auth"
)

// noopMailer records outbound mail without sending anything.
type noopMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *noopMailer) record(kind string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, kind)
	return nil
}

func (m *noopMailer) SendAssignmentInvitation(toEmail, courseTitle, accessToken string, deadline time.Time) error {
	return m.record("invitation")
}

func (m *noopMailer) SendReminder(toEmail, name, courseTitle string, deadline time.Time) error {
	return m.record("reminder")
}

func (m *noopMailer) SendCertificateIssued(toEmail, name, courseTitle string) error {
	return m.record("certificate")
}

func (m *noopMailer) SendCompletionNoticeToHR(employeeName, employeeEmail, courseTitle string) error {
	return m.record("hr")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	host := getEnvOrDefault("TEST_DB_HOST", "localhost")
	port := getEnvOrDefault("TEST_DB_PORT", "5432")
	user := getEnvOrDefault("TEST_DB_USER", "postgres")
	password := getEnvOrDefault("TEST_DB_PASSWORD", "postgres")
	dbName := getEnvOrDefault("TEST_DB_NAME", "traintrack_test")

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host, user, password, dbName, port)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&model.User{}, &model.Course{}, &model.Quiz{},
		&model.Enrollment{}, &model.Certificate{}, &model.CronJobLog{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	// Hard-wipe in FK order so each run starts clean.
	for _, table := range []string{"certificates", "enrollments", "quizzes", "courses", "users", "cron_job_logs"} {
		db.Exec("DELETE FROM " + table)
	}

	return db
}

func newTestServices(t *testing.T) (*EnrollmentService, *CourseService, *gorm.DB, *noopMailer) {
	t.Helper()
	db := setupTestDB(t)
	mailer := &noopMailer{}
	certs := NewCertificateService(db)
	return NewEnrollmentService(db, certs, mailer), NewCourseService(db), db, mailer
}

func createTestEmployee(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	hash, err := auth.HashPassword("test-password")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test Employee",
		Role:         model.RoleEmployee,
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return &user
}

func createTestCourse(t *testing.T, courses *CourseService, input CourseInput) *model.Course {
	t.Helper()
	course, err := courses.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("failed to create test course: %v", err)
	}
	return course
}

func TestEnrollmentLifecycle(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run.")
	}

	enrollments, courses, db, _ := newTestServices(t)
	ctx := context.Background()

	course := createTestCourse(t, courses, CourseInput{
		Title:      "Workplace Safety",
		VideoURL:   "https://videos.example.com/safety.mp4",
		CourseType: model.CourseTypeRecurring,
		Questions: []model.QuizQuestion{
			{Question: "Q1", Options: []string{"a", "b"}, CorrectOption: 0},
			{Question: "Q2", Options: []string{"a", "b"}, CorrectOption: 1},
		},
		RenewalPeriodMonths: 3,
		DefaultDeadlineDays: 14,
	})

	employee := createTestEmployee(t, db, "lifecycle@example.com")

	t.Run("DirectAssignment", func(t *testing.T) {
		// Two tokenless rows; the second must not trip the token index.
		second := createTestEmployee(t, db, "lifecycle2@example.com")
		result, err := enrollments.BulkAssignCourse(ctx, course.ID, []uint{employee.ID, second.ID})
		if err != nil {
			t.Fatalf("BulkAssignCourse: %v", err)
		}
		if result.Assigned != 2 {
			t.Errorf("Assigned = %d, want 2; errors: %v", result.Assigned, result.Errors)
		}

		var count int64
		db.Model(&model.Enrollment{}).Where("course_id = ?", course.ID).Count(&count)
		if count != 2 {
			t.Errorf("enrollment rows = %d, want 2", count)
		}
	})

	t.Run("DuplicateAssignmentSkipped", func(t *testing.T) {
		result, err := enrollments.BulkAssignCourse(ctx, course.ID, []uint{employee.ID})
		if err != nil {
			t.Fatalf("BulkAssignCourse: %v", err)
		}
		if result.Assigned != 0 || result.Skipped != 1 {
			t.Errorf("Assigned=%d Skipped=%d, want duplicate silently skipped", result.Assigned, result.Skipped)
		}

		var count int64
		db.Model(&model.Enrollment{}).
			Where("user_id = ? AND course_id = ?", employee.ID, course.ID).
			Count(&count)
		if count != 1 {
			t.Errorf("enrollment rows = %d, want exactly 1", count)
		}
	})

	t.Run("AssignToMissingUser", func(t *testing.T) {
		if _, err := enrollments.BulkAssignUsers(ctx, 999999, []uint{course.ID}); err != ErrUserNotFound {
			t.Errorf("err = %v, want ErrUserNotFound", err)
		}
	})

	var enrollmentID uint
	t.Run("QuizFailThenPass", func(t *testing.T) {
		var e model.Enrollment
		if err := db.Where("user_id = ? AND course_id = ?", employee.ID, course.ID).First(&e).Error; err != nil {
			t.Fatalf("failed to load enrollment: %v", err)
		}
		enrollmentID = e.ID

		if _, err := enrollments.UpdateProgress(ctx, e.ID, employee.ID, 100); err != nil {
			t.Fatalf("UpdateProgress: %v", err)
		}

		// One of two correct: 50%, below the default passing score.
		fail, err := enrollments.SubmitQuiz(ctx, e.ID, employee.ID, []int{0, 0}, nil)
		if err != nil {
			t.Fatalf("SubmitQuiz (fail): %v", err)
		}
		if fail.Passed {
			t.Error("50% should not pass at the default passing score")
		}
		if fail.Enrollment.Progress != 90 {
			t.Errorf("Progress = %d, want capped at 90 after fail", fail.Enrollment.Progress)
		}

		pass, err := enrollments.SubmitQuiz(ctx, e.ID, employee.ID, []int{0, 1}, nil)
		if err != nil {
			t.Fatalf("SubmitQuiz (pass): %v", err)
		}
		if !pass.Passed || !pass.NeedsAcknowledgment {
			t.Errorf("Passed=%v NeedsAck=%v, want passing attempt awaiting acknowledgment", pass.Passed, pass.NeedsAcknowledgment)
		}
		if pass.Enrollment.Progress != 95 {
			t.Errorf("Progress = %d, want 95 while awaiting acknowledgment", pass.Enrollment.Progress)
		}
		if pass.Score != 100 {
			t.Errorf("Score = %d, want 100", pass.Score)
		}
	})

	t.Run("AcknowledgeWithoutPassingRejected", func(t *testing.T) {
		// A second employee with no quiz attempt yet.
		other := createTestEmployee(t, db, "no-quiz@example.com")
		if _, err := enrollments.BulkAssignCourse(ctx, course.ID, []uint{other.ID}); err != nil {
			t.Fatalf("BulkAssignCourse: %v", err)
		}
		var e model.Enrollment
		if err := db.Where("user_id = ?", other.ID).First(&e).Error; err != nil {
			t.Fatalf("failed to load enrollment: %v", err)
		}

		if _, _, err := enrollments.Acknowledge(ctx, e.ID, other.ID, "Jane"); err != ErrQuizNotPassed {
			t.Errorf("err = %v, want ErrQuizNotPassed", err)
		}
	})

	var firstCertID string
	t.Run("Acknowledge", func(t *testing.T) {
		if _, _, err := enrollments.Acknowledge(ctx, enrollmentID, employee.ID, ""); err != ErrSignatureRequired {
			t.Fatalf("err = %v, want ErrSignatureRequired for empty signature", err)
		}

		cert, e, err := enrollments.Acknowledge(ctx, enrollmentID, employee.ID, "Jane Doe")
		if err != nil {
			t.Fatalf("Acknowledge: %v", err)
		}

		if !e.CertificateIssued || e.Progress != 100 || e.Status != model.EnrollmentStatusCompleted {
			t.Errorf("enrollment = issued:%v progress:%d status:%s, want completed", e.CertificateIssued, e.Progress, e.Status)
		}
		if e.CompletedAt == nil {
			t.Error("CompletedAt should be set")
		}
		if e.ExpiresAt == nil {
			t.Fatal("ExpiresAt should be set for a recurring course")
		}
		wantExpiry := e.CompletedAt.Add(90 * 24 * time.Hour)
		if e.ExpiresAt.Sub(wantExpiry) > time.Minute || wantExpiry.Sub(*e.ExpiresAt) > time.Minute {
			t.Errorf("ExpiresAt = %v, want ~%v (3 renewal months of 30 days)", e.ExpiresAt, wantExpiry)
		}
		firstCertID = cert.CertificateID
		if firstCertID == "" {
			t.Error("certificate should carry a synthetic ID")
		}
	})

	t.Run("ReacknowledgeUpdatesInPlace", func(t *testing.T) {
		cert, _, err := enrollments.Acknowledge(ctx, enrollmentID, employee.ID, "Jane Doe Again")
		if err != nil {
			t.Fatalf("Acknowledge (again): %v", err)
		}

		if cert.CertificateID != firstCertID {
			t.Errorf("CertificateID changed on re-acknowledgment: %s -> %s", firstCertID, cert.CertificateID)
		}

		var count int64
		db.Model(&model.Certificate{}).
			Where("user_id = ? AND course_id = ?", employee.ID, course.ID).
			Count(&count)
		if count != 1 {
			t.Errorf("certificate rows = %d, want exactly 1 per (user, course)", count)
		}
	})
}

func TestEmailInvitationFlow(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run.")
	}

	enrollments, courses, db, _ := newTestServices(t)
	ctx := context.Background()

	course := createTestCourse(t, courses, CourseInput{
		Title:    "Data Privacy",
		VideoURL: "https://videos.example.com/privacy.mp4",
		Questions: []model.QuizQuestion{
			{Question: "Q1", Options: []string{"a", "b"}, CorrectOption: 0},
		},
	})

	// New hires should inherit this one on profile completion.
	onboarding := createTestCourse(t, courses, CourseInput{
		Title:                    "Mandatory Onboarding",
		VideoURL:                 "https://videos.example.com/onboarding.mp4",
		IsAutoEnrollNewEmployees: true,
	})

	known := createTestEmployee(t, db, "known@example.com")

	result, err := enrollments.BulkAssignByEmail(ctx, course.ID,
		[]string{"known@example.com", "invitee@example.com"}, 10)
	if err != nil {
		t.Fatalf("BulkAssignByEmail: %v", err)
	}
	if result.Assigned != 2 {
		t.Fatalf("Assigned = %d, want 2", result.Assigned)
	}

	// The known address got a direct enrollment, no token.
	var direct model.Enrollment
	if err := db.Where("user_id = ?", known.ID).First(&direct).Error; err != nil {
		t.Fatalf("direct enrollment missing: %v", err)
	}
	if direct.AssignmentToken != nil {
		t.Error("direct enrollment should carry no assignment token")
	}

	// The unknown address got a tokenized one.
	var invited model.Enrollment
	if err := db.Where("assigned_email = ?", "invitee@example.com").First(&invited).Error; err != nil {
		t.Fatalf("invited enrollment missing: %v", err)
	}
	if invited.AssignmentToken == nil {
		t.Fatal("invited enrollment should carry an assignment token")
	}
	if len(*invited.AssignmentToken) != 64 {
		t.Errorf("token length = %d, want 64 hex characters", len(*invited.AssignmentToken))
	}
	inviteToken := *invited.AssignmentToken
	if invited.UserID != nil {
		t.Error("invited enrollment should not be linked yet")
	}

	t.Run("RedeemUnknownToken", func(t *testing.T) {
		if _, err := enrollments.RedeemToken(ctx, "deadbeef"); err != ErrTokenNotFound {
			t.Errorf("err = %v, want ErrTokenNotFound", err)
		}
	})

	t.Run("RedeemNeedsProfile", func(t *testing.T) {
		access, err := enrollments.RedeemToken(ctx, inviteToken)
		if err != nil {
			t.Fatalf("RedeemToken: %v", err)
		}
		if !access.IsFirstTime {
			t.Error("unknown email should require profile completion")
		}
	})

	t.Run("CompleteProfileLinksEnrollment", func(t *testing.T) {
		user, e, err := enrollments.CompleteProfile(ctx, inviteToken, ProfileInput{
			Name:       "New Hire",
			Department: "Operations",
		})
		if err != nil {
			t.Fatalf("CompleteProfile: %v", err)
		}
		if user.Email != "invitee@example.com" || user.Role != model.RoleEmployee {
			t.Errorf("user = %s/%s, want invitee@example.com employee", user.Email, user.Role)
		}
		if e.UserID == nil || *e.UserID != user.ID {
			t.Error("enrollment should be linked to the new user")
		}
		if e.Status != model.EnrollmentStatusAccessed {
			t.Errorf("Status = %s, want accessed after linking", e.Status)
		}

		// The new account is a new employee; auto-enroll courses apply.
		var count int64
		db.Model(&model.Enrollment{}).
			Where("user_id = ? AND course_id = ?", user.ID, onboarding.ID).
			Count(&count)
		if count != 1 {
			t.Errorf("onboarding enrollments = %d, want 1 via auto-enroll", count)
		}
	})

	t.Run("SecondRedeemIsIdempotent", func(t *testing.T) {
		access, err := enrollments.RedeemToken(ctx, inviteToken)
		if err != nil {
			t.Fatalf("RedeemToken (second): %v", err)
		}
		if access.IsFirstTime {
			t.Error("second redemption should not require profile completion")
		}
	})

	t.Run("ExpiredDeadlineReturnsGone", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		var stale model.Enrollment
		db.Where("assigned_email = ?", "invitee@example.com").First(&stale)
		db.Model(&stale).Update("deadline", past)

		if _, err := enrollments.RedeemToken(ctx, inviteToken); err != ErrAssignmentExpired {
			t.Errorf("err = %v, want ErrAssignmentExpired", err)
		}
	})
}

func TestExpirySweepAndRenewal(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run.")
	}

	enrollments, courses, db, _ := newTestServices(t)
	ctx := context.Background()

	course := createTestCourse(t, courses, CourseInput{
		Title:    "Annual Compliance",
		VideoURL: "https://videos.example.com/compliance.mp4",
	})
	employee := createTestEmployee(t, db, "sweep@example.com")

	if _, err := enrollments.BulkAssignCourse(ctx, course.ID, []uint{employee.ID}); err != nil {
		t.Fatalf("BulkAssignCourse: %v", err)
	}

	var e model.Enrollment
	if err := db.Where("user_id = ?", employee.ID).First(&e).Error; err != nil {
		t.Fatalf("failed to load enrollment: %v", err)
	}

	// Push the deadline into the past and sweep.
	past := time.Now().Add(-48 * time.Hour)
	db.Model(&e).Update("deadline", past)

	expired, err := enrollments.ExpireOverdue(ctx, time.Now())
	if err != nil {
		t.Fatalf("ExpireOverdue: %v", err)
	}
	if expired != 1 {
		t.Errorf("expired = %d, want 1", expired)
	}

	db.First(&e, e.ID)
	if e.Status != model.EnrollmentStatusExpired || !e.IsExpired {
		t.Fatalf("status=%s isExpired=%v, want expired", e.Status, e.IsExpired)
	}

	t.Run("ExpiredExcludedFromReminders", func(t *testing.T) {
		result, err := enrollments.SendReminders(ctx, time.Now(), false)
		if err != nil {
			t.Fatalf("SendReminders: %v", err)
		}
		if result.Eligible != 0 {
			t.Errorf("Eligible = %d, want 0 after expiry", result.Eligible)
		}
	})

	t.Run("RenewalRequiresExpired", func(t *testing.T) {
		other := createTestEmployee(t, db, "fresh@example.com")
		if _, err := enrollments.BulkAssignCourse(ctx, course.ID, []uint{other.ID}); err != nil {
			t.Fatalf("BulkAssignCourse: %v", err)
		}
		var fresh model.Enrollment
		db.Where("user_id = ?", other.ID).First(&fresh)

		if _, err := enrollments.Renew(ctx, fresh.ID); err != ErrNotExpired {
			t.Errorf("err = %v, want ErrNotExpired", err)
		}
	})

	t.Run("Renewal", func(t *testing.T) {
		renewed, err := enrollments.Renew(ctx, e.ID)
		if err != nil {
			t.Fatalf("Renew: %v", err)
		}

		if renewed.Status != model.EnrollmentStatusPending {
			t.Errorf("Status = %s, want pending", renewed.Status)
		}
		if renewed.Progress != 0 || renewed.QuizScore != nil || renewed.CertificateIssued {
			t.Error("renewal should reset progress, quiz score, and certificate flag")
		}
		if renewed.CompletedAt != nil {
			t.Error("renewal should clear CompletedAt")
		}
		if renewed.IsExpired {
			t.Error("renewal should clear IsExpired")
		}
		if renewed.RenewalCount != 1 {
			t.Errorf("RenewalCount = %d, want 1", renewed.RenewalCount)
		}
		if renewed.Deadline == nil || !renewed.Deadline.After(time.Now()) {
			t.Error("renewal should assign a fresh future deadline")
		}
	})
}

func TestReminderReset(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run.")
	}

	enrollments, courses, db, _ := newTestServices(t)
	ctx := context.Background()

	course := createTestCourse(t, courses, CourseInput{
		Title:    "Security Basics",
		VideoURL: "https://videos.example.com/security.mp4",
	})
	employee := createTestEmployee(t, db, "reset@example.com")

	if _, err := enrollments.BulkAssignCourse(ctx, course.ID, []uint{employee.ID}); err != nil {
		t.Fatalf("BulkAssignCourse: %v", err)
	}

	var e model.Enrollment
	db.Where("user_id = ?", employee.ID).First(&e)

	// Age the row past the 30-day window with reminders already sent.
	old := time.Now().Add(-40 * 24 * time.Hour)
	db.Model(&e).UpdateColumns(map[string]interface{}{
		"created_at":     old,
		"reminders_sent": 3,
	})

	reset, err := enrollments.ResetStaleReminderCounts(ctx, time.Now())
	if err != nil {
		t.Fatalf("ResetStaleReminderCounts: %v", err)
	}
	if reset != 1 {
		t.Errorf("reset = %d, want 1", reset)
	}

	db.First(&e, e.ID)
	if e.RemindersSent != 0 {
		t.Errorf("RemindersSent = %d, want re-armed to 0", e.RemindersSent)
	}
}

func TestCourseDeleteCascades(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run.")
	}

	enrollments, courses, db, _ := newTestServices(t)
	ctx := context.Background()

	course := createTestCourse(t, courses, CourseInput{
		Title:    "Doomed Course",
		VideoURL: "https://videos.example.com/doomed.mp4",
		Questions: []model.QuizQuestion{
			{Question: "Q1", Options: []string{"a", "b"}, CorrectOption: 0},
		},
	})
	other := createTestCourse(t, courses, CourseInput{
		Title:    "Surviving Course",
		VideoURL: "https://videos.example.com/surviving.mp4",
	})

	orphan := createTestEmployee(t, db, "orphan@example.com")
	survivor := createTestEmployee(t, db, "survivor@example.com")

	if _, err := enrollments.BulkAssignCourse(ctx, course.ID, []uint{orphan.ID, survivor.ID}); err != nil {
		t.Fatalf("BulkAssignCourse: %v", err)
	}
	if _, err := enrollments.BulkAssignCourse(ctx, other.ID, []uint{survivor.ID}); err != nil {
		t.Fatalf("BulkAssignCourse (other): %v", err)
	}

	if err := courses.Delete(ctx, course.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var count int64
	db.Model(&model.Enrollment{}).Where("course_id = ?", course.ID).Count(&count)
	if count != 0 {
		t.Errorf("enrollments left = %d, want 0", count)
	}

	// The employee with no other enrollment is removed, the other kept.
	if err := db.Where("email = ?", "orphan@example.com").First(&model.User{}).Error; err != gorm.ErrRecordNotFound {
		t.Errorf("orphaned employee should be deleted with the course, got err = %v", err)
	}
	if err := db.Where("email = ?", "survivor@example.com").First(&model.User{}).Error; err != nil {
		t.Errorf("employee with other enrollments should survive: %v", err)
	}
}
