package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Basavaraj-fidelis/train-track-sub000/model"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils/auth"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils/token"
	"gorm.io/gorm"
)

var (
	ErrCourseNotFound      = errors.New("course not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrEnrollmentNotFound  = errors.New("enrollment not found")
	ErrTokenNotFound       = errors.New("assignment token not found")
	ErrAssignmentExpired   = errors.New("assignment deadline has passed")
	ErrQuizNotPassed       = errors.New("quiz has not been passed yet")
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrSignatureRequired   = errors.New("digital signature is required")
	ErrNotExpired          = errors.New("enrollment is not expired")
	ErrNotOwner            = errors.New("enrollment does not belong to this user")
)

// EnrollmentService owns the enrollment lifecycle: assignment, tokenized
// access, progress, quiz grading, acknowledgment, expiry and renewal.
type EnrollmentService struct {
	db     *gorm.DB
	certs  *CertificateService
	mailer Mailer
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(db *gorm.DB, certs *CertificateService, mailer Mailer) *EnrollmentService {
	return &EnrollmentService{
		db:     db,
		certs:  certs,
		mailer: mailer,
	}
}

// BulkAssignResult summarizes a bulk assignment. Per-row failures are
// accumulated, never aborting the whole batch.
type BulkAssignResult struct {
	Assigned int      `json:"assigned"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

func (s *EnrollmentService) activeCourse(courseID uint) (*model.Course, error) {
	var course model.Course
	if err := s.db.Where("id = ? AND is_active = ?", courseID, true).First(&course).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

// assignUser creates one pending enrollment for a registered user. Duplicate
// (user, course) pairs are silently skipped: first writer wins.
func (s *EnrollmentService) assignUser(course *model.Course, userID uint, now time.Time) (created bool, err error) {
	var count int64
	if err := s.db.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, course.ID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	deadline := DeadlineFrom(now, course.DefaultDeadlineDays)
	enrollment := model.Enrollment{
		UserID:   &userID,
		CourseID: course.ID,
		Status:   model.EnrollmentStatusPending,
		Deadline: &deadline,
	}
	if err := s.db.Create(&enrollment).Error; err != nil {
		return false, err
	}
	return true, nil
}

// BulkAssignCourse assigns one course to many registered users.
func (s *EnrollmentService) BulkAssignCourse(ctx context.Context, courseID uint, userIDs []uint) (*BulkAssignResult, error) {
	course, err := s.activeCourse(courseID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := &BulkAssignResult{}
	for _, userID := range userIDs {
		created, err := s.assignUser(course, userID, now)
		if err != nil {
			log.Printf("bulk assign: user %d course %d: %v", userID, courseID, err)
			result.Errors = append(result.Errors, fmt.Sprintf("user %d: assignment failed", userID))
			continue
		}
		if created {
			result.Assigned++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}

// BulkAssignUsers assigns many courses to one registered user.
func (s *EnrollmentService) BulkAssignUsers(ctx context.Context, userID uint, courseIDs []uint) (*BulkAssignResult, error) {
	var user model.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := time.Now()
	result := &BulkAssignResult{}
	for _, courseID := range courseIDs {
		course, err := s.activeCourse(courseID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("course %d: not found or inactive", courseID))
			continue
		}
		created, err := s.assignUser(course, userID, now)
		if err != nil {
			log.Printf("bulk assign: user %d course %d: %v", userID, courseID, err)
			result.Errors = append(result.Errors, fmt.Sprintf("course %d: assignment failed", courseID))
			continue
		}
		if created {
			result.Assigned++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}

// BulkAssignByEmail invites a list of email addresses to a course. Addresses
// belonging to registered users are assigned directly; unknown addresses get
// a tokenized enrollment plus an invitation email with the access link.
// deadlineDays overrides the course default when positive.
func (s *EnrollmentService) BulkAssignByEmail(ctx context.Context, courseID uint, emails []string, deadlineDays int) (*BulkAssignResult, error) {
	course, err := s.activeCourse(courseID)
	if err != nil {
		return nil, err
	}

	days := course.DefaultDeadlineDays
	if deadlineDays > 0 {
		days = deadlineDays
	}

	now := time.Now()
	result := &BulkAssignResult{}
	for _, email := range emails {
		var user model.User
		err := s.db.Where("email = ?", email).First(&user).Error
		switch {
		case err == nil:
			created, err := s.assignUser(course, user.ID, now)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: assignment failed", email))
				continue
			}
			if created {
				result.Assigned++
			} else {
				result.Skipped++
			}

		case err == gorm.ErrRecordNotFound:
			created, accessToken, err := s.assignEmail(course, email, days, now)
			if err != nil {
				log.Printf("bulk assign by email: %s course %d: %v", email, courseID, err)
				result.Errors = append(result.Errors, fmt.Sprintf("%s: assignment failed", email))
				continue
			}
			if !created {
				result.Skipped++
				continue
			}
			result.Assigned++

			deadline := DeadlineFrom(now, days)
			toEmail := email
			dispatchAsync("assignment invitation", func() error {
				return s.mailer.SendAssignmentInvitation(toEmail, course.Title, accessToken, deadline)
			})

		default:
			result.Errors = append(result.Errors, fmt.Sprintf("%s: lookup failed", email))
		}
	}
	return result, nil
}

// assignEmail creates a tokenized enrollment for an address with no account.
func (s *EnrollmentService) assignEmail(course *model.Course, email string, days int, now time.Time) (created bool, accessToken string, err error) {
	var count int64
	if err := s.db.Model(&model.Enrollment{}).
		Where("assigned_email = ? AND course_id = ?", email, course.ID).
		Count(&count).Error; err != nil {
		return false, "", err
	}
	if count > 0 {
		return false, "", nil
	}

	accessToken, err = token.NewAssignmentToken()
	if err != nil {
		return false, "", err
	}

	deadline := DeadlineFrom(now, days)
	enrollment := model.Enrollment{
		CourseID:        course.ID,
		AssignedEmail:   email,
		AssignmentToken: &accessToken,
		Status:          model.EnrollmentStatusPending,
		Deadline:        &deadline,
	}
	if err := s.db.Create(&enrollment).Error; err != nil {
		return false, "", err
	}
	return true, accessToken, nil
}

// AutoEnrollNewEmployee enrolls a freshly created employee into every active
// course flagged for auto-enrollment.
func (s *EnrollmentService) AutoEnrollNewEmployee(ctx context.Context, user *model.User) error {
	var courses []model.Course
	if err := s.db.Where("is_auto_enroll_new_employees = ? AND is_active = ?", true, true).Find(&courses).Error; err != nil {
		return err
	}

	now := time.Now()
	for i := range courses {
		if _, err := s.assignUser(&courses[i], user.ID, now); err != nil {
			log.Printf("auto-enroll: user %d course %d: %v", user.ID, courses[i].ID, err)
		}
	}
	return nil
}

// AutoEnrollAllEmployees enrolls every active employee into a compliance
// course, typically right after the course is created.
func (s *EnrollmentService) AutoEnrollAllEmployees(ctx context.Context, course *model.Course) (*BulkAssignResult, error) {
	var employees []model.User
	if err := s.db.Where("role = ? AND is_active = ?", model.RoleEmployee, true).Find(&employees).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	result := &BulkAssignResult{}
	for i := range employees {
		created, err := s.assignUser(course, employees[i].ID, now)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("user %d: assignment failed", employees[i].ID))
			continue
		}
		if created {
			result.Assigned++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}

// TokenAccess is what a valid token redemption returns to the client.
type TokenAccess struct {
	Enrollment  *model.Enrollment `json:"enrollment"`
	Course      *model.Course     `json:"course"`
	IsFirstTime bool              `json:"is_first_time"`
}

// lookupToken loads and gates an enrollment by its assignment token.
func (s *EnrollmentService) lookupToken(accessToken string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := s.db.Preload("Course").Where("assignment_token = ?", accessToken).First(&enrollment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	if enrollment.Status == model.EnrollmentStatusExpired || enrollment.DeadlinePassed(time.Now()) {
		return nil, ErrAssignmentExpired
	}
	return &enrollment, nil
}

// RedeemToken resolves an assignment token. When a user already exists for
// the assigned email the enrollment is linked immediately; otherwise the
// caller must complete the profile step first. Redeeming twice with an
// already-linked user is a no-op.
func (s *EnrollmentService) RedeemToken(ctx context.Context, accessToken string) (*TokenAccess, error) {
	enrollment, err := s.lookupToken(accessToken)
	if err != nil {
		return nil, err
	}

	if enrollment.IsLinked() {
		return &TokenAccess{Enrollment: enrollment, Course: &enrollment.Course, IsFirstTime: false}, nil
	}

	var user model.User
	err = s.db.Where("email = ?", enrollment.AssignedEmail).First(&user).Error
	switch {
	case err == nil:
		if err := s.linkEnrollment(enrollment, user.ID); err != nil {
			return nil, err
		}
		return &TokenAccess{Enrollment: enrollment, Course: &enrollment.Course, IsFirstTime: false}, nil

	case err == gorm.ErrRecordNotFound:
		// Profile completion needed before the enrollment can be linked.
		return &TokenAccess{Enrollment: enrollment, Course: &enrollment.Course, IsFirstTime: true}, nil

	default:
		return nil, err
	}
}

// linkEnrollment attaches a user to a previously bare-email enrollment.
func (s *EnrollmentService) linkEnrollment(enrollment *model.Enrollment, userID uint) error {
	enrollment.UserID = &userID
	enrollment.Status = model.EnrollmentStatusAccessed
	return s.db.Model(enrollment).Updates(map[string]interface{}{
		"user_id": userID,
		"status":  model.EnrollmentStatusAccessed,
	}).Error
}

// ProfileInput carries the self-service profile completion fields.
type ProfileInput struct {
	Name       string
	EmployeeID string
	Department string
	Client     string
}

// CompleteProfile creates a User for an email invitee (with a random
// placeholder password) and links the enrollment. If the user already
// exists it only links.
func (s *EnrollmentService) CompleteProfile(ctx context.Context, accessToken string, input ProfileInput) (*model.User, *model.Enrollment, error) {
	enrollment, err := s.lookupToken(accessToken)
	if err != nil {
		return nil, nil, err
	}

	var user model.User
	isNewUser := false
	err = s.db.Where("email = ?", enrollment.AssignedEmail).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		isNewUser = true
		placeholder, err := auth.GenerateRandomPassword()
		if err != nil {
			return nil, nil, err
		}
		passwordHash, err := auth.HashPassword(placeholder)
		if err != nil {
			return nil, nil, err
		}

		user = model.User{
			Email:        enrollment.AssignedEmail,
			PasswordHash: passwordHash,
			Name:         input.Name,
			EmployeeID:   input.EmployeeID,
			Role:         model.RoleEmployee,
			Department:   input.Department,
			Client:       input.Client,
			IsActive:     true,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to create user: %w", err)
		}
	} else if err != nil {
		return nil, nil, err
	}

	if !enrollment.IsLinked() {
		if err := s.linkEnrollment(enrollment, user.ID); err != nil {
			return nil, nil, err
		}
	}

	// Invitees are new employees too; pick up the auto-enroll courses the
	// same way admin-created accounts do. Runs after the link so the
	// duplicate check sees the invitation enrollment.
	if isNewUser {
		if err := s.AutoEnrollNewEmployee(ctx, &user); err != nil {
			log.Printf("complete profile: auto-enroll user %d: %v", user.ID, err)
		}
	}

	return &user, enrollment, nil
}

// ownedEnrollment loads an enrollment and verifies it belongs to the user.
func (s *EnrollmentService) ownedEnrollment(enrollmentID, userID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := s.db.Preload("Course").First(&enrollment, enrollmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	if enrollment.UserID == nil || *enrollment.UserID != userID {
		return nil, ErrNotOwner
	}
	return &enrollment, nil
}

// UpdateProgress stores a clamped client-reported watch percentage. The
// status is not affected.
func (s *EnrollmentService) UpdateProgress(ctx context.Context, enrollmentID, userID uint, progress int) (*model.Enrollment, error) {
	enrollment, err := s.ownedEnrollment(enrollmentID, userID)
	if err != nil {
		return nil, err
	}

	enrollment.Progress = ClampProgress(progress)
	if err := s.db.Model(enrollment).Update("progress", enrollment.Progress).Error; err != nil {
		return nil, err
	}
	return enrollment, nil
}

// QuizSubmissionResult is returned to the client after grading.
type QuizSubmissionResult struct {
	Enrollment          *model.Enrollment `json:"enrollment"`
	Score               int               `json:"score"`
	PassingScore        int               `json:"passing_score"`
	Passed              bool              `json:"passed"`
	NeedsAcknowledgment bool              `json:"needs_acknowledgment"`
}

// SubmitQuiz grades a quiz attempt against the course's resolved quiz and
// applies the resulting transition. Retakes are unlimited; the latest score
// always overwrites the stored one.
func (s *EnrollmentService) SubmitQuiz(ctx context.Context, enrollmentID, userID uint, answers []int, reportedScore *int) (*QuizSubmissionResult, error) {
	enrollment, err := s.ownedEnrollment(enrollmentID, userID)
	if err != nil {
		return nil, err
	}

	resolved, err := s.resolveQuiz(&enrollment.Course)
	if err != nil {
		return nil, err
	}

	score := 0
	switch {
	case len(answers) > 0:
		score = resolved.Grade(answers)
	case reportedScore != nil:
		score = ClampProgress(*reportedScore)
	}

	passed, needsAck := ApplyQuizOutcome(enrollment, score, resolved.PassingScore)

	updates := map[string]interface{}{
		"quiz_score": *enrollment.QuizScore,
		"progress":   enrollment.Progress,
		"status":     enrollment.Status,
	}
	if err := s.db.Model(enrollment).Updates(updates).Error; err != nil {
		return nil, err
	}

	return &QuizSubmissionResult{
		Enrollment:          enrollment,
		Score:               score,
		PassingScore:        resolved.PassingScore,
		Passed:              passed,
		NeedsAcknowledgment: needsAck,
	}, nil
}

// resolveQuiz returns the course's single gradable quiz source: the
// dedicated Quiz entity when present, the embedded questions otherwise.
func (s *EnrollmentService) resolveQuiz(course *model.Course) (*ResolvedQuiz, error) {
	var quiz model.Quiz
	err := s.db.Where("course_id = ?", course.ID).Order("id").First(&quiz).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if err == nil {
		return ResolveQuiz(course, &quiz)
	}
	return ResolveQuiz(course, nil)
}

// Acknowledge finalizes a completion: given a digital signature and a
// passing quiz score it issues (or refreshes) the certificate and marks the
// enrollment completed. Notification failures never roll back the change.
func (s *EnrollmentService) Acknowledge(ctx context.Context, enrollmentID, userID uint, signature string) (*model.Certificate, *model.Enrollment, error) {
	if signature == "" {
		return nil, nil, ErrSignatureRequired
	}

	enrollment, err := s.ownedEnrollment(enrollmentID, userID)
	if err != nil {
		return nil, nil, err
	}

	resolved, err := s.resolveQuiz(&enrollment.Course)
	if err != nil {
		return nil, nil, err
	}
	if enrollment.QuizScore == nil || *enrollment.QuizScore < resolved.PassingScore {
		return nil, nil, ErrQuizNotPassed
	}

	var user model.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, nil, err
	}

	now := time.Now()
	expiresAt := CertificateExpiry(&enrollment.Course, now)

	var cert *model.Certificate
	err = s.db.Transaction(func(tx *gorm.DB) error {
		cert, err = s.certs.Issue(tx, &user, &enrollment.Course, enrollment, signature, *enrollment.QuizScore, now)
		if err != nil {
			return err
		}

		return tx.Model(enrollment).Updates(map[string]interface{}{
			"certificate_issued": true,
			"progress":           progressDone,
			"status":             model.EnrollmentStatusCompleted,
			"completed_at":       now,
			"expires_at":         expiresAt,
		}).Error
	})
	if err != nil {
		return nil, nil, err
	}

	enrollment.CertificateIssued = true
	enrollment.Progress = progressDone
	enrollment.Status = model.EnrollmentStatusCompleted
	enrollment.CompletedAt = &now
	enrollment.ExpiresAt = expiresAt

	courseTitle := enrollment.Course.Title
	dispatchAsync("certificate email", func() error {
		return s.mailer.SendCertificateIssued(user.Email, user.Name, courseTitle)
	})
	dispatchAsync("HR completion notice", func() error {
		return s.mailer.SendCompletionNoticeToHR(user.Name, user.Email, courseTitle)
	})

	return cert, enrollment, nil
}

// ExpireOverdue transitions every pending enrollment whose deadline has
// passed to expired. Batch scan, run periodically; a passing deadline does
// not change state until the sweep sees it.
func (s *EnrollmentService) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.Model(&model.Enrollment{}).
		Where("status = ? AND deadline < ?", model.EnrollmentStatusPending, now).
		Updates(map[string]interface{}{
			"status":     model.EnrollmentStatusExpired,
			"is_expired": true,
		})
	return result.RowsAffected, result.Error
}

// Renew resets an expired enrollment for another compliance cycle. The
// superseded certificate row is kept for history.
func (s *EnrollmentService) Renew(ctx context.Context, enrollmentID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := s.db.Preload("Course").First(&enrollment, enrollmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}

	if !enrollment.IsExpired {
		return nil, ErrNotExpired
	}

	deadline := DeadlineFrom(time.Now(), enrollment.Course.DefaultDeadlineDays)
	err := s.db.Model(&enrollment).Updates(map[string]interface{}{
		"progress":           0,
		"quiz_score":         nil,
		"certificate_issued": false,
		"completed_at":       nil,
		"deadline":           deadline,
		"status":             model.EnrollmentStatusPending,
		"is_expired":         false,
		"expires_at":         nil,
		"renewal_count":      gorm.Expr("renewal_count + 1"),
	}).Error
	if err != nil {
		return nil, err
	}

	if err := s.db.Preload("Course").First(&enrollment, enrollmentID).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ReminderResult summarizes a reminder batch.
type ReminderResult struct {
	Eligible int `json:"eligible"`
	Sent     int `json:"sent"`
	Failed   int `json:"failed"`
}

// SendReminders emails everyone with an unfinished enrollment. When
// onlyDueSoon is set, only deadlines inside the course's reminder window are
// included (the automatic daily batch); admin-triggered batches send to all
// eligible enrollments. Each successful send increments RemindersSent.
func (s *EnrollmentService) SendReminders(ctx context.Context, now time.Time, onlyDueSoon bool) (*ReminderResult, error) {
	var enrollments []model.Enrollment
	err := s.db.Preload("Course").Preload("User").
		Where("status NOT IN ? AND certificate_issued = ? AND progress < ? AND deadline >= ?",
			[]model.EnrollmentStatus{model.EnrollmentStatusCompleted, model.EnrollmentStatusExpired},
			false, progressDone, now).
		Find(&enrollments).Error
	if err != nil {
		return nil, err
	}

	result := &ReminderResult{}
	for i := range enrollments {
		e := &enrollments[i]
		if !ReminderEligible(e, now) {
			continue
		}
		if onlyDueSoon && !WithinReminderWindow(e, e.Course.ReminderDays, now) {
			continue
		}
		result.Eligible++

		toEmail := e.AssignedEmail
		name := ""
		if e.User != nil {
			toEmail = e.User.Email
			name = e.User.Name
		}
		if toEmail == "" {
			continue
		}

		if err := s.mailer.SendReminder(toEmail, name, e.Course.Title, *e.Deadline); err != nil {
			log.Printf("reminder to %s failed: %v", toEmail, err)
			result.Failed++
			continue
		}

		if err := s.db.Model(e).Update("reminders_sent", gorm.Expr("reminders_sent + 1")).Error; err != nil {
			log.Printf("failed to record reminder for enrollment %d: %v", e.ID, err)
			continue
		}
		result.Sent++
	}
	return result, nil
}

// ResetStaleReminderCounts re-arms reminders: any enrollment older than 30
// days with at least one reminder sent gets its counter zeroed, so the next
// batch reaches it again.
func (s *EnrollmentService) ResetStaleReminderCounts(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-30 * 24 * time.Hour)
	result := s.db.Model(&model.Enrollment{}).
		Where("created_at < ? AND reminders_sent > ?", cutoff, 0).
		Update("reminders_sent", 0)
	return result.RowsAffected, result.Error
}

// ListForUser returns a user's enrollments with course data for the
// employee dashboard.
func (s *EnrollmentService) ListForUser(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := s.db.Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

// CertificateForUser fetches the user's certificate for a course.
func (s *EnrollmentService) CertificateForUser(ctx context.Context, userID, courseID uint) (*model.Certificate, error) {
	return s.certs.GetForUser(userID, courseID)
}

// Get loads a single enrollment with its course.
func (s *EnrollmentService) Get(ctx context.Context, enrollmentID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := s.db.Preload("Course").Preload("User").First(&enrollment, enrollmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}
