package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Basavaraj-fidelis/train-track-sub000/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNoQuizSource is returned when a course has neither a dedicated quiz nor
// embedded questions.
var ErrNoQuizSource = errors.New("course has no quiz")

// CourseService handles course CRUD, quiz resolution and cascade deletion.
type CourseService struct {
	db *gorm.DB
}

// NewCourseService creates a new course service
func NewCourseService(db *gorm.DB) *CourseService {
	return &CourseService{db: db}
}

// ResolvedQuiz is the single gradable quiz source for a course: the
// dedicated Quiz entity when one exists, the course's embedded questions
// (at the default passing score) otherwise.
type ResolvedQuiz struct {
	Title        string               `json:"title"`
	Questions    []model.QuizQuestion `json:"questions"`
	PassingScore int                  `json:"passing_score"`
	FromCourse   bool                 `json:"from_course"` // true when built from embedded questions
}

// ResolveQuiz builds the resolved quiz from a course and its optional
// dedicated quiz. The dedicated quiz always takes precedence.
func ResolveQuiz(course *model.Course, quiz *model.Quiz) (*ResolvedQuiz, error) {
	if quiz != nil {
		var questions []model.QuizQuestion
		if len(quiz.Questions) > 0 {
			if err := json.Unmarshal(quiz.Questions, &questions); err != nil {
				return nil, fmt.Errorf("failed to decode quiz questions: %w", err)
			}
		}
		passing := quiz.PassingScore
		if passing <= 0 {
			passing = model.DefaultPassingScore
		}
		return &ResolvedQuiz{
			Title:        quiz.Title,
			Questions:    questions,
			PassingScore: passing,
		}, nil
	}

	if len(course.Questions) == 0 {
		return nil, ErrNoQuizSource
	}

	var questions []model.QuizQuestion
	if err := json.Unmarshal(course.Questions, &questions); err != nil {
		return nil, fmt.Errorf("failed to decode embedded questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuizSource
	}

	return &ResolvedQuiz{
		Title:        course.Title,
		Questions:    questions,
		PassingScore: model.DefaultPassingScore,
		FromCourse:   true,
	}, nil
}

// Grade scores a list of selected option indexes against the quiz,
// returning a percentage.
func (q *ResolvedQuiz) Grade(answers []int) int {
	if len(q.Questions) == 0 {
		return 0
	}

	correct := 0
	for i, question := range q.Questions {
		if i < len(answers) && answers[i] == question.CorrectOption {
			correct++
		}
	}
	return correct * 100 / len(q.Questions)
}

// GetQuiz returns the resolved quiz for a course, loading the dedicated
// quiz entity when one exists.
func (s *CourseService) GetQuiz(ctx context.Context, courseID uint) (*ResolvedQuiz, error) {
	var course model.Course
	if err := s.db.First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	var quiz model.Quiz
	err := s.db.Where("course_id = ?", courseID).Order("id").First(&quiz).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if err == nil {
		return ResolveQuiz(&course, &quiz)
	}
	return ResolveQuiz(&course, nil)
}

// CourseInput carries create/update fields for a course.
type CourseInput struct {
	Title                    string
	Description              string
	VideoPath                string
	VideoURL                 string
	Questions                []model.QuizQuestion
	CourseType               string
	RenewalPeriodMonths      int
	DefaultDeadlineDays      int
	ReminderDays             int
	IsComplianceCourse       bool
	IsAutoEnrollNewEmployees bool
}

// Create persists a new course.
func (s *CourseService) Create(ctx context.Context, input CourseInput) (*model.Course, error) {
	course := model.Course{
		Title:                    input.Title,
		Description:              input.Description,
		VideoPath:                input.VideoPath,
		VideoURL:                 input.VideoURL,
		CourseType:               input.CourseType,
		RenewalPeriodMonths:      input.RenewalPeriodMonths,
		DefaultDeadlineDays:      input.DefaultDeadlineDays,
		ReminderDays:             input.ReminderDays,
		IsComplianceCourse:       input.IsComplianceCourse,
		IsAutoEnrollNewEmployees: input.IsAutoEnrollNewEmployees,
		IsActive:                 true,
	}

	if course.CourseType == "" {
		course.CourseType = model.CourseTypeOneTime
	}
	if course.DefaultDeadlineDays <= 0 {
		course.DefaultDeadlineDays = 30
	}
	if course.ReminderDays <= 0 {
		course.ReminderDays = 7
	}

	if len(input.Questions) > 0 {
		questionsJSON, err := json.Marshal(input.Questions)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal questions: %w", err)
		}
		course.Questions = datatypes.JSON(questionsJSON)
	}

	if err := s.db.Create(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// Update applies a partial update via a field map built by the handler.
func (s *CourseService) Update(ctx context.Context, courseID uint, updates map[string]interface{}) (*model.Course, error) {
	var course model.Course
	if err := s.db.First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	if err := s.db.Model(&course).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// Get loads one course.
func (s *CourseService) Get(ctx context.Context, courseID uint) (*model.Course, error) {
	var course model.Course
	if err := s.db.First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

// List returns courses, optionally including deactivated ones.
func (s *CourseService) List(ctx context.Context, includeInactive bool) ([]model.Course, error) {
	var courses []model.Course
	query := s.db.Order("created_at DESC")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&courses).Error
	return courses, err
}

// Deactivate soft-disables a course without touching its enrollments.
func (s *CourseService) Deactivate(ctx context.Context, courseID uint) error {
	result := s.db.Model(&model.Course{}).Where("id = ?", courseID).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCourseNotFound
	}
	return nil
}

// Delete hard-deletes a course with its quizzes, enrollments and
// certificates, then removes employees left with no enrollment at all.
// The cascade runs in a single transaction.
func (s *CourseService) Delete(ctx context.Context, courseID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var course model.Course
		if err := tx.First(&course, courseID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrCourseNotFound
			}
			return err
		}

		// Collect users touched by this course before the rows go away.
		var userIDs []uint
		if err := tx.Model(&model.Enrollment{}).
			Where("course_id = ? AND user_id IS NOT NULL", courseID).
			Distinct().
			Pluck("user_id", &userIDs).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().Where("course_id = ?", courseID).Delete(&model.Certificate{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("course_id = ?", courseID).Delete(&model.Enrollment{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("course_id = ?", courseID).Delete(&model.Quiz{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(&course).Error; err != nil {
			return err
		}

		// Orphan cleanup: employees who had no other enrollment.
		for _, userID := range userIDs {
			var remaining int64
			if err := tx.Model(&model.Enrollment{}).Where("user_id = ?", userID).Count(&remaining).Error; err != nil {
				return err
			}
			if remaining > 0 {
				continue
			}

			var user model.User
			if err := tx.First(&user, userID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					continue
				}
				return err
			}
			if user.Role != model.RoleEmployee {
				continue
			}
			if err := tx.Unscoped().Delete(&user).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// UpsertQuiz creates or replaces the dedicated quiz for a course.
func (s *CourseService) UpsertQuiz(ctx context.Context, courseID uint, title string, questions []model.QuizQuestion, passingScore int) (*model.Quiz, error) {
	if _, err := s.Get(ctx, courseID); err != nil {
		return nil, err
	}

	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal questions: %w", err)
	}
	if passingScore <= 0 {
		passingScore = model.DefaultPassingScore
	}

	var quiz model.Quiz
	err = s.db.Where("course_id = ?", courseID).First(&quiz).Error
	switch {
	case err == nil:
		quiz.Title = title
		quiz.Questions = datatypes.JSON(questionsJSON)
		quiz.PassingScore = passingScore
		if err := s.db.Save(&quiz).Error; err != nil {
			return nil, err
		}
	case err == gorm.ErrRecordNotFound:
		quiz = model.Quiz{
			CourseID:     courseID,
			Title:        title,
			Questions:    datatypes.JSON(questionsJSON),
			PassingScore: passingScore,
		}
		if err := s.db.Create(&quiz).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return &quiz, nil
}
