package course

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Basavaraj-fidelis/train-track-sub000/model"
	"github.com/Basavaraj-fidelis/train-track-sub000/services"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils/response"
)

// QuizQuestionView is a quiz question with the correct answer stripped,
// safe to hand to employees taking the quiz.
type QuizQuestionView struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// QuizView is the employee-facing quiz payload
type QuizView struct {
	Title        string             `json:"title"`
	PassingScore int                `json:"passing_score"`
	Questions    []QuizQuestionView `json:"questions"`
}

// GetQuiz handles GET /api/v1/courses/:id/quiz. Answers are never included;
// grading happens server-side on submission.
func (h *CourseHandler) GetQuiz(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	quiz, err := h.courses.GetQuiz(c.Context(), uint(courseID))
	if err != nil {
		switch err {
		case services.ErrCourseNotFound:
			return response.NotFound(c, "Course not found")
		case services.ErrNoQuizSource:
			return response.NotFound(c, "Course has no quiz")
		}
		return response.InternalServerError(c, "Failed to fetch quiz")
	}

	view := QuizView{
		Title:        quiz.Title,
		PassingScore: quiz.PassingScore,
		Questions:    make([]QuizQuestionView, 0, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		view.Questions = append(view.Questions, QuizQuestionView{
			Question: q.Question,
			Options:  q.Options,
		})
	}

	return response.Success(c, view)
}

// UpsertQuizRequest represents the request body for creating or replacing a
// course's dedicated quiz
type UpsertQuizRequest struct {
	Title        string               `json:"title" validate:"required,min=1,max=255"`
	PassingScore int                  `json:"passing_score" validate:"omitempty,min=1,max=100"`
	Questions    []model.QuizQuestion `json:"questions" validate:"required,min=1"`
}

// UpsertQuiz handles PUT /api/v1/courses/:id/quiz
func (h *CourseHandler) UpsertQuiz(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req UpsertQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Title == "" || len(req.Questions) == 0 {
		return response.BadRequest(c, "Title and at least one question are required")
	}
	for _, q := range req.Questions {
		if q.Question == "" || len(q.Options) < 2 {
			return response.BadRequest(c, "Each question needs text and at least two options")
		}
		if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
			return response.BadRequest(c, "Each question's correct option must index into its options")
		}
	}

	quiz, err := h.courses.UpsertQuiz(c.Context(), uint(courseID), req.Title, req.Questions, req.PassingScore)
	if err != nil {
		if err == services.ErrCourseNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to save quiz")
	}

	return response.Success(c, quiz)
}
