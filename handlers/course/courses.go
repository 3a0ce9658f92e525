package course

import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Basavaraj-fidelis/train-track-sub000/model"
	"github.com/Basavaraj-fidelis/train-track-sub000/services"
	"github.com/Basavaraj-fidelis/train-track-sub000/services/storage"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils/response"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils/validation"
)

// Max accepted training video size
const maxVideoSize = 500 * 1024 * 1024 // 500MB

// CourseHandler handles course-related requests
type CourseHandler struct {
	courses     *services.CourseService
	enrollments *services.EnrollmentService
	storage     storage.VideoStorage
	validator   *validation.Validator
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courses *services.CourseService, enrollments *services.EnrollmentService, videoStorage storage.VideoStorage) *CourseHandler {
	return &CourseHandler{
		courses:     courses,
		enrollments: enrollments,
		storage:     videoStorage,
		validator:   validation.NewValidator(),
	}
}

// ListCourses handles GET /api/v1/courses
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	includeInactive := c.Query("include_inactive") == "true"

	courses, err := h.courses.List(c.Context(), includeInactive)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Success(c, courses)
}

// GetCourse handles GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	course, err := h.courses.Get(c.Context(), uint(courseID))
	if err != nil {
		if err == services.ErrCourseNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	return response.Success(c, course)
}

// parseCourseForm reads the multipart fields shared by create and update.
func (h *CourseHandler) parseCourseForm(c *fiber.Ctx) (services.CourseInput, error) {
	input := services.CourseInput{
		Title:       strings.TrimSpace(c.FormValue("title")),
		Description: c.FormValue("description"),
		VideoURL:    strings.TrimSpace(c.FormValue("video_url")),
		CourseType:  c.FormValue("course_type"),
	}

	if v := c.FormValue("renewal_period_months"); v != "" {
		months, err := strconv.Atoi(v)
		if err != nil || months < 0 {
			return input, fmt.Errorf("invalid renewal_period_months")
		}
		input.RenewalPeriodMonths = months
	}
	if v := c.FormValue("default_deadline_days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			return input, fmt.Errorf("invalid default_deadline_days")
		}
		input.DefaultDeadlineDays = days
	}
	if v := c.FormValue("reminder_days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			return input, fmt.Errorf("invalid reminder_days")
		}
		input.ReminderDays = days
	}
	input.IsComplianceCourse = c.FormValue("is_compliance_course") == "true"
	input.IsAutoEnrollNewEmployees = c.FormValue("is_auto_enroll_new_employees") == "true"

	if raw := c.FormValue("questions"); raw != "" {
		var questions []model.QuizQuestion
		if err := json.Unmarshal([]byte(raw), &questions); err != nil {
			return input, fmt.Errorf("questions must be a JSON array")
		}
		input.Questions = questions
	}

	return input, nil
}

// uploadVideo stores the uploaded file and returns its storage path/URL.
func (h *CourseHandler) uploadVideo(c *fiber.Ctx) (string, error) {
	file, err := c.FormFile("video")
	if err != nil {
		return "", nil // no file attached
	}

	if file.Size > maxVideoSize {
		return "", fmt.Errorf("video exceeds maximum allowed size of 500MB")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".mp4" && ext != ".webm" && ext != ".mov" {
		return "", fmt.Errorf("unsupported video format, expected mp4, webm or mov")
	}

	content, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file")
	}
	defer content.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}

	key := fmt.Sprintf("videos/%d_%s", time.Now().UnixNano(), filepath.Base(file.Filename))
	return h.storage.Upload(c.Context(), key, content, contentType)
}

// CreateCourse handles POST /api/v1/courses (multipart form)
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	input, err := h.parseCourseForm(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	if input.Title == "" {
		return response.BadRequest(c, "Title is required")
	}
	if input.CourseType != "" &&
		input.CourseType != model.CourseTypeOneTime &&
		input.CourseType != model.CourseTypeRecurring {
		return response.BadRequest(c, "Invalid course type. Must be 'one_time' or 'recurring'")
	}
	if input.CourseType == model.CourseTypeRecurring && input.RenewalPeriodMonths <= 0 {
		return response.BadRequest(c, "Recurring courses require renewal_period_months")
	}

	videoPath, err := h.uploadVideo(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	input.VideoPath = videoPath

	if input.VideoPath == "" && input.VideoURL == "" {
		return response.BadRequest(c, "A video file or video_url is required")
	}

	course, err := h.courses.Create(c.Context(), input)
	if err != nil {
		return response.InternalServerError(c, "Failed to create course")
	}

	// Auto-enroll courses pull in the current workforce right away; failures
	// here never undo the course creation.
	if course.IsAutoEnrollNewEmployees {
		if result, err := h.enrollments.AutoEnrollAllEmployees(c.Context(), course); err != nil {
			log.Printf("Warning: Failed to auto-enroll employees into course %d: %v", course.ID, err)
		} else {
			return response.Created(c, fiber.Map{
				"course":   course,
				"enrolled": result.Assigned,
			})
		}
	}

	return response.Created(c, course)
}

// UpdateCourseRequest represents the request body for updating a course
type UpdateCourseRequest struct {
	Title                    *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description              *string `json:"description"`
	VideoURL                 *string `json:"video_url"`
	CourseType               *string `json:"course_type" validate:"omitempty,oneof=one_time recurring"`
	RenewalPeriodMonths      *int    `json:"renewal_period_months" validate:"omitempty,min=0"`
	DefaultDeadlineDays      *int    `json:"default_deadline_days" validate:"omitempty,min=1"`
	ReminderDays             *int    `json:"reminder_days" validate:"omitempty,min=1"`
	IsComplianceCourse       *bool   `json:"is_compliance_course"`
	IsAutoEnrollNewEmployees *bool   `json:"is_auto_enroll_new_employees"`
	IsActive                 *bool   `json:"is_active"`
}

// UpdateCourse handles PUT /api/v1/courses/:id
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.VideoURL != nil {
		updates["video_url"] = *req.VideoURL
	}
	if req.CourseType != nil {
		updates["course_type"] = *req.CourseType
	}
	if req.RenewalPeriodMonths != nil {
		updates["renewal_period_months"] = *req.RenewalPeriodMonths
	}
	if req.DefaultDeadlineDays != nil {
		updates["default_deadline_days"] = *req.DefaultDeadlineDays
	}
	if req.ReminderDays != nil {
		updates["reminder_days"] = *req.ReminderDays
	}
	if req.IsComplianceCourse != nil {
		updates["is_compliance_course"] = *req.IsComplianceCourse
	}
	if req.IsAutoEnrollNewEmployees != nil {
		updates["is_auto_enroll_new_employees"] = *req.IsAutoEnrollNewEmployees
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		return response.BadRequest(c, "No fields to update")
	}

	course, err := h.courses.Update(c.Context(), uint(courseID), updates)
	if err != nil {
		if err == services.ErrCourseNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to update course")
	}

	return response.Success(c, course)
}

// DeactivateCourse handles POST /api/v1/courses/:id/deactivate
func (h *CourseHandler) DeactivateCourse(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	if err := h.courses.Deactivate(c.Context(), uint(courseID)); err != nil {
		if err == services.ErrCourseNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to deactivate course")
	}

	return response.Success(c, fiber.Map{
		"message": "Course deactivated",
	})
}

// DeleteCourse handles DELETE /api/v1/courses/:id. Removes the course with
// its quizzes, enrollments and certificates, and cleans up employee accounts
// left with no enrollments.
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	if err := h.courses.Delete(c.Context(), uint(courseID)); err != nil {
		if err == services.ErrCourseNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to delete course")
	}

	return response.Success(c, fiber.Map{
		"message": "Course deleted",
	})
}
