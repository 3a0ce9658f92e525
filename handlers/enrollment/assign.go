package enrollment

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Basavaraj-fidelis/train-track-sub000/services"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils/response"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils/validation"
)

// EnrollmentHandler handles enrollment-related requests
type EnrollmentHandler struct {
	enrollments *services.EnrollmentService
	courses     *services.CourseService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(enrollments *services.EnrollmentService, courses *services.CourseService) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollments: enrollments,
		courses:     courses,
	}
}

// AssignCourseRequest assigns one course to many users
type AssignCourseRequest struct {
	UserIDs []uint `json:"user_ids" validate:"required,min=1"`
}

// AssignCourse handles POST /api/v1/courses/:id/assign
func (h *EnrollmentHandler) AssignCourse(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req AssignCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if len(req.UserIDs) == 0 {
		return response.BadRequest(c, "At least one user ID is required")
	}

	result, err := h.enrollments.BulkAssignCourse(c.Context(), uint(courseID), req.UserIDs)
	if err != nil {
		if err == services.ErrCourseNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to assign course")
	}

	return response.Success(c, result)
}

// AssignUserRequest assigns many courses to one user
type AssignUserRequest struct {
	CourseIDs []uint `json:"course_ids" validate:"required,min=1"`
}

// AssignUser handles POST /api/v1/users/:id/assign
func (h *EnrollmentHandler) AssignUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req AssignUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if len(req.CourseIDs) == 0 {
		return response.BadRequest(c, "At least one course ID is required")
	}

	result, err := h.enrollments.BulkAssignUsers(c.Context(), uint(userID), req.CourseIDs)
	if err != nil {
		if err == services.ErrUserNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to assign courses")
	}

	return response.Success(c, result)
}

// AssignEmailsRequest invites a list of email addresses to one course
type AssignEmailsRequest struct {
	Emails       []string `json:"emails" validate:"required,min=1,dive,email"`
	DeadlineDays int      `json:"deadline_days" validate:"omitempty,min=1"`
}

// AssignByEmail handles POST /api/v1/courses/:id/assign-emails. Known
// addresses get a direct enrollment; unknown ones get a tokenized email
// invitation.
func (h *EnrollmentHandler) AssignByEmail(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req AssignEmailsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if len(req.Emails) == 0 {
		return response.BadRequest(c, "At least one email is required")
	}
	for _, email := range req.Emails {
		if !validation.ValidateEmail(email) {
			return response.BadRequest(c, "Invalid email address: "+email)
		}
	}

	result, err := h.enrollments.BulkAssignByEmail(c.Context(), uint(courseID), req.Emails, req.DeadlineDays)
	if err != nil {
		if err == services.ErrCourseNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to assign by email")
	}

	return response.Success(c, result)
}

// AutoEnrollAll handles POST /api/v1/courses/:id/auto-enroll. Enrolls every
// active employee into the course.
func (h *EnrollmentHandler) AutoEnrollAll(c *fiber.Ctx) error {
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

	result, err := h.enrollments.AutoEnrollAllEmployees(c.Context(), course)
	if err != nil {
		return response.InternalServerError(c, "Failed to auto-enroll employees")
	}

	return response.Success(c, result)
}
