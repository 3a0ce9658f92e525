package enrollment

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Basavaraj-fidelis/train-track-sub000/services"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils/middleware"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils/response"
)

// MyEnrollments handles GET /api/v1/my-enrollments
func (h *EnrollmentHandler) MyEnrollments(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	enrollments, err := h.enrollments.ListForUser(c.Context(), user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch enrollments")
	}

	return response.Success(c, enrollments)
}

// UpdateProgressRequest reports video watch progress
type UpdateProgressRequest struct {
	Progress int `json:"progress" validate:"min=0,max=100"`
}

// UpdateProgress handles PUT /api/v1/my-enrollments/:id
func (h *EnrollmentHandler) UpdateProgress(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	enrollmentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid enrollment ID")
	}

	var req UpdateProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	enrollment, err := h.enrollments.UpdateProgress(c.Context(), uint(enrollmentID), user.ID, req.Progress)
	if err != nil {
		switch err {
		case services.ErrEnrollmentNotFound:
			return response.NotFound(c, "Enrollment not found")
		case services.ErrNotOwner:
			return response.Forbidden(c, "Enrollment does not belong to you")
		}
		return response.InternalServerError(c, "Failed to update progress")
	}

	return response.Success(c, enrollment)
}

// QuizSubmissionRequest carries either raw answers (graded server-side) or
// an already-computed percentage score.
type QuizSubmissionRequest struct {
	EnrollmentID uint  `json:"enrollment_id" validate:"required,min=1"`
	Answers      []int `json:"answers"`
	Score        *int  `json:"score" validate:"omitempty,min=0,max=100"`
}

// SubmitQuiz handles POST /api/v1/quiz-submission. Retakes are unlimited;
// the latest score overwrites the stored one.
func (h *EnrollmentHandler) SubmitQuiz(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req QuizSubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.EnrollmentID == 0 {
		return response.BadRequest(c, "Enrollment ID is required")
	}
	if len(req.Answers) == 0 && req.Score == nil {
		return response.BadRequest(c, "Answers or a score are required")
	}

	result, err := h.enrollments.SubmitQuiz(c.Context(), req.EnrollmentID, user.ID, req.Answers, req.Score)
	if err != nil {
		switch err {
		case services.ErrEnrollmentNotFound:
			return response.NotFound(c, "Enrollment not found")
		case services.ErrNotOwner:
			return response.Forbidden(c, "Enrollment does not belong to you")
		case services.ErrNoQuizSource:
			return response.NotFound(c, "Course has no quiz")
		}
		return response.InternalServerError(c, "Failed to submit quiz")
	}

	return response.Success(c, result)
}

// AcknowledgeRequest finalizes a completion with a digital signature
type AcknowledgeRequest struct {
	EnrollmentID     uint   `json:"enrollment_id" validate:"required,min=1"`
	DigitalSignature string `json:"digital_signature" validate:"required,min=2,max=255"`
}

// Acknowledge handles POST /api/v1/acknowledge-completion. Requires a prior
// passing quiz score; issues or refreshes the certificate.
func (h *EnrollmentHandler) Acknowledge(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req AcknowledgeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.EnrollmentID == 0 {
		return response.BadRequest(c, "Enrollment ID is required")
	}

	cert, enrollment, err := h.enrollments.Acknowledge(c.Context(), req.EnrollmentID, user.ID, req.DigitalSignature)
	if err != nil {
		switch err {
		case services.ErrSignatureRequired:
			return response.BadRequest(c, "Digital signature is required")
		case services.ErrQuizNotPassed:
			return response.BadRequest(c, "Quiz must be passed before acknowledging completion")
		case services.ErrEnrollmentNotFound:
			return response.NotFound(c, "Enrollment not found")
		case services.ErrNotOwner:
			return response.Forbidden(c, "Enrollment does not belong to you")
		}
		return response.InternalServerError(c, "Failed to acknowledge completion")
	}

	return response.Success(c, fiber.Map{
		"certificate": cert,
		"enrollment":  enrollment,
	})
}

// MyCertificate handles GET /api/v1/my-certificates/:course_id
func (h *EnrollmentHandler) MyCertificate(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("course_id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	cert, err := h.enrollments.CertificateForUser(c.Context(), user.ID, uint(courseID))
	if err != nil {
		if err == services.ErrCertificateNotFound {
			return response.NotFound(c, "Certificate not found")
		}
		return response.InternalServerError(c, "Failed to fetch certificate")
	}

	return response.Success(c, cert)
}
