package enrollment

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Basavaraj-fidelis/train-track-sub000/services"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils/response"
)

// CourseAccess handles GET /api/v1/course-access/:token. Redeems an
// assignment token: links the enrollment when a user already exists for the
// assigned email, or signals that profile completion is needed first.
func (h *EnrollmentHandler) CourseAccess(c *fiber.Ctx) error {
	accessToken := c.Params("token")
	if accessToken == "" {
		return response.BadRequest(c, "Access token is required")
	}

	access, err := h.enrollments.RedeemToken(c.Context(), accessToken)
	if err != nil {
		switch err {
		case services.ErrTokenNotFound:
			return response.NotFound(c, "Invalid access token")
		case services.ErrAssignmentExpired:
			return response.Gone(c, "This assignment's deadline has passed")
		}
		return response.InternalServerError(c, "Failed to redeem access token")
	}

	return response.Success(c, access)
}

// CompleteProfileRequest carries the self-service onboarding form
type CompleteProfileRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
	Name        string `json:"name" validate:"required,min=2,max=255"`
	EmployeeID  string `json:"employee_id" validate:"omitempty,max=50"`
	Department  string `json:"department" validate:"omitempty,max=100"`
	Client      string `json:"client" validate:"omitempty,max=100"`
}

// CompleteProfile handles POST /api/v1/complete-profile. Creates the user
// account for an email invitee and links their enrollment.
func (h *EnrollmentHandler) CompleteProfile(c *fiber.Ctx) error {
	var req CompleteProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.AccessToken == "" {
		return response.BadRequest(c, "Access token is required")
	}
	if req.Name == "" {
		return response.BadRequest(c, "Name is required")
	}

	user, enrollment, err := h.enrollments.CompleteProfile(c.Context(), req.AccessToken, services.ProfileInput{
		Name:       req.Name,
		EmployeeID: req.EmployeeID,
		Department: req.Department,
		Client:     req.Client,
	})
	if err != nil {
		switch err {
		case services.ErrTokenNotFound:
			return response.NotFound(c, "Invalid access token")
		case services.ErrAssignmentExpired:
			return response.Gone(c, "This assignment's deadline has passed")
		}
		return response.InternalServerError(c, "Failed to complete profile")
	}

	return response.Success(c, fiber.Map{
		"user":       user.ToResponse(),
		"enrollment": enrollment,
	})
}
