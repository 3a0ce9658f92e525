package auth

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Basavaraj-fidelis/train-track-sub000/model"
	authutil "github.com/Basavaraj-fidelis/train-track-sub000/utils/auth"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils/middleware"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils/response"
)

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// GetProfile returns the authenticated user's profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return response.Unauthorized(c, "Not authenticated")
	}
	return response.Success(c, user.ToResponse())
}

// ChangePassword updates the user's password and invalidates existing tokens
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		return response.BadRequest(c, "Current and new password are required")
	}

	if !authutil.IsPasswordValid(req.NewPassword) {
		return response.BadRequest(c, "Password must be at least 8 characters long")
	}

	if err := authutil.VerifyPassword(user.PasswordHash, req.CurrentPassword); err != nil {
		return response.Unauthorized(c, "Current password is incorrect")
	}

	hashed, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	// Password change invalidates every outstanding token
	if err := h.db.Model(&model.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"password_hash": hashed,
			"token_version": gorm.Expr("token_version + 1"),
		}).Error; err != nil {
		return response.InternalServerError(c, "Failed to change password")
	}

	return response.Success(c, fiber.Map{
		"message": "Password changed successfully",
	})
}
