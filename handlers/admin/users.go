package admin

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Basavaraj-fidelis/train-track-sub000/model"
	"github.com/Basavaraj-fidelis/train-track-sub000/services"
	authutil "github.com/Basavaraj-fidelis/train-track-sub000/utils/auth"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils/response"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils/validation"
)

// AdminHandler handles user management and compliance operations
type AdminHandler struct {
	db          *gorm.DB
	enrollments *services.EnrollmentService
	compliance  *services.ComplianceService
	validator   *validation.Validator
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, enrollments *services.EnrollmentService, compliance *services.ComplianceService) *AdminHandler {
	return &AdminHandler{
		db:          db,
		enrollments: enrollments,
		compliance:  compliance,
		validator:   validation.NewValidator(),
	}
}

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	query := h.db.Model(&model.User{})

	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if department := c.Query("department"); department != "" {
		query = query.Where("department = ?", department)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("name ILIKE ? OR email ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var users []model.User
	if err := query.Order("created_at DESC").Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	responses := make([]model.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, users[i].ToResponse())
	}

	return response.Success(c, responses)
}

// GetUser handles GET /api/v1/admin/users/:id. Includes the user's
// enrollments for the per-employee drill-down.
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var user model.User
	if err := h.db.Preload("Enrollments").Preload("Enrollments.Course").First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	return response.Success(c, fiber.Map{
		"user":        user.ToResponse(),
		"enrollments": user.Enrollments,
	})
}

// CreateUserRequest represents an admin-created account
type CreateUserRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Name       string `json:"name" validate:"required,min=2,max=255"`
	EmployeeID string `json:"employee_id" validate:"omitempty,max=50"`
	Role       string `json:"role" validate:"omitempty,oneof=admin employee"`
	Department string `json:"department" validate:"omitempty,max=100"`
	Client     string `json:"client" validate:"omitempty,max=100"`
}

// CreateUser handles POST /api/v1/admin/users. New employees are
// auto-enrolled into every active auto-enroll course.
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" || req.Password == "" || req.Name == "" {
		return response.BadRequest(c, "Email, password, and name are required")
	}
	if !validation.ValidateEmail(req.Email) {
		return response.BadRequest(c, "Invalid email address")
	}
	if !authutil.IsPasswordValid(req.Password) {
		return response.BadRequest(c, "Password must be at least 8 characters long")
	}
	if req.Role == "" {
		req.Role = model.RoleEmployee
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleEmployee {
		return response.BadRequest(c, "Invalid role. Must be 'admin' or 'employee'")
	}

	var existing model.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return response.Conflict(c, "User with this email already exists")
	}

	hashed, err := authutil.HashPassword(req.Password)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	user := model.User{
		Email:        req.Email,
		PasswordHash: hashed,
		Name:         req.Name,
		EmployeeID:   req.EmployeeID,
		Role:         req.Role,
		Department:   req.Department,
		Client:       req.Client,
		IsActive:     true,
	}

	if err := h.db.Create(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to create user")
	}

	if user.Role == model.RoleEmployee {
		if err := h.enrollments.AutoEnrollNewEmployee(c.Context(), &user); err != nil {
			// The account exists; auto-enrollment can be redone by hand.
			return response.Created(c, fiber.Map{
				"user":    user.ToResponse(),
				"warning": "User created but auto-enrollment failed",
			})
		}
	}

	return response.Created(c, user.ToResponse())
}

// UpdateUserRequest represents a partial user update
type UpdateUserRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=2,max=255"`
	EmployeeID *string `json:"employee_id" validate:"omitempty,max=50"`
	Role       *string `json:"role" validate:"omitempty,oneof=admin employee"`
	Department *string `json:"department" validate:"omitempty,max=100"`
	Client     *string `json:"client" validate:"omitempty,max=100"`
	IsActive   *bool   `json:"is_active"`
}

// UpdateUser handles PUT /api/v1/admin/users/:id
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.EmployeeID != nil {
		updates["employee_id"] = *req.EmployeeID
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.Department != nil {
		updates["department"] = *req.Department
	}
	if req.Client != nil {
		updates["client"] = *req.Client
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
		if !*req.IsActive {
			// Deactivation also kills outstanding tokens.
			updates["token_version"] = gorm.Expr("token_version + 1")
		}
	}

	if len(updates) == 0 {
		return response.BadRequest(c, "No fields to update")
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	if err := h.db.Model(&user).Updates(updates).Error; err != nil {
		return response.InternalServerError(c, "Failed to update user")
	}

	if err := h.db.First(&user, userID).Error; err != nil {
		return response.InternalServerError(c, "Failed to reload user")
	}

	return response.Success(c, user.ToResponse())
}

// DeleteUser handles DELETE /api/v1/admin/users/:id. Hard-deletes the user
// together with their enrollments and certificates.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("user_id = ?", user.ID).Delete(&model.Certificate{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("user_id = ?", user.ID).Delete(&model.Enrollment{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&user).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete user")
	}

	return response.Success(c, fiber.Map{
		"message": "User deleted",
	})
}
