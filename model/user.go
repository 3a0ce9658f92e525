package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// User represents an HR administrator or an employee
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string         `gorm:"not null" json:"name"`
	EmployeeID   string         `gorm:"type:varchar(50)" json:"employee_id"`
	Role         string         `gorm:"type:varchar(20);default:'employee'" json:"role"` // employee, admin
	Department   string         `gorm:"type:varchar(100)" json:"department"`
	Client       string         `gorm:"type:varchar(100)" json:"client"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	TokenVersion int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Relationships
	Enrollments  []Enrollment  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"enrollments,omitempty"`
	Certificates []Certificate `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserResponse represents user data in API responses
type UserResponse struct {
	ID         uint      `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	EmployeeID string    `json:"employee_id"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	Client     string    `json:"client"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ToResponse converts a User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		EmployeeID: u.EmployeeID,
		Role:       u.Role,
		Department: u.Department,
		Client:     u.Client,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
