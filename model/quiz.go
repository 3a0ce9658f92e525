package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultPassingScore applies when a course has no dedicated quiz entity
const DefaultPassingScore = 70

// Quiz represents a dedicated quiz for a course. Optional: when absent, the
// course's embedded questions act as the quiz with the default passing score.
type Quiz struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID     uint           `gorm:"not null;index" json:"course_id"`
	Title        string         `gorm:"not null" json:"title"`
	Questions    datatypes.JSON `gorm:"type:jsonb" json:"questions"`
	PassingScore int            `gorm:"default:70" json:"passing_score"`

	// Relationships
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// QuizQuestion is the shape of a single question inside the Questions JSON
// array, shared by dedicated quizzes and embedded course questions.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
}
