package services

import (
	"context"

	"github.com/Basavaraj-fidelis/train-track-sub000/model"
	"gorm.io/gorm"
)

// ComplianceService aggregates completion rates across compliance courses.
type ComplianceService struct {
	db *gorm.DB
}

// NewComplianceService creates a new compliance service
func NewComplianceService(db *gorm.DB) *ComplianceService {
	return &ComplianceService{db: db}
}

// CourseCompliance is the per-course slice of the report.
type CourseCompliance struct {
	CourseID       uint    `json:"course_id"`
	CourseTitle    string  `json:"course_title"`
	TotalAssigned  int64   `json:"total_assigned"`
	Completed      int64   `json:"completed"`
	Expired        int64   `json:"expired"`
	ComplianceRate float64 `json:"compliance_rate"`
}

// ComplianceReport is the aggregate returned to the admin dashboard.
type ComplianceReport struct {
	Courses        []CourseCompliance `json:"courses"`
	TotalAssigned  int64              `json:"total_assigned"`
	TotalCompleted int64              `json:"total_completed"`
	OverallRate    float64            `json:"overall_rate"`
}

// Report computes completion statistics for every active compliance course.
func (s *ComplianceService) Report(ctx context.Context) (*ComplianceReport, error) {
	var courses []model.Course
	if err := s.db.Where("is_compliance_course = ? AND is_active = ?", true, true).
		Order("title").Find(&courses).Error; err != nil {
		return nil, err
	}

	report := &ComplianceReport{Courses: make([]CourseCompliance, 0, len(courses))}
	for i := range courses {
		course := &courses[i]

		var total, completed, expired int64
		if err := s.db.Model(&model.Enrollment{}).
			Where("course_id = ?", course.ID).Count(&total).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&model.Enrollment{}).
			Where("course_id = ? AND status = ?", course.ID, model.EnrollmentStatusCompleted).
			Count(&completed).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&model.Enrollment{}).
			Where("course_id = ? AND status = ?", course.ID, model.EnrollmentStatusExpired).
			Count(&expired).Error; err != nil {
			return nil, err
		}

		entry := CourseCompliance{
			CourseID:      course.ID,
			CourseTitle:   course.Title,
			TotalAssigned: total,
			Completed:     completed,
			Expired:       expired,
		}
		if total > 0 {
			entry.ComplianceRate = float64(completed) * 100 / float64(total)
		}

		report.Courses = append(report.Courses, entry)
		report.TotalAssigned += total
		report.TotalCompleted += completed
	}

	if report.TotalAssigned > 0 {
		report.OverallRate = float64(report.TotalCompleted) * 100 / float64(report.TotalAssigned)
	}
	return report, nil
}
