package admin

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Basavaraj-fidelis/train-track-sub000/services"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils/response"
)

// ComplianceStatus handles GET /api/v1/admin/compliance-status
func (h *AdminHandler) ComplianceStatus(c *fiber.Ctx) error {
	report, err := h.compliance.Report(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to build compliance report")
	}
	return response.Success(c, report)
}

// SendRemindersRequest controls the manual reminder batch
type SendRemindersRequest struct {
	OnlyDueSoon bool `json:"only_due_soon"`
}

// SendReminders handles POST /api/v1/admin/send-reminders. Admin-triggered
// batches default to every eligible enrollment, not just those inside the
// reminder window.
func (h *AdminHandler) SendReminders(c *fiber.Ctx) error {
	var req SendRemindersRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	result, err := h.enrollments.SendReminders(c.Context(), time.Now(), req.OnlyDueSoon)
	if err != nil {
		return response.InternalServerError(c, "Failed to send reminders")
	}

	return response.Success(c, result)
}

// RenewEnrollment handles POST /api/v1/admin/enrollments/:id/renew. Resets
// an expired enrollment for another completion cycle.
func (h *AdminHandler) RenewEnrollment(c *fiber.Ctx) error {
	enrollmentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid enrollment ID")
	}

	enrollment, err := h.enrollments.Renew(c.Context(), uint(enrollmentID))
	if err != nil {
		switch err {
		case services.ErrEnrollmentNotFound:
			return response.NotFound(c, "Enrollment not found")
		case services.ErrNotExpired:
			return response.BadRequest(c, "Only expired enrollments can be renewed")
		}
		return response.InternalServerError(c, "Failed to renew enrollment")
	}

	return response.Success(c, enrollment)
}

// ExpireSweep handles POST /api/v1/admin/expire-sweep, a manual trigger for
// the hourly cron job.
func (h *AdminHandler) ExpireSweep(c *fiber.Ctx) error {
	expired, err := h.enrollments.ExpireOverdue(c.Context(), time.Now())
	if err != nil {
		return response.InternalServerError(c, "Failed to run expiry sweep")
	}

	return response.Success(c, fiber.Map{
		"expired": expired,
	})
}
