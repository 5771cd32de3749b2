package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"github.com/AJ-Collins/elite-trading-sub000/app/repository"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/jobqueue"
)

// HandleAdminListUsers lists accounts, optionally filtered by ?q=.
func HandleAdminListUsers(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetUserRepository()

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		users, err := repo.Search(q)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Search failed")
		}
		return c.JSON(fiber.Map{"users": users})
	}

	offset, limit := pagination(c)
	users, err := repo.List(offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load users")
	}
	total, err := repo.Count()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to count users")
	}
	return c.JSON(fiber.Map{"users": users, "total": total})
}

type userStatusRequest struct {
	Status string `json:"status"`
}

// HandleAdminUpdateUserStatus activates, deactivates or suspends an account.
// Suspended users fail auth on their next request even with a valid token.
func HandleAdminUpdateUserStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid user id")
	}

	var req userStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	switch req.Status {
	case models.STATUS_ACTIVE, models.STATUS_INACTIVE, models.STATUS_SUSPENDED:
	default:
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Status must be active, inactive or suspended")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.GetByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "User not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "User lookup failed")
	}

	if err := repo.UpdateStatus(id, req.Status); err != nil {
		log.Errorf("[Admin] status update failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update status")
	}
	return c.JSON(fiber.Map{"ok": true, "status": req.Status})
}

// HandleAdminStats returns headline platform counts.
func HandleAdminStats(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()

	userCount, err := repos.User.Count()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to count users")
	}
	courseCount, err := repos.Course.Count()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to count courses")
	}

	return c.JSON(fiber.Map{
		"users":   userCount,
		"courses": courseCount,
	})
}

// HandleAdminQueueStats exposes background queue depth and job outcomes.
func HandleAdminQueueStats(c *fiber.Ctx) error {
	queue := jobqueue.GetManager().GetQueue()

	stats, err := queue.GetJobStats(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load queue stats")
	}
	pending, err := queue.GetQueueSize(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load queue size")
	}
	processing, err := queue.GetProcessingSize(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load processing size")
	}

	return c.JSON(fiber.Map{
		"running":    jobqueue.GetManager().IsRunning(),
		"pending":    pending,
		"processing": processing,
		"stats":      stats,
	})
}
