package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"github.com/AJ-Collins/elite-trading-sub000/app/repository"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/database"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/entitlements"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/usercontext"
)

type progressRequest struct {
	WatchedSeconds int  `json:"watched_seconds"`
	Completed      bool `json:"completed"`
}

// HandleUpsertProgress records how far the caller got in a video. One row
// per (user, video); repeats overwrite the watched position.
func HandleUpsertProgress(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	videoID, err := paramID(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid video id")
	}
	if _, err := repository.GetGlobalFactory().GetVideoRepository().GetByID(videoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Video not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Video lookup failed")
	}

	var req progressRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.WatchedSeconds < 0 {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "watched_seconds cannot be negative")
	}

	progress := &models.VideoProgress{
		UserID:         userCtx.UserID,
		VideoID:        videoID,
		WatchedSeconds: req.WatchedSeconds,
		Completed:      req.Completed,
		LastWatchedAt:  time.Now(),
	}
	if err := repository.GetGlobalFactory().GetProgressRepository().UpsertProgress(progress); err != nil {
		log.Errorf("[Progress] upsert failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to save progress")
	}
	return c.JSON(progress)
}

// HandleArchiveCourse tucks a course away from the caller's dashboard.
// Archiving twice is a no-op.
func HandleArchiveCourse(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	courseID, err := paramID(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid course id")
	}
	if _, err := repository.GetGlobalFactory().GetCourseRepository().GetByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Course not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Course lookup failed")
	}

	if err := repository.GetGlobalFactory().GetProgressRepository().ArchiveCourse(userCtx.UserID, courseID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to archive course")
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleUnarchiveCourse brings a course back onto the dashboard.
func HandleUnarchiveCourse(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	courseID, err := paramID(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid course id")
	}
	if err := repository.GetGlobalFactory().GetProgressRepository().UnarchiveCourse(userCtx.UserID, courseID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to unarchive course")
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleDashboard aggregates the caller's learning state: progress rows,
// archived courses and the entitlements valid right now.
func HandleDashboard(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	progress, err := repos.Progress.ListByUser(userCtx.UserID)
	if err != nil {
		log.Errorf("[Progress] dashboard listing failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load progress")
	}

	archivedIDs, err := repos.Progress.ListArchivedCourseIDs(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load archive")
	}

	svc := entitlements.NewServiceFromDB(database.GetDB())
	current, err := svc.ListCurrent(c.Context(), userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load subscriptions")
	}

	completed := 0
	for i := range progress {
		if progress[i].Completed {
			completed++
		}
	}

	return c.JSON(fiber.Map{
		"progress":              progress,
		"completed_videos":      completed,
		"archived_course_ids":   archivedIDs,
		"current_subscriptions": current,
	})
}
