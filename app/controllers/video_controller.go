package controllers

import (
	"errors"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"github.com/AJ-Collins/elite-trading-sub000/app/repository"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/storage"
)

// HandleAdminUploadVideo stores a video asset and creates its catalog row.
// Multipart form: file plus title/description/position/access/duration_seconds.
func HandleAdminUploadVideo(c *fiber.Ctx) error {
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

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Missing video file")
	}
	title := c.FormValue("title")
	if len(title) < 3 {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Title must be at least 3 characters")
	}
	access := c.FormValue("access", models.AccessPremium)
	if access != models.AccessFree && access != models.AccessPremium {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Access must be free or premium")
	}

	client, err := storage.GetClient()
	if err != nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "storage_unavailable", "Asset storage is not configured")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to read upload")
	}
	defer src.Close()

	objectKey := storage.NewObjectKey("videos", filepath.Ext(fileHeader.Filename), time.Now())
	contentType := fileHeader.Header.Get("Content-Type")
	if err := client.Upload(c.Context(), objectKey, src, contentType); err != nil {
		log.Errorf("[Videos] upload of %s failed: %v", objectKey, err)
		return jsonError(c, fiber.StatusBadGateway, "storage_error", "Failed to store video")
	}

	position, _ := strconv.Atoi(c.FormValue("position", "0"))
	duration, _ := strconv.Atoi(c.FormValue("duration_seconds", "0"))

	video := &models.Video{
		CourseID:        courseID,
		Title:           title,
		Description:     c.FormValue("description"),
		ObjectKey:       objectKey,
		DurationSeconds: duration,
		Position:        position,
		Access:          access,
	}
	if err := repository.GetGlobalFactory().GetVideoRepository().Create(video); err != nil {
		log.Errorf("[Videos] create failed: %v", err)
		// The asset is already in the bucket; drop it so nothing orphans.
		if delErr := client.Delete(c.Context(), objectKey); delErr != nil {
			log.Warnf("[Videos] orphan cleanup of %s failed: %v", objectKey, delErr)
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create video")
	}

	return c.Status(fiber.StatusCreated).JSON(video)
}

type videoUpdateRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Position        *int   `json:"position"`
	DurationSeconds *int   `json:"duration_seconds"`
	Access          string `json:"access"`
}

// HandleAdminUpdateVideo updates video metadata; the asset itself is immutable.
func HandleAdminUpdateVideo(c *fiber.Ctx) error {
	id, err := paramID(c, "videoId")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid video id")
	}

	repo := repository.GetGlobalFactory().GetVideoRepository()
	video, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Video not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load video")
	}

	var req videoUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.Title != "" {
		video.Title = req.Title
	}
	if req.Description != "" {
		video.Description = req.Description
	}
	if req.Position != nil {
		video.Position = *req.Position
	}
	if req.DurationSeconds != nil {
		video.DurationSeconds = *req.DurationSeconds
	}
	if req.Access != "" {
		if req.Access != models.AccessFree && req.Access != models.AccessPremium {
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Access must be free or premium")
		}
		video.Access = req.Access
	}

	if err := repo.Update(video); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update video")
	}
	return c.JSON(video)
}

// HandleAdminDeleteVideo removes the catalog row and, best effort, the asset.
func HandleAdminDeleteVideo(c *fiber.Ctx) error {
	id, err := paramID(c, "videoId")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid video id")
	}

	repo := repository.GetGlobalFactory().GetVideoRepository()
	video, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Video not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load video")
	}

	if err := repo.Delete(id); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete video")
	}
	if client, cerr := storage.GetClient(); cerr == nil && video.ObjectKey != "" {
		if err := client.Delete(c.Context(), video.ObjectKey); err != nil {
			log.Warnf("[Videos] asset delete of %s failed: %v", video.ObjectKey, err)
		}
	}
	return c.JSON(fiber.Map{"ok": true})
}
