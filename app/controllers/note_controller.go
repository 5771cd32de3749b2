package controllers

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"github.com/AJ-Collins/elite-trading-sub000/app/repository"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/storage"
)

// HandleAdminUploadNote stores a course document and creates its catalog row.
func HandleAdminUploadNote(c *fiber.Ctx) error {
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
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Missing document file")
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

	ext := filepath.Ext(fileHeader.Filename)
	objectKey := storage.NewObjectKey("notes", ext, time.Now())
	if err := client.Upload(c.Context(), objectKey, src, fileHeader.Header.Get("Content-Type")); err != nil {
		log.Errorf("[Notes] upload of %s failed: %v", objectKey, err)
		return jsonError(c, fiber.StatusBadGateway, "storage_error", "Failed to store document")
	}

	note := &models.Note{
		CourseID:  courseID,
		Title:     title,
		ObjectKey: objectKey,
		FileType:  strings.TrimPrefix(ext, "."),
		FileSize:  fileHeader.Size,
		Access:    access,
	}
	if err := repository.GetGlobalFactory().GetNoteRepository().Create(note); err != nil {
		log.Errorf("[Notes] create failed: %v", err)
		if delErr := client.Delete(c.Context(), objectKey); delErr != nil {
			log.Warnf("[Notes] orphan cleanup of %s failed: %v", objectKey, delErr)
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create note")
	}

	return c.Status(fiber.StatusCreated).JSON(note)
}

// HandleAdminDeleteNote removes the catalog row and, best effort, the asset.
func HandleAdminDeleteNote(c *fiber.Ctx) error {
	id, err := paramID(c, "noteId")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid note id")
	}

	repo := repository.GetGlobalFactory().GetNoteRepository()
	note, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Note not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load note")
	}

	if err := repo.Delete(id); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete note")
	}
	if client, cerr := storage.GetClient(); cerr == nil && note.ObjectKey != "" {
		if err := client.Delete(c.Context(), note.ObjectKey); err != nil {
			log.Warnf("[Notes] asset delete of %s failed: %v", note.ObjectKey, err)
		}
	}
	return c.JSON(fiber.Map{"ok": true})
}
