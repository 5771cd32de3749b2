package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"github.com/AJ-Collins/elite-trading-sub000/app/repository"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/storage"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/usercontext"
)

// HandleListCourses returns the published catalog. No entitlement needed to
// browse; the gate sits on the detail route.
func HandleListCourses(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	courses, err := repository.GetGlobalFactory().GetCourseRepository().ListPublished(offset, limit)
	if err != nil {
		log.Errorf("[Courses] listing failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load courses")
	}
	return c.JSON(fiber.Map{"courses": courses})
}

// HandleGetCourse serves the gated course detail. RequireCourseAccess has
// already resolved the course and verified the entitlement, so anyone who
// reaches this handler may see the premium items of a tiered course. For
// free courses the per-video access flag still hides premium extras from
// non-admins.
func HandleGetCourse(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	course, ok := c.Locals("COURSE").(*models.Course)
	if !ok {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Course context missing")
	}

	full, err := repository.GetGlobalFactory().GetCourseRepository().GetByIDWithContent(course.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load course content")
	}

	showPremium := !full.IsFree() || userCtx.IsAdmin

	videos := make([]fiber.Map, 0, len(full.Videos))
	for i := range full.Videos {
		v := &full.Videos[i]
		if !v.IsFree() && !showPremium {
			continue
		}
		item := fiber.Map{
			"id":               v.ID,
			"title":            v.Title,
			"description":      v.Description,
			"duration_seconds": v.DurationSeconds,
			"position":         v.Position,
			"access":           v.Access,
		}
		if url := presignAsset(c, v.ObjectKey); url != "" {
			item["url"] = url
		}
		videos = append(videos, item)
	}

	notes := make([]fiber.Map, 0, len(full.Notes))
	for i := range full.Notes {
		n := &full.Notes[i]
		if n.Access != models.AccessFree && !showPremium {
			continue
		}
		item := fiber.Map{
			"id":        n.ID,
			"title":     n.Title,
			"file_type": n.FileType,
			"file_size": n.FileSize,
			"access":    n.Access,
		}
		if url := presignAsset(c, n.ObjectKey); url != "" {
			item["url"] = url
		}
		notes = append(notes, item)
	}

	return c.JSON(fiber.Map{
		"course": fiber.Map{
			"id":                   full.ID,
			"title":                full.Title,
			"description":          full.Description,
			"subscription_tier_id": full.SubscriptionTierID,
			"published":            full.Published,
			"created_at":           full.CreatedAt,
		},
		"videos": videos,
		"notes":  notes,
	})
}

// presignAsset issues a short-lived download URL. Disabled storage
// degrades to responses without URLs rather than erroring.
func presignAsset(c *fiber.Ctx, objectKey string) string {
	if objectKey == "" {
		return ""
	}
	client, err := storage.GetClient()
	if err != nil {
		return ""
	}
	url, err := client.PresignGet(c.Context(), objectKey)
	if err != nil {
		log.Warnf("[Courses] presign for %s failed: %v", objectKey, err)
		return ""
	}
	return url
}

type courseRequest struct {
	Title              string `json:"title"`
	Description        string `json:"description"`
	SubscriptionTierID *uint  `json:"subscription_tier_id"`
	Published          *bool  `json:"published"`
}

// HandleAdminListCourses returns the full catalog including drafts.
func HandleAdminListCourses(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	courses, err := repository.GetGlobalFactory().GetCourseRepository().ListAll(offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load courses")
	}
	return c.JSON(fiber.Map{"courses": courses})
}

// HandleAdminCreateCourse creates a draft course.
func HandleAdminCreateCourse(c *fiber.Ctx) error {
	var req courseRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if len(req.Title) < 3 {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Title must be at least 3 characters")
	}

	if req.SubscriptionTierID != nil && *req.SubscriptionTierID != 0 {
		if _, err := repository.GetGlobalFactory().GetTierRepository().GetByID(*req.SubscriptionTierID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Unknown subscription tier")
			}
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Tier lookup failed")
		}
	}

	course := &models.Course{
		Title:              req.Title,
		Description:        req.Description,
		SubscriptionTierID: req.SubscriptionTierID,
	}
	if req.Published != nil {
		course.Published = *req.Published
	}

	if err := repository.GetGlobalFactory().GetCourseRepository().Create(course); err != nil {
		log.Errorf("[Courses] create failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create course")
	}
	return c.Status(fiber.StatusCreated).JSON(course)
}

// HandleAdminUpdateCourse updates title/description/tier/published.
func HandleAdminUpdateCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid course id")
	}

	repo := repository.GetGlobalFactory().GetCourseRepository()
	course, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Course not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load course")
	}

	var req courseRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.Title != "" {
		course.Title = req.Title
	}
	if req.Description != "" {
		course.Description = req.Description
	}
	if req.SubscriptionTierID != nil {
		if *req.SubscriptionTierID == 0 {
			course.SubscriptionTierID = nil
		} else {
			course.SubscriptionTierID = req.SubscriptionTierID
		}
	}
	if req.Published != nil {
		course.Published = *req.Published
	}

	if err := repo.Update(course); err != nil {
		log.Errorf("[Courses] update failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update course")
	}
	return c.JSON(course)
}

// HandleAdminDeleteCourse soft-deletes a course.
func HandleAdminDeleteCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid course id")
	}
	if err := repository.GetGlobalFactory().GetCourseRepository().Delete(id); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete course")
	}
	return c.JSON(fiber.Map{"ok": true})
}
