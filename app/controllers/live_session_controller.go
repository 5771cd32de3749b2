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

const upcomingSessionsLimit = 50

// HandleUpcomingSessions lists upcoming live calls. Tier-gated sessions show
// up for everyone, but the meeting URL is only included when the caller holds
// a currently valid entitlement for the session's tier (or is an admin).
func HandleUpcomingSessions(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	sessions, err := repository.GetGlobalFactory().GetLiveSessionRepository().ListUpcoming(time.Now(), upcomingSessionsLimit)
	if err != nil {
		log.Errorf("[LiveSessions] listing failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load sessions")
	}

	svc := entitlements.NewServiceFromDB(database.GetDB())
	// One entitlement check per distinct tier in the page.
	entitled := map[uint]bool{}

	items := make([]fiber.Map, 0, len(sessions))
	for i := range sessions {
		s := &sessions[i]
		item := fiber.Map{
			"id":                   s.ID,
			"title":                s.Title,
			"description":          s.Description,
			"starts_at":            s.StartsAt,
			"duration_minutes":     s.DurationMinutes,
			"subscription_tier_id": s.SubscriptionTierID,
		}

		canJoin := userCtx.IsAdmin || s.SubscriptionTierID == nil
		if !canJoin {
			tierID := *s.SubscriptionTierID
			allowed, seen := entitled[tierID]
			if !seen {
				allowed, err = svc.HasCurrent(c.Context(), userCtx.UserID, tierID)
				if err != nil {
					log.Errorf("[LiveSessions] entitlement check failed: %v", err)
					return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Entitlement check failed")
				}
				entitled[tierID] = allowed
			}
			canJoin = allowed
		}
		if canJoin {
			item["meeting_url"] = s.MeetingURL
		}
		item["can_join"] = canJoin
		items = append(items, item)
	}

	return c.JSON(fiber.Map{"sessions": items})
}

type liveSessionRequest struct {
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	MeetingURL         string     `json:"meeting_url"`
	StartsAt           *time.Time `json:"starts_at"`
	DurationMinutes    int        `json:"duration_minutes"`
	SubscriptionTierID *uint      `json:"subscription_tier_id"`
}

// HandleAdminCreateLiveSession schedules a mentorship call.
func HandleAdminCreateLiveSession(c *fiber.Ctx) error {
	var req liveSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.StartsAt == nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "starts_at is required")
	}

	session := &models.LiveSession{
		Title:              req.Title,
		Description:        req.Description,
		MeetingURL:         req.MeetingURL,
		StartsAt:           *req.StartsAt,
		DurationMinutes:    req.DurationMinutes,
		SubscriptionTierID: req.SubscriptionTierID,
	}
	if session.DurationMinutes <= 0 {
		session.DurationMinutes = 60
	}
	if err := validate.Struct(session); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	if err := repository.GetGlobalFactory().GetLiveSessionRepository().Create(session); err != nil {
		log.Errorf("[LiveSessions] create failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to schedule session")
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// HandleAdminUpdateLiveSession edits a scheduled call.
func HandleAdminUpdateLiveSession(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid session id")
	}

	repo := repository.GetGlobalFactory().GetLiveSessionRepository()
	session, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Session not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load session")
	}

	var req liveSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.Title != "" {
		session.Title = req.Title
	}
	if req.Description != "" {
		session.Description = req.Description
	}
	if req.MeetingURL != "" {
		session.MeetingURL = req.MeetingURL
	}
	if req.StartsAt != nil {
		session.StartsAt = *req.StartsAt
	}
	if req.DurationMinutes > 0 {
		session.DurationMinutes = req.DurationMinutes
	}
	if req.SubscriptionTierID != nil {
		if *req.SubscriptionTierID == 0 {
			session.SubscriptionTierID = nil
		} else {
			session.SubscriptionTierID = req.SubscriptionTierID
		}
	}

	if err := repo.Update(session); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update session")
	}
	return c.JSON(session)
}

// HandleAdminDeleteLiveSession cancels a scheduled call.
func HandleAdminDeleteLiveSession(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid session id")
	}
	if err := repository.GetGlobalFactory().GetLiveSessionRepository().Delete(id); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete session")
	}
	return c.JSON(fiber.Map{"ok": true})
}
