package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/AJ-Collins/elite-trading-sub000/app/repository"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/database"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/entitlements"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/usercontext"
)

// HandleGetProfile returns the authenticated user's account.
func HandleGetProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "User not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	return c.JSON(user)
}

type updateProfileRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
	Password  string `json:"password"`
}

// HandleUpdateProfile applies partial updates to the caller's account.
// Email and role are not updatable here.
func HandleUpdateProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		user.Phone = phone
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if req.AvatarURL != "" {
		user.AvatarURL = req.AvatarURL
	}
	if req.Password != "" {
		if len(req.Password) < 6 {
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Password must be at least 6 characters")
		}
		if err := user.SetPassword(req.Password); err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update password")
		}
	}

	if err := user.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}
	if err := repo.Update(user); err != nil {
		log.Errorf("[User] profile update failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update profile")
	}

	return c.JSON(user)
}

// HandleUserSubscriptions lists the caller's entitlement rows, newest first.
// Each row carries an is_current flag derived from the validity window, so an
// expired row with a stale is_active flag never reads as current.
func HandleUserSubscriptions(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	svc := entitlements.NewServiceFromDB(database.GetDB())
	subs, err := svc.ListByUser(c.Context(), userCtx.UserID)
	if err != nil {
		log.Errorf("[User] subscription listing failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load subscriptions")
	}

	now := time.Now()
	items := make([]fiber.Map, 0, len(subs))
	for i := range subs {
		sub := &subs[i]
		items = append(items, fiber.Map{
			"id":         sub.ID,
			"tier_id":    sub.TierID,
			"tier":       sub.Tier,
			"start_date": sub.StartDate,
			"end_date":   sub.EndDate,
			"is_active":  sub.IsActive,
			"is_current": sub.CurrentAt(now),
		})
	}

	return c.JSON(fiber.Map{"subscriptions": items})
}
