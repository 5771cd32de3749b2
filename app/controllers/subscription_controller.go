package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"github.com/AJ-Collins/elite-trading-sub000/app/repository"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/database"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/entitlements"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/middleware"
)

// HandlePublicTiers lists the active tiers, cheapest first. The ordering has
// a deterministic tie-break so repeated reads return the same sequence.
func HandlePublicTiers(c *fiber.Ctx) error {
	tiers, err := repository.GetGlobalFactory().GetTierRepository().ListActiveByPrice()
	if err != nil {
		log.Errorf("[Subscriptions] tier listing failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load plans")
	}
	return c.JSON(fiber.Map{"tiers": tiers})
}

type tierRequest struct {
	Type         string  `json:"type"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	DurationDays int     `json:"duration_days"`
	Benefits     string  `json:"benefits"`
	IsActive     *bool   `json:"is_active"`
}

// HandleAdminListTiers returns every tier including inactive ones.
func HandleAdminListTiers(c *fiber.Ctx) error {
	tiers, err := repository.GetGlobalFactory().GetTierRepository().ListAll()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load tiers")
	}
	return c.JSON(fiber.Map{"tiers": tiers})
}

// HandleAdminCreateTier creates a subscription tier.
func HandleAdminCreateTier(c *fiber.Ctx) error {
	var req tierRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	tier := &models.SubscriptionTier{
		Type:         req.Type,
		Price:        req.Price,
		Currency:     req.Currency,
		DurationDays: req.DurationDays,
		Benefits:     req.Benefits,
		IsActive:     true,
	}
	if tier.Currency == "" {
		tier.Currency = "KES"
	}
	if req.IsActive != nil {
		tier.IsActive = *req.IsActive
	}
	if err := tier.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	if err := repository.GetGlobalFactory().GetTierRepository().Create(tier); err != nil {
		log.Errorf("[Subscriptions] tier create failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create tier")
	}
	return c.Status(fiber.StatusCreated).JSON(tier)
}

// HandleAdminUpdateTier updates an existing tier in place.
func HandleAdminUpdateTier(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid tier id")
	}

	repo := repository.GetGlobalFactory().GetTierRepository()
	tier, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Tier not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load tier")
	}

	var req tierRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.Type != "" {
		tier.Type = req.Type
	}
	if req.Price > 0 {
		tier.Price = req.Price
	}
	if req.Currency != "" {
		tier.Currency = req.Currency
	}
	if req.DurationDays > 0 {
		tier.DurationDays = req.DurationDays
	}
	if req.Benefits != "" {
		tier.Benefits = req.Benefits
	}
	if req.IsActive != nil {
		tier.IsActive = *req.IsActive
	}
	if err := tier.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	if err := repo.Update(tier); err != nil {
		log.Errorf("[Subscriptions] tier update failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update tier")
	}
	return c.JSON(tier)
}

// HandleAdminDeactivateTier retires a tier from sale. Existing entitlements
// keep running until their end date.
func HandleAdminDeactivateTier(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid tier id")
	}
	if err := repository.GetGlobalFactory().GetTierRepository().Deactivate(id); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to deactivate tier")
	}
	return c.JSON(fiber.Map{"ok": true})
}

type grantRequest struct {
	UserID uint `json:"user_id"`
	TierID uint `json:"tier_id"`
}

// HandleAdminGrantSubscription grants or extends an entitlement manually,
// outside the payment flow (comps, support cases).
func HandleAdminGrantSubscription(c *fiber.Ctx) error {
	var req grantRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	tier, err := repository.GetGlobalFactory().GetTierRepository().GetByID(req.TierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Tier not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load tier")
	}

	svc := entitlements.NewServiceFromDB(database.GetDB())
	sub, err := svc.Grant(c.Context(), req.UserID, req.TierID, tier.Duration())
	if err != nil {
		log.Errorf("[Subscriptions] manual grant failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to grant subscription")
	}
	middleware.InvalidateEntitlementCache(req.UserID, req.TierID)

	return c.Status(fiber.StatusCreated).JSON(sub)
}

// HandleAdminRevokeSubscription flips an entitlement inactive.
func HandleAdminRevokeSubscription(c *fiber.Ctx) error {
	var req grantRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	svc := entitlements.NewServiceFromDB(database.GetDB())
	if err := svc.Revoke(c.Context(), req.UserID, req.TierID); err != nil {
		log.Errorf("[Subscriptions] revoke failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to revoke subscription")
	}
	middleware.InvalidateEntitlementCache(req.UserID, req.TierID)

	return c.JSON(fiber.Map{"ok": true})
}
