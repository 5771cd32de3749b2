package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"github.com/AJ-Collins/elite-trading-sub000/app/repository"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/cache"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/database"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/entitlements"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/usercontext"
)

const entitlementCacheTTL = 60 * time.Second

// Lookup indirections, swapped out in tests.
var (
	gateCourseByID = func(id uint) (*models.Course, error) {
		return repository.GetGlobalFactory().GetCourseRepository().GetByID(id)
	}
	gateHasCurrent = func(ctx context.Context, userID, tierID uint) (bool, error) {
		return entitlements.NewServiceFromDB(database.GetDB()).HasCurrent(ctx, userID, tierID)
	}
)

// RequireCourseAccess gates a course route by entitlement. A missing course
// is a 404; a premium course without a currently valid entitlement for its
// tier is a 403. Free courses and admins pass through.
func RequireCourseAccess(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Login required"})
	}

	courseID, err := c.ParamsInt("id")
	if err != nil || courseID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid course id"})
	}

	course, err := gateCourseByID(uint(courseID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Course not found"})
		}
		log.Printf("course access: lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Course lookup failed"})
	}
	c.Locals("COURSE", course)

	if course.IsFree() || userCtx.IsAdmin {
		return c.Next()
	}

	tierID := *course.SubscriptionTierID
	if allowed, ok := cachedEntitlement(userCtx.UserID, tierID); ok {
		if !allowed {
			return denyNoEntitlement(c)
		}
		return c.Next()
	}

	allowed, err := gateHasCurrent(c.Context(), userCtx.UserID, tierID)
	if err != nil {
		log.Printf("course access: entitlement check failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Entitlement check failed"})
	}
	storeEntitlement(userCtx.UserID, tierID, allowed)

	if !allowed {
		return denyNoEntitlement(c)
	}
	return c.Next()
}

func denyNoEntitlement(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "An active subscription is required for this course"})
}

func entitlementCacheKey(userID, tierID uint) string {
	return fmt.Sprintf("entitlement:%d:%d", userID, tierID)
}

func cachedEntitlement(userID, tierID uint) (allowed, ok bool) {
	val, err := cache.Get(entitlementCacheKey(userID, tierID))
	if err != nil {
		return false, false
	}
	return val == "1", true
}

func storeEntitlement(userID, tierID uint, allowed bool) {
	val := "0"
	if allowed {
		val = "1"
	}
	if err := cache.Set(entitlementCacheKey(userID, tierID), val, entitlementCacheTTL); err != nil {
		log.Printf("course access: cache write failed: %v", err)
	}
}

// InvalidateEntitlementCache drops the cached gate decision after a grant,
// so a fresh payment opens the course without waiting out the TTL.
func InvalidateEntitlementCache(userID, tierID uint) {
	if err := cache.Delete(entitlementCacheKey(userID, tierID)); err != nil {
		log.Printf("course access: cache invalidate failed: %v", err)
	}
}
