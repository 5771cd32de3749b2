package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"github.com/AJ-Collins/elite-trading-sub000/app/repository"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/jwt"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/usercontext"
)

// JWTAuthMiddleware authenticates requests carrying a bearer token and loads
// the user behind it. Inactive and suspended users are rejected even with a
// valid token.
func JWTAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing bearer token"})
		}

		claims, err := jwt.ParseToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid token"})
		}

		repo := repository.GetGlobalFactory().GetUserRepository()
		user, err := repo.GetByID(claims.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Unknown user"})
			}
			log.Printf("auth middleware: user lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "User verification failed"})
		}

		if user.Status != models.STATUS_ACTIVE {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Account is " + user.Status})
		}

		userCtx := usercontext.UserContext{
			UserID:     user.ID,
			Name:       user.Name,
			Email:      user.Email,
			IsLoggedIn: true,
			IsAdmin:    user.IsAdmin(),
		}
		c.Locals(usercontext.KeyUserContext, userCtx)
		c.Locals(usercontext.KeyUserID, user.ID)
		c.Locals(usercontext.KeyIsAdmin, user.IsAdmin())

		return c.Next()
	}
}

// RequireAdmin ensures the authenticated user carries the admin role.
// Must run behind JWTAuthMiddleware.
func RequireAdmin(c *fiber.Ctx) error {
	if isAdmin, ok := c.Locals(usercontext.KeyIsAdmin).(bool); !ok || !isAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Admin access required"})
	}
	return c.Next()
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
