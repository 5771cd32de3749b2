package middleware

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/usercontext"
)

// newGateApp builds a fiber app whose /courses/:id route is guarded by
// RequireCourseAccess. The final handler reports which course the gate
// loaded into Locals.
func newGateApp(user usercontext.UserContext) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if user.IsLoggedIn {
			c.Locals(usercontext.KeyUserContext, user)
		}
		return c.Next()
	})
	app.Get("/courses/:id", RequireCourseAccess, func(c *fiber.Ctx) error {
		course := c.Locals("COURSE").(*models.Course)
		return c.JSON(fiber.Map{"id": course.ID})
	})
	return app
}

func stubGate(t *testing.T, courses map[uint]*models.Course, entitled map[[2]uint]bool) {
	t.Helper()
	origCourse, origEnt := gateCourseByID, gateHasCurrent
	t.Cleanup(func() {
		gateCourseByID, gateHasCurrent = origCourse, origEnt
	})
	gateCourseByID = func(id uint) (*models.Course, error) {
		if course, ok := courses[id]; ok {
			return course, nil
		}
		return nil, gorm.ErrRecordNotFound
	}
	gateHasCurrent = func(ctx context.Context, userID, tierID uint) (bool, error) {
		return entitled[[2]uint{userID, tierID}], nil
	}
}

func gateStatus(t *testing.T, app *fiber.App, courseID uint) int {
	t.Helper()
	req := httptest.NewRequest("GET", fmt.Sprintf("/courses/%d", courseID), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRequireCourseAccess(t *testing.T) {
	tierID := uint(3)
	courses := map[uint]*models.Course{
		1: {ID: 1, Title: "Price Action Basics", Published: true},
		2: {ID: 2, Title: "Advanced Orderflow", Published: true, SubscriptionTierID: &tierID},
	}

	t.Run("missing course is 404", func(t *testing.T) {
		stubGate(t, courses, nil)
		app := newGateApp(usercontext.UserContext{UserID: 901, IsLoggedIn: true})
		assert.Equal(t, fiber.StatusNotFound, gateStatus(t, app, 99))
	})

	t.Run("free course passes without entitlement", func(t *testing.T) {
		stubGate(t, courses, nil)
		app := newGateApp(usercontext.UserContext{UserID: 902, IsLoggedIn: true})
		assert.Equal(t, fiber.StatusOK, gateStatus(t, app, 1))
	})

	t.Run("tiered course without entitlement is 403, not 404", func(t *testing.T) {
		stubGate(t, courses, nil)
		app := newGateApp(usercontext.UserContext{UserID: 903, IsLoggedIn: true})
		assert.Equal(t, fiber.StatusForbidden, gateStatus(t, app, 2))
	})

	t.Run("tiered course with current entitlement passes", func(t *testing.T) {
		stubGate(t, courses, map[[2]uint]bool{{904, tierID}: true})
		app := newGateApp(usercontext.UserContext{UserID: 904, IsLoggedIn: true})
		assert.Equal(t, fiber.StatusOK, gateStatus(t, app, 2))
	})

	t.Run("admin bypasses the tier check", func(t *testing.T) {
		stubGate(t, courses, nil)
		app := newGateApp(usercontext.UserContext{UserID: 905, IsLoggedIn: true, IsAdmin: true})
		assert.Equal(t, fiber.StatusOK, gateStatus(t, app, 2))
	})

	t.Run("anonymous is 401", func(t *testing.T) {
		stubGate(t, courses, nil)
		app := newGateApp(usercontext.UserContext{})
		assert.Equal(t, fiber.StatusUnauthorized, gateStatus(t, app, 1))
	})
}
