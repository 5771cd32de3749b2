package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/AJ-Collins/elite-trading-sub000/app/controllers"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/cache"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/env"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/middleware"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Storage:    newLimiterStorage(),
	}))

	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "elite trading api",
		})
	})

	// Public
	auth := api.Group("/auth")
	auth.Post("/register", controllers.HandleRegister)
	auth.Post("/login", controllers.HandleLogin)

	api.Get("/subscriptions/public", controllers.HandlePublicTiers)
	api.Get("/blogs", controllers.HandleListBlogs)
	api.Get("/blogs/:slug", controllers.HandleGetBlog)

	// Provider callbacks: unauthenticated by design, idempotency and signature
	// checks happen inside the handlers.
	payments := api.Group("/payments")
	payments.Post("/mpesa/callback", controllers.HandleMpesaCallback)
	payments.Post("/binance/webhook", controllers.HandleBinanceWebhook)

	// Authenticated
	authed := api.Group("", middleware.JWTAuthMiddleware())

	user := authed.Group("/user")
	user.Get("/profile", controllers.HandleGetProfile)
	user.Put("/profile", controllers.HandleUpdateProfile)
	user.Get("/subscriptions", controllers.HandleUserSubscriptions)
	user.Get("/dashboard", controllers.HandleDashboard)
	user.Post("/courses/:id/archive", controllers.HandleArchiveCourse)
	user.Delete("/courses/:id/archive", controllers.HandleUnarchiveCourse)

	authed.Get("/courses", controllers.HandleListCourses)
	authed.Get("/courses/:id", middleware.RequireCourseAccess, controllers.HandleGetCourse)
	authed.Get("/live-sessions", controllers.HandleUpcomingSessions)
	authed.Post("/progress/videos/:id", controllers.HandleUpsertProgress)

	payAuthed := authed.Group("/payments")
	payAuthed.Post("/initiate", controllers.HandleInitiatePayment)
	payAuthed.Get("/status/:transactionId", controllers.HandlePaymentStatus)

	// Admin
	admin := authed.Group("/admin", middleware.RequireAdmin)
	admin.Get("/users", controllers.HandleAdminListUsers)
	admin.Patch("/users/:id/status", controllers.HandleAdminUpdateUserStatus)
	admin.Get("/stats", controllers.HandleAdminStats)
	admin.Get("/queue", controllers.HandleAdminQueueStats)

	admin.Get("/subscriptions", controllers.HandleAdminListTiers)
	admin.Post("/subscriptions", controllers.HandleAdminCreateTier)
	admin.Put("/subscriptions/:id", controllers.HandleAdminUpdateTier)
	admin.Delete("/subscriptions/:id", controllers.HandleAdminDeactivateTier)
	admin.Post("/subscriptions/grant", controllers.HandleAdminGrantSubscription)
	admin.Post("/subscriptions/revoke", controllers.HandleAdminRevokeSubscription)

	admin.Get("/courses", controllers.HandleAdminListCourses)
	admin.Post("/courses", controllers.HandleAdminCreateCourse)
	admin.Put("/courses/:id", controllers.HandleAdminUpdateCourse)
	admin.Delete("/courses/:id", controllers.HandleAdminDeleteCourse)
	admin.Post("/courses/:id/videos", controllers.HandleAdminUploadVideo)
	admin.Put("/videos/:videoId", controllers.HandleAdminUpdateVideo)
	admin.Delete("/videos/:videoId", controllers.HandleAdminDeleteVideo)
	admin.Post("/courses/:id/notes", controllers.HandleAdminUploadNote)
	admin.Delete("/notes/:noteId", controllers.HandleAdminDeleteNote)

	admin.Get("/blogs", controllers.HandleAdminListBlogs)
	admin.Post("/blogs", controllers.HandleAdminCreateBlog)
	admin.Put("/blogs/:id", controllers.HandleAdminUpdateBlog)
	admin.Delete("/blogs/:id", controllers.HandleAdminDeleteBlog)

	admin.Post("/live-sessions", controllers.HandleAdminCreateLiveSession)
	admin.Put("/live-sessions/:id", controllers.HandleAdminUpdateLiveSession)
	admin.Delete("/live-sessions/:id", controllers.HandleAdminDeleteLiveSession)
}

// newLimiterStorage backs the rate limiter with Redis so limits hold across
// instances. Uses database 1; the entitlement cache uses DB 0.
func newLimiterStorage() *redis.Storage {
	cacheClient := cache.GetClient()
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}
