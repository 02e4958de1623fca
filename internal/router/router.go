package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/orbita-academy/orbita-backend/internal/config"
	"github.com/orbita-academy/orbita-backend/internal/handler"
	"github.com/orbita-academy/orbita-backend/internal/middleware"
	"github.com/orbita-academy/orbita-backend/internal/model"
	"github.com/orbita-academy/orbita-backend/internal/response"
	"github.com/orbita-academy/orbita-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth   *handler.AuthHandler
	User   *handler.UserHandler
	Role   *handler.RoleHandler
	Events *handler.EventsHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	access *service.AccessService,
	tokens *service.TokenService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request IDs on every response, compression where it pays off.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for the login route.
	authLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, time.Minute)

	requireAuth := middleware.RequireAuth(tokens)
	checkSession := middleware.CheckSessionRevocation(access)

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", requireAuth, checkSession, handlers.Auth.Logout)
		auth.GET("/me", requireAuth, checkSession, handlers.Auth.Me)
	}

	// ─── 2. Admin Group (JWT + session + RBAC) ─────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(requireAuth, checkSession, middleware.RequireStaff())
	{
		// User registry management
		adminAPI.GET("/users",
			middleware.RequirePermission(access, model.PermissionManageUsers),
			handlers.User.ListUsers,
		)
		adminAPI.POST("/users",
			middleware.RequirePermission(access, model.PermissionManageUsers),
			handlers.User.RegisterUser,
		)
		adminAPI.PUT("/users/:id",
			middleware.RequirePermission(access, model.PermissionManageUsers),
			handlers.User.UpdateUser,
		)
		adminAPI.PUT("/users/:id/permissions",
			middleware.RequirePermission(access, model.PermissionManageUsers),
			handlers.User.UpdateUserPermissions,
		)
		adminAPI.PUT("/users/:id/active",
			middleware.RequirePermission(access, model.PermissionManageUsers),
			handlers.User.SetUserActive,
		)

		// Role and permission catalogs (read-only, needed by the user form)
		adminAPI.GET("/roles",
			middleware.RequirePermission(access, model.PermissionManageUsers),
			handlers.Role.ListRoles,
		)
		adminAPI.GET("/permissions",
			middleware.RequirePermission(access, model.PermissionManageUsers),
			handlers.Role.ListPermissions,
		)
	}

	// ─── 3. WebSocket Group (admin events) ─────────────────────────────
	wsGroup := router.Group("/ws/v1")
	wsGroup.Use(requireAuth, checkSession)
	{
		wsGroup.GET("/admin/events",
			middleware.RequirePermission(access, model.PermissionViewDashboard),
			handlers.Events.EventsStream,
		)
	}

	return router
}
