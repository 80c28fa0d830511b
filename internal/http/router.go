// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/canwegame/canwegame-api/docs"
	"github.com/canwegame/canwegame-api/internal/auth"
	"github.com/canwegame/canwegame-api/internal/config"
	"github.com/canwegame/canwegame-api/internal/domain"
	"github.com/canwegame/canwegame-api/internal/http/handlers"
	"github.com/canwegame/canwegame-api/internal/http/middleware"
	"github.com/canwegame/canwegame-api/internal/repo"
	"github.com/canwegame/canwegame-api/internal/services"
)

// userRepoShim adapts the repository free functions to the services.UserRepo
// interface expected by the auth and user services. This keeps services
// decoupled from the concrete repo package while reusing existing functions.
type userRepoShim struct{}

// CreateUser proxies repo.CreateUser.
func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, username, email, passwordHash string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, username, email, passwordHash)
}

// GetUser proxies repo.GetUser.
func (userRepoShim) GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

// GetUserByUsername proxies repo.GetUserByUsername.
func (userRepoShim) GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	return repo.GetUserByUsername(ctx, db, username)
}

// UsernameExists proxies repo.UsernameExists.
func (userRepoShim) UsernameExists(ctx context.Context, db *gorm.DB, username string) (bool, error) {
	return repo.UsernameExists(ctx, db, username)
}

// EmailExists proxies repo.EmailExists.
func (userRepoShim) EmailExists(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	return repo.EmailExists(ctx, db, email)
}

// CountUsers proxies repo.CountUsers (pagination support).
func (userRepoShim) CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountUsers(ctx, db)
}

// ListUsersPage proxies repo.ListUsersPage (pagination support).
func (userRepoShim) ListUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error) {
	return repo.ListUsersPage(ctx, db, offset, limit)
}

// DeleteUser proxies repo.DeleteUser.
func (userRepoShim) DeleteUser(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.DeleteUser(ctx, db, id)
}

// friendRepoShim adapts the friendship free functions to services.FriendshipRepo.
type friendRepoShim struct{}

// CreateFriendship proxies repo.CreateFriendship.
func (friendRepoShim) CreateFriendship(ctx context.Context, db *gorm.DB, lowID, highID uint) (*domain.Friendship, error) {
	return repo.CreateFriendship(ctx, db, lowID, highID)
}

// FriendshipExists proxies repo.FriendshipExists.
func (friendRepoShim) FriendshipExists(ctx context.Context, db *gorm.DB, lowID, highID uint) (bool, error) {
	return repo.FriendshipExists(ctx, db, lowID, highID)
}

// DeleteFriendship proxies repo.DeleteFriendship.
func (friendRepoShim) DeleteFriendship(ctx context.Context, db *gorm.DB, lowID, highID uint) error {
	return repo.DeleteFriendship(ctx, db, lowID, highID)
}

// ListFriendships proxies repo.ListFriendships.
func (friendRepoShim) ListFriendships(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Friendship, error) {
	return repo.ListFriendships(ctx, db, userID)
}

// DeleteFriendshipsFor proxies repo.DeleteFriendshipsFor (account removal).
func (friendRepoShim) DeleteFriendshipsFor(ctx context.Context, db *gorm.DB, userID uint) error {
	return repo.DeleteFriendshipsFor(ctx, db, userID)
}

// scheduleRepoShim adapts the schedule free functions to services.ScheduleRepo.
type scheduleRepoShim struct{}

// CreateSchedule proxies repo.CreateSchedule.
func (scheduleRepoShim) CreateSchedule(ctx context.Context, db *gorm.DB, s *domain.Schedule) error {
	return repo.CreateSchedule(ctx, db, s)
}

// ListSchedules proxies repo.ListSchedules.
func (scheduleRepoShim) ListSchedules(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Schedule, error) {
	return repo.ListSchedules(ctx, db, userID)
}

// GetSchedule proxies repo.GetSchedule.
func (scheduleRepoShim) GetSchedule(ctx context.Context, db *gorm.DB, id, userID uint) (*domain.Schedule, error) {
	return repo.GetSchedule(ctx, db, id, userID)
}

// UpdateSchedule proxies repo.UpdateSchedule.
func (scheduleRepoShim) UpdateSchedule(ctx context.Context, db *gorm.DB, s *domain.Schedule) error {
	return repo.UpdateSchedule(ctx, db, s)
}

// DeleteSchedule proxies repo.DeleteSchedule.
func (scheduleRepoShim) DeleteSchedule(ctx context.Context, db *gorm.DB, id, userID uint) error {
	return repo.DeleteSchedule(ctx, db, id, userID)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Response compression
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, tokens *auth.TokenIssuer, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Compress responses for clients that accept it
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID uint, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in; never exposed unless explicitly enabled)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/token issuer
	hasher := &auth.PasswordHasher{Cost: cfg.BcryptCost}
	authSvc := services.NewAuthService(db, userRepoShim{}, hasher, tokens)
	userSvc := services.NewUserService(db, userRepoShim{}, friendRepoShim{})
	friendSvc := services.NewFriendService(db, userRepoShim{}, friendRepoShim{})
	scheduleSvc := services.NewScheduleService(db, scheduleRepoShim{}, userRepoShim{})
	h := handlers.New(authSvc, userSvc, friendSvc, scheduleSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Registration and login need no token
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
	}

	// Everything below requires a valid bearer token
	authed := api.Group("", middleware.RequireAuth(tokens))
	{
		// Users and friendships
		authed.GET("/users", h.ListUsers)
		authed.GET("/users/:id", h.GetUser)
		authed.DELETE("/users/me", h.DeleteMe)
		authed.GET("/users/friends", h.ListFriends)
		authed.POST("/users/friends", h.AddFriend)
		authed.DELETE("/users/friends", h.RemoveFriend)

		// Gaming schedules
		authed.GET("/schedules/my", h.ListMySchedules)
		authed.GET("/schedules/user/:id", h.ListUserSchedules)
		authed.POST("/schedules", h.CreateSchedule)
		authed.GET("/schedules/:id", h.GetSchedule)
		authed.PUT("/schedules/:id", h.UpdateSchedule)
		authed.DELETE("/schedules/:id", h.DeleteSchedule)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
