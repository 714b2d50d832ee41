package http

import (
	"time"

	"tasks_api/internal/http/handlers"
	"tasks_api/internal/http/middleware"
	"tasks_api/internal/service"
	"tasks_api/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

type Deps struct {
	Tasks    *service.TaskService
	Identity *service.IdentityExtractor
	Store    handlers.Pinger
	Hub      *ws.Hub

	// nil selects the in-process rate limiter
	Redis *redis.Client

	StoreBackend    string
	Version         string
	AllowedOrigin   string
	RateLimit       int
	RateLimitWindow time.Duration
}

// NewRouter returns an engine with the standard middleware chain and all
// routes registered.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics(), middleware.CORS(deps.AllowedOrigin))
	RegisterRoutes(r, deps)
	return r
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	h := handlers.NewHandler(deps.Tasks)
	healthHandler := handlers.NewHealthHandler(deps.Store, deps.StoreBackend, deps.Version)

	// Health checks and metrics (no auth, no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.Hub != nil {
		r.GET("/ws", handlers.WS(deps.Hub, deps.Identity, deps.AllowedOrigin))
	}

	limit, window := deps.RateLimit, deps.RateLimitWindow
	if limit <= 0 {
		limit = 120
	}
	if window <= 0 {
		window = time.Minute
	}
	rl := middleware.SimpleRateLimit(limit, window)
	if deps.Redis != nil {
		rl = middleware.RedisRateLimit(deps.Redis, limit, window)
	}

	tasks := r.Group("/tasks")
	tasks.Use(middleware.Identity(deps.Identity), rl)
	{
		tasks.GET("", h.ListTasks)
		tasks.POST("", h.CreateTask)
		tasks.DELETE("/:id", h.DeleteTask)
		tasks.PUT("/:id/toggle", h.ToggleTask)
	}
}
