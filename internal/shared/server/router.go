package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resumeai-backend/internal/resumes"
	"resumeai-backend/internal/services/health"
	"resumeai-backend/internal/shared/config"
	"resumeai-backend/internal/shared/metrics"
	"resumeai-backend/internal/shared/server/middleware"
	"resumeai-backend/internal/shared/server/respond"
)

const (
	groupIngest  = "INGEST"
	groupDefault = "DEFAULT"
)

// RouterDeps carries the handlers mounted by NewRouter.
type RouterDeps struct {
	Config  config.Config
	Resumes *resumes.Handler
	Health  *health.Service
	Limiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.ClientID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(rateLimitConfig(deps)),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})

	if deps.Resumes != nil {
		deps.Resumes.RegisterRoutes(api)
		if deps.Config.Env == "dev" {
			deps.Resumes.RegisterDevRoutes(api.Group("/dev"))
		}
	}

	return r
}

func rateLimitConfig(deps RouterDeps) middleware.RateLimitConfig {
	perMin := deps.Config.IngestRatePerMin
	rules := map[string]middleware.RateLimitRule{
		groupDefault: {Rate: 20, Burst: 40},
	}
	if perMin > 0 {
		rules[groupIngest] = middleware.PerMinute(perMin)
	}
	return middleware.RateLimitConfig{
		Rules:        rules,
		DefaultGroup: groupDefault,
		Limiter:      deps.Limiter,
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/resumes" {
				return groupIngest
			}
			return groupDefault
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
