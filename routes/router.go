package routes

import (
	"context"
	"net/http"
	"time"

	"campusdesk-be/controllers"
	"campusdesk-be/middlewares"
	"campusdesk-be/services"
	"campusdesk-be/store"
	"campusdesk-be/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deps is everything the HTTP layer needs. Redis may be nil.
type Deps struct {
	Auth      *services.AuthService
	Issues    *services.IssueService
	Analytics *services.AnalyticsService
	Tokens    *utils.TokenIssuer
	Images    *utils.ImageStore
	Store     store.Pinger
	Redis     *redis.Client
	Metrics   *middlewares.Metrics
	Log       *zap.Logger

	CORSOrigins    []string
	IssueLimit     middlewares.IssueLimit
	MaxUploadBytes int64
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestLogger(d.Log))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if d.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = d.MaxUploadBytes
	}

	r.Static("/uploads", d.Images.Dir)
	r.GET("/healthz", health(d.Store, d.Redis))
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	requireAuth := middlewares.AuthMiddleware(d.Tokens, d.Log)
	limit := middlewares.IssueRateLimiter(d.Redis, d.IssueLimit, d.Log)

	api := r.Group("/api")
	api.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Backend is working!"})
	})
	AuthRoutes(api, controllers.NewAuthController(d.Auth, d.Log), requireAuth)
	IssueRoutes(api, controllers.NewIssueController(d.Issues, d.Analytics, d.Images, d.MaxUploadBytes, d.Log), requireAuth, limit)

	return r
}

func health(db store.Pinger, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{"store": "ok"}
		if err := db.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks["store"] = err.Error()
		}
		if rdb != nil {
			checks["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				status = http.StatusServiceUnavailable
				checks["redis"] = err.Error()
			}
		}
		c.JSON(status, checks)
	}
}
