package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exquiz-backend/internal/config"
	"github.com/stemsi/exquiz-backend/internal/handler"
	"github.com/stemsi/exquiz-backend/internal/middleware"
	"github.com/stemsi/exquiz-backend/internal/response"
	"github.com/stemsi/exquiz-backend/internal/service"
)

// catalogMaxAge is how long clients may cache class and subject listings.
const catalogMaxAge = 300

// rankingsMaxAge keeps polled leaderboards close to the live stream.
const rankingsMaxAge = 5

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Class    *handler.ClassHandler
	Subject  *handler.SubjectHandler
	Question *handler.QuestionHandler
	Test     *handler.TestHandler
	Ranking  *handler.RankingHandler
	WS       *handler.WSHandler
	System   *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware(log))
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	requireUser := []gin.HandlerFunc{
		middleware.RequireUserJWT(authService),
		middleware.RejectRevokedTokens(authService),
	}

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1")
	publicAPI.Use(middleware.CacheControl(catalogMaxAge))
	{
		publicAPI.GET("/classes", handlers.Class.ListClasses)
		publicAPI.GET("/classes/:id/subjects", handlers.Class.ListSubjects)
		publicAPI.GET("/subjects/:id", handlers.Subject.GetSubject)
	}

	// The board changes with every recorded result.
	router.GET("/api/v1/rankings", middleware.CacheControl(rankingsMaxAge), handlers.Ranking.GetRankings)

	// ─── 1. User Group (JWT + revocation) ──────────────────────────────
	userAPI := router.Group("/api/v1")
	userAPI.Use(requireUser...)
	userAPI.Use(middleware.NoStore())
	{
		userAPI.GET("/me", handlers.Auth.GetMe)
		userAPI.POST("/auth/logout", handlers.Auth.Logout)

		userAPI.GET("/subjects/:id/semesters/:semester/sets", handlers.Question.ListSets)
		userAPI.GET("/subjects/:id/semesters/:semester/sets/:set/questions", handlers.Question.GetQuestionSet)

		submitLimiter := middleware.NewRateLimiter(rdb, "submit", cfg.SubmitRateLimit, time.Minute)
		userAPI.POST("/tests/submit", submitLimiter.Middleware(), handlers.Test.SubmitTest)
		userAPI.GET("/tests/history", handlers.Test.GetHistory)
		userAPI.GET("/tests/history/:id", handlers.Test.GetDetail)
		userAPI.GET("/tests/history/:id/report", handlers.Test.DownloadReport)
	}

	// ─── 2. WebSocket Group (token in query) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireWSAuth(authService),
		middleware.RejectRevokedTokens(authService),
	)
	{
		ws.GET("/rankings/stream", handlers.WS.RankingsStream)
	}

	return router
}
