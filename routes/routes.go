package routes

import (
	"net/http"
	"time"

	"github.com/StartUpFoundee/mantra-verse-counter-32/handlers"
	"github.com/StartUpFoundee/mantra-verse-counter-32/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

type Options struct {
	JWTSecret    []byte
	AllowOrigins []string
	CacheTTL     time.Duration
	// LoginLimit is the number of login and account-creation attempts
	// allowed per client per LoginWindow.
	LoginLimit  int
	LoginWindow time.Duration
	DB          *gorm.DB
}

// DefaultAllowOrigins are used when Options.AllowOrigins is empty.
var DefaultAllowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

func SetupRouter(h *handlers.Handler, opts Options) *gin.Engine {
	r := gin.New()

	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = DefaultAllowOrigins
	}

	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.SecurityHeaders())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Cache"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		status := "connected"
		if opts.DB != nil {
			if sqlDB, err := opts.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				status = "unavailable"
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now(),
			"database":  status,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limit := middleware.RateLimitMiddleware(h.Store, opts.LoginLimit, opts.LoginWindow)

	public := r.Group("/api")
	{
		public.GET("/accounts", h.ListAccounts)
		public.POST("/accounts", limit, h.CreateAccount)
		public.POST("/login", limit, h.Login)
		public.GET("/onboarding", h.GetOnboarding)
		public.PUT("/onboarding", h.PutOnboarding)
	}

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(opts.JWTSecret, h.Users, h.Accounts, h.Tracker))
	{
		api.POST("/logout", h.Logout)
		api.GET("/accounts/me", h.GetMe)
		api.DELETE("/accounts/me", h.DeleteMe)

		api.POST("/jaaps", h.RecordJaaps)

		cached := api.Group("")
		cached.Use(middleware.CacheMiddleware(h.Store, opts.CacheTTL, h.Location))
		{
			cached.GET("/activity", h.GetActivity)
			cached.GET("/activity/streak", h.GetStreak)
			cached.GET("/activity/calendar", h.GetActivityCalendar)
			cached.GET("/levels", h.GetLevels)
		}

		api.POST("/time", h.RecordTime)
		api.GET("/time", h.GetTime)
		api.GET("/time/stats", h.GetTimeStats)
		api.GET("/time/calendar", h.GetTimeCalendar)
		api.POST("/heartbeat", h.Heartbeat)

		api.GET("/goals", h.GetGoals)
		api.PUT("/goals/:period", h.PutGoal)

		api.GET("/settings/alarm", h.GetAlarm)
		api.PUT("/settings/alarm", h.PutAlarm)

		api.GET("/data", h.ListData)
		api.GET("/data/:key", h.GetData)
		api.PUT("/data/:key", h.PutData)
		api.DELETE("/data/:key", h.DeleteData)

		api.GET("/dashboard", h.GetDashboard)
	}

	return r
}
