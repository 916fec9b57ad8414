package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/StartUpFoundee/mantra-verse-counter-32/cache"
	"github.com/StartUpFoundee/mantra-verse-counter-32/config"
	"github.com/StartUpFoundee/mantra-verse-counter-32/db"
	"github.com/StartUpFoundee/mantra-verse-counter-32/handlers"
	"github.com/StartUpFoundee/mantra-verse-counter-32/routes"
	"github.com/StartUpFoundee/mantra-verse-counter-32/services"
	"github.com/StartUpFoundee/mantra-verse-counter-32/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := utils.InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer utils.Logger.Sync()
	utils.InitMetrics()

	utils.Logger.Info("starting_application",
		zap.String("db_driver", cfg.DBDriver),
		zap.Bool("redis_enabled", cfg.RedisEnabled),
		zap.String("timezone", cfg.Location.String()),
	)

	conn, err := db.Connect(cfg, utils.Logger)
	if err != nil {
		utils.Logger.Fatal("database_connection_failed", zap.Error(err))
	}
	if err := db.Migrate(conn); err != nil {
		utils.Logger.Fatal("migration_failed", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store := openSessionStore(ctx, cfg)
	defer store.Close()

	lg := utils.Logger
	accounts := services.NewAccountDataManager(conn, store, lg)
	prefs := services.NewPreferenceService(conn, lg)
	users := services.NewAccountService(conn, accounts, prefs, []byte(cfg.JWTSecret), cfg.Location, lg)
	activity := services.NewActivityService(conn, accounts, cfg.Location, lg)
	times := services.NewTimeService(conn, cfg.Location, lg)
	goals := services.NewGoalService(conn, activity, accounts, cfg.Location, lg)
	alarms := services.NewAlarmService(accounts, lg)
	dashboard := services.NewDashboardService(activity, times, goals, accounts, store, cfg.CacheTTL, lg)
	tracker := services.NewTracker(times, accounts, cfg.HeartbeatInterval, cfg.IdleThreshold, lg)

	if id, err := users.Restore(ctx); err != nil {
		utils.Logger.Warn("account_restore_failed", zap.Error(err))
	} else if id != "" {
		tracker.Touch()
	}

	go tracker.Run(ctx)

	h := &handlers.Handler{
		Users:     users,
		Accounts:  accounts,
		Prefs:     prefs,
		Activity:  activity,
		Times:     times,
		Goals:     goals,
		Alarms:    alarms,
		Dashboard: dashboard,
		Tracker:   tracker,
		Store:     store,
		Location:  cfg.Location,
	}

	gin.SetMode(gin.ReleaseMode)
	router := routes.SetupRouter(h, routes.Options{
		JWTSecret:    []byte(cfg.JWTSecret),
		AllowOrigins: cfg.AllowOrigins,
		CacheTTL:     cfg.CacheTTL,
		LoginLimit:   cfg.LoginRateLimit,
		LoginWindow:  cfg.LoginRateWindow,
		DB:           conn,
	})

	startServer(router, cfg.Port, func(shutdownCtx context.Context) {
		stop()
		if err := accounts.Checkpoint(shutdownCtx); err != nil {
			utils.Logger.Error("working_set_checkpoint_failed", zap.Error(err))
		}
	})
}

// openSessionStore returns Redis when enabled and reachable, otherwise an
// in-process store.
func openSessionStore(ctx context.Context, cfg *config.Config) cache.Store {
	if !cfg.RedisEnabled {
		utils.Logger.Info("session_store_memory")
		return cache.NewMemoryStore()
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	store, err := cache.InitRedis(pingCtx, cfg.RedisAddr(), utils.Logger)
	if err != nil {
		utils.Logger.Warn("session_store_fallback_memory", zap.Error(err))
		return cache.NewMemoryStore()
	}
	return store
}

func startServer(router *gin.Engine, port string, onShutdown func(context.Context)) {
	srv := &http.Server{
		Addr:         "127.0.0.1:" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	utils.Logger.Info("starting_http_server", zap.String("addr", srv.Addr))

	fmt.Println("\n🕉️  ================================")
	fmt.Println("   Mantra Verse Counter Started")
	fmt.Println("   ================================")
	fmt.Printf("   🌐 Server:  http://localhost:%s\n", port)
	fmt.Printf("   📊 Metrics: http://localhost:%s/metrics\n", port)
	fmt.Printf("   ❤️  Health: http://localhost:%s/health\n", port)
	fmt.Println("   ================================")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("http_server_failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.Logger.Info("shutting_down_server")
	fmt.Println("\n🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		utils.Logger.Error("server_forced_shutdown", zap.Error(err))
	}
	onShutdown(ctx)

	utils.Logger.Info("server_stopped")
	fmt.Println("✅ Server stopped gracefully")
}
