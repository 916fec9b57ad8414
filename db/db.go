package db

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/StartUpFoundee/mantra-verse-counter-32/config"
	"github.com/StartUpFoundee/mantra-verse-counter-32/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

const maxRetries = 10

// Connect opens the configured database, retrying while a postgres server
// is still starting, and sets DB.
func Connect(cfg *config.Config, lg *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.PostgresDSN())
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dialector = sqlite.Open(cfg.SQLitePath + "?_busy_timeout=5000&_foreign_keys=on")
	}

	var (
		conn *gorm.DB
		err  error
	)
	for i := 0; i < maxRetries; i++ {
		conn, err = open(dialector, cfg.DBDriver)
		if err == nil {
			lg.Info("database_connected", zap.String("driver", cfg.DBDriver))
			DB = conn
			return conn, nil
		}

		lg.Warn("database_connect_retry",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Error(err),
		)
		if cfg.DBDriver != "postgres" {
			break
		}
		time.Sleep(2 * time.Second)
	}

	return nil, fmt.Errorf("connect to %s: %w", cfg.DBDriver, err)
}

// OpenSQLite opens a sqlite database (":memory:" works) and migrates it.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	conn, err := open(sqlite.Open(dsn), "sqlite")
	if err != nil {
		return nil, err
	}
	if err := Migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func open(dialector gorm.Dialector, driver string) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		// single writer; also keeps ":memory:" databases on one connection
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	return conn, nil
}
