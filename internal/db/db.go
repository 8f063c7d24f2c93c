package db

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/quartermaster-dev/quartermaster/internal/config"
	"github.com/quartermaster-dev/quartermaster/internal/models"
	"github.com/quartermaster-dev/quartermaster/internal/status"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New creates a new database connection based on configuration
func New(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		// Configure SQLite with WAL mode and busy timeout for better concurrency
		dialector = sqlite.Open(cfg.DSN + "?_journal_mode=WAL&_busy_timeout=5000")
	case "postgres", "postgresql":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormLogger := logger.Default.LogMode(logger.Warn)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// SQLite: WAL mode allows concurrent reads but only one writer
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		slog.Info("Configured SQLite with WAL mode and single connection")
	} else {
		maxIdleConns := cfg.MaxIdleConns
		if maxIdleConns <= 0 {
			maxIdleConns = 10
		}
		maxOpenConns := cfg.MaxOpenConns
		if maxOpenConns <= 0 {
			maxOpenConns = 100
		}
		connMaxLifetime := cfg.ConnMaxLifetime
		if connMaxLifetime <= 0 {
			connMaxLifetime = 60 // minutes
		}

		sqlDB.SetMaxIdleConns(maxIdleConns)
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Minute)

		slog.Info("Configured PostgreSQL connection pool",
			"max_idle_conns", maxIdleConns,
			"max_open_conns", maxOpenConns,
			"conn_max_lifetime_min", connMaxLifetime)
	}

	return db, nil
}

// Migrate runs database migrations for all models
func Migrate(db *gorm.DB) error {
	slog.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Department{},
		&models.Location{},
		&models.Supplier{},
		&models.StatusLabel{},
		&models.AssetModel{},
		&models.Asset{},
		&models.ActivityLog{},
		&models.TicketEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := SeedStatusLabels(db); err != nil {
		return fmt.Errorf("failed to seed status labels: %w", err)
	}

	return nil
}

// SeedStatusLabels creates the status labels the assignment flows depend on.
// "Deployed" and "In-Stock" are required; check-out and check-in abort with a
// configuration error when they are missing.
func SeedStatusLabels(db *gorm.DB) error {
	defaults := []models.StatusLabel{
		{Name: status.Deployed, Color: "#22c55e"},
		{Name: status.InStock, Color: "#64748b"},
		{Name: status.InRepair, Color: "#f59e0b"},
		{Name: status.Archived, Color: "#334155"},
		{Name: status.Lost, Color: "#ef4444"},
	}

	for _, label := range defaults {
		var existing models.StatusLabel
		result := db.Where("name = ?", label.Name).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := db.Create(&label).Error; err != nil {
				return err
			}
			slog.Info("Created default status label", "name", label.Name)
		}
	}

	return nil
}
