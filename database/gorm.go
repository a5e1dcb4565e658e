package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/config"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	maxIdleConns    = 10
	maxOpenConns    = 100
	connMaxLifetime = time.Hour
)

type GORMStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// StartGORM opens the PostgreSQL pool described by env
func StartGORM(env *config.Environment, logger *slog.Logger) (*GORMStore, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		env.DB_HOST, env.DB_USER_NAME, env.DB_PASSWORD, env.DB_NAME, env.DB_PORT, env.DB_SSL_MODE,
	)

	level := gormlogger.Warn
	if env.IsProduction() {
		level = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		PrepareStmt:    true,
		TranslateError: true, // unique violations surface as gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	logger.Info("connected to postgres", "host", env.DB_HOST, "database", env.DB_NAME)
	return &GORMStore{db: db, logger: logger}, nil
}

// Init migrates every table the API owns
func (s *GORMStore) Init() error {
	start := time.Now()
	err := s.db.AutoMigrate(
		// accounts and entitlements
		&model.User{},
		&model.PurchasedCourse{},
		&model.UserTransaction{},
		&model.PasswordResetToken{},
		&model.JWTTokenBlacklist{},

		// catalog and learning
		&model.Course{},
		&model.SubscriptionPlan{},
		&model.SavedCourse{},
		&model.UserProgress{},

		&model.Transaction{},

		&model.CronJobLog{},
		&model.AdminAuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	s.logger.Info("migrations applied", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (s *GORMStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the handle repositories are built on
func (s *GORMStore) DB() *gorm.DB {
	return s.db
}

func (s *GORMStore) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
