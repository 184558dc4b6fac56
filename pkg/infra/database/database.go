package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/hooks"
	"github.com/NeuralTrust/TrustShield/pkg/sinks/sqldb"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	maxOpenConns    = 50
	maxIdleConns    = 25
	connMaxLifetime = 5 * time.Minute
	connMaxIdleTime = 60 * time.Second
	connectTimeout  = 30 * time.Second
)

// DB is a gorm handle whose statements go through the SQL sink first.
type DB struct {
	logger *logrus.Logger
	*gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// NewDB connects with lib/pq, guards the pool with interceptor and applies
// pending migrations.
func NewDB(ctx context.Context, logger *logrus.Logger, cfg *Config, interceptor *hooks.Interceptor) (*DB, error) {
	logger.WithFields(logrus.Fields{
		"host":    cfg.Host,
		"port":    cfg.Port,
		"db":      cfg.DBName,
		"user":    cfg.User,
		"sslmode": cfg.SSLMode,
	}).Info("connecting to database")

	sqlDB, err := sql.Open(sqldb.DialectPostgres, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	db, err := Open(logger, sqldb.Wrap(sqlDB, interceptor, sqldb.DialectPostgres))
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.WithField("timeout", connectTimeout.String()).Info("applying database migrations")
	migCtx, migCancel := context.WithTimeout(ctx, connectTimeout)
	defer migCancel()
	if err := NewMigrationsManager(db.DB.WithContext(migCtx)).ApplyPending(); err != nil {
		logger.WithError(err).Error("failed to apply database migrations")
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return db, nil
}

// Open builds the gorm handle on an already guarded pool.
func Open(logger *logrus.Logger, pool *sqldb.DB) (*DB, error) {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: pool}), &gorm.Config{
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &DB{logger: logger, DB: gormDB}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
