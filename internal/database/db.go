package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kdimtricp/deepcheck/internal/logger"
)

const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

type DB struct {
	gorm   *gorm.DB
	conn   *sql.DB
	dbType string
	logger *logger.Logger
}

type Config struct {
	Type       string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

func NewDB(config Config, log *logger.Logger) (*DB, error) {
	if log == nil {
		log = logger.Nop()
	}

	var dialector gorm.Dialector
	switch config.Type {
	case TypeSQLite:
		dialector = sqlite.Open(sqliteDSN(config.SQLitePath))
	case TypePostgres:
		sslMode := config.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			config.Host, config.Port, config.User, config.Password, config.Name, sslMode)
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}

	if config.Type == TypeSQLite {
		// single writer avoids SQLITE_BUSY under concurrent inserts
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(5)
		conn.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{gorm: gdb, conn: conn, dbType: config.Type, logger: log}, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000&_foreign_keys=on"
}

// RunMigrations brings the schema up to date. PostgreSQL uses the versioned
// SQL files in migrationsPath; SQLite is migrated from the record models.
func (db *DB) RunMigrations(migrationsPath string) error {
	if db.dbType == TypeSQLite {
		if err := db.gorm.AutoMigrate(&ReportRecord{}); err != nil {
			return fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
		return nil
	}
	return NewMigrator(db.conn, db.dbType, db.logger).Run(migrationsPath)
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Health verifies the connection and that the reports table is queryable.
func (db *DB) Health(ctx context.Context) error {
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	var ids []uint64
	if err := db.gorm.WithContext(ctx).Model(&ReportRecord{}).Limit(1).Pluck("id", &ids).Error; err != nil {
		return fmt.Errorf("reports table unavailable: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) GORM() *gorm.DB {
	return db.gorm
}

func (db *DB) Type() string {
	return db.dbType
}
