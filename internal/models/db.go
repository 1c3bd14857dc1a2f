package models

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database is the read side of the audit trail used by the HTTP API.
type Database struct {
	DB *gorm.DB
}

// Open connects with gorm. The table itself is owned by db.Pool.Migrate;
// AutoMigrate here only fills in a missing table on a fresh database.
func Open(dsn string) (*Database, error) {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&ImportOutcome{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	return &Database{DB: db}, nil
}

// ListOutcomes returns outcomes in insertion order.
func (d *Database) ListOutcomes(f OutcomeFilter) ([]ImportOutcome, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 100
	}
	q := d.DB.Model(&ImportOutcome{})
	if f.RunID != "" {
		q = q.Where("run_id = ?", f.RunID)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	var out []ImportOutcome
	err := q.Order("id asc").Limit(f.Limit).Offset(f.Offset).Find(&out).Error
	return out, err
}

// Runs lists distinct run ids with their latest activity.
func (d *Database) Runs(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []RunSummary
	err := d.DB.Model(&ImportOutcome{}).
		Select("run_id, count(*) as outcomes, max(created_at) as last_at").
		Group("run_id").
		Order("last_at desc").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

// RunSummary aggregates one run.
type RunSummary struct {
	RunID    string    `json:"run_id"`
	Outcomes int64     `json:"outcomes"`
	LastAt   time.Time `json:"last_at"`
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("error getting sql.DB: %w", err)
	}
	return sqlDB.Close()
}
