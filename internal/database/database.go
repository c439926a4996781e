package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/manuscripts/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	return NewDatabaseWithLogLevel(dbPath, logger.Warn)
}

// NewDatabaseWithLogLevel opens the sqlite database at dbPath and migrates
// all entities. Tests use logger.Silent.
func NewDatabaseWithLogLevel(dbPath string, level logger.LogLevel) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate all entities
	err = db.AutoMigrate(
		&entities.User{},
		&entities.Publication{},
		&entities.Chapter{},
		&entities.AuditEvent{},
		&entities.Setting{},
		&entities.SyncProgress{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Stats returns publication and chapter totals for the health endpoint.
func (d *Database) Stats() (publications int64, chapters int64, err error) {
	if err = d.DB.Model(&entities.Publication{}).Count(&publications).Error; err != nil {
		return 0, 0, err
	}
	if err = d.DB.Model(&entities.Chapter{}).Count(&chapters).Error; err != nil {
		return 0, 0, err
	}
	return publications, chapters, nil
}
