package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/podsight/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	db   *gorm.DB
	once sync.Once
)

// Initialize opens the database connection and migrates the schema.
// TranslateError is enabled so unique-index violations surface as
// gorm.ErrDuplicatedKey, which the report pipeline relies on to dedup
// concurrent generation triggers.
func Initialize(dbPath string) error {
	var initErr error
	once.Do(func() {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			initErr = fmt.Errorf("failed to create database directory: %v", err)
			return
		}

		var err error
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{TranslateError: true})
		if err != nil {
			initErr = fmt.Errorf("failed to connect to database: %v", err)
			return
		}

		if err := Migrate(db); err != nil {
			initErr = fmt.Errorf("failed to migrate database: %v", err)
			return
		}

		log.Printf("Database initialized at %s", dbPath)
	})

	return initErr
}

// Migrate runs schema auto-migration on the given connection.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Episode{},
		&models.EpisodeSummary{},
		&models.SummaryBullet{},
		&models.Report{},
		&models.ReportEpisodeLink{},
		&models.ReportTheme{},
		&models.User{},
	)
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	if db == nil {
		panic("Database not initialized. Call Initialize() first")
	}
	return db
}

// Close closes the database connection
func Close() error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying *sql.DB: %v", err)
	}

	return sqlDB.Close()
}
