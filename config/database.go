package config

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/icaffe-pos/pos-device-api/models"
)

// ConnectLocalCache opens the embedded sqlite cache. The cache is the only
// store the UI reads synchronously and must survive process restarts, so it
// lives in a file unless a test passes ":memory:".
func ConnectLocalCache(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open local cache at %s: %w", path, err)
	}

	// The cache owns its schema; the remote store is migrated server-side.
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.MenuItem{}); err != nil {
		return nil, fmt.Errorf("failed to migrate local cache: %w", err)
	}

	log.Printf("Local cache ready at %s", path)
	return db, nil
}

// ConnectRemoteStore establishes a connection to the authoritative
// PostgreSQL store shared by all devices of the business.
func ConnectRemoteStore(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to remote store: %w", err)
	}

	log.Println("Remote store connection established successfully")
	return db, nil
}
