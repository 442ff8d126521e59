package db

import (
	"fmt"
	"log"

	"a2a_registry/internal/model"

	"gorm.io/gorm"
)

// Migrate runs database migrations for all models
func Migrate(db *gorm.DB) error {
	log.Println("Starting database migration...")

	// List of all models to migrate
	models := []interface{}{
		&model.Tenant{},
		&model.User{},
		&model.Client{},
		&model.AgentRecord{},
		&model.AgentVersion{},
		&model.Entitlement{},
		&model.PeerRegistry{},
		&model.PeerSync{},
		&model.RegistryEvent{},
	}

	// Run AutoMigrate for all models
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("✓ Database migration completed successfully (%d tables)", len(models))
	return nil
}
