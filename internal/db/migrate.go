package db

import (
	"fmt"

	"github.com/trunkline/trunkline/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Conversation{},
		&models.Agent{},
		&models.Message{},
		&models.AssignmentSettings{},
		&models.RotationCursor{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedTenant inserts the tenant's default assignment settings row. Existing
// rows are left untouched, so re-running init is safe.
func SeedTenant(db *gorm.DB, tenantID string) error {
	row := models.AssignmentSettings{
		TenantID:                 tenantID,
		Algorithm:                models.AlgorithmLoadBalanced,
		MaxConversationsPerAgent: 5,
		AutoAssignmentEnabled:    true,
		RespectWorkingHours:      true,
		EscalationEnabled:        true,
		EscalationTimeoutMinutes: 30,
		EscalateTo:               models.RoleManager,
	}
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("db: seed tenant %s: %w", tenantID, err)
	}
	return nil
}
