// Package settings reads per-tenant assignment policy.
package settings

import (
	"time"

	"github.com/trunkline/trunkline/internal/models"
	"gorm.io/gorm"
)

// Defaults applied when a tenant has no settings row or leaves fields unset.
const (
	DefaultAlgorithm         = models.AlgorithmLoadBalanced
	DefaultMaxConversations  = 5
	DefaultEscalationTimeout = 30 * time.Minute
	DefaultEscalateTo        = models.RoleManager
)

// Config is the effective assignment policy for one tenant.
type Config struct {
	Algorithm                string
	MaxConversationsPerAgent int
	AutoAssignmentEnabled    bool
	RespectWorkingHours      bool
	Escalation               Escalation
}

// Escalation holds the escalation policy portion of the tenant config.
type Escalation struct {
	Enabled    bool
	Timeout    time.Duration
	EscalateTo string
}

// Defaults returns the policy applied to tenants with no stored settings.
func Defaults() Config {
	return Config{
		Algorithm:                DefaultAlgorithm,
		MaxConversationsPerAgent: DefaultMaxConversations,
		AutoAssignmentEnabled:    true,
		RespectWorkingHours:      true,
		Escalation: Escalation{
			Enabled:    true,
			Timeout:    DefaultEscalationTimeout,
			EscalateTo: DefaultEscalateTo,
		},
	}
}

// Get returns the tenant's assignment policy. It never fails: an absent row
// or an unreachable store yields Defaults(), and unset scalar fields on a
// stored row fall back field-by-field. Policy is read fresh on every
// assignment decision, so changes take effect on the next call.
func Get(db *gorm.DB, tenantID string) Config {
	var row models.AssignmentSettings
	err := db.Where("tenant_id = ?", tenantID).First(&row).Error
	if err != nil {
		return Defaults()
	}

	cfg := Config{
		Algorithm:                row.Algorithm,
		MaxConversationsPerAgent: row.MaxConversationsPerAgent,
		AutoAssignmentEnabled:    row.AutoAssignmentEnabled,
		RespectWorkingHours:      row.RespectWorkingHours,
		Escalation: Escalation{
			Enabled:    row.EscalationEnabled,
			Timeout:    time.Duration(row.EscalationTimeoutMinutes) * time.Minute,
			EscalateTo: row.EscalateTo,
		},
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = DefaultAlgorithm
	}
	if cfg.MaxConversationsPerAgent <= 0 {
		cfg.MaxConversationsPerAgent = DefaultMaxConversations
	}
	if cfg.Escalation.Timeout <= 0 {
		cfg.Escalation.Timeout = DefaultEscalationTimeout
	}
	if cfg.Escalation.EscalateTo == "" {
		cfg.Escalation.EscalateTo = DefaultEscalateTo
	}
	return cfg
}
