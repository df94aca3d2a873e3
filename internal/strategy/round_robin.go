package strategy

import (
	"fmt"

	"github.com/trunkline/trunkline/internal/directory"
	"github.com/trunkline/trunkline/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoundRobin distributes conversations evenly by advancing a per-tenant
// cursor stored in the database. The cursor is advanced with a single
// increment-and-read inside the assignment transaction, so concurrent
// selections on the same tenant never reuse an index, and the rotation
// survives restarts and multiple server instances.
type RoundRobin struct{}

var _ Strategy = (*RoundRobin)(nil)

// NewRoundRobin creates a new round-robin strategy.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// Name returns the algorithm name.
func (rr *RoundRobin) Name() string { return models.AlgorithmRoundRobin }

// Pick selects eligible[cursor mod len(eligible)] and advances the cursor.
func (rr *RoundRobin) Pick(tx *gorm.DB, tenantID string, _ *models.Conversation, eligible []directory.AgentInfo) (*directory.AgentInfo, error) {
	if len(eligible) == 0 {
		return nil, ErrNoAgents
	}

	pos, err := nextPosition(tx, tenantID)
	if err != nil {
		return nil, err
	}
	return &eligible[pos%int64(len(eligible))], nil
}

// nextPosition atomically claims the tenant's current cursor position and
// advances it. The UPDATE holds the row lock until the surrounding
// transaction commits, so the read-back observes this call's own increment.
func nextPosition(tx *gorm.DB, tenantID string) (int64, error) {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RotationCursor{TenantID: tenantID}).Error; err != nil {
		return 0, fmt.Errorf("strategy: seed rotation cursor for %s: %w", tenantID, err)
	}

	if err := tx.Model(&models.RotationCursor{}).Where("tenant_id = ?", tenantID).
		UpdateColumn("position", gorm.Expr("position + 1")).Error; err != nil {
		return 0, fmt.Errorf("strategy: advance rotation cursor for %s: %w", tenantID, err)
	}

	var cur models.RotationCursor
	if err := tx.Where("tenant_id = ?", tenantID).First(&cur).Error; err != nil {
		return 0, fmt.Errorf("strategy: read rotation cursor for %s: %w", tenantID, err)
	}
	// Position is the count after increment; the claimed index precedes it.
	return cur.Position - 1, nil
}
