package assignment

import (
	"context"
	"fmt"

	"github.com/trunkline/trunkline/internal/events"
	"github.com/trunkline/trunkline/internal/models"
)

// validStatuses are the presence states an agent can report.
var validStatuses = map[string]bool{
	models.AgentAvailable: true,
	models.AgentBusy:      true,
	models.AgentAway:      true,
	models.AgentOffline:   true,
}

// UpdateAgentStatus sets an agent's presence status, derived online flag
// and last-seen timestamp, then announces the change to the tenant.
// IsOnline is true for available and busy: busy agents still hold an open
// session even though they are not taking new work.
func (e *Engine) UpdateAgentStatus(ctx context.Context, agentID, tenantID, status string) error {
	if agentID == "" {
		return fmt.Errorf("assignment: agentID is required")
	}
	if tenantID == "" {
		return fmt.Errorf("assignment: tenantID is required")
	}
	if !validStatuses[status] {
		return fmt.Errorf("assignment: invalid agent status %q", status)
	}

	now := e.now()
	isOnline := status == models.AgentAvailable || status == models.AgentBusy

	res := e.db.WithContext(ctx).Model(&models.Agent{}).
		Where("id = ? AND tenant_id = ?", agentID, tenantID).
		Updates(map[string]interface{}{
			"status":    status,
			"is_online": isOnline,
			"last_seen": now,
		})
	if res.Error != nil {
		return fmt.Errorf("assignment: update status of %s: %w", agentID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("assignment: agent %s in tenant %s: %w", agentID, tenantID, ErrAgentNotFound)
	}

	e.log.Info("agent status changed",
		logAgent(agentID), logTenant(tenantID))
	e.broadcast(ctx, tenantID, events.AgentStatusChanged, events.StatusPayload{
		AgentID:    agentID,
		TenantID:   tenantID,
		Status:     status,
		IsOnline:   isOnline,
		OccurredAt: now,
	})
	return nil
}
