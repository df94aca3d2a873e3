package assignment

import (
	"context"
	"fmt"

	"github.com/trunkline/trunkline/internal/events"
	"github.com/trunkline/trunkline/internal/metrics"
	"github.com/trunkline/trunkline/internal/models"
	"gorm.io/gorm"
)

// Transfer moves ownership from the current owner to another eligible agent
// of the same tenant. Only the current owner may transfer; the ownership
// write is conditional on fromAgentID still owning the conversation, so a
// racing transfer fails with ErrNotOwner instead of overwriting.
func (e *Engine) Transfer(ctx context.Context, conversationID, fromAgentID, toAgentID, reason string) (*Record, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("assignment: conversationID is required")
	}
	if fromAgentID == "" || toAgentID == "" {
		return nil, fmt.Errorf("assignment: fromAgentID and toAgentID are required")
	}

	db := e.db.WithContext(ctx)
	conv, err := getConversation(db, conversationID)
	if err != nil {
		metrics.RecordTransfer("error")
		return nil, err
	}
	if conv.AgentID == nil || *conv.AgentID != fromAgentID {
		metrics.RecordTransfer("not_owner")
		return nil, fmt.Errorf("assignment: %s does not own conversation %s: %w", fromAgentID, conv.ID, ErrNotOwner)
	}
	to, err := getEligibleAgent(db, toAgentID, conv.TenantID)
	if err != nil {
		metrics.RecordTransfer("not_eligible")
		return nil, err
	}

	now := e.now()
	note := fmt.Sprintf("Conversation transferred from %s to %s", fromAgentID, to.ID)
	if reason != "" {
		note += ": " + reason
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		won, err := casOwner(tx, conv.ID, conv.AgentID, map[string]interface{}{
			"agent_id": to.ID,
			"status":   models.ConversationTransferred,
		})
		if err != nil {
			return err
		}
		if !won {
			return fmt.Errorf("assignment: ownership of %s changed concurrently: %w", conv.ID, ErrNotOwner)
		}
		return appendSystemMessage(tx, conv, fromAgentID, note, now)
	})
	if err != nil {
		metrics.RecordTransfer("error")
		return nil, err
	}

	record := &Record{
		ConversationID: conv.ID,
		AgentID:        to.ID,
		AssignedAt:     now,
		AssignedBy:     fromAgentID,
		Method:         MethodManual,
		Status:         models.ConversationTransferred,
		Priority:       conv.Priority,
	}

	e.log.Info("conversation transferred",
		logConversation(conv.ID),
		logTenant(conv.TenantID),
		logAgent(to.ID))
	e.broadcast(ctx, conv.TenantID, events.ConversationTransferred, events.AssignmentPayload{
		ConversationID: conv.ID,
		TenantID:       conv.TenantID,
		AgentID:        to.ID,
		FromAgentID:    fromAgentID,
		Reason:         reason,
		OccurredAt:     now,
	}, fromAgentID, to.ID)
	metrics.RecordTransfer("transferred")
	return record, nil
}
