package assignment

import (
	"context"
	"fmt"

	"github.com/trunkline/trunkline/internal/events"
	"github.com/trunkline/trunkline/internal/metrics"
	"github.com/trunkline/trunkline/internal/models"
	"gorm.io/gorm"
)

// Release returns a conversation to the unassigned pool. Only the current
// owner may release it. A released conversation can be auto-assigned again,
// including back to the agent who released it.
func (e *Engine) Release(ctx context.Context, conversationID, userID string) error {
	if conversationID == "" {
		return fmt.Errorf("assignment: conversationID is required")
	}
	if userID == "" {
		return fmt.Errorf("assignment: userID is required")
	}

	db := e.db.WithContext(ctx)
	conv, err := getConversation(db, conversationID)
	if err != nil {
		metrics.RecordRelease("error")
		return err
	}
	if conv.AgentID == nil || *conv.AgentID != userID {
		metrics.RecordRelease("not_owner")
		return fmt.Errorf("assignment: %s does not own conversation %s: %w", userID, conv.ID, ErrNotOwner)
	}

	now := e.now()
	err = db.Transaction(func(tx *gorm.DB) error {
		won, err := casOwner(tx, conv.ID, conv.AgentID, map[string]interface{}{
			"agent_id": nil,
			"status":   models.ConversationActive,
		})
		if err != nil {
			return err
		}
		if !won {
			return fmt.Errorf("assignment: ownership of %s changed concurrently: %w", conv.ID, ErrNotOwner)
		}
		note := fmt.Sprintf("Conversation released by %s", userID)
		return appendSystemMessage(tx, conv, userID, note, now)
	})
	if err != nil {
		metrics.RecordRelease("error")
		return err
	}

	e.log.Info("conversation released",
		logConversation(conv.ID), logTenant(conv.TenantID), logAgent(userID))
	e.broadcast(ctx, conv.TenantID, events.ConversationReleased, events.AssignmentPayload{
		ConversationID: conv.ID,
		TenantID:       conv.TenantID,
		FromAgentID:    userID,
		OccurredAt:     now,
	}, userID)
	metrics.RecordRelease("released")
	return nil
}
