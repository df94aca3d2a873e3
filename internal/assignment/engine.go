// Package assignment decides which agent owns a conversation and manages
// the assign, transfer and release lifecycle with single-ownership
// guarantees under concurrent requests.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trunkline/trunkline/internal/events"
	"github.com/trunkline/trunkline/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Engine orchestrates assignment decisions over the store and broadcasts
// lifecycle events. All ownership mutations go through a conditional update
// keyed on the current owner, so a lost-update race cannot silently occur.
type Engine struct {
	db          *gorm.DB
	broadcaster events.Broadcaster
	log         *zap.Logger
	now         func() time.Time
}

// Opts holds constructor parameters for the Engine.
type Opts struct {
	DB          *gorm.DB
	Broadcaster events.Broadcaster
	Logger      *zap.Logger

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// New creates an assignment engine. Only DB is required; the broadcaster
// defaults to log-only delivery.
func New(opts Opts) (*Engine, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("assignment: db is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Broadcaster == nil {
		opts.Broadcaster = events.NewLog(opts.Logger)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Engine{
		db:          opts.DB,
		broadcaster: opts.Broadcaster,
		log:         opts.Logger,
		now:         opts.Clock,
	}, nil
}

// getConversation loads a conversation, mapping missing rows to
// ErrConversationNotFound.
func getConversation(db *gorm.DB, id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := db.Where("id = ?", id).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("assignment: conversation %s: %w", id, ErrConversationNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("assignment: load conversation %s: %w", id, err)
	}
	return &conv, nil
}

// getEligibleAgent loads an agent and checks it can own conversations in
// the tenant: it must exist there and be active.
func getEligibleAgent(db *gorm.DB, id, tenantID string) (*models.Agent, error) {
	var agent models.Agent
	err := db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&agent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("assignment: agent %s in tenant %s: %w", id, tenantID, ErrAgentNotEligible)
	}
	if err != nil {
		return nil, fmt.Errorf("assignment: load agent %s: %w", id, err)
	}
	if !agent.Active {
		return nil, fmt.Errorf("assignment: agent %s is inactive: %w", id, ErrAgentNotEligible)
	}
	return &agent, nil
}

// casOwner performs the atomic conditional ownership write: the update only
// applies while the conversation still has the expected owner. Returns false
// when a concurrent request changed ownership first.
func casOwner(tx *gorm.DB, convID string, expected *string, updates map[string]interface{}) (bool, error) {
	q := tx.Model(&models.Conversation{}).Where("id = ?", convID)
	if expected == nil || *expected == "" {
		q = q.Where("agent_id IS NULL OR agent_id = ''")
	} else {
		q = q.Where("agent_id = ?", *expected)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("assignment: update owner of %s: %w", convID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// appendSystemMessage documents a lifecycle event in the transcript.
func appendSystemMessage(tx *gorm.DB, conv *models.Conversation, actorID, body string, at time.Time) error {
	msg := models.Message{
		ConversationID: conv.ID,
		TenantID:       conv.TenantID,
		AgentID:        actorID,
		Direction:      models.DirectionSystem,
		Body:           body,
		CreatedAt:      at,
	}
	if err := tx.Create(&msg).Error; err != nil {
		return fmt.Errorf("assignment: append system message to %s: %w", conv.ID, err)
	}
	return nil
}

func logConversation(id string) zap.Field { return zap.String("conversation", id) }
func logAgent(id string) zap.Field        { return zap.String("agent", id) }
func logTenant(id string) zap.Field       { return zap.String("tenant", id) }

// broadcast publishes a tenant event plus direct user notifications.
// Best-effort: failures are logged and never fail the operation.
func (e *Engine) broadcast(ctx context.Context, tenantID, event string, payload any, userIDs ...string) {
	if err := e.broadcaster.PublishToTenant(ctx, tenantID, event, payload); err != nil {
		e.log.Warn("tenant broadcast failed",
			zap.String("tenant", tenantID),
			zap.String("event", event),
			zap.Error(err))
	}
	for _, uid := range userIDs {
		if uid == "" {
			continue
		}
		if err := e.broadcaster.PublishToUser(ctx, uid, event, payload); err != nil {
			e.log.Warn("user notification failed",
				zap.String("user", uid),
				zap.String("event", event),
				zap.Error(err))
		}
	}
}
