// Package events broadcasts assignment lifecycle notifications to connected
// clients. Delivery is best-effort: the engine logs publish failures and
// never rolls back a committed ownership change because of them.
package events

import (
	"context"
	"time"
)

// Event names published by the assignment engine.
const (
	ConversationAssigned    = "conversationAssigned"
	ConversationTransferred = "conversationTransferred"
	ConversationReleased    = "conversationReleased"
	ConversationEscalated   = "conversationEscalated"
	AgentStatusChanged      = "agentStatusChanged"
)

// Broadcaster publishes events to a tenant's room or to a single user.
type Broadcaster interface {
	PublishToTenant(ctx context.Context, tenantID, event string, payload any) error
	PublishToUser(ctx context.Context, userID, event string, payload any) error
	Close() error
}

// Envelope is the wire shape of every published event.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// Meta carries event identity and provenance.
type Meta struct {
	// Unique event ID.
	ID string `json:"id"`
	// Event name, e.g. conversationAssigned.
	Type string `json:"type"`
	// Emitting service.
	Producer string `json:"producer"`
	// Ties related events together; equals ID when the event starts a chain.
	CorrelationID string `json:"correlation_id,omitempty"`
	// Timestamp when the event was emitted.
	Time time.Time `json:"time"`
}

// AssignmentPayload describes an ownership change.
type AssignmentPayload struct {
	ConversationID string    `json:"conversation_id"`
	TenantID       string    `json:"tenant_id"`
	AgentID        string    `json:"agent_id,omitempty"`
	FromAgentID    string    `json:"from_agent_id,omitempty"`
	AssignedBy     string    `json:"assigned_by,omitempty"`
	Method         string    `json:"method,omitempty"`
	Priority       string    `json:"priority,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// StatusPayload describes an agent presence change.
type StatusPayload struct {
	AgentID    string    `json:"agent_id"`
	TenantID   string    `json:"tenant_id"`
	Status     string    `json:"status"`
	IsOnline   bool      `json:"is_online"`
	OccurredAt time.Time `json:"occurred_at"`
}
