package models

import "time"

// Conversation lifecycle statuses.
const (
	ConversationActive      = "active"
	ConversationTransferred = "transferred"
	ConversationCompleted   = "completed"
)

// Conversation priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Conversation is a contact's message thread on one channel connection.
// AgentID is nil while the conversation is unassigned; the assignment
// engine is the only writer of the ownership fields.
type Conversation struct {
	ID                  string  `gorm:"primaryKey;size:32"`
	TenantID            string  `gorm:"size:32;not null;index"`
	ContactID           string  `gorm:"size:32;not null;index"`
	ChannelConnectionID string  `gorm:"size:32;not null"`
	AgentID             *string `gorm:"size:32;index"`
	Status              string  `gorm:"size:16;default:active;index"`
	Priority            string  `gorm:"size:8;default:medium"`
	UnreadCount         int     `gorm:"default:0"`
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Messages []Message `gorm:"foreignKey:ConversationID"`
}

// Assigned reports whether the conversation currently has an owner.
func (c *Conversation) Assigned() bool {
	return c.AgentID != nil && *c.AgentID != ""
}
