package models

import "time"

// Message directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
	DirectionSystem   = "system"
)

// Message is one transcript entry in a conversation. Inbound messages come
// from the contact, outbound from an agent; system messages document
// lifecycle events such as transfers.
type Message struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	ConversationID string `gorm:"size:32;not null;index"`
	TenantID       string `gorm:"size:32;index"`
	AgentID        string `gorm:"size:32"`
	Direction      string `gorm:"size:8;not null;index"`
	Body           string `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"index"`
}
