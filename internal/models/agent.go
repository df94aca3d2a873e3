package models

import (
	"encoding/json"
	"time"
)

// Agent presence statuses.
const (
	AgentAvailable = "available"
	AgentBusy      = "busy"
	AgentAway      = "away"
	AgentOffline   = "offline"
)

// Agent roles that can own conversations.
const (
	RoleAgent   = "agent"
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

// Agent is a human operator who can own conversations within a tenant.
type Agent struct {
	ID       string     `gorm:"primaryKey;size:32"`
	TenantID string     `gorm:"size:32;not null;index"`
	Name     string     `gorm:"size:128;not null"`
	Email    string     `gorm:"size:128"`
	Role     string     `gorm:"size:16;default:agent"`
	Active   bool       `gorm:"default:true;index"`
	Status   string     `gorm:"size:16;default:offline"`
	IsOnline bool       `gorm:"default:false"`
	LastSeen *time.Time

	// Skills and WorkingDays are JSON-encoded string and weekday lists.
	Skills      string `gorm:"type:json"`
	WorkingDays string `gorm:"type:json"`
	WorkStart   string `gorm:"size:5;default:09:00"`
	WorkEnd     string `gorm:"size:5;default:17:00"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SkillTags decodes the agent's skill list. Malformed or empty JSON
// yields nil.
func (a *Agent) SkillTags() []string {
	if a.Skills == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(a.Skills), &tags); err != nil {
		return nil
	}
	return tags
}

// WorkingWeekdays decodes the agent's working-day list (0=Sunday..6=Saturday).
// Malformed or empty JSON yields nil.
func (a *Agent) WorkingWeekdays() []time.Weekday {
	if a.WorkingDays == "" {
		return nil
	}
	var days []int
	if err := json.Unmarshal([]byte(a.WorkingDays), &days); err != nil {
		return nil
	}
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, time.Weekday(d))
	}
	return out
}
