package models

import "time"

// Selection algorithms.
const (
	AlgorithmRoundRobin    = "round_robin"
	AlgorithmLoadBalanced  = "load_balanced"
	AlgorithmSkillBased    = "skill_based"
	AlgorithmPriorityBased = "priority_based"
)

// AssignmentSettings stores per-tenant assignment policy. Tenants without a
// row get hard defaults from the settings package.
type AssignmentSettings struct {
	TenantID                 string `gorm:"primaryKey;size:32"`
	Algorithm                string `gorm:"size:16;default:load_balanced"`
	MaxConversationsPerAgent int    `gorm:"default:5"`
	AutoAssignmentEnabled    bool   `gorm:"default:true"`
	RespectWorkingHours      bool   `gorm:"default:true"`
	EscalationEnabled        bool   `gorm:"default:true"`
	EscalationTimeoutMinutes int    `gorm:"default:30"`
	EscalateTo               string `gorm:"size:16;default:manager"`
	UpdatedAt                time.Time
}

// RotationCursor is the per-tenant round-robin position. It is advanced with
// a single locked read-and-increment inside the assignment transaction so
// concurrent selections never reuse an index.
type RotationCursor struct {
	TenantID  string `gorm:"primaryKey;size:32"`
	Position  int64  `gorm:"default:0"`
	UpdatedAt time.Time
}
