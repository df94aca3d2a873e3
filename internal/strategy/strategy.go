package strategy

import (
	"github.com/trunkline/trunkline/internal/directory"
	"github.com/trunkline/trunkline/internal/models"
	"gorm.io/gorm"
)

// Strategy picks one agent from an eligible set. Pick runs inside the
// assignment transaction; strategies that keep shared state (the round-robin
// cursor) mutate it through tx so selection and ownership commit together.
type Strategy interface {
	// Name returns the algorithm name recorded on assignment records.
	Name() string

	// Pick selects one agent from eligible. It returns ErrNoAgents when
	// the set is empty and must not return an agent outside the set.
	Pick(tx *gorm.DB, tenantID string, conv *models.Conversation, eligible []directory.AgentInfo) (*directory.AgentInfo, error)
}

// ForAlgorithm maps a configured algorithm name to its strategy. Unknown
// names fall back to load-balanced, matching the tenant settings default.
func ForAlgorithm(name string) Strategy {
	switch name {
	case models.AlgorithmRoundRobin:
		return NewRoundRobin()
	case models.AlgorithmSkillBased:
		return NewSkillBased()
	case models.AlgorithmPriorityBased:
		return NewPriorityBased()
	default:
		return NewLoadBalanced()
	}
}
