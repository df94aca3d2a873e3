package strategy

import (
	"github.com/trunkline/trunkline/internal/directory"
	"github.com/trunkline/trunkline/internal/models"
	"gorm.io/gorm"
)

// PriorityBased routes urgent conversations to the most available agent and
// everything else through load-balanced selection. Availability ties go to
// the first agent in input order, which keeps selection deterministic.
type PriorityBased struct{}

var _ Strategy = (*PriorityBased)(nil)

// NewPriorityBased creates a new priority-based strategy.
func NewPriorityBased() *PriorityBased {
	return &PriorityBased{}
}

// Name returns the algorithm name.
func (pb *PriorityBased) Name() string { return models.AlgorithmPriorityBased }

// Pick selects by availability for urgent conversations, by workload
// otherwise.
func (pb *PriorityBased) Pick(_ *gorm.DB, _ string, conv *models.Conversation, eligible []directory.AgentInfo) (*directory.AgentInfo, error) {
	if len(eligible) == 0 {
		return nil, ErrNoAgents
	}
	if conv != nil && conv.Priority == models.PriorityUrgent {
		best := 0
		for i := 1; i < len(eligible); i++ {
			if eligible[i].Availability > eligible[best].Availability {
				best = i
			}
		}
		return &eligible[best], nil
	}
	return leastLoaded(eligible)
}
