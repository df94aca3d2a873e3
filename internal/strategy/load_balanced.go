package strategy

import (
	"github.com/trunkline/trunkline/internal/directory"
	"github.com/trunkline/trunkline/internal/models"
	"gorm.io/gorm"
)

// LoadBalanced picks the agent with the strictly lowest workload. Ties are
// broken by the first agent encountered in input order, which the directory
// keeps stable (sorted by agent ID).
type LoadBalanced struct{}

var _ Strategy = (*LoadBalanced)(nil)

// NewLoadBalanced creates a new load-balanced strategy.
func NewLoadBalanced() *LoadBalanced {
	return &LoadBalanced{}
}

// Name returns the algorithm name.
func (lb *LoadBalanced) Name() string { return models.AlgorithmLoadBalanced }

// Pick selects the least-loaded agent from eligible.
func (lb *LoadBalanced) Pick(_ *gorm.DB, _ string, _ *models.Conversation, eligible []directory.AgentInfo) (*directory.AgentInfo, error) {
	return leastLoaded(eligible)
}

// leastLoaded returns the first agent with the minimum workload.
func leastLoaded(eligible []directory.AgentInfo) (*directory.AgentInfo, error) {
	if len(eligible) == 0 {
		return nil, ErrNoAgents
	}
	best := 0
	for i := 1; i < len(eligible); i++ {
		if eligible[i].Workload < eligible[best].Workload {
			best = i
		}
	}
	return &eligible[best], nil
}
