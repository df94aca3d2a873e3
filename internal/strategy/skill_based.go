package strategy

import (
	"github.com/trunkline/trunkline/internal/directory"
	"github.com/trunkline/trunkline/internal/models"
	"gorm.io/gorm"
)

// SkillBased prefers agents whose skill tags match the conversation's topic.
// No topic classifier is wired in yet, so the inferred topic is always empty
// and selection degrades to load-balanced over the full eligible set. This
// is a documented placeholder, not an accident; when a classifier exists,
// inferTopics is the seam to replace.
type SkillBased struct{}

var _ Strategy = (*SkillBased)(nil)

// NewSkillBased creates a new skill-based strategy.
func NewSkillBased() *SkillBased {
	return &SkillBased{}
}

// Name returns the algorithm name.
func (sb *SkillBased) Name() string { return models.AlgorithmSkillBased }

// Pick selects the least-loaded agent among those matching the
// conversation's topic, or among all eligible agents when no topic is
// inferred or nobody matches.
func (sb *SkillBased) Pick(_ *gorm.DB, _ string, conv *models.Conversation, eligible []directory.AgentInfo) (*directory.AgentInfo, error) {
	if len(eligible) == 0 {
		return nil, ErrNoAgents
	}

	topics := inferTopics(conv)
	if len(topics) > 0 {
		if matched := matchSkills(eligible, topics); len(matched) > 0 {
			return leastLoaded(matched)
		}
	}
	return leastLoaded(eligible)
}

// inferTopics derives topic tags for a conversation. Placeholder: always nil
// until a topic classifier exists.
func inferTopics(_ *models.Conversation) []string {
	return nil
}

// matchSkills returns the agents holding at least one of the wanted tags.
func matchSkills(eligible []directory.AgentInfo, wanted []string) []directory.AgentInfo {
	want := make(map[string]bool, len(wanted))
	for _, w := range wanted {
		want[w] = true
	}
	var matched []directory.AgentInfo
	for _, a := range eligible {
		for _, s := range a.Skills {
			if want[s] {
				matched = append(matched, a)
				break
			}
		}
	}
	return matched
}
