// Package directory resolves the agents eligible for assignment in a tenant
// and snapshots their live workload attributes.
package directory

import (
	"fmt"
	"time"

	"github.com/trunkline/trunkline/internal/models"
	"github.com/trunkline/trunkline/internal/workload"
	"gorm.io/gorm"
)

// DefaultResponseTime is assumed for agents with no recorded response pairs
// in the rolling window.
const DefaultResponseTime = 15 * time.Minute

// responseWindow is the rolling window for response-time statistics.
const responseWindow = 24 * time.Hour

// AgentInfo is an immutable snapshot of one agent at listing time. Workload
// and Availability are zero until Annotate is applied with tenant policy.
type AgentInfo struct {
	ID       string
	TenantID string
	Name     string
	Email    string
	Role     string
	Status   string
	LastSeen *time.Time

	ActiveConversations int
	AvgResponseTime     time.Duration
	Availability        int
	Workload            int

	Skills      []string
	WorkingDays []time.Weekday
	WorkStart   string
	WorkEnd     string
}

// ListEligibleAgents returns snapshots of every active, role-qualified agent
// in the tenant. No qualifying agents is a normal result (empty slice, nil
// error); only store failures return an error. now anchors the rolling
// response-time window.
func ListEligibleAgents(db *gorm.DB, tenantID string, now time.Time) ([]AgentInfo, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("directory: tenantID is required")
	}

	var agents []models.Agent
	err := db.Where("tenant_id = ? AND active = ?", tenantID, true).
		Where("role IN ?", []string{models.RoleAgent, models.RoleAdmin, models.RoleManager}).
		Order("id ASC").
		Find(&agents).Error
	if err != nil {
		return nil, fmt.Errorf("directory: list agents for %s: %w", tenantID, err)
	}
	if len(agents) == 0 {
		return []AgentInfo{}, nil
	}

	counts, err := ownedCounts(db, tenantID)
	if err != nil {
		return nil, err
	}
	responses, err := responseTimes(db, tenantID, now.Add(-responseWindow))
	if err != nil {
		return nil, err
	}

	infos := make([]AgentInfo, 0, len(agents))
	for _, a := range agents {
		avg, ok := responses[a.ID]
		if !ok {
			avg = DefaultResponseTime
		}
		infos = append(infos, AgentInfo{
			ID:                  a.ID,
			TenantID:            a.TenantID,
			Name:                a.Name,
			Email:               a.Email,
			Role:                a.Role,
			Status:              a.Status,
			LastSeen:            a.LastSeen,
			ActiveConversations: counts[a.ID],
			AvgResponseTime:     avg,
			Skills:              a.SkillTags(),
			WorkingDays:         a.WorkingWeekdays(),
			WorkStart:           a.WorkStart,
			WorkEnd:             a.WorkEnd,
		})
	}
	return infos, nil
}

// Annotate fills Availability and Workload on each snapshot using the
// tenant's per-agent capacity. Returns the same slice for chaining.
func Annotate(infos []AgentInfo, maxCapacity int, now time.Time) []AgentInfo {
	for i := range infos {
		infos[i].Availability = workload.Availability(infos[i].Status, infos[i].LastSeen, now)
		infos[i].Workload = workload.Workload(infos[i].ActiveConversations, maxCapacity)
	}
	return infos
}

// ownedCounts reconciles per-agent owned conversation counts against the
// store. Both active and transferred conversations still occupy their owner;
// only completed ones drop out. Counts are never served from a cache:
// assignment decisions read them fresh.
func ownedCounts(db *gorm.DB, tenantID string) (map[string]int, error) {
	type row struct {
		AgentID string
		N       int
	}
	var rows []row
	err := db.Model(&models.Conversation{}).
		Select("agent_id AS agent_id, COUNT(*) AS n").
		Where("tenant_id = ? AND status IN ? AND agent_id IS NOT NULL AND agent_id != ''",
			tenantID, []string{models.ConversationActive, models.ConversationTransferred}).
		Group("agent_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("directory: count owned conversations for %s: %w", tenantID, err)
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.AgentID] = r.N
	}
	return counts, nil
}

// responseTimes computes each agent's average response time over messages
// created after since. A response pair is an inbound message followed
// immediately by an outbound one in the same conversation; the pair is
// credited to the responding agent.
func responseTimes(db *gorm.DB, tenantID string, since time.Time) (map[string]time.Duration, error) {
	var msgs []models.Message
	err := db.Where("tenant_id = ? AND created_at > ? AND direction IN ?",
		tenantID, since, []string{models.DirectionInbound, models.DirectionOutbound}).
		Order("conversation_id ASC, created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("directory: load messages for %s: %w", tenantID, err)
	}

	totals := make(map[string]time.Duration)
	pairs := make(map[string]int)
	for i := 1; i < len(msgs); i++ {
		prev, cur := msgs[i-1], msgs[i]
		if prev.ConversationID != cur.ConversationID {
			continue
		}
		if prev.Direction != models.DirectionInbound || cur.Direction != models.DirectionOutbound {
			continue
		}
		if cur.AgentID == "" {
			continue
		}
		totals[cur.AgentID] += cur.CreatedAt.Sub(prev.CreatedAt)
		pairs[cur.AgentID]++
	}

	avgs := make(map[string]time.Duration, len(totals))
	for id, total := range totals {
		avgs[id] = total / time.Duration(pairs[id])
	}
	return avgs, nil
}
