// Package escalate reassigns conversations that have waited too long.
package escalate

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/trunkline/trunkline/internal/assignment"
	"github.com/trunkline/trunkline/internal/directory"
	"github.com/trunkline/trunkline/internal/events"
	"github.com/trunkline/trunkline/internal/metrics"
	"github.com/trunkline/trunkline/internal/models"
	"github.com/trunkline/trunkline/internal/notify"
	"github.com/trunkline/trunkline/internal/settings"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// assignedByEscalation marks assignments made by the sweeper.
const assignedByEscalation = "escalation"

// Sweeper periodically finds active conversations that stayed unassigned
// longer than the tenant's escalation timeout and hands them to an agent
// holding the tenant's escalation role.
type Sweeper struct {
	db          *gorm.DB
	engine      *assignment.Engine
	broadcaster events.Broadcaster
	notifier    notify.Notifier
	log         *zap.Logger
	now         func() time.Time
}

// Opts holds constructor parameters for the Sweeper.
type Opts struct {
	DB     *gorm.DB
	Engine *assignment.Engine
	Logger *zap.Logger

	// Broadcaster, when set, receives a conversationEscalated event per
	// escalation on top of the engine's own assignment events.
	Broadcaster events.Broadcaster

	// Notifier, when set, receives an alert per escalated conversation.
	Notifier notify.Notifier

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// New creates an escalation sweeper.
func New(opts Opts) (*Sweeper, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("escalate: db is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("escalate: engine is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Sweeper{
		db:          opts.DB,
		engine:      opts.Engine,
		broadcaster: opts.Broadcaster,
		notifier:    opts.Notifier,
		log:         opts.Logger,
		now:         opts.Clock,
	}, nil
}

// Run executes Sweep on the given cron schedule until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		n, err := s.Sweep(ctx)
		if err != nil {
			s.log.Warn("escalation sweep failed", zap.Error(err))
			return
		}
		if n > 0 {
			s.log.Info("escalation sweep", zap.Int("escalated", n))
		}
	})
	if err != nil {
		return fmt.Errorf("escalate: schedule %q: %w", schedule, err)
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Sweep escalates overdue unassigned conversations across all tenants and
// returns how many were escalated. Per-conversation failures are logged and
// skipped so one stuck tenant cannot stall the rest.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	tenants, err := s.tenantsWithBacklog()
	if err != nil {
		return 0, err
	}

	escalated := 0
	for _, tenantID := range tenants {
		cfg := settings.Get(s.db, tenantID)
		if !cfg.Escalation.Enabled {
			continue
		}
		overdue, err := s.overdueConversations(tenantID, cfg.Escalation.Timeout)
		if err != nil {
			s.log.Warn("skip tenant", logTenant(tenantID), zap.Error(err))
			continue
		}
		for _, conv := range overdue {
			target, err := s.escalationTarget(tenantID, cfg)
			if err != nil {
				s.log.Warn("no escalation target",
					logTenant(tenantID), zap.String("conversation", conv.ID), zap.Error(err))
				break
			}
			if _, err := s.engine.AssignManual(ctx, conv.ID, target, assignedByEscalation); err != nil {
				s.log.Warn("escalation assign failed",
					zap.String("conversation", conv.ID), zap.Error(err))
				continue
			}
			escalated++
			metrics.RecordEscalation()
			s.announce(ctx, conv, target)
			s.alert(ctx, conv, target)
		}
	}
	return escalated, nil
}

// tenantsWithBacklog lists tenants that currently have active unassigned
// conversations.
func (s *Sweeper) tenantsWithBacklog() ([]string, error) {
	var tenants []string
	err := s.db.Model(&models.Conversation{}).
		Where("status = ? AND (agent_id IS NULL OR agent_id = '')", models.ConversationActive).
		Distinct().
		Pluck("tenant_id", &tenants).Error
	if err != nil {
		return nil, fmt.Errorf("escalate: list tenants with backlog: %w", err)
	}
	return tenants, nil
}

// overdueConversations lists the tenant's unassigned conversations older
// than the escalation timeout.
func (s *Sweeper) overdueConversations(tenantID string, timeout time.Duration) ([]models.Conversation, error) {
	cutoff := s.now().Add(-timeout)
	var convs []models.Conversation
	err := s.db.Where("tenant_id = ? AND status = ? AND (agent_id IS NULL OR agent_id = '')",
		tenantID, models.ConversationActive).
		Where("created_at <= ?", cutoff).
		Order("created_at ASC").
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("escalate: list overdue conversations for %s: %w", tenantID, err)
	}
	return convs, nil
}

// escalationTarget picks the least-loaded active agent holding the tenant's
// escalation role.
func (s *Sweeper) escalationTarget(tenantID string, cfg settings.Config) (string, error) {
	now := s.now()
	infos, err := directory.ListEligibleAgents(s.db, tenantID, now)
	if err != nil {
		return "", err
	}
	infos = directory.Annotate(infos, cfg.MaxConversationsPerAgent, now)

	best := ""
	bestLoad := 0
	for _, a := range infos {
		if a.Role != cfg.Escalation.EscalateTo {
			continue
		}
		if best == "" || a.Workload < bestLoad {
			best = a.ID
			bestLoad = a.Workload
		}
	}
	if best == "" {
		return "", fmt.Errorf("escalate: tenant %s has no active %s", tenantID, cfg.Escalation.EscalateTo)
	}
	return best, nil
}

// announce publishes the conversationEscalated event. Best-effort.
func (s *Sweeper) announce(ctx context.Context, conv models.Conversation, target string) {
	if s.broadcaster == nil {
		return
	}
	payload := events.AssignmentPayload{
		ConversationID: conv.ID,
		TenantID:       conv.TenantID,
		AgentID:        target,
		AssignedBy:     assignedByEscalation,
		Priority:       conv.Priority,
		OccurredAt:     s.now(),
	}
	if err := s.broadcaster.PublishToTenant(ctx, conv.TenantID, events.ConversationEscalated, payload); err != nil {
		s.log.Warn("escalation event publish failed",
			zap.String("conversation", conv.ID), zap.Error(err))
	}
}

// alert notifies ops about one escalation. Best-effort.
func (s *Sweeper) alert(ctx context.Context, conv models.Conversation, target string) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.EscalationAlert(ctx, notify.Alert{
		TenantID:       conv.TenantID,
		ConversationID: conv.ID,
		AgentID:        target,
		Waited:         s.now().Sub(conv.CreatedAt),
	})
	if err != nil {
		s.log.Warn("escalation alert failed",
			zap.String("conversation", conv.ID), zap.Error(err))
	}
}

func logTenant(id string) zap.Field { return zap.String("tenant", id) }
