package assignment

import (
	"context"
	"errors"
	"fmt"

	"github.com/trunkline/trunkline/internal/directory"
	"github.com/trunkline/trunkline/internal/events"
	"github.com/trunkline/trunkline/internal/metrics"
	"github.com/trunkline/trunkline/internal/models"
	"github.com/trunkline/trunkline/internal/settings"
	"github.com/trunkline/trunkline/internal/strategy"
	"github.com/trunkline/trunkline/internal/workload"
	"gorm.io/gorm"
)

// AssignManual assigns a conversation to an explicitly chosen agent. The
// agent must exist, be active and belong to the conversation's tenant.
// If ownership changed under a concurrent request the call fails with
// ErrAlreadyAssigned and nothing is overwritten.
func (e *Engine) AssignManual(ctx context.Context, conversationID, agentID, assignedBy string) (*Record, error) {
	start := e.now()
	if conversationID == "" {
		return nil, fmt.Errorf("assignment: conversationID is required")
	}
	if agentID == "" {
		return nil, fmt.Errorf("assignment: agentID is required")
	}
	if assignedBy == "" {
		return nil, fmt.Errorf("assignment: assignedBy is required")
	}

	db := e.db.WithContext(ctx)
	conv, err := getConversation(db, conversationID)
	if err != nil {
		return nil, err
	}
	agent, err := getEligibleAgent(db, agentID, conv.TenantID)
	if err != nil {
		return nil, err
	}

	ok, err := casOwner(db, conv.ID, conv.AgentID, map[string]interface{}{
		"agent_id": agent.ID,
		"status":   models.ConversationActive,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.RecordAssignment(MethodManual, "conflict", e.now().Sub(start))
		return nil, fmt.Errorf("assignment: conversation %s: %w", conv.ID, ErrAlreadyAssigned)
	}

	record := &Record{
		ConversationID: conv.ID,
		AgentID:        agent.ID,
		AssignedAt:     e.now(),
		AssignedBy:     assignedBy,
		Method:         MethodManual,
		Status:         models.ConversationActive,
		Priority:       conv.Priority,
	}

	e.log.Info("conversation assigned",
		logConversation(conv.ID), logAgent(agent.ID), logTenant(conv.TenantID))
	e.broadcast(ctx, conv.TenantID, events.ConversationAssigned, events.AssignmentPayload{
		ConversationID: conv.ID,
		TenantID:       conv.TenantID,
		AgentID:        agent.ID,
		AssignedBy:     assignedBy,
		Method:         MethodManual,
		Priority:       conv.Priority,
		OccurredAt:     record.AssignedAt,
	}, agent.ID)
	metrics.RecordAssignment(MethodManual, "assigned", e.now().Sub(start))
	return record, nil
}

// AssignAutomatic selects an agent with the tenant's configured algorithm
// and assigns the conversation to it. Non-assignment outcomes (auto-assign
// disabled, no agent available, already assigned) are normal results, not
// errors; callers queue, retry or accept them. Retrying on an already
// assigned conversation never reassigns it.
func (e *Engine) AssignAutomatic(ctx context.Context, conversationID, tenantID, priority string) (*Result, error) {
	start := e.now()
	if conversationID == "" {
		return nil, fmt.Errorf("assignment: conversationID is required")
	}
	if tenantID == "" {
		return nil, fmt.Errorf("assignment: tenantID is required")
	}
	if priority == "" {
		priority = models.PriorityMedium
	}

	db := e.db.WithContext(ctx)
	conv, err := getConversation(db, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.TenantID != tenantID {
		return nil, fmt.Errorf("assignment: conversation %s in tenant %s: %w", conversationID, tenantID, ErrConversationNotFound)
	}
	if conv.Assigned() {
		metrics.RecordAssignment("auto", string(OutcomeAlreadyAssigned), e.now().Sub(start))
		return &Result{Outcome: OutcomeAlreadyAssigned}, nil
	}

	cfg := settings.Get(db, tenantID)
	if !cfg.AutoAssignmentEnabled {
		metrics.RecordAssignment("auto", string(OutcomeAutoAssignDisabled), e.now().Sub(start))
		return &Result{Outcome: OutcomeAutoAssignDisabled}, nil
	}

	eligible, err := e.eligibleForAutoAssign(db, tenantID, cfg)
	if err != nil {
		return nil, err
	}
	metrics.RecordEligibleSet(len(eligible))
	if len(eligible) == 0 {
		metrics.RecordAssignment("auto", string(OutcomeNoAgentAvailable), e.now().Sub(start))
		return &Result{Outcome: OutcomeNoAgentAvailable}, nil
	}

	sel := strategy.ForAlgorithm(cfg.Algorithm)
	conv.Priority = priority

	var picked *directory.AgentInfo
	err = db.Transaction(func(tx *gorm.DB) error {
		// Selection runs inside the transaction so strategy state (the
		// round-robin cursor) commits together with the ownership write,
		// and a lost race rolls the cursor back instead of burning a slot.
		picked, err = sel.Pick(tx, tenantID, conv, eligible)
		if err != nil {
			return fmt.Errorf("assignment: select agent for %s: %w", conv.ID, err)
		}
		won, err := casOwner(tx, conv.ID, nil, map[string]interface{}{
			"agent_id": picked.ID,
			"status":   models.ConversationActive,
			"priority": priority,
		})
		if err != nil {
			return err
		}
		if !won {
			return errOwnershipRace
		}
		return nil
	})
	if errors.Is(err, errOwnershipRace) {
		// A concurrent request assigned it first. Exactly one wins.
		metrics.RecordAssignment(sel.Name(), string(OutcomeAlreadyAssigned), e.now().Sub(start))
		return &Result{Outcome: OutcomeAlreadyAssigned}, nil
	}
	if err != nil {
		return nil, err
	}

	record := &Record{
		ConversationID: conv.ID,
		AgentID:        picked.ID,
		AssignedAt:     e.now(),
		AssignedBy:     AssignedByAuto,
		Method:         sel.Name(),
		Status:         models.ConversationActive,
		Priority:       priority,
	}

	e.log.Info("conversation auto-assigned",
		logConversation(conv.ID), logAgent(picked.ID), logTenant(tenantID))
	e.broadcast(ctx, tenantID, events.ConversationAssigned, events.AssignmentPayload{
		ConversationID: conv.ID,
		TenantID:       tenantID,
		AgentID:        picked.ID,
		AssignedBy:     AssignedByAuto,
		Method:         sel.Name(),
		Priority:       priority,
		OccurredAt:     record.AssignedAt,
	}, picked.ID)
	metrics.RecordAssignment(sel.Name(), string(OutcomeAssigned), e.now().Sub(start))
	return &Result{Outcome: OutcomeAssigned, Record: record}, nil
}

// eligibleForAutoAssign builds the candidate set: available agents under
// capacity, within working hours when the tenant enforces them.
func (e *Engine) eligibleForAutoAssign(db *gorm.DB, tenantID string, cfg settings.Config) ([]directory.AgentInfo, error) {
	now := e.now()
	infos, err := directory.ListEligibleAgents(db, tenantID, now)
	if err != nil {
		return nil, err
	}
	directory.Annotate(infos, cfg.MaxConversationsPerAgent, now)

	var eligible []directory.AgentInfo
	for _, a := range infos {
		if a.Status != models.AgentAvailable {
			continue
		}
		if a.Workload >= 100 {
			continue
		}
		if cfg.RespectWorkingHours && !workload.InWorkingHours(a.WorkingDays, a.WorkStart, a.WorkEnd, now) {
			continue
		}
		eligible = append(eligible, a)
	}
	return eligible, nil
}
