package assignment

import "time"

// AssignedByAuto marks records produced by automatic assignment.
const AssignedByAuto = "auto"

// Assignment methods recorded on manual operations. Automatic assignments
// record the selecting algorithm's name instead.
const (
	MethodManual = "manual"
)

// Record is the value object returned for every successful assign or
// transfer. It is not persisted as a ledger: the conversation's mutable
// owner field is the source of truth.
type Record struct {
	ConversationID string    `json:"conversation_id"`
	AgentID        string    `json:"agent_id"`
	AssignedAt     time.Time `json:"assigned_at"`
	AssignedBy     string    `json:"assigned_by"`
	Method         string    `json:"method"`
	Status         string    `json:"status"`
	Priority       string    `json:"priority"`
}

// Outcome classifies the result of an automatic assignment attempt.
// Only OutcomeAssigned carries a Record; the others are normal negative
// results, not errors.
type Outcome string

const (
	OutcomeAssigned           Outcome = "assigned"
	OutcomeAutoAssignDisabled Outcome = "auto_assign_disabled"
	OutcomeNoAgentAvailable   Outcome = "no_agent_available"
	OutcomeAlreadyAssigned    Outcome = "already_assigned"
)

// Result is the outcome of AssignAutomatic.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Record  *Record `json:"record,omitempty"`
}
