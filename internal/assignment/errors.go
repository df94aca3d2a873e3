package assignment

import "errors"

// Sentinel errors surfaced to callers. Store failures are wrapped and
// propagated as-is; the engine never retries them internally.
var (
	// ErrConversationNotFound: the conversation does not exist or belongs
	// to a different tenant.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrAgentNotFound: the agent does not exist in the tenant.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrAgentNotEligible: the agent is inactive, in the wrong tenant, or
	// otherwise unable to own the conversation.
	ErrAgentNotEligible = errors.New("agent not eligible")

	// ErrNotOwner: a transfer or release was attempted by someone other
	// than the current owner. A permission failure, distinct from not-found.
	ErrNotOwner = errors.New("not the conversation owner")

	// ErrAlreadyAssigned: the ownership write lost a race; the conversation
	// was assigned by a concurrent request and was not overwritten.
	ErrAlreadyAssigned = errors.New("conversation already assigned")
)

// errOwnershipRace aborts the auto-assign transaction when the CAS loses,
// rolling back strategy state (the round-robin cursor) claimed inside it.
var errOwnershipRace = errors.New("ownership changed concurrently")
