package assignment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/trunkline/trunkline/internal/directory"
	"github.com/trunkline/trunkline/internal/events"
	"github.com/trunkline/trunkline/internal/models"
)

func TestTransfer_RecipientWorkloadRises(t *testing.T) {
	db := openTestDB(t)
	eng, _ := newTestEngine(t, db)
	seedAgent(t, db, models.Agent{ID: "a1", TenantID: "t1", Name: "Ana"})
	seedAgent(t, db, models.Agent{ID: "a2", TenantID: "t1", Name: "Ben"})
	seedConversation(t, db, models.Conversation{ID: "c1", TenantID: "t1", AgentID: strPtr("a1")})

	if _, err := eng.Transfer(context.Background(), "c1", "a1", "a2", "load"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	infos, err := directory.ListEligibleAgents(db, "t1", testNow)
	if err != nil {
		t.Fatalf("list agents: %v", err)
	}
	infos = directory.Annotate(infos, 5, testNow)

	byID := map[string]directory.AgentInfo{}
	for _, in := range infos {
		byID[in.ID] = in
	}
	if got := byID["a2"].ActiveConversations; got != 1 {
		t.Errorf("a2 active = %d, want 1 (transferred conversation still occupies its owner)", got)
	}
	if got := byID["a2"].Workload; got != 20 {
		t.Errorf("a2 workload = %d, want 20", got)
	}
	if got := byID["a1"].ActiveConversations; got != 0 {
		t.Errorf("a1 active = %d, want 0 after handing the conversation off", got)
	}
}

func TestTransfer_Success(t *testing.T) {
	db := openTestDB(t)
	eng, mock := newTestEngine(t, db)
	seedAgent(t, db, models.Agent{ID: "a1", TenantID: "t1", Name: "Ana"})
	seedAgent(t, db, models.Agent{ID: "a2", TenantID: "t1", Name: "Ben"})
	seedConversation(t, db, models.Conversation{ID: "c1", TenantID: "t1", AgentID: strPtr("a1")})

	record, err := eng.Transfer(context.Background(), "c1", "a1", "a2", "escalation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if record.AgentID != "a2" || record.AssignedBy != "a1" {
		t.Errorf("record = %+v", record)
	}
	if record.Status != models.ConversationTransferred {
		t.Errorf("record status = %q, want transferred", record.Status)
	}
	if got := owner(t, db, "c1"); got != "a2" {
		t.Errorf("owner = %q, want a2", got)
	}

	msgs := systemMessages(t, db, "c1")
	if len(msgs) != 1 {
		t.Fatalf("got %d system messages, want 1", len(msgs))
	}
	if !strings.Contains(msgs[0].Body, "transferred from a1 to a2") {
		t.Errorf("system message = %q", msgs[0].Body)
	}
	if !strings.Contains(msgs[0].Body, "escalation") {
		t.Errorf("system message should carry the reason, got %q", msgs[0].Body)
	}

	transferred := mock.ByEvent(events.ConversationTransferred)
	if len(transferred) != 3 {
		t.Fatalf("got %d transfer events, want tenant + both agents", len(transferred))
	}
	targets := map[string]bool{}
	for _, ev := range transferred {
		targets[ev.Room+"/"+ev.Target] = true
	}
	for _, want := range []string{"tenant/t1", "user/a1", "user/a2"} {
		if !targets[want] {
			t.Errorf("missing transfer notification to %s", want)
		}
	}
}

func TestTransfer_NotOwner(t *testing.T) {
	db := openTestDB(t)
	eng, _ := newTestEngine(t, db)
	seedAgent(t, db, models.Agent{ID: "a1", TenantID: "t1", Name: "Ana"})
	seedAgent(t, db, models.Agent{ID: "a2", TenantID: "t1", Name: "Ben"})
	seedAgent(t, db, models.Agent{ID: "a3", TenantID: "t1", Name: "Cleo"})
	seedConversation(t, db, models.Conversation{ID: "c1", TenantID: "t1", AgentID: strPtr("a1")})

	_, err := eng.Transfer(context.Background(), "c1", "a2", "a3", "")
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("error = %v, want ErrNotOwner", err)
	}
	if got := owner(t, db, "c1"); got != "a1" {
		t.Errorf("failed transfer must leave ownership unchanged, owner = %q", got)
	}
	if msgs := systemMessages(t, db, "c1"); len(msgs) != 0 {
		t.Errorf("failed transfer must not append a system message, got %d", len(msgs))
	}
}

func TestTransfer_UnassignedConversation(t *testing.T) {
	db := openTestDB(t)
	eng, _ := newTestEngine(t, db)
	seedAgent(t, db, models.Agent{ID: "a1", TenantID: "t1", Name: "Ana"})
	seedAgent(t, db, models.Agent{ID: "a2", TenantID: "t1", Name: "Ben"})
	seedConversation(t, db, models.Conversation{ID: "c1", TenantID: "t1"})

	_, err := eng.Transfer(context.Background(), "c1", "a1", "a2", "")
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("error = %v, want ErrNotOwner", err)
	}
}

func TestTransfer_TargetNotEligible(t *testing.T) {
	db := openTestDB(t)
	eng, _ := newTestEngine(t, db)
	seedAgent(t, db, models.Agent{ID: "a1", TenantID: "t1", Name: "Ana"})
	seedAgent(t, db, models.Agent{ID: "b1", TenantID: "t2", Name: "Stranger"})
	seedConversation(t, db, models.Conversation{ID: "c1", TenantID: "t1", AgentID: strPtr("a1")})

	_, err := eng.Transfer(context.Background(), "c1", "a1", "b1", "")
	if !errors.Is(err, ErrAgentNotEligible) {
		t.Errorf("error = %v, want ErrAgentNotEligible", err)
	}
	if got := owner(t, db, "c1"); got != "a1" {
		t.Errorf("owner = %q, want a1", got)
	}
}

func TestTransfer_ChainedOwnershipMoves(t *testing.T) {
	db := openTestDB(t)
	eng, _ := newTestEngine(t, db)
	seedAgent(t, db, models.Agent{ID: "a1", TenantID: "t1", Name: "Ana"})
	seedAgent(t, db, models.Agent{ID: "a2", TenantID: "t1", Name: "Ben"})
	seedAgent(t, db, models.Agent{ID: "a3", TenantID: "t1", Name: "Cleo"})
	seedConversation(t, db, models.Conversation{ID: "c1", TenantID: "t1", AgentID: strPtr("a1")})

	if _, err := eng.Transfer(context.Background(), "c1", "a1", "a2", "escalation"); err != nil {
		t.Fatalf("first transfer: %v", err)
	}

	// a1 no longer owns the conversation; a second transfer by a1 fails.
	_, err := eng.Transfer(context.Background(), "c1", "a1", "a3", "")
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("error = %v, want ErrNotOwner after ownership moved to a2", err)
	}
	if got := owner(t, db, "c1"); got != "a2" {
		t.Errorf("owner = %q, want a2", got)
	}
}

func TestTransfer_ConversationNotFound(t *testing.T) {
	eng, _ := newTestEngine(t, openTestDB(t))
	_, err := eng.Transfer(context.Background(), "ghost", "a1", "a2", "")
	if !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("error = %v, want ErrConversationNotFound", err)
	}
}
