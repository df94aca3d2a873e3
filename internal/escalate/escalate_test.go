package escalate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/trunkline/trunkline/internal/assignment"
	"github.com/trunkline/trunkline/internal/events"
	"github.com/trunkline/trunkline/internal/models"
	"github.com/trunkline/trunkline/internal/notify"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Conversation{},
		&models.Agent{},
		&models.Message{},
		&models.AssignmentSettings{},
		&models.RotationCursor{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

// mockNotifier records escalation alerts.
type mockNotifier struct {
	mu     sync.Mutex
	alerts []notify.Alert
}

func (m *mockNotifier) EscalationAlert(_ context.Context, a notify.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, a)
	return nil
}

func (m *mockNotifier) Alerts() []notify.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notify.Alert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

func newTestSweeper(t *testing.T, db *gorm.DB) (*Sweeper, *events.Mock, *mockNotifier) {
	t.Helper()
	mock := events.NewMock()
	eng, err := assignment.New(assignment.Opts{
		DB:          db,
		Broadcaster: mock,
		Clock:       func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	notifier := &mockNotifier{}
	sw, err := New(Opts{
		DB:          db,
		Engine:      eng,
		Broadcaster: mock,
		Notifier:    notifier,
		Clock:       func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}
	return sw, mock, notifier
}

func seedAgent(t *testing.T, db *gorm.DB, a models.Agent) {
	t.Helper()
	if a.Role == "" {
		a.Role = models.RoleAgent
	}
	if a.Status == "" {
		a.Status = models.AgentAvailable
	}
	if a.LastSeen == nil {
		seen := testNow.Add(-time.Minute)
		a.LastSeen = &seen
	}
	if a.WorkingDays == "" {
		a.WorkingDays = "[0,1,2,3,4,5,6]"
	}
	if a.WorkStart == "" {
		a.WorkStart = "00:00"
	}
	if a.WorkEnd == "" {
		a.WorkEnd = "23:59"
	}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("seed agent %s: %v", a.ID, err)
	}
	// Column defaults swallow explicit false on insert; force the stored
	// values to match the fixture.
	err := db.Model(&models.Agent{}).Where("id = ?", a.ID).
		Update("active", true).Error
	if err != nil {
		t.Fatalf("force agent active %s: %v", a.ID, err)
	}
}

func seedConversation(t *testing.T, db *gorm.DB, c models.Conversation, age time.Duration) {
	t.Helper()
	if c.ContactID == "" {
		c.ContactID = "contact-1"
	}
	if c.ChannelConnectionID == "" {
		c.ChannelConnectionID = "chan-1"
	}
	if c.Status == "" {
		c.Status = models.ConversationActive
	}
	c.CreatedAt = testNow.Add(-age)
	c.UpdatedAt = c.CreatedAt
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed conversation %s: %v", c.ID, err)
	}
}

func seedEscalationSettings(t *testing.T, db *gorm.DB, row models.AssignmentSettings) {
	t.Helper()
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed settings: %v", err)
	}
	err := db.Model(&models.AssignmentSettings{}).Where("tenant_id = ?", row.TenantID).
		Updates(map[string]interface{}{
			"auto_assignment_enabled": row.AutoAssignmentEnabled,
			"respect_working_hours":   row.RespectWorkingHours,
			"escalation_enabled":      row.EscalationEnabled,
		}).Error
	if err != nil {
		t.Fatalf("force settings: %v", err)
	}
}

func owner(t *testing.T, db *gorm.DB, convID string) string {
	t.Helper()
	var conv models.Conversation
	if err := db.First(&conv, "id = ?", convID).Error; err != nil {
		t.Fatalf("load conversation %s: %v", convID, err)
	}
	if conv.AgentID == nil {
		return ""
	}
	return *conv.AgentID
}

func TestSweep_EscalatesOverdueConversation(t *testing.T) {
	db := openTestDB(t)
	sw, mock, notifier := newTestSweeper(t, db)

	seedAgent(t, db, models.Agent{ID: "mgr-1", TenantID: "t1", Name: "Mia", Role: models.RoleManager})
	seedAgent(t, db, models.Agent{ID: "ag-1", TenantID: "t1", Name: "Al"})
	// Default policy: 30 minute timeout, escalate to manager.
	seedConversation(t, db, models.Conversation{ID: "c1", TenantID: "t1"}, 45*time.Minute)

	n, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("escalated = %d, want 1", n)
	}
	if got := owner(t, db, "c1"); got != "mgr-1" {
		t.Errorf("owner = %q, want mgr-1", got)
	}

	escalations := mock.ByEvent(events.ConversationEscalated)
	if len(escalations) != 1 {
		t.Fatalf("conversationEscalated events = %d, want 1", len(escalations))
	}
	payload, ok := escalations[0].Payload.(events.AssignmentPayload)
	if !ok {
		t.Fatalf("payload type = %T", escalations[0].Payload)
	}
	if payload.AgentID != "mgr-1" || payload.AssignedBy != assignedByEscalation {
		t.Errorf("payload = %+v", payload)
	}

	alerts := notifier.Alerts()
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
	if alerts[0].ConversationID != "c1" || alerts[0].AgentID != "mgr-1" {
		t.Errorf("alert = %+v", alerts[0])
	}
	if alerts[0].Waited != 45*time.Minute {
		t.Errorf("alert waited = %v, want 45m", alerts[0].Waited)
	}
}

func TestSweep_LeavesFreshConversations(t *testing.T) {
	db := openTestDB(t)
	sw, _, notifier := newTestSweeper(t, db)

	seedAgent(t, db, models.Agent{ID: "mgr-1", TenantID: "t1", Name: "Mia", Role: models.RoleManager})
	seedConversation(t, db, models.Conversation{ID: "c1", TenantID: "t1"}, 10*time.Minute)

	n, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("escalated = %d, want 0", n)
	}
	if got := owner(t, db, "c1"); got != "" {
		t.Errorf("owner = %q, want unassigned", got)
	}
	if len(notifier.Alerts()) != 0 {
		t.Errorf("alerts = %d, want 0", len(notifier.Alerts()))
	}
}

func TestSweep_SkipsDisabledTenant(t *testing.T) {
	db := openTestDB(t)
	sw, _, _ := newTestSweeper(t, db)

	seedAgent(t, db, models.Agent{ID: "mgr-1", TenantID: "t1", Name: "Mia", Role: models.RoleManager})
	seedEscalationSettings(t, db, models.AssignmentSettings{
		TenantID:                 "t1",
		Algorithm:                models.AlgorithmLoadBalanced,
		MaxConversationsPerAgent: 5,
		AutoAssignmentEnabled:    true,
		RespectWorkingHours:      true,
		EscalationEnabled:        false,
		EscalationTimeoutMinutes: 30,
		EscalateTo:               models.RoleManager,
	})
	seedConversation(t, db, models.Conversation{ID: "c1", TenantID: "t1"}, 2*time.Hour)

	n, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("escalated = %d, want 0", n)
	}
	if got := owner(t, db, "c1"); got != "" {
		t.Errorf("owner = %q, want unassigned", got)
	}
}

func TestSweep_NoEscalationTargetIsNotAnError(t *testing.T) {
	db := openTestDB(t)
	sw, _, _ := newTestSweeper(t, db)

	// Only a plain agent; default policy escalates to managers.
	seedAgent(t, db, models.Agent{ID: "ag-1", TenantID: "t1", Name: "Al"})
	seedConversation(t, db, models.Conversation{ID: "c1", TenantID: "t1"}, time.Hour)

	n, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("escalated = %d, want 0", n)
	}
}

func TestSweep_IgnoresAssignedAndClosedConversations(t *testing.T) {
	db := openTestDB(t)
	sw, _, _ := newTestSweeper(t, db)

	seedAgent(t, db, models.Agent{ID: "mgr-1", TenantID: "t1", Name: "Mia", Role: models.RoleManager})
	seedAgent(t, db, models.Agent{ID: "ag-1", TenantID: "t1", Name: "Al"})

	held := "ag-1"
	seedConversation(t, db, models.Conversation{ID: "c-held", TenantID: "t1", AgentID: &held}, 2*time.Hour)
	seedConversation(t, db, models.Conversation{ID: "c-done", TenantID: "t1", Status: models.ConversationCompleted}, 2*time.Hour)

	n, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("escalated = %d, want 0", n)
	}
	if got := owner(t, db, "c-held"); got != "ag-1" {
		t.Errorf("held conversation owner = %q, want ag-1", got)
	}
}

func TestSweep_PicksLeastLoadedEscalationTarget(t *testing.T) {
	db := openTestDB(t)
	sw, _, _ := newTestSweeper(t, db)

	seedAgent(t, db, models.Agent{ID: "mgr-a", TenantID: "t1", Name: "A", Role: models.RoleManager})
	seedAgent(t, db, models.Agent{ID: "mgr-b", TenantID: "t1", Name: "B", Role: models.RoleManager})

	// mgr-a already carries two conversations.
	a := "mgr-a"
	seedConversation(t, db, models.Conversation{ID: "c-a1", TenantID: "t1", AgentID: &a}, 5*time.Minute)
	seedConversation(t, db, models.Conversation{ID: "c-a2", TenantID: "t1", AgentID: &a}, 5*time.Minute)
	seedConversation(t, db, models.Conversation{ID: "c1", TenantID: "t1"}, time.Hour)

	n, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("escalated = %d, want 1", n)
	}
	if got := owner(t, db, "c1"); got != "mgr-b" {
		t.Errorf("owner = %q, want mgr-b", got)
	}
}

func TestSweep_MultipleTenantsIndependently(t *testing.T) {
	db := openTestDB(t)
	sw, _, _ := newTestSweeper(t, db)

	seedAgent(t, db, models.Agent{ID: "mgr-1", TenantID: "t1", Name: "Mia", Role: models.RoleManager})
	seedAgent(t, db, models.Agent{ID: "mgr-2", TenantID: "t2", Name: "Mo", Role: models.RoleManager})

	seedConversation(t, db, models.Conversation{ID: "c1", TenantID: "t1"}, time.Hour)
	seedConversation(t, db, models.Conversation{ID: "c2", TenantID: "t2"}, time.Hour)

	n, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 2 {
		t.Fatalf("escalated = %d, want 2", n)
	}
	if got := owner(t, db, "c1"); got != "mgr-1" {
		t.Errorf("t1 owner = %q, want mgr-1", got)
	}
	if got := owner(t, db, "c2"); got != "mgr-2" {
		t.Errorf("t2 owner = %q, want mgr-2", got)
	}
}
