package assignment

import (
	"testing"
	"time"

	"github.com/trunkline/trunkline/internal/events"
	"github.com/trunkline/trunkline/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testNow is a fixed Wednesday 10:00 UTC so working-hours checks are
// deterministic.
var testNow = time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// The pool must stay on one connection: every pooled connection gets
	// its own private in-memory database.
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

func newTestEngine(t *testing.T, db *gorm.DB) (*Engine, *events.Mock) {
	t.Helper()
	mock := events.NewMock()
	eng, err := New(Opts{
		DB:          db,
		Broadcaster: mock,
		Clock:       func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return eng, mock
}

// seedAgent creates an available, in-hours agent unless fields say otherwise.
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
		a.WorkingDays = `[0,1,2,3,4,5,6]`
	}
	if a.WorkStart == "" {
		a.WorkStart = "00:00"
	}
	if a.WorkEnd == "" {
		a.WorkEnd = "23:59"
	}
	a.Active = true
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("seed agent %s: %v", a.ID, err)
	}
}

func seedConversation(t *testing.T, db *gorm.DB, c models.Conversation) {
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
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed conversation %s: %v", c.ID, err)
	}
}

func seedSettings(t *testing.T, db *gorm.DB, s models.AssignmentSettings) {
	t.Helper()
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("seed settings for %s: %v", s.TenantID, err)
	}
	// Column defaults swallow explicit false on insert; force the stored
	// values to match the fixture.
	if err := db.Model(&models.AssignmentSettings{}).Where("tenant_id = ?", s.TenantID).
		Updates(map[string]interface{}{
			"auto_assignment_enabled": s.AutoAssignmentEnabled,
			"respect_working_hours":   s.RespectWorkingHours,
			"escalation_enabled":      s.EscalationEnabled,
		}).Error; err != nil {
		t.Fatalf("seed settings flags for %s: %v", s.TenantID, err)
	}
}

// seedOwnedConversations gives an agent n active conversations so its
// workload is non-zero.
func seedOwnedConversations(t *testing.T, db *gorm.DB, tenantID, agentID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		id := agentID + "-conv-" + string(rune('0'+i))
		seedConversation(t, db, models.Conversation{ID: id, TenantID: tenantID, AgentID: &agentID})
	}
}

func owner(t *testing.T, db *gorm.DB, convID string) string {
	t.Helper()
	var conv models.Conversation
	if err := db.Where("id = ?", convID).First(&conv).Error; err != nil {
		t.Fatalf("load conversation %s: %v", convID, err)
	}
	if conv.AgentID == nil {
		return ""
	}
	return *conv.AgentID
}

func systemMessages(t *testing.T, db *gorm.DB, convID string) []models.Message {
	t.Helper()
	var msgs []models.Message
	if err := db.Where("conversation_id = ? AND direction = ?", convID, models.DirectionSystem).
		Order("id ASC").Find(&msgs).Error; err != nil {
		t.Fatalf("load system messages: %v", err)
	}
	return msgs
}

func strPtr(s string) *string { return &s }
