package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/noteshare/internal/app/store/audit"
	"github.com/dalemusser/noteshare/internal/app/system/auditlog"
	"github.com/dalemusser/noteshare/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "a@example.com")
	logger.Logout(ctx, req, primitive.NewObjectID())
	logger.NoteDeleted(ctx, req, primitive.NewObjectID(), primitive.NewObjectID())
}

func TestValidDestination(t *testing.T) {
	for _, v := range []string{"all", "db", "log", "off", " ALL "} {
		if !auditlog.ValidDestination(v) {
			t.Errorf("ValidDestination(%q) = false", v)
		}
	}
	for _, v := range []string{"", "both", "mongo"} {
		if auditlog.ValidDestination(v) {
			t.Errorf("ValidDestination(%q) = true", v)
		}
	}
}

// A nil store limits these to the zap side.
func TestLogger_Destinations_Zap(t *testing.T) {
	tests := []struct {
		dest    string
		wantZap int
	}{
		{"all", 1},
		{"log", 1},
		{"off", 0},
	}
	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)
			logger := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: tt.dest, Content: tt.dest})
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger.Logout(ctx, httptest.NewRequest("POST", "/api/auth/logout", nil), primitive.NewObjectID())
			if logs.Len() != tt.wantZap {
				t.Fatalf("zap entries: got %d, want %d", logs.Len(), tt.wantZap)
			}
			if tt.wantZap > 0 {
				fields := logs.All()[0].ContextMap()
				if fields["event_type"] != audit.EventLogout || fields["audit"] != true {
					t.Errorf("unexpected fields: %v", fields)
				}
			}
		})
	}
}

func TestLogger_FailedEventsLogAtWarn(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: "log"})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger.LoginFailedWrongPassword(ctx, httptest.NewRequest("POST", "/", nil), "a@example.com")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("level: got %v, want warn", entries[0].Level)
	}
	if entries[0].ContextMap()["failure_reason"] != "wrong password" {
		t.Errorf("fields: %v", entries[0].ContextMap())
	}
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", Content: "off"})
	userID := primitive.NewObjectID()
	logger.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: &userID, Success: true})
	logger.Log(ctx, audit.Event{Category: audit.CategoryContent, EventType: audit.EventNoteCreated, UserID: &userID, Success: true})

	n, err := store.Count(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no events when config is 'off', got %d", n)
	}
}

func TestLogger_Log_PerCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db", Content: "log"})
	userID := primitive.NewObjectID()
	req := httptest.NewRequest("POST", "/", nil)

	logger.UserRegistered(ctx, req, userID, "alice")
	logger.NoteCreated(ctx, req, userID, primitive.NewObjectID(), "Calculus")

	auth, _ := store.Count(ctx, audit.QueryFilter{Category: audit.CategoryAuth})
	content, _ := store.Count(ctx, audit.QueryFilter{Category: audit.CategoryContent})
	if auth != 1 || content != 0 {
		t.Errorf("stored auth=%d content=%d, want 1 and 0", auth, content)
	}
}

func TestLogger_LoginSuccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db"})

	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	req.Header.Set("User-Agent", "TestBrowser/1.0")

	logger.LoginSuccess(ctx, req, userID, "a@example.com")

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.EventType != audit.EventLoginSuccess || !e.Success {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.IP != "192.168.1.1" {
		t.Errorf("IP: got %q, want 192.168.1.1", e.IP)
	}
	if e.UserAgent != "TestBrowser/1.0" {
		t.Errorf("UserAgent: got %q", e.UserAgent)
	}
	if e.Details["email"] != "a@example.com" {
		t.Errorf("Details: got %v", e.Details)
	}
}

func TestLogger_LoginFailures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db"})
	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.7, 10.0.0.1")

	logger.LoginFailedUserNotFound(ctx, req, "nobody@example.com")
	logger.LoginFailedWrongPassword(ctx, req, "a@example.com")
	logger.LoginFailedRateLimit(ctx, req)

	events, err := store.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	reasons := map[string]string{}
	for _, e := range events {
		if e.Success {
			t.Errorf("expected failure: %+v", e)
		}
		if e.IP != "10.0.0.7" {
			t.Errorf("IP: got %q, want first forwarded address", e.IP)
		}
		reasons[e.EventType] = e.FailureReason
	}
	want := map[string]string{
		audit.EventLoginFailedUserNotFound:  "user not found",
		audit.EventLoginFailedWrongPassword: "wrong password",
		audit.EventLoginFailedRateLimit:     "rate limit exceeded",
	}
	for k, v := range want {
		if reasons[k] != v {
			t.Errorf("%s: got %q, want %q", k, reasons[k], v)
		}
	}
}

func TestLogger_NoteEvents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Content: "all"})
	userID := primitive.NewObjectID()
	noteID := primitive.NewObjectID()
	req := httptest.NewRequest("POST", "/", nil)

	logger.NoteCreated(ctx, req, userID, noteID, "Calculus")
	logger.NoteUpdated(ctx, req, userID, noteID, "Calculus II")
	logger.NoteDeleted(ctx, req, userID, noteID)

	events, err := store.GetByNote(ctx, noteID, 10)
	if err != nil {
		t.Fatalf("GetByNote failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	seen := map[string]bool{}
	for _, e := range events {
		seen[e.EventType] = true
		if e.UserID == nil || *e.UserID != userID {
			t.Errorf("UserID not recorded: %+v", e)
		}
	}
	for _, et := range []string{audit.EventNoteCreated, audit.EventNoteUpdated, audit.EventNoteDeleted} {
		if !seen[et] {
			t.Errorf("missing %s", et)
		}
	}
}
