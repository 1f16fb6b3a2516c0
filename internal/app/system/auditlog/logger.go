// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/noteshare/internal/app/store/audit"
	"github.com/dalemusser/noteshare/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination values for Config fields.
const (
	DestAll = "all" // MongoDB + zap
	DestDB  = "db"  // MongoDB only
	DestLog = "log" // zap only
	DestOff = "off" // disabled
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls register, login and logout events.
	Auth string
	// Content controls note create, update and delete events.
	Content string
}

// ValidDestination reports whether v is a recognized destination.
func ValidDestination(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case DestAll, DestDB, DestLog, DestOff:
		return true
	}
	return false
}

// Logger writes audit events to MongoDB and/or zap according to Config.
// A nil *Logger is a no-op.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.NoteID != nil {
		fields = append(fields, zap.String("note_id", event.NoteID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) destination(category string) string {
	var setting string
	switch category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryContent:
		setting = l.config.Content
	}
	setting = strings.ToLower(strings.TrimSpace(setting))
	if setting == "" {
		return DestAll
	}
	return setting
}

// Log records an audit event based on configuration.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	dest := l.destination(event.Category)
	if dest == DestOff {
		return
	}
	if dest == DestAll || dest == DestLog {
		l.logToZap(event)
	}
	if (dest == DestAll || dest == DestDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func requestEvent(r *http.Request, category, eventType string, success bool) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

// --- Authentication Events ---

// UserRegistered logs a new account.
func (l *Logger) UserRegistered(ctx context.Context, r *http.Request, userID primitive.ObjectID, username string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventUserRegistered, true)
	e.UserID = &userID
	e.Details = map[string]string{"username": username}
	l.Log(ctx, e)
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginSuccess, true)
	e.UserID = &userID
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailedUserNotFound logs a login attempt for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedUserNotFound, false)
	e.FailureReason = "user not found"
	e.Details = map[string]string{"attempted_email": attemptedEmail}
	l.Log(ctx, e)
}

// LoginFailedWrongPassword logs a login attempt with a bad password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, attemptedEmail string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword, false)
	e.FailureReason = "wrong password"
	e.Details = map[string]string{"attempted_email": attemptedEmail}
	l.Log(ctx, e)
}

// LoginFailedRateLimit logs a login rejected by the per-IP limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedRateLimit, false)
	e.FailureReason = "rate limit exceeded"
	l.Log(ctx, e)
}

// Logout logs a user logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLogout, true)
	e.UserID = &userID
	l.Log(ctx, e)
}

// --- Content Events ---

func (l *Logger) noteEvent(ctx context.Context, r *http.Request, eventType string, userID, noteID primitive.ObjectID, title string) {
	e := requestEvent(r, audit.CategoryContent, eventType, true)
	e.UserID = &userID
	e.NoteID = &noteID
	e.Details = map[string]string{"title": title}
	l.Log(ctx, e)
}

// NoteCreated logs a new note.
func (l *Logger) NoteCreated(ctx context.Context, r *http.Request, userID, noteID primitive.ObjectID, title string) {
	l.noteEvent(ctx, r, audit.EventNoteCreated, userID, noteID, title)
}

// NoteUpdated logs an edit by the author.
func (l *Logger) NoteUpdated(ctx context.Context, r *http.Request, userID, noteID primitive.ObjectID, title string) {
	l.noteEvent(ctx, r, audit.EventNoteUpdated, userID, noteID, title)
}

// NoteDeleted logs a deletion by the author.
func (l *Logger) NoteDeleted(ctx context.Context, r *http.Request, userID, noteID primitive.ObjectID) {
	l.noteEvent(ctx, r, audit.EventNoteDeleted, userID, noteID, "")
}
