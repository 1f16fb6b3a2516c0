package health_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dalemusser/noteshare/internal/app/features/health"
	"github.com/dalemusser/noteshare/internal/app/store/revocations"
	"github.com/dalemusser/noteshare/internal/testutil"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type response struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
	Message  string `json:"message"`
}

func serve(t *testing.T, h *health.Handler) (int, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest("GET", "/health", nil))

	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec.Code, resp
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := health.NewHandler(db.Client(), nil, zap.NewNop())

	code, resp := serve(t, handler)
	if code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, code)
	}
	if resp.Status != "ok" || resp.Database != "connected" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Redis != "" {
		t.Errorf("redis should be omitted when not configured, got %q", resp.Redis)
	}
}

func TestServe_WithRedis(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	closed := false
	t.Cleanup(func() {
		if !closed {
			mr.Close()
		}
	})
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	handler := health.NewHandler(db.Client(), revocations.New(client), zap.NewNop())

	code, resp := serve(t, handler)
	if code != http.StatusOK || resp.Redis != "connected" {
		t.Fatalf("healthy redis: got %d %+v", code, resp)
	}

	mr.Close()
	closed = true
	code, resp = serve(t, handler)
	if code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 after redis went away, got %d", code)
	}
	if resp.Redis != "disconnected" || resp.Status != "error" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestServe_DatabaseUnavailable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(200*time.Millisecond))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	code, resp := serve(t, health.NewHandler(client, nil, zap.NewNop()))
	if code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, code)
	}
	if resp.Database != "disconnected" || resp.Message != "Database unavailable" {
		t.Errorf("unexpected response: %+v", resp)
	}
}
