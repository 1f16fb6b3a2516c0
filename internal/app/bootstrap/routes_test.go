package bootstrap

import (
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dalemusser/noteshare/internal/app/system/ratelimit"
	"github.com/dalemusser/noteshare/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func buildTestHandler(t *testing.T, withRedis bool) (http.Handler, DBDeps) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}
	if withRedis {
		mr := miniredis.RunT(t)
		deps.Redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = deps.Redis.Close() })
	}

	cfg := validConfig()
	cfg.BcryptCost = bcrypt.MinCost
	cfg.LoginRateLimit = 100
	cfg.LoginRateWindow = time.Minute
	deps.LoginLimiter = ratelimit.New(cfg.LoginRateLimit, cfg.LoginRateWindow)
	t.Cleanup(deps.LoginLimiter.Stop)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := EnsureSchema(ctx, &config.CoreConfig{Env: "dev"}, cfg, deps, zap.NewNop()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, cfg, deps, zap.NewNop())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}
	return h, deps
}

func do(t *testing.T, h http.Handler, r *http.Request, cookie *http.Cookie) *testutil.ResponseRecorder {
	t.Helper()
	if cookie != nil {
		r.AddCookie(cookie)
	}
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func tokenCookie(rec *testutil.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	return nil
}

func TestBuildHandler_Health(t *testing.T) {
	h, _ := buildTestHandler(t, true)

	rec := do(t, h, testutil.NewRequest("GET", "/health"), nil)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"redis":"connected"`)
}

func TestBuildHandler_UnknownRoute(t *testing.T) {
	h, _ := buildTestHandler(t, false)

	rec := do(t, h, testutil.NewRequest("GET", "/api/nope"), nil)
	rec.AssertStatus(t, http.StatusNotFound)
	if got := rec.Message(t); got != "Route not found: GET /api/nope" {
		t.Errorf("message = %q", got)
	}
}

func TestBuildHandler_CoursesAliasEmpty(t *testing.T) {
	h, _ := buildTestHandler(t, false)

	rec := do(t, h, testutil.NewRequest("GET", "/api/courses"), nil)
	rec.AssertStatus(t, http.StatusOK)
	var courses []string
	rec.DecodeJSON(t, &courses)
	if courses == nil || len(courses) != 0 {
		t.Errorf("courses = %#v, want empty array", courses)
	}
}

func TestBuildHandler_EndToEnd(t *testing.T) {
	h, deps := buildTestHandler(t, true)

	rec := do(t, h, testutil.NewJSONRequest(t, "POST", "/api/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "s3cret-pass",
	}), nil)
	rec.AssertStatus(t, http.StatusCreated)
	cookie := tokenCookie(rec)
	if cookie == nil {
		t.Fatal("register did not set the token cookie")
	}

	rec = do(t, h, testutil.NewRequest("GET", "/api/users/me"), cookie)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"username":"alice"`)

	rec = do(t, h, testutil.NewJSONRequest(t, "POST", "/api/notes", map[string]string{
		"title":   "Limits",
		"content": "epsilon-delta",
		"course":  "MATH 101",
	}), cookie)
	rec.AssertStatus(t, http.StatusCreated)

	rec = do(t, h, testutil.NewRequest("GET", "/api/courses"), nil)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "MATH 101")

	rec = do(t, h, testutil.NewRequest("GET", "/api/notes?course=MATH%20101"), nil)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"username":"alice"`)

	rec = do(t, h, testutil.NewRequest("POST", "/api/auth/logout"), cookie)
	rec.AssertStatus(t, http.StatusOK)

	// The old cookie is revoked even though the client kept it.
	rec = do(t, h, testutil.NewRequest("GET", "/api/users/me"), cookie)
	rec.AssertStatus(t, http.StatusUnauthorized)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := deps.MongoDatabase.Collection("audit_events").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count audit events: %v", err)
	}
	// register, note_created, logout
	if n != 3 {
		t.Errorf("audit events = %d, want 3", n)
	}
}

func TestBuildHandler_NoRedisLogoutStillClearsCookie(t *testing.T) {
	h, _ := buildTestHandler(t, false)

	rec := do(t, h, testutil.NewJSONRequest(t, "POST", "/api/auth/register", map[string]string{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "s3cret-pass",
	}), nil)
	rec.AssertStatus(t, http.StatusCreated)
	cookie := tokenCookie(rec)

	rec = do(t, h, testutil.NewRequest("POST", "/api/auth/logout"), cookie)
	rec.AssertStatus(t, http.StatusOK)
	if c := tokenCookie(rec); c == nil || c.MaxAge >= 0 {
		t.Errorf("logout should expire the cookie, got %+v", c)
	}
}

func TestBuildHandler_RequiresLoginLimiter(t *testing.T) {
	_, err := BuildHandler(&config.CoreConfig{Env: "dev"}, validConfig(), DBDeps{}, zap.NewNop())
	if err == nil {
		t.Fatal("expected an error without a login limiter")
	}
}

func TestShutdown_StopsLoginLimiter(t *testing.T) {
	l := ratelimit.New(1, time.Minute)
	deps := DBDeps{LoginLimiter: l}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := Shutdown(ctx, &config.CoreConfig{Env: "dev"}, validConfig(), deps, zap.NewNop()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	select {
	case <-l.Done():
	default:
		t.Error("limiter sweeper still running after Shutdown")
	}
}
