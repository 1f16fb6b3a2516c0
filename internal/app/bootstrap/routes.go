// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	auditstore "github.com/dalemusser/noteshare/internal/app/store/audit"
	notestore "github.com/dalemusser/noteshare/internal/app/store/notes"
	"github.com/dalemusser/noteshare/internal/app/store/revocations"
	userstore "github.com/dalemusser/noteshare/internal/app/store/users"
	"github.com/dalemusser/noteshare/internal/app/system/auditlog"
	"github.com/dalemusser/noteshare/internal/app/system/auth"
	"github.com/dalemusser/noteshare/internal/app/system/authutil"

	authapifeature "github.com/dalemusser/noteshare/internal/app/features/authapi"
	errorsfeature "github.com/dalemusser/noteshare/internal/app/features/errors"
	healthfeature "github.com/dalemusser/noteshare/internal/app/features/health"
	notesfeature "github.com/dalemusser/noteshare/internal/app/features/notes"
	usersfeature "github.com/dalemusser/noteshare/internal/app/features/users"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. NoteShare builds the stores once,
// installs the credential gate, and mounts the JSON API under /api with
// /health alongside it.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	production := coreCfg.Env == "prod"

	// Stores share the database handle from ConnectDB.
	users := userstore.New(deps.MongoDatabase, userstore.WithHasher(authutil.NewHasher(appCfg.BcryptCost)))
	notes := notestore.New(deps.MongoDatabase).WithLogger(logger)
	audit := auditlog.New(auditstore.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Content: appCfg.AuditLogContent,
	})

	// Revocation list; without Redis logged-out tokens expire naturally.
	var revocationStore interface {
		authapifeature.Revoker
		auth.RevocationChecker
	} = revocations.Noop{}
	var redisPinger healthfeature.Pinger
	if deps.Redis != nil {
		rs := revocations.New(deps.Redis)
		revocationStore = rs
		redisPinger = rs
	}

	var creds auth.Credentials
	switch appCfg.CredentialFormat {
	case credentialSecureCookie:
		creds = auth.NewCookieCredentials(appCfg.JWTSecret, appCfg.CookieName, appCfg.TokenTTL)
	default:
		creds = auth.NewJWTCredentials(appCfg.JWTSecret, appCfg.TokenTTL)
	}

	cookie := auth.CookieConfig{
		Name:   appCfg.CookieName,
		Domain: appCfg.CookieDomain,
		Secure: production,
		MaxAge: appCfg.TokenTTL,
	}

	if deps.LoginLimiter == nil {
		return nil, errors.New("login limiter not initialized")
	}

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger, production)

	gate := &auth.Gate{
		Creds:   creds,
		Revoked: revocationStore,
		Users:   users,
		Cookie:  cookie,
		Log:     logger,
		OnError: func(w http.ResponseWriter, r *http.Request, err error) {
			errLog.LogServerError(w, r, "load session user", err)
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(errLog.Recoverer)

	// Loads auth.SessionUser into context when the request carries a valid
	// credential. Handlers read it back with auth.CurrentUser(r).
	r.Use(gate.Load)

	r.NotFound(errorsfeature.NotFound)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, redisPinger, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	authHandler := authapifeature.NewHandler(users, creds, revocationStore, cookie, deps.LoginLimiter, errLog, audit, logger)
	notesHandler := notesfeature.NewHandler(notes, errLog, audit, appCfg.DefaultPageSize, appCfg.MaxPageSize, logger)
	usersHandler := usersfeature.NewHandler(users, notes, errLog, logger)

	r.Route("/api", func(api chi.Router) {
		api.Mount("/auth", authapifeature.Routes(authHandler))
		api.Mount("/notes", notesfeature.Routes(notesHandler))
		api.Mount("/users", usersfeature.Routes(usersHandler))
		api.Get("/courses", notesHandler.Courses)
	})

	logger.Info("routes mounted",
		zap.String("credential_format", appCfg.CredentialFormat),
		zap.Bool("revocation_list", deps.Redis != nil),
		zap.Bool("secure_cookie", production))

	return r, nil
}
