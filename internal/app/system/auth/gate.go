// Package auth verifies signed credentials and carries the signed-in user
// through the request context.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	userstore "github.com/dalemusser/noteshare/internal/app/store/users"
	"github.com/dalemusser/noteshare/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SessionUser is the identity injected into r.Context() by Gate.Load.
type SessionUser struct {
	ID       primitive.ObjectID
	Username string

	// Credential the request arrived with; used on logout.
	TokenID      string
	TokenExpires time.Time
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects u directly; handler tests use it to skip the Gate.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// RevocationChecker reports whether a token id was revoked before expiry.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// UserLookup resolves the subject of a verified credential. A missing
// account is reported as userstore.ErrNotFound.
type UserLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// Gate resolves the credential on each request into a SessionUser.
type Gate struct {
	Creds   Credentials
	Revoked RevocationChecker
	Users   UserLookup
	Cookie  CookieConfig
	Log     *zap.Logger

	// OnError answers requests whose user lookup failed for a reason other
	// than a missing account. Nil writes a bare 500.
	OnError func(w http.ResponseWriter, r *http.Request, err error)
}

// Load injects the user when the request carries a valid, unrevoked
// credential for an existing account. It never rejects; see RequireUser.
func (g *Gate) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r, g.Cookie.Name)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		u, err := g.resolve(r, token)
		if err != nil {
			g.fail(w, r, err)
			return
		}
		if u != nil {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// resolve returns nil without error when the request should continue
// anonymously.
func (g *Gate) resolve(r *http.Request, token string) (*SessionUser, error) {
	claims, err := g.Creds.Verify(token)
	if err != nil {
		return nil, nil
	}
	ctx := r.Context()
	if g.Revoked != nil {
		revoked, err := g.Revoked.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			if g.Log != nil {
				g.Log.Warn("revocation check failed", zap.String("jti", claims.TokenID), zap.Error(err))
			}
			return nil, nil
		}
		if revoked {
			return nil, nil
		}
	}
	u, err := g.Users.GetByID(ctx, claims.UserID)
	if errors.Is(err, userstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", claims.UserID.Hex(), err)
	}
	return &SessionUser{
		ID:           u.ID,
		Username:     u.Username,
		TokenID:      claims.TokenID,
		TokenExpires: claims.ExpiresAt,
	}, nil
}

func (g *Gate) fail(w http.ResponseWriter, r *http.Request, err error) {
	if g.OnError != nil {
		g.OnError(w, r, err)
		return
	}
	if g.Log != nil {
		g.Log.Error("gate: user lookup failed", zap.Error(err), zap.String("path", r.URL.Path))
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": http.StatusText(http.StatusInternalServerError)})
}

// NotAuthorizedMessage is the 401 body for anonymous access to protected routes.
const NotAuthorizedMessage = "Not authorized, please login"

// RequireUser answers 401 JSON unless Load found a user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": NotAuthorizedMessage})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TokenFromRequest prefers the named cookie, then an Authorization bearer.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
