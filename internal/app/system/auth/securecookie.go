package auth

import (
	"crypto/sha256"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type cookiePayload struct {
	UserID  string `json:"uid"`
	TokenID string `json:"jti"`
	Expires int64  `json:"exp"`
}

// CookieCredentials encodes the same claims as an authenticated, encrypted
// securecookie value instead of a JWT.
type CookieCredentials struct {
	codec *securecookie.SecureCookie
	name  string
	ttl   time.Duration
	now   func() time.Time
}

// NewCookieCredentials derives the hash and block keys from secret. name is
// mixed into the MAC so a value cannot be replayed under another cookie name.
func NewCookieCredentials(secret, name string, ttl time.Duration) *CookieCredentials {
	hashKey := sha256.Sum256([]byte("hash:" + secret))
	blockKey := sha256.Sum256([]byte("block:" + secret))
	codec := securecookie.New(hashKey[:], blockKey[:])
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(ttl.Seconds()))
	return &CookieCredentials{codec: codec, name: name, ttl: ttl, now: time.Now}
}

// Issue encodes a value for userID.
func (c *CookieCredentials) Issue(userID primitive.ObjectID) (string, Claims, error) {
	claims := Claims{
		UserID:    userID,
		TokenID:   uuid.NewString(),
		ExpiresAt: c.now().Add(c.ttl).Truncate(time.Second),
	}
	v, err := c.codec.Encode(c.name, cookiePayload{
		UserID:  userID.Hex(),
		TokenID: claims.TokenID,
		Expires: claims.ExpiresAt.Unix(),
	})
	if err != nil {
		return "", Claims{}, err
	}
	return v, claims, nil
}

// Verify decodes and checks the embedded expiry.
func (c *CookieCredentials) Verify(token string) (Claims, error) {
	var p cookiePayload
	if err := c.codec.Decode(c.name, token, &p); err != nil {
		return Claims{}, ErrInvalidCredential
	}
	exp := time.Unix(p.Expires, 0)
	if !c.now().Before(exp) {
		return Claims{}, ErrInvalidCredential
	}
	uid, err := primitive.ObjectIDFromHex(p.UserID)
	if err != nil {
		return Claims{}, ErrInvalidCredential
	}
	return Claims{UserID: uid, TokenID: p.TokenID, ExpiresAt: exp}, nil
}
