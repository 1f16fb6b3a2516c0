package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
}

// JWTCredentials signs HS256 tokens carrying the user id and a random jti.
type JWTCredentials struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTCredentials returns HS256 credentials valid for ttl.
func NewJWTCredentials(secret string, ttl time.Duration) *JWTCredentials {
	return &JWTCredentials{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for userID.
func (c *JWTCredentials) Issue(userID primitive.ObjectID) (string, Claims, error) {
	now := c.now()
	claims := Claims{
		UserID:    userID,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(c.ttl).Truncate(time.Second),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        claims.TokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
		UserID: userID.Hex(),
	})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Verify checks signature, algorithm and expiry.
func (c *JWTCredentials) Verify(token string) (Claims, error) {
	var jc jwtClaims
	parsed, err := jwt.ParseWithClaims(token, &jc, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidCredential
	}
	uid, err := primitive.ObjectIDFromHex(jc.UserID)
	if err != nil {
		return Claims{}, ErrInvalidCredential
	}
	return Claims{UserID: uid, TokenID: jc.ID, ExpiresAt: jc.ExpiresAt.Time}, nil
}
