// Package auth issues and verifies bearer tokens and hashes passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pavelanni/otms/internal/model"
)

// RevocationChecker reports whether a token id was revoked by logout.
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// Claims is the JWT payload: the user's identity plus registered claims.
type Claims struct {
	UserID int64          `json:"user_id"`
	Role   model.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 access tokens.
type Issuer struct {
	secret  []byte
	ttl     time.Duration
	revoked RevocationChecker
	now     func() time.Time
}

// NewIssuer returns an Issuer. revoked may be nil to skip revocation checks.
func NewIssuer(secret string, ttl time.Duration, revoked RevocationChecker) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, revoked: revoked, now: time.Now}, nil
}

// Issue signs a token for u.
func (i *Issuer) Issue(u model.User) (string, model.Identity, error) {
	now := i.now()
	id := model.Identity{
		UserID:    u.ID,
		Role:      u.Role,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(i.ttl),
	}
	claims := Claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			ID:        id.TokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(id.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", model.Identity{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, id, nil
}

// Verify parses a token and returns the identity it carries. An invalid,
// expired or revoked token is reported as model.ErrUnauthorized; a failed
// revocation lookup is returned as is.
func (i *Issuer) Verify(ctx context.Context, token string) (model.Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %v", model.ErrUnauthorized, err)
	}
	if claims.UserID == 0 || !claims.Role.Valid() || claims.ID == "" {
		return model.Identity{}, fmt.Errorf("%w: incomplete claims", model.ErrUnauthorized)
	}

	if i.revoked != nil {
		revoked, err := i.revoked.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			return model.Identity{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return model.Identity{}, fmt.Errorf("%w: token revoked", model.ErrUnauthorized)
		}
	}

	return model.Identity{
		UserID:    claims.UserID,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
