// Package auth issues and verifies member sessions and gates routes by role.
package auth

import (
	"context"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-shop.git/internal/members"
	"github.com/ariefcatur/go-shop.git/internal/redisx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"time"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
)

// Principal is the authenticated member behind a request.
type Principal struct {
	MemberID  int64        `json:"member_id"`
	Email     string       `json:"email"`
	Role      members.Role `json:"role"`
	SessionID string       `json:"-"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func (p Principal) IsAdmin() bool { return p.Role == members.RoleAdmin }

type Claims struct {
	MemberID int64  `json:"mid"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Revocations remembers logged-out session ids until they would expire anyway.
type Revocations interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

type RedisRevocations struct{ RDB redis.Cmdable }

func (r RedisRevocations) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	return r.RDB.Set(ctx, fmt.Sprintf(redisx.KeySessionRevoked, sessionID), "1", ttl).Err()
}

func (r RedisRevocations) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	return redisx.Exists(ctx, r.RDB, fmt.Sprintf(redisx.KeySessionRevoked, sessionID))
}

type Sessions struct {
	Secret  []byte
	TTL     time.Duration
	Issuer  string
	Revoked Revocations
	Now     func() time.Time
}

func NewSessions(secret string, ttl time.Duration, issuer string, revoked Revocations) *Sessions {
	return &Sessions{Secret: []byte(secret), TTL: ttl, Issuer: issuer, Revoked: revoked, Now: time.Now}
}

// Issue signs a new session token for m.
func (s *Sessions) Issue(m *members.Member) (string, Principal, error) {
	now := s.Now()
	p := Principal{
		MemberID:  m.ID,
		Email:     m.Email,
		Role:      m.Role,
		SessionID: uuid.NewString(),
		ExpiresAt: now.Add(s.TTL).Truncate(time.Second).UTC(),
	}
	claims := &Claims{
		MemberID: p.MemberID,
		Email:    p.Email,
		Role:     string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        p.SessionID,
			Issuer:    s.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(p.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", Principal{}, err
	}
	return token, p, nil
}

// Verify checks signature, expiry and revocation of a token.
func (s *Sessions) Verify(ctx context.Context, token string) (Principal, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.Now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Principal{}, ErrUnauthenticated
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.ID == "" {
		return Principal{}, ErrUnauthenticated
	}
	revoked, err := s.Revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Principal{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Principal{}, ErrUnauthenticated
	}
	return Principal{
		MemberID:  claims.MemberID,
		Email:     claims.Email,
		Role:      members.Role(claims.Role),
		SessionID: claims.ID,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}

// Revoke ends a session for the rest of its lifetime.
func (s *Sessions) Revoke(ctx context.Context, p Principal) error {
	ttl := p.ExpiresAt.Sub(s.Now())
	if ttl <= 0 {
		return nil
	}
	return s.Revoked.Revoke(ctx, p.SessionID, ttl)
}
