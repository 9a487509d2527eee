package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/vetstock-erp/vetstock/internal/shared"
)

// AccountFinder abstracts account lookup for the service.
type AccountFinder interface {
	FindByEmail(ctx context.Context, email string) (Account, error)
}

// Service implements login, logout and token resolution.
type Service struct {
	accounts AccountFinder
	redis    *redis.Client
	secret   []byte
	ttl      time.Duration
}

// NewService constructs the auth service.
func NewService(accounts AccountFinder, client *redis.Client, secret string, ttl time.Duration) *Service {
	return &Service{accounts: accounts, redis: client, secret: []byte(secret), ttl: ttl}
}

// TTL exposes the configured token lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Login verifies credentials, creates a session record and issues a token.
func (s *Service) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	acc, err := s.accounts.FindByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return LoginResult{}, shared.ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if !acc.Active {
		return LoginResult{}, shared.ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(creds.Password)); err != nil {
		return LoginResult{}, shared.ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	record := SessionRecord{
		UserID:    acc.ID,
		Email:     acc.Email,
		FirstName: acc.FirstName,
		Role:      acc.Role,
		IssuedAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.redis.Set(ctx, sessionKey(sessionID), payload, s.ttl).Err(); err != nil {
		return LoginResult{}, err
	}

	token, expiresAt, err := signToken(s.secret, sessionID, acc.ID, acc.Role, s.ttl)
	if err != nil {
		_ = s.redis.Del(ctx, sessionKey(sessionID)).Err()
		return LoginResult{}, err
	}

	return LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    acc.ID,
		FirstName: acc.FirstName,
		Role:      acc.Role,
	}, nil
}

// Logout revokes the session behind the token.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.redis.Del(ctx, sessionKey(sessionID)).Err()
}

// Resolve validates a raw token and returns the actor it represents. A token
// whose session record is gone (logout, expiry) is rejected.
func (s *Service) Resolve(ctx context.Context, rawToken string) (*shared.Actor, error) {
	claims, err := parseToken(s.secret, rawToken)
	if err != nil {
		return nil, errInvalidToken
	}

	payload, err := s.redis.Get(ctx, sessionKey(claims.SessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errInvalidToken
		}
		return nil, err
	}

	var record SessionRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, errInvalidToken
	}

	return &shared.Actor{
		UserID:    record.UserID,
		Email:     record.Email,
		FirstName: record.FirstName,
		Role:      record.Role,
		SessionID: claims.SessionID,
	}, nil
}

func sessionKey(id string) string {
	return "session:" + id
}
