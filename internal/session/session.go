// Package session keeps the bearer token and cached profile for each user
// of the gateway. Every caller gets its session injected; nothing reads the
// store directly.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloutcoin/internal/backend"
	"cloutcoin/internal/database"
	"cloutcoin/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrNoSession    = errors.New("no such session")
	ErrInvalidated  = errors.New("session invalidated")
	ErrTokenExpired = errors.New("token expired")
	ErrEmptyToken   = errors.New("token is required")
)

// Store is the persistent key-value store sessions live in
type Store interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
}

// ProfileFetcher loads the profile that belongs to a token
type ProfileFetcher interface {
	GetProfile(ctx context.Context, creds backend.Credentials) (*model.Profile, error)
}

type Service struct {
	store    Store
	profiles ProfileFetcher
	now      func() time.Time
	logger   zerolog.Logger
}

func NewService(store Store, profiles ProfileFetcher, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		profiles: profiles,
		now:      time.Now,
		logger:   logger.With().Str("component", "session").Logger(),
	}
}

func tokenKey(id string) string   { return "session:" + id + ":token" }
func profileKey(id string) string { return "session:" + id + ":profile" }

// Open verifies token against the backend, caches the profile and returns a
// new session.
func (s *Service) Open(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, ErrEmptyToken
	}
	if expired(token, s.now()) {
		return nil, ErrTokenExpired
	}

	profile, err := s.profiles.GetProfile(ctx, backend.BearerToken(token))
	if err != nil {
		return nil, err
	}

	sess := &Session{id: uuid.NewString(), token: token, profile: *profile, svc: s}
	if err := s.store.Put(ctx, tokenKey(sess.id), token); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	if err := s.saveProfile(ctx, sess.id, *profile); err != nil {
		return nil, err
	}

	s.logger.Info().Str("session_id", sess.id).Str("user", profile.Username).Msg("session opened")
	return sess, nil
}

// Load restores a session from the store
func (s *Service) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNoSession
	}

	token, err := s.store.Get(ctx, tokenKey(id))
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	sess := &Session{id: id, token: token, svc: s}

	raw, err := s.store.Get(ctx, profileKey(id))
	switch {
	case errors.Is(err, database.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to load profile: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &sess.profile); err != nil {
			s.logger.Warn().Err(err).Str("session_id", id).Msg("discarding unreadable cached profile")
		}
	}

	return sess, nil
}

// UpdateProfile replaces the cached profile of sess
func (s *Service) UpdateProfile(ctx context.Context, sess *Session, profile model.Profile) error {
	if err := s.saveProfile(ctx, sess.id, profile); err != nil {
		return err
	}
	sess.mu.Lock()
	sess.profile = profile
	sess.mu.Unlock()
	return nil
}

func (s *Service) saveProfile(ctx context.Context, id string, profile model.Profile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, profileKey(id), string(raw)); err != nil {
		return fmt.Errorf("failed to store profile: %w", err)
	}
	return nil
}

// Session is one logged-in user. It satisfies backend.Credentials.
type Session struct {
	mu          sync.Mutex
	id          string
	token       string
	profile     model.Profile
	invalidated bool
	svc         *Service
}

func (s *Session) ID() string { return s.id }

// Profile returns the cached profile
func (s *Session) Profile() model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Token returns the bearer token. An expired JWT invalidates the session.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	token, invalidated := s.token, s.invalidated
	s.mu.Unlock()

	if invalidated {
		return "", ErrInvalidated
	}
	if expired(token, s.svc.now()) {
		if err := s.Invalidate(ctx); err != nil {
			return "", err
		}
		return "", ErrTokenExpired
	}
	return token, nil
}

// Invalidate clears the token and cached profile. It is safe to call more
// than once.
func (s *Session) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	s.invalidated = true
	s.token = ""
	s.profile = model.Profile{}
	s.mu.Unlock()

	if err := s.svc.store.Delete(ctx, tokenKey(s.id), profileKey(s.id)); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.svc.logger.Info().Str("session_id", s.id).Msg("session invalidated")
	return nil
}

func (s *Session) Invalidated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidated
}

// expired reports whether token is a JWT whose exp lies before now. Opaque
// tokens never expire here.
func expired(token string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(now)
}
