package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain"
)

// Provider reports the signed-in user, if any.
type Provider interface {
	CurrentUserID(ctx context.Context) (string, bool)
}

// Strategy turns a credential into a user id.
type Strategy interface {
	Authenticate(ctx context.Context, credential string) (string, error)
}

// Session is the device session: at most one user is signed in at a time.
type Session struct {
	mu       sync.RWMutex
	userID   string
	strategy Strategy
	logger   *slog.Logger
}

// New creates a signed-out session. strategy may be nil when only
// SignIn by user id is used.
func New(strategy Strategy, logger *slog.Logger) *Session {
	return &Session{strategy: strategy, logger: logger.With("service", "session")}
}

// CurrentUserID implements Provider.
func (s *Session) CurrentUserID(_ context.Context) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.userID != ""
}

// SignIn makes userID the current user.
func (s *Session) SignIn(userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: empty user id", domain.ErrUnauthorized)
	}
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()
	s.logger.Info("SignIn successful", "userID", userID)
	return nil
}

// SignInWithCredential authenticates through the strategy and signs in the
// resulting user.
func (s *Session) SignInWithCredential(ctx context.Context, credential string) (string, error) {
	log := s.logger.With("context", "SignInWithCredential")
	if s.strategy == nil {
		return "", fmt.Errorf("%w: no auth strategy configured", domain.ErrUnauthorized)
	}
	userID, err := s.strategy.Authenticate(ctx, credential)
	if err != nil {
		log.Error("SignInWithCredential failed", "error", err)
		return "", err
	}
	return userID, s.SignIn(userID)
}

// SignOut clears the current user.
func (s *Session) SignOut() {
	s.mu.Lock()
	prev := s.userID
	s.userID = ""
	s.mu.Unlock()
	if prev != "" {
		s.logger.Info("SignOut successful", "userID", prev)
	}
}

var _ Provider = (*Session)(nil)
