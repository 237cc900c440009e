package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/config"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain"
)

// JWTStrategy accepts HS256 tokens whose user_id claim names the user.
type JWTStrategy struct {
	cfg    *config.Jwt
	logger *slog.Logger
}

func NewJWTStrategy(cfg *config.Jwt, logger *slog.Logger) *JWTStrategy {
	return &JWTStrategy{cfg: cfg, logger: logger.With("strategy", "jwt")}
}

// GenerateToken issues a token for userID valid for the configured expiry.
func (s *JWTStrategy) GenerateToken(userID string) (string, error) {
	log := s.logger.With("userID", userID)
	log.Debug("GenerateToken called")
	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["user_id"] = userID
	claims["exp"] = time.Now().Add(s.cfg.Expiry).Unix()
	tokenString, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		log.Error("GenerateToken failed", "error", err)
		return "", err
	}
	log.Info("GenerateToken successful")
	return tokenString, nil
}

// Authenticate implements Strategy.
func (s *JWTStrategy) Authenticate(_ context.Context, credential string) (string, error) {
	log := s.logger.With("context", "Authenticate")
	raw := strings.TrimSpace(strings.TrimPrefix(credential, "Bearer "))
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		log.Error("Authenticate failed", "error", err)
		return "", fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", domain.ErrUnauthorized
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		log.Error("Authenticate failed", "error", "missing user_id claim")
		return "", fmt.Errorf("%w: missing user_id claim", domain.ErrUnauthorized)
	}
	log.Info("Authenticate successful", "userID", userID)
	return userID, nil
}

var _ Strategy = (*JWTStrategy)(nil)

// SaveToken stores a session token so later processes can restore it.
func SaveToken(path, token string) error {
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}

// LoadToken reads a token written by SaveToken. A missing file yields an
// empty token and no error.
func LoadToken(path string) (string, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// ClearToken removes a stored token.
func ClearToken(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
