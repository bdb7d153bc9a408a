package inventory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ErrNoToken is returned by a TokenSource that has no token to send.
var ErrNoToken = errors.New("inventory api token is not configured")

// TokenSource supplies the bearer token sent with every inventory request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken serves a token configured at startup. Refreshing it is somebody else's job;
// when the token is a JWT whose exp has passed, a warning is logged once and the token is
// still sent so the backend gives the authoritative answer.
type StaticToken struct {
	token     string
	expiresAt *time.Time
	logger    *zap.Logger
	now       func() time.Time
	warnOnce  sync.Once
}

// NewStaticToken wraps token. The exp claim is read without verifying the signature.
func NewStaticToken(token string, logger *zap.Logger) *StaticToken {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &StaticToken{token: strings.TrimSpace(token), logger: logger, now: time.Now}

	if strings.Count(s.token, ".") == 2 {
		claims := jwt.MapClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(s.token, claims); err != nil {
			logger.Debug("inventory token is not a readable jwt", zap.Error(err))
		} else if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			t := exp.Time
			s.expiresAt = &t
		}
	}

	return s
}

// ExpiresAt returns the exp claim of the token, if it has one.
func (s *StaticToken) ExpiresAt() (time.Time, bool) {
	if s.expiresAt == nil {
		return time.Time{}, false
	}
	return *s.expiresAt, true
}

// Token implements TokenSource.
func (s *StaticToken) Token(ctx context.Context) (string, error) {
	if s.token == "" {
		return "", ErrNoToken
	}
	if s.expiresAt != nil && s.now().After(*s.expiresAt) {
		s.warnOnce.Do(func() {
			s.logger.Warn("inventory api token has expired", zap.Time("expires_at", *s.expiresAt))
		})
	}
	return s.token, nil
}
