package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dom/storefront/internal/domain"
	"github.com/dom/storefront/internal/logger"
	"github.com/dom/storefront/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionService binds a signed cookie value to a stored, TTL-bound session.
// The cookie is an HS256 JWT whose jti is the session id; the store stays
// the source of truth for expiry and logout.
type SessionService struct {
	sessions repository.SessionRepository
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionService(sessions repository.SessionRepository, secret string, ttl time.Duration) *SessionService {
	return &SessionService{
		sessions: sessions,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Start persists a new session for the principal and returns it with the
// signed token to hand to the client.
func (s *SessionService) Start(ctx context.Context, principal domain.Principal) (*domain.Session, string, error) {
	now := s.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    principal.UserID,
		Email:     principal.Email,
		Role:      principal.Role,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", err
	}

	token, err := s.sign(session)
	if err != nil {
		return nil, "", err
	}
	return session, token, nil
}

// Resolve returns the principal behind a token. A missing, tampered or
// expired token and a missing or expired session all yield
// domain.ErrNotFound; any other error is a store fault.
func (s *SessionService) Resolve(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, domain.ErrNotFound
	}
	sessionID, err := s.parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, domain.ErrNotFound
	}

	principal := session.Principal()
	return &principal, nil
}

// End destroys the session behind the token. Unknown tokens are ignored.
func (s *SessionService) End(ctx context.Context, token string) error {
	sessionID, err := s.parse(token)
	if err != nil {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

// EndAll destroys every session of the user.
func (s *SessionService) EndAll(ctx context.Context, userID uuid.UUID) error {
	return s.sessions.DeleteByUserID(ctx, userID)
}

// Sweep removes expired rows from stores that keep them around. Stores with
// native expiry are skipped.
func (s *SessionService) Sweep(ctx context.Context) (int64, error) {
	sweeper, ok := s.sessions.(repository.SessionSweeper)
	if !ok {
		return 0, nil
	}
	return sweeper.DeleteExpired(ctx, s.now())
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration) error {
	if _, ok := s.sessions.(repository.SessionSweeper); !ok {
		return nil
	}

	log := logger.Component("session-sweeper")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				log.Error().Err(err).Msg("failed to sweep expired sessions")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("swept expired sessions")
			}
		}
	}
}

func (s *SessionService) sign(session *domain.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   session.UserID.String(),
		IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *SessionService) parse(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSessionToken, err)
	}
	if !token.Valid || claims.ID == "" {
		return "", ErrInvalidSessionToken
	}
	return claims.ID, nil
}
