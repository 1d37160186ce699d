package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/handmadehub/storefront/internal/core/domain"
	"github.com/handmadehub/storefront/internal/core/ports"
)

// DecodeToken extracts claims from a bearer token without verifying its
// signature. The result is advisory: it gates whether remote sync is
// attempted and what the UI shows, never what the user may access. The
// upstream API is the sole authorizer and re-validates every protected call.
func DecodeToken(raw string) (domain.Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return domain.Claims{}, err
	}

	out := domain.Claims{
		Subject:       stringClaim(claims, "id"),
		Role:          stringClaim(claims, "role"),
		Name:          stringClaim(claims, "name"),
		ArtisanStatus: stringClaim(claims, "artisanStatus"),
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Unix()
	}
	return out, nil
}

// TokenUsable reports whether the token decodes and is not yet expired.
func TokenUsable(raw string) bool {
	claims, err := DecodeToken(raw)
	return err == nil && claims.Valid(time.Now())
}

func stringClaim(m jwt.MapClaims, key string) string {
	s, _ := m[key].(string)
	return s
}

// SessionService manages the session's bearer token: login and registration
// are proxied to the upstream API, the returned token is persisted per
// session, and the session's cart store is dropped so the next cart read
// re-runs the hydration protocol against the remote cart.
type SessionService struct {
	tokens ports.TokenStore
	auth   ports.AuthGateway
	stores ports.StoreProvider
	log    zerolog.Logger
}

func NewSessionService(tokens ports.TokenStore, auth ports.AuthGateway, stores ports.StoreProvider, log zerolog.Logger) *SessionService {
	return &SessionService{tokens: tokens, auth: auth, stores: stores, log: log}
}

// Identity returns the advisory claims for the session. Expired or malformed
// tokens are deleted from storage and reported as unauthenticated.
func (s *SessionService) Identity(ctx context.Context, sessionID string) (domain.Claims, bool) {
	raw, err := s.tokens.Get(ctx, sessionID)
	if err != nil || raw == "" {
		return domain.Claims{}, false
	}
	claims, err := DecodeToken(raw)
	if err != nil || !claims.Valid(time.Now()) {
		_ = s.tokens.Delete(ctx, sessionID)
		return domain.Claims{}, false
	}
	return claims, true
}

// Login exchanges credentials upstream, stores the returned token, and
// invalidates the session's materialized cart store.
func (s *SessionService) Login(ctx context.Context, sessionID string, creds ports.Credentials) ([]byte, error) {
	res, err := s.auth.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Set(ctx, sessionID, res.Token); err != nil {
		return nil, err
	}
	s.stores.Drop(sessionID)
	s.log.Info().Str("session_id", sessionID).Msg("session logged in")
	return res.User, nil
}

// Register creates an account upstream. When the upstream response carries a
// token the session is logged in as well.
func (s *SessionService) Register(ctx context.Context, sessionID string, creds ports.Credentials) ([]byte, error) {
	res, err := s.auth.Register(ctx, creds)
	if err != nil {
		return nil, err
	}
	if res.Token != "" {
		if err := s.tokens.Set(ctx, sessionID, res.Token); err != nil {
			return nil, err
		}
		s.stores.Drop(sessionID)
	}
	return res.User, nil
}

// Logout deletes the stored token and drops the session's cart store. The
// locally persisted cart survives: an anonymous session keeps its cart.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if err := s.tokens.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.stores.Drop(sessionID)
	s.log.Info().Str("session_id", sessionID).Msg("session logged out")
	return nil
}
