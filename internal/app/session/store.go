/*
Package session owns the client's authentication credential.

The credential is an opaque access token persisted to a JSON file so it
survives restarts, with a client-side expiry applied at login (clamped to the
token's own exp claim when it parses as a JWT). An absent, expired, or
remotely rejected credential all surface as the same authentication error;
callers route every one of them to the login flow.
*/
package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/rs/zerolog"

	"parley/internal/app/chat"
	"parley/internal/pkg/errs"
	"parley/internal/pkg/logx"
)

// Credential is the persisted session token and its client-side expiry.
type Credential struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IdentityResolver performs the remote profile lookup backing ResolveIdentity.
// The API client implements it.
type IdentityResolver interface {
	Profile(ctx context.Context) (chat.User, error)
}

// Store is the single owner of the credential. Login, signup and logout flows
// write it; every request-issuing component reads it through Token.
type Store struct {
	path string
	ttl  time.Duration

	mu     sync.RWMutex
	cred   *Credential
	logger zerolog.Logger
}

// NewStore creates a Store persisting to path with the given credential TTL.
// An existing credential file is loaded; an unreadable or corrupt file is
// treated as an absent credential, not an error.
func NewStore(path string, ttl time.Duration) *Store {
	s := &Store{
		path:   path,
		ttl:    ttl,
		logger: logx.Logger().With().Str("component", "session").Logger(),
	}
	s.load()
	return s
}

func (s *Store) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	var cred Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		s.logger.Warn().Str("path", s.path).Err(err).Msg("discarding unreadable credential file")
		return
	}
	if cred.Token == "" {
		return
	}
	s.cred = &cred
}

// Token returns the current credential. An absent or expired credential
// behaves identically: the authentication error.
func (s *Store) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cred == nil || time.Now().After(s.cred.ExpiresAt) {
		return "", errs.NewError(errs.ErrUnauthenticated)
	}
	return s.cred.Token, nil
}

// Set stores a freshly issued token with the configured TTL and persists it.
// When the token is a readable JWT whose exp claim ends sooner than the TTL,
// the claim wins; the server remains the authority on token lifetime.
func (s *Store) Set(token string) error {
	expiresAt := time.Now().Add(s.ttl)

	claims := &jwt.StandardClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err == nil && claims.ExpiresAt > 0 {
		claimExpiry := time.Unix(claims.ExpiresAt, 0)
		if claimExpiry.Before(expiresAt) {
			expiresAt = claimExpiry
		}
	}

	cred := &Credential{Token: token, ExpiresAt: expiresAt}

	raw, err := json.Marshal(cred)
	if err != nil {
		return errs.NewError(errs.ErrUnknown, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errs.NewError(errs.ErrUnknown, err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return errs.NewError(errs.ErrUnknown, err)
	}

	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()

	s.logger.Debug().Time("expires_at", expiresAt).Msg("credential stored")
	return nil
}

// Clear removes the credential, in memory and on disk. Logout.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.cred = nil
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errs.NewError(errs.ErrUnknown, err)
	}
	return nil
}

// ResolveIdentity resolves the current user behind the stored credential.
// It fails with the authentication error when the credential is absent,
// expired, or rejected by the remote identity check; callers cannot and must
// not distinguish which of the three happened.
func (s *Store) ResolveIdentity(ctx context.Context, resolver IdentityResolver) (chat.User, error) {
	if _, err := s.Token(); err != nil {
		return chat.User{}, err
	}
	return resolver.Profile(ctx)
}
