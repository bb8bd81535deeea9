package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"

	"parley/internal/app/chat"
	"parley/internal/pkg/errs"
)

func credFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "credential.json")
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		ExpiresAt: expiresAt.Unix(),
		Subject:   "1",
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestTokenPersistsAcrossStores(t *testing.T) {
	path := credFile(t)

	first := NewStore(path, time.Hour)
	if _, err := first.Token(); !errs.IsAuthentication(err) {
		t.Fatalf("fresh store Token() = %v, want authentication error", err)
	}

	if err := first.Set("opaque-access-token"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := first.Token()
	if err != nil || got != "opaque-access-token" {
		t.Fatalf("Token() = %q, %v", got, err)
	}

	// A second store over the same file sees the credential.
	second := NewStore(path, time.Hour)
	got, err = second.Token()
	if err != nil || got != "opaque-access-token" {
		t.Fatalf("reloaded Token() = %q, %v", got, err)
	}
}

func TestExpiredCredentialBehavesLikeAbsent(t *testing.T) {
	path := credFile(t)
	store := NewStore(path, time.Hour)

	if err := store.Set(signedToken(t, time.Now().Add(-time.Minute))); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, err := store.Token(); !errs.IsAuthentication(err) {
		t.Fatalf("expired credential Token() = %v, want authentication error", err)
	}
}

func TestExpiryClampedToTokenClaim(t *testing.T) {
	path := credFile(t)
	store := NewStore(path, 7*24*time.Hour)

	claimExpiry := time.Now().Add(time.Minute)
	if err := store.Set(signedToken(t, claimExpiry)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading credential file: %v", err)
	}
	var cred Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		t.Fatalf("credential file not valid JSON: %v", err)
	}
	if cred.ExpiresAt.After(claimExpiry.Add(time.Second)) {
		t.Fatalf("stored expiry %v outlives the token's exp claim %v", cred.ExpiresAt, claimExpiry)
	}
}

func TestCorruptFileTreatedAsAbsent(t *testing.T) {
	path := credFile(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewStore(path, time.Hour)
	if _, err := store.Token(); !errs.IsAuthentication(err) {
		t.Fatalf("corrupt file Token() = %v, want authentication error", err)
	}
}

func TestClearRemovesCredential(t *testing.T) {
	path := credFile(t)
	store := NewStore(path, time.Hour)

	if err := store.Set("opaque-access-token"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if _, err := store.Token(); !errs.IsAuthentication(err) {
		t.Fatalf("cleared Token() = %v, want authentication error", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("credential file still on disk after Clear")
	}

	// Logging out twice is fine.
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

type fakeResolver struct {
	user  chat.User
	err   error
	calls int
}

func (f *fakeResolver) Profile(ctx context.Context) (chat.User, error) {
	f.calls++
	return f.user, f.err
}

func TestResolveIdentity(t *testing.T) {
	path := credFile(t)
	store := NewStore(path, time.Hour)
	resolver := &fakeResolver{user: chat.User{ID: 3, Name: "carla"}}

	// No credential: fail locally, never hit the resolver.
	if _, err := store.ResolveIdentity(context.Background(), resolver); !errs.IsAuthentication(err) {
		t.Fatalf("ResolveIdentity without credential = %v, want authentication error", err)
	}
	if resolver.calls != 0 {
		t.Fatal("resolver called despite absent credential")
	}

	if err := store.Set("opaque-access-token"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	user, err := store.ResolveIdentity(context.Background(), resolver)
	if err != nil || user.ID != 3 {
		t.Fatalf("ResolveIdentity = %+v, %v", user, err)
	}

	// A remote rejection surfaces as the same authentication error.
	resolver.err = errs.NewError(errs.ErrUnauthenticated)
	if _, err := store.ResolveIdentity(context.Background(), resolver); !errs.IsAuthentication(err) {
		t.Fatalf("rejected ResolveIdentity = %v, want authentication error", err)
	}
}
