package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"parley/internal/pkg/errs"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) Token() (string, error) { return s.token, s.err }

func newTestClient(t *testing.T, handler http.Handler, tokens TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, tokens)
}

func TestAuthedRequestCarriesBearerToken(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"id": 1, "name": "ada"})
	}), staticTokens{token: "tok-123"})

	if _, err := client.Profile(context.Background()); err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("Authorization header = %q", gotAuth)
	}
}

func TestMissingCredentialFailsWithoutNetwork(t *testing.T) {
	var hit bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}), staticTokens{err: errs.NewError(errs.ErrUnauthenticated)})

	_, err := client.Profile(context.Background())
	if !errs.IsAuthentication(err) {
		t.Fatalf("Profile without credential = %v, want authentication error", err)
	}
	if hit {
		t.Fatal("request reached the server despite a locally absent credential")
	}
}

func TestRejectedCredentialIsAuthenticationError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}), staticTokens{token: "stale"})

	_, err := client.GetChat(context.Background(), 7)
	if !errs.IsAuthentication(err) {
		t.Fatalf("GetChat with rejected credential = %v, want authentication error", err)
	}
}

func TestLoginRejectionIsInvalidCredentials(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid email or password"})
	}), nil)

	_, err := client.Login(context.Background(), "a@b.c", "nope")
	var ce *errs.CustomError
	if !errors.As(err, &ce) || ce.Code != errs.ErrInvalidCredentials {
		t.Fatalf("Login rejection = %v, want invalid-credentials error", err)
	}
}

func TestSendMessageCarriesCorrelationID(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/message" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{
			"id": 42, "chatId": 7, "senderId": 1,
			"message": got["message"], "correlationId": got["correlationId"],
		})
	}), staticTokens{token: "tok"})

	msg, err := client.SendMessage(context.Background(), 7, 1, "hi", "corr-9")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if got["correlationId"] != "corr-9" {
		t.Fatalf("request body correlationId = %v", got["correlationId"])
	}
	if msg.ID != 42 || msg.CorrelationID != "corr-9" {
		t.Fatalf("echoed message = %+v", msg)
	}
}

func TestUnreachableBackendIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := NewClient(srv.URL, time.Second, staticTokens{token: "tok"})
	_, err := client.GetChat(context.Background(), 7)
	if !errs.IsNetwork(err) {
		t.Fatalf("GetChat against closed server = %v, want network error", err)
	}
}

func TestChatsForUserUnwrapsEnvelope(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/user/3" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"chats":[{"id":7,"isGroup":false},{"id":8,"isGroup":true}]}`))
	}), staticTokens{token: "tok"})

	chats, err := client.ChatsForUser(context.Background(), 3)
	if err != nil {
		t.Fatalf("ChatsForUser: %v", err)
	}
	if len(chats) != 2 || chats[0].ID != 7 || !chats[1].IsGroup {
		t.Fatalf("chats = %+v", chats)
	}
}

func TestUploadAvatarSendsMultipart(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("avatar")
		if err != nil {
			t.Errorf("missing avatar form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		if header.Filename != "me.png" {
			t.Errorf("filename = %q", header.Filename)
		}
		json.NewEncoder(w).Encode(map[string]string{"url": "/avatar/abc.png"})
	}), nil)

	url, err := client.UploadAvatar(context.Background(), "me.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("UploadAvatar: %v", err)
	}
	if url != "/avatar/abc.png" {
		t.Fatalf("url = %q", url)
	}
}
