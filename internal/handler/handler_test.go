package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"parley/internal/app/chat"
	"parley/internal/app/storage"
	"parley/internal/app/store"
	"parley/internal/configs"
	"parley/internal/pkg/auth/jwt"
)

func newTestRouter(t *testing.T) (*AppDeps, http.Handler) {
	t.Helper()

	blobs, err := storage.NewBlobStore(storage.ServiceConfig{})
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}

	deps := &AppDeps{
		Config: &configs.ServerConfig{
			Environment:    "development",
			Port:           8080,
			JWTSecret:      "handler-test-secret",
			AllowedOrigins: []string{},
		},
		Store: store.New(),
		Blobs: blobs,
	}
	return deps, Router(deps)
}

// seedUser registers an account directly in the store and mints its token,
// bypassing the auth endpoints and their rate limiter.
func seedUser(t *testing.T, deps *AppDeps, name string) (chat.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	user, err := deps.Store.CreateUser(name, name+"@example.com", "", hash)
	if err != nil {
		t.Fatalf("seeding user %s: %v", name, err)
	}

	token, err := jwt.GenerateToken(&jwt.Payload{UserID: user.ID, Email: user.Email}, deps.Config.JWTSecret, jwt.SessionExpiration)
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}
	return user, token
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func TestSignupLoginProfileFlow(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/signup", "", map[string]string{
		"name": "Ada", "email": "Ada@Example.com", "password": "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body.String())
	}
	var signup struct {
		AccessToken string `json:"access_token"`
	}
	decodeInto(t, rec, &signup)
	if signup.AccessToken == "" {
		t.Fatal("signup returned no access token")
	}

	// The stored email is normalized, so login with lowercase works.
	rec = doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var login struct {
		AccessToken string `json:"access_token"`
	}
	decodeInto(t, rec, &login)

	rec = doJSON(t, router, http.MethodGet, "/auth/profile", login.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile status = %d, body %s", rec.Code, rec.Body.String())
	}
	var profile chat.User
	decodeInto(t, rec, &profile)
	if profile.Name != "Ada" || profile.Email != "ada@example.com" {
		t.Fatalf("profile = %+v", profile)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	deps, router := newTestRouter(t)
	seedUser(t, deps, "ada")

	for _, creds := range []map[string]string{
		{"email": "ada@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": "password123"},
	} {
		rec := doJSON(t, router, http.MethodPost, "/auth/login", "", creds)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("login %v status = %d, want 401", creds, rec.Code)
		}
		var body map[string]string
		decodeInto(t, rec, &body)
		if body["error"] == "" {
			t.Fatalf("error body = %s", rec.Body.String())
		}
	}
}

func TestSignupValidation(t *testing.T) {
	_, router := newTestRouter(t)

	cases := []struct {
		name  string
		input map[string]string
	}{
		{"bad email", map[string]string{"name": "x", "email": "not-an-email", "password": "password123"}},
		{"short password", map[string]string{"name": "x", "email": "a@b.co", "password": "short"}},
		{"empty name", map[string]string{"name": "  ", "email": "a@b.co", "password": "password123"}},
	}
	for _, tc := range cases {
		rec := doJSON(t, router, http.MethodPost, "/auth/signup", "", tc.input)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, rec.Code)
		}
	}
}

func TestAuthedRoutesRejectMissingToken(t *testing.T) {
	_, router := newTestRouter(t)

	for _, path := range []string{"/auth/profile", "/user", "/chat/1", "/chat/user/1"} {
		rec := doJSON(t, router, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token: status = %d, want 401", path, rec.Code)
		}
	}

	rec := doJSON(t, router, http.MethodGet, "/chat/1", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", rec.Code)
	}
}

func TestChatLifecycle(t *testing.T) {
	deps, router := newTestRouter(t)
	ada, adaToken := seedUser(t, deps, "ada")
	bert, _ := seedUser(t, deps, "bert")
	carla, carlaToken := seedUser(t, deps, "carla")

	rec := doJSON(t, router, http.MethodPost, "/chat", adaToken, map[string]any{
		"userIds": []int64{ada.ID, bert.ID},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create chat status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created chat.Chat
	decodeInto(t, rec, &created)
	if created.ID == 0 || created.IsGroup || len(created.Users) != 2 {
		t.Fatalf("created chat = %+v", created)
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/chat/%d", created.ID), adaToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get chat status = %d", rec.Code)
	}

	// Full replacement with the grown participant set.
	rec = doJSON(t, router, http.MethodPut, fmt.Sprintf("/chat/%d", created.ID), adaToken, map[string]any{
		"isGroup": true,
		"userIds": []int64{ada.ID, bert.ID, carla.ID},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update chat status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated chat.Chat
	decodeInto(t, rec, &updated)
	if len(updated.Users) != 3 || !updated.IsGroup {
		t.Fatalf("updated chat = %+v", updated)
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/chat/user/%d", carla.ID), carlaToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("chats for user status = %d", rec.Code)
	}
	var list struct {
		Chats []chat.Chat `json:"chats"`
	}
	decodeInto(t, rec, &list)
	if len(list.Chats) != 1 || list.Chats[0].ID != created.ID {
		t.Fatalf("chat list = %+v", list)
	}

	rec = doJSON(t, router, http.MethodGet, "/chat/999", adaToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing chat status = %d, want 404", rec.Code)
	}
}

func TestPostMessage(t *testing.T) {
	deps, router := newTestRouter(t)
	ada, adaToken := seedUser(t, deps, "ada")
	bert, _ := seedUser(t, deps, "bert")
	mallory, outsiderToken := seedUser(t, deps, "mallory")

	conv, err := deps.Store.CreateChat([]int64{ada.ID, bert.ID})
	if err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, router, http.MethodPost, "/message", adaToken, map[string]any{
		"chatId": conv.ID, "senderId": ada.ID, "message": "hi", "correlationId": "corr-7",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("post message status = %d, body %s", rec.Code, rec.Body.String())
	}
	var msg chat.Message
	decodeInto(t, rec, &msg)
	if msg.ID == 0 || msg.Body != "hi" || msg.CorrelationID != "corr-7" {
		t.Fatalf("stored message = %+v", msg)
	}
	if msg.Timestamp.IsZero() {
		t.Fatal("stored message has no server timestamp")
	}

	// Claiming another sender id is rejected.
	rec = doJSON(t, router, http.MethodPost, "/message", adaToken, map[string]any{
		"chatId": conv.ID, "senderId": bert.ID, "message": "spoofed", "correlationId": "",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("spoofed sender status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/message", adaToken, map[string]any{
		"chatId": conv.ID, "senderId": ada.ID, "message": "   ", "correlationId": "",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank message status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/message", outsiderToken, map[string]any{
		"chatId": conv.ID, "senderId": mallory.ID, "message": "let me in", "correlationId": "",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-participant status = %d, want 403", rec.Code)
	}
}

func TestAvatarUploadAndDownload(t *testing.T) {
	_, router := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("avatar", "me.png")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("png-bytes"))
	mw.Close()

	r := httptest.NewRequest(http.MethodPost, "/avatar", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out struct {
		URL string `json:"url"`
	}
	decodeInto(t, rec, &out)
	if out.URL == "" {
		t.Fatal("upload returned no url")
	}

	rec = doJSON(t, router, http.MethodGet, out.URL, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download status = %d", rec.Code)
	}
	if rec.Body.String() != "png-bytes" {
		t.Fatalf("downloaded body = %q", rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	var body map[string]string
	decodeInto(t, rec, &body)
	if body["status"] != "ok" {
		t.Fatalf("health body = %s", rec.Body.String())
	}
}
