/*
Package api is the HTTP data-access layer for the chat backend.

It speaks the backend's REST contract, attaches the session credential to
every authenticated request, and maps transport and status failures onto the
application's error taxonomy: 401 becomes the authentication error that routes
to the login flow, everything else a network error the caller may surface as a
transient indicator.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"parley/internal/app/chat"
	"parley/internal/pkg/errs"
	"parley/internal/pkg/logx"
)

// TokenSource supplies the current session credential. An authentication
// error from it fails the request before anything is sent.
type TokenSource interface {
	Token() (string, error)
}

// Client issues requests against one backend base URL.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenSource
	logger  zerolog.Logger
}

// NewClient constructs a Client. tokens may be nil for a client that only
// performs the unauthenticated auth endpoints.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logx.Logger().With().Str("component", "api").Logger(),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type updateChatRequest struct {
	IsGroup bool    `json:"isGroup"`
	UserIDs []int64 `json:"userIds"`
}

type createChatRequest struct {
	UserIDs []int64 `json:"userIds"`
}

type sendMessageRequest struct {
	ChatID        int64  `json:"chatId"`
	SenderID      int64  `json:"senderId"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId"`
}

type chatListResponse struct {
	Chats []chat.Chat `json:"chats"`
}

type avatarResponse struct {
	URL string `json:"url"`
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &out, false); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

// Signup creates an account and returns its access token. avatar is the URL
// of a previously uploaded avatar image and may be empty.
func (c *Client) Signup(ctx context.Context, name, email, password, avatar string) (string, error) {
	var out tokenResponse
	in := signupRequest{Name: name, Email: email, Password: password, Avatar: avatar}
	if err := c.do(ctx, http.MethodPost, "/auth/signup", in, &out, false); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

// Profile resolves the identity behind the current credential.
func (c *Client) Profile(ctx context.Context) (chat.User, error) {
	var out chat.User
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &out, true); err != nil {
		return chat.User{}, err
	}
	return out, nil
}

// ListUsers returns every registered user.
func (c *Client) ListUsers(ctx context.Context) ([]chat.User, error) {
	var out []chat.User
	if err := c.do(ctx, http.MethodGet, "/user", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// GetChat fetches a chat's full canonical state: membership and message log.
func (c *Client) GetChat(ctx context.Context, chatID int64) (*chat.Chat, error) {
	var out chat.Chat
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/chat/%d", chatID), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateChatMembers replaces a chat's participant-id list.
func (c *Client) UpdateChatMembers(ctx context.Context, chatID int64, isGroup bool, userIDs []int64) (*chat.Chat, error) {
	var out chat.Chat
	in := updateChatRequest{IsGroup: isGroup, UserIDs: userIDs}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/chat/%d", chatID), in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatsForUser lists the chats a user participates in.
func (c *Client) ChatsForUser(ctx context.Context, userID int64) ([]chat.Chat, error) {
	var out chatListResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/chat/user/%d", userID), nil, &out, true); err != nil {
		return nil, err
	}
	return out.Chats, nil
}

// CreateChat creates a chat with the given initial participants.
func (c *Client) CreateChat(ctx context.Context, userIDs []int64) (*chat.Chat, error) {
	var out chat.Chat
	if err := c.do(ctx, http.MethodPost, "/chat", createChatRequest{UserIDs: userIDs}, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessage persists a message. The correlation id travels with the write so
// the canonical result can be matched to the optimistic placeholder exactly.
func (c *Client) SendMessage(ctx context.Context, chatID, senderID int64, body, correlationID string) (*chat.Message, error) {
	var out chat.Message
	in := sendMessageRequest{ChatID: chatID, SenderID: senderID, Message: body, CorrelationID: correlationID}
	if err := c.do(ctx, http.MethodPost, "/message", in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadAvatar uploads an avatar image and returns the URL to reference in
// signup. The endpoint is unauthenticated because signup precedes login.
func (c *Client) UploadAvatar(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("avatar", filename)
	if err != nil {
		return "", errs.NewError(errs.ErrUnknown, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", errs.NewError(errs.ErrUnknown, err)
	}
	if err := mw.Close(); err != nil {
		return "", errs.NewError(errs.ErrUnknown, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/avatar", &buf)
	if err != nil {
		return "", errs.NewError(errs.ErrUnknown, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	res, err := c.httpc.Do(req)
	if err != nil {
		return "", errs.NewError(errs.ErrNetwork)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", c.statusError(res.StatusCode, false)
	}

	var out avatarResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", errs.NewError(errs.ErrRemoteStatus, res.StatusCode)
	}
	return out.URL, nil
}

// do performs one JSON round trip. authed requests carry the bearer token; a
// missing or expired credential fails locally, before the request is sent.
func (c *Client) do(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errs.NewError(errs.ErrUnknown, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errs.NewError(errs.ErrUnknown, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authed {
		if c.tokens == nil {
			return errs.NewError(errs.ErrUnauthenticated)
		}
		token, err := c.tokens.Token()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Debug().Str("method", method).Str("path", path).Err(err).Msg("request failed")
		return errs.NewError(errs.ErrNetwork)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return c.statusError(res.StatusCode, authed)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errs.NewError(errs.ErrRemoteStatus, res.StatusCode)
	}
	return nil
}

// statusError maps a non-2xx status to the error taxonomy. On authenticated
// requests a 401 always means "not logged in", whatever the reason; on the
// auth endpoints themselves it means the credentials were wrong.
func (c *Client) statusError(status int, authed bool) error {
	switch {
	case status == http.StatusUnauthorized && authed:
		return errs.NewError(errs.ErrUnauthenticated)
	case status == http.StatusUnauthorized:
		return errs.NewError(errs.ErrInvalidCredentials)
	case status == http.StatusConflict:
		return errs.NewError(errs.ErrUserAlreadyExists)
	default:
		return errs.NewError(errs.ErrRemoteStatus, status)
	}
}
