/*
Package handler provides the development server's HTTP handlers and routing.

This file implements the chat endpoints the client's poll loop and
membership manager consume, plus message persistence.
*/
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"parley/internal/app/chat"
	"parley/internal/pkg/errs"
	"parley/internal/pkg/req"
	"parley/internal/pkg/resp"
)

type createChatInput struct {
	UserIDs []int64 `json:"userIds"`
}

type updateChatInput struct {
	IsGroup bool    `json:"isGroup"`
	UserIDs []int64 `json:"userIds"`
}

type chatListOutput struct {
	Chats []chat.Chat `json:"chats"`
}

type postMessageInput struct {
	ChatID        int64  `json:"chatId"`
	SenderID      int64  `json:"senderId"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId"`
}

// pathID parses the named numeric URL parameter.
func pathID(r *http.Request, name string) (int64, *errs.CustomError) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.NewError(errs.ErrInvalidParams)
	}
	return id, nil
}

// respondStoreError writes a store failure, defaulting to the unknown error
// for anything that is not a CustomError.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if customErr, ok := err.(*errs.CustomError); ok {
		resp.RespondError(w, r, customErr)
		return
	}
	resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
}

// HandleCreateChat creates a conversation with the given initial participants.
func HandleCreateChat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input createChatInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		created, err := deps.Store.CreateChat(input.UserIDs)
		if err != nil {
			respondStoreError(w, r, err)
			return
		}

		resp.RespondOK(w, r, created)
	}
}

// HandleGetChat returns a chat's canonical state, full membership and message
// log. This is the endpoint the client polls.
func HandleGetChat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatID, customErr := pathID(r, "id")
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		canonical, err := deps.Store.Chat(chatID)
		if err != nil {
			respondStoreError(w, r, err)
			return
		}

		resp.RespondOK(w, r, canonical)
	}
}

// HandleUpdateChat replaces a chat's participant-id list as sent, full
// replacement semantics. Duplicate ids collapse, making member addition via
// union idempotent.
func HandleUpdateChat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatID, customErr := pathID(r, "id")
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input updateChatInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		updated, err := deps.Store.UpdateChatMembers(chatID, input.IsGroup, input.UserIDs)
		if err != nil {
			respondStoreError(w, r, err)
			return
		}

		resp.RespondOK(w, r, updated)
	}
}

// HandleChatsForUser lists the chats a user participates in.
func HandleChatsForUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, customErr := pathID(r, "userId")
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondOK(w, r, chatListOutput{Chats: deps.Store.ChatsForUser(userID)})
	}
}

// HandlePostMessage persists a message. The sender must be the authenticated
// user; the client's correlation id is echoed on the stored message so the
// optimistic placeholder can be matched exactly.
func HandlePostMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, customErr := currentUser(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input postMessageInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.SenderID != user.ID {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		body := strings.TrimSpace(input.Message)
		if body == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrEmptyMessage))
			return
		}

		msg, err := deps.Store.AppendMessage(input.ChatID, input.SenderID, body, input.CorrelationID)
		if err != nil {
			respondStoreError(w, r, err)
			return
		}

		resp.RespondOK(w, r, msg)
	}
}
