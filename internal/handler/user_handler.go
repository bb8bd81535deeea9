/*
Package handler provides the development server's HTTP handlers and routing.

This file implements the user directory endpoint backing the client's
"start a chat" and "add people" pickers.
*/
package handler

import (
	"net/http"

	"parley/internal/pkg/resp"
)

// HandleListUsers returns every registered user.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondOK(w, r, deps.Store.ListUsers())
	}
}
