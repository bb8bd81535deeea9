/*
Package resp provides helpers for writing the development server's HTTP responses.

The backend contract the client consumes is plain JSON shapes, not an
envelope: success responses serialize the payload directly, failures carry
{"error": "..."} with the HTTP status the error maps to.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"parley/internal/pkg/errs"
	"parley/internal/pkg/logx"
)

// errorBody is the wire shape of every failure response.
type errorBody struct {
	Error string `json:"error"`
}

// RespondJSON writes payload as the response body with the given status.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(
			err,
			"Error encoding JSON response",
			"http_status", httpStatus,
		)

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	w.Write(response)
}

// RespondOK writes payload with HTTP 200.
func RespondOK(w http.ResponseWriter, r *http.Request, payload any) {
	RespondJSON(w, r, http.StatusOK, payload)
}

// RespondError writes the error's user-facing message with its HTTP status.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	status := customErr.Status
	if status == 0 || status == http.StatusOK {
		status = http.StatusInternalServerError
	}

	RespondJSON(w, r, status, errorBody{Error: customErr.Message})
}
