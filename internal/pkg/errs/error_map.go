/*
Package errs provides the application's error type and error code constants.

This file defines the map from error codes to the CustomError struct, used to
standardize HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
// The key is the error code, the value carries the user message and HTTP status.
var errorMap = map[int]CustomError{
	// 1xxx: Validation Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrFormParseFailed:      {Code: ErrFormParseFailed, Message: "Failed to process uploaded data.", Status: http.StatusBadRequest},
	ErrInvalidEmail:         {Code: ErrInvalidEmail, Message: "Please enter a valid email address.", Status: http.StatusBadRequest},
	ErrInvalidPassword:      {Code: ErrInvalidPassword, Message: "Password must be between 6 and 50 characters.", Status: http.StatusBadRequest},
	ErrInvalidName:          {Code: ErrInvalidName, Message: "Please enter a display name.", Status: http.StatusBadRequest},
	ErrEmptyMessage:         {Code: ErrEmptyMessage, Message: "Message cannot be empty.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Chat and User Domain Errors
	ErrChatNotFound:       {Code: ErrChatNotFound, Message: "Chat not found.", Status: http.StatusNotFound},
	ErrChatNoParticipants: {Code: ErrChatNoParticipants, Message: "A chat needs at least one participant.", Status: http.StatusBadRequest},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "Account not found.", Status: http.StatusNotFound},
	ErrUserAlreadyExists:  {Code: ErrUserAlreadyExists, Message: "This email is already registered.", Status: http.StatusConflict},
	ErrNotParticipant:     {Code: ErrNotParticipant, Message: "You are not a member of this chat.", Status: http.StatusForbidden},

	// 3xxx: Authentication Errors
	ErrUnauthenticated:    {Code: ErrUnauthenticated, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Incorrect email or password.", Status: http.StatusUnauthorized},

	// 4xxx: Network Errors
	ErrNetwork:      {Code: ErrNetwork, Message: "Could not reach the server. Please try again.", Status: http.StatusServiceUnavailable},
	ErrRemoteStatus: {Code: ErrRemoteStatus, Message: "The server returned an unexpected response (%d).", Status: http.StatusBadGateway},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
