/*
Package errs provides the application's error type and error code constants.

Code families group errors by how callers must react to them: 1xxx is handled
inline in the presentation layer, 3xxx always routes to the login flow, 4xxx
is transient and recovered by the next poll tick for reads.
*/
package errs

// 1xxx: Validation Errors (form-level, never sent to the network)
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that a request body was not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrFormParseFailed indicates failure to parse multipart form data.
	ErrFormParseFailed = 1005

	// ErrInvalidEmail indicates an empty or malformed email address.
	ErrInvalidEmail = 1101

	// ErrInvalidPassword indicates a password outside the accepted length range.
	ErrInvalidPassword = 1102

	// ErrInvalidName indicates an empty or malformed display name.
	ErrInvalidName = 1103

	// ErrEmptyMessage indicates a message body that is empty after trimming.
	ErrEmptyMessage = 1201

	// ErrRateLimitExceeded indicates that the request rate exceeded the limit.
	ErrRateLimitExceeded = 1301
)

// 2xxx: Chat and User Domain Errors
const (
	// ErrChatNotFound indicates that the requested chat id does not exist.
	ErrChatNotFound = 2101

	// ErrChatNoParticipants indicates an attempt to create a chat without participants.
	ErrChatNoParticipants = 2102

	// ErrUserNotFound indicates that the referenced user id does not exist.
	ErrUserNotFound = 2201

	// ErrUserAlreadyExists indicates that the signup email is already taken.
	ErrUserAlreadyExists = 2202

	// ErrNotParticipant indicates a message send from a user outside the chat.
	ErrNotParticipant = 2301
)

// 3xxx: Authentication Errors
const (
	// ErrUnauthenticated covers every credential failure: absent, expired, or
	// rejected. The distinction is deliberately not exposed; callers treat all
	// three as "not logged in" and route to the login flow.
	ErrUnauthenticated = 3001

	// ErrInvalidCredentials indicates a failed login attempt (wrong email or password).
	ErrInvalidCredentials = 3002
)

// 4xxx: Network Errors
const (
	// ErrNetwork indicates a transport-level failure reaching the backend.
	ErrNetwork = 4001

	// ErrRemoteStatus indicates an unexpected HTTP status from the backend.
	ErrRemoteStatus = 4002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal error.
	ErrUnknown = 5000
)
