package utils

import (
	"errors"
	"net/http"
)

// AppError is the error every actor reply and handler reports. Code selects
// the HTTP status; Message is safe to show to clients.
type AppError struct {
	Code    string
	Message string
	Origin  error // Original error that caused this error, if any
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

func (appErr *AppError) Unwrap() error {
	return appErr.Origin
}

const (
	// Resource errors
	ErrNotFound     = "NOT_FOUND"
	ErrDuplicate    = "DUPLICATE"
	ErrInvalidInput = "INVALID_INPUT"
	ErrInvalidID    = "INVALID_ID" // malformed identifier, reported as not found

	// Authentication/Authorization errors
	ErrUnauthorized = "UNAUTHORIZED"
	ErrForbidden    = "FORBIDDEN" // User is authenticated but doesn't have permission
	ErrInvalidToken = "INVALID_TOKEN"
	ErrTokenIssue   = "TOKEN_ISSUE_FAILED" // signing failed; a server fault

	// User-specific errors
	ErrUserNotFound       = "USER_NOT_FOUND"
	ErrUserAlreadyExists  = "USER_ALREADY_EXISTS"
	ErrInvalidCredentials = "INVALID_CREDENTIALS"
	ErrSelfFollow         = "SELF_FOLLOW"

	// Post-specific errors
	ErrPostNotFound    = "POST_NOT_FOUND"
	ErrCommentNotFound = "COMMENT_NOT_FOUND"

	// Actor communication errors
	ErrActorTimeout    = "ACTOR_TIMEOUT"
	ErrMessageRejected = "MESSAGE_REJECTED"

	ErrDatabase = "database_error"
)

// statusByCode is the single code-to-HTTP mapping. Unknown codes are 500.
var statusByCode = map[string]int{
	ErrNotFound:           http.StatusNotFound,
	ErrUserNotFound:       http.StatusNotFound,
	ErrPostNotFound:       http.StatusNotFound,
	ErrCommentNotFound:    http.StatusNotFound,
	ErrInvalidID:          http.StatusNotFound,
	ErrInvalidInput:       http.StatusBadRequest,
	ErrSelfFollow:         http.StatusBadRequest,
	ErrUnauthorized:       http.StatusUnauthorized,
	ErrInvalidToken:       http.StatusUnauthorized,
	ErrInvalidCredentials: http.StatusUnauthorized,
	ErrForbidden:          http.StatusForbidden,
	ErrDuplicate:          http.StatusConflict,
	ErrUserAlreadyExists:  http.StatusConflict,
}

func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

// Wrap records err as the cause and returns the receiver.
func (appErr *AppError) Wrap(err error) *AppError {
	appErr.Origin = err
	return appErr
}

// Status is the HTTP status the error is reported with.
func (appErr *AppError) Status() int {
	return AppErrorToHTTPStatus(appErr.Code)
}

func NewUserNotFoundError(userID string) *AppError {
	return NewAppError(ErrUserNotFound, "User not found: "+userID, nil)
}

func NewPostNotFoundError(postID string) *AppError {
	return NewAppError(ErrPostNotFound, "Post not found: "+postID, nil)
}

func NewUnauthorizedError(reason string) *AppError {
	return NewAppError(ErrUnauthorized, "Unauthorized: "+reason, nil)
}

// NewInvalidIDError is reported as not found; a malformed id names nothing.
func NewInvalidIDError(id string) *AppError {
	return NewAppError(ErrInvalidID, "Invalid ID: "+id, nil)
}

func NewInvalidInputError(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, nil)
}

func NewDatabaseError(message string, originalErr error) *AppError {
	return NewAppError(ErrDatabase, message, originalErr)
}

func NewActorTimeoutError(actorName string) *AppError {
	return NewAppError(ErrActorTimeout, "Actor communication timeout: "+actorName, nil)
}

// AsAppError finds the first *AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsErrorCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsNotFound reports whether err is any of the not-found codes.
func IsNotFound(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Status() == http.StatusNotFound
}

// IsAuthError reports whether err was caused by the caller's identity or
// permissions rather than by the server.
func IsAuthError(err error) bool {
	appErr, ok := AsAppError(err)
	if !ok {
		return false
	}
	status := appErr.Status()
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code.
func AppErrorToHTTPStatus(errorCode string) int {
	if status, ok := statusByCode[errorCode]; ok {
		return status
	}
	return http.StatusInternalServerError
}
