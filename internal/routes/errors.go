package routes

import (
	"errors"
	"net/http"

	"barrier-access-control/internal/barrier"
	"barrier-access-control/internal/burn"
	"barrier-access-control/internal/storage"
	"barrier-access-control/internal/token"
)

// HTTPError represents an error with an associated HTTP status code and user message
type HTTPError struct {
	Err        error    // The underlying error
	StatusCode int      // HTTP status code
	Message    string   // User-friendly message
	StopCodes  []string // Optional stop codes for client-side handling
}

// ErrorInfo contains error metadata for user-facing errors
type ErrorInfo struct {
	Message   string   // User-friendly message
	StopCodes []string // Optional stop codes for client-side application
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func NewHTTPError(statusCode int, err error, message string, stopCodes ...string) *HTTPError {
	return &HTTPError{
		Err:        err,
		StatusCode: statusCode,
		Message:    message,
		StopCodes:  stopCodes,
	}
}

// Routes-specific errors (domain packages carry their own sentinels)
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrInvalidRequest = errors.New("invalid request")

	ErrInternalServer = errors.New("internal server error")
)

// errorStatusMap maps errors to HTTP status codes
var errorStatusMap = map[error]int{
	// 400 Bad Request
	ErrInvalidRequest:            http.StatusBadRequest,
	barrier.ErrInvalidDuration:   http.StatusBadRequest,
	storage.ErrInvalidCardWindow: http.StatusBadRequest,

	// 401 Unauthorized
	ErrUnauthorized:        http.StatusUnauthorized,
	ErrInvalidCredentials:  http.StatusUnauthorized,
	token.ErrNonValidToken: http.StatusUnauthorized,
	token.ErrTokenRevoked:  http.StatusUnauthorized,

	// 404 Not Found
	storage.ErrCardNotFound: http.StatusNotFound,

	// 409 Conflict
	burn.ErrBurnAlreadyPending: http.StatusConflict,
	storage.ErrDuplicateUid:    http.StatusConflict,

	// 500 Internal Server Error
	ErrInternalServer: http.StatusInternalServerError,
}

// errorInfoMap maps errors to user-friendly messages and optional stop codes
var errorInfoMap = map[error]ErrorInfo{
	ErrUnauthorized: {
		Message:   "Authentication required",
		StopCodes: []string{"AUTH_REQUIRED"},
	},
	ErrInvalidCredentials: {
		Message:   "Invalid credentials provided",
		StopCodes: []string{"AUTH_INVALID_CREDENTIALS"},
	},
	token.ErrNonValidToken: {
		Message:   "Invalid or expired authentication token",
		StopCodes: []string{"AUTH_INVALID_TOKEN"},
	},
	token.ErrTokenRevoked: {
		Message:   "Authentication token has been revoked",
		StopCodes: []string{"AUTH_TOKEN_REVOKED"},
	},

	ErrInvalidRequest: {
		Message:   "Invalid request format",
		StopCodes: []string{"INVALID_REQUEST"},
	},
	barrier.ErrInvalidDuration: {
		Message:   "Barrier open duration must not be negative",
		StopCodes: []string{"INVALID_DURATION"},
	},
	storage.ErrInvalidCardWindow: {
		Message:   "Card validity window is inverted",
		StopCodes: []string{"INVALID_CARD_WINDOW"},
	},

	storage.ErrCardNotFound: {
		Message:   "Card not found",
		StopCodes: []string{"CARD_NOT_FOUND"},
	},

	burn.ErrBurnAlreadyPending: {
		Message:   "A burn request is already in flight",
		StopCodes: []string{"BURN_PENDING"},
	},
	storage.ErrDuplicateUid: {
		Message:   "A card with this uid already exists",
		StopCodes: []string{"DUPLICATE_UID"},
	},

	// Internal (no stop codes for internal errors)
	ErrInternalServer: {
		Message: "An internal error occurred",
	},
}

// GetErrorStatus returns the HTTP status code for an error
func GetErrorStatus(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}

	if status, ok := errorStatusMap[err]; ok {
		return status
	}

	// Check if error wraps a known error
	for knownErr, status := range errorStatusMap {
		if errors.Is(err, knownErr) {
			return status
		}
	}

	return http.StatusInternalServerError
}

// GetErrorInfo returns error information including message and stop codes
func GetErrorInfo(err error) ErrorInfo {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return ErrorInfo{
			Message:   httpErr.Message,
			StopCodes: httpErr.StopCodes,
		}
	}

	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	for knownErr, info := range errorInfoMap {
		if errors.Is(err, knownErr) {
			return info
		}
	}

	// For unknown errors, return a generic message for 5xx, specific for others
	status := GetErrorStatus(err)
	if status >= 500 {
		return ErrorInfo{Message: "An internal error occurred"}
	}
	return ErrorInfo{Message: err.Error()}
}
