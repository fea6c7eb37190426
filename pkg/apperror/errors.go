package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to outbound error events.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

func ErrInvalidAmount() *AppError {
	return New("VAL_001", "Deposit amount must be greater than zero", http.StatusBadRequest)
}

func ErrInvalidChoice() *AppError {
	return New("VAL_002", "Choice must be either over or under", http.StatusBadRequest)
}

// ---- Game State (GAME) ----

func ErrInsufficientBalance() *AppError {
	return New("GAME_001", "Insufficient wallet balance", http.StatusConflict)
}

func ErrDepositWhilePlaying() *AppError {
	return New("GAME_002", "Cannot deposit while a round is in progress", http.StatusConflict)
}

func ErrSessionNotPlaying() *AppError {
	return New("GAME_003", "Session has not been started", http.StatusConflict)
}

func ErrNotFound(entity string) *AppError {
	return New("GAME_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrEmptyTableStake() *AppError {
	return New("GAME_005", "Table stake is empty, deposit before starting", http.StatusConflict)
}

func ErrSessionAlreadyPlaying() *AppError {
	return New("GAME_006", "Session is already in progress", http.StatusConflict)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error. The wrapped
// cause is logged server-side, never sent to the player.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
