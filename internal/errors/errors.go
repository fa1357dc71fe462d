package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Loadout error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrItemNotFound   ErrorCode = "ITEM_NOT_FOUND"  // 404
	ErrNotAHull       ErrorCode = "NOT_A_HULL"      // 422
	ErrNothingToUndo  ErrorCode = "NOTHING_TO_UNDO" // 409
	ErrNothingToRedo  ErrorCode = "NOTHING_TO_REDO" // 409
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// LoadoutError represents a structured error with code, status, and details.
type LoadoutError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *LoadoutError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *LoadoutError {
	return &LoadoutError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a fit cannot be found.
func NewNotFound(fitID string) *LoadoutError {
	return &LoadoutError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("fit not found: %s", fitID),
		Details: map[string]any{"fit_id": fitID},
	}
}

// NewItemNotFound creates a 404 error for an unknown catalog reference.
func NewItemNotFound(ref string) *LoadoutError {
	return &LoadoutError{
		Code:    ErrItemNotFound,
		Status:  404,
		Message: fmt.Sprintf("item not found: %s", ref),
		Details: map[string]any{"item": ref},
	}
}

// NewNotAHull creates a 422 error when a fit is created on a non-hull item.
func NewNotAHull(name string) *LoadoutError {
	return &LoadoutError{
		Code:    ErrNotAHull,
		Status:  422,
		Message: fmt.Sprintf("item %q is not a hull", name),
		Details: map[string]any{"item": name},
	}
}

// NewNothingToUndo creates a 409 error when a fit's undo stack is empty.
func NewNothingToUndo(fitID string) *LoadoutError {
	return &LoadoutError{
		Code:    ErrNothingToUndo,
		Status:  409,
		Message: fmt.Sprintf("nothing to undo for fit %s", fitID),
		Details: map[string]any{"fit_id": fitID},
	}
}

// NewNothingToRedo creates a 409 error when a fit's redo stack is empty.
func NewNothingToRedo(fitID string) *LoadoutError {
	return &LoadoutError{
		Code:    ErrNothingToRedo,
		Status:  409,
		Message: fmt.Sprintf("nothing to redo for fit %s", fitID),
		Details: map[string]any{"fit_id": fitID},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the original error is kept in Details for logging.
func NewInternal(err error) *LoadoutError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &LoadoutError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error (or anything it wraps) is a LoadoutError with the given code.
func Is(err error, code ErrorCode) bool {
	var lErr *LoadoutError
	if stderrors.As(err, &lErr) {
		return lErr.Code == code
	}
	return false
}
