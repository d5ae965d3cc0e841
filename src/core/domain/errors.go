package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the domain unwraps to exactly one
// of these, which is what the transport layers map to status codes.
var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when a command breaks a game rule or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized is returned when the caller has not identified itself.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller is not allowed to act on the game.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when a write raced another writer.
	ErrConflict = errors.New("conflict")

	// ErrInternal marks states that should be impossible: corrupt history or a broken invariant.
	ErrInternal = errors.New("internal error")
)

// Specific error kinds.
var (
	ErrRoomFull           = errors.New("room is full")
	ErrDuplicatePlayer    = errors.New("player already in room")
	ErrNotRoomMember      = errors.New("player is not a member of the room")
	ErrWrongPlayerCount   = errors.New("wrong number of players")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrInvalidCardIndex   = errors.New("invalid card index")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrGameNotStarted     = errors.New("game not started")
	ErrGameOver           = errors.New("game is over")

	ErrAggregateNotFound   = errors.New("aggregate not found")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrRetryExhausted      = errors.New("retry budget exhausted")

	ErrInvariantViolation = errors.New("invariant violation")
	ErrUnknownEventType   = errors.New("unknown event type")
)

var kindCategory = map[error]error{
	ErrRoomFull:            ErrInvalidInput,
	ErrDuplicatePlayer:     ErrInvalidInput,
	ErrWrongPlayerCount:    ErrInvalidInput,
	ErrNotYourTurn:         ErrInvalidInput,
	ErrInvalidCardIndex:    ErrInvalidInput,
	ErrGameAlreadyStarted:  ErrInvalidInput,
	ErrGameNotStarted:      ErrInvalidInput,
	ErrGameOver:            ErrInvalidInput,
	ErrNotRoomMember:       ErrForbidden,
	ErrPlayerNotFound:      ErrNotFound,
	ErrAggregateNotFound:   ErrNotFound,
	ErrConcurrencyConflict: ErrConflict,
	ErrRetryExhausted:      ErrConflict,
	ErrInvariantViolation:  ErrInternal,
	ErrUnknownEventType:    ErrInternal,
}

// DomainError wraps a base error with additional context.
type DomainError struct {
	// Base is the category (e.g., ErrNotFound).
	Base error

	// Kind is the specific error (e.g., ErrRoomFull). Optional.
	Kind error

	// Message provides human-readable context.
	Message string

	// Field indicates which field caused the error (for validation errors).
	Field string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	head := e.Base.Error()
	if e.Kind != nil {
		head = e.Kind.Error()
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", head, e.Message, e.Field)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", head, e.Message)
	}
	return head
}

// Unwrap exposes both the kind and the category to errors.Is.
func (e *DomainError) Unwrap() []error {
	if e.Kind == nil {
		return []error{e.Base}
	}
	return []error{e.Kind, e.Base}
}

// NewError builds a DomainError for one of the specific kinds above.
func NewError(kind error, format string, args ...any) *DomainError {
	base, ok := kindCategory[kind]
	if !ok {
		base = ErrInternal
	}
	return &DomainError{
		Base:    base,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{
		Base:    ErrNotFound,
		Message: resource,
	}
}

// NewValidationError creates a validation error for a specific field.
func NewValidationError(field, message string) *DomainError {
	return &DomainError{
		Base:    ErrInvalidInput,
		Message: message,
		Field:   field,
	}
}

// NewUnauthorizedError creates an unauthorized error with context.
func NewUnauthorizedError(message string) *DomainError {
	return &DomainError{
		Base:    ErrUnauthorized,
		Message: message,
	}
}

func invariantError(format string, args ...any) *DomainError {
	return NewError(ErrInvariantViolation, format, args...)
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError reports rule violations and malformed input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConflict checks if an error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsForbidden checks if an error is a forbidden error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsUnauthorized checks if an error is unauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsRetryable reports whether re-running the whole command may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict) && !errors.Is(err, ErrRetryExhausted)
}
