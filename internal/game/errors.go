package game

import (
	"errors"
	"fmt"
)

// Error taxonomy. Player-originated violations (ErrIllegalPlay,
// ErrInvalidTarget) leave the round untouched and may be retried by the
// caller. ErrIllegalState and ErrInvariantViolation mean the round can no
// longer be trusted.
var (
	ErrIllegalState        = errors.New("illegal state")
	ErrIllegalPlay         = errors.New("illegal play")
	ErrInvalidTarget       = errors.New("invalid target")
	ErrInsufficientPlayers = errors.New("insufficient players")
	ErrInvariantViolation  = errors.New("invariant violation")

	// ErrUnknownPlayer is returned by queries naming a player who is not seated.
	ErrUnknownPlayer = errors.New("unknown player")
)

// PlayError carries a human-readable reason alongside one of the sentinel
// errors above. errors.Is(err, ErrIllegalPlay) matches a PlayError of that kind.
type PlayError struct {
	Kind   error
	Reason string
}

func (e *PlayError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *PlayError) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) error {
	return &PlayError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func illegalPlay(format string, args ...any) error {
	return newError(ErrIllegalPlay, format, args...)
}

func invalidTarget(format string, args ...any) error {
	return newError(ErrInvalidTarget, format, args...)
}

func illegalState(format string, args ...any) error {
	return newError(ErrIllegalState, format, args...)
}

func invariantViolation(format string, args ...any) error {
	return newError(ErrInvariantViolation, format, args...)
}

// IsRecoverable reports whether err is a rejected command that left the
// game state unchanged.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrIllegalPlay) || errors.Is(err, ErrInvalidTarget)
}

// IsFatal reports whether err indicates corrupted state.
func IsFatal(err error) bool {
	return errors.Is(err, ErrIllegalState) || errors.Is(err, ErrInvariantViolation)
}

// Reason extracts the rejection reason from err, falling back to err.Error().
func Reason(err error) string {
	var pe *PlayError
	if errors.As(err, &pe) {
		return pe.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
