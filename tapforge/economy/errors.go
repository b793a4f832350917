package economy

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable failure reasons, stable across releases. Clients branch on
// these, not on message text.
const (
	ReasonInvalidTapCount     = "invalid_tap_count"
	ReasonInvalidElapsed      = "invalid_elapsed"
	ReasonInvalidCount        = "invalid_count"
	ReasonUnknownBuilding     = "unknown_building"
	ReasonUnknownBoostType    = "unknown_boost_type"
	ReasonUnknownAchievement  = "unknown_achievement"
	ReasonTapRateLimitedSec   = "tap_rate_limited_per_second"
	ReasonTapRateLimitedMin   = "tap_rate_limited_per_minute"
	ReasonPrestigeUnavailable = "prestige_unavailable"
	ReasonInsufficientEnergy  = "insufficient_energy"
	ReasonBoostAlreadyActive  = "boost_already_active"
	ReasonTierNotUnlocked     = "tier_not_unlocked"
	ReasonBuildingLocked      = "building_locked"
	ReasonInternal            = "internal"
)

// Error is the domain error type for all economy operations. Status follows
// HTTP conventions so a transport layer can map it directly; Reason is the
// machine-readable code clients are expected to switch on.
type Error struct {
	Status  int
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed or out-of-range input.
func Validation(reason, format string, args ...interface{}) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// StateConflict reports an operation that is well-formed but not permitted by
// the player's current state.
func StateConflict(reason, format string, args ...interface{}) *Error {
	return &Error{
		Status:  http.StatusConflict,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// Resource reports a shortfall of a spendable resource.
func Resource(reason, format string, args ...interface{}) *Error {
	return &Error{
		Status:  http.StatusPaymentRequired,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// RateLimited reports a tap burst beyond the allowed window caps.
func RateLimited(reason, format string, args ...interface{}) *Error {
	return &Error{
		Status:  http.StatusTooManyRequests,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// Internal wraps an unexpected failure (database, infrastructure).
func Internal(err error, format string, args ...interface{}) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Reason:  ReasonInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// ReasonOf extracts the machine-readable reason from any error chain,
// defaulting to internal for unwrapped failures.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ReasonInternal
}

// StatusOf extracts the HTTP-convention status from any error chain.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}
