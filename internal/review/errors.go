package review

import (
	"errors"
	"fmt"
)

// Kind classifies review service failures
type Kind string

const (
	// KindValidation is a malformed or contradictory request. Never retried.
	KindValidation Kind = "ValidationError"
	// KindNotFound means referenced items are missing or owned by someone else
	KindNotFound Kind = "NotFoundError"
	// KindNoEligibleDays means distribution found no study day to use
	KindNoEligibleDays Kind = "NoEligibleDaysError"
	// KindEngine wraps a scheduling engine failure
	KindEngine Kind = "ExternalEngineError"
)

// Error is the structured error returned by Service operations
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	// ItemIDs names the offending items when there are any
	ItemIDs []int64
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if len(e.ItemIDs) > 0 {
		msg = fmt.Sprintf("%s (items %v)", msg, e.ItemIDs)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFound(msg string, ids []int64) *Error {
	return &Error{Kind: KindNotFound, Message: msg, ItemIDs: ids}
}

func noEligibleDays(msg string) *Error {
	return &Error{
		Kind:    KindNoEligibleDays,
		Message: msg + "; widen the number of days or add study days",
	}
}

func engineFailure(cause error) *Error {
	return &Error{Kind: KindEngine, Message: "scheduling engine failed", Cause: cause}
}

func kindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsValidation reports whether err is a request validation failure
func IsValidation(err error) bool { return kindOf(err) == KindValidation }

// IsNotFound reports whether err refers to missing items
func IsNotFound(err error) bool { return kindOf(err) == KindNotFound }

// IsNoEligibleDays reports whether distribution had no day to use
func IsNoEligibleDays(err error) bool { return kindOf(err) == KindNoEligibleDays }

// IsEngineFailure reports whether the scheduling engine failed
func IsEngineFailure(err error) bool { return kindOf(err) == KindEngine }
