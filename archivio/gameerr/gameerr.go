// Package gameerr defines the request-scoped failures returned by the rules
// engine. Every failure carries a Kind for programmatic handling and a
// player-facing message.
package gameerr

import (
	"errors"
	"fmt"
)

// Kind classifies a game rule failure.
type Kind string

const (
	KindQuotaExceeded         Kind = "QUOTA_EXCEEDED"
	KindNotFound              Kind = "NOT_FOUND"
	KindWindowClosed          Kind = "WINDOW_CLOSED"
	KindAlreadyUsed           Kind = "ALREADY_USED"
	KindAlreadyAttempted      Kind = "ALREADY_ATTEMPTED"
	KindAttributeTooLow       Kind = "ATTRIBUTE_TOO_LOW"
	KindInvalidIndex          Kind = "INVALID_INDEX"
	KindValidation            Kind = "VALIDATION"
	KindForbidden             Kind = "FORBIDDEN"
	KindInsufficientResources Kind = "INSUFFICIENT_RESOURCES"
)

// Sentinels for errors.Is. Matching is by Kind, so a detailed *Error with the
// same kind satisfies errors.Is(err, ErrQuotaExceeded).
var (
	ErrQuotaExceeded         = &Error{Kind: KindQuotaExceeded, Message: "Hai esaurito le tue azioni disponibili"}
	ErrNotFound              = &Error{Kind: KindNotFound, Message: "Elemento non trovato"}
	ErrWindowClosed          = &Error{Kind: KindWindowClosed, Message: "Questo aiuto non è attivo in questo momento"}
	ErrAlreadyUsed           = &Error{Kind: KindAlreadyUsed, Message: "Hai già utilizzato questo livello di aiuto"}
	ErrAlreadyAttempted      = &Error{Kind: KindAlreadyAttempted, Message: "Hai già affrontato questa sfida"}
	ErrAttributeTooLow       = &Error{Kind: KindAttributeTooLow, Message: "Il tuo valore è insufficiente per questo livello"}
	ErrInvalidIndex          = &Error{Kind: KindInvalidIndex, Message: "Prova non valida"}
	ErrValidation            = &Error{Kind: KindValidation, Message: "Dati non validi"}
	ErrForbidden             = &Error{Kind: KindForbidden, Message: "Operazione non consentita"}
	ErrInsufficientResources = &Error{Kind: KindInsufficientResources, Message: "RISORSE insufficienti"}
)

// Error is a typed, non-fatal game failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a game error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an error of the given kind with a custom player-facing message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new error of the given kind.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// NotFound reports a missing entity by name.
func NotFound(entity string) *Error {
	return New(KindNotFound, "%s non trovato", entity)
}

// Validation reports an out-of-range or malformed field.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// KindOf returns the kind of a game error, or "" when err is not one.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

// IsGameError reports whether err carries a game rule failure rather than an
// infrastructure error.
func IsGameError(err error) bool {
	return KindOf(err) != ""
}

// PlayerMessage returns the message safe to show to a player. Infrastructure
// errors are replaced by a generic apology.
func PlayerMessage(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Message
	}
	return "Si è verificato un errore, riprova più tardi"
}
