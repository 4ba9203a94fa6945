package domain

import "errors"

// Kind groups domain errors by how callers should react to them.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindDenied
	KindConflict
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindDenied:
		return "denied"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	default:
		return "internal"
	}
}

// Error is a categorized domain failure. Sentinels below are compared with
// errors.Is; context is added by wrapping.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Common domain errors
var (
	ErrInvalidInput          = newError(KindValidation, "invalid_input", "invalid input")
	ErrInvalidAmount         = newError(KindValidation, "invalid_amount", "amount must be positive")
	ErrJustificationRequired = newError(KindValidation, "justification_required", "exoneration requires a justification")
	ErrInvalidCredentials    = newError(KindDenied, "invalid_credentials", "invalid credentials")
	ErrForbidden             = newError(KindDenied, "forbidden", "forbidden")
	ErrStorageUnavailable    = newError(KindStorage, "storage_unavailable", "storage unavailable")
)

// Lookup errors
var (
	ErrClientNotFound      = newError(KindNotFound, "client_not_found", "client not found")
	ErrBookNotFound        = newError(KindNotFound, "book_not_found", "book not found")
	ErrCopyNotFound        = newError(KindNotFound, "copy_not_found", "copy not found")
	ErrLoanNotFound        = newError(KindNotFound, "loan_not_found", "loan not found")
	ErrReservationNotFound = newError(KindNotFound, "reservation_not_found", "reservation not found")
	ErrFineNotFound        = newError(KindNotFound, "fine_not_found", "fine not found")
	ErrSessionNotFound     = newError(KindNotFound, "session_not_found", "cash session not found")
	ErrUserNotFound        = newError(KindNotFound, "user_not_found", "user not found")
)

// Circulation rule violations
var (
	ErrClientBlocked        = newError(KindDenied, "client_blocked", "client is inactive or blocked")
	ErrCopyNotAvailable     = newError(KindDenied, "copy_not_available", "copy is not available for loan")
	ErrCopyInCirculation    = newError(KindDenied, "copy_in_circulation", "copy is on loan or on hold")
	ErrBookInactive         = newError(KindDenied, "book_inactive", "book is withdrawn from the catalog")
	ErrDuplicateLoan        = newError(KindDenied, "duplicate_loan", "client already has an open loan for this book")
	ErrFineCeilingExceeded  = newError(KindDenied, "fine_ceiling_exceeded", "outstanding fines exceed the allowed ceiling")
	ErrLoanNotOpen          = newError(KindDenied, "loan_not_open", "loan is not open")
	ErrRenewalLimitExceeded = newError(KindDenied, "renewal_limit_exceeded", "renewal limit reached")
	ErrReservationPending   = newError(KindDenied, "reservation_pending", "book has pending reservations")
	ErrDuplicateReservation = newError(KindDenied, "duplicate_reservation", "client already has a pending reservation for this book")
	ErrReservationNotActive = newError(KindDenied, "reservation_not_active", "reservation is not pending")
	ErrFineNotPending       = newError(KindDenied, "fine_not_pending", "fine is not pending")
	ErrOverpayment          = newError(KindDenied, "overpayment", "payment exceeds outstanding amount")
	ErrSessionAlreadyOpen   = newError(KindDenied, "session_already_open", "cashier already has an open session")
	ErrSessionClosed        = newError(KindDenied, "session_closed", "cash session is closed")
	ErrSessionNotOwned      = newError(KindDenied, "session_not_owned", "cash session belongs to another cashier")
	ErrUserInactive         = newError(KindDenied, "user_inactive", "user account is disabled")
)

// Staff administration
var (
	ErrUsernameTaken    = newError(KindDenied, "username_taken", "username already exists")
	ErrCannotModifySelf = newError(KindDenied, "cannot_modify_self", "cannot change your own role or status")
	ErrLastAdmin        = newError(KindDenied, "last_admin", "at least one active admin is required")
	ErrOldPasswordWrong = newError(KindValidation, "old_password_incorrect", "old password is incorrect")
	ErrWeakPassword     = newError(KindValidation, "weak_password", "password is too short")
)

// ErrInvalidStateTransition means a row changed under a check that had
// already passed. The whole operation may be retried.
var ErrInvalidStateTransition = newError(KindConflict, "invalid_state_transition", "invalid state transition")

// KindOf returns the category of err, or KindInternal when err carries no
// domain error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// CodeOf returns the machine-readable code of err, or "internal".
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "internal"
}

// MessageOf returns the sentinel's message without the wrapped context.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

type storageError struct {
	cause error
}

func (e *storageError) Error() string { return "storage unavailable: " + e.cause.Error() }
func (e *storageError) Unwrap() error { return ErrStorageUnavailable }
func (e *storageError) Cause() error  { return e.cause }

// Storage classifies err as a storage failure unless it already carries a
// domain error. nil stays nil.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &storageError{cause: err}
}
