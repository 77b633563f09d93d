package models

import (
	"errors"

	"golang.org/x/exp/slices"
)

// Kind classifies an error so that callers can map it to a stable
// machine-readable tag and an HTTP status code.
type Kind string

const (
	KindValidation    Kind = "VALIDATION_ERROR"
	KindInvalidAmount Kind = "INVALID_AMOUNT_FORMAT"
	KindPolicy        Kind = "POLICY_VIOLATION"
	KindNotFound      Kind = "NOT_FOUND"
	KindConflict      Kind = "CONFLICT"
)

// Error is a user-facing error with a stable kind tag and, for validation
// errors, the offending fields.
type Error struct {
	Kind    Kind
	Message string
	Fields  []string
}

func (e Error) Error() string {
	return e.Message
}

// Is reports whether target is the same Error. Fields carry no identity,
// they only tell the caller which input was at fault.
func (e Error) Is(target error) bool {
	var t Error
	if !errors.As(target, &t) {
		return false
	}

	return e.Kind == t.Kind && e.Message == t.Message && slices.Equal(e.Fields, t.Fields)
}

var (
	// ErrGeneral is returned when we cannot give the user any more helpful
	// information about an error.
	ErrGeneral = errors.New("an error occurred on the server during your request")

	// ErrResourceNotFound is wrapped with the resource name by the query
	// callback in database.go.
	ErrResourceNotFound = errors.New("there is no")

	ErrNameRequired = Error{Kind: KindValidation, Message: "the name must be set", Fields: []string{"name"}}
	ErrNameTooLong  = Error{Kind: KindValidation, Message: "the name must be 100 characters or less", Fields: []string{"name"}}

	ErrBudgetNegative       = Error{Kind: KindValidation, Message: "the budget must not be negative", Fields: []string{"budget"}}
	ErrSectionNameNotUnique = Error{Kind: KindConflict, Message: "the section name must be unique for the user", Fields: []string{"name"}}
	ErrSectionNotEmpty      = Error{Kind: KindConflict, Message: "the section still has bills and cannot be deleted"}

	ErrBillStatusInvalid        = Error{Kind: KindValidation, Message: "the status must be one of active, archived", Fields: []string{"status"}}
	ErrNegativeAmountNotAllowed = Error{Kind: KindPolicy, Message: "this section does not allow bills with negative amounts", Fields: []string{"amount"}}
)

// NewAmountError wraps an amount parsing failure with the taxonomy kind for
// invalid amount input.
func NewAmountError(err error) Error {
	return Error{Kind: KindInvalidAmount, Message: err.Error(), Fields: []string{"amount"}}
}
