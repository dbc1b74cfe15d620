package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Kind classifies a service error so the transport layer can pick a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindState:
		return "state"
	default:
		return "internal"
	}
}

// Error is a business rule failure with a message meant for the operator.
// Sentinels below are returned as-is so callers can match them with errors.Is.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Validation builds a validation error, optionally keyed by field.
func Validation(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

var (
	ErrRoomNotFound   = newError(KindNotFound, "room not found")
	ErrTenantNotFound = newError(KindNotFound, "tenant not found")
	ErrBillNotFound   = newError(KindNotFound, "bill not found")
	ErrEntryNotFound  = newError(KindNotFound, "transaction not found")

	ErrRoomOccupied        = newError(KindConflict, "room already occupied")
	ErrDestinationOccupied = newError(KindConflict, "destination room occupied by another active tenant")
	ErrMustCheckoutFirst   = newError(KindConflict, "tenant is still active, checkout first")
	ErrTenantStillActive   = newError(KindConflict, "tenant is still active in a room")
	ErrRoomHasActiveTenant = newError(KindConflict, "room is occupied by an active tenant")

	ErrPaymentInactive  = newError(KindState, "cannot record payment for inactive tenant")
	ErrAlreadyInactive  = newError(KindState, "tenant is already inactive")
	ErrTenantCancelled  = newError(KindState, "tenancy was cancelled")
	ErrNotBoundToRoom   = newError(KindState, "tenant is not bound to any room")
	ErrTransferInactive = newError(KindState, "room change is only possible for active tenants, use reassign")
)

// KindOf returns the Kind of err; errors not produced by this package are internal.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// IsUniqueViolation detects a unique index rejection regardless of driver.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
