package service

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind is the stable machine-readable error code surfaced to clients.
type Kind string

const (
	KindNotFound         Kind = "NOT_FOUND"
	KindInvalidInput     Kind = "INVALID_INPUT"
	KindInvalidGeometry  Kind = "INVALID_GEOMETRY"
	KindOutsideArea      Kind = "OUTSIDE_AREA"
	KindImmutableField   Kind = "IMMUTABLE_FIELD_CHANGED"
	KindDuplicatePending Kind = "DUPLICATE_PENDING"
	KindAlreadyDecided   Kind = "ALREADY_DECIDED"
	KindAreaUnavailable  Kind = "AREA_UNAVAILABLE"
	KindPermissionDenied Kind = "PERMISSION_DENIED"
	KindPartialCascade   Kind = "PARTIAL_CASCADE_FAILURE"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches by Kind, so errors.Is(err, ErrNotFound) holds for every
// not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is dispatch in the HTTP layer and in tests.
var (
	ErrNotFound         = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInvalidInput     = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrInvalidGeometry  = &Error{Kind: KindInvalidGeometry, Message: "invalid geometry"}
	ErrOutsideArea      = &Error{Kind: KindOutsideArea, Message: "point outside area"}
	ErrImmutableField   = &Error{Kind: KindImmutableField, Message: "immutable field changed"}
	ErrDuplicatePending = &Error{Kind: KindDuplicatePending, Message: "duplicate pending approval"}
	ErrAlreadyDecided   = &Error{Kind: KindAlreadyDecided, Message: "approval already decided"}
	ErrAreaUnavailable  = &Error{Kind: KindAreaUnavailable, Message: "area not accepting cells"}
	ErrPermissionDenied = &Error{Kind: KindPermissionDenied, Message: "permission denied"}
)

func errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapf(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// PartialCascadeError reports a cascade delete that stopped partway.
// DeletedCellIDs lets the caller reconcile or retry; the area row and the
// remaining cells are untouched.
type PartialCascadeError struct {
	AreaID         uuid.UUID
	DeletedCellIDs []uuid.UUID
	FailedCellID   uuid.UUID
	Err            error
}

func (e *PartialCascadeError) Error() string {
	return fmt.Sprintf("cascade delete of area %s stopped at cell %s after removing %d cells: %v",
		e.AreaID, e.FailedCellID, len(e.DeletedCellIDs), e.Err)
}

func (e *PartialCascadeError) Unwrap() error {
	return e.Err
}
