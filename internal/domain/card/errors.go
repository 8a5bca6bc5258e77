package card

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrResolution = errors.New("hierarchy resolution failed")

	ErrDuplicateCorrelationID = errors.New("card uuid already exists")
	ErrAlreadySet             = errors.New("solution stage already set")
)

// ValidationKind distinguishes validation failures.
type ValidationKind string

const (
	DuplicateCorrelationID ValidationKind = "duplicate_correlation_id"
	AlreadySet             ValidationKind = "already_set"
	InvalidTransition      ValidationKind = "invalid_transition"
	InvalidInput           ValidationKind = "invalid_input"
)

type ValidationError struct {
	Kind   ValidationKind
	Stage  Stage
	Detail string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case DuplicateCorrelationID:
		if e.Detail != "" {
			return fmt.Sprintf("validation: card uuid %s already exists", e.Detail)
		}
		return "validation: card uuid already exists"
	case AlreadySet:
		return fmt.Sprintf("validation: %s solution already set", e.Stage)
	default:
		return fmt.Sprintf("validation: %s: %s", e.Kind, e.Detail)
	}
}

func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return true
	case ErrDuplicateCorrelationID:
		return e.Kind == DuplicateCorrelationID
	case ErrAlreadySet:
		return e.Kind == AlreadySet
	}
	return false
}

// EntityKind names the entity a NotFoundError refers to.
type EntityKind string

const (
	KindSite          EntityKind = "site"
	KindNode          EntityKind = "node"
	KindPriority      EntityKind = "priority"
	KindCardType      EntityKind = "card_type"
	KindPreclassifier EntityKind = "preclassifier"
	KindUser          EntityKind = "user"
	KindCard          EntityKind = "card"
)

type NotFoundError struct {
	Kind EntityKind
	ID   any
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s %v not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func NotFound(kind EntityKind, id any) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// ResolutionError reports a node that cannot be placed in its site hierarchy.
type ResolutionError struct {
	NodeID uint64
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve node %d: %s", e.NodeID, e.Reason)
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

// NotFoundKind returns the entity kind when err is a NotFoundError.
func NotFoundKind(err error) (EntityKind, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Kind, true
	}
	return "", false
}
