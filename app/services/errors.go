package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adegaexpress/adega/app/models"
	"github.com/adegaexpress/adega/app/repositories"
	"github.com/adegaexpress/adega/pkg/collection"
)

var (
	ErrNotFound           = repositories.ErrNotFound
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrInvalidInput       = errors.New("invalid input")
)

// TransitionError carries what a client needs to redraw its action buttons.
type TransitionError struct {
	OrderID   uint
	OrderType models.OrderType
	Current   models.OrderStatus
	Requested models.OrderStatus
	Allowed   []models.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move %s order %d from %s to %s (allowed: %s)",
		e.OrderType, e.OrderID, e.Current, e.Requested, strings.Join(collection.Strings(e.Allowed), ", "))
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// PreconditionError explains why an operation does not apply to the
// order's current state.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string { return e.Reason }

func (e *PreconditionError) Is(target error) bool { return target == ErrPreconditionFailed }

func precondition(format string, args ...interface{}) error {
	return &PreconditionError{Reason: fmt.Sprintf(format, args...)}
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
