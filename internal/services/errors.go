package services

import (
	"fmt"

	"github.com/google/uuid"

	"inventory-service/internal/models"
)

// NotFoundError reports that a resource does not exist or is not owned by
// the calling actor.
type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// InvalidTransitionError reports an illegal project status change, or a
// line-item mutation attempted outside PLANNING.
type InvalidTransitionError struct {
	From models.ProjectStatus
	To   models.ProjectStatus
	Op   string
}

func (e *InvalidTransitionError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s requires status %s, project is %s", e.Op, models.StatusPlanning, e.From)
	}
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// InsufficientStockError reports a ledger adjustment that would drive an
// item's stock below zero. It names the offending item and carries the
// required vs. available quantities for the caller's message.
type InsufficientStockError struct {
	ItemID    uuid.UUID
	ItemName  string
	Required  int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s. Required: %d, Available: %d",
		e.ItemName, e.Required, e.Available)
}

// ValidationError reports a rejected input field before anything is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
