package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	StatusPlanning  ProjectStatus = "PLANNING"
	StatusActive    ProjectStatus = "ACTIVE"
	StatusCompleted ProjectStatus = "COMPLETED"
)

// Valid reports whether s is a known status value.
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusPlanning, StatusActive, StatusCompleted:
		return true
	}
	return false
}

// CanTransition reports whether the status may change from s to next.
// The only legal moves are PLANNING -> ACTIVE and ACTIVE -> COMPLETED;
// COMPLETED is terminal and nothing ever returns to PLANNING.
func (s ProjectStatus) CanTransition(next ProjectStatus) bool {
	switch s {
	case StatusPlanning:
		return next == StatusActive
	case StatusActive:
		return next == StatusCompleted
	}
	return false
}

// Project groups line-item reservations against inventory and walks the
// PLANNING -> ACTIVE -> COMPLETED lifecycle. Activation deducts stock for
// every line item as one atomic unit.
type Project struct {
	ID          uuid.UUID     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	OwnerID     uuid.UUID     `json:"owner_id" gorm:"type:uuid;not null;index"`
	Title       string        `json:"title" gorm:"not null;index"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status" gorm:"not null;default:PLANNING"`
	CreatedAt   time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
	Items       []ProjectItem `json:"items,omitempty" gorm:"foreignKey:ProjectID"`
}

// ProjectItem reserves a quantity of one inventory item for a project. The
// (project_id, item_id) pair is unique; adding the same item again merges by
// incrementing the quantity. ItemID is a weak reference: the inventory row
// may be deleted while the line item survives.
type ProjectItem struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ProjectID uuid.UUID `json:"project_id" gorm:"type:uuid;not null;uniqueIndex:idx_project_item"`
	ItemID    uuid.UUID `json:"item_id" gorm:"type:uuid;not null;uniqueIndex:idx_project_item"`
	Quantity  int       `json:"quantity" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Item *InventoryItem `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}
