package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityAction names the kind of mutation an audit entry documents.
type ActivityAction string

const (
	ActionCreate         ActivityAction = "CREATE"
	ActionUpdate         ActivityAction = "UPDATE"
	ActionDelete         ActivityAction = "DELETE"
	ActionAddStock       ActivityAction = "ADD_STOCK"
	ActionRemoveStock    ActivityAction = "REMOVE_STOCK"
	ActionCreateProject  ActivityAction = "CREATE_PROJECT"
	ActionProjectUse     ActivityAction = "PROJECT_USE"
	ActionProjectReturn  ActivityAction = "PROJECT_RETURN"
	ActionProjectConsume ActivityAction = "PROJECT_CONSUME"
)

// ActivityLog is one append-only audit entry. Rows are written in the same
// transaction as the mutation they document and are never updated or
// deleted afterwards. ItemID is a weak reference: it may point at an item
// that no longer exists, which is why ItemName snapshots the name at write
// time.
type ActivityLog struct {
	ID        uuid.UUID      `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ActorID   uuid.UUID      `json:"actor_id" gorm:"type:uuid;not null;index"`
	ItemID    *uuid.UUID     `json:"item_id" gorm:"type:uuid;index"`
	ItemName  string         `json:"item_name"`
	Action    ActivityAction `json:"action" gorm:"not null;index"`
	Details   string         `json:"details"`
	CreatedAt time.Time      `json:"timestamp" gorm:"autoCreateTime"`
}
