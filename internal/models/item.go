package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MarshalAttachments encodes an attachment URL list into the JSON column
// representation. A nil list becomes an empty JSON array, never SQL NULL.
func MarshalAttachments(urls []string) datatypes.JSON {
	if urls == nil {
		urls = []string{}
	}
	raw, err := json.Marshal(urls)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}

// InventoryItem represents a physical stock-keeping unit. Its Stock field is
// mutated only through the ledger service so that the stock >= 0 invariant
// holds across concurrent adjustments.
type InventoryItem struct {
	ID          uuid.UUID      `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	OwnerID     uuid.UUID      `json:"owner_id" gorm:"type:uuid;not null;index"`
	Name        string         `json:"name" gorm:"not null;index"`
	Category    string         `json:"category" gorm:"default:Misc"`
	Description string         `json:"description"`
	ImageURL    string         `json:"image_url"`
	QRCodeURL   string         `json:"qr_code_url"`
	Stock       int            `json:"stock" gorm:"not null;default:0"`
	MinStock    int            `json:"min_stock" gorm:"not null"`
	Location    string         `json:"location"`
	Attachments datatypes.JSON `json:"attachments,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// ItemCreate carries the fields accepted when creating an item. MinStock is
// a pointer so an explicit zero threshold is distinguishable from "use the
// default".
type ItemCreate struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	Stock       int      `json:"stock"`
	MinStock    *int     `json:"min_stock"`
	Location    string   `json:"location"`
	Attachments []string `json:"attachments"`
}

// ItemUpdate is a partial patch: only non-nil fields are applied. A direct
// Stock patch bypasses delta semantics and is validated against the
// non-negativity invariant before anything is written.
type ItemUpdate struct {
	Name        *string   `json:"name"`
	Category    *string   `json:"category"`
	Description *string   `json:"description"`
	ImageURL    *string   `json:"image_url"`
	Stock       *int      `json:"stock"`
	MinStock    *int      `json:"min_stock"`
	Location    *string   `json:"location"`
	Attachments *[]string `json:"attachments"`
}

// Apply copies the present fields onto the item. Callers validate the patch
// before calling; Apply itself never rejects a value.
func (u ItemUpdate) Apply(item *InventoryItem) {
	if u.Name != nil {
		item.Name = *u.Name
	}
	if u.Category != nil {
		item.Category = *u.Category
	}
	if u.Description != nil {
		item.Description = *u.Description
	}
	if u.ImageURL != nil {
		item.ImageURL = *u.ImageURL
	}
	if u.Stock != nil {
		item.Stock = *u.Stock
	}
	if u.MinStock != nil {
		item.MinStock = *u.MinStock
	}
	if u.Location != nil {
		item.Location = *u.Location
	}
	if u.Attachments != nil {
		item.Attachments = MarshalAttachments(*u.Attachments)
	}
}
