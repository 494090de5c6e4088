package services

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"inventory-service/internal/metrics"
	"inventory-service/internal/models"
	"inventory-service/internal/repository"
	"inventory-service/internal/storage"
)

// StockAdjustment is one line of a bulk stock change.
type StockAdjustment struct {
	ItemID uuid.UUID
	Delta  int
}

// LedgerService is the sole writer of item stock. Every mutation runs inside
// one transaction together with its audit entry, and every read that decides
// a stock write happens under a row lock so concurrent adjustments of the
// same item serialize.
type LedgerService struct {
	db       *gorm.DB
	items    *repository.ItemRepository
	activity *repository.ActivityRepository
	media    *storage.MediaStore
}

// NewLedgerService creates a new LedgerService. media may be nil, in which
// case no QR labels are generated for new items.
func NewLedgerService(db *gorm.DB, items *repository.ItemRepository, activity *repository.ActivityRepository, media *storage.MediaStore) *LedgerService {
	return &LedgerService{
		db:       db,
		items:    items,
		activity: activity,
		media:    media,
	}
}

// CreateItem validates and inserts a new inventory item, stores its QR label
// and writes the CREATE audit entry, all in one transaction.
func (s *LedgerService) CreateItem(ctx context.Context, actorID uuid.UUID, in models.ItemCreate) (*models.InventoryItem, error) {
	if in.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if in.Stock < 0 {
		return nil, &ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	minStock := 5
	if in.MinStock != nil {
		if *in.MinStock < 0 {
			return nil, &ValidationError{Field: "min_stock", Reason: "must not be negative"}
		}
		minStock = *in.MinStock
	}

	category := in.Category
	if category == "" {
		category = "Misc"
	}
	item := &models.InventoryItem{
		ID:          uuid.New(),
		OwnerID:     actorID,
		Name:        in.Name,
		Category:    category,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Stock:       in.Stock,
		MinStock:    minStock,
		Location:    in.Location,
		Attachments: models.MarshalAttachments(in.Attachments),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.items.CreateItem(tx, item); err != nil {
			return errors.Wrap(err, "create item")
		}
		if s.media != nil {
			url, err := s.storeQRLabel(ctx, item.ID)
			if err != nil {
				return err
			}
			item.QRCodeURL = url
			if err := s.items.SaveItem(tx, item); err != nil {
				return errors.Wrap(err, "save qr url")
			}
		}
		return s.appendLog(tx, &models.ActivityLog{
			ActorID:  actorID,
			ItemID:   &item.ID,
			ItemName: item.Name,
			Action:   models.ActionCreate,
			Details:  fmt.Sprintf("Created item '%s'", item.Name),
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem returns one item owned by the actor.
func (s *LedgerService) GetItem(ctx context.Context, actorID, id uuid.UUID) (*models.InventoryItem, error) {
	item, err := s.items.GetItem(actorID, id)
	if err != nil {
		return nil, s.notFound("item", id, err)
	}
	return item, nil
}

// ListItems returns all items owned by the actor.
func (s *LedgerService) ListItems(ctx context.Context, actorID uuid.UUID) ([]models.InventoryItem, error) {
	return s.items.ListItems(actorID)
}

// UpdateItem applies a partial field patch. Every present field is validated
// before any field is written; a direct stock patch may not take the item
// negative. The locked read keeps a racing delta adjustment from interleaving
// with the patch.
func (s *LedgerService) UpdateItem(ctx context.Context, actorID, id uuid.UUID, upd models.ItemUpdate) (*models.InventoryItem, error) {
	if err := validateItemUpdate(upd); err != nil {
		return nil, err
	}

	var item *models.InventoryItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = s.items.GetItemForUpdate(tx, actorID, id)
		if err != nil {
			return s.notFound("item", id, err)
		}
		upd.Apply(item)
		if err := s.items.SaveItem(tx, item); err != nil {
			return errors.Wrap(err, "update item")
		}
		return s.appendLog(tx, &models.ActivityLog{
			ActorID:  actorID,
			ItemID:   &item.ID,
			ItemName: item.Name,
			Action:   models.ActionUpdate,
			Details:  fmt.Sprintf("Updated details for '%s'", item.Name),
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes an item and writes a DELETE audit entry. The entry
// keeps no item reference, only the name snapshot: log rows never block an
// item from being deleted.
func (s *LedgerService) DeleteItem(ctx context.Context, actorID, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.items.GetItemForUpdate(tx, actorID, id)
		if err != nil {
			return s.notFound("item", id, err)
		}
		if err := s.items.DeleteItem(tx, item.ID); err != nil {
			return errors.Wrap(err, "delete item")
		}
		return s.appendLog(tx, &models.ActivityLog{
			ActorID:  actorID,
			ItemName: item.Name,
			Action:   models.ActionDelete,
			Details:  fmt.Sprintf("Deleted item '%s' (ID: %s)", item.Name, item.ID),
		})
	})
}

// AdjustStock applies stock += delta to one item. It fails with
// InsufficientStock when the result would be negative, leaving the item
// unchanged, and otherwise writes the new stock together with its
// ADD_STOCK/REMOVE_STOCK audit entry.
func (s *LedgerService) AdjustStock(ctx context.Context, actorID, id uuid.UUID, delta int) (*models.InventoryItem, error) {
	if delta == 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must not be zero"}
	}

	var item *models.InventoryItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = s.items.GetItemForUpdate(tx, actorID, id)
		if err != nil {
			return s.notFound("item", id, err)
		}
		if item.Stock+delta < 0 {
			metrics.InsufficientStockTotal.Inc()
			return &InsufficientStockError{
				ItemID:    item.ID,
				ItemName:  item.Name,
				Required:  -delta,
				Available: item.Stock,
			}
		}
		item.Stock += delta
		if err := s.items.SaveItem(tx, item); err != nil {
			return errors.Wrap(err, "adjust stock")
		}

		action := models.ActionAddStock
		details := fmt.Sprintf("Added %d units. New stock: %d", delta, item.Stock)
		direction := "add"
		if delta < 0 {
			action = models.ActionRemoveStock
			details = fmt.Sprintf("Removed %d units. New stock: %d", -delta, item.Stock)
			direction = "remove"
		}
		metrics.StockAdjustmentsTotal.WithLabelValues(direction).Inc()
		return s.appendLog(tx, &models.ActivityLog{
			ActorID:  actorID,
			ItemID:   &item.ID,
			ItemName: item.Name,
			Action:   action,
			Details:  details,
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// BulkAdjustTx applies a batch of stock changes inside the caller's
// transaction. The batch is netted per item and every net total is validated
// against its locked row before any row is written, so the batch either
// applies completely or not at all — also when the same item appears on
// several lines. The returned map carries the adjusted items with their new
// stock. The caller pairs the batch with its own audit entries in the same
// transaction.
func (s *LedgerService) BulkAdjustTx(tx *gorm.DB, ownerID uuid.UUID, adjustments []StockAdjustment) (map[uuid.UUID]*models.InventoryItem, error) {
	if len(adjustments) == 0 {
		return map[uuid.UUID]*models.InventoryItem{}, nil
	}

	// Net the deltas per item first. Validating line by line against the
	// loaded snapshot would let duplicate lines jointly overdraw.
	totals := make(map[uuid.UUID]int, len(adjustments))
	ids := make([]uuid.UUID, 0, len(adjustments))
	for _, adj := range adjustments {
		if _, seen := totals[adj.ItemID]; !seen {
			ids = append(ids, adj.ItemID)
		}
		totals[adj.ItemID] += adj.Delta
	}

	items, err := s.items.GetItemsForUpdate(tx, ownerID, ids)
	if err != nil {
		return nil, errors.Wrap(err, "lock items")
	}
	byID := make(map[uuid.UUID]*models.InventoryItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	// Validate every item before mutating any of them.
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return nil, &NotFoundError{Resource: "item", ID: id}
		}
		if item.Stock+totals[id] < 0 {
			metrics.InsufficientStockTotal.Inc()
			return nil, &InsufficientStockError{
				ItemID:    item.ID,
				ItemName:  item.Name,
				Required:  -totals[id],
				Available: item.Stock,
			}
		}
	}

	adjusted := make(map[uuid.UUID]*models.InventoryItem, len(ids))
	for _, id := range ids {
		item := byID[id]
		item.Stock += totals[id]
		if err := s.items.SaveItem(tx, item); err != nil {
			return nil, errors.Wrapf(err, "adjust stock for %s", item.ID)
		}
		switch {
		case totals[id] > 0:
			metrics.StockAdjustmentsTotal.WithLabelValues("add").Inc()
		case totals[id] < 0:
			metrics.StockAdjustmentsTotal.WithLabelValues("remove").Inc()
		}
		adjusted[item.ID] = item
	}
	return adjusted, nil
}

func (s *LedgerService) appendLog(tx *gorm.DB, entry *models.ActivityLog) error {
	if err := s.activity.Append(tx, entry); err != nil {
		return errors.Wrap(err, "append activity log")
	}
	metrics.ActivityEntriesTotal.WithLabelValues(string(entry.Action)).Inc()
	return nil
}

func (s *LedgerService) storeQRLabel(ctx context.Context, itemID uuid.UUID) (string, error) {
	png, err := qrcode.Encode(s.media.ItemURL(itemID), qrcode.Medium, 256)
	if err != nil {
		return "", errors.Wrap(err, "encode qr label")
	}
	key := fmt.Sprintf("qr/%s.png", itemID)
	if err := s.media.Put(ctx, key, bytes.NewReader(png), int64(len(png)), "image/png"); err != nil {
		return "", errors.Wrap(err, "store qr label")
	}
	return s.media.URL(key), nil
}

func (s *LedgerService) notFound(resource string, id uuid.UUID, err error) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return errors.Wrapf(err, "load %s", resource)
}

func validateItemUpdate(upd models.ItemUpdate) error {
	if upd.Name != nil && *upd.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if upd.Stock != nil && *upd.Stock < 0 {
		return &ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	if upd.MinStock != nil && *upd.MinStock < 0 {
		return &ValidationError{Field: "min_stock", Reason: "must not be negative"}
	}
	return nil
}
