package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"inventory-service/internal/models"
)

// ItemRepository provides data access for inventory items. Read-only methods
// run against the base connection; every mutating method takes the
// transaction handle of the surrounding unit of work explicitly.
type ItemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new ItemRepository instance with the provided GORM database connection.
func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// GetItem retrieves an item by id, scoped to its owner.
func (r *ItemRepository) GetItem(ownerID, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.First(&item, "id = ? AND owner_id = ?", id, ownerID).Error
	return &item, err
}

// ListItems retrieves all items owned by the given user.
func (r *ItemRepository) ListItems(ownerID uuid.UUID) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&items).Error
	return items, err
}

// GetItemForUpdate loads an item under a row-level lock. Any read that
// decides a subsequent stock write must go through here so that concurrent
// adjustments of the same item serialize instead of jointly overdrawing.
func (r *ItemRepository) GetItemForUpdate(tx *gorm.DB, ownerID, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ? AND owner_id = ?", id, ownerID).Error
	return &item, err
}

// GetItemsForUpdate locks a set of items in ascending id order. The fixed
// ordering keeps two overlapping bulk adjustments from deadlocking.
func (r *ItemRepository) GetItemsForUpdate(tx *gorm.DB, ownerID uuid.UUID, ids []uuid.UUID) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Order("id").
		Find(&items).Error
	return items, err
}

// CreateItem inserts a new item inside the given transaction.
func (r *ItemRepository) CreateItem(tx *gorm.DB, item *models.InventoryItem) error {
	return tx.Create(item).Error
}

// SaveItem persists all fields of an already-loaded item.
func (r *ItemRepository) SaveItem(tx *gorm.DB, item *models.InventoryItem) error {
	return tx.Save(item).Error
}

// DeleteItem removes an item row inside the given transaction.
func (r *ItemRepository) DeleteItem(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&models.InventoryItem{}, "id = ?", id).Error
}
