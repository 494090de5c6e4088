package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"inventory-service/internal/models"
)

// ActivityRepository writes the append-only audit trail. There is no update
// or delete path: an entry either commits together with the mutation it
// documents or not at all.
type ActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new ActivityRepository instance with the provided GORM database connection.
func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append inserts one audit entry inside the given transaction.
func (r *ActivityRepository) Append(tx *gorm.DB, entry *models.ActivityLog) error {
	return tx.Create(entry).Error
}

// ListRecent returns the newest entries for one actor, newest first.
func (r *ActivityRepository) ListRecent(actorID uuid.UUID, limit int) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	err := r.db.Where("actor_id = ?", actorID).
		Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
