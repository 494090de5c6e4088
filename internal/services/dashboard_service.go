package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"inventory-service/internal/models"
	"inventory-service/internal/repository"
	"inventory-service/internal/storage"
)

// DashboardStats is the read-only aggregate handed to the dashboard. It is
// computed from the persisted ledger and log state; nothing here feeds back
// into the core.
type DashboardStats struct {
	TotalItems       int64             `json:"total_items"`
	LowStockItems    []LowStockItem    `json:"low_stock_items"`
	MostUsedItems    []MostUsedItem    `json:"most_used_items"`
	RecentItems      []RecentItem      `json:"recent_items"`
	RecentActivity   []ActivityView    `json:"recent_activity"`
	MaintenanceItems []MaintenanceItem `json:"maintenance_items"`
	ActiveProjects   []ActiveProject   `json:"active_projects"`
}

type LowStockItem struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Stock    int       `json:"stock"`
	MinStock int       `json:"min_stock"`
}

type MostUsedItem struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Count int64     `json:"count"`
}

type RecentItem struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityView is one audit entry with its weak item reference resolved.
// ItemName reads "Deleted Item" when the referenced item no longer exists.
type ActivityView struct {
	ID        uuid.UUID             `json:"id"`
	Action    models.ActivityAction `json:"action"`
	Details   string                `json:"details"`
	Timestamp time.Time             `json:"timestamp"`
	ItemName  string                `json:"item_name,omitempty"`
}

type MaintenanceItem struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	MissingFields []string  `json:"missing_fields"`
}

type ActiveProject struct {
	ID         uuid.UUID            `json:"id"`
	Title      string               `json:"title"`
	Status     models.ProjectStatus `json:"status"`
	ItemsCount int                  `json:"items_count"`
}

// DashboardService aggregates over the persisted ledger and activity state.
// It is a pure consumer: read-only queries, optionally cached per actor for
// a short TTL in redis.
type DashboardService struct {
	db       *gorm.DB
	activity *repository.ActivityRepository
	cache    *storage.RedisClient
	ttl      time.Duration
}

// NewDashboardService creates a DashboardService. cache may be nil, which
// disables caching.
func NewDashboardService(db *gorm.DB, activity *repository.ActivityRepository, cache *storage.RedisClient, ttl time.Duration) *DashboardService {
	return &DashboardService{db: db, activity: activity, cache: cache, ttl: ttl}
}

// Stats computes the dashboard aggregate for one actor.
func (s *DashboardService) Stats(ctx context.Context, actorID uuid.UUID) (*DashboardStats, error) {
	cacheKey := fmt.Sprintf("dashboard:stats:%s", actorID)
	if s.cache != nil {
		if raw, err := s.cache.GetBytes(ctx, cacheKey); err != nil {
			log.Printf("Dashboard cache read failed: %v", err)
		} else if raw != nil {
			var stats DashboardStats
			if err := json.Unmarshal(raw, &stats); err == nil {
				return &stats, nil
			}
		}
	}

	stats, err := s.compute(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.cache.SetBytes(ctx, cacheKey, raw, s.ttl); err != nil {
				log.Printf("Dashboard cache write failed: %v", err)
			}
		}
	}
	return stats, nil
}

func (s *DashboardService) compute(ctx context.Context, actorID uuid.UUID) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &DashboardStats{
		LowStockItems:    []LowStockItem{},
		MostUsedItems:    []MostUsedItem{},
		RecentItems:      []RecentItem{},
		RecentActivity:   []ActivityView{},
		MaintenanceItems: []MaintenanceItem{},
		ActiveProjects:   []ActiveProject{},
	}

	if err := db.Model(&models.InventoryItem{}).
		Where("owner_id = ?", actorID).Count(&stats.TotalItems).Error; err != nil {
		return nil, errors.Wrap(err, "count items")
	}

	var lowStock []models.InventoryItem
	if err := db.Where("owner_id = ? AND stock <= min_stock", actorID).
		Limit(5).Find(&lowStock).Error; err != nil {
		return nil, errors.Wrap(err, "low stock items")
	}
	for _, item := range lowStock {
		stats.LowStockItems = append(stats.LowStockItems, LowStockItem{
			ID: item.ID, Name: item.Name, Stock: item.Stock, MinStock: item.MinStock,
		})
	}

	if err := db.Table("activity_logs").
		Select("inventory_items.id, inventory_items.name, count(activity_logs.id) as count").
		Joins("JOIN inventory_items ON inventory_items.id = activity_logs.item_id").
		Where("inventory_items.owner_id = ? AND activity_logs.action IN ?",
			actorID, []string{string(models.ActionAddStock), string(models.ActionRemoveStock)}).
		Group("inventory_items.id, inventory_items.name").
		Order("count DESC").Limit(5).
		Scan(&stats.MostUsedItems).Error; err != nil {
		return nil, errors.Wrap(err, "most used items")
	}

	var recent []models.InventoryItem
	if err := db.Where("owner_id = ?", actorID).
		Order("created_at DESC").Limit(5).Find(&recent).Error; err != nil {
		return nil, errors.Wrap(err, "recent items")
	}
	for _, item := range recent {
		stats.RecentItems = append(stats.RecentItems, RecentItem{
			ID: item.ID, Name: item.Name, ImageURL: item.ImageURL, CreatedAt: item.CreatedAt,
		})
	}

	activity, err := s.recentActivity(db, actorID)
	if err != nil {
		return nil, err
	}
	stats.RecentActivity = activity

	maintenance, err := s.maintenanceItems(db, actorID)
	if err != nil {
		return nil, err
	}
	stats.MaintenanceItems = maintenance

	var active []models.Project
	if err := db.Preload("Items").
		Where("owner_id = ? AND status = ?", actorID, models.StatusActive).
		Limit(5).Find(&active).Error; err != nil {
		return nil, errors.Wrap(err, "active projects")
	}
	for _, p := range active {
		stats.ActiveProjects = append(stats.ActiveProjects, ActiveProject{
			ID: p.ID, Title: p.Title, Status: p.Status, ItemsCount: len(p.Items),
		})
	}

	return stats, nil
}

// recentActivity loads the newest audit entries and resolves their weak item
// references in one batched lookup.
func (s *DashboardService) recentActivity(db *gorm.DB, actorID uuid.UUID) ([]ActivityView, error) {
	entries, err := s.activity.ListRecent(actorID, 10)
	if err != nil {
		return nil, errors.Wrap(err, "recent activity")
	}

	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if e.ItemID != nil {
			ids = append(ids, *e.ItemID)
		}
	}
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) > 0 {
		var items []models.InventoryItem
		if err := db.Where("id IN ?", ids).Find(&items).Error; err != nil {
			return nil, errors.Wrap(err, "resolve item names")
		}
		for _, item := range items {
			names[item.ID] = item.Name
		}
	}

	views := make([]ActivityView, 0, len(entries))
	for _, e := range entries {
		view := ActivityView{
			ID:        e.ID,
			Action:    e.Action,
			Details:   e.Details,
			Timestamp: e.CreatedAt,
		}
		if e.ItemID != nil {
			if name, ok := names[*e.ItemID]; ok {
				view.ItemName = name
			} else {
				view.ItemName = "Deleted Item"
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *DashboardService) maintenanceItems(db *gorm.DB, actorID uuid.UUID) ([]MaintenanceItem, error) {
	var items []models.InventoryItem
	if err := db.Where(
		"owner_id = ? AND (image_url = '' OR description = '' OR location = '')", actorID).
		Limit(10).Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "maintenance items")
	}

	result := make([]MaintenanceItem, 0, len(items))
	for _, item := range items {
		var missing []string
		if item.ImageURL == "" {
			missing = append(missing, "Image")
		}
		if item.Description == "" {
			missing = append(missing, "Description")
		}
		if item.Location == "" {
			missing = append(missing, "Location")
		}
		result = append(result, MaintenanceItem{ID: item.ID, Name: item.Name, MissingFields: missing})
	}
	return result, nil
}
