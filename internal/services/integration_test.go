//go:build integration

package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"inventory-service/internal/models"
	"inventory-service/internal/repository"
)

type testStack struct {
	db        *gorm.DB
	ledger    *LedgerService
	projects  *ProjectService
	dashboard *DashboardService
	actor     uuid.UUID
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("inventory"),
		postgrescontainer.WithUsername("inventory"),
		postgrescontainer.WithPassword("inventory"),
		postgrescontainer.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.InventoryItem{},
		&models.Project{},
		&models.ProjectItem{},
		&models.ActivityLog{},
	))

	itemRepo := repository.NewItemRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	ledger := NewLedgerService(db, itemRepo, activityRepo, nil)

	return &testStack{
		db:        db,
		ledger:    ledger,
		projects:  NewProjectService(db, projectRepo, itemRepo, activityRepo, ledger),
		dashboard: NewDashboardService(db, activityRepo, nil, 0),
		actor:     uuid.New(),
	}
}

func (s *testStack) mustCreateItem(t *testing.T, name string, stock int) *models.InventoryItem {
	t.Helper()
	item, err := s.ledger.CreateItem(context.Background(), s.actor, models.ItemCreate{
		Name:  name,
		Stock: stock,
	})
	require.NoError(t, err)
	return item
}

func (s *testStack) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	item, err := s.ledger.GetItem(context.Background(), s.actor, id)
	require.NoError(t, err)
	return item.Stock
}

func (s *testStack) logCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, s.db.Model(&models.ActivityLog{}).Count(&count).Error)
	return count
}

func TestLedgerAdjustStock(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()

	t.Run("rejects overdraw and leaves stock unchanged", func(t *testing.T) {
		item := s.mustCreateItem(t, "Dowels", 10)
		before := s.logCount(t)

		_, err := s.ledger.AdjustStock(ctx, s.actor, item.ID, -15)
		var insufficient *InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		require.Equal(t, item.ID, insufficient.ItemID)
		require.Equal(t, 15, insufficient.Required)
		require.Equal(t, 10, insufficient.Available)

		require.Equal(t, 10, s.stockOf(t, item.ID))
		// The failed adjustment must not leave an audit entry behind.
		require.Equal(t, before, s.logCount(t))
	})

	t.Run("applies delta and writes audit entry", func(t *testing.T) {
		item := s.mustCreateItem(t, "Glue", 3)

		updated, err := s.ledger.AdjustStock(ctx, s.actor, item.ID, 4)
		require.NoError(t, err)
		require.Equal(t, 7, updated.Stock)

		updated, err = s.ledger.AdjustStock(ctx, s.actor, item.ID, -7)
		require.NoError(t, err)
		require.Equal(t, 0, updated.Stock)

		var entries []models.ActivityLog
		require.NoError(t, s.db.Where("item_id = ?", item.ID).Order("created_at").Find(&entries).Error)
		actions := make([]models.ActivityAction, 0, len(entries))
		for _, e := range entries {
			actions = append(actions, e.Action)
		}
		require.Equal(t, []models.ActivityAction{
			models.ActionCreate, models.ActionAddStock, models.ActionRemoveStock,
		}, actions)
	})

	t.Run("concurrent removals never overdraw", func(t *testing.T) {
		item := s.mustCreateItem(t, "Sealant", 10)

		var wg sync.WaitGroup
		results := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, results[i] = s.ledger.AdjustStock(ctx, s.actor, item.ID, -6)
			}(i)
		}
		wg.Wait()

		var failures int
		for _, err := range results {
			if err != nil {
				var insufficient *InsufficientStockError
				require.ErrorAs(t, err, &insufficient)
				failures++
			}
		}
		require.Equal(t, 1, failures, "exactly one of the two removals must fail")
		require.Equal(t, 4, s.stockOf(t, item.ID))
	})
}

func TestLedgerBulkAdjust(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()

	t.Run("duplicate lines validate against the netted total", func(t *testing.T) {
		item := s.mustCreateItem(t, "Brackets", 10)

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			_, err := s.ledger.BulkAdjustTx(tx, s.actor, []StockAdjustment{
				{ItemID: item.ID, Delta: -6},
				{ItemID: item.ID, Delta: -6},
			})
			return err
		})
		var insufficient *InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		require.Equal(t, 12, insufficient.Required)
		require.Equal(t, 10, insufficient.Available)
		require.Equal(t, 10, s.stockOf(t, item.ID))
	})

	t.Run("duplicate lines within stock apply the net delta once", func(t *testing.T) {
		item := s.mustCreateItem(t, "Washers", 10)

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			adjusted, err := s.ledger.BulkAdjustTx(tx, s.actor, []StockAdjustment{
				{ItemID: item.ID, Delta: -4},
				{ItemID: item.ID, Delta: -3},
			})
			if err != nil {
				return err
			}
			require.Equal(t, 3, adjusted[item.ID].Stock)
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, 3, s.stockOf(t, item.ID))
	})
}

func TestLedgerItemLifecycle(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()

	t.Run("update applies only present fields", func(t *testing.T) {
		item := s.mustCreateItem(t, "Clamps", 12)

		location := "Drawer 4"
		updated, err := s.ledger.UpdateItem(ctx, s.actor, item.ID, models.ItemUpdate{Location: &location})
		require.NoError(t, err)
		require.Equal(t, "Drawer 4", updated.Location)
		require.Equal(t, "Clamps", updated.Name)
		require.Equal(t, 12, updated.Stock)
	})

	t.Run("direct negative stock patch is rejected before writing", func(t *testing.T) {
		item := s.mustCreateItem(t, "Wire", 5)
		negative := -2
		name := "Copper wire"

		_, err := s.ledger.UpdateItem(ctx, s.actor, item.ID, models.ItemUpdate{Name: &name, Stock: &negative})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)

		fresh, err := s.ledger.GetItem(ctx, s.actor, item.ID)
		require.NoError(t, err)
		require.Equal(t, "Wire", fresh.Name, "no field of the patch may be applied")
		require.Equal(t, 5, fresh.Stock)
	})

	t.Run("delete keeps audit trail with dangling reference", func(t *testing.T) {
		item := s.mustCreateItem(t, "Old drill", 1)
		require.NoError(t, s.ledger.DeleteItem(ctx, s.actor, item.ID))

		_, err := s.ledger.GetItem(ctx, s.actor, item.ID)
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)

		// The CREATE entry still references the deleted item.
		var entries []models.ActivityLog
		require.NoError(t, s.db.Where("item_id = ?", item.ID).Find(&entries).Error)
		require.NotEmpty(t, entries)

		stats, err := s.dashboard.Stats(ctx, s.actor)
		require.NoError(t, err)
		var sawDeleted bool
		for _, entry := range stats.RecentActivity {
			if entry.ItemName == "Deleted Item" {
				sawDeleted = true
			}
		}
		require.True(t, sawDeleted, "dashboard resolves the dangling reference as Deleted Item")
	})

	t.Run("actors cannot touch each other's items", func(t *testing.T) {
		item := s.mustCreateItem(t, "Private stash", 9)

		stranger := uuid.New()
		_, err := s.ledger.GetItem(ctx, stranger, item.ID)
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)

		_, err = s.ledger.AdjustStock(ctx, stranger, item.ID, -1)
		require.ErrorAs(t, err, &notFound)
	})
}

func TestProjectLineItems(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()

	t.Run("duplicate line items merge by quantity", func(t *testing.T) {
		item := s.mustCreateItem(t, "Planks", 50)
		project, err := s.projects.CreateProject(ctx, s.actor, "Shed", "")
		require.NoError(t, err)

		_, err = s.projects.AddLineItem(ctx, s.actor, project.ID, item.ID, 5)
		require.NoError(t, err)
		updated, err := s.projects.AddLineItem(ctx, s.actor, project.ID, item.ID, 5)
		require.NoError(t, err)

		require.Len(t, updated.Items, 1)
		require.Equal(t, 10, updated.Items[0].Quantity)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		item := s.mustCreateItem(t, "Nails", 100)
		project, err := s.projects.CreateProject(ctx, s.actor, "Fence", "")
		require.NoError(t, err)

		_, err = s.projects.AddLineItem(ctx, s.actor, project.ID, item.ID, 0)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("rejects unknown item", func(t *testing.T) {
		project, err := s.projects.CreateProject(ctx, s.actor, "Bench", "")
		require.NoError(t, err)

		_, err = s.projects.AddLineItem(ctx, s.actor, project.ID, uuid.New(), 1)
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("rejects line items outside PLANNING", func(t *testing.T) {
		item := s.mustCreateItem(t, "Paint", 10)
		project, err := s.projects.CreateProject(ctx, s.actor, "Repaint", "")
		require.NoError(t, err)
		_, err = s.projects.AddLineItem(ctx, s.actor, project.ID, item.ID, 2)
		require.NoError(t, err)
		_, err = s.projects.SetStatus(ctx, s.actor, project.ID, models.StatusActive, false)
		require.NoError(t, err)

		_, err = s.projects.AddLineItem(ctx, s.actor, project.ID, item.ID, 1)
		var transition *InvalidTransitionError
		require.ErrorAs(t, err, &transition)
	})

	t.Run("deleting a project removes its line items", func(t *testing.T) {
		item := s.mustCreateItem(t, "Rope", 30)
		project, err := s.projects.CreateProject(ctx, s.actor, "Swing", "")
		require.NoError(t, err)
		_, err = s.projects.AddLineItem(ctx, s.actor, project.ID, item.ID, 3)
		require.NoError(t, err)

		require.NoError(t, s.projects.DeleteProject(ctx, s.actor, project.ID))

		var count int64
		require.NoError(t, s.db.Model(&models.ProjectItem{}).
			Where("project_id = ?", project.ID).Count(&count).Error)
		require.Zero(t, count)
	})
}

func TestProjectStateMachine(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()

	t.Run("activation failure leaves every line untouched", func(t *testing.T) {
		itemA := s.mustCreateItem(t, "Boards", 5)
		itemB := s.mustCreateItem(t, "Hinges", 2)
		project, err := s.projects.CreateProject(ctx, s.actor, "Cabinet", "")
		require.NoError(t, err)
		_, err = s.projects.AddLineItem(ctx, s.actor, project.ID, itemA.ID, 3)
		require.NoError(t, err)
		_, err = s.projects.AddLineItem(ctx, s.actor, project.ID, itemB.ID, 5)
		require.NoError(t, err)

		logsBefore := s.logCount(t)
		_, err = s.projects.SetStatus(ctx, s.actor, project.ID, models.StatusActive, false)
		var insufficient *InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		require.Equal(t, itemB.ID, insufficient.ItemID)

		require.Equal(t, 5, s.stockOf(t, itemA.ID))
		require.Equal(t, 2, s.stockOf(t, itemB.ID))
		require.Equal(t, logsBefore, s.logCount(t))

		fresh, err := s.projects.GetProject(ctx, s.actor, project.ID)
		require.NoError(t, err)
		require.Equal(t, models.StatusPlanning, fresh.Status)
	})

	t.Run("activate then return restores stock", func(t *testing.T) {
		item := s.mustCreateItem(t, "Screws", 20)
		project, err := s.projects.CreateProject(ctx, s.actor, "Table", "")
		require.NoError(t, err)
		_, err = s.projects.AddLineItem(ctx, s.actor, project.ID, item.ID, 5)
		require.NoError(t, err)

		activated, err := s.projects.SetStatus(ctx, s.actor, project.ID, models.StatusActive, false)
		require.NoError(t, err)
		require.Equal(t, models.StatusActive, activated.Status)
		require.Equal(t, 15, s.stockOf(t, item.ID))

		completed, err := s.projects.SetStatus(ctx, s.actor, project.ID, models.StatusCompleted, true)
		require.NoError(t, err)
		require.Equal(t, models.StatusCompleted, completed.Status)
		require.Equal(t, 20, s.stockOf(t, item.ID))

		var returns int64
		require.NoError(t, s.db.Model(&models.ActivityLog{}).
			Where("action = ?", models.ActionProjectReturn).Count(&returns).Error)
		require.Equal(t, int64(1), returns)
	})

	t.Run("complete without return consumes stock", func(t *testing.T) {
		item := s.mustCreateItem(t, "Varnish", 20)
		project, err := s.projects.CreateProject(ctx, s.actor, "Chairs", "")
		require.NoError(t, err)
		_, err = s.projects.AddLineItem(ctx, s.actor, project.ID, item.ID, 5)
		require.NoError(t, err)

		_, err = s.projects.SetStatus(ctx, s.actor, project.ID, models.StatusActive, false)
		require.NoError(t, err)
		require.Equal(t, 15, s.stockOf(t, item.ID))

		_, err = s.projects.SetStatus(ctx, s.actor, project.ID, models.StatusCompleted, false)
		require.NoError(t, err)
		require.Equal(t, 15, s.stockOf(t, item.ID))

		var consumes int64
		require.NoError(t, s.db.Model(&models.ActivityLog{}).
			Where("action = ?", models.ActionProjectConsume).Count(&consumes).Error)
		require.Equal(t, int64(1), consumes)
	})

	t.Run("return skips line items whose inventory row is gone", func(t *testing.T) {
		itemA := s.mustCreateItem(t, "Legs", 10)
		itemB := s.mustCreateItem(t, "Tabletop", 4)
		project, err := s.projects.CreateProject(ctx, s.actor, "Desk", "")
		require.NoError(t, err)
		_, err = s.projects.AddLineItem(ctx, s.actor, project.ID, itemA.ID, 4)
		require.NoError(t, err)
		_, err = s.projects.AddLineItem(ctx, s.actor, project.ID, itemB.ID, 1)
		require.NoError(t, err)
		_, err = s.projects.SetStatus(ctx, s.actor, project.ID, models.StatusActive, false)
		require.NoError(t, err)
		require.NoError(t, s.ledger.DeleteItem(ctx, s.actor, itemB.ID))

		completed, err := s.projects.SetStatus(ctx, s.actor, project.ID, models.StatusCompleted, true)
		require.NoError(t, err)
		require.Equal(t, models.StatusCompleted, completed.Status)
		require.Equal(t, 10, s.stockOf(t, itemA.ID))

		var returns int64
		require.NoError(t, s.db.Model(&models.ActivityLog{}).
			Where("action = ? AND item_id = ?", models.ActionProjectReturn, itemA.ID).
			Count(&returns).Error)
		require.Equal(t, int64(1), returns)
		require.NoError(t, s.db.Model(&models.ActivityLog{}).
			Where("action = ? AND item_id = ?", models.ActionProjectReturn, itemB.ID).
			Count(&returns).Error)
		require.Zero(t, returns)
	})

	t.Run("illegal transitions are rejected", func(t *testing.T) {
		project, err := s.projects.CreateProject(ctx, s.actor, "Someday", "")
		require.NoError(t, err)

		var transition *InvalidTransitionError
		_, err = s.projects.SetStatus(ctx, s.actor, project.ID, models.StatusCompleted, false)
		require.ErrorAs(t, err, &transition)

		_, err = s.projects.SetStatus(ctx, s.actor, project.ID, models.StatusActive, false)
		require.NoError(t, err)
		_, err = s.projects.SetStatus(ctx, s.actor, project.ID, models.StatusPlanning, false)
		require.ErrorAs(t, err, &transition)

		_, err = s.projects.SetStatus(ctx, s.actor, project.ID, models.StatusCompleted, false)
		require.NoError(t, err)
		_, err = s.projects.SetStatus(ctx, s.actor, project.ID, models.StatusActive, false)
		require.ErrorAs(t, err, &transition)
	})
}

func TestDashboardStats(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()

	item := s.mustCreateItem(t, "Tape", 2)
	_, err := s.ledger.AdjustStock(ctx, s.actor, item.ID, 3)
	require.NoError(t, err)
	_, err = s.ledger.AdjustStock(ctx, s.actor, item.ID, -1)
	require.NoError(t, err)

	project, err := s.projects.CreateProject(ctx, s.actor, "Wrap", "")
	require.NoError(t, err)
	_, err = s.projects.AddLineItem(ctx, s.actor, project.ID, item.ID, 1)
	require.NoError(t, err)
	_, err = s.projects.SetStatus(ctx, s.actor, project.ID, models.StatusActive, false)
	require.NoError(t, err)

	stats, err := s.dashboard.Stats(ctx, s.actor)
	require.NoError(t, err)

	require.Equal(t, int64(1), stats.TotalItems)
	require.Len(t, stats.LowStockItems, 1, "stock 3 <= min_stock 5 counts as low")
	require.Len(t, stats.MostUsedItems, 1)
	require.Equal(t, int64(2), stats.MostUsedItems[0].Count)
	require.Len(t, stats.ActiveProjects, 1)
	require.Equal(t, 1, stats.ActiveProjects[0].ItemsCount)
	require.NotEmpty(t, stats.RecentActivity)
	require.NotEmpty(t, stats.MaintenanceItems, "item has no image, description or location")
}
