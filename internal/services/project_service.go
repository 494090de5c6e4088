package services

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"inventory-service/internal/metrics"
	"inventory-service/internal/models"
	"inventory-service/internal/repository"
)

// ProjectService owns the project lifecycle. Status transitions that touch
// stock go through the ledger's bulk adjustment inside one transaction, so a
// transition either fully applies (stock, audit entries, status) or leaves
// everything untouched.
type ProjectService struct {
	db       *gorm.DB
	projects *repository.ProjectRepository
	items    *repository.ItemRepository
	activity *repository.ActivityRepository
	ledger   *LedgerService
}

// NewProjectService creates a new ProjectService.
func NewProjectService(db *gorm.DB, projects *repository.ProjectRepository, items *repository.ItemRepository, activity *repository.ActivityRepository, ledger *LedgerService) *ProjectService {
	return &ProjectService{
		db:       db,
		projects: projects,
		items:    items,
		activity: activity,
		ledger:   ledger,
	}
}

// CreateProject inserts a project in PLANNING and writes the CREATE_PROJECT
// audit entry in the same transaction.
func (s *ProjectService) CreateProject(ctx context.Context, actorID uuid.UUID, title, description string) (*models.Project, error) {
	if title == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	project := &models.Project{
		ID:          uuid.New(),
		OwnerID:     actorID,
		Title:       title,
		Description: description,
		Status:      models.StatusPlanning,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.projects.CreateProject(tx, project); err != nil {
			return errors.Wrap(err, "create project")
		}
		return s.appendLog(tx, &models.ActivityLog{
			ActorID: actorID,
			Action:  models.ActionCreateProject,
			Details: fmt.Sprintf("Created project '%s'", project.Title),
		})
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// GetProject returns one project with its line items.
func (s *ProjectService) GetProject(ctx context.Context, actorID, id uuid.UUID) (*models.Project, error) {
	project, err := s.projects.GetProjectWithItems(actorID, id)
	if err != nil {
		return nil, s.notFound(id, err)
	}
	return project, nil
}

// ListProjects returns all projects owned by the actor.
func (s *ProjectService) ListProjects(ctx context.Context, actorID uuid.UUID) ([]models.Project, error) {
	return s.projects.ListProjects(actorID)
}

// AddLineItem reserves a quantity of an item for a project still in
// PLANNING. A second reservation of the same item merges by adding the
// quantities. No stock moves here; the deduction happens at activation.
func (s *ProjectService) AddLineItem(ctx context.Context, actorID, projectID, itemID uuid.UUID, quantity int) (*models.Project, error) {
	if quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := s.projects.GetProjectForUpdate(tx, actorID, projectID)
		if err != nil {
			return s.notFound(projectID, err)
		}
		if project.Status != models.StatusPlanning {
			return &InvalidTransitionError{From: project.Status, Op: "adding items"}
		}
		if _, err := s.items.GetItemForUpdate(tx, actorID, itemID); err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "item", ID: itemID}
			}
			return errors.Wrap(err, "load item")
		}

		line, err := s.projects.GetLineItem(tx, projectID, itemID)
		switch {
		case err == nil:
			line.Quantity += quantity
			return errors.Wrap(s.projects.SaveLineItem(tx, line), "merge line item")
		case stderrors.Is(err, gorm.ErrRecordNotFound):
			line = &models.ProjectItem{
				ID:        uuid.New(),
				ProjectID: projectID,
				ItemID:    itemID,
				Quantity:  quantity,
			}
			return errors.Wrap(s.projects.CreateLineItem(tx, line), "create line item")
		default:
			return errors.Wrap(err, "load line item")
		}
	})
	if err != nil {
		return nil, err
	}
	return s.GetProject(ctx, actorID, projectID)
}

// SetStatus drives the PLANNING -> ACTIVE -> COMPLETED state machine.
// Activation deducts stock for every line item through one bulk adjustment;
// completion either returns the deducted stock or consumes it. Stock
// changes, audit entries and the status write commit together or not at all.
func (s *ProjectService) SetStatus(ctx context.Context, actorID, projectID uuid.UUID, newStatus models.ProjectStatus, returnItems bool) (*models.Project, error) {
	if !newStatus.Valid() {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", newStatus)}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := s.projects.GetProjectForUpdate(tx, actorID, projectID)
		if err != nil {
			return s.notFound(projectID, err)
		}
		if !project.Status.CanTransition(newStatus) {
			return &InvalidTransitionError{From: project.Status, To: newStatus}
		}

		lines, err := s.projects.ListLineItems(tx, project.ID)
		if err != nil {
			return errors.Wrap(err, "load line items")
		}

		switch newStatus {
		case models.StatusActive:
			if err := s.activate(tx, actorID, project, lines); err != nil {
				return err
			}
		case models.StatusCompleted:
			if err := s.complete(tx, actorID, project, lines, returnItems); err != nil {
				return err
			}
		}

		project.Status = newStatus
		if err := s.projects.SaveProject(tx, project); err != nil {
			return errors.Wrap(err, "save status")
		}
		metrics.ProjectTransitionsTotal.WithLabelValues(string(newStatus)).Inc()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProject(ctx, actorID, projectID)
}

// DeleteProject removes a project together with its line items. Reserved
// quantities of a PLANNING project were never deducted, and a completed
// project's stock movement is history; either way no stock moves here.
func (s *ProjectService) DeleteProject(ctx context.Context, actorID, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := s.projects.GetProjectForUpdate(tx, actorID, id)
		if err != nil {
			return s.notFound(id, err)
		}
		return errors.Wrap(s.projects.DeleteProject(tx, project.ID), "delete project")
	})
}

// activate deducts every line item's quantity in one all-or-nothing bulk
// adjustment and writes a PROJECT_USE entry per line.
func (s *ProjectService) activate(tx *gorm.DB, actorID uuid.UUID, project *models.Project, lines []models.ProjectItem) error {
	adjustments := make([]StockAdjustment, 0, len(lines))
	for _, line := range lines {
		adjustments = append(adjustments, StockAdjustment{ItemID: line.ItemID, Delta: -line.Quantity})
	}
	adjusted, err := s.ledger.BulkAdjustTx(tx, actorID, adjustments)
	if err != nil {
		return err
	}
	for _, line := range lines {
		itemID := line.ItemID
		entry := &models.ActivityLog{
			ActorID:  actorID,
			ItemID:   &itemID,
			ItemName: adjusted[line.ItemID].Name,
			Action:   models.ActionProjectUse,
			Details:  fmt.Sprintf("Used %d for project '%s'", line.Quantity, project.Title),
		}
		if err := s.appendLog(tx, entry); err != nil {
			return err
		}
	}
	return nil
}

// complete finishes an ACTIVE project. With returnItems the deducted stock
// flows back; line items whose inventory row has since been deleted are
// skipped, the weak reference cannot be restored. Without returnItems the
// stock stays deducted and a single PROJECT_CONSUME entry records the
// consumption.
func (s *ProjectService) complete(tx *gorm.DB, actorID uuid.UUID, project *models.Project, lines []models.ProjectItem, returnItems bool) error {
	if !returnItems {
		return s.appendLog(tx, &models.ActivityLog{
			ActorID: actorID,
			Action:  models.ActionProjectConsume,
			Details: fmt.Sprintf("Consumed items for project '%s'", project.Title),
		})
	}

	// Locks in the same ascending-id order as activation, so a concurrent
	// activation over overlapping items cannot deadlock against the return.
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ItemID)
	}
	items, err := s.items.GetItemsForUpdate(tx, actorID, ids)
	if err != nil {
		return errors.Wrap(err, "lock items for return")
	}
	byID := make(map[uuid.UUID]*models.InventoryItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	for _, line := range lines {
		item, ok := byID[line.ItemID]
		if !ok {
			continue
		}
		item.Stock += line.Quantity
		if err := s.items.SaveItem(tx, item); err != nil {
			return errors.Wrap(err, "return stock")
		}
		metrics.StockAdjustmentsTotal.WithLabelValues("add").Inc()
		itemID := line.ItemID
		entry := &models.ActivityLog{
			ActorID:  actorID,
			ItemID:   &itemID,
			ItemName: item.Name,
			Action:   models.ActionProjectReturn,
			Details:  fmt.Sprintf("Returned %d from project '%s'", line.Quantity, project.Title),
		}
		if err := s.appendLog(tx, entry); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProjectService) appendLog(tx *gorm.DB, entry *models.ActivityLog) error {
	if err := s.activity.Append(tx, entry); err != nil {
		return errors.Wrap(err, "append activity log")
	}
	metrics.ActivityEntriesTotal.WithLabelValues(string(entry.Action)).Inc()
	return nil
}

func (s *ProjectService) notFound(id uuid.UUID, err error) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: "project", ID: id}
	}
	return errors.Wrap(err, "load project")
}
