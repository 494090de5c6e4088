package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"inventory-service/internal/models"
)

// ProjectRepository provides methods to interact with the Project model and
// its owned line items in the database.
type ProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository instance with the provided GORM database connection.
func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// CreateProject creates a new Project inside the given transaction.
func (r *ProjectRepository) CreateProject(tx *gorm.DB, project *models.Project) error {
	return tx.Create(project).Error
}

// GetProject retrieves a Project by its ID, scoped to its owner.
func (r *ProjectRepository) GetProject(ownerID, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := r.db.First(&project, "id = ? AND owner_id = ?", id, ownerID).Error
	return &project, err
}

// GetProjectWithItems retrieves a Project by its ID along with its line items
// and the inventory items they reference.
func (r *ProjectRepository) GetProjectWithItems(ownerID, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := r.db.Preload("Items").Preload("Items.Item").
		First(&project, "id = ? AND owner_id = ?", id, ownerID).Error
	return &project, err
}

// GetProjectForUpdate loads a project under a row-level lock. Status
// transitions and line-item mutations read the project through here so two
// concurrent calls on the same project serialize.
func (r *ProjectRepository) GetProjectForUpdate(tx *gorm.DB, ownerID, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&project, "id = ? AND owner_id = ?", id, ownerID).Error
	return &project, err
}

// SaveProject persists all fields of an already-loaded project.
func (r *ProjectRepository) SaveProject(tx *gorm.DB, project *models.Project) error {
	return tx.Save(project).Error
}

// DeleteProject deletes a Project and its line items in one transaction.
// Line items never outlive their project.
func (r *ProjectRepository) DeleteProject(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("project_id = ?", id).Delete(&models.ProjectItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Project{}, "id = ?", id).Error
}

// ListProjects retrieves all Projects owned by the given user, with line items.
func (r *ProjectRepository) ListProjects(ownerID uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.Preload("Items").Preload("Items.Item").
		Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&projects).Error
	return projects, err
}

// ListLineItems loads the line items of a project inside the given transaction.
func (r *ProjectRepository) ListLineItems(tx *gorm.DB, projectID uuid.UUID) ([]models.ProjectItem, error) {
	var items []models.ProjectItem
	err := tx.Where("project_id = ?", projectID).Order("created_at").Find(&items).Error
	return items, err
}

// GetLineItem fetches the line item for one (project, item) pair, if present.
func (r *ProjectRepository) GetLineItem(tx *gorm.DB, projectID, itemID uuid.UUID) (*models.ProjectItem, error) {
	var line models.ProjectItem
	err := tx.First(&line, "project_id = ? AND item_id = ?", projectID, itemID).Error
	return &line, err
}

// CreateLineItem inserts a new line item inside the given transaction.
func (r *ProjectRepository) CreateLineItem(tx *gorm.DB, line *models.ProjectItem) error {
	return tx.Create(line).Error
}

// SaveLineItem persists all fields of an already-loaded line item.
func (r *ProjectRepository) SaveLineItem(tx *gorm.DB, line *models.ProjectItem) error {
	return tx.Save(line).Error
}
