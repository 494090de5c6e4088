package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"inventory-service/internal/auth"
	"inventory-service/internal/models"
	"inventory-service/internal/services"
)

// ProjectHandler defines handlers for project resources and their lifecycle.
type ProjectHandler struct {
	Projects *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler with the given ProjectService.
func NewProjectHandler(projects *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{Projects: projects}
}

type projectCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type lineItemRequest struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

type statusRequest struct {
	Status models.ProjectStatus `json:"status"`
}

// ListProjects handles GET /projects.
// @Summary List projects
// @Description Gets all projects owned by the caller, with line items
// @Tags projects
// @Accept json
// @Produce json
// @Success 200 {array} models.Project "List of projects"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /projects [get]
func (h *ProjectHandler) ListProjects(c *fiber.Ctx) error {
	projects, err := h.Projects.ListProjects(c.Context(), auth.ActorID(c))
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(projects)
}

// GetProject handles GET /projects/:id.
// @Summary Get a project by ID
// @Description Get a project including its line items
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID" Format(uuid)
// @Success 200 {object} models.Project "Project found"
// @Failure 400 {object} map[string]interface{} "Invalid UUID"
// @Failure 404 {object} map[string]interface{} "Project not found"
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidUuidError,
		})
	}
	project, err := h.Projects.GetProject(c.Context(), auth.ActorID(c), id)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(project)
}

// CreateProject handles POST /projects.
// @Summary Create a project
// @Description Create a new project in PLANNING
// @Tags projects
// @Accept json
// @Produce json
// @Param project body handlers.projectCreateRequest true "Project data"
// @Success 201 {object} models.Project "Project created"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Router /projects [post]
func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	var in projectCreateRequest
	if err := c.BodyParser(&in); err != nil {
		log.Printf("Error parsing project data: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request format",
			"details": err.Error(),
		})
	}
	project, err := h.Projects.CreateProject(c.Context(), auth.ActorID(c), in.Title, in.Description)
	if err != nil {
		return renderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// AddLineItem handles POST /projects/:id/items.
// @Summary Add a line item
// @Description Reserve a quantity of an item; only legal while the project is in PLANNING
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID" Format(uuid)
// @Param line body handlers.lineItemRequest true "Item and quantity"
// @Success 200 {object} models.Project "Updated project"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Project or item not found"
// @Failure 409 {object} map[string]interface{} "Project is not in PLANNING"
// @Router /projects/{id}/items [post]
func (h *ProjectHandler) AddLineItem(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidUuidError,
		})
	}
	var in lineItemRequest
	if err := c.BodyParser(&in); err != nil {
		log.Printf("Error parsing line item data: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request format",
			"details": err.Error(),
		})
	}
	project, err := h.Projects.AddLineItem(c.Context(), auth.ActorID(c), id, in.ItemID, in.Quantity)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(project)
}

// SetStatus handles PUT /projects/:id/status.
// @Summary Change project status
// @Description Drive the PLANNING -> ACTIVE -> COMPLETED lifecycle; activation deducts stock atomically, completion optionally returns it
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID" Format(uuid)
// @Param status body handlers.statusRequest true "Target status"
// @Param return_items query bool false "Return deducted stock on completion"
// @Success 200 {object} models.Project "Updated project"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Project not found"
// @Failure 409 {object} map[string]interface{} "Invalid transition or insufficient stock"
// @Router /projects/{id}/status [put]
func (h *ProjectHandler) SetStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidUuidError,
		})
	}
	var in statusRequest
	if err := c.BodyParser(&in); err != nil {
		log.Printf("Error parsing status data: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request format",
			"details": err.Error(),
		})
	}
	returnItems := c.QueryBool("return_items", false)
	project, err := h.Projects.SetStatus(c.Context(), auth.ActorID(c), id, in.Status, returnItems)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(project)
}

// DeleteProject handles DELETE /projects/:id.
// @Summary Delete a project
// @Description Delete a project together with its line items
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID" Format(uuid)
// @Success 200 {object} map[string]interface{} "Project deleted"
// @Failure 400 {object} map[string]interface{} "Invalid UUID"
// @Failure 404 {object} map[string]interface{} "Project not found"
// @Router /projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidUuidError,
		})
	}
	if err := h.Projects.DeleteProject(c.Context(), auth.ActorID(c), id); err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Project deleted"})
}
