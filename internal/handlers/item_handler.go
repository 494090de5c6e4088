package handlers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"inventory-service/internal/auth"
	"inventory-service/internal/models"
	"inventory-service/internal/services"
)

// ItemHandler defines handlers for inventory item resources. All stock
// mutation funnels into the ledger service.
type ItemHandler struct {
	Ledger *services.LedgerService
}

// NewItemHandler creates a new ItemHandler with the given LedgerService.
func NewItemHandler(ledger *services.LedgerService) *ItemHandler {
	return &ItemHandler{Ledger: ledger}
}

// ListItems handles GET /items to retrieve the caller's items.
// @Summary List inventory items
// @Description Gets all inventory items owned by the caller
// @Tags items
// @Accept json
// @Produce json
// @Success 200 {array} models.InventoryItem "List of items"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /items [get]
func (h *ItemHandler) ListItems(c *fiber.Ctx) error {
	items, err := h.Ledger.ListItems(c.Context(), auth.ActorID(c))
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(items)
}

// GetItem handles GET /items/:id.
// @Summary Get an inventory item by ID
// @Description Get details of a specific inventory item
// @Tags items
// @Accept json
// @Produce json
// @Param id path string true "Item ID" Format(uuid)
// @Success 200 {object} models.InventoryItem "Item found"
// @Failure 400 {object} map[string]interface{} "Invalid UUID"
// @Failure 404 {object} map[string]interface{} "Item not found"
// @Router /items/{id} [get]
func (h *ItemHandler) GetItem(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidUuidError,
		})
	}
	item, err := h.Ledger.GetItem(c.Context(), auth.ActorID(c), id)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(item)
}

// CreateItem handles POST /items.
// @Summary Create an inventory item
// @Description Create a new inventory item with initial stock
// @Tags items
// @Accept json
// @Produce json
// @Param item body models.ItemCreate true "Item data"
// @Success 201 {object} models.InventoryItem "Item created"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Router /items [post]
func (h *ItemHandler) CreateItem(c *fiber.Ctx) error {
	var in models.ItemCreate
	if err := c.BodyParser(&in); err != nil {
		log.Printf("Error parsing item data: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request format",
			"details": err.Error(),
		})
	}
	item, err := h.Ledger.CreateItem(c.Context(), auth.ActorID(c), in)
	if err != nil {
		return renderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateItem handles PUT /items/:id with a partial field patch.
// @Summary Update an inventory item
// @Description Apply a partial field patch; only fields present in the body change
// @Tags items
// @Accept json
// @Produce json
// @Param id path string true "Item ID" Format(uuid)
// @Param item body models.ItemUpdate true "Fields to update"
// @Success 200 {object} models.InventoryItem "Item updated"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Item not found"
// @Router /items/{id} [put]
func (h *ItemHandler) UpdateItem(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidUuidError,
		})
	}
	var upd models.ItemUpdate
	if err := c.BodyParser(&upd); err != nil {
		log.Printf("Error parsing item patch: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request format",
			"details": err.Error(),
		})
	}
	item, err := h.Ledger.UpdateItem(c.Context(), auth.ActorID(c), id, upd)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(item)
}

// DeleteItem handles DELETE /items/:id.
// @Summary Delete an inventory item
// @Description Delete an item; audit entries keep a dangling reference
// @Tags items
// @Accept json
// @Produce json
// @Param id path string true "Item ID" Format(uuid)
// @Success 200 {object} map[string]interface{} "Item deleted"
// @Failure 400 {object} map[string]interface{} "Invalid UUID"
// @Failure 404 {object} map[string]interface{} "Item not found"
// @Router /items/{id} [delete]
func (h *ItemHandler) DeleteItem(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidUuidError,
		})
	}
	if err := h.Ledger.DeleteItem(c.Context(), auth.ActorID(c), id); err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Item deleted"})
}

// AddStock handles POST /items/:id/add/:amount.
// @Summary Add stock
// @Description Increase an item's stock by a positive amount
// @Tags items
// @Accept json
// @Produce json
// @Param id path string true "Item ID" Format(uuid)
// @Param amount path int true "Units to add"
// @Success 200 {object} models.InventoryItem "Updated item"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Item not found"
// @Router /items/{id}/add/{amount} [post]
func (h *ItemHandler) AddStock(c *fiber.Ctx) error {
	return h.adjust(c, 1)
}

// RemoveStock handles POST /items/:id/remove/:amount.
// @Summary Remove stock
// @Description Decrease an item's stock; fails when the result would be negative
// @Tags items
// @Accept json
// @Produce json
// @Param id path string true "Item ID" Format(uuid)
// @Param amount path int true "Units to remove"
// @Success 200 {object} models.InventoryItem "Updated item"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Item not found"
// @Failure 409 {object} map[string]interface{} "Insufficient stock"
// @Router /items/{id}/remove/{amount} [post]
func (h *ItemHandler) RemoveStock(c *fiber.Ctx) error {
	return h.adjust(c, -1)
}

func (h *ItemHandler) adjust(c *fiber.Ctx, sign int) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidUuidError,
		})
	}
	amount, err := strconv.Atoi(c.Params("amount"))
	if err != nil || amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "amount must be a positive integer",
		})
	}
	item, err := h.Ledger.AdjustStock(c.Context(), auth.ActorID(c), id, sign*amount)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(item)
}
