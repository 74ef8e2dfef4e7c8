package handlers

import (
	"github.com/gofiber/fiber/v2"

	"mebellar/internal/domain"
	applog "mebellar/internal/log"
	"mebellar/internal/services"
)

// AttributeHandler is the admin JSON API over the schema store.
type AttributeHandler struct {
	Store *services.AttributeSchemaStore
}

// POST /api/v1/admin/categories/:id/attributes
func (h *AttributeHandler) Create(c *fiber.Ctx) error {
	var d domain.AttributeDraft
	if err := decodeJSON(c, &d); err != nil {
		return fail(c, err)
	}
	catID := c.Params("id")
	a, err := h.Store.Create(c.UserContext(), catID, d)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "attribute.create", map[string]any{"category_id": catID, "attribute_id": a.ID, "key": a.Key})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "attribute": a})
}

// GET /api/v1/admin/category-attributes/:id
func (h *AttributeHandler) Get(c *fiber.Ctx) error {
	a, err := h.Store.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "attribute": a})
}

// PUT /api/v1/admin/category-attributes/:id
func (h *AttributeHandler) Update(c *fiber.Ctx) error {
	var p domain.AttributePatch
	if err := decodeJSON(c, &p); err != nil {
		return fail(c, err)
	}
	a, err := h.Store.Update(c.UserContext(), c.Params("id"), p)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "attribute.update", map[string]any{"attribute_id": a.ID, "key": a.Key})
	return c.JSON(fiber.Map{"success": true, "attribute": a})
}

// DELETE /api/v1/admin/category-attributes/:id
func (h *AttributeHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Store.Delete(c.UserContext(), id); err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "attribute.delete", map[string]any{"attribute_id": id})
	return c.JSON(fiber.Map{"success": true, "message": "attribute deleted"})
}
