package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tidwall/gjson"

	"mebellar/internal/domain"
	"mebellar/internal/services"
	"mebellar/internal/specform"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
	Store   *services.AttributeSchemaStore
	Specs   *services.SpecService
	Lang    domain.Lang
}

// GET /api/v1/categories
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "categories": cats, "count": len(cats)})
}

// GET /api/v1/categories/:id/attributes
func (h *CategoryHandler) Attributes(c *fiber.Ctx) error {
	attrs, err := h.Store.ListForCategory(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "attributes": attrs, "count": len(attrs)})
}

// GET /api/v1/categories/:id/attributes/schema
func (h *CategoryHandler) Schema(c *fiber.Ctx) error {
	id := c.Params("id")
	attrs, err := h.Store.ListForCategory(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	doc := specform.BuildJSONSchema(attrs, lang(c, h.Lang))
	doc["$id"] = "urn:mebellar:category:" + id + ":specs"
	if err := c.JSON(doc); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/schema+json")
	return nil
}

// POST /api/v1/categories/:id/specs/validate with {"specs": {...}}. Nothing
// is stored.
func (h *CategoryHandler) ValidateSpecs(c *fiber.Ctx) error {
	body := c.Body()
	if !gjson.ValidBytes(body) {
		return fail(c, &domain.ValidationError{Field: "body", Message: "malformed JSON"})
	}
	specs, err := specform.DecodeSpecs([]byte(gjson.GetBytes(body, "specs").Raw))
	if err != nil {
		return fail(c, err)
	}
	out, err := h.Specs.Check(c.UserContext(), c.Params("id"), specs)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "specs": out})
}
