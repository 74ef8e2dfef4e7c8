package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tidwall/gjson"

	"mebellar/internal/domain"
	applog "mebellar/internal/log"
	"mebellar/internal/services"
	"mebellar/internal/specform"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Specs   *services.SpecService
}

// GET /api/v1/products/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	p, err := h.Catalog.Product(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "product": p})
}

// POST /api/v1/admin/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var d domain.ProductDraft
	if err := decodeJSON(c, &d); err != nil {
		return fail(c, err)
	}
	p, err := h.Specs.Create(c.UserContext(), d)
	if err != nil {
		return fail(c, err)
	}
	view, err := services.NewProductView(p)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "product.create", map[string]any{"product_id": p.ID, "category_id": p.CategoryID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "product": view})
}

// PUT /api/v1/admin/products/:id/specs with {"category_id"?, "specs": {...}}.
// Keys left out of specs keep their stored values.
func (h *ProductHandler) SaveSpecs(c *fiber.Ctx) error {
	body := c.Body()
	if !gjson.ValidBytes(body) {
		return fail(c, &domain.ValidationError{Field: "body", Message: "malformed JSON"})
	}
	specs, err := specform.DecodeSpecs([]byte(gjson.GetBytes(body, "specs").Raw))
	if err != nil {
		return fail(c, err)
	}
	// explicit nulls clear a field
	gjson.GetBytes(body, "specs").ForEach(func(k, v gjson.Result) bool {
		if v.Type == gjson.Null {
			specs[k.String()] = nil
		}
		return true
	})

	id := c.Params("id")
	u := services.SpecUpdate{CategoryID: gjson.GetBytes(body, "category_id").String(), Values: specs}
	out, err := h.Specs.Save(c.UserContext(), id, u)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "product.specs.save", map[string]any{"product_id": id, "keys": len(out)})
	return c.JSON(fiber.Map{"success": true, "specs": out})
}
