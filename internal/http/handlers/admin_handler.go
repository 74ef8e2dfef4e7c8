package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"mebellar/internal/domain"
	applog "mebellar/internal/log"
	"mebellar/internal/services"
	"mebellar/internal/specform"
)

// specPrefix marks spec values among the posted form fields.
const specPrefix = "spec."

type AdminHandler struct {
	Catalog *services.CatalogService
	Store   *services.AttributeSchemaStore
	Specs   *services.SpecService
	Lang    domain.Lang
}

func (h *AdminHandler) pageError(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	if domain.IsNotFound(err) {
		return renderStatus(c, fiber.StatusNotFound, "notfound", fiber.Map{"Message": err.Error()})
	}
	applog.Error(c, action, err, fields)
	return renderStatus(c, statusOf(err), "notfound", fiber.Map{"Message": "Could not load the page"})
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return h.pageError(c, "admin.dashboard.fail", err, nil)
	}
	prods, err := h.Catalog.ListProducts(c.UserContext(), "", 1, 100)
	if err != nil {
		return h.pageError(c, "admin.dashboard.fail", err, nil)
	}
	return render(c, "admin_dashboard", fiber.Map{"Categories": cats, "Products": prods})
}

func (h *AdminHandler) attributesPage(c *fiber.Ctx, status int, catID string, form fiber.Map) error {
	cat, err := h.Catalog.Category(c.UserContext(), catID)
	if err != nil {
		return h.pageError(c, "admin.attributes.list.fail", err, map[string]any{"category_id": catID})
	}
	attrs, err := h.Store.ListForCategory(c.UserContext(), catID)
	if err != nil {
		return h.pageError(c, "admin.attributes.list.fail", err, map[string]any{"category_id": catID})
	}
	if form == nil {
		form = fiber.Map{
			"Key": "", "Type": string(domain.InputText), "LabelUZ": "", "LabelRU": "", "LabelEN": "",
			"IsRequired": false, "SortOrder": "", "Options": "",
		}
	}
	return renderStatus(c, status, "admin_attributes", fiber.Map{
		"Category":   cat,
		"Attributes": attrs,
		"Lang":       lang(c, h.Lang),
		"Types":      domain.InputTypes,
		"Form":       form,
	})
}

// GET /admin/categories/:id/attributes
func (h *AdminHandler) AttributesPage(c *fiber.Ctx) error {
	return h.attributesPage(c, fiber.StatusOK, c.Params("id"), nil)
}

// parseOptions reads one option per line as value|uz|ru|en. Missing ru/en
// labels fall back to uz.
func parseOptions(text string) []domain.AttributeOption {
	var out []domain.AttributeOption
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		for len(parts) < 4 {
			parts = append(parts, "")
		}
		o := domain.AttributeOption{
			Value: strings.TrimSpace(parts[0]),
			Label: domain.Label{UZ: strings.TrimSpace(parts[1]), RU: strings.TrimSpace(parts[2]), EN: strings.TrimSpace(parts[3])},
		}
		if o.Label.UZ == "" {
			o.Label.UZ = o.Value
		}
		o.Label = withFallback(o.Label)
		out = append(out, o)
	}
	return out
}

func withFallback(l domain.Label) domain.Label {
	if strings.TrimSpace(l.RU) == "" {
		l.RU = l.UZ
	}
	if strings.TrimSpace(l.EN) == "" {
		l.EN = l.UZ
	}
	return l
}

// attributeForm reads the create/edit form. msg is set when the input
// cannot even be turned into a draft.
func attributeForm(c *fiber.Ctx) (form fiber.Map, d domain.AttributeDraft, msg string) {
	form = fiber.Map{
		"Key":        c.FormValue("key"),
		"Type":       c.FormValue("type"),
		"LabelUZ":    c.FormValue("label_uz"),
		"LabelRU":    c.FormValue("label_ru"),
		"LabelEN":    c.FormValue("label_en"),
		"IsRequired": c.FormValue("is_required") != "",
		"SortOrder":  c.FormValue("sort_order"),
		"Options":    c.FormValue("options"),
	}

	t, err := domain.ParseInputType(c.FormValue("type"))
	if err != nil {
		return form, d, err.Error()
	}
	d = domain.AttributeDraft{
		Key:        c.FormValue("key"),
		InputType:  t,
		Label:      domain.Label{UZ: c.FormValue("label_uz"), RU: c.FormValue("label_ru"), EN: c.FormValue("label_en")},
		IsRequired: c.FormValue("is_required") != "",
	}
	if strings.TrimSpace(d.Label.UZ) != "" {
		d.Label = withFallback(d.Label)
	}
	if t == domain.InputDropdown {
		d.Options = parseOptions(c.FormValue("options"))
	}
	if so := strings.TrimSpace(c.FormValue("sort_order")); so != "" {
		n, err := strconv.Atoi(so)
		if err != nil {
			return form, d, "sort_order: must be a whole number"
		}
		d.SortOrder = &n
	}
	return form, d, ""
}

// POST /admin/categories/:id/attributes
func (h *AdminHandler) CreateAttribute(c *fiber.Ctx) error {
	catID := c.Params("id")
	form, d, msg := attributeForm(c)
	if msg != "" {
		form["Err"] = msg
		return h.attributesPage(c, fiber.StatusUnprocessableEntity, catID, form)
	}

	a, err := h.Store.Create(c.UserContext(), catID, d)
	if err != nil {
		if invalid(err) {
			form["Err"] = err.Error()
			return h.attributesPage(c, fiber.StatusUnprocessableEntity, catID, form)
		}
		return h.pageError(c, "admin.attributes.create.fail", err, map[string]any{"category_id": catID})
	}
	applog.Audit(c, "admin.attributes.create", map[string]any{"category_id": catID, "attribute_id": a.ID, "key": a.Key})
	return c.Redirect("/admin/categories/" + catID + "/attributes")
}

// formatOptions is the inverse of parseOptions.
func formatOptions(opts []domain.AttributeOption) string {
	lines := make([]string, len(opts))
	for i, o := range opts {
		lines[i] = strings.Join([]string{o.Value, o.Label.UZ, o.Label.RU, o.Label.EN}, "|")
	}
	return strings.Join(lines, "\n")
}

func (h *AdminHandler) editPage(c *fiber.Ctx, status int, a domain.AttributeDefinition, form fiber.Map) error {
	cat, err := h.Catalog.Category(c.UserContext(), a.CategoryID)
	if err != nil {
		return h.pageError(c, "admin.attributes.edit.fail", err, map[string]any{"attribute_id": a.ID})
	}
	if form == nil {
		form = fiber.Map{
			"Key":        a.Key,
			"Type":       string(a.InputType),
			"LabelUZ":    a.Label.UZ,
			"LabelRU":    a.Label.RU,
			"LabelEN":    a.Label.EN,
			"IsRequired": a.IsRequired,
			"SortOrder":  strconv.Itoa(a.SortOrder),
			"Options":    formatOptions(a.Options),
		}
	}
	return renderStatus(c, status, "admin_attribute_edit", fiber.Map{
		"Category":  cat,
		"Attribute": a,
		"Types":     domain.InputTypes,
		"Form":      form,
	})
}

// GET /admin/category-attributes/:id/edit
func (h *AdminHandler) EditAttributePage(c *fiber.Ctx) error {
	id := c.Params("id")
	a, err := h.Store.Get(c.UserContext(), id)
	if err != nil {
		return h.pageError(c, "admin.attributes.edit.fail", err, map[string]any{"attribute_id": id})
	}
	return h.editPage(c, fiber.StatusOK, a, nil)
}

// POST /admin/category-attributes/:id
func (h *AdminHandler) UpdateAttribute(c *fiber.Ctx) error {
	id := c.Params("id")
	cur, err := h.Store.Get(c.UserContext(), id)
	if err != nil {
		return h.pageError(c, "admin.attributes.update.fail", err, map[string]any{"attribute_id": id})
	}
	form, d, msg := attributeForm(c)
	if msg != "" {
		form["Err"] = msg
		return h.editPage(c, fiber.StatusUnprocessableEntity, cur, form)
	}

	// the form always carries every field; options go with the type
	p := domain.AttributePatch{
		Key:        &d.Key,
		InputType:  &d.InputType,
		Label:      &d.Label,
		IsRequired: &d.IsRequired,
		SortOrder:  d.SortOrder,
	}
	if d.InputType == domain.InputDropdown {
		p.Options = &d.Options
	}
	a, err := h.Store.Update(c.UserContext(), id, p)
	if err != nil {
		if invalid(err) {
			form["Err"] = err.Error()
			return h.editPage(c, fiber.StatusUnprocessableEntity, cur, form)
		}
		return h.pageError(c, "admin.attributes.update.fail", err, map[string]any{"attribute_id": id})
	}
	applog.Audit(c, "admin.attributes.update", map[string]any{"attribute_id": a.ID, "key": a.Key, "type": string(a.InputType)})
	return c.Redirect("/admin/categories/" + a.CategoryID + "/attributes")
}

// POST /admin/category-attributes/:id/delete
func (h *AdminHandler) DeleteAttribute(c *fiber.Ctx) error {
	id := c.Params("id")
	a, err := h.Store.Get(c.UserContext(), id)
	if err != nil {
		return h.pageError(c, "admin.attributes.delete.fail", err, map[string]any{"attribute_id": id})
	}
	if err := h.Store.Delete(c.UserContext(), id); err != nil {
		return h.pageError(c, "admin.attributes.delete.fail", err, map[string]any{"attribute_id": id})
	}
	applog.Audit(c, "admin.attributes.delete", map[string]any{"attribute_id": id, "key": a.Key})
	return c.Redirect("/admin/categories/" + a.CategoryID + "/attributes")
}

func (h *AdminHandler) specsPage(c *fiber.Ctx, status int, edit *services.SpecEdit, fields []specform.FieldView, saved bool) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return h.pageError(c, "admin.specs.fail", err, nil)
	}
	return renderStatus(c, status, "admin_product_specs", fiber.Map{
		"Product":    edit.Product,
		"CategoryID": edit.CategoryID,
		"Categories": cats,
		"Fields":     fields,
		"Orphans":    edit.Session.Orphans(),
		"Saved":      saved,
	})
}

// GET /admin/products/:id/specs?category=
func (h *AdminHandler) SpecsPage(c *fiber.Ctx) error {
	id := c.Params("id")
	edit, err := h.Specs.Open(c.UserContext(), id, c.Query("category"))
	if err != nil {
		return h.pageError(c, "admin.specs.open.fail", err, map[string]any{"product_id": id})
	}
	return h.specsPage(c, fiber.StatusOK, edit, edit.Session.View(lang(c, h.Lang)), c.Query("saved") == "1")
}

// postedSpecs collects the spec.* form fields.
func postedSpecs(c *fiber.Ctx) map[string]any {
	out := map[string]any{}
	c.Request().PostArgs().VisitAll(func(k, v []byte) {
		if key, ok := strings.CutPrefix(string(k), specPrefix); ok && key != "" {
			out[key] = string(v)
		}
	})
	return out
}

// POST /admin/products/:id/specs
func (h *AdminHandler) SaveSpecs(c *fiber.Ctx) error {
	id := c.Params("id")
	catID := c.FormValue("category_id")
	values := postedSpecs(c)

	_, err := h.Specs.Save(c.UserContext(), id, services.SpecUpdate{CategoryID: catID, Values: values, Complete: true})
	if err == nil {
		applog.Audit(c, "admin.specs.save", map[string]any{"product_id": id, "category_id": catID})
		return c.Redirect("/admin/products/" + id + "/specs?saved=1")
	}
	if !invalid(err) {
		return h.pageError(c, "admin.specs.save.fail", err, map[string]any{"product_id": id})
	}

	// redraw the form with what was posted and the field messages
	edit, oerr := h.Specs.Open(c.UserContext(), id, catID)
	if oerr != nil {
		return h.pageError(c, "admin.specs.open.fail", oerr, map[string]any{"product_id": id})
	}
	// values that failed coercion are shown as typed
	typed := map[string]string{}
	for _, f := range edit.Session.Fields() {
		key := f.Definition.Key
		if serr := edit.Session.SetValue(key, values[key]); serr != nil {
			if s, ok := values[key].(string); ok {
				typed[key] = s
			}
		}
	}
	views := specform.WithErrors(edit.Session.View(lang(c, h.Lang)), err)
	for i := range views {
		if s, ok := typed[views[i].Key]; ok {
			views[i].Value = s
		}
	}
	return h.specsPage(c, fiber.StatusUnprocessableEntity, edit, views, false)
}
