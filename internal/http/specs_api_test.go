package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorCodes(t *testing.T, body map[string]any) map[string]string {
	t.Helper()
	list, ok := body["errors"].([]any)
	require.True(t, ok, body)
	out := map[string]string{}
	for _, e := range list {
		m := e.(map[string]any)
		out[m["field"].(string)] = m["code"].(string)
	}
	return out
}

func TestValidateSpecs(t *testing.T) {
	app := newTestApp(t)
	path := "/api/v1/categories/sofas/specs/validate"

	t.Run("required fields aggregate", func(t *testing.T) {
		status, body := apiCall(t, app, "POST", path, "", map[string]any{"specs": map[string]any{}})
		require.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, map[string]string{
			"color": "REQUIRED_FIELD_MISSING",
			"seats": "REQUIRED_FIELD_MISSING",
		}, errorCodes(t, body))
	})

	t.Run("invalid option keeps other errors", func(t *testing.T) {
		status, body := apiCall(t, app, "POST", path, "", map[string]any{"specs": map[string]any{"color": "red"}})
		require.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, map[string]string{
			"color": "INVALID_OPTION",
			"seats": "REQUIRED_FIELD_MISSING",
		}, errorCodes(t, body))
	})

	t.Run("valid map is serialized sparsely", func(t *testing.T) {
		status, body := apiCall(t, app, "POST", path, "", map[string]any{"specs": map[string]any{
			"color": "grey", "seats": 0, "foldable": false, "material": "  ", "legacy_sku": "X-1",
		}})
		require.Equal(t, http.StatusOK, status, body)
		assert.Equal(t, map[string]any{"color": "grey", "seats": float64(0), "legacy_sku": "X-1"}, body["specs"])
	})

	t.Run("wrong shape fails the schema check", func(t *testing.T) {
		status, body := apiCall(t, app, "POST", path, "", map[string]any{"specs": map[string]any{"color": "grey", "seats": "3"}})
		require.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "specs", body["error"].(map[string]any)["field"])
	})

	t.Run("nested values are rejected", func(t *testing.T) {
		status, body := apiCall(t, app, "POST", path, "", `{"specs":{"color":"grey","seats":2,"extra":{"a":1}}}`)
		require.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "extra", body["error"].(map[string]any)["field"])
	})

	t.Run("unknown category", func(t *testing.T) {
		status, _ := apiCall(t, app, "POST", "/api/v1/categories/garage/specs/validate", "", map[string]any{"specs": map[string]any{}})
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func productSpecs(t *testing.T, app *testApp, id string) (string, map[string]any) {
	t.Helper()
	status, body := apiCall(t, app, "GET", "/api/v1/products/"+id, "", nil)
	require.Equal(t, http.StatusOK, status)
	p := body["product"].(map[string]any)
	return p["category_id"].(string), p["specs"].(map[string]any)
}

func TestSaveSpecsAPI(t *testing.T) {
	app := newTestApp(t)
	token := adminToken(t, app)
	path := "/api/v1/admin/products/sofa-001/specs"

	// partial update: only material changes, and blank clears it
	status, body := apiCall(t, app, "PUT", path, token, map[string]any{"specs": map[string]any{"material": ""}})
	require.Equal(t, http.StatusOK, status, body)
	_, specs := productSpecs(t, app, "sofa-001")
	assert.Equal(t, map[string]any{"color": "grey", "seats": float64(3), "foldable": true}, specs)

	// explicit null clears a field
	status, _ = apiCall(t, app, "PUT", path, token, `{"specs":{"foldable":null}}`)
	require.Equal(t, http.StatusOK, status)
	_, specs = productSpecs(t, app, "sofa-001")
	assert.NotContains(t, specs, "foldable")

	// invalid option is reported and nothing is stored
	status, body = apiCall(t, app, "PUT", path, token, map[string]any{"specs": map[string]any{"color": "red"}})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, map[string]string{"color": "INVALID_OPTION"}, errorCodes(t, body))
	_, specs = productSpecs(t, app, "sofa-001")
	assert.Equal(t, "grey", specs["color"])

	// numbers without a JSON form are field errors, not server errors
	for _, v := range []string{"NaN", "Inf"} {
		status, body = apiCall(t, app, "PUT", path, token, map[string]any{"specs": map[string]any{"seats": v}})
		require.Equal(t, http.StatusUnprocessableEntity, status, v)
		assert.Equal(t, map[string]string{"seats": "VALIDATION_FAILED"}, errorCodes(t, body))
	}
	status, body = apiCall(t, app, "PUT", path, token, `{"specs":{"seats":1e400}}`)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "seats", body["error"].(map[string]any)["field"])
	_, specs = productSpecs(t, app, "sofa-001")
	assert.Equal(t, float64(3), specs["seats"])

	// anonymous callers are turned away
	status, _ = apiCall(t, app, "PUT", path, "", map[string]any{"specs": map[string]any{}})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSaveSpecsPreservesOrphans(t *testing.T) {
	app := newTestApp(t)
	token := adminToken(t, app)

	status, body := apiCall(t, app, "PUT", "/api/v1/admin/products/sofa-002/specs", token, map[string]any{
		"specs": map[string]any{"foldable": true},
	})
	require.Equal(t, http.StatusOK, status, body)
	_, specs := productSpecs(t, app, "sofa-002")
	assert.Equal(t, "LNG-44", specs["legacy_sku"])
	assert.Equal(t, true, specs["foldable"])
}

func TestSaveSpecsCategoryMove(t *testing.T) {
	app := newTestApp(t)
	token := adminToken(t, app)

	status, body := apiCall(t, app, "PUT", "/api/v1/admin/products/bed-001/specs", token, map[string]any{
		"category_id": "sofas",
		"specs":       map[string]any{"color": "green", "seats": 2},
	})
	require.Equal(t, http.StatusOK, status, body)

	cat, specs := productSpecs(t, app, "bed-001")
	assert.Equal(t, "sofas", cat)
	assert.Equal(t, "green", specs["color"])
	assert.Equal(t, "double", specs["size"], "values of the old category are kept as orphans")
}

func TestCreateProductAPI(t *testing.T) {
	app := newTestApp(t)
	token := adminToken(t, app)

	status, body := apiCall(t, app, "POST", "/api/v1/admin/products", token, map[string]any{
		"category_id": "bedroom",
		"name":        "Yog'och karavot",
		"price":       2100000,
		"specs":       map[string]any{"size": "single", "has_storage": false},
	})
	require.Equal(t, http.StatusCreated, status, body)
	p := body["product"].(map[string]any)
	assert.Equal(t, map[string]any{"size": "single"}, p["specs"])

	status, body = apiCall(t, app, "POST", "/api/v1/admin/products", token, map[string]any{
		"category_id": "bedroom",
		"name":        "Karavot",
		"price":       10,
		"specs":       map[string]any{},
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, map[string]string{"size": "REQUIRED_FIELD_MISSING"}, errorCodes(t, body))

	status, body = apiCall(t, app, "POST", "/api/v1/admin/products", token, map[string]any{"category_id": "bedroom", "price": 10})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "name", body["error"].(map[string]any)["field"])
}
