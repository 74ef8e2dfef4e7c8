package upstream_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mebellar/internal/domain"
	"mebellar/internal/upstream"
)

const attrJSON = `{"id":"a1","category_id":"sofas","key":"color","type":"dropdown",
 "label":{"uz":"Rang","ru":"","en":""},"options":[{"value":"grey","label":{"uz":"Kulrang","ru":"","en":""}}],
 "is_required":true,"sort_order":0}`

func server(t *testing.T, h http.HandlerFunc) *upstream.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := upstream.NewClient(srv.URL+"/api/v1/", upstream.WithToken("tok"), upstream.WithTimeout(2*time.Second))
	require.NoError(t, err)
	return c
}

func TestCategoryAttributes(t *testing.T) {
	c := server(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/categories/sofas/attributes", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"success":true,"count":1,"attributes":[`+attrJSON+`]}`)
	})
	attrs, err := c.CategoryAttributes(context.Background(), "sofas")
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, domain.InputDropdown, attrs[0].InputType)
	assert.True(t, attrs[0].HasOption("grey"))
}

func TestInsertAndUpdateSendBodies(t *testing.T) {
	var got map[string]any
	c := server(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"success":true,"attribute":`+attrJSON+`}`)
	})
	ctx := context.Background()

	a, err := c.InsertAttribute(ctx, "sofas", domain.AttributeDraft{Key: "color", InputType: domain.InputDropdown, Label: domain.Label{UZ: "Rang"}})
	require.NoError(t, err)
	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, "dropdown", got["type"])

	a.IsRequired = false
	_, err = c.UpdateAttribute(ctx, "a1", a)
	require.NoError(t, err)
	assert.Equal(t, false, got["is_required"])
	assert.Contains(t, got, "options")
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"not found", http.StatusNotFound, `{"success":false,"message":"gone"}`, func(t *testing.T, err error) {
			var nf *domain.NotFoundError
			require.ErrorAs(t, err, &nf)
			assert.Equal(t, "attribute", nf.Resource)
			assert.Equal(t, "a1", nf.ID)
		}},
		{"validation", http.StatusUnprocessableEntity, `{"success":false,"message":"is required","error":{"code":"VALIDATION_FAILED","field":"label.uz"}}`, func(t *testing.T, err error) {
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "label.uz", ve.Field)
		}},
		{"server error", http.StatusBadGateway, `{"success":false,"message":"db down"}`, func(t *testing.T, err error) {
			var ue *domain.UpstreamError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, http.StatusBadGateway, ue.StatusCode)
			assert.Equal(t, "db down", ue.Reason)
		}},
		{"success false", http.StatusOK, `{"success":false,"message":"nope"}`, func(t *testing.T, err error) {
			assert.True(t, domain.IsUpstream(err))
		}},
		{"not json", http.StatusOK, `<html>`, func(t *testing.T, err error) {
			assert.True(t, domain.IsUpstream(err))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := server(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := c.Attribute(context.Background(), "a1")
			tc.check(t, err)
		})
	}
}

func TestDeleteAndTransportFailure(t *testing.T) {
	c := server(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		_, _ = io.WriteString(w, `{"success":true,"message":"deleted"}`)
	})
	require.NoError(t, c.DeleteAttribute(context.Background(), "a1"))

	dead, err := upstream.NewClient("http://127.0.0.1:1", upstream.WithTimeout(200*time.Millisecond))
	require.NoError(t, err)
	_, err = dead.CategoryAttributes(context.Background(), "sofas")
	assert.True(t, domain.IsUpstream(err))

	_, err = upstream.NewClient("not a url")
	assert.Error(t, err)
}
