// Package upstream talks to a remote attribute API that speaks the same
// JSON envelope as this service. It lets the schema store run against a
// central catalog instead of the local database.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"mebellar/internal/domain"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	config     clientConfig
}

type ClientOption func(*clientConfig)

type clientConfig struct {
	token   string
	timeout time.Duration
	logger  *zap.Logger
}

func WithToken(token string) ClientOption {
	return func(c *clientConfig) { c.token = token }
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) ClientOption {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	config := clientConfig{timeout: 10 * time.Second, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&config)
	}
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream base url %q is not absolute", baseURL)
	}
	return &Client{
		httpClient: &http.Client{Timeout: config.timeout},
		baseURL:    strings.TrimRight(u.String(), "/"),
		config:     config,
	}, nil
}

// do sends one request and returns the body of a successful envelope.
// Requests are not retried.
func (c *Client) do(ctx context.Context, op, method, path string, in any, resource, id string) (gjson.Result, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("marshal %s request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return gjson.Result{}, &domain.UpstreamError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.config.logger.Warn("upstream.request", zap.String("op", op), zap.Error(err))
		return gjson.Result{}, &domain.UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, &domain.UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	c.config.logger.Debug("upstream.request",
		zap.String("op", op), zap.String("method", method), zap.String("path", path),
		zap.Int("status", resp.StatusCode), zap.Duration("latency", time.Since(start)))

	doc := gjson.ParseBytes(raw)
	reason := doc.Get("message").String()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return gjson.Result{}, &domain.NotFoundError{Resource: resource, ID: id}
	case (resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity) &&
		doc.Get("error.field").Exists():
		return gjson.Result{}, &domain.ValidationError{Field: doc.Get("error.field").String(), Message: reason}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return gjson.Result{}, &domain.UpstreamError{Op: op, StatusCode: resp.StatusCode, Reason: reason}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return doc, nil
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, &domain.UpstreamError{Op: op, StatusCode: resp.StatusCode, Reason: "response is not JSON"}
	}
	if s := doc.Get("success"); s.Exists() && !s.Bool() {
		return gjson.Result{}, &domain.UpstreamError{Op: op, StatusCode: resp.StatusCode, Reason: reason}
	}
	return doc, nil
}

func decode[T any](op string, r gjson.Result, path string) (T, error) {
	var out T
	v := r.Get(path)
	if !v.Exists() {
		return out, &domain.UpstreamError{Op: op, Reason: "response has no " + path}
	}
	if err := json.Unmarshal([]byte(v.Raw), &out); err != nil {
		return out, &domain.UpstreamError{Op: op, Reason: "decode " + path, Err: err}
	}
	return out, nil
}

func (c *Client) CategoryAttributes(ctx context.Context, categoryID string) ([]domain.AttributeDefinition, error) {
	r, err := c.do(ctx, "list", http.MethodGet, "/categories/"+url.PathEscape(categoryID)+"/attributes", nil, "category", categoryID)
	if err != nil {
		return nil, err
	}
	attrs, err := decode[[]domain.AttributeDefinition]("list", r, "attributes")
	if err != nil {
		return nil, err
	}
	if attrs == nil {
		attrs = []domain.AttributeDefinition{}
	}
	return attrs, nil
}

func (c *Client) Attribute(ctx context.Context, id string) (domain.AttributeDefinition, error) {
	r, err := c.do(ctx, "get", http.MethodGet, "/admin/category-attributes/"+url.PathEscape(id), nil, "attribute", id)
	if err != nil {
		return domain.AttributeDefinition{}, err
	}
	return decode[domain.AttributeDefinition]("get", r, "attribute")
}

func (c *Client) InsertAttribute(ctx context.Context, categoryID string, d domain.AttributeDraft) (domain.AttributeDefinition, error) {
	r, err := c.do(ctx, "create", http.MethodPost, "/admin/categories/"+url.PathEscape(categoryID)+"/attributes", d, "category", categoryID)
	if err != nil {
		return domain.AttributeDefinition{}, err
	}
	return decode[domain.AttributeDefinition]("create", r, "attribute")
}

// UpdateAttribute sends every writable field, so the remote side ends up
// with exactly a.
func (c *Client) UpdateAttribute(ctx context.Context, id string, a domain.AttributeDefinition) (domain.AttributeDefinition, error) {
	opts := a.Options
	if opts == nil {
		opts = []domain.AttributeOption{}
	}
	patch := domain.AttributePatch{
		Key: &a.Key, InputType: &a.InputType, Label: &a.Label, Options: &opts,
		IsRequired: &a.IsRequired, SortOrder: &a.SortOrder,
	}
	r, err := c.do(ctx, "update", http.MethodPut, "/admin/category-attributes/"+url.PathEscape(id), patch, "attribute", id)
	if err != nil {
		return domain.AttributeDefinition{}, err
	}
	return decode[domain.AttributeDefinition]("update", r, "attribute")
}

func (c *Client) DeleteAttribute(ctx context.Context, id string) error {
	_, err := c.do(ctx, "delete", http.MethodDelete, "/admin/category-attributes/"+url.PathEscape(id), nil, "attribute", id)
	return err
}
