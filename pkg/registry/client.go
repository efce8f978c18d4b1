// Package registry is a client for the municipality JSON schema registry.
//
// Schemas are addressed by id, composed as {municipalityId}_{name}_{version}.
// Each schema can carry one UI schema. Creating a schema and writing a UI
// schema return no body upstream, so the client reads the stored entity back
// after both.
package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
)

// Default paging used by ListSchemas.
const (
	DefaultPage = 0
	DefaultSize = 100
)

var versionPattern = regexp.MustCompile(`^(\d+\.)?(\d+)$`)

// Schema is a stored JSON schema.
type Schema struct {
	ID                    string           `json:"id"`
	NumericID             int              `json:"numericId,omitempty"`
	Name                  string           `json:"name"`
	Version               string           `json:"version"`
	Value                 schemadoc.Schema `json:"value"`
	Description           string           `json:"description,omitempty"`
	Created               string           `json:"created,omitempty"`
	ValidationUsageCount  int              `json:"validationUsageCount,omitempty"`
	LastUsedForValidation string           `json:"lastUsedForValidation,omitempty"`
}

// CreateRequest registers a new schema version.
type CreateRequest struct {
	Name        string           `json:"name"`
	Version     string           `json:"version"`
	Value       schemadoc.Schema `json:"value"`
	Description string           `json:"description,omitempty"`
}

// UISchema is the UI schema stored for a schema.
type UISchema struct {
	ID          string             `json:"id"`
	Value       schemadoc.UISchema `json:"value"`
	Description string             `json:"description,omitempty"`
	Created     string             `json:"created,omitempty"`
}

// UISchemaRequest creates or replaces a UI schema.
type UISchemaRequest struct {
	Value       schemadoc.UISchema `json:"value"`
	Description string             `json:"description,omitempty"`
}

type page struct {
	Content []Schema `json:"content"`
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("registry: %s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// IsNotFound reports whether err is a 404 StatusError.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

// SchemaID composes the id the registry assigns to a created schema.
func SchemaID(municipalityID, name, version string) string {
	return municipalityID + "_" + name + "_" + version
}

// ValidVersion reports whether version has the [major.]minor form.
func ValidVersion(version string) bool {
	return versionPattern.MatchString(version)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient injects the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout bounds every request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithToken sends a bearer token with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// Client talks to the registry of one municipality.
type Client struct {
	base           string
	municipalityID string
	http           *http.Client
	timeout        time.Duration
	token          string
}

// New constructs a client for baseURL.
func New(baseURL, municipalityID string, options ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("registry: base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("registry: base url: %w", err)
	}
	if strings.TrimSpace(municipalityID) == "" {
		return nil, errors.New("registry: municipality id is required")
	}
	c := &Client{
		base:           strings.TrimRight(baseURL, "/"),
		municipalityID: municipalityID,
		http:           http.DefaultClient,
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// MunicipalityID returns the municipality the client is bound to.
func (c *Client) MunicipalityID() string {
	return c.municipalityID
}

// ListSchemas returns one page of schemas. Negative page and non-positive
// size fall back to the defaults. NumericID numbers the result from 1.
func (c *Client) ListSchemas(ctx context.Context, pageNo, size int) ([]Schema, error) {
	if pageNo < 0 {
		pageNo = DefaultPage
	}
	if size <= 0 {
		size = DefaultSize
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(pageNo))
	query.Set("size", strconv.Itoa(size))

	var result page
	if err := c.do(ctx, http.MethodGet, c.schemasPath()+"?"+query.Encode(), nil, &result); err != nil {
		return nil, err
	}
	for idx := range result.Content {
		result.Content[idx].NumericID = idx + 1
	}
	return result.Content, nil
}

// GetSchema fetches a schema by id.
func (c *Client) GetSchema(ctx context.Context, id string) (Schema, error) {
	var out Schema
	if err := c.do(ctx, http.MethodGet, c.schemaPath(id), nil, &out); err != nil {
		return Schema{}, err
	}
	return out, nil
}

// CreateSchema registers a schema version and returns the stored entity.
func (c *Client) CreateSchema(ctx context.Context, req CreateRequest) (Schema, error) {
	if strings.TrimSpace(req.Name) == "" {
		return Schema{}, errors.New("registry: schema name is required")
	}
	if !ValidVersion(req.Version) {
		return Schema{}, fmt.Errorf("registry: version %q must have the form [major].[minor]", req.Version)
	}
	if err := c.do(ctx, http.MethodPost, c.schemasPath(), req, nil); err != nil {
		return Schema{}, err
	}
	return c.GetSchema(ctx, SchemaID(c.municipalityID, req.Name, req.Version))
}

// DeleteSchema removes a schema.
func (c *Client) DeleteSchema(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.schemaPath(id), nil, nil)
}

// GetUISchema fetches the UI schema of id. A missing UI schema yields nil
// without error.
func (c *Client) GetUISchema(ctx context.Context, id string) (*UISchema, error) {
	var out UISchema
	if err := c.do(ctx, http.MethodGet, c.uiSchemaPath(id), nil, &out); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// PutUISchema creates or replaces the UI schema of id. When the stored entity
// cannot be read back the submitted value is returned.
func (c *Client) PutUISchema(ctx context.Context, id string, req UISchemaRequest) (*UISchema, error) {
	if err := c.do(ctx, http.MethodPut, c.uiSchemaPath(id), req, nil); err != nil {
		return nil, err
	}
	stored, err := c.GetUISchema(ctx, id)
	if err != nil || stored == nil {
		return &UISchema{Value: req.Value, Description: req.Description}, nil
	}
	return stored, nil
}

// DeleteUISchema removes the UI schema of id.
func (c *Client) DeleteUISchema(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.uiSchemaPath(id), nil, nil)
}

func (c *Client) schemasPath() string {
	return "/" + url.PathEscape(c.municipalityID) + "/schemas"
}

func (c *Client) schemaPath(id string) string {
	return c.schemasPath() + "/" + url.PathEscape(id)
}

func (c *Client) uiSchemaPath(id string) string {
	return c.schemaPath(id) + "/ui-schema"
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("registry: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	target := c.base + path
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("registry: request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("registry: %s %s: %w", method, target, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(detail)),
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("registry: decode %s %s: %w", method, target, err)
	}
	return nil
}
