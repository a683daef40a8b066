package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/cortinas/internal/config"
	"github.com/mamadbah2/cortinas/internal/repository/remote"
)

const restPrefix = "rest/v1"

// APIError is a non-2xx answer from the REST endpoint.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote api error: status=%d code=%s message=%s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("remote api error: status=%d message=%s", e.Status, e.Message)
}

// errorBody mirrors the PostgREST error payload.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// Client is a resty-backed remote.Backend for a PostgREST style endpoint
// (one resource per table, filters as query parameters).
type Client struct {
	httpClient *resty.Client
}

var _ remote.Backend = (*Client)(nil)

// NewClient builds a client for the endpoint in cfg.
func NewClient(cfg config.RemoteConfig) *Client {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New()
	restyClient.
		SetBaseURL(fmt.Sprintf("%s/%s", base, restPrefix)).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		restyClient.
			SetHeader("apikey", cfg.APIKey).
			SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey))
	}

	return &Client{httpClient: restyClient}
}

// SelectAll fetches every row of table ordered by id.
func (c *Client) SelectAll(ctx context.Context, table string) ([]json.RawMessage, error) {
	var rows []json.RawMessage
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetQueryParam("order", "id.asc").
		SetResult(&rows).
		Get("/" + table)
	if err := check(resp, err, "select "+table); err != nil {
		return nil, err
	}
	return rows, nil
}

// SelectOne fetches the row whose id equals id.
func (c *Client) SelectOne(ctx context.Context, table, id string) (json.RawMessage, error) {
	var rows []json.RawMessage
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetQueryParam("id", "eq."+id).
		SetResult(&rows).
		Get("/" + table)
	if err := check(resp, err, "select "+table); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, remote.ErrNotFound
	}
	return rows[0], nil
}

// Insert creates a row and returns its stored representation.
func (c *Client) Insert(ctx context.Context, table string, record json.RawMessage) (json.RawMessage, error) {
	var rows []json.RawMessage
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody([]byte(record)).
		SetResult(&rows).
		Post("/" + table)
	if err := check(resp, err, "insert "+table); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert %s: empty representation", table)
	}
	return rows[0], nil
}

// Update patches the row whose id equals id.
func (c *Client) Update(ctx context.Context, table, id string, patch map[string]any) error {
	return c.UpdateWhere(ctx, table, id, nil, patch)
}

// UpdateWhere patches the row whose id equals id and whose match columns
// equal the given values. An empty representation means nothing matched.
func (c *Client) UpdateWhere(ctx context.Context, table, id string, match, patch map[string]any) error {
	filters := map[string]string{"id": "eq." + id}
	for column, value := range match {
		filters[column] = fmt.Sprintf("eq.%v", value)
	}

	var rows []json.RawMessage
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParams(filters).
		SetBody(patch).
		SetResult(&rows).
		Patch("/" + table)
	if err := check(resp, err, "update "+table); err != nil {
		return err
	}
	if len(rows) == 0 {
		return remote.ErrNotFound
	}
	return nil
}

// Delete removes the row whose id equals id.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("id", "eq."+id).
		Delete("/" + table)
	return check(resp, err, "delete "+table)
}

func check(resp *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode() < http.StatusBadRequest {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode(), Message: resp.Status()}
	var body errorBody
	if jsonErr := json.Unmarshal(resp.Body(), &body); jsonErr == nil && body.Message != "" {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	}
	return fmt.Errorf("%s: %w", op, apiErr)
}
