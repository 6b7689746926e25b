// Package api is the authenticated client for the dispatch REST service.
// It owns one mutable credential, injected as a bearer header on every
// outgoing request, and exposes the four operations the app needs.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tmoreno/drivermate/internal/orders"
	"github.com/tmoreno/drivermate/internal/token"
)

// Credentials is the result of a successful login: the raw token plus the
// identity decoded from its claims.
type Credentials struct {
	Token  string
	UserID string
	Role   string
}

// Ack is the service's acknowledgement body for write operations.
type Ack struct {
	Message string `json:"message"`
}

// Client talks to the dispatch service. Construct with New; the zero value
// has no base URL.
type Client struct {
	http    *http.Client
	baseURL string

	mu    sync.RWMutex
	token string
}

// New builds a client for the given base URL (e.g. "http://host:3000/api").
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SetAuthToken installs the bearer credential attached to subsequent
// requests. An empty token removes the header entirely; it is never sent
// empty.
func (c *Client) SetAuthToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

// Login exchanges credentials for a bearer token and decodes its claims.
// A login response whose token does not decode is a hard error: the service
// must always issue well-formed tokens. On success the client's injected
// credential is already updated, so immediately-following calls are
// authenticated.
func (c *Client) Login(ctx context.Context, email, password string) (Credentials, error) {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/users/login", body, &resp); err != nil {
		return Credentials{}, err
	}

	claims, err := token.Decode(resp.Token)
	if err != nil {
		return Credentials{}, fmt.Errorf("login response: %w", err)
	}

	c.SetAuthToken(resp.Token)
	return Credentials{Token: resp.Token, UserID: claims.ID, Role: claims.Role}, nil
}

// OrdersByDriver fetches the orders currently assigned to the driver.
func (c *Client) OrdersByDriver(ctx context.Context, driverID string) ([]orders.Order, error) {
	if strings.TrimSpace(driverID) == "" {
		return nil, fmt.Errorf("api: driver id required")
	}
	var resp struct {
		Data []orders.Order `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders/driver/"+driverID, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// MarkDelivered flips the order's status server-side. The caller applies
// the matching local update after this returns nil.
func (c *Client) MarkDelivered(ctx context.Context, orderID string) (Ack, error) {
	if strings.TrimSpace(orderID) == "" {
		return Ack{}, fmt.Errorf("api: order id required")
	}
	var ack Ack
	if err := c.do(ctx, http.MethodPut, "/orders/mark-delivered/"+orderID, nil, &ack); err != nil {
		return Ack{}, err
	}
	return ack, nil
}

// Logout asks the service to invalidate the credential. It is best-effort:
// the user's intent to leave must always succeed locally, so a failed remote
// call is logged and otherwise ignored.
func (c *Client) Logout(ctx context.Context) {
	if err := c.do(ctx, http.MethodPost, "/users/logout", nil, nil); err != nil {
		log.Printf("logout: remote invalidation failed: %v", err)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Method: method, Path: path, Err: err}
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return &RequestError{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{Method: method, Path: path, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return &RequestError{Method: method, Path: path, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}
