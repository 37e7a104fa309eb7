// Package api is the typed client for the remote storefront service. It owns
// bearer injection, status-to-error mapping, per-operation logging with
// redaction, and nothing else: callers decide what a failure means.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/waynejunj/prosperv1/pkg/config"
	pkgerrors "github.com/waynejunj/prosperv1/pkg/errors"
	"github.com/waynejunj/prosperv1/pkg/logger"
	"github.com/waynejunj/prosperv1/pkg/metrics"
)

var errLoggerRequired = errors.New("storefront api logger is required")

// TokenProvider supplies the bearer credential for authenticated calls. An
// empty token means the call goes out unauthenticated and the service will
// answer 401.
type TokenProvider interface {
	Token() string
}

// Client exposes the storefront service operations with centralized auth,
// logging, and error mapping.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
	logger  *logger.Logger
	metrics *metrics.StorefrontMetrics
}

// NewClient validates the configuration and builds the client. The metrics
// argument may be nil.
func NewClient(cfg config.APIConfig, tokens TokenProvider, logg *logger.Logger, m *metrics.StorefrontMetrics) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("storefront api base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parsing storefront api base url: %w", err)
	}

	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		tokens:  tokens,
		logger:  logg,
		metrics: m,
	}, nil
}

// Login exchanges credentials for a token and profile.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, "login", http.MethodPost, "/api/auth/login", body, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account; the service answers with the same token+user
// shape as login.
func (c *Client) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, "register", http.MethodPost, "/api/auth/register", input, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCart fetches the authoritative cart line items.
func (c *Client) GetCart(ctx context.Context) ([]LineItem, error) {
	var out cartEnvelope
	if err := c.do(ctx, "get_cart", http.MethodGet, "/api/cart", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// AddToCart appends a product to the server cart.
func (c *Client) AddToCart(ctx context.Context, productID int64, quantity int) error {
	body := map[string]any{"product_id": productID, "quantity": quantity}
	return c.do(ctx, "add_to_cart", http.MethodPost, "/api/cart/add", body, nil, true)
}

// UpdateCartItem sets the quantity of one line item and returns its updated
// form.
func (c *Client) UpdateCartItem(ctx context.Context, lineID int64, quantity int) (*LineItem, error) {
	var out LineItem
	body := map[string]int{"quantity": quantity}
	path := fmt.Sprintf("/api/cart/%d", lineID)
	if err := c.do(ctx, "update_cart_item", http.MethodPut, path, body, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveCartItem deletes one line item.
func (c *Client) RemoveCartItem(ctx context.Context, lineID int64) error {
	path := fmt.Sprintf("/api/cart/%d", lineID)
	return c.do(ctx, "remove_cart_item", http.MethodDelete, path, nil, nil, true)
}

// CreateOrder turns the server-held cart into an order.
func (c *Client) CreateOrder(ctx context.Context) (int64, error) {
	var out orderCreated
	if err := c.do(ctx, "create_order", http.MethodPost, "/api/orders", map[string]any{}, &out, true); err != nil {
		return 0, err
	}
	return out.OrderID, nil
}

// InitiateMpesaPayment asks the service to fire an STK push for the order.
// A 200 means accepted for processing, not settled.
func (c *Client) InitiateMpesaPayment(ctx context.Context, orderID int64, phone string, amount int64) error {
	body := map[string]any{"order_id": orderID, "phone": phone, "amount": amount}
	return c.do(ctx, "initiate_mpesa", http.MethodPost, "/api/payments/mpesa", body, nil, true)
}

// ListProducts returns the catalog; featured limits to the curated subset.
func (c *Client) ListProducts(ctx context.Context, featured bool, limit int) ([]Product, error) {
	path := "/api/products"
	if featured {
		path = fmt.Sprintf("/api/products?featured=true&limit=%d", limit)
	}
	var out []Product
	if err := c.do(ctx, "list_products", http.MethodGet, path, nil, &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProduct fetches one catalog entry.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var out Product
	if err := c.do(ctx, "get_product", http.MethodGet, fmt.Sprintf("/api/products/%d", id), nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Admin catalog operations.
func (c *Client) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	var out Product
	if err := c.do(ctx, "create_product", http.MethodPost, "/api/products", input, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, input ProductInput) (*Product, error) {
	var out Product
	if err := c.do(ctx, "update_product", http.MethodPut, fmt.Sprintf("/api/products/%d", id), input, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_product", http.MethodDelete, fmt.Sprintf("/api/products/%d", id), nil, nil, true)
}

// Admin order operations.
func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := c.do(ctx, "list_orders", http.MethodGet, "/api/orders", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (*Order, error) {
	var out Order
	if err := c.do(ctx, "get_order", http.MethodGet, fmt.Sprintf("/api/orders/%d", id), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status string) (*Order, error) {
	var out Order
	body := map[string]string{"status": status}
	if err := c.do(ctx, "update_order_status", http.MethodPut, fmt.Sprintf("/api/orders/%d/status", id), body, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Admin user operations.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.do(ctx, "list_users", http.MethodGet, "/api/users", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateUser(ctx context.Context, id int64, input UserUpdateInput) (*User, error) {
	var out User
	if err := c.do(ctx, "update_user", http.MethodPut, fmt.Sprintf("/api/users/%d", id), input, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDashboardStats fetches the admin landing numbers.
func (c *Client) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var out DashboardStats
	if err := c.do(ctx, "dashboard_stats", http.MethodGet, "/api/dashboard/stats", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, dest any, authenticated bool) error {
	start := time.Now()
	err := c.doOnce(ctx, op, method, path, body, dest, authenticated)
	outcome := "success"
	if err != nil {
		outcome = string(pkgerrors.CodeOf(err))
	}
	c.metrics.ObserveRemoteCall(op, outcome, time.Since(start))
	return err
}

func (c *Client) doOnce(ctx context.Context, op, method, path string, body, dest any, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("encoding %s request", op))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("building %s request", op))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.log(ctx, "request", op, map[string]any{"method": method, "path": path})

	resp, err := c.http.Do(req)
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, fmt.Sprintf("%s unreachable", op))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		mapped := c.mapStatus(resp, op)
		c.log(ctx, "error", op, map[string]any{"status": resp.StatusCode, "error": mapped.Error()})
		return mapped
	}

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			c.log(ctx, "error", op, map[string]any{"error": err.Error()})
			return pkgerrors.Wrap(pkgerrors.CodeRemote, err, fmt.Sprintf("decoding %s response", op))
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}

	c.log(ctx, "response", op, map[string]any{"status": resp.StatusCode})
	return nil
}

func (c *Client) mapStatus(resp *http.Response, op string) error {
	message := remoteMessage(resp.Body)
	if message == "" {
		message = fmt.Sprintf("%s failed with status %d", op, resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, message)
	case http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeForbidden, message)
	case http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	default:
		return pkgerrors.New(pkgerrors.CodeRemote, message).WithDetails(map[string]any{"status": resp.StatusCode})
	}
}

// remoteMessage pulls the human-readable error the service embeds, if any.
func remoteMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var parsed errorBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ""
	}
	if parsed.Error != "" {
		return parsed.Error
	}
	return parsed.Message
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Warn(ctx, fmt.Sprintf("storefront %s", op))
	default:
		c.logger.Debug(ctx, fmt.Sprintf("storefront %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "password", "phone", "email"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
