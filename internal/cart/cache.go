// Package cart mirrors the server-held cart for every surface that displays
// it. The mirror is confirm-then-apply: local state changes only after the
// service acknowledges a mutation, so the displayed cart never diverges from
// the billable one.
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/waynejunj/prosperv1/internal/api"
	pkgerrors "github.com/waynejunj/prosperv1/pkg/errors"
	"github.com/waynejunj/prosperv1/pkg/events"
	"github.com/waynejunj/prosperv1/pkg/logger"
	"github.com/waynejunj/prosperv1/pkg/metrics"
	"github.com/waynejunj/prosperv1/pkg/totals"
)

// LineItem is one cart entry as the rest of the client consumes it.
type LineItem struct {
	ID        int64
	ProductID int64
	Name      string
	Category  string
	UnitPrice decimal.Decimal
	Quantity  int
	Image     string
}

type remoteCart interface {
	GetCart(ctx context.Context) ([]api.LineItem, error)
	AddToCart(ctx context.Context, productID int64, quantity int) error
	UpdateCartItem(ctx context.Context, lineID int64, quantity int) (*api.LineItem, error)
	RemoveCartItem(ctx context.Context, lineID int64) error
}

type sessionGate interface {
	RequireSession() error
	OnUnauthorized(ctx context.Context)
}

// CacheParams wires the cart cache dependencies.
type CacheParams struct {
	Client  remoteCart
	Session sessionGate
	Bus     *events.Bus
	Logger  *logger.Logger
	Metrics *metrics.StorefrontMetrics
}

// Cache is the client-side cart mirror. Mutations publish cartChanged on
// success; failures leave the mirror untouched and stay silent.
type Cache struct {
	mu    sync.RWMutex
	items []LineItem

	client  remoteCart
	session sessionGate
	bus     *events.Bus
	logger  *logger.Logger
	metrics *metrics.StorefrontMetrics
}

func NewCache(params CacheParams) (*Cache, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("remote cart client required")
	}
	if params.Session == nil {
		return nil, fmt.Errorf("session gate required")
	}
	if params.Bus == nil {
		return nil, fmt.Errorf("event bus required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Cache{
		client:  params.Client,
		session: params.Session,
		bus:     params.Bus,
		logger:  params.Logger,
		metrics: params.Metrics,
	}, nil
}

// Load refreshes the mirror wholesale from the service. A missing or
// rejected session redirects to sign-in and yields an empty cart rather than
// an error; any other failure leaves the mirror untouched.
func (c *Cache) Load(ctx context.Context) ([]LineItem, error) {
	if err := c.session.RequireSession(); err != nil {
		c.session.OnUnauthorized(ctx)
		c.replace(nil)
		return nil, nil
	}

	remote, err := c.client.GetCart(ctx)
	if err != nil {
		if pkgerrors.IsUnauthorized(err) {
			c.session.OnUnauthorized(ctx)
			c.replace(nil)
			return nil, nil
		}
		return nil, err
	}

	items := fromRemote(remote)
	c.replace(items)
	return c.Items(), nil
}

// Add sends the addition remotely, refreshes the mirror, and publishes. A
// failed addition changes nothing locally.
func (c *Cache) Add(ctx context.Context, productID int64, quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if err := c.session.RequireSession(); err != nil {
		c.session.OnUnauthorized(ctx)
		return err
	}

	if err := c.client.AddToCart(ctx, productID, quantity); err != nil {
		return c.reject(ctx, err)
	}

	if remote, err := c.client.GetCart(ctx); err == nil {
		c.replace(fromRemote(remote))
	} else {
		c.logger.Warn(ctx, "cart refresh after add failed, mirror may lag")
	}
	c.publish()
	return nil
}

// SetQuantity updates one line item. Quantities below 1 are rejected locally
// and never sent remotely; removal is a distinct operation.
func (c *Cache) SetQuantity(ctx context.Context, lineID int64, quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if err := c.session.RequireSession(); err != nil {
		c.session.OnUnauthorized(ctx)
		return err
	}

	updated, err := c.client.UpdateCartItem(ctx, lineID, quantity)
	if err != nil {
		return c.reject(ctx, err)
	}

	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID != lineID {
			continue
		}
		c.items[i].Quantity = quantity
		if updated != nil && updated.ID == lineID {
			c.items[i] = fromRemoteItem(*updated)
		}
		break
	}
	c.mu.Unlock()

	c.publish()
	return nil
}

// Remove deletes one line item remotely, then locally.
func (c *Cache) Remove(ctx context.Context, lineID int64) error {
	if err := c.session.RequireSession(); err != nil {
		c.session.OnUnauthorized(ctx)
		return err
	}

	if err := c.client.RemoveCartItem(ctx, lineID); err != nil {
		return c.reject(ctx, err)
	}

	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID == lineID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	c.publish()
	return nil
}

// Clear removes every line item via repeated remove, publishing once at the
// end. A mid-way failure keeps the lines already confirmed removed out of
// the mirror and reports the failure.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.session.RequireSession(); err != nil {
		c.session.OnUnauthorized(ctx)
		return err
	}

	c.mu.RLock()
	ids := make([]int64, len(c.items))
	for i, item := range c.items {
		ids[i] = item.ID
	}
	c.mu.RUnlock()

	removedAny := false
	for _, id := range ids {
		if err := c.client.RemoveCartItem(ctx, id); err != nil {
			if removedAny {
				c.publish()
			}
			return c.reject(ctx, err)
		}
		c.mu.Lock()
		for i := range c.items {
			if c.items[i].ID == id {
				c.items = append(c.items[:i], c.items[i+1:]...)
				break
			}
		}
		c.mu.Unlock()
		removedAny = true
	}

	if removedAny {
		c.publish()
	}
	return nil
}

// Reset empties the mirror without remote calls and publishes. Used when the
// service has already consumed the cart, e.g. on checkout success.
func (c *Cache) Reset() {
	c.replace(nil)
	c.publish()
}

// Items returns a snapshot copy of the mirror.
func (c *Cache) Items() []LineItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snapshot := make([]LineItem, len(c.items))
	copy(snapshot, c.items)
	return snapshot
}

// Count reports the number of line items, as shown on the navbar badge.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Totals derives the monetary breakdown from the current mirror.
func (c *Cache) Totals() totals.Totals {
	c.mu.RLock()
	lines := make([]totals.Line, len(c.items))
	for i, item := range c.items {
		lines[i] = totals.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}
	c.mu.RUnlock()
	return totals.Compute(lines)
}

func (c *Cache) replace(items []LineItem) {
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}

func (c *Cache) publish() {
	c.bus.Publish()
	c.metrics.IncCartEvent()
}

// reject maps a failed mutation: credential rejections clear the session and
// redirect, everything else is surfaced to the caller untouched.
func (c *Cache) reject(ctx context.Context, err error) error {
	if pkgerrors.IsUnauthorized(err) {
		c.session.OnUnauthorized(ctx)
	}
	return err
}

func fromRemote(items []api.LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = fromRemoteItem(item)
	}
	return out
}

func fromRemoteItem(item api.LineItem) LineItem {
	return LineItem{
		ID:        item.ID,
		ProductID: item.ProductID,
		Name:      item.ProductName,
		Category:  item.CategoryName,
		UnitPrice: item.Price,
		Quantity:  item.Quantity,
		Image:     item.ProductImage,
	}
}
