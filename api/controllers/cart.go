package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/waynejunj/prosperv1/api/responses"
	"github.com/waynejunj/prosperv1/api/validators"
	"github.com/waynejunj/prosperv1/internal/cart"
	pkgerrors "github.com/waynejunj/prosperv1/pkg/errors"
	"github.com/waynejunj/prosperv1/pkg/logger"
	"github.com/waynejunj/prosperv1/pkg/totals"
)

// CartController exposes the cart page and the navbar badge surfaces.
type CartController struct {
	cache *cart.Cache
	badge *cart.Badge
	logg  *logger.Logger
}

func NewCartController(cache *cart.Cache, badge *cart.Badge, logg *logger.Logger) *CartController {
	return &CartController{cache: cache, badge: badge, logg: logg}
}

type addToCartRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gte=1"`
	Quantity  int   `json:"quantity" validate:"required"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required"`
}

type lineItemPayload struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image,omitempty"`
}

type totalsPayload struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

type cartPayload struct {
	Items  []lineItemPayload `json:"items"`
	Totals totalsPayload     `json:"totals"`
}

// Get refreshes the mirror from the service and renders the cart page data.
func (c *CartController) Get(w http.ResponseWriter, r *http.Request) {
	items, err := c.cache.Load(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, toCartPayload(items, c.cache.Totals()))
}

// Count serves the badge from its subscription-maintained copy; no remote
// call happens here.
func (c *CartController) Count(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, map[string]int{"count": c.badge.Count()})
}

func (c *CartController) Add(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	if err := c.cache.Add(r.Context(), req.ProductID, req.Quantity); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, toCartPayload(c.cache.Items(), c.cache.Totals()))
}

func (c *CartController) SetQuantity(w http.ResponseWriter, r *http.Request) {
	lineID, err := lineIDParam(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	var req setQuantityRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	if err := c.cache.SetQuantity(r.Context(), lineID, req.Quantity); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, toCartPayload(c.cache.Items(), c.cache.Totals()))
}

func (c *CartController) Remove(w http.ResponseWriter, r *http.Request) {
	lineID, err := lineIDParam(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	if err := c.cache.Remove(r.Context(), lineID); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, toCartPayload(c.cache.Items(), c.cache.Totals()))
}

func (c *CartController) Clear(w http.ResponseWriter, r *http.Request) {
	if err := c.cache.Clear(r.Context()); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, toCartPayload(c.cache.Items(), c.cache.Totals()))
}

func lineIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "lineID")
	lineID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || lineID < 1 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "line id must be a positive integer")
	}
	return lineID, nil
}

func toCartPayload(items []cart.LineItem, tot totals.Totals) cartPayload {
	payload := cartPayload{Items: make([]lineItemPayload, len(items))}
	for i, item := range items {
		payload.Items[i] = lineItemPayload{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Category:  item.Category,
			UnitPrice: money(item.UnitPrice),
			Quantity:  item.Quantity,
			Image:     item.Image,
		}
	}
	subtotal, shipping, tax, total := tot.RoundedCents()
	payload.Totals = totalsPayload{
		Subtotal: money(subtotal),
		Shipping: money(shipping),
		Tax:      money(tax),
		Total:    money(total),
	}
	return payload
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
