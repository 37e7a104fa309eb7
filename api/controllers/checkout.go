package controllers

import (
	"net/http"
	"time"

	"github.com/waynejunj/prosperv1/api/responses"
	"github.com/waynejunj/prosperv1/api/validators"
	"github.com/waynejunj/prosperv1/internal/checkout"
	"github.com/waynejunj/prosperv1/pkg/logger"
)

// CheckoutController exposes the payment surface.
type CheckoutController struct {
	orch          *checkout.Orchestrator
	defaultMethod string
	logg          *logger.Logger
}

func NewCheckoutController(orch *checkout.Orchestrator, defaultMethod string, logg *logger.Logger) *CheckoutController {
	return &CheckoutController{orch: orch, defaultMethod: defaultMethod, logg: logg}
}

type checkoutRequest struct {
	PaymentMethod string `json:"payment_method"`
	Phone         string `json:"phone" validate:"required"`
}

type orderSummaryPayload struct {
	OrderID int64             `json:"order_id"`
	Date    time.Time         `json:"date"`
	Method  string            `json:"method"`
	Items   []lineItemPayload `json:"items"`
	Totals  totalsPayload     `json:"totals"`
}

// Submit drives one checkout attempt. A submit racing an in-flight attempt
// is acknowledged but produces nothing; the first attempt's outcome stands.
func (c *CheckoutController) Submit(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	method := req.PaymentMethod
	if method == "" {
		method = c.defaultMethod
	}

	summary, err := c.orch.Submit(r.Context(), checkout.Input{
		Method: method,
		Phone:  req.Phone,
	})
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	if summary == nil {
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "in_flight"})
		return
	}

	payload := orderSummaryPayload{
		OrderID: summary.OrderID,
		Date:    summary.Date,
		Method:  summary.Method,
	}
	full := toCartPayload(summary.Items, summary.Totals)
	payload.Items = full.Items
	payload.Totals = full.Totals
	responses.WriteSuccess(w, payload)
}

// State lets the confirmation view poll where the attempt stands.
func (c *CheckoutController) State(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, map[string]string{"state": string(c.orch.State())})
}

// Acknowledge returns a settled attempt to idle so the shopper can retry or
// start a new one.
func (c *CheckoutController) Acknowledge(w http.ResponseWriter, r *http.Request) {
	c.orch.Acknowledge()
	responses.WriteSuccess(w, map[string]string{"state": string(c.orch.State())})
}
