// Package checkout turns a non-empty cart into an order and a payment
// request. One orchestrator guards one checkout surface: the in-flight flag
// makes a second submit during an active attempt a silent no-op, which is
// what prevents duplicate orders.
package checkout

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/waynejunj/prosperv1/internal/cart"
	pkgerrors "github.com/waynejunj/prosperv1/pkg/errors"
	"github.com/waynejunj/prosperv1/pkg/logger"
	"github.com/waynejunj/prosperv1/pkg/metrics"
	"github.com/waynejunj/prosperv1/pkg/totals"
)

// State is the checkout attempt lifecycle.
type State string

const (
	StateIdle                 State = "idle"
	StateValidating           State = "validating"
	StateSubmitting           State = "submitting"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateSucceeded            State = "succeeded"
	StateFailed               State = "failed"
)

// MethodMpesa is the only payment channel the storefront offers today.
const MethodMpesa = "mpesa"

// M-Pesa subscriber numbers: country code 254, then a 7 or 1 prefix, then
// eight digits.
var phonePattern = regexp.MustCompile(`^254[17]\d{8}$`)

// ValidatePhone checks the M-Pesa number format without touching the network.
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone must match 254 followed by 7 or 1 and eight digits")
	}
	return nil
}

// Input is what the checkout surface collects from the shopper.
type Input struct {
	Method string
	Phone  string
}

// Summary is surfaced to the confirmation view after a successful attempt.
type Summary struct {
	OrderID int64
	Date    time.Time
	Totals  totals.Totals
	Items   []cart.LineItem
	Method  string
}

type orderClient interface {
	CreateOrder(ctx context.Context) (int64, error)
	InitiateMpesaPayment(ctx context.Context, orderID int64, phone string, amount int64) error
}

type cartSource interface {
	Items() []cart.LineItem
	Totals() totals.Totals
	Reset()
}

type sessionGate interface {
	RequireSession() error
	OnUnauthorized(ctx context.Context)
}

// OrchestratorParams wires the checkout dependencies.
type OrchestratorParams struct {
	Orders  orderClient
	Cart    cartSource
	Session sessionGate
	Logger  *logger.Logger
	Metrics *metrics.StorefrontMetrics
}

// Orchestrator drives one checkout attempt at a time.
type Orchestrator struct {
	mu    sync.Mutex
	state State

	orders  orderClient
	cart    cartSource
	session sessionGate
	logger  *logger.Logger
	metrics *metrics.StorefrontMetrics
}

func NewOrchestrator(params OrchestratorParams) (*Orchestrator, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("order client required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart source required")
	}
	if params.Session == nil {
		return nil, fmt.Errorf("session gate required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Orchestrator{
		state:   StateIdle,
		orders:  params.Orders,
		cart:    params.Cart,
		session: params.Session,
		logger:  params.Logger,
		metrics: params.Metrics,
	}, nil
}

// State reports the current attempt state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Submit runs the full checkout flow. A call while an attempt is in flight,
// validation included, is silently ignored and returns neither summary nor
// error. Validation failures return to Idle without any remote call; remote
// failures land in Failed with no cart mutation.
func (o *Orchestrator) Submit(ctx context.Context, input Input) (*Summary, error) {
	o.mu.Lock()
	if o.state == StateValidating || o.state == StateSubmitting || o.state == StateAwaitingConfirmation {
		o.mu.Unlock()
		o.logger.Debug(ctx, "checkout already in flight, ignoring submit")
		o.metrics.IncCheckout("duplicate")
		return nil, nil
	}
	o.state = StateValidating
	o.mu.Unlock()

	if err := o.validate(ctx, input); err != nil {
		o.setState(StateIdle)
		o.metrics.IncCheckout("validation_failed")
		return nil, err
	}

	o.setState(StateSubmitting)

	items := o.cart.Items()
	tot := o.cart.Totals()

	orderID, err := o.orders.CreateOrder(ctx)
	if err != nil {
		return nil, o.fail(ctx, err, "order create rejected")
	}

	// The payment channel takes whole units only; the total is floored, not
	// rounded.
	if err := o.orders.InitiateMpesaPayment(ctx, orderID, input.Phone, tot.PaymentAmount()); err != nil {
		return nil, o.fail(ctx, err, "payment initiation rejected")
	}

	// Acceptance, not settlement: the provider has the request, final
	// confirmation is owned remotely.
	o.setState(StateAwaitingConfirmation)

	o.cart.Reset()
	o.setState(StateSucceeded)
	o.metrics.IncCheckout("accepted")
	o.logger.Info(o.logger.WithField(ctx, "order_id", orderID), "checkout accepted")

	return &Summary{
		OrderID: orderID,
		Date:    time.Now(),
		Totals:  tot,
		Items:   items,
		Method:  input.Method,
	}, nil
}

// Acknowledge returns a settled attempt (Failed or Succeeded) to Idle so a
// new one can start.
func (o *Orchestrator) Acknowledge() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateFailed || o.state == StateSucceeded {
		o.state = StateIdle
	}
}

func (o *Orchestrator) validate(ctx context.Context, input Input) error {
	if err := o.session.RequireSession(); err != nil {
		o.session.OnUnauthorized(ctx)
		return err
	}
	if len(o.cart.Items()) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if input.Method != MethodMpesa {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported payment method %q", input.Method))
	}
	return ValidatePhone(input.Phone)
}

func (o *Orchestrator) fail(ctx context.Context, err error, msg string) error {
	o.setState(StateFailed)
	o.metrics.IncCheckout("rejected")
	if pkgerrors.IsUnauthorized(err) {
		o.session.OnUnauthorized(ctx)
	}
	o.logger.Error(ctx, msg, err)
	return err
}

func (o *Orchestrator) setState(next State) {
	o.mu.Lock()
	o.state = next
	o.mu.Unlock()
}
