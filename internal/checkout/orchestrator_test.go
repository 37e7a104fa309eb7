package checkout

import (
	"context"
	"runtime"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/waynejunj/prosperv1/internal/cart"
	pkgerrors "github.com/waynejunj/prosperv1/pkg/errors"
	"github.com/waynejunj/prosperv1/pkg/logger"
	"github.com/waynejunj/prosperv1/pkg/totals"
)

type stubOrders struct {
	mu          sync.Mutex
	orderErr    error
	paymentErr  error
	orderCount  int
	payments    int
	lastPhone   string
	lastAmount  int64
	gate        chan struct{} // when set, CreateOrder blocks until closed
	nextOrderID int64
}

func (s *stubOrders) CreateOrder(context.Context) (int64, error) {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orderErr != nil {
		return 0, s.orderErr
	}
	s.orderCount++
	s.nextOrderID++
	return s.nextOrderID, nil
}

func (s *stubOrders) InitiateMpesaPayment(_ context.Context, _ int64, phone string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paymentErr != nil {
		return s.paymentErr
	}
	s.payments++
	s.lastPhone = phone
	s.lastAmount = amount
	return nil
}

type stubCart struct {
	items  []cart.LineItem
	resets int
}

func (s *stubCart) Items() []cart.LineItem { return s.items }

func (s *stubCart) Totals() totals.Totals {
	lines := make([]totals.Line, len(s.items))
	for i, item := range s.items {
		lines[i] = totals.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}
	return totals.Compute(lines)
}

func (s *stubCart) Reset() { s.resets++ }

type stubGate struct {
	signedIn     bool
	unauthorized int
}

func (s *stubGate) RequireSession() error {
	if !s.signedIn {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required")
	}
	return nil
}

func (s *stubGate) OnUnauthorized(context.Context) {
	s.signedIn = false
	s.unauthorized++
}

func cartWith(price string, qty int) *stubCart {
	return &stubCart{items: []cart.LineItem{{
		ID:        1,
		ProductID: 10,
		Name:      "item",
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}}}
}

func newTestOrchestrator(t *testing.T, orders *stubOrders, crt cartSource, gate *stubGate) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(OrchestratorParams{
		Orders:  orders,
		Cart:    crt,
		Session: gate,
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return o
}

func TestPhoneValidation(t *testing.T) {
	t.Parallel()

	valid := []string{"254712345678", "254112345678"}
	for _, phone := range valid {
		if err := ValidatePhone(phone); err != nil {
			t.Fatalf("expected %s accepted, got %v", phone, err)
		}
	}

	invalid := []string{"254212345678", "0712345678", "25471234567", "2547123456789", "", "25471234567a"}
	for _, phone := range invalid {
		if err := ValidatePhone(phone); err == nil {
			t.Fatalf("expected %s rejected", phone)
		}
	}
}

func TestSubmitHappyPathFloorsAmountAndResetsCart(t *testing.T) {
	t.Parallel()

	orders := &stubOrders{}
	crt := cartWith("19.99", 1) // total 71.979 -> floored 71
	o := newTestOrchestrator(t, orders, crt, &stubGate{signedIn: true})

	summary, err := o.Submit(context.Background(), Input{Method: MethodMpesa, Phone: "254712345678"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary == nil || summary.OrderID != 1 {
		t.Fatalf("expected summary for order 1, got %+v", summary)
	}
	if orders.lastAmount != 71 {
		t.Fatalf("expected floored amount 71, got %d", orders.lastAmount)
	}
	if orders.lastPhone != "254712345678" {
		t.Fatalf("unexpected phone %s", orders.lastPhone)
	}
	if crt.resets != 1 {
		t.Fatalf("expected cart reset once, got %d", crt.resets)
	}
	if o.State() != StateSucceeded {
		t.Fatalf("expected succeeded state, got %s", o.State())
	}
	if len(summary.Items) != 1 || summary.Method != MethodMpesa {
		t.Fatalf("expected summary to carry items and method, got %+v", summary)
	}
}

func TestSubmitEmptyCartFailsLocally(t *testing.T) {
	t.Parallel()

	orders := &stubOrders{}
	o := newTestOrchestrator(t, orders, &stubCart{}, &stubGate{signedIn: true})

	_, err := o.Submit(context.Background(), Input{Method: MethodMpesa, Phone: "254712345678"})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if orders.orderCount != 0 {
		t.Fatalf("expected no remote call, got %d orders", orders.orderCount)
	}
	if o.State() != StateIdle {
		t.Fatalf("expected idle after local rejection, got %s", o.State())
	}
}

func TestSubmitBadPhoneFailsLocally(t *testing.T) {
	t.Parallel()

	orders := &stubOrders{}
	o := newTestOrchestrator(t, orders, cartWith("10", 1), &stubGate{signedIn: true})

	_, err := o.Submit(context.Background(), Input{Method: MethodMpesa, Phone: "0712345678"})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if orders.orderCount != 0 {
		t.Fatalf("expected no remote call, got %d", orders.orderCount)
	}
}

func TestDuplicateSubmitIsSilentNoOp(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	orders := &stubOrders{gate: gate}
	o := newTestOrchestrator(t, orders, cartWith("10", 1), &stubGate{signedIn: true})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := o.Submit(context.Background(), Input{Method: MethodMpesa, Phone: "254712345678"}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}()

	// Wait for the first attempt to reach Submitting, then submit again.
	for o.State() != StateSubmitting {
		runtime.Gosched()
	}
	summary, err := o.Submit(context.Background(), Input{Method: MethodMpesa, Phone: "254712345678"})
	if summary != nil || err != nil {
		t.Fatalf("expected silent no-op, got %+v %v", summary, err)
	}

	close(gate)
	<-done

	if orders.orderCount != 1 {
		t.Fatalf("expected exactly one order, got %d", orders.orderCount)
	}
}

// blockingCart stalls the first Items call so a test can race a second
// submit into the validation phase.
type blockingCart struct {
	stubCart
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (b *blockingCart) Items() []cart.LineItem {
	b.once.Do(func() {
		close(b.entered)
		<-b.gate
	})
	return b.stubCart.Items()
}

func TestSubmitDuringValidationIsSilentNoOp(t *testing.T) {
	t.Parallel()

	orders := &stubOrders{}
	crt := &blockingCart{
		stubCart: *cartWith("10", 1),
		gate:     make(chan struct{}),
		entered:  make(chan struct{}),
	}
	o := newTestOrchestrator(t, orders, crt, &stubGate{signedIn: true})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := o.Submit(context.Background(), Input{Method: MethodMpesa, Phone: "254712345678"}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}()

	// First attempt is held mid-validation; a second submit must not slip
	// past the guard and create a duplicate order.
	<-crt.entered
	summary, err := o.Submit(context.Background(), Input{Method: MethodMpesa, Phone: "254712345678"})
	if summary != nil || err != nil {
		t.Fatalf("expected silent no-op, got %+v %v", summary, err)
	}

	close(crt.gate)
	<-done

	if orders.orderCount != 1 {
		t.Fatalf("expected exactly one order, got %d", orders.orderCount)
	}
	if orders.payments != 1 {
		t.Fatalf("expected exactly one payment, got %d", orders.payments)
	}
}

func TestOrderFailureLandsInFailedWithoutCartMutation(t *testing.T) {
	t.Parallel()

	orders := &stubOrders{orderErr: pkgerrors.New(pkgerrors.CodeRemote, "inventory conflict")}
	crt := cartWith("10", 1)
	o := newTestOrchestrator(t, orders, crt, &stubGate{signedIn: true})

	_, err := o.Submit(context.Background(), Input{Method: MethodMpesa, Phone: "254712345678"})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeRemote {
		t.Fatalf("expected remote error, got %v", err)
	}
	if crt.resets != 0 {
		t.Fatalf("expected no cart mutation on failure, got %d resets", crt.resets)
	}
	if o.State() != StateFailed {
		t.Fatalf("expected failed state, got %s", o.State())
	}

	// Acknowledging the failure allows a retry.
	o.Acknowledge()
	if o.State() != StateIdle {
		t.Fatalf("expected idle after acknowledge, got %s", o.State())
	}
	orders.orderErr = nil
	if _, err := o.Submit(context.Background(), Input{Method: MethodMpesa, Phone: "254712345678"}); err != nil {
		t.Fatalf("expected retry to proceed, got %v", err)
	}
}

func TestPaymentFailureLandsInFailed(t *testing.T) {
	t.Parallel()

	orders := &stubOrders{paymentErr: pkgerrors.New(pkgerrors.CodeRemote, "stk push rejected")}
	crt := cartWith("10", 1)
	o := newTestOrchestrator(t, orders, crt, &stubGate{signedIn: true})

	_, err := o.Submit(context.Background(), Input{Method: MethodMpesa, Phone: "254712345678"})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeRemote {
		t.Fatalf("expected remote error, got %v", err)
	}
	if crt.resets != 0 {
		t.Fatalf("expected cart untouched, got %d resets", crt.resets)
	}
	if o.State() != StateFailed {
		t.Fatalf("expected failed state, got %s", o.State())
	}
}

func TestSubmitOn401ClearsSessionOnce(t *testing.T) {
	t.Parallel()

	gate := &stubGate{signedIn: true}
	orders := &stubOrders{orderErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "token expired")}
	o := newTestOrchestrator(t, orders, cartWith("10", 1), gate)

	_, err := o.Submit(context.Background(), Input{Method: MethodMpesa, Phone: "254712345678"})
	if !pkgerrors.IsUnauthorized(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if gate.unauthorized != 1 {
		t.Fatalf("expected exactly one unauthorized delegation, got %d", gate.unauthorized)
	}
}

func TestSubmitWithoutSessionRedirectsWithoutRemoteCall(t *testing.T) {
	t.Parallel()

	gate := &stubGate{signedIn: false}
	orders := &stubOrders{}
	o := newTestOrchestrator(t, orders, cartWith("10", 1), gate)

	_, err := o.Submit(context.Background(), Input{Method: MethodMpesa, Phone: "254712345678"})
	if !pkgerrors.IsUnauthorized(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if orders.orderCount != 0 {
		t.Fatalf("expected no remote call, got %d", orders.orderCount)
	}
	if gate.unauthorized != 1 {
		t.Fatalf("expected one redirect, got %d", gate.unauthorized)
	}
}
