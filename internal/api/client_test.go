package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/waynejunj/prosperv1/pkg/config"
	pkgerrors "github.com/waynejunj/prosperv1/pkg/errors"
	"github.com/waynejunj/prosperv1/pkg/logger"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.Handler, token string) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}
	logg := logger.New(logger.Options{ServiceName: "test"})
	client, err := NewClient(cfg, staticTokens(token), logg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return client, srv
}

func TestGetCartSendsBearerAndDecodesItems(t *testing.T) {
	t.Parallel()

	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/api/cart" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":7,"product_id":3,"product_name":"Mug","price":19.99,"quantity":2,"category_name":"Kitchen","product_image":"mug.png"}]}`))
	}), "tok-123")

	items, err := client.GetCart(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if len(items) != 1 || items[0].ProductName != "Mug" || items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", items)
	}
	if items[0].Price.String() != "19.99" {
		t.Fatalf("expected decimal price 19.99, got %s", items[0].Price)
	}
}

func TestUnauthorizedResponseMapsToAuthError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"token expired"}`))
	}), "stale")

	_, err := client.GetCart(context.Background())
	if !pkgerrors.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if typed := pkgerrors.As(err); typed.Message() != "token expired" {
		t.Fatalf("expected remote message surfaced, got %q", typed.Message())
	}
}

func TestServerErrorMapsToRemoteError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}), "tok")

	err := client.AddToCart(context.Background(), 3, 1)
	if code := pkgerrors.CodeOf(err); code != pkgerrors.CodeRemote {
		t.Fatalf("expected remote error, got %s (%v)", code, err)
	}
}

func TestTransportFailureMapsToNetworkError(t *testing.T) {
	t.Parallel()

	cfg := config.APIConfig{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond}
	logg := logger.New(logger.Options{ServiceName: "test"})
	client, err := NewClient(cfg, staticTokens(""), logg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.GetCart(context.Background())
	if code := pkgerrors.CodeOf(err); code != pkgerrors.CodeNetwork {
		t.Fatalf("expected network error, got %s (%v)", code, err)
	}
}

func TestLoginPostsCredentialsWithoutBearer(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("login must not carry a bearer token")
		}
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"token":"fresh","user":{"id":1,"username":"wanjiru","email":"w@example.com","is_admin":false}}`))
	}), "stale")

	res, err := client.Login(context.Background(), "w@example.com", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Token != "fresh" || res.User.Name != "wanjiru" {
		t.Fatalf("unexpected auth result %+v", res)
	}
}

func TestCreateOrderAndMpesaPayloads(t *testing.T) {
	t.Parallel()

	var paths []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/api/orders":
			w.Write([]byte(`{"order_id":42}`))
		case "/api/payments/mpesa":
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}), "tok")

	ctx := context.Background()
	orderID, err := client.CreateOrder(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if orderID != 42 {
		t.Fatalf("expected order id 42, got %d", orderID)
	}
	if err := client.InitiateMpesaPayment(ctx, orderID, "254712345678", 71); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected two calls, got %v", paths)
	}
}
