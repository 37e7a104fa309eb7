package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apiclient "github.com/waynejunj/prosperv1/internal/api"
	"github.com/waynejunj/prosperv1/internal/cart"
	"github.com/waynejunj/prosperv1/internal/checkout"
	"github.com/waynejunj/prosperv1/internal/session"
	"github.com/waynejunj/prosperv1/pkg/config"
	"github.com/waynejunj/prosperv1/pkg/events"
	"github.com/waynejunj/prosperv1/pkg/logger"
	"github.com/waynejunj/prosperv1/pkg/state"
)

type lazyTokens struct {
	sessions *session.Store
}

func (l *lazyTokens) Token() string {
	if l.sessions == nil {
		return ""
	}
	return l.sessions.Token()
}

// fakeService stands in for the remote storefront for end-to-end routing
// tests.
func fakeService(t *testing.T, admin bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"token": "token-123",
			"user":  map[string]any{"id": 7, "username": "jane", "email": "jane@example.com", "is_admin": admin},
		})
	})
	mux.HandleFunc("GET /api/cart", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	})
	mux.HandleFunc("GET /api/products", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]any{map[string]any{"id": 1, "name": "Lamp", "price": "19.99"}})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestRouter(t *testing.T, admin bool) http.Handler {
	t.Helper()
	upstream := fakeService(t, admin)

	logg := logger.New(logger.Options{ServiceName: "test-router", Level: logger.ParseLevel("debug"), Output: io.Discard})
	store, err := state.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("state store: %v", err)
	}

	tokens := &lazyTokens{}
	client, err := apiclient.NewClient(config.APIConfig{BaseURL: upstream.URL, Timeout: 5 * time.Second}, tokens, logg, nil)
	if err != nil {
		t.Fatalf("api client: %v", err)
	}

	sessions, err := session.NewStore(session.StoreParams{
		Client:    client,
		State:     store,
		Navigator: session.NavigatorFunc(func() {}),
		Logger:    logg,
	})
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	tokens.sessions = sessions

	bus := events.NewBus()
	cache, err := cart.NewCache(cart.CacheParams{Client: client, Session: sessions, Bus: bus, Logger: logg})
	if err != nil {
		t.Fatalf("cart cache: %v", err)
	}
	orch, err := checkout.NewOrchestrator(checkout.OrchestratorParams{Orders: client, Cart: cache, Session: sessions, Logger: logg})
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}

	return NewRouter(Deps{
		Logger:   logg,
		Sessions: sessions,
		Client:   client,
		Cart:     cache,
		Badge:    cart.NewBadge(cache, bus),
		Checkout: orch,
		State:    store,
	})
}

func signIn(t *testing.T, router http.Handler) {
	t.Helper()
	body := `{"email":"jane@example.com","password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for signin got %d", resp.Code)
	}
}

func TestHealthIsPublic(t *testing.T) {
	router := newTestRouter(t, false)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for health got %d", resp.Code)
	}
}

func TestProductsArePublic(t *testing.T) {
	router := newTestRouter(t, false)
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for products got %d", resp.Code)
	}
}

func TestCartRequiresSession(t *testing.T) {
	router := newTestRouter(t, false)
	req := httptest.NewRequest(http.MethodGet, "/api/cart/count", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Redirect-To"); got != "/signin" {
		t.Fatalf("expected redirect to /signin got %q", got)
	}
}

func TestCartAllowsSignedInShopper(t *testing.T) {
	router := newTestRouter(t, false)
	signIn(t, router)

	req := httptest.NewRequest(http.MethodGet, "/api/cart/count", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with session got %d", resp.Code)
	}
}

func TestAdminGroupRejectsNonAdmin(t *testing.T) {
	router := newTestRouter(t, false)
	signIn(t, router)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Redirect-To"); got != "/" {
		t.Fatalf("expected redirect to / got %q", got)
	}
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	router := newTestRouter(t, false)
	signIn(t, router)

	body := `{"payment_method":"mpesa","phone":"254712345678"}`
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart got %d", resp.Code)
	}
}
