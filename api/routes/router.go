package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/waynejunj/prosperv1/api/controllers"
	"github.com/waynejunj/prosperv1/api/middleware"
	apiclient "github.com/waynejunj/prosperv1/internal/api"
	"github.com/waynejunj/prosperv1/internal/cart"
	"github.com/waynejunj/prosperv1/internal/checkout"
	"github.com/waynejunj/prosperv1/internal/guard"
	"github.com/waynejunj/prosperv1/internal/session"
	"github.com/waynejunj/prosperv1/pkg/logger"
	"github.com/waynejunj/prosperv1/pkg/state"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Logger         *logger.Logger
	Sessions       *session.Store
	Client         *apiclient.Client
	Cart           *cart.Cache
	Badge          *cart.Badge
	Checkout       *checkout.Orchestrator
	DefaultPayment string
	State          state.Store
	Registry       *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
	)

	auth := controllers.NewAuthController(deps.Sessions, deps.Logger)
	cartCtrl := controllers.NewCartController(deps.Cart, deps.Badge, deps.Logger)
	checkoutCtrl := controllers.NewCheckoutController(deps.Checkout, deps.DefaultPayment, deps.Logger)
	products := controllers.NewProductsController(deps.Client, deps.Logger)
	admin := controllers.NewAdminController(deps.Client, deps.Logger)
	theme := controllers.NewThemeController(deps.State, deps.Logger)

	shopperOnly := middleware.Guard(guard.View{Name: "shopper", RequiresAuth: true}, deps.Sessions, deps.Logger)
	adminOnly := middleware.Guard(guard.View{Name: "admin", RequiresAuth: true, RequiresAdmin: true}, deps.Sessions, deps.Logger)

	r.Get("/health", controllers.Health)
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signin", auth.SignIn)
		r.Post("/signup", auth.SignUp)
		r.Post("/signout", auth.SignOut)
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", products.List)
		r.Get("/{productID}", products.Get)
	})

	r.Group(func(r chi.Router) {
		r.Use(shopperOnly)
		r.Get("/api/me", auth.Me)

		r.Route("/api/cart", func(r chi.Router) {
			r.Get("/", cartCtrl.Get)
			r.Get("/count", cartCtrl.Count)
			r.Post("/", cartCtrl.Add)
			r.Delete("/", cartCtrl.Clear)
			r.Put("/{lineID}", cartCtrl.SetQuantity)
			r.Delete("/{lineID}", cartCtrl.Remove)
		})

		r.Route("/api/checkout", func(r chi.Router) {
			r.Post("/", checkoutCtrl.Submit)
			r.Get("/", checkoutCtrl.State)
			r.Post("/acknowledge", checkoutCtrl.Acknowledge)
		})

		r.Route("/api/theme", func(r chi.Router) {
			r.Get("/", theme.Get)
			r.Put("/", theme.Set)
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(adminOnly)
		r.Get("/dashboard/stats", admin.DashboardStats)
		r.Route("/products", func(r chi.Router) {
			r.Post("/", admin.CreateProduct)
			r.Put("/{productID}", admin.UpdateProduct)
			r.Delete("/{productID}", admin.DeleteProduct)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", admin.ListOrders)
			r.Get("/{orderID}", admin.GetOrder)
			r.Put("/{orderID}/status", admin.UpdateOrderStatus)
		})
		r.Route("/users", func(r chi.Router) {
			r.Get("/", admin.ListUsers)
			r.Put("/{userID}", admin.UpdateUser)
		})
	})

	return r
}
