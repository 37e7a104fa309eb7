package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/waynejunj/prosperv1/api/routes"
	apiclient "github.com/waynejunj/prosperv1/internal/api"
	"github.com/waynejunj/prosperv1/internal/cart"
	"github.com/waynejunj/prosperv1/internal/checkout"
	"github.com/waynejunj/prosperv1/internal/guard"
	"github.com/waynejunj/prosperv1/internal/session"
	"github.com/waynejunj/prosperv1/pkg/config"
	"github.com/waynejunj/prosperv1/pkg/events"
	"github.com/waynejunj/prosperv1/pkg/logger"
	"github.com/waynejunj/prosperv1/pkg/metrics"
	"github.com/waynejunj/prosperv1/pkg/state"
)

// lazyTokens breaks the construction cycle between the remote client and the
// session store: the client needs a token source before the store exists.
type lazyTokens struct {
	sessions *session.Store
}

func (l *lazyTokens) Token() string {
	if l.sessions == nil {
		return ""
	}
	return l.sessions.Token()
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	stateStore, closeState, err := newStateStore(context.Background(), cfg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap state store", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeState(); err != nil {
			logg.Error(context.Background(), "error closing state store", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewStorefrontMetrics(registry)

	tokens := &lazyTokens{}
	client, err := apiclient.NewClient(cfg.API, tokens, logg, m)
	if err != nil {
		logg.Error(context.Background(), "failed to build storefront client", err)
		os.Exit(1)
	}

	sessions, err := session.NewStore(session.StoreParams{
		Client: client,
		State:  stateStore,
		Navigator: session.NavigatorFunc(func() {
			logg.Info(context.Background(), "redirecting to "+guard.SignInPath)
		}),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build session store", err)
		os.Exit(1)
	}
	tokens.sessions = sessions
	sessions.Restore(context.Background())

	bus := events.NewBus()
	cache, err := cart.NewCache(cart.CacheParams{
		Client:  client,
		Session: sessions,
		Bus:     bus,
		Logger:  logg,
		Metrics: m,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build cart cache", err)
		os.Exit(1)
	}
	badge := cart.NewBadge(cache, bus)
	defer badge.Close()

	orch, err := checkout.NewOrchestrator(checkout.OrchestratorParams{
		Orders:  client,
		Cart:    cache,
		Session: sessions,
		Logger:  logg,
		Metrics: m,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build checkout orchestrator", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"api":     cfg.API.BaseURL,
		"backend": cfg.State.Backend,
	})
	logg.Info(ctx, "starting storefront gateway")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Logger:         logg,
			Sessions:       sessions,
			Client:         client,
			Cart:           cache,
			Badge:          badge,
			Checkout:       orch,
			DefaultPayment: cfg.Checkout.PaymentMethod,
			State:          stateStore,
			Registry:       registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "storefront gateway stopped unexpectedly", err)
		os.Exit(1)
	}
}

func newStateStore(ctx context.Context, cfg *config.Config) (state.Store, func() error, error) {
	if cfg.State.Backend == config.StateBackendRedis {
		store, err := state.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	store, err := state.NewFileStore(cfg.State.FilePath)
	if err != nil {
		return nil, nil, err
	}
	return store, func() error { return nil }, nil
}
