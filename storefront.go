// Package storefront wires the client-side core of the shop together: the
// HTTP client with its response cache, the session lifecycle, the cart,
// and persisted preferences. Construct an App once and share it.
package storefront

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/storefront/internal/api"
	"github.com/felixgeelhaar/storefront/internal/cache"
	"github.com/felixgeelhaar/storefront/internal/cart"
	"github.com/felixgeelhaar/storefront/internal/config"
	"github.com/felixgeelhaar/storefront/internal/domain"
	"github.com/felixgeelhaar/storefront/internal/prefs"
	"github.com/felixgeelhaar/storefront/internal/session"
	"github.com/felixgeelhaar/storefront/internal/storage"
	"github.com/felixgeelhaar/storefront/internal/storage/local"
	"github.com/felixgeelhaar/storefront/internal/storage/sqlite"
)

// App is the composition root. All cross-component coordination, such as
// merging the anonymous cart after login, lives here so the individual
// services stay independent.
type App struct {
	Client  *api.Client
	Session *session.Service
	Cart    *cart.Service
	Prefs   *prefs.Store

	store  storage.Store
	events *domain.EventDispatcher
	logger *slog.Logger
}

// New builds the App from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := cfg.EnsureStateDir(); err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	tokens, err := session.NewTokens(store)
	if err != nil {
		store.Close()
		return nil, err
	}

	events := domain.NewEventDispatcher()

	responseCache, err := openCache(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	var doer api.Doer = &http.Client{Timeout: cfg.RequestTimeout}
	if cfg.CircuitBreaker || cfg.RetryReads {
		doer = api.NewResilientDoer(doer, api.ResilienceConfig{
			EnableCircuitBreaker: cfg.CircuitBreaker,
			EnableRetry:          cfg.RetryReads,
			Logger:               logger,
		})
	}

	client, err := api.NewClient(api.Config{
		BaseURL:    cfg.APIBaseURL,
		HTTPClient: doer,
		Cache:      responseCache,
		Tokens:     tokens,
		Events:     events,
		Logger:     logger,
		Timeout:    cfg.RequestTimeout,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	sessionSvc := session.NewService(client, tokens, events, logger)

	cartSvc, err := cart.NewService(client, store, sessionSvc, events, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	prefsStore, err := prefs.NewStore(store)
	if err != nil {
		store.Close()
		return nil, err
	}

	app := &App{
		Client:  client,
		Session: sessionSvc,
		Cart:    cartSvc,
		Prefs:   prefsStore,
		store:   store,
		events:  events,
		logger:  logger,
	}

	// A session invalidated by a failed token refresh leaves account data
	// in the local cart view; drop it.
	events.Subscribe(domain.EventSessionInvalidated, func(domain.Event) {
		cartSvc.ClearLocal()
	})

	return app, nil
}

// Start restores persisted state: the saved session, if still valid, and
// the current cart. Safe to call on every process start.
func (a *App) Start(ctx context.Context) error {
	a.Session.Restore(ctx)
	if err := a.Cart.Fetch(ctx); err != nil {
		a.logger.Warn("initial cart fetch", "error", err)
	}
	return nil
}

// Login signs the user in and, exactly once per anonymous-to-authenticated
// transition, merges the anonymous cart into the account cart.
func (a *App) Login(ctx context.Context, email, password string) (*domain.User, error) {
	wasAuthenticated := a.Session.Authenticated()

	user, err := a.Session.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if !wasAuthenticated {
		if err := a.Cart.Merge(ctx); err != nil {
			a.logger.Warn("cart merge after login", "error", err)
		}
	}
	return user, nil
}

// Logout ends the session and clears the local cart view. Device-level
// preferences such as the theme are kept.
func (a *App) Logout(ctx context.Context) {
	a.Session.Logout(ctx)
	a.Cart.ClearLocal()
}

// Events exposes the dispatcher so the presentation layer can subscribe
// to session and cart notifications.
func (a *App) Events() *domain.EventDispatcher {
	return a.events
}

// Close releases the persistent store.
func (a *App) Close() error {
	return a.store.Close()
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case "sqlite":
		return sqlite.Open(filepath.Join(cfg.StateDir, "state.db"))
	case "json":
		return local.NewStore(cfg.StateDir)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func openCache(cfg *config.Config) (cache.ResponseCache, error) {
	if cfg.RedisURL == "" {
		return cache.NewMemory(cfg.CacheTTL), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return cache.NewRedis(redis.NewClient(opts), cfg.CacheTTL), nil
}
