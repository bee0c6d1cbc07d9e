// Package cart manages the shopping cart: the anonymous cart handle, line
// mutations, and the one-shot merge of an anonymous cart into an account
// cart at login.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/storefront/internal/api"
	"github.com/felixgeelhaar/storefront/internal/domain"
	"github.com/felixgeelhaar/storefront/internal/storage"
)

// keyCartCode persists the anonymous cart handle across restarts.
const keyCartCode = "cart.code"

// ErrInvalidQuantity rejects non-positive add quantities before any
// network traffic.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Identity reports whether a user is currently signed in. Satisfied by
// session.Service.
type Identity interface {
	Authenticated() bool
}

// Service owns the local cart state. Mutations are serialized: each one
// runs to completion, including its resync fetch, before the next starts,
// so concurrent add-to-cart clicks cannot interleave their refetches.
type Service struct {
	client   *api.Client
	store    storage.Store
	identity Identity
	events   *domain.EventDispatcher
	logger   *slog.Logger

	opMu sync.Mutex // serializes Fetch/Add/UpdateQuantity/Remove/Merge

	stateMu sync.RWMutex
	cart    *domain.Cart
	code    string // anonymous cart handle, "" when none exists
}

// NewService creates the cart service, restoring any persisted anonymous
// cart handle.
func NewService(client *api.Client, store storage.Store, identity Identity, events *domain.EventDispatcher, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	code, err := store.Get(keyCartCode)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load cart code: %w", err)
	}

	return &Service{
		client:   client,
		store:    store,
		identity: identity,
		events:   events,
		logger:   logger,
		code:     code,
	}, nil
}

// Current returns the last synced cart, or nil when none is known.
func (s *Service) Current() *domain.Cart {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.cart
}

// AnonymousCode returns the anonymous cart handle, or "".
func (s *Service) AnonymousCode() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.code
}

// Fetch refreshes the local cart from the server. An anonymous visitor
// without a cart handle has an empty cart and no request is made.
func (s *Service) Fetch(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.fetchLocked(ctx)
}

func (s *Service) fetchLocked(ctx context.Context) error {
	params := url.Values{}
	if !s.identity.Authenticated() {
		code := s.AnonymousCode()
		if code == "" {
			s.setCart(nil)
			return nil
		}
		params.Set("code", code)
	}

	resp, err := s.client.Get(ctx, api.PathCart, params)
	if err != nil {
		// The server answers 404 (or 400 for a stale handle) when no cart
		// exists yet. That is an empty cart, not a failure.
		var apiErr *api.Error
		if errors.As(err, &apiErr) &&
			(apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusBadRequest) {
			s.setCart(nil)
			return nil
		}
		return fmt.Errorf("fetch cart: %w", err)
	}

	var cart domain.Cart
	if err := resp.JSON(&cart); err != nil {
		return err
	}
	s.setCart(&cart)
	return nil
}

// Add puts quantity units of a product in the cart, creating the cart
// first when none exists. A failed add is logged and resolved by the
// resync fetch rather than surfaced, so the UI converges on server truth.
func (s *Service) Add(ctx context.Context, productID int64, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	code, err := s.ensureCartLocked(ctx)
	if err != nil {
		return err
	}

	body := map[string]any{
		"cart_code":  code,
		"product_id": productID,
		"quantity":   quantity,
	}
	if _, err := s.client.Post(ctx, api.PathCartAdd, body); err != nil {
		s.logger.Warn("add to cart", "product_id", productID, "error", err)
	}
	return s.fetchLocked(ctx)
}

// UpdateQuantity sets the quantity of a cart line. Quantity zero removes
// the line.
func (s *Service) UpdateQuantity(ctx context.Context, itemID int64, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.Remove(ctx, itemID)
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	body := map[string]any{"item_id": itemID, "quantity": quantity}
	if _, err := s.client.Put(ctx, api.PathCartUpdate, body); err != nil {
		s.logger.Warn("update cart item", "item_id", itemID, "error", err)
	}
	return s.fetchLocked(ctx)
}

// Remove deletes a cart line.
func (s *Service) Remove(ctx context.Context, itemID int64) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if _, err := s.client.Delete(ctx, api.PathCartItemDelete(itemID)); err != nil {
		s.logger.Warn("remove cart item", "item_id", itemID, "error", err)
	}
	return s.fetchLocked(ctx)
}

// Merge folds the anonymous cart into the signed-in user's cart. The
// anonymous handle is single use: it is discarded before the attempt so a
// later login can never replay it. Without a handle, Merge degrades to a
// plain fetch of the account cart.
func (s *Service) Merge(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	code := s.AnonymousCode()
	if code == "" {
		return s.fetchLocked(ctx)
	}
	s.discardCode()

	resp, err := s.client.Post(ctx, api.PathCartMerge, map[string]string{
		"temp_cart_code": code,
	})
	if err != nil {
		s.logger.Warn("merge anonymous cart", "error", err)
		return s.fetchLocked(ctx)
	}

	var cart domain.Cart
	if err := resp.JSON(&cart); err != nil {
		return err
	}
	s.setCart(&cart)

	s.logger.Info("anonymous cart merged", "cart_id", cart.ID, "items", cart.ItemCount())
	if s.events != nil {
		s.events.Publish(domain.NewCartMergedEvent(cart.ID, cart.ItemCount()))
	}
	return nil
}

// ClearLocal drops the in-memory cart, e.g. after logout. The server-side
// cart is untouched.
func (s *Service) ClearLocal() {
	s.setCart(nil)
}

// ensureCartLocked returns the handle of a cart that exists server-side,
// creating one when needed. For anonymous visitors a fresh UUID handle is
// generated and persisted before the create call.
func (s *Service) ensureCartLocked(ctx context.Context) (string, error) {
	if cart := s.Current(); cart != nil && cart.Code != "" {
		return cart.Code, nil
	}

	code := s.AnonymousCode()
	if code == "" && !s.identity.Authenticated() {
		code = uuid.NewString()
		if err := s.store.Set(keyCartCode, code); err != nil {
			return "", fmt.Errorf("persist cart code: %w", err)
		}
		s.stateMu.Lock()
		s.code = code
		s.stateMu.Unlock()
	}

	body := map[string]string{}
	if code != "" {
		body["cart_code"] = code
	}
	resp, err := s.client.Post(ctx, api.PathCart, body)
	if err != nil {
		return "", fmt.Errorf("create cart: %w", err)
	}

	var cart domain.Cart
	if err := resp.JSON(&cart); err != nil {
		return "", err
	}
	s.setCart(&cart)

	if cart.Code != "" {
		return cart.Code, nil
	}
	return code, nil
}

func (s *Service) setCart(cart *domain.Cart) {
	s.stateMu.Lock()
	s.cart = cart
	s.stateMu.Unlock()
}

func (s *Service) discardCode() {
	s.stateMu.Lock()
	s.code = ""
	s.stateMu.Unlock()

	if err := s.store.Delete(keyCartCode); err != nil {
		s.logger.Warn("delete cart code", "error", err)
	}
}
