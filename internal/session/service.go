// Package session owns the authentication lifecycle: login, registration,
// logout, and restoring a persisted session on process start. It holds the
// current user and exposes a small state machine for the presentation layer.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/storefront/internal/api"
	"github.com/felixgeelhaar/storefront/internal/domain"
)

// State is the coarse authentication state.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
)

// User-presentable failures. The service translates transport and server
// errors into these so callers never render a raw status code.
var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrOffline            = errors.New("cannot reach the server, please check your connection")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// ValidationError carries the first field-level message from the server,
// ready for display next to the form.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Service manages the authenticated session.
type Service struct {
	client *api.Client
	tokens *Tokens
	events *domain.EventDispatcher
	logger *slog.Logger

	mu    sync.RWMutex
	state State
	user  *domain.User
}

// NewService creates the session service. It subscribes to session
// invalidation events so a failed silent refresh anywhere in the client
// layer resets the local state.
func NewService(client *api.Client, tokens *Tokens, events *domain.EventDispatcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		client: client,
		tokens: tokens,
		events: events,
		logger: logger,
		state:  StateUnauthenticated,
	}

	if events != nil {
		events.Subscribe(domain.EventSessionInvalidated, func(domain.Event) {
			s.mu.Lock()
			s.state = StateUnauthenticated
			s.user = nil
			s.mu.Unlock()
			s.logger.Info("session invalidated, state reset")
		})
	}

	return s
}

// State returns the current authentication state.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Authenticated reports whether a user is signed in.
func (s *Service) Authenticated() bool {
	return s.State() == StateAuthenticated
}

// User returns the signed-in user, or nil.
func (s *Service) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

type loginResponse struct {
	domain.Tokens
	User *domain.User `json:"user"`
}

// Login exchanges credentials for a token pair and loads the user profile.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, error) {
	s.setState(StateAuthenticating)

	resp, err := s.client.Post(ctx, api.PathToken, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		s.setState(StateUnauthenticated)
		return nil, presentError(err)
	}

	var out loginResponse
	if err := resp.JSON(&out); err != nil {
		s.setState(StateUnauthenticated)
		return nil, err
	}
	if out.Access == "" || out.Refresh == "" {
		s.setState(StateUnauthenticated)
		return nil, fmt.Errorf("login response missing tokens")
	}

	if err := s.tokens.SetPair(out.Access, out.Refresh); err != nil {
		s.setState(StateUnauthenticated)
		return nil, err
	}

	user := out.User
	if user == nil {
		user, err = s.fetchProfile(ctx)
		if err != nil {
			s.teardown(ctx)
			return nil, presentError(err)
		}
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.user = user
	s.mu.Unlock()

	s.logger.Info("logged in", "user_id", user.ID, "email", user.Email)
	if s.events != nil {
		s.events.Publish(domain.NewSessionAuthenticatedEvent(user.ID, user.Email))
	}
	return user, nil
}

// RegisterRequest is the new-account form. Optional fields left empty are
// omitted from the request so the server applies its own defaults.
type RegisterRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Address   string
	City      string
	Country   string
}

// Register creates a new account. It does not sign the user in; callers
// follow up with Login.
func (s *Service) Register(ctx context.Context, req RegisterRequest) error {
	payload := map[string]string{
		"email":    req.Email,
		"password": req.Password,
	}
	optional := map[string]string{
		"first_name": req.FirstName,
		"last_name":  req.LastName,
		"phone":      req.Phone,
		"address":    req.Address,
		"city":       req.City,
		"country":    req.Country,
	}
	for field, value := range optional {
		if value != "" {
			payload[field] = value
		}
	}

	if _, err := s.client.Post(ctx, api.PathRegister, payload); err != nil {
		return presentError(err)
	}
	s.logger.Info("account registered", "email", req.Email)
	return nil
}

// Logout ends the session unconditionally. The server-side revocation is
// best effort; local teardown always completes: cached responses are
// purged, both tokens are deleted, and the state is reset, in that order.
func (s *Service) Logout(ctx context.Context) {
	if refresh := s.tokens.Refresh(); refresh != "" {
		if _, err := s.client.Post(ctx, api.PathLogout, map[string]string{"refresh": refresh}); err != nil {
			s.logger.Warn("revoke refresh token", "error", err)
		}
	}

	s.teardown(ctx)

	s.logger.Info("logged out")
	if s.events != nil {
		s.events.Publish(domain.NewSessionLoggedOutEvent())
	}
}

// Restore revalidates a persisted session on process start. A stored access
// token is tested against the profile endpoint; any failure means the
// session is stale and is torn down, which is not an error for the caller.
func (s *Service) Restore(ctx context.Context) {
	if s.tokens.Access() == "" {
		return
	}

	user, err := s.fetchProfile(ctx)
	if err != nil {
		s.logger.Warn("stored session rejected", "error", err)
		s.teardown(ctx)
		return
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.user = user
	s.mu.Unlock()
	s.logger.Info("session restored", "user_id", user.ID)
}

// Profile returns the signed-in user's profile, refreshed from the server.
func (s *Service) Profile(ctx context.Context) (*domain.User, error) {
	if !s.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	user, err := s.fetchProfile(ctx)
	if err != nil {
		return nil, presentError(err)
	}
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return user, nil
}

// ProfileUpdate carries the editable profile fields. Empty fields are
// omitted so a partial form does not blank out existing values.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Phone     string
	Address   string
	City      string
	Country   string
}

// UpdateProfile saves profile changes and returns the updated user.
func (s *Service) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*domain.User, error) {
	if !s.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	payload := map[string]string{}
	fields := map[string]string{
		"first_name": upd.FirstName,
		"last_name":  upd.LastName,
		"phone":      upd.Phone,
		"address":    upd.Address,
		"city":       upd.City,
		"country":    upd.Country,
	}
	for field, value := range fields {
		if value != "" {
			payload[field] = value
		}
	}

	resp, err := s.client.Put(ctx, api.PathProfile, payload)
	if err != nil {
		return nil, presentError(err)
	}

	var user domain.User
	if err := resp.JSON(&user); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return &user, nil
}

func (s *Service) fetchProfile(ctx context.Context) (*domain.User, error) {
	resp, err := s.client.Get(ctx, api.PathProfile, nil)
	if err != nil {
		return nil, err
	}
	var user domain.User
	if err := resp.JSON(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// teardown removes every local trace of the session.
func (s *Service) teardown(ctx context.Context) {
	if err := s.client.PurgeCache(ctx); err != nil {
		s.logger.Warn("purge response cache", "error", err)
	}
	if err := s.tokens.Clear(); err != nil {
		s.logger.Warn("clear tokens", "error", err)
	}
	s.mu.Lock()
	s.state = StateUnauthenticated
	s.user = nil
	s.mu.Unlock()
}

func (s *Service) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// presentError maps client-layer failures to user-presentable ones.
func presentError(err error) error {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return ErrInvalidCredentials
	case errors.Is(err, api.ErrValidation):
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			if msg := apiErr.FirstFieldError(); msg != "" {
				return &ValidationError{Message: msg}
			}
		}
		return err
	case errors.Is(err, api.ErrNetwork):
		return ErrOffline
	default:
		return err
	}
}
