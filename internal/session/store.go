// Package session owns the authenticated identity for the whole process.
// Every other component borrows a read-only view; login, logout, and
// credential rejection all funnel through the one Store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/waynejunj/prosperv1/internal/api"
	pkgerrors "github.com/waynejunj/prosperv1/pkg/errors"
	"github.com/waynejunj/prosperv1/pkg/logger"
	"github.com/waynejunj/prosperv1/pkg/state"
)

// Session is the authenticated identity plus its bearer credential.
type Session struct {
	UserID int64  `json:"id"`
	Name   string `json:"username"`
	Email  string `json:"email"`
	Admin  bool   `json:"is_admin"`
	Avatar string `json:"avatar,omitempty"`
	Token  string `json:"-"`
}

type authClient interface {
	Login(ctx context.Context, email, password string) (*api.AuthResult, error)
	Register(ctx context.Context, input api.RegisterInput) (*api.AuthResult, error)
}

// Navigator performs the redirect side effect when authentication is lost.
type Navigator interface {
	NavigateToSignIn()
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func()

func (f NavigatorFunc) NavigateToSignIn() { f() }

// StoreParams wires the session store dependencies.
type StoreParams struct {
	Client    authClient
	State     state.Store
	Navigator Navigator
	Logger    *logger.Logger
}

// Store holds the current session and keeps the persisted copy in lock step
// with memory.
type Store struct {
	mu      sync.RWMutex
	current *Session

	client   authClient
	state    state.Store
	navigate Navigator
	logger   *logger.Logger
}

func NewStore(params StoreParams) (*Store, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("auth client required")
	}
	if params.State == nil {
		return nil, fmt.Errorf("state store required")
	}
	if params.Navigator == nil {
		return nil, fmt.Errorf("navigator required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Store{
		client:   params.Client,
		state:    params.State,
		navigate: params.Navigator,
		logger:   params.Logger,
	}, nil
}

// Restore loads any persisted session at process start. Malformed or expired
// state is discarded silently; Restore never fails startup.
func (s *Store) Restore(ctx context.Context) {
	token, err := s.state.Get(ctx, state.KeyToken)
	if err != nil {
		return
	}
	if tokenExpired(token) {
		s.logger.Info(ctx, "persisted session expired, discarding")
		s.discardPersisted(ctx)
		return
	}

	rawUser, err := s.state.Get(ctx, state.KeyUser)
	if err != nil {
		s.discardPersisted(ctx)
		return
	}

	var sess Session
	if err := json.Unmarshal([]byte(rawUser), &sess); err != nil {
		s.logger.Warn(ctx, "persisted user malformed, discarding")
		s.discardPersisted(ctx)
		return
	}
	sess.Token = token

	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()
	s.logger.Info(s.logger.WithUserID(ctx, fmt.Sprint(sess.UserID)), "session restored")
}

// Login exchanges credentials with the service and replaces the session
// wholesale on success. Failure leaves the existing state untouched.
func (s *Store) Login(ctx context.Context, email, password string) (*Session, error) {
	result, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.install(ctx, result)
}

// RegisterAccount signs up a new shopper; the service answers with the same
// token+user shape as login, so a fresh session is installed directly.
func (s *Store) RegisterAccount(ctx context.Context, input api.RegisterInput) (*Session, error) {
	result, err := s.client.Register(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.install(ctx, result)
}

func (s *Store) install(ctx context.Context, result *api.AuthResult) (*Session, error) {
	if result == nil || result.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeRemote, "auth response missing token")
	}

	sess := &Session{
		UserID: result.User.ID,
		Name:   result.User.Name,
		Email:  result.User.Email,
		Admin:  result.User.Admin,
		Avatar: result.User.Avatar,
		Token:  result.Token,
	}

	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	s.logger.Info(s.logger.WithUserID(ctx, fmt.Sprint(sess.UserID)), "session established")
	copied := *sess
	return &copied, nil
}

// Logout clears memory and persisted state unconditionally. Safe to call
// repeatedly.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	s.discardPersisted(ctx)
}

// OnUnauthorized handles a credential rejection from any collaborator:
// logout plus exactly one redirect to the sign-in view.
func (s *Store) OnUnauthorized(ctx context.Context) {
	s.logger.Warn(ctx, "credential rejected, clearing session")
	s.Logout(ctx)
	s.navigate.NavigateToSignIn()
}

// Current returns a copy of the active session, or nil when signed out.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	copied := *s.current
	return &copied
}

// Token implements the remote client's credential source. Empty when signed
// out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// IsAuthenticated reports whether a session is active.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// RequireSession fails fast with an auth error when no session is active.
func (s *Store) RequireSession() error {
	if !s.IsAuthenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required")
	}
	return nil
}

func (s *Store) persist(ctx context.Context, sess *Session) error {
	rawUser, err := json.Marshal(sess)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding session")
	}
	if err := s.state.Set(ctx, state.KeyToken, sess.Token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting token")
	}
	if err := s.state.Set(ctx, state.KeyUser, string(rawUser)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting user")
	}
	return nil
}

func (s *Store) discardPersisted(ctx context.Context) {
	for _, key := range []string{state.KeyToken, state.KeyUser} {
		if err := s.state.Delete(ctx, key); err != nil && !errors.Is(err, state.ErrNotFound) {
			s.logger.Error(ctx, "discarding persisted session", err)
		}
	}
}
