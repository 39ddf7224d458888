package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dayon-app/dayon-go/internal/client/gateway"
	"github.com/dayon-app/dayon-go/internal/client/tokenstore"
	"github.com/dayon-app/dayon-go/internal/core/domain"
	"github.com/dayon-app/dayon-go/internal/telemetry/logger"
	"github.com/dayon-app/dayon-go/internal/telemetry/metric"
)

// API paths used by the manager.
const (
	PathLogin          = "/login"
	PathRegister       = "/register"
	PathLogout         = "/logout"
	PathForgotPassword = "/forgot-password"
	PathProfile        = "/profile"
)

// Defaults.
const (
	DefaultDeviceName    = "dayon-cli"
	DefaultLogoutTimeout = 5 * time.Second
)

// Config configures a Manager.
type Config struct {
	// DeviceName labels the token issued at login and registration.
	DeviceName string
	// LogoutTimeout bounds the server logout notification.
	LogoutTimeout time.Duration
}

// Manager drives login, registration, logout and restore.
type Manager struct {
	gw      *gateway.Gateway
	store   tokenstore.Store
	cfg     Config
	log     logger.Logger
	metrics *metric.Registry

	// flow serialises auth flows and token writes.
	flow    sync.Mutex
	current atomic.Pointer[Session]

	subsMu sync.Mutex
	subs   map[int]func(Session)
	nextID int

	pending sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithMetrics records transitions and logout notifications in r.
func WithMetrics(r *metric.Registry) Option {
	return func(m *Manager) { m.metrics = r }
}

// New creates a Manager in the Restoring state. gw must read its token
// from store.
func New(gw *gateway.Gateway, store tokenstore.Store, cfg Config, opts ...Option) *Manager {
	if cfg.DeviceName == "" {
		cfg.DeviceName = DefaultDeviceName
	}
	if cfg.LogoutTimeout <= 0 {
		cfg.LogoutTimeout = DefaultLogoutTimeout
	}

	m := &Manager{
		gw:    gw,
		store: store,
		cfg:   cfg,
		log:   logger.Default(),
		subs:  make(map[int]func(Session)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("component", "session")
	m.current.Store(&Session{State: Restoring})

	if m.metrics != nil {
		names := make([]string, len(States))
		for i, s := range States {
			names[i] = s.String()
		}
		c := metric.NewStateCollector("session", "state", "Current session state.", names,
			func() string { return m.Current().State.String() })
		if err := m.metrics.Register(c); err != nil {
			m.log.Debug("session state collector not registered", "error", err)
		}
	}
	return m
}

// Current returns the current session.
func (m *Manager) Current() Session {
	return *m.current.Load()
}

// OnChange registers fn to be called after every transition. fn runs on the
// goroutine that caused the transition while the auth flow is still held,
// so it must not start another auth flow. The returned func unregisters it.
func (m *Manager) OnChange(fn func(Session)) (cancel func()) {
	m.subsMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.subsMu.Unlock()

	return func() {
		m.subsMu.Lock()
		delete(m.subs, id)
		m.subsMu.Unlock()
	}
}

func (m *Manager) transition(state State, user *domain.User) Session {
	s := Session{State: state}
	if state == Authenticated {
		s.User = user
	}
	m.current.Store(&s)
	m.metrics.SessionTransition(state.String())

	m.subsMu.Lock()
	fns := make([]func(Session), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subsMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
	return s
}

// Restore resolves the Restoring state from the stored token. It never
// fails: any problem leaves the session Unauthenticated. Only a 401 or 403
// from the profile endpoint clears the stored token; transient failures
// keep it for the next start. Once restored, later calls return the
// current session unchanged.
func (m *Manager) Restore(ctx context.Context) Session {
	m.flow.Lock()
	defer m.flow.Unlock()

	if cur := m.Current(); cur.State != Restoring {
		return cur
	}
	log := m.log.WithContext(ctx)

	_, found, err := m.store.Load(ctx)
	if err != nil {
		log.Error("restore: token store unreadable", "error", err)
		return m.transition(Unauthenticated, nil)
	}
	if !found {
		return m.transition(Unauthenticated, nil)
	}

	user, err := m.fetchProfile(ctx)
	switch {
	case err == nil:
		log.Debug("session restored", "user_id", user.ID)
		return m.transition(Authenticated, user)
	case domain.IsAuthRejected(err):
		log.Info("stored token rejected, signing out")
		if cerr := m.store.Clear(ctx); cerr != nil {
			log.Error("restore: clearing rejected token failed", "error", cerr)
		}
		return m.transition(Unauthenticated, nil)
	default:
		log.Warn("restore failed, keeping token", "error", err)
		return m.transition(Unauthenticated, nil)
	}
}

// Login authenticates with email and password.
//
// A 422 response is returned as *domain.ValidationError. Any other failure
// is domain.ErrAuthFailed wrapping the cause.
func (m *Manager) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.DeviceName == "" {
		creds.DeviceName = m.cfg.DeviceName
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	m.flow.Lock()
	defer m.flow.Unlock()
	return m.authenticate(ctx, PathLogin, creds)
}

// Register creates an account and logs it in. It has the same contract as
// Login.
func (m *Manager) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.DeviceName == "" {
		reg.DeviceName = m.cfg.DeviceName
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	m.flow.Lock()
	defer m.flow.Unlock()
	return m.authenticate(ctx, PathRegister, reg)
}

// authenticate posts credentials, persists the issued token before any
// further request, and resolves the user. Caller holds m.flow.
func (m *Manager) authenticate(ctx context.Context, path string, body any) (*domain.User, error) {
	log := m.log.WithContext(ctx)

	var resp domain.AuthResponse
	if err := m.gw.Post(ctx, path, body, &resp); err != nil {
		if ve, ok := domain.AsValidation(err); ok {
			return nil, ve
		}
		return nil, domain.ErrAuthFailed.WithCause(err)
	}
	if resp.Token == "" {
		return nil, domain.ErrAuthFailed.WithCause(domain.ErrTokenMissing)
	}
	if err := m.store.Save(ctx, resp.Token); err != nil {
		return nil, domain.ErrAuthFailed.WithCause(err)
	}

	user := resp.User
	if user == nil {
		var err error
		user, err = m.fetchProfile(ctx)
		if err != nil {
			// A token without a user is not a session.
			if cerr := m.store.Clear(ctx); cerr != nil {
				log.Error("clearing token after failed profile fetch", "error", cerr)
			}
			return nil, domain.ErrAuthFailed.WithCause(err)
		}
	}

	m.transition(Authenticated, user)
	log.Info("authenticated", "path", path, "user_id", user.ID)
	return user, nil
}

// Logout clears the stored token and moves to Unauthenticated, then tells
// the server in the background using the token that was cleared. The
// notification is bounded by the logout timeout, is not retried and never
// undoes the local logout. Only a failure to clear the store is returned;
// the state changes regardless.
func (m *Manager) Logout(ctx context.Context) error {
	m.flow.Lock()
	defer m.flow.Unlock()
	log := m.log.WithContext(ctx)

	token, found, loadErr := m.store.Load(ctx)
	if loadErr != nil {
		log.Warn("logout: token unreadable, server will not be notified", "error", loadErr)
	}
	clearErr := m.store.Clear(ctx)
	m.transition(Unauthenticated, nil)

	if found {
		m.notifyLogout(ctx, token)
	}
	return clearErr
}

func (m *Manager) notifyLogout(ctx context.Context, token string) {
	gw := m.gw.WithTokenSource(tokenstore.Snapshot(token))
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.LogoutTimeout)

	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		defer cancel()

		err := gw.Post(ctx, PathLogout, nil, nil)
		m.metrics.LogoutNotified(err)
		if err != nil {
			m.log.WithContext(ctx).Warn("server logout notification failed", "error", err)
		}
	}()
}

// Wait blocks until pending logout notifications finish or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ForgotPassword asks the backend to email a reset link and returns its
// status message. The session is not affected.
func (m *Manager) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	ve := domain.NewValidationError("The given data was invalid.")
	if email == "" {
		ve.Add("email", "The email field is required.")
	} else if !domain.ValidEmail(email) {
		ve.Add("email", "The email field must be a valid email address.")
	}
	if !ve.Empty() {
		return "", ve
	}

	var resp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	err := m.gw.Post(ctx, PathForgotPassword, map[string]string{"email": email}, &resp)
	if err != nil {
		if ve, ok := domain.AsValidation(err); ok {
			return "", ve
		}
		return "", err
	}
	if resp.Status == "" {
		return resp.Message, nil
	}
	return resp.Status, nil
}

// Refresh re-reads the profile of the logged-in user. A rejected token
// signs the session out.
func (m *Manager) Refresh(ctx context.Context) (*domain.User, error) {
	m.flow.Lock()
	defer m.flow.Unlock()

	if !m.Current().Authenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	user, err := m.fetchProfile(ctx)
	if err != nil {
		if domain.IsAuthRejected(err) {
			if cerr := m.store.Clear(ctx); cerr != nil {
				m.log.WithContext(ctx).Error("clearing rejected token failed", "error", cerr)
			}
			m.transition(Unauthenticated, nil)
		}
		return nil, err
	}
	m.transition(Authenticated, user)
	return user, nil
}

func (m *Manager) fetchProfile(ctx context.Context) (*domain.User, error) {
	var resp domain.ProfileResponse
	if err := m.gw.Get(ctx, PathProfile, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, &domain.DecodeError{Path: PathProfile, Err: errors.New("response has no user")}
	}
	return resp.User, nil
}
