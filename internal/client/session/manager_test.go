package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dayon-app/dayon-go/internal/client/gateway"
	"github.com/dayon-app/dayon-go/internal/client/tokenstore"
	"github.com/dayon-app/dayon-go/internal/core/domain"
	"github.com/dayon-app/dayon-go/internal/telemetry/logger"
	"github.com/dayon-app/dayon-go/internal/telemetry/metric"
)

// backend is a stub API that counts requests.
type backend struct {
	srv  *httptest.Server
	hits atomic.Int64
}

func newBackend(t *testing.T, routes map[string]http.HandlerFunc) *backend {
	t.Helper()
	b := &backend{}
	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.hits.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func profileHandler(user map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"user": user})
	}
}

func newTestManager(t *testing.T, b *backend, store tokenstore.Store, opts ...Option) *Manager {
	t.Helper()
	gw, err := gateway.New(gateway.Config{BaseURL: b.srv.URL + "/api"}, store, gateway.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("gateway.New() error = %v", err)
	}
	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	return New(gw, store, Config{LogoutTimeout: 2 * time.Second}, opts...)
}

func storedToken(t *testing.T, store tokenstore.Store) (string, bool) {
	t.Helper()
	token, found, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return token, found
}

type brokenStore struct {
	tokenstore.MemoryStore
}

func (brokenStore) Load(context.Context) (string, bool, error) {
	return "", false, &domain.StorageError{Op: "load", Backend: "test", Err: errors.New("corrupt")}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
		ready bool
	}{
		{Restoring, "restoring", false},
		{Unauthenticated, "unauthenticated", true},
		{Authenticated, "authenticated", true},
		{State(42), "unknown", true},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		if got := (Session{State: tt.state}).Ready(); got != tt.ready {
			t.Errorf("%s Ready() = %v, want %v", tt.want, got, tt.ready)
		}
	}
}

func TestNew_StartsRestoring(t *testing.T) {
	b := newBackend(t, nil)
	m := newTestManager(t, b, tokenstore.NewMemoryStore())
	if s := m.Current(); s.State != Restoring || s.Ready() || s.User != nil {
		t.Errorf("Current() = %+v, want Restoring", s)
	}
}

func TestRestore_NoToken(t *testing.T) {
	b := newBackend(t, nil)
	m := newTestManager(t, b, tokenstore.NewMemoryStore())

	s := m.Restore(context.Background())
	if s.State != Unauthenticated || !s.Ready() {
		t.Errorf("Restore() = %+v, want Unauthenticated", s)
	}
	if n := b.hits.Load(); n != 0 {
		t.Errorf("Restore without token made %d requests", n)
	}
}

func TestRestore_ValidToken(t *testing.T) {
	var auth atomic.Value
	b := newBackend(t, map[string]http.HandlerFunc{
		"GET /api/profile": func(w http.ResponseWriter, r *http.Request) {
			auth.Store(r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": 3, "name": "Ana"}})
		},
	})
	store := tokenstore.NewMemoryStore()
	_ = store.Save(context.Background(), "5|stored")
	m := newTestManager(t, b, store)

	s := m.Restore(context.Background())
	if s.State != Authenticated || s.User == nil || s.User.ID != "3" || s.User.Name != "Ana" {
		t.Fatalf("Restore() = %+v", s)
	}
	if auth.Load() != "Bearer 5|stored" {
		t.Errorf("Authorization = %v", auth.Load())
	}

	// Restore is a one-shot transition.
	again := m.Restore(context.Background())
	if again.State != Authenticated || b.hits.Load() != 1 {
		t.Errorf("second Restore() = %+v after %d requests", again, b.hits.Load())
	}
}

func TestRestore_RejectedTokenCleared(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			b := newBackend(t, map[string]http.HandlerFunc{
				"GET /api/profile": func(w http.ResponseWriter, r *http.Request) {
					writeJSON(w, status, map[string]any{"message": "Unauthenticated."})
				},
			})
			store := tokenstore.NewMemoryStore()
			_ = store.Save(context.Background(), "stale")
			m := newTestManager(t, b, store)

			if s := m.Restore(context.Background()); s.State != Unauthenticated {
				t.Errorf("Restore() = %+v, want Unauthenticated", s)
			}
			if _, found := storedToken(t, store); found {
				t.Error("rejected token should be cleared")
			}
		})
	}
}

func TestRestore_TransientFailureKeepsToken(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Server Error"})
			},
		},
		{
			name: "undecodable body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>maintenance</html>"))
			},
		},
		{
			name: "no user in body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{})
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackend(t, map[string]http.HandlerFunc{"GET /api/profile": tt.handler})
			store := tokenstore.NewMemoryStore()
			_ = store.Save(context.Background(), "keep-me")
			m := newTestManager(t, b, store)

			if s := m.Restore(context.Background()); s.State != Unauthenticated {
				t.Errorf("Restore() = %+v, want Unauthenticated", s)
			}
			if token, found := storedToken(t, store); !found || token != "keep-me" {
				t.Errorf("token = %q, %v; want kept", token, found)
			}
		})
	}
}

func TestRestore_TimeoutKeepsToken(t *testing.T) {
	release := make(chan struct{})
	b := newBackend(t, map[string]http.HandlerFunc{
		"GET /api/profile": func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		},
	})
	defer close(release)

	store := tokenstore.NewMemoryStore()
	_ = store.Save(context.Background(), "keep-me")
	m := newTestManager(t, b, store)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if s := m.Restore(ctx); s.State != Unauthenticated {
		t.Errorf("Restore() = %+v, want Unauthenticated", s)
	}
	if token, found := storedToken(t, store); !found || token != "keep-me" {
		t.Errorf("token = %q, %v; want kept after timeout", token, found)
	}
}

func TestRestore_StorageError(t *testing.T) {
	b := newBackend(t, nil)
	m := newTestManager(t, b, &brokenStore{})

	if s := m.Restore(context.Background()); s.State != Unauthenticated {
		t.Errorf("Restore() = %+v, want Unauthenticated", s)
	}
	if n := b.hits.Load(); n != 0 {
		t.Errorf("made %d requests with an unreadable store", n)
	}
}

func TestLogin_Success(t *testing.T) {
	var got map[string]string
	b := newBackend(t, map[string]http.HandlerFunc{
		"POST /api/login": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			writeJSON(w, http.StatusOK, map[string]any{
				"token": "T1",
				"user":  map[string]any{"id": 1, "name": "A"},
			})
		},
	})
	store := tokenstore.NewMemoryStore()
	m := newTestManager(t, b, store)
	m.Restore(context.Background())

	user, err := m.Login(context.Background(), domain.Credentials{Email: "  a@b.com\n", Password: "x"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.ID != "1" || user.Name != "A" {
		t.Errorf("user = %+v", user)
	}
	if token, _ := storedToken(t, store); token != "T1" {
		t.Errorf("stored token = %q, want T1", token)
	}
	s := m.Current()
	if s.State != Authenticated || s.User == nil || s.User.ID != "1" {
		t.Errorf("Current() = %+v", s)
	}
	if got["email"] != "a@b.com" || got["password"] != "x" || got["device_name"] != DefaultDeviceName {
		t.Errorf("login body = %v", got)
	}
}

func TestLogin_FetchesProfileWithNewToken(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{
		"POST /api/login": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"token": "T2"})
		},
		"GET /api/profile": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer T2" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthenticated."})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": 2, "name": "B"}})
		},
	})
	m := newTestManager(t, b, tokenstore.NewMemoryStore())

	user, err := m.Login(context.Background(), domain.Credentials{Email: "b@c.com", Password: "pw", DeviceName: "phone"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.ID != "2" {
		t.Errorf("user = %+v", user)
	}
}

func TestLogin_ProfileFailureDropsToken(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{
		"POST /api/login": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"token": "T3"})
		},
		"GET /api/profile": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Server Error"})
		},
	})
	store := tokenstore.NewMemoryStore()
	m := newTestManager(t, b, store)
	m.Restore(context.Background())

	_, err := m.Login(context.Background(), domain.Credentials{Email: "b@c.com", Password: "pw"})
	if !errors.Is(err, domain.ErrAuthFailed) {
		t.Fatalf("Login() error = %v, want ErrAuthFailed", err)
	}
	if _, found := storedToken(t, store); found {
		t.Error("token should be dropped when the user cannot be resolved")
	}
	if m.Current().State != Unauthenticated {
		t.Errorf("state = %s", m.Current().State)
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "validation",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
					"message": "These credentials do not match our records.",
					"errors":  map[string][]string{"email": {"These credentials do not match our records."}},
				})
			},
			check: func(t *testing.T, err error) {
				var ve *domain.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("error = %v, want ValidationError", err)
				}
				if len(ve.Field("email")) != 1 {
					t.Errorf("Fields = %v", ve.Fields)
				}
			},
		},
		{
			name: "empty token",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"token": "", "user": map[string]any{"id": 1}})
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, domain.ErrAuthFailed) || !errors.Is(err, domain.ErrTokenMissing) {
					t.Errorf("error = %v, want ErrAuthFailed wrapping ErrTokenMissing", err)
				}
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Server Error"})
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, domain.ErrAuthFailed) {
					t.Errorf("error = %v, want ErrAuthFailed", err)
				}
				var he *domain.HTTPError
				if !errors.As(err, &he) || he.Status != http.StatusInternalServerError {
					t.Errorf("cause should be the HTTPError, got %v", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackend(t, map[string]http.HandlerFunc{"POST /api/login": tt.handler})
			store := tokenstore.NewMemoryStore()
			m := newTestManager(t, b, store)
			m.Restore(context.Background())

			user, err := m.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "x"})
			if user != nil {
				t.Errorf("user = %+v, want nil", user)
			}
			tt.check(t, err)
			if _, found := storedToken(t, store); found {
				t.Error("failed login must not store a token")
			}
			if m.Current().State != Unauthenticated {
				t.Errorf("state = %s", m.Current().State)
			}
		})
	}
}

func TestLogin_NetworkError(t *testing.T) {
	b := newBackend(t, nil)
	m := newTestManager(t, b, tokenstore.NewMemoryStore())
	b.srv.Close()

	_, err := m.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "x"})
	var ne *domain.NetworkError
	if !errors.Is(err, domain.ErrAuthFailed) || !errors.As(err, &ne) {
		t.Errorf("error = %v, want ErrAuthFailed wrapping NetworkError", err)
	}
}

func TestLogin_LocalValidation(t *testing.T) {
	b := newBackend(t, nil)
	m := newTestManager(t, b, tokenstore.NewMemoryStore())

	_, err := m.Login(context.Background(), domain.Credentials{Email: " "})
	if _, ok := domain.AsValidation(err); !ok {
		t.Errorf("error = %v, want ValidationError", err)
	}
	if b.hits.Load() != 0 {
		t.Error("invalid form should not reach the server")
	}
}

func TestRegister(t *testing.T) {
	var got map[string]string
	b := newBackend(t, map[string]http.HandlerFunc{
		"POST /api/register": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			writeJSON(w, http.StatusCreated, map[string]any{
				"token": "R1",
				"user":  map[string]any{"id": 8, "name": "New", "email": "new@b.com"},
			})
		},
	})
	store := tokenstore.NewMemoryStore()
	m := newTestManager(t, b, store)

	user, err := m.Register(context.Background(), domain.Registration{
		Name:                 " New ",
		Email:                "new@b.com ",
		Password:             "secret12",
		PasswordConfirmation: "secret12",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID != "8" || m.Current().State != Authenticated {
		t.Errorf("user = %+v, state = %s", user, m.Current().State)
	}
	if token, _ := storedToken(t, store); token != "R1" {
		t.Errorf("stored token = %q", token)
	}
	if got["name"] != "New" || got["email"] != "new@b.com" ||
		got["password_confirmation"] != "secret12" || got["device_name"] != DefaultDeviceName {
		t.Errorf("register body = %v", got)
	}

	_, err = m.Register(context.Background(), domain.Registration{
		Name:                 "Bob",
		Email:                "Bob <bob@b.com>",
		Password:             "secret12",
		PasswordConfirmation: "secret12",
	})
	if ve, ok := domain.AsValidation(err); !ok || len(ve.Field("email")) == 0 {
		t.Errorf("display-name email error = %v, want email ValidationError", err)
	}
}

func TestLogout_ClearsBeforeServerAnswers(t *testing.T) {
	release := make(chan struct{})
	seen := make(chan string, 1)
	b := newBackend(t, map[string]http.HandlerFunc{
		"POST /api/logout": func(w http.ResponseWriter, r *http.Request) {
			seen <- r.Header.Get("Authorization")
			select {
			case <-release:
			case <-r.Context().Done():
			}
		},
		"GET /api/profile": profileHandler(map[string]any{"id": 1}),
	})
	store := tokenstore.NewMemoryStore()
	_ = store.Save(context.Background(), "T1")
	m := newTestManager(t, b, store)
	m.Restore(context.Background())

	start := time.Now()
	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Logout waited for the server")
	}
	if _, found := storedToken(t, store); found {
		t.Error("token should be cleared when Logout returns")
	}
	if s := m.Current(); s.State != Unauthenticated || s.User != nil {
		t.Errorf("Current() = %+v", s)
	}

	select {
	case auth := <-seen:
		if auth != "Bearer T1" {
			t.Errorf("logout Authorization = %q, want the cleared token", auth)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server was never notified")
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Wait(ctx); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestLogout_NotificationFailureIsRecorded(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{
		"POST /api/logout": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Server Error"})
		},
	})
	store := tokenstore.NewMemoryStore()
	_ = store.Save(context.Background(), "T1")
	reg := metric.NewRegistry()
	m := newTestManager(t, b, store, WithMetrics(reg))

	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	if got := testutil.ToFloat64(reg.LogoutNotify.WithLabelValues("error")); got != 1 {
		t.Errorf("logout error count = %v, want 1", got)
	}
	if m.Current().State != Unauthenticated {
		t.Error("failed notification must not roll back the logout")
	}
}

func TestLogout_WithoutTokenSkipsServer(t *testing.T) {
	b := newBackend(t, nil)
	m := newTestManager(t, b, tokenstore.NewMemoryStore())

	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if err := m.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if n := b.hits.Load(); n != 0 {
		t.Errorf("made %d requests without a token", n)
	}
}

func TestOnChange(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{
		"POST /api/login": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"token": "T1", "user": map[string]any{"id": 1}})
		},
		"POST /api/logout": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
		},
	})
	m := newTestManager(t, b, tokenstore.NewMemoryStore())

	var states []State
	cancel := m.OnChange(func(s Session) { states = append(states, s.State) })

	m.Restore(context.Background())
	if _, err := m.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "x"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	cancel()
	_ = m.Logout(context.Background())
	_ = m.Wait(context.Background())

	want := []State{Unauthenticated, Authenticated}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("states[%d] = %s, want %s", i, states[i], want[i])
		}
	}
}

func TestForgotPassword(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{
		"POST /api/forgot-password": func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["email"] == "unknown@b.com" {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
					"message": "We can't find a user with that email address.",
					"errors":  map[string][]string{"email": {"We can't find a user with that email address."}},
				})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"status": "We have emailed your password reset link."})
		},
	})
	m := newTestManager(t, b, tokenstore.NewMemoryStore())

	status, err := m.ForgotPassword(context.Background(), "a@b.com")
	if err != nil || status != "We have emailed your password reset link." {
		t.Errorf("ForgotPassword() = %q, %v", status, err)
	}

	_, err = m.ForgotPassword(context.Background(), "unknown@b.com")
	if ve, ok := domain.AsValidation(err); !ok || len(ve.Field("email")) != 1 {
		t.Errorf("error = %v, want email ValidationError", err)
	}

	hits := b.hits.Load()
	for _, email := range []string{"", "not-an-email", "Bob <bob@b.com>"} {
		if _, err := m.ForgotPassword(context.Background(), email); err == nil {
			t.Errorf("ForgotPassword(%q) should fail locally", email)
		}
	}
	if b.hits.Load() != hits {
		t.Error("invalid email should not reach the server")
	}
	if m.Current().State != Restoring {
		t.Error("ForgotPassword must not change the session")
	}
}

func TestRefresh(t *testing.T) {
	var name atomic.Value
	name.Store("Before")
	var reject atomic.Bool
	b := newBackend(t, map[string]http.HandlerFunc{
		"GET /api/profile": func(w http.ResponseWriter, r *http.Request) {
			if reject.Load() {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthenticated."})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": 1, "name": name.Load()}})
		},
	})
	store := tokenstore.NewMemoryStore()
	m := newTestManager(t, b, store)

	if _, err := m.Refresh(context.Background()); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("Refresh() before login error = %v", err)
	}

	_ = store.Save(context.Background(), "T1")
	m.Restore(context.Background())
	name.Store("After")

	user, err := m.Refresh(context.Background())
	if err != nil || user.Name != "After" || m.Current().User.Name != "After" {
		t.Errorf("Refresh() = %+v, %v", user, err)
	}

	reject.Store(true)
	if _, err := m.Refresh(context.Background()); !domain.IsAuthRejected(err) {
		t.Errorf("Refresh() error = %v, want auth rejected", err)
	}
	if m.Current().State != Unauthenticated {
		t.Error("rejected refresh should sign out")
	}
	if _, found := storedToken(t, store); found {
		t.Error("rejected refresh should clear the token")
	}
}

func TestMetrics(t *testing.T) {
	b := newBackend(t, nil)
	reg := metric.NewRegistry()
	m := newTestManager(t, b, tokenstore.NewMemoryStore(), WithMetrics(reg))

	stateValue := func(state string) float64 {
		families, err := reg.Gatherer().Gather()
		if err != nil {
			t.Fatalf("Gather() error = %v", err)
		}
		for _, mf := range families {
			if mf.GetName() != "dayon_session_state" {
				continue
			}
			for _, mm := range mf.GetMetric() {
				for _, lp := range mm.GetLabel() {
					if lp.GetName() == "state" && lp.GetValue() == state {
						return mm.GetGauge().GetValue()
					}
				}
			}
		}
		t.Fatalf("no dayon_session_state{state=%q}", state)
		return 0
	}

	if stateValue("restoring") != 1 {
		t.Error("new manager should report restoring")
	}
	m.Restore(context.Background())
	if stateValue("restoring") != 0 || stateValue("unauthenticated") != 1 {
		t.Error("state gauge did not follow restore")
	}
	if got := testutil.ToFloat64(reg.SessionTransitions.WithLabelValues("unauthenticated")); got != 1 {
		t.Errorf("transitions = %v, want 1", got)
	}
}

// A feature call racing a login carries either no credentials or exactly the
// new token.
func TestLogin_RacingFeatureCalls(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	b := newBackend(t, map[string]http.HandlerFunc{
		"POST /api/login": func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(10 * time.Millisecond)
			writeJSON(w, http.StatusOK, map[string]any{"token": "42|racingtoken", "user": map[string]any{"id": 1}})
		},
		"GET /api/properties": func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			seen = append(seen, r.Header.Get("Authorization"))
			mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{"properties": []any{}})
		},
	})
	store := tokenstore.NewMemoryStore()
	gw, err := gateway.New(gateway.Config{BaseURL: b.srv.URL + "/api"}, store, gateway.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	m := New(gw, store, Config{}, WithLogger(logger.Nop()))
	m.Restore(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = gw.Get(context.Background(), "/properties", nil)
		}()
	}
	if _, err := m.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "x"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	wg.Wait()

	for _, auth := range seen {
		if auth != "" && auth != "Bearer 42|racingtoken" {
			t.Errorf("feature call carried %q", auth)
		}
	}
}
