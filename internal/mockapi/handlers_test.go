package mockapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/dayon-app/dayon-go/internal/core/domain"
)

func newTestServer(t *testing.T, mutate ...func(*Config)) (*Server, *httptest.Server) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BcryptCost = bcrypt.MinCost
	cfg.RateLimit = 0
	for _, m := range mutate {
		m(&cfg)
	}
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func call(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+"/api"+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("%s %s: invalid JSON %q", method, path, data)
		}
	}
	return resp.StatusCode, out
}

func login(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	status, body := call(t, ts, http.MethodPost, "/login", "", domain.Credentials{
		Email: DemoEmail, Password: DemoPassword, DeviceName: "test",
	})
	if status != http.StatusOK {
		t.Fatalf("login status = %d, body = %v", status, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("login returned no token: %v", body)
	}
	return token
}

func TestLogin(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name       string
		creds      domain.Credentials
		wantStatus int
		wantField  string
	}{
		{"valid", domain.Credentials{Email: DemoEmail, Password: DemoPassword}, http.StatusOK, ""},
		{"email is case insensitive", domain.Credentials{Email: "DEMO@dayon.test", Password: DemoPassword}, http.StatusOK, ""},
		{"wrong password", domain.Credentials{Email: DemoEmail, Password: "nope"}, http.StatusUnprocessableEntity, "email"},
		{"unknown email", domain.Credentials{Email: "who@dayon.test", Password: "x"}, http.StatusUnprocessableEntity, "email"},
		{"missing password", domain.Credentials{Email: DemoEmail}, http.StatusUnprocessableEntity, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, ts, http.MethodPost, "/login", "", tt.creds)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%v)", status, tt.wantStatus, body)
			}
			if tt.wantField == "" {
				if tok, _ := body["token"].(string); !strings.Contains(tok, "|") {
					t.Errorf("token = %q, want <id>|<secret>", tok)
				}
				return
			}
			errs, _ := body["errors"].(map[string]any)
			if _, ok := errs[tt.wantField]; !ok {
				t.Errorf("errors = %v, want field %q", errs, tt.wantField)
			}
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	_, ts := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/profile"},
		{http.MethodPost, "/logout"},
		{http.MethodGet, "/reservations"},
		{http.MethodDelete, "/reservations/1"},
		{http.MethodPost, "/properties/1/reviews"},
	} {
		status, body := call(t, ts, tc.method, tc.path, "", nil)
		if status != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", tc.method, tc.path, status)
		}
		if body["message"] != "Unauthenticated." {
			t.Errorf("%s %s message = %v", tc.method, tc.path, body["message"])
		}
	}

	status, _ := call(t, ts, http.MethodGet, "/profile", "1|forged", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("forged token status = %d, want 401", status)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	srv, ts := newTestServer(t)
	token := login(t, ts)

	status, body := call(t, ts, http.MethodGet, "/profile", token, nil)
	if status != http.StatusOK {
		t.Fatalf("profile status = %d", status)
	}
	user, _ := body["user"].(map[string]any)
	if user["email"] != DemoEmail {
		t.Errorf("profile email = %v", user["email"])
	}

	if status, _ := call(t, ts, http.MethodPost, "/logout", token, nil); status != http.StatusOK {
		t.Fatalf("logout status = %d", status)
	}
	if status, _ := call(t, ts, http.MethodGet, "/profile", token, nil); status != http.StatusUnauthorized {
		t.Errorf("profile after logout status = %d, want 401", status)
	}
	if n := srv.Store().TokenCount("1"); n != 0 {
		t.Errorf("TokenCount = %d, want 0", n)
	}
}

func TestRegister(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name       string
		reg        domain.Registration
		wantStatus int
		wantField  string
	}{
		{
			name:       "valid",
			reg:        domain.Registration{Name: "Ana", Email: "ana@dayon.test", Password: "secret123", PasswordConfirmation: "secret123"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "taken email",
			reg:        domain.Registration{Name: "Ana", Email: DemoEmail, Password: "secret123", PasswordConfirmation: "secret123"},
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "email",
		},
		{
			name:       "short password",
			reg:        domain.Registration{Name: "Ben", Email: "ben@dayon.test", Password: "short", PasswordConfirmation: "short"},
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "password",
		},
		{
			name:       "mismatch",
			reg:        domain.Registration{Name: "Cy", Email: "cy@dayon.test", Password: "secret123", PasswordConfirmation: "secret124"},
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "password_confirmation",
		},
		{
			name:       "missing name",
			reg:        domain.Registration{Email: "dee@dayon.test", Password: "secret123", PasswordConfirmation: "secret123"},
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, ts, http.MethodPost, "/register", "", tt.reg)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%v)", status, tt.wantStatus, body)
			}
			if tt.wantField == "" {
				if body["token"] == "" || body["user"] == nil {
					t.Errorf("body = %v, want token and user", body)
				}
				return
			}
			errs, _ := body["errors"].(map[string]any)
			if _, ok := errs[tt.wantField]; !ok {
				t.Errorf("errors = %v, want field %q", errs, tt.wantField)
			}
		})
	}
}

func TestForgotPassword(t *testing.T) {
	srv, ts := newTestServer(t)

	status, body := call(t, ts, http.MethodPost, "/forgot-password", "", map[string]string{"email": DemoEmail})
	if status != http.StatusOK || body["status"] == "" {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if n := srv.Store().ResetRequests(DemoEmail); n != 1 {
		t.Errorf("ResetRequests = %d, want 1", n)
	}

	status, _ = call(t, ts, http.MethodPost, "/forgot-password", "", map[string]string{"email": "nobody@dayon.test"})
	if status != http.StatusUnprocessableEntity {
		t.Errorf("unknown email status = %d, want 422", status)
	}
}

func TestProfileUpdateAndPassword(t *testing.T) {
	_, ts := newTestServer(t)
	token := login(t, ts)

	status, body := call(t, ts, http.MethodPut, "/profile", token, map[string]string{"name": "Renamed", "email": "renamed@dayon.test"})
	if status != http.StatusOK {
		t.Fatalf("update status = %d (%v)", status, body)
	}
	user, _ := body["user"].(map[string]any)
	if user["name"] != "Renamed" {
		t.Errorf("name = %v", user["name"])
	}

	wrong := map[string]string{"current_password": "nope", "password": "newpass123", "password_confirmation": "newpass123"}
	if status, _ := call(t, ts, http.MethodPut, "/profile/password", token, wrong); status != http.StatusUnprocessableEntity {
		t.Errorf("wrong current password status = %d, want 422", status)
	}

	ok := map[string]string{"current_password": DemoPassword, "password": "newpass123", "password_confirmation": "newpass123"}
	status, body = call(t, ts, http.MethodPut, "/profile/password", token, ok)
	if status != http.StatusOK || body["message"] != "Password updated successfully" {
		t.Fatalf("change status = %d, body = %v", status, body)
	}

	status, _ = call(t, ts, http.MethodPost, "/login", "", domain.Credentials{Email: "renamed@dayon.test", Password: "newpass123"})
	if status != http.StatusOK {
		t.Errorf("login with new password status = %d", status)
	}
}

func TestPublicReads(t *testing.T) {
	_, ts := newTestServer(t)

	status, body := call(t, ts, http.MethodGet, "/properties", "", nil)
	if status != http.StatusOK {
		t.Fatalf("properties status = %d", status)
	}
	props, _ := body["properties"].([]any)
	if len(props) != len(seedProperties) {
		t.Errorf("got %d properties, want %d", len(props), len(seedProperties))
	}

	status, body = call(t, ts, http.MethodGet, "/properties_map/1", "", nil)
	if status != http.StatusOK {
		t.Fatalf("location status = %d", status)
	}
	loc, _ := body["location"].(map[string]any)
	if _, isString := loc["lat"].(string); !isString {
		t.Errorf("lat = %#v, want a string", loc["lat"])
	}

	if status, _ := call(t, ts, http.MethodGet, "/properties_map/99", "", nil); status != http.StatusNotFound {
		t.Errorf("unknown location status = %d, want 404", status)
	}

	status, body = call(t, ts, http.MethodGet, "/properties/1/reviews", "", nil)
	if status != http.StatusOK {
		t.Fatalf("reviews status = %d", status)
	}
	if reviews, _ := body["reviews"].([]any); len(reviews) != 1 {
		t.Errorf("got %d reviews, want 1", len(reviews))
	}
}

func TestReservationLifecycle(t *testing.T) {
	srv, ts := newTestServer(t)
	token := login(t, ts)

	create := domain.NewReservation{PropertyID: "1", Description: "Two weeks", DateReserved: "2026-11-02", Status: domain.ReservationPending}
	status, body := call(t, ts, http.MethodPost, "/reservations", token, create)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d (%v)", status, body)
	}
	res, _ := body["reservation"].(map[string]any)
	if res["status"] != domain.ReservationPending {
		t.Errorf("status = %v", res["status"])
	}

	second := create
	second.Description = "Confirmed stay"
	if status, _ := call(t, ts, http.MethodPost, "/reservations", token, second); status != http.StatusCreated {
		t.Fatalf("second create status = %d", status)
	}
	srv.Store().SetReservationStatus("2", domain.ReservationReserved)

	status, body = call(t, ts, http.MethodGet, "/reservations", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	list, _ := body["reservations"].([]any)
	if len(list) != 2 {
		t.Fatalf("got %d reservations, want 2", len(list))
	}
	first, _ := list[0].(map[string]any)
	if prop, _ := first["property"].(map[string]any); prop["name"] == nil {
		t.Errorf("reservation has no embedded property: %v", first)
	}

	if status, _ := call(t, ts, http.MethodDelete, "/reservations/2", token, nil); status != http.StatusConflict {
		t.Errorf("cancel confirmed status = %d, want 409", status)
	}
	if status, _ := call(t, ts, http.MethodDelete, "/reservations/1", token, nil); status != http.StatusOK {
		t.Errorf("cancel pending status = %d, want 200", status)
	}
	if status, _ := call(t, ts, http.MethodDelete, "/reservations/1", token, nil); status != http.StatusNotFound {
		t.Errorf("cancel twice status = %d, want 404", status)
	}

	bad := domain.NewReservation{PropertyID: "99", Description: "x", DateReserved: "2026-11-02"}
	if status, _ := call(t, ts, http.MethodPost, "/reservations", token, bad); status != http.StatusUnprocessableEntity {
		t.Errorf("unknown property status = %d, want 422", status)
	}
}

func TestCreateReview(t *testing.T) {
	_, ts := newTestServer(t)
	token := login(t, ts)

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{"string rating", domain.NewReview{Rating: 4, Comment: "Nice"}, http.StatusCreated},
		{"numeric rating", map[string]any{"rating": 3, "comment": "ok"}, http.StatusCreated},
		{"out of range", map[string]any{"rating": "6"}, http.StatusUnprocessableEntity},
		{"not a number", map[string]any{"rating": "great"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, body := call(t, ts, http.MethodPost, "/properties/2/reviews", token, tt.body); status != tt.wantStatus {
				t.Errorf("status = %d, want %d (%v)", status, tt.wantStatus, body)
			}
		})
	}

	_, body := call(t, ts, http.MethodGet, "/properties/2/reviews", "", nil)
	reviews, _ := body["reviews"].([]any)
	if len(reviews) != 2 {
		t.Fatalf("got %d reviews, want 2", len(reviews))
	}
	r0, _ := reviews[0].(map[string]any)
	if r0["rating"] != "4" {
		t.Errorf("rating = %#v, want \"4\"", r0["rating"])
	}
	if u, _ := r0["user"].(map[string]any); u["name"] != DemoName {
		t.Errorf("review user = %v", r0["user"])
	}

	if status, _ := call(t, ts, http.MethodPost, "/properties/99/reviews", token, domain.NewReview{Rating: 5}); status != http.StatusNotFound {
		t.Errorf("unknown property status = %d, want 404", status)
	}
}

func TestRateLimit(t *testing.T) {
	srv, ts := newTestServer(t, func(c *Config) {
		c.RateLimit = 1
		c.Burst = 2
	})

	var limited int
	for i := 0; i < 5; i++ {
		status, _ := call(t, ts, http.MethodGet, "/health", "", nil)
		if status == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited == 0 {
		t.Error("expected at least one 429")
	}

	families, err := srv.Metrics().Gatherer().Gather()
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, f := range families {
		if f.GetName() == "dayon_mockapi_rate_limited_total" {
			found = f.GetMetric()[0].GetCounter().GetValue() >= 1
		}
	}
	if !found {
		t.Error("rate_limited_total was not incremented")
	}
}

func TestMetricsAndRequestID(t *testing.T) {
	_, ts := newTestServer(t)
	call(t, ts, http.MethodGet, "/properties", "", nil)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/metrics", nil)
	req.Header.Set("X-Request-ID", "req-fixed")
	req.Header.Set("X-Trace-ID", "trace-fixed")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)

	if got := resp.Header.Get("X-Request-ID"); got != "req-fixed" {
		t.Errorf("X-Request-ID = %q, want req-fixed", got)
	}
	if got := resp.Header.Get("X-Trace-ID"); got != "trace-fixed" {
		t.Errorf("X-Trace-ID = %q, want trace-fixed", got)
	}
	if !strings.Contains(string(data), `route="/api/properties"`) {
		t.Errorf("metrics missing /api/properties route:\n%s", data)
	}
	if !strings.Contains(string(data), "go_goroutines") {
		t.Error("metrics missing Go runtime collector")
	}
}

func TestCORSAndNotFound(t *testing.T) {
	_, ts := newTestServer(t, func(c *Config) {
		c.AllowedOrigins = []string{"http://localhost:5173"}
	})

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/properties", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}

	if status, body := call(t, ts, http.MethodGet, "/nope", "", nil); status != http.StatusNotFound || body["message"] != "Not Found" {
		t.Errorf("unknown route = %d %v", status, body)
	}
	if status, _ := call(t, ts, http.MethodPut, "/properties", "", nil); status != http.StatusMethodNotAllowed {
		t.Errorf("wrong method status = %d, want 405", status)
	}
}
