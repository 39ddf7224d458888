package mockapi

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dayon-app/dayon-go/internal/telemetry/logger"
)

// Config holds the server configuration.
type Config struct {
	// Addr is the listen address, e.g. "127.0.0.1:8000".
	Addr string
	// Prefix is the path prefix of the API routes. Defaults to "/api".
	Prefix string
	// RateLimit is the allowed requests per second per client IP. Zero
	// disables limiting.
	RateLimit float64
	// Burst is the token bucket size of the limiter.
	Burst int
	// AllowedOrigins lists the CORS origins. Empty allows all.
	AllowedOrigins []string
	// BcryptCost is the password hashing cost. Tests use bcrypt.MinCost.
	BcryptCost int
	// NoSeed starts with an empty store.
	NoSeed bool

	Logger logger.Logger
}

// DefaultConfig returns the configuration used by dayon-mockapi.
func DefaultConfig() Config {
	return Config{
		Addr:      "127.0.0.1:8000",
		Prefix:    "/api",
		RateLimit: 20,
		Burst:     40,
	}
}

// Server is the mock marketplace backend.
type Server struct {
	cfg        Config
	store      *Store
	metrics    *Metrics
	handler    http.Handler
	httpServer *http.Server
}

// New creates a server and seeds its store unless cfg.NoSeed is set.
func New(cfg Config) (*Server, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "/api"
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	store := NewStore(cfg.BcryptCost)
	if !cfg.NoSeed {
		if err := Seed(store); err != nil {
			return nil, err
		}
	}

	s := &Server{
		cfg:     cfg,
		store:   store,
		metrics: NewMetrics(),
	}
	s.handler = Chain(s.routes(),
		Recover(cfg.Logger),
		RequestID(),
		CORS(cfg.AllowedOrigins),
		RateLimit(cfg.RateLimit, cfg.Burst, s.metrics),
	)
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	h := NewHandler(s.store, s.cfg.Logger)
	auth := Auth(s.store)

	r := mux.NewRouter()
	r.Use(mux.MiddlewareFunc(Audit(s.cfg.Logger, s.metrics)))
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix(s.cfg.Prefix).Subrouter()
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	api.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/forgot-password", h.ForgotPassword).Methods(http.MethodPost)
	api.HandleFunc("/properties", h.Properties).Methods(http.MethodGet)
	api.HandleFunc("/properties_map/{id}", h.PropertyLocation).Methods(http.MethodGet)
	api.HandleFunc("/properties/{id}/reviews", h.Reviews).Methods(http.MethodGet)

	api.Handle("/logout", auth(http.HandlerFunc(h.Logout))).Methods(http.MethodPost)
	api.Handle("/profile", auth(http.HandlerFunc(h.Profile))).Methods(http.MethodGet)
	api.Handle("/profile", auth(http.HandlerFunc(h.UpdateProfile))).Methods(http.MethodPut)
	api.Handle("/profile/password", auth(http.HandlerFunc(h.ChangePassword))).Methods(http.MethodPut)
	api.Handle("/reservations", auth(http.HandlerFunc(h.Reservations))).Methods(http.MethodGet)
	api.Handle("/reservations", auth(http.HandlerFunc(h.CreateReservation))).Methods(http.MethodPost)
	api.Handle("/reservations/{id}", auth(http.HandlerFunc(h.CancelReservation))).Methods(http.MethodDelete)
	api.Handle("/properties/{id}/reviews", auth(http.HandlerFunc(h.CreateReview))).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return r
}

// Store returns the backing store, for seeding and inspection.
func (s *Server) Store() *Store {
	return s.store
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the full handler chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.cfg.Logger.Info("mock API listening", "addr", s.cfg.Addr, "prefix", s.cfg.Prefix)
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on l.
func (s *Server) Serve(l net.Listener) error {
	return s.httpServer.Serve(l)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
