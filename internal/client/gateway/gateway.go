package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dayon-app/dayon-go/internal/client/tokenstore"
	"github.com/dayon-app/dayon-go/internal/core/domain"
	"github.com/dayon-app/dayon-go/internal/telemetry/logger"
	"github.com/dayon-app/dayon-go/internal/telemetry/metric"
)

// Defaults.
const (
	DefaultBaseURL = "http://localhost:8000/api"
	DefaultTimeout = 30 * time.Second

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 10 << 20
)

// Config is fixed at construction.
type Config struct {
	// BaseURL is the API root. Schemeless values get http://.
	BaseURL string
	// Timeout bounds each request including reading the body.
	Timeout time.Duration
	// UserAgent is sent on every request.
	UserAgent string
	// RateLimit is the sustained requests per second. 0 disables limiting.
	RateLimit float64
	// Burst is the limiter bucket size. Defaults to 1 when limiting.
	Burst int
}

// Gateway sends API requests.
type Gateway struct {
	cfg     Config
	baseURL string
	client  *http.Client
	tokens  tokenstore.Reader
	logger  logger.Logger
	metrics *metric.Registry
	limiter *rate.Limiter
	extra   []Middleware

	send Doer
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the HTTP client. Its Timeout is left as is.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

// WithLogger sets the logger used for request logging.
func WithLogger(l logger.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithMetrics records request metrics in m.
func WithMetrics(m *metric.Registry) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithMiddleware adds middleware that runs after the default headers are
// set and before the token is attached.
func WithMiddleware(mw ...Middleware) Option {
	return func(g *Gateway) { g.extra = append(g.extra, mw...) }
}

// New creates a Gateway reading the token from tokens on every request.
func New(cfg Config, tokens tokenstore.Reader, opts ...Option) (*Gateway, error) {
	if tokens == nil {
		return nil, domain.ErrMissingArgument.WithDetails("token reader")
	}

	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	g := &Gateway{
		cfg:     cfg,
		baseURL: baseURL,
		tokens:  tokens,
		logger:  logger.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.client == nil {
		g.client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	g.build()
	return g, nil
}

func normalizeBaseURL(raw string) (string, error) {
	if raw == "" {
		raw = DefaultBaseURL
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("base url %q", raw))
	}
	return strings.TrimRight(u.String(), "/"), nil
}

func (g *Gateway) build() {
	mws := []Middleware{
		RequestID(),
		Logging(g.logger),
		Metrics(g.metrics),
		RateLimit(g.limiter, g.metrics),
		DefaultHeaders(g.cfg.UserAgent),
	}
	mws = append(mws, g.extra...)
	mws = append(mws, AttachToken(g.tokens))
	g.send = Chain(g.client.Do, mws...)
}

// BaseURL returns the normalized API root.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// WithTokenSource returns a copy of the gateway that reads the token from
// r. The copy shares the transport, limiter and middleware.
func (g *Gateway) WithTokenSource(r tokenstore.Reader) *Gateway {
	cp := *g
	cp.tokens = r
	cp.build()
	return &cp
}

// Send runs req through the middleware chain. Non-2xx responses are
// returned as *domain.HTTPError, transport failures as
// *domain.NetworkError and token store failures as *domain.StorageError.
func (g *Gateway) Send(ctx context.Context, req *Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	hreq, err := g.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	hresp, err := g.send(hreq)
	if err != nil {
		var se *domain.StorageError
		if errors.As(err, &se) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return nil, &domain.NetworkError{Method: req.Method, Path: req.Path, Err: err}
	}
	defer hresp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(hresp.Body, maxBodySize))
	if err != nil {
		return nil, &domain.NetworkError{Method: req.Method, Path: req.Path, Err: fmt.Errorf("read body: %w", err)}
	}

	resp := &Response{Status: hresp.StatusCode, Header: hresp.Header, Body: body}
	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		return resp, parseHTTPError(req.Method, req.Path, hresp.StatusCode, body)
	}
	return resp, nil
}

func (g *Gateway) newHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	target := g.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	route := req.Route
	if route == "" {
		route = req.Path
	}
	ctx = withRoute(ctx, route)

	hreq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	if req.Body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	return hreq, nil
}

// Do sends a request with a JSON body and decodes a 2xx JSON response into
// out. A nil out discards the body.
func (g *Gateway) Do(ctx context.Context, req *Request, out any) error {
	resp, err := g.Send(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(req.Path, out)
}

// Get performs a GET request.
func (g *Gateway) Get(ctx context.Context, path string, out any) error {
	return g.Do(ctx, &Request{Method: http.MethodGet, Path: path}, out)
}

// Post performs a POST request with a JSON body.
func (g *Gateway) Post(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put performs a PUT request with a JSON body.
func (g *Gateway) Put(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Delete performs a DELETE request.
func (g *Gateway) Delete(ctx context.Context, path string, out any) error {
	return g.Do(ctx, &Request{Method: http.MethodDelete, Path: path}, out)
}
