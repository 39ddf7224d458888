package gateway

import (
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/dayon-app/dayon-go/internal/client/tokenstore"
	"github.com/dayon-app/dayon-go/internal/telemetry/logger"
	"github.com/dayon-app/dayon-go/internal/telemetry/metric"
)

// Correlation headers.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// Doer sends one HTTP request.
type Doer func(*http.Request) (*http.Response, error)

// Middleware wraps a Doer with additional behaviour.
type Middleware func(next Doer) Doer

// Chain chains middlewares around d. The first middleware is outermost.
func Chain(d Doer, middlewares ...Middleware) Doer {
	for i := len(middlewares) - 1; i >= 0; i-- {
		d = middlewares[i](d)
	}
	return d
}

// RequestID tags each request with a ULID in the X-Request-ID header and
// in the logger context. A trace ID carried by the context is sent as
// X-Trace-ID so the server can group the requests of one command.
func RequestID() Middleware {
	return func(next Doer) Doer {
		return func(r *http.Request) (*http.Response, error) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = ulid.Make().String()
				r.Header.Set(HeaderRequestID, id)
			}
			if tid := logger.TraceIDFromContext(r.Context()); tid != "" && r.Header.Get(HeaderTraceID) == "" {
				r.Header.Set(HeaderTraceID, tid)
			}
			ctx := logger.WithRequestID(r.Context(), id)
			return next(r.WithContext(ctx))
		}
	}
}

// Logging logs each request with its outcome and latency.
func Logging(l logger.Logger) Middleware {
	return func(next Doer) Doer {
		return func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next(r)

			log := l.WithContext(r.Context())
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			switch {
			case err != nil:
				log.Warn("api request failed", append(attrs, "error", err)...)
			case resp.StatusCode >= 500:
				log.Warn("api request completed with server error", append(attrs, "status", resp.StatusCode)...)
			default:
				log.Debug("api request completed", append(attrs, "status", resp.StatusCode)...)
			}
			return resp, err
		}
	}
}

// Metrics records request counts and latency by route template.
func Metrics(m *metric.Registry) Middleware {
	return func(next Doer) Doer {
		if m == nil {
			return next
		}
		return func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			m.InFlight(1)
			resp, err := next(r)
			m.InFlight(-1)

			status := 0
			if err == nil {
				status = resp.StatusCode
			}
			m.ObserveRequest(r.Method, RouteFromContext(r.Context()), status, time.Since(start))
			return resp, err
		}
	}
}

// RateLimit delays requests beyond the limiter's rate. A nil limiter
// disables it. Waiting honours the request context.
func RateLimit(limiter *rate.Limiter, m *metric.Registry) Middleware {
	return func(next Doer) Doer {
		if limiter == nil {
			return next
		}
		return func(r *http.Request) (*http.Response, error) {
			if !limiter.Allow() {
				m.RateLimited()
				if err := limiter.Wait(r.Context()); err != nil {
					return nil, err
				}
			}
			return next(r)
		}
	}
}

// DefaultHeaders sets Accept and User-Agent.
func DefaultHeaders(userAgent string) Middleware {
	return func(next Doer) Doer {
		return func(r *http.Request) (*http.Response, error) {
			r.Header.Set("Accept", "application/json")
			if userAgent != "" {
				r.Header.Set("User-Agent", userAgent)
			}
			return next(r)
		}
	}
}

// AttachToken sets the bearer header from the token read at dispatch
// time. Any Authorization header already on the request is dropped. A read
// error aborts the request.
func AttachToken(tokens tokenstore.Reader) Middleware {
	return func(next Doer) Doer {
		return func(r *http.Request) (*http.Response, error) {
			token, found, err := tokens.Load(r.Context())
			if err != nil {
				return nil, err
			}
			r.Header.Del("Authorization")
			if found {
				r.Header.Set("Authorization", "Bearer "+token)
			}
			return next(r)
		}
	}
}
