package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/dayon-app/dayon-go/internal/core/domain"
)

// Request is one outgoing API call.
type Request struct {
	Method string
	// Path is relative to the base URL, e.g. "/profile".
	Path string
	// Route is the path template used as the metrics label, e.g.
	// "/reservations/{id}". Defaults to Path.
	Route  string
	Query  url.Values
	Body   any
	Header http.Header
}

// Response is a fully read response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the body into out. Empty bodies and a nil out are
// accepted.
func (r *Response) Decode(path string, out any) error {
	if out == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return &domain.DecodeError{Path: path, Err: err}
	}
	return nil
}

// errorBody is the backend's error shape:
//
//	{"message": "...", "errors": {"field": ["msg", ...]}}
type errorBody struct {
	Message string                     `json:"message"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

func parseHTTPError(method, path string, status int, body []byte) *domain.HTTPError {
	he := &domain.HTTPError{Method: method, Path: path, Status: status, Body: body}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return he
	}
	he.Message = eb.Message
	if len(eb.Errors) > 0 {
		he.Fields = make(map[string][]string, len(eb.Errors))
		for field, raw := range eb.Errors {
			he.Fields[field] = fieldMessages(raw)
		}
	}
	return he
}

// fieldMessages accepts either a list of messages or a single message.
func fieldMessages(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}
	}
	return []string{string(raw)}
}

type routeKey struct{}

func withRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

// RouteFromContext returns the route template of the request in flight.
func RouteFromContext(ctx context.Context) string {
	if r, ok := ctx.Value(routeKey{}).(string); ok {
		return r
	}
	return ""
}
