// Package api provides typed clients for the marketplace endpoints.
//
// Every call goes through a gateway.Gateway, so credentials, request IDs,
// rate limiting and metrics apply uniformly. Forms are validated locally
// first and reported as *domain.ValidationError, the same type a server 422
// becomes, so callers render both the same way.
package api
