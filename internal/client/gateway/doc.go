// Package gateway is the single outbound HTTP pipeline to the Dayon API.
//
// Every request runs through a fixed middleware chain:
//
//	request-id -> logging -> metrics -> rate-limit -> default headers
//	  -> [extra middleware] -> attach-token -> transport
//
// attach-token reads the token store at dispatch time and sets
// "Authorization: Bearer <token>" when a token is present. It runs last so
// no caller or extra middleware can send its own credentials, and a token
// store failure aborts the request rather than sending it unauthenticated.
package gateway
