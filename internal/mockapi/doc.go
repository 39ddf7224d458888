// Package mockapi is an in-memory imitation of the Dayon marketplace API.
//
// It serves the same routes, status codes and JSON shapes the client
// expects: bearer tokens in the "<id>|<secret>" form, 422 bodies with
// per-field "errors", numeric ids and string decimals. The command tests
// and dayon-mockapi run against it.
package mockapi
