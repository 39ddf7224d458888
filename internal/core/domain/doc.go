// Package domain defines the core domain models for the Dayon client.
//
// Domain models are plain values without IO dependencies. This package
// contains:
//
//   - User, Credentials, Registration: account and auth forms
//   - Property, Location, PropertyFilter: listings and client-side filtering
//   - Reservation, Review: booking and rating records
//   - Errors: the error taxonomy shared by the token store, the gateway
//     and the session manager
//
// Backend ids and decimals arrive either as JSON numbers or strings; ID and
// Decimal accept both.
package domain
