// Package session owns the authentication lifecycle of the client.
//
// A Manager starts in Restoring. Restore moves it to Authenticated or
// Unauthenticated and it never returns to Restoring:
//
//	Restoring --restore--> Authenticated | Unauthenticated
//	Unauthenticated --login/register--> Authenticated
//	Authenticated --logout--> Unauthenticated
//
// The Manager is the only writer of the token store. Auth flows are
// serialised; Current returns an immutable snapshot without locking.
package session
