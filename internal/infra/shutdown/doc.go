// Package shutdown runs cleanup hooks when the process is asked to stop.
//
// The mock backend drains its HTTP server through a Handler; the CLI uses
// one to flush pending logout notifications, metrics and the token store
// before exiting.
package shutdown
