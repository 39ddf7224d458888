// Package buildinfo provides build-time version information.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/dayon-app/dayon-go/internal/infra/buildinfo.Version=v1.0.0"
//
// The same values label every outgoing request through UserAgent.
package buildinfo
