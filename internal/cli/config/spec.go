package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dayon-app/dayon-go/internal/client/gateway"
	"github.com/dayon-app/dayon-go/internal/client/session"
	"github.com/dayon-app/dayon-go/internal/client/tokenstore"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// CLIConfig is the configuration for dayon-cli.
type CLIConfig struct {
	Server     ServerConfig      `yaml:"server" koanf:"server"`
	Output     string            `yaml:"output" koanf:"output"` // table, json, yaml
	TokenStore tokenstore.Config `yaml:"token_store" koanf:"token_store"`
	Session    SessionConfig     `yaml:"session" koanf:"session"`
	Log        LogConfig         `yaml:"log" koanf:"log"`

	// InstallationID identifies this installation; it suffixes the device
	// name sent at login. Generated on first save.
	InstallationID string `yaml:"installation_id,omitempty" koanf:"installation_id"`
}

// ServerConfig describes how to reach the backend.
type ServerConfig struct {
	BaseURL            string  `yaml:"base_url" koanf:"base_url"`
	Timeout            string  `yaml:"timeout" koanf:"timeout"`
	CAFile             string  `yaml:"ca_file,omitempty" koanf:"ca_file"`
	InsecureSkipVerify bool    `yaml:"insecure_skip_verify,omitempty" koanf:"insecure_skip_verify"`
	RateLimit          float64 `yaml:"rate_limit,omitempty" koanf:"rate_limit"`
	Burst              int     `yaml:"burst,omitempty" koanf:"burst"`
}

// SessionConfig tunes the session manager.
type SessionConfig struct {
	DeviceName     string `yaml:"device_name,omitempty" koanf:"device_name"`
	RestoreTimeout string `yaml:"restore_timeout" koanf:"restore_timeout"`
	LogoutTimeout  string `yaml:"logout_timeout" koanf:"logout_timeout"`
}

// LogConfig configures diagnostics written to stderr or a file.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
	File   string `yaml:"file,omitempty" koanf:"file"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	dir := DefaultDir()
	return &CLIConfig{
		Server: ServerConfig{
			BaseURL: gateway.DefaultBaseURL,
			Timeout: "30s",
		},
		Output: OutputTable,
		TokenStore: tokenstore.Config{
			Driver:    tokenstore.DriverFile,
			Path:      filepath.Join(dir, "token"),
			BadgerDir: filepath.Join(dir, "badger"),
			Cipher:    tokenstore.CipherAuto,
		},
		Session: SessionConfig{
			RestoreTimeout: "10s",
			LogoutTimeout:  "5s",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Validate checks the configuration.
func (c *CLIConfig) Validate() error {
	switch c.Output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("output: unknown format %q (want table, json or yaml)", c.Output)
	}
	for name, v := range map[string]string{
		"server.timeout":          c.Server.Timeout,
		"session.restore_timeout": c.Session.RestoreTimeout,
		"session.logout_timeout":  c.Session.LogoutTimeout,
	} {
		if _, err := parseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.Server.RateLimit < 0 || c.Server.Burst < 0 {
		return fmt.Errorf("server.rate_limit and server.burst must not be negative")
	}
	if err := c.TokenStore.Validate(); err != nil {
		return fmt.Errorf("token_store: %w", err)
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

func mustDuration(s string) time.Duration {
	d, _ := parseDuration(s)
	return d
}

// GatewayConfig returns the gateway settings.
func (c *CLIConfig) GatewayConfig(userAgent string) gateway.Config {
	return gateway.Config{
		BaseURL:   c.Server.BaseURL,
		Timeout:   mustDuration(c.Server.Timeout),
		UserAgent: userAgent,
		RateLimit: c.Server.RateLimit,
		Burst:     c.Server.Burst,
	}
}

// SessionManagerConfig returns the session manager settings.
func (c *CLIConfig) SessionManagerConfig() session.Config {
	return session.Config{
		DeviceName:    c.DeviceName(),
		LogoutTimeout: mustDuration(c.Session.LogoutTimeout),
	}
}

// RestoreTimeout bounds the restore performed at start-up.
func (c *CLIConfig) RestoreTimeout() time.Duration {
	if d := mustDuration(c.Session.RestoreTimeout); d > 0 {
		return d
	}
	return 10 * time.Second
}

// DeviceName is the configured device name, or one derived from the
// installation id.
func (c *CLIConfig) DeviceName() string {
	if c.Session.DeviceName != "" {
		return c.Session.DeviceName
	}
	if len(c.InstallationID) >= 8 {
		return session.DefaultDeviceName + "-" + c.InstallationID[:8]
	}
	return session.DefaultDeviceName
}

// EnsureInstallationID assigns an installation id if there is none and
// reports whether one was generated.
func (c *CLIConfig) EnsureInstallationID() bool {
	if c.InstallationID != "" {
		return false
	}
	c.InstallationID = uuid.NewString()
	return true
}
