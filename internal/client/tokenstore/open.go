package tokenstore

import (
	"context"
	"fmt"
	"io"

	"github.com/dayon-app/dayon-go/internal/telemetry/logger"
	"github.com/dayon-app/dayon-go/internal/telemetry/metric"
)

// Driver names.
const (
	DriverFile   = "file"
	DriverBadger = "badger"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config selects and configures a backend.
type Config struct {
	Driver string `yaml:"driver" koanf:"driver"`

	// file driver
	Path       string `yaml:"path,omitempty" koanf:"path"`
	KeyFile    string `yaml:"key_file,omitempty" koanf:"key_file"`
	Passphrase string `yaml:"-" koanf:"passphrase"`
	Cipher     string `yaml:"cipher,omitempty" koanf:"cipher"`

	// badger driver
	BadgerDir string `yaml:"badger_dir,omitempty" koanf:"badger_dir"`

	// redis driver
	Redis RedisOptions `yaml:"redis,omitempty" koanf:"redis"`
}

// Validate checks that the selected driver has what it needs.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverFile, "":
		if c.Path == "" {
			return fmt.Errorf("token_store.path is required for the file driver")
		}
		if c.Passphrase != "" && len(c.Passphrase) < MinPassphraseLength {
			return ErrPassphraseTooWeak
		}
		if _, err := cipherID(c.Cipher); err != nil {
			return err
		}
	case DriverBadger:
		if c.BadgerDir == "" {
			return fmt.Errorf("token_store.badger_dir is required for the badger driver")
		}
	case DriverRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("token_store.redis.addr is required for the redis driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown token store driver %q", c.Driver)
	}
	return nil
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	logger  logger.Logger
	metrics *metric.Registry
}

// WithLogger sets the logger for store failures and the Badger adapter.
func WithLogger(l logger.Logger) Option {
	return func(o *openOptions) { o.logger = l }
}

// WithMetrics records every operation in the registry.
func WithMetrics(m *metric.Registry) Option {
	return func(o *openOptions) { o.metrics = m }
}

// Open constructs the configured backend. The returned Closer releases it
// and must be called once the store is no longer used.
func Open(ctx context.Context, cfg Config, opts ...Option) (Store, io.Closer, error) {
	o := openOptions{logger: logger.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, storageErr("open", cfg.Driver, err)
	}

	var (
		store  Store
		closer io.Closer = nopCloser{}
		driver = cfg.Driver
	)
	switch driver {
	case DriverFile, "":
		driver = DriverFile
		fs, err := NewFileStore(FileOptions{
			Path:       cfg.Path,
			KeyFile:    cfg.KeyFile,
			Passphrase: []byte(cfg.Passphrase),
			Cipher:     cfg.Cipher,
		})
		if err != nil {
			return nil, nil, err
		}
		store = fs
	case DriverBadger:
		bs, err := NewBadgerStore(BadgerOptions{Dir: cfg.BadgerDir, Logger: o.logger})
		if err != nil {
			return nil, nil, err
		}
		store, closer = bs, bs
	case DriverRedis:
		rs, err := NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		store, closer = rs, rs
	case DriverMemory:
		store = NewMemoryStore()
	}

	o.logger.Debug("token store opened", "driver", driver)
	return Instrument(store, driver, o.logger, o.metrics), closer, nil
}

// Instrument wraps a store so every operation is counted and every failure
// logged. Errors pass through unchanged.
func Instrument(s Store, backend string, log logger.Logger, m *metric.Registry) Store {
	if log == nil {
		log = logger.Default()
	}
	return &instrumented{Store: s, backend: backend, log: log.With("backend", backend), metrics: m}
}

type instrumented struct {
	Store
	backend string
	log     logger.Logger
	metrics *metric.Registry
}

func (s *instrumented) Save(ctx context.Context, token string) error {
	err := s.Store.Save(ctx, token)
	s.record(ctx, "save", err)
	return err
}

func (s *instrumented) Load(ctx context.Context) (string, bool, error) {
	token, found, err := s.Store.Load(ctx)
	s.record(ctx, "load", err)
	return token, found, err
}

func (s *instrumented) Clear(ctx context.Context) error {
	err := s.Store.Clear(ctx)
	s.record(ctx, "clear", err)
	return err
}

func (s *instrumented) record(ctx context.Context, op string, err error) {
	s.metrics.TokenStoreOp(op, s.backend, err)
	if err != nil {
		s.log.WithContext(ctx).Error("token store operation failed", "op", op, "error", err)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
