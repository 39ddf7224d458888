package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/dayon-app/dayon-go/internal/telemetry/logger"
)

const backendBadger = "badger"

// BadgerOptions configures a BadgerStore.
type BadgerOptions struct {
	// Dir is the database directory.
	Dir string
	// InMemory keeps the database off disk (tests only).
	InMemory bool
	Logger   logger.Logger
}

// BadgerStore keeps the token under TokenKey in an embedded Badger DB.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) the database. Writes are synced so a
// saved token survives a crash.
func NewBadgerStore(opts BadgerOptions) (*BadgerStore, error) {
	if opts.Dir == "" && !opts.InMemory {
		return nil, storageErr("open", backendBadger, errors.New("dir is required"))
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}

	bopts := badger.DefaultOptions(opts.Dir).
		WithInMemory(opts.InMemory).
		WithSyncWrites(true).
		WithLogger(&badgerLogger{logger: log.With("component", "badger")}).
		WithLoggingLevel(badger.WARNING).
		WithMemTableSize(4 << 20).
		WithValueThreshold(1 << 10).
		WithValueLogFileSize(1 << 20).
		WithBlockCacheSize(1 << 20).
		WithIndexCacheSize(1 << 20).
		WithNumVersionsToKeep(1)
	if opts.InMemory {
		bopts.Dir, bopts.ValueDir = "", ""
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, storageErr("open", backendBadger, err)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Save(ctx context.Context, token string) error {
	if err := checkToken(token); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(TokenKey), []byte(token))
	})
	return storageErr("save", backendBadger, err)
}

func (b *BadgerStore) Load(ctx context.Context) (string, bool, error) {
	var token []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(TokenKey))
		if err != nil {
			return err
		}
		token, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr("load", backendBadger, err)
	}
	return string(token), len(token) > 0, nil
}

func (b *BadgerStore) Clear(ctx context.Context) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(TokenKey))
	})
	return storageErr("clear", backendBadger, err)
}

// Close closes the database.
func (b *BadgerStore) Close() error {
	if err := b.db.Close(); err != nil {
		return storageErr("close", backendBadger, err)
	}
	return nil
}

// badgerLogger adapts Logger to Badger's Logger interface.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
