package tokenstore

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const backendFile = "file"

// FileOptions configures a FileStore.
type FileOptions struct {
	// Path is the sealed token file.
	Path string
	// KeyFile holds the random master key. It is created with 0600
	// permissions on first use. Ignored when Passphrase is set.
	KeyFile string
	// Passphrase derives the key with Argon2id instead of a key file.
	Passphrase []byte
	// Cipher is auto, aes-gcm or chacha20-poly1305.
	Cipher string
}

// FileStore keeps the token in a single sealed file.
type FileStore struct {
	path   string
	mu     sync.Mutex
	sealer *sealer
}

// NewFileStore creates a FileStore. With neither a key file nor a
// passphrase configured, the key file defaults to Path + ".key".
func NewFileStore(opts FileOptions) (*FileStore, error) {
	if opts.Path == "" {
		return nil, storageErr("open", backendFile, errors.New("path is required"))
	}

	var source keySource
	if len(opts.Passphrase) > 0 {
		if len(opts.Passphrase) < MinPassphraseLength {
			return nil, storageErr("open", backendFile, ErrPassphraseTooWeak)
		}
		source = passphrase(opts.Passphrase)
	} else {
		keyFile := opts.KeyFile
		if keyFile == "" {
			keyFile = opts.Path + ".key"
		}
		key, err := loadOrCreateKey(keyFile)
		if err != nil {
			return nil, storageErr("open", backendFile, err)
		}
		source = masterKey(key)
	}

	s, err := newSealer(opts.Cipher, source)
	if err != nil {
		return nil, storageErr("open", backendFile, err)
	}
	return &FileStore{path: opts.Path, sealer: s}, nil
}

// Path returns the token file location.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Save(ctx context.Context, token string) error {
	if err := checkToken(token); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.sealer.seal([]byte(token))
	if err != nil {
		return storageErr("save", backendFile, err)
	}
	return storageErr("save", backendFile, writeFileAtomic(f.path, data, 0o600))
}

func (f *FileStore) Load(ctx context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr("load", backendFile, err)
	}
	plaintext, err := f.sealer.open(data)
	if err != nil {
		return "", false, storageErr("load", backendFile, err)
	}
	return string(plaintext), len(plaintext) > 0, nil
}

func (f *FileStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return storageErr("clear", backendFile, err)
}

// writeFileAtomic replaces path with data so readers see the old or the new
// content, never a mix.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// loadOrCreateKey reads the master key, generating it on first use.
func loadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) < MinKeyLength {
			return nil, fmt.Errorf("key file %s: %w", path, ErrKeyTooShort)
		}
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	key = make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	if err := writeFileAtomic(path, key, 0o600); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}
	return key, nil
}
