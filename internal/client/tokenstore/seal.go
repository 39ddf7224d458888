package tokenstore

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Cipher names accepted by FileOptions.Cipher.
const (
	CipherAuto     = "auto"
	CipherAESGCM   = "aes-gcm"
	CipherChaCha20 = "chacha20-poly1305"
)

// Sealing errors.
var (
	ErrKeyTooShort       = errors.New("tokenstore: key too short (minimum 16 bytes)")
	ErrPassphraseTooWeak = errors.New("tokenstore: passphrase too weak (minimum 8 characters)")
	ErrSealBroken        = errors.New("tokenstore: token file cannot be opened: wrong key or corrupted data")
)

const (
	// MinKeyLength is the minimum master key length.
	MinKeyLength = 16

	// MinPassphraseLength is the minimum passphrase length.
	MinPassphraseLength = 8

	saltLength = 16
	keyLength  = 32
	hkdfInfo   = "dayon tokenstore v1"
)

// Argon2id cost parameters for passphrase-derived keys.
var (
	argon2Time    uint32 = 3
	argon2Memory  uint32 = 64 * 1024
	argon2Threads uint8  = 4
)

// Sealed file layout:
//
//	magic[4] version[1] cipher[1] kdf[1] salt[16] nonce ciphertext
//
// The header up to and including the salt is authenticated as additional
// data.
var sealMagic = [4]byte{'D', 'Y', 'T', 'K'}

const (
	sealVersion = 1
	headerLen   = 4 + 1 + 1 + 1 + saltLength
)

const (
	cipherIDAESGCM   byte = 1
	cipherIDChaCha20 byte = 2
)

const (
	kdfKeyFile    byte = 1
	kdfPassphrase byte = 2
)

// keySource derives the AEAD key for a salt.
type keySource interface {
	kdf() byte
	derive(salt []byte) ([]byte, error)
}

// masterKey expands a random master key with HKDF.
type masterKey []byte

func (m masterKey) kdf() byte { return kdfKeyFile }

func (m masterKey) derive(salt []byte) ([]byte, error) {
	if len(m) < MinKeyLength {
		return nil, ErrKeyTooShort
	}
	reader := hkdf.New(sha256.New, m, salt, []byte(hkdfInfo))
	key := make([]byte, keyLength)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// passphrase stretches a user passphrase with Argon2id.
type passphrase []byte

func (p passphrase) kdf() byte { return kdfPassphrase }

func (p passphrase) derive(salt []byte) ([]byte, error) {
	if len(p) < MinPassphraseLength {
		return nil, ErrPassphraseTooWeak
	}
	return argon2.IDKey(p, salt, argon2Time, argon2Memory, argon2Threads, keyLength), nil
}

// sealer encrypts and decrypts token files. It caches the key for the most
// recent salt so passphrase stretching runs once per process.
type sealer struct {
	cipherID byte
	source   keySource

	salt []byte
	key  []byte
}

func newSealer(cipherName string, source keySource) (*sealer, error) {
	id, err := cipherID(cipherName)
	if err != nil {
		return nil, err
	}
	return &sealer{cipherID: id, source: source}, nil
}

func cipherID(name string) (byte, error) {
	switch name {
	case "", CipherAuto:
		if hasAESAcceleration() {
			return cipherIDAESGCM, nil
		}
		return cipherIDChaCha20, nil
	case CipherAESGCM:
		return cipherIDAESGCM, nil
	case CipherChaCha20:
		return cipherIDChaCha20, nil
	default:
		return 0, fmt.Errorf("tokenstore: unsupported cipher: %s", name)
	}
}

// hasAESAcceleration reports whether crypto/aes runs in hardware here.
func hasAESAcceleration() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64", "s390x", "ppc64le":
		return true
	default:
		return false
	}
}

func newAEAD(id byte, key []byte) (cipher.AEAD, error) {
	switch id {
	case cipherIDAESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case cipherIDChaCha20:
		return chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("unknown cipher id %d", id)
	}
}

func (s *sealer) keyFor(salt []byte) ([]byte, error) {
	if s.key != nil && bytes.Equal(s.salt, salt) {
		return s.key, nil
	}
	key, err := s.source.derive(salt)
	if err != nil {
		return nil, err
	}
	s.salt = append([]byte(nil), salt...)
	s.key = key
	return key, nil
}

// seal encrypts plaintext into the file layout.
func (s *sealer) seal(plaintext []byte) ([]byte, error) {
	salt := s.salt
	if salt == nil {
		salt = make([]byte, saltLength)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("generate salt: %w", err)
		}
	}
	key, err := s.keyFor(salt)
	if err != nil {
		return nil, err
	}
	aead, err := newAEAD(s.cipherID, key)
	if err != nil {
		return nil, err
	}

	header := make([]byte, 0, headerLen)
	header = append(header, sealMagic[:]...)
	header = append(header, sealVersion, s.cipherID, s.source.kdf())
	header = append(header, salt...)

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, len(header)+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, header...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, header), nil
}

// open decrypts a sealed file. The cipher recorded in the file wins over
// the configured one so a changed setting does not strand an old token.
func (s *sealer) open(data []byte) ([]byte, error) {
	if len(data) < headerLen || !bytes.Equal(data[:4], sealMagic[:]) {
		return nil, ErrSealBroken
	}
	if data[4] != sealVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrSealBroken, data[4])
	}
	if data[6] != s.source.kdf() {
		return nil, fmt.Errorf("%w: sealed with a different key source", ErrSealBroken)
	}
	header := data[:headerLen]
	salt := header[7:headerLen]

	key, err := s.keyFor(salt)
	if err != nil {
		return nil, err
	}
	aead, err := newAEAD(data[5], key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSealBroken, err)
	}

	rest := data[headerLen:]
	if len(rest) < aead.NonceSize() {
		return nil, ErrSealBroken
	}
	nonce, ciphertext := rest[:aead.NonceSize()], rest[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, header)
	if err != nil {
		return nil, ErrSealBroken
	}
	return plaintext, nil
}
