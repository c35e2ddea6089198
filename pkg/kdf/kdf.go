package kdf

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

const (
	SaltSize = 16
	KeySize  = 32

	DefaultPBKDF2Iterations          = 100_000
	DefaultScryptCost                = 1 << 15
	DefaultScryptRelBlockSize        = 8
	DefaultScryptCPUCost             = 1
	DefaultArgon2Time         uint32 = 3
	DefaultArgon2Memory       uint32 = 64 * 1024
	DefaultArgon2Threads      uint8  = 4
)

var (
	ErrEmptyPassword     = errors.New("cannot derive a key from an empty password")
	ErrInvalidSaltLength = errors.New("invalid salt length")
	ErrInvalidKey        = errors.New("invalid key")
)

var encoding = base64.URLEncoding

// Key is 32 bytes of key material.
type Key []byte

// Encode returns the url-safe base64 form of the Key, which is what the token cipher accepts as input.
func (k Key) Encode() []byte {
	buf := make([]byte, encoding.EncodedLen(len(k)))
	encoding.Encode(buf, k)
	return buf
}

func (k Key) String() string {
	return string(k.Encode())
}

// DecodeKey reverses Key.Encode, and requires exactly KeySize bytes of decoded key material.
func DecodeKey(encoded []byte) (Key, error) {
	buf := make([]byte, encoding.DecodedLen(len(encoded)))
	n, err := encoding.Decode(buf, encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if n != KeySize {
		return nil, fmt.Errorf("%w: expected %d decoded bytes, got %d", ErrInvalidKey, KeySize, n)
	}
	return Key(buf[:n]), nil
}

// Salt is public random input to key derivation.
type Salt []byte

// GenerateSalt reads SaltSize bytes from the OS entropy pool.
func GenerateSalt() (Salt, error) {
	salt := make(Salt, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to read random salt: %w", err)
	}
	return salt, nil
}

// GenerateKey creates a random Key that is not derived from a password.
func GenerateKey() (Key, error) {
	key := make(Key, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to read random key: %w", err)
	}
	return key, nil
}

type Algorithm uint8

const (
	PBKDF2 Algorithm = iota
	Scrypt
	Argon2id
)

func (a Algorithm) String() string {
	switch a {
	case PBKDF2:
		return "pbkdf2-sha256"
	case Scrypt:
		return "scrypt"
	case Argon2id:
		return "argon2id"
	default:
		return "unknown"
	}
}

// Deriver turns a password and Salt into a Key.
// A Deriver is immutable once constructed and may be shared between goroutines.
type Deriver struct {
	algorithm Algorithm

	iterations int

	scryptCost         int
	scryptRelBlockSize int
	scryptCPUCost      int

	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8
}

type DeriverOpt = func(*Deriver) error

// UsePBKDF2 selects PBKDF2 with HMAC-SHA256 and the given iteration count.
// This is the default, using DefaultPBKDF2Iterations.
func UsePBKDF2(iterations int) DeriverOpt {
	return func(d *Deriver) error {
		if iterations < 1 {
			return errors.New("pbkdf2 iterations must be at least 1")
		}
		d.algorithm = PBKDF2
		d.iterations = iterations
		return nil
	}
}

// UseScrypt selects scrypt with the given CPU/memory cost, relative block size, and parallelism.
// Only use this option if you know what you're doing.
func UseScrypt(cost, relBlockSize, cpuCost int) DeriverOpt {
	return func(d *Deriver) error {
		if cost <= 1 || cost&(cost-1) != 0 {
			return errors.New("scrypt cost must be a power of 2 greater than 1")
		}
		if relBlockSize < 1 {
			return errors.New("scrypt relative block size must be at least 1")
		}
		if cpuCost < 1 {
			return errors.New("scrypt cpu cost must be at least 1")
		}
		d.algorithm = Scrypt
		d.scryptCost = cost
		d.scryptRelBlockSize = relBlockSize
		d.scryptCPUCost = cpuCost
		return nil
	}
}

// UseDefaultScrypt selects scrypt with interactive-login tuning.
func UseDefaultScrypt() DeriverOpt {
	return UseScrypt(DefaultScryptCost, DefaultScryptRelBlockSize, DefaultScryptCPUCost)
}

// UseArgon2id selects Argon2id with the given time cost, memory in KiB, and thread count.
func UseArgon2id(time, memory uint32, threads uint8) DeriverOpt {
	return func(d *Deriver) error {
		if time < 1 {
			return errors.New("argon2id time cost must be at least 1")
		}
		if memory < 8*uint32(threads) {
			return errors.New("argon2id memory must be at least 8KiB per thread")
		}
		if threads < 1 {
			return errors.New("argon2id threads must be at least 1")
		}
		d.algorithm = Argon2id
		d.argonTime = time
		d.argonMemory = memory
		d.argonThreads = threads
		return nil
	}
}

// UseDefaultArgon2id selects Argon2id with 3 passes over 64MiB using 4 threads.
func UseDefaultArgon2id() DeriverOpt {
	return UseArgon2id(DefaultArgon2Time, DefaultArgon2Memory, DefaultArgon2Threads)
}

var defaultDeriver = &Deriver{
	algorithm:  PBKDF2,
	iterations: DefaultPBKDF2Iterations,
}

// Default returns the reference Deriver: PBKDF2-SHA256 with DefaultPBKDF2Iterations.
// Keys derived with it are portable to other implementations of the same scheme.
func Default() *Deriver {
	return defaultDeriver
}

// NewDeriver creates a Deriver from the reference configuration, modified by zero or more DeriverOpt.
func NewDeriver(opts ...DeriverOpt) (*Deriver, error) {
	d := *defaultDeriver
	for _, opt := range opts {
		if err := opt(&d); err != nil {
			return nil, err
		}
	}
	return &d, nil
}

func (d *Deriver) Algorithm() Algorithm {
	return d.algorithm
}

// DeriveKey derives a KeySize Key from the password and Salt.
// The same inputs always produce the same Key. Malformed input is rejected rather than padded or truncated.
func (d *Deriver) DeriveKey(password []byte, salt Salt) (Key, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSaltLength, SaltSize, len(salt))
	}
	return d.derive(password, salt)
}

func (d *Deriver) derive(password, salt []byte) (Key, error) {
	switch d.algorithm {
	case PBKDF2:
		return pbkdf2.Key(password, salt, d.iterations, KeySize, sha256.New), nil
	case Scrypt:
		key, err := scrypt.Key(password, salt, d.scryptCost, d.scryptRelBlockSize, d.scryptCPUCost, KeySize)
		if err != nil {
			return nil, fmt.Errorf("scrypt derivation failed: %w", err)
		}
		return key, nil
	case Argon2id:
		return argon2.IDKey(password, salt, d.argonTime, d.argonMemory, d.argonThreads, KeySize), nil
	default:
		return nil, fmt.Errorf("unsupported key derivation algorithm %d", d.algorithm)
	}
}

// DeriveKey derives a Key with the Default Deriver.
func DeriveKey(password []byte, salt Salt) (Key, error) {
	return defaultDeriver.DeriveKey(password, salt)
}
