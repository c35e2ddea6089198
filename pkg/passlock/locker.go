package passlock

import (
	"errors"
	"fmt"
	"time"

	"github.com/saylorsolutions/pwcrypt/pkg/fernet"
	"github.com/saylorsolutions/pwcrypt/pkg/kdf"
)

const (
	// SaltSize is the length of the salt prefix of a password Container.
	SaltSize                       = kdf.SaltSize
	DefaultMinPasswordLength       = 6
	DefaultMaxPayloadSize    int64 = 16 * 1024 * 1024
)

// Container is an encrypted payload, including any framing needed to reverse the encryption.
type Container []byte

// Plaintext is an unencrypted payload.
type Plaintext []byte

// Locker encrypts payloads with a key derived from a password.
// A Locker holds only configuration, so any number of calls may run concurrently.
type Locker struct {
	deriver       *kdf.Deriver
	minPassLength int
	maxPayload    int64
	ttl           time.Duration
}

type LockerOpt = func(*Locker) error

// WithDeriver sets the key derivation used for new and existing containers.
// Containers can only be decrypted with the same Deriver configuration that encrypted them.
func WithDeriver(d *kdf.Deriver) LockerOpt {
	return func(l *Locker) error {
		if d == nil {
			return errors.New("nil deriver")
		}
		l.deriver = d
		return nil
	}
}

// WithMinPasswordLength sets the minimum password length in bytes required to encrypt.
func WithMinPasswordLength(length int) LockerOpt {
	return func(l *Locker) error {
		if length < 1 {
			return errors.New("minimum password length must be at least 1")
		}
		l.minPassLength = length
		return nil
	}
}

// WithMaxPayloadSize sets the largest plaintext that will be accepted.
// A size of 0 removes the limit.
func WithMaxPayloadSize(size int64) LockerOpt {
	return func(l *Locker) error {
		if size < 0 {
			return errors.New("max payload size cannot be negative")
		}
		l.maxPayload = size
		return nil
	}
}

// WithTTL rejects containers older than ttl on decryption.
func WithTTL(ttl time.Duration) LockerOpt {
	return func(l *Locker) error {
		if ttl < 0 {
			return errors.New("ttl cannot be negative")
		}
		l.ttl = ttl
		return nil
	}
}

var defaultLocker = &Locker{
	deriver:       kdf.Default(),
	minPassLength: DefaultMinPasswordLength,
	maxPayload:    DefaultMaxPayloadSize,
}

// NewLocker creates a Locker with the reference configuration, modified by zero or more LockerOpt.
func NewLocker(opts ...LockerOpt) (*Locker, error) {
	l := *defaultLocker
	for _, opt := range opts {
		if err := opt(&l); err != nil {
			return nil, err
		}
	}
	return &l, nil
}

// Encrypt locks the plaintext with the default Locker.
func Encrypt(plaintext, password []byte) (Container, error) {
	return defaultLocker.Encrypt(plaintext, password)
}

// Decrypt unlocks the container with the default Locker.
func Decrypt(container, password []byte) (Plaintext, error) {
	return defaultLocker.Decrypt(container, password)
}

// Encrypt will derive a key from the password and a fresh random salt, and use it to seal the plaintext.
// The returned Container is the salt followed by the sealed token.
// Exposure of the salt doesn't weaken the key, since the password is also required to arrive at the same key.
func (l *Locker) Encrypt(plaintext, password []byte) (Container, error) {
	if err := l.checkPassword(password, true); err != nil {
		return nil, err
	}
	if err := l.checkPayloadSize(int64(len(plaintext))); err != nil {
		return nil, err
	}
	salt, err := kdf.GenerateSalt()
	if err != nil {
		return nil, err
	}
	c, err := l.cipher(password, salt)
	if err != nil {
		return nil, err
	}
	token, err := c.Encrypt(plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to seal payload: %w", err)
	}
	container := make(Container, 0, len(salt)+len(token))
	container = append(container, salt...)
	return append(container, token...), nil
}

// Decrypt will recover the salt from the Container, derive the key from it and the password, and open the token.
// A wrong password and a damaged Container produce the same AuthenticationError.
func (l *Locker) Decrypt(container, password []byte) (Plaintext, error) {
	if err := l.checkPassword(password, false); err != nil {
		return nil, err
	}
	salt, token, err := SplitContainer(container)
	if err != nil {
		return nil, err
	}
	c, err := l.cipher(password, salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := c.Decrypt(token)
	if err != nil {
		return nil, &AuthenticationError{Err: err}
	}
	return plaintext, nil
}

// SplitContainer separates a password Container into its public salt and sealed token.
func SplitContainer(container []byte) (kdf.Salt, []byte, error) {
	if len(container) < SaltSize {
		return nil, nil, &MalformedContainerError{Size: len(container), Reason: "too short to contain a salt"}
	}
	if len(container) == SaltSize {
		return nil, nil, &MalformedContainerError{Size: len(container), Reason: "missing token after salt"}
	}
	return kdf.Salt(container[:SaltSize]), container[SaltSize:], nil
}

func (l *Locker) cipher(password []byte, salt kdf.Salt) (*fernet.Cipher, error) {
	key, err := l.deriver.DeriveKey(password, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return fernet.NewCipher(key.Encode(), fernet.WithTTL(l.ttl))
}

func (l *Locker) checkPassword(password []byte, enforceMin bool) error {
	if len(password) == 0 {
		return preconditionf("password", "cannot be empty")
	}
	if enforceMin && len(password) < l.minPassLength {
		return preconditionf("password", "must be at least %d bytes, got %d", l.minPassLength, len(password))
	}
	return nil
}

func (l *Locker) checkPayloadSize(size int64) error {
	return checkPayloadSize(l.maxPayload, size)
}

func checkPayloadSize(limit, size int64) error {
	if limit > 0 && size > limit {
		return preconditionf("payload", "%d bytes exceeds the limit of %d bytes", size, limit)
	}
	return nil
}
