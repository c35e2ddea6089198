package passlock

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/saylorsolutions/pwcrypt/pkg/fernet"
	"github.com/saylorsolutions/pwcrypt/pkg/kdf"
)

// LoadOrCreateMasterKey returns the master key held by the KeyStore, creating and storing a random one first if needed.
// When several callers race to create the key, they all return the one key that the KeyStore accepted.
func LoadOrCreateMasterKey(store KeyStore) (kdf.Key, error) {
	key, _, err := EnsureMasterKey(store)
	return key, err
}

// EnsureMasterKey is LoadOrCreateMasterKey, additionally reporting whether this call created the key.
func EnsureMasterKey(store KeyStore) (key kdf.Key, created bool, err error) {
	if store == nil {
		return nil, false, errors.New("nil key store")
	}
	key, err = loadMasterKey(store)
	if err == nil {
		return key, false, nil
	}
	if !errors.Is(err, ErrNoMasterKey) {
		return nil, false, err
	}

	key, err = kdf.GenerateKey()
	if err != nil {
		return nil, false, err
	}
	err = store.Create(key.Encode())
	switch {
	case err == nil:
		return key, true, nil
	case errors.Is(err, ErrMasterKeyExists):
		key, err = loadMasterKey(store)
		return key, false, err
	default:
		return nil, false, fmt.Errorf("failed to store master key: %w", err)
	}
}

func loadMasterKey(store KeyStore) (kdf.Key, error) {
	encoded, err := store.Load()
	if err != nil {
		return nil, err
	}
	key, err := kdf.DecodeKey(encoded)
	if err != nil {
		return nil, fmt.Errorf("stored master key is unusable: %w", err)
	}
	return key, nil
}

// MasterLocker encrypts payloads with a persisted master key rather than a password.
// Its Container is the token alone, since the key is already unique and stored elsewhere.
// Anyone holding the master key can decrypt everything it has ever encrypted.
type MasterLocker struct {
	cipher     *fernet.Cipher
	maxPayload int64
}

// NewMasterLocker loads or creates the master key in store.
// Of the LockerOpt values, only WithMaxPayloadSize and WithTTL apply.
func NewMasterLocker(store KeyStore, opts ...LockerOpt) (*MasterLocker, error) {
	conf, err := NewLocker(opts...)
	if err != nil {
		return nil, err
	}
	key, err := LoadOrCreateMasterKey(store)
	if err != nil {
		return nil, err
	}
	c, err := fernet.NewCipher(key.Encode(), fernet.WithTTL(conf.ttl))
	if err != nil {
		return nil, err
	}
	return &MasterLocker{
		cipher:     c,
		maxPayload: conf.maxPayload,
	}, nil
}

func (m *MasterLocker) Encrypt(plaintext []byte) (Container, error) {
	if err := checkPayloadSize(m.maxPayload, int64(len(plaintext))); err != nil {
		return nil, err
	}
	token, err := m.cipher.Encrypt(plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to seal payload: %w", err)
	}
	return token, nil
}

func (m *MasterLocker) Decrypt(container []byte) (Plaintext, error) {
	if len(container) == 0 {
		return nil, &MalformedContainerError{Size: 0, Reason: "empty token"}
	}
	plaintext, err := m.cipher.Decrypt(container)
	if err != nil {
		return nil, &AuthenticationError{Err: err}
	}
	return plaintext, nil
}

// EncryptStream is the streaming form of Encrypt, with the same guarantees as Locker.EncryptStream.
func (m *MasterLocker) EncryptStream(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	return transform(ctx, dst, src, m.maxPayload, func(data []byte) ([]byte, error) {
		return m.Encrypt(data)
	})
}

// DecryptStream is the streaming form of Decrypt, with the same guarantees as Locker.DecryptStream.
func (m *MasterLocker) DecryptStream(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	limit := int64(0)
	if m.maxPayload > 0 {
		limit = fernet.TokenSize(m.maxPayload)
	}
	return transform(ctx, dst, src, limit, func(data []byte) ([]byte, error) {
		return m.Decrypt(data)
	})
}
