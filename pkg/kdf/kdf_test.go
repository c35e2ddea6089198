package kdf

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	assert.Len(t, salt, SaltSize)

	key, err := DeriveKey([]byte("a test password"), salt)
	require.NoError(t, err)
	assert.Len(t, key, KeySize)

	again, err := DeriveKey([]byte("a test password"), salt)
	require.NoError(t, err)
	assert.Equal(t, key, again, "Same password and salt should always produce the same key")

	otherSalt, err := GenerateSalt()
	require.NoError(t, err)
	other, err := DeriveKey([]byte("a test password"), otherSalt)
	require.NoError(t, err)
	assert.NotEqual(t, key, other, "A different salt should produce a different key")
}

func TestDeriveKey_Neg(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	_, err = DeriveKey(nil, salt)
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = DeriveKey([]byte("password"), salt[:15])
	assert.ErrorIs(t, err, ErrInvalidSaltLength)

	_, err = DeriveKey([]byte("password"), append(salt, 0x0))
	assert.ErrorIs(t, err, ErrInvalidSaltLength)

	_, err = DeriveKey([]byte("password"), nil)
	assert.ErrorIs(t, err, ErrInvalidSaltLength)
}

func TestDerive_KnownVectors(t *testing.T) {
	tests := map[string]struct {
		opt      DeriverOpt
		password string
		salt     string
		expected string
	}{
		"PBKDF2-SHA256": {
			opt:      UsePBKDF2(1),
			password: "passwd",
			salt:     "salt",
			expected: "55ac046e56e3089fec1691c22544b605f94185216dde0465e68b9d57c20dacbc",
		},
		"Scrypt": {
			opt:      UseScrypt(1024, 8, 16),
			password: "password",
			salt:     "NaCl",
			expected: "fdbabe1c9d3472007856e7190d01e9fe7c6ad7cbc8237830e77376634b373162",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			d, err := NewDeriver(tc.opt)
			require.NoError(t, err)
			key, err := d.derive([]byte(tc.password), []byte(tc.salt))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, hex.EncodeToString(key))
		})
	}
}

func TestNewDeriver(t *testing.T) {
	d, err := NewDeriver()
	require.NoError(t, err)
	assert.Equal(t, PBKDF2, d.Algorithm())
	assert.Equal(t, DefaultPBKDF2Iterations, d.iterations)

	d, err = NewDeriver(UseDefaultScrypt())
	require.NoError(t, err)
	assert.Equal(t, Scrypt, d.Algorithm())
	assert.Equal(t, DefaultScryptCost, d.scryptCost)

	d, err = NewDeriver(UseArgon2id(1, 1024, 1))
	require.NoError(t, err)
	assert.Equal(t, Argon2id, d.Algorithm())

	salt := Salt(bytes.Repeat([]byte{0x1}, SaltSize))
	key, err := d.DeriveKey([]byte("password"), salt)
	require.NoError(t, err)
	assert.Len(t, key, KeySize)

	assert.Equal(t, defaultDeriver.iterations, DefaultPBKDF2Iterations, "NewDeriver must not modify the default")
}

func TestNewDeriver_Neg(t *testing.T) {
	tests := map[string]DeriverOpt{
		"Zero iterations":     UsePBKDF2(0),
		"Scrypt cost":         UseScrypt(1000, 8, 1),
		"Scrypt block size":   UseScrypt(1024, 0, 1),
		"Scrypt cpu cost":     UseScrypt(1024, 8, 0),
		"Argon2id time":       UseArgon2id(0, 1024, 1),
		"Argon2id low memory": UseArgon2id(1, 8, 4),
		"Argon2id no threads": UseArgon2id(1, 1024, 0),
	}
	for name, opt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewDeriver(opt)
			assert.Error(t, err)
		})
	}
}

func TestDeriver_Algorithms(t *testing.T) {
	salt := Salt(bytes.Repeat([]byte{0x2}, SaltSize))
	opts := []DeriverOpt{
		UsePBKDF2(10),
		UseScrypt(1<<4, 8, 1),
		UseArgon2id(1, 1024, 1),
	}
	keys := map[string]bool{}
	for _, opt := range opts {
		d, err := NewDeriver(opt)
		require.NoError(t, err)
		key, err := d.DeriveKey([]byte("password"), salt)
		require.NoError(t, err)
		assert.Len(t, key, KeySize)
		keys[string(key)] = true
	}
	assert.Len(t, keys, len(opts), "Each algorithm should derive a distinct key")
}

func TestKey_Encode(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	assert.Len(t, key, KeySize)

	encoded := key.Encode()
	assert.Len(t, encoded, 44)
	assert.Equal(t, string(encoded), key.String())
	assert.NotContains(t, string(encoded), "+")
	assert.NotContains(t, string(encoded), "/")

	decoded, err := DecodeKey(encoded)
	require.NoError(t, err)
	assert.Equal(t, key, decoded)

	_, err = DecodeKey(encoded[:40])
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = DecodeKey([]byte("not base64!"))
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = DecodeKey(Key(make([]byte, 16)).Encode())
	assert.ErrorIs(t, err, ErrInvalidKey)
}
