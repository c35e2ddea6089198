package fernet

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	bin "github.com/saylorsolutions/binmap"
)

const (
	Version      uint8 = 0x80
	MaxClockSkew       = 60 * time.Second

	keySize    = 32
	ivSize     = aes.BlockSize
	macSize    = sha256.Size
	headerSize = 1 + 8 + ivSize
	minRawSize = headerSize + aes.BlockSize + macSize
)

var (
	ErrInvalidKey   = errors.New("fernet key must be 32 url-safe base64-encoded bytes")
	ErrInvalidToken = errors.New("invalid token")
)

var (
	encoding = base64.URLEncoding
	// Tokens must decode to exactly one byte sequence, so unused trailing bits are rejected.
	strictEncoding = base64.URLEncoding.Strict()
)

type header struct {
	version   uint8
	timestamp uint64
}

func (h *header) mapper() bin.Mapper {
	return bin.MapSequence(
		bin.Byte(&h.version),
		bin.Int(&h.timestamp),
	)
}

// Cipher seals and opens Fernet tokens with a single key.
// A Cipher holds no per-call state and may be used concurrently.
type Cipher struct {
	signingKey []byte
	block      cipher.Block
	ttl        time.Duration
	now        func() time.Time
	random     io.Reader
}

type Option = func(*Cipher)

// WithTTL rejects tokens older than ttl, or stamped more than MaxClockSkew in the future.
// A ttl <= 0 disables both checks, which is the default.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cipher) {
		c.ttl = ttl
	}
}

// WithClock overrides the time source used to stamp and check tokens.
func WithClock(now func() time.Time) Option {
	return func(c *Cipher) {
		c.now = now
	}
}

// WithRandom overrides the source of IVs.
// Only use this option for reproducing known tokens.
func WithRandom(r io.Reader) Option {
	return func(c *Cipher) {
		c.random = r
	}
}

// NewCipher creates a Cipher from a url-safe base64 encoded 32 byte key.
// The first half of the key signs tokens, the second half encrypts them.
func NewCipher(encodedKey []byte, opts ...Option) (*Cipher, error) {
	key := make([]byte, encoding.DecodedLen(len(encodedKey)))
	n, err := encoding.Decode(key, encodedKey)
	if err != nil || n != keySize {
		return nil, ErrInvalidKey
	}
	key = key[:n]
	block, err := aes.NewCipher(key[keySize/2:])
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	c := &Cipher{
		signingKey: key[:keySize/2],
		block:      block,
		now:        time.Now,
		random:     rand.Reader,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encrypt seals the plaintext into a base64 encoded token, with a fresh IV and the current timestamp.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(c.random, iv); err != nil {
		return nil, fmt.Errorf("failed to read random IV: %w", err)
	}
	padded := pad(plaintext)
	cipherText := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(cipherText, padded)

	var buf bytes.Buffer
	buf.Grow(headerSize + len(cipherText) + macSize)
	h := header{
		version:   Version,
		timestamp: uint64(c.now().Unix()),
	}
	if err := h.mapper().Write(&buf, binary.BigEndian); err != nil {
		return nil, err
	}
	buf.Write(iv)
	buf.Write(cipherText)
	buf.Write(c.sign(buf.Bytes()))

	token := make([]byte, encoding.EncodedLen(buf.Len()))
	encoding.Encode(token, buf.Bytes())
	return token, nil
}

// Decrypt verifies and opens a token created by Encrypt.
// Every failure is reported as ErrInvalidToken, whatever the cause.
func (c *Cipher) Decrypt(token []byte) ([]byte, error) {
	_, plaintext, err := c.open(token)
	return plaintext, err
}

// Timestamp returns the creation time embedded in a valid token.
func (c *Cipher) Timestamp(token []byte) (time.Time, error) {
	ts, _, err := c.open(token)
	return ts, err
}

func (c *Cipher) open(token []byte) (time.Time, []byte, error) {
	raw := make([]byte, strictEncoding.DecodedLen(len(token)))
	n, err := strictEncoding.Decode(raw, token)
	if err != nil {
		return time.Time{}, nil, ErrInvalidToken
	}
	raw = raw[:n]
	if len(raw) < minRawSize || (len(raw)-headerSize-macSize)%aes.BlockSize != 0 {
		return time.Time{}, nil, ErrInvalidToken
	}
	signed, mac := raw[:len(raw)-macSize], raw[len(raw)-macSize:]
	if !hmac.Equal(c.sign(signed), mac) {
		return time.Time{}, nil, ErrInvalidToken
	}

	var h header
	if err := h.mapper().Read(bytes.NewReader(signed), binary.BigEndian); err != nil {
		return time.Time{}, nil, ErrInvalidToken
	}
	if h.version != Version {
		return time.Time{}, nil, ErrInvalidToken
	}
	ts := time.Unix(int64(h.timestamp), 0)
	if c.ttl > 0 {
		now := c.now()
		if ts.Add(c.ttl).Before(now) || now.Add(MaxClockSkew).Before(ts) {
			return time.Time{}, nil, ErrInvalidToken
		}
	}

	iv, cipherText := signed[1+8:headerSize], signed[headerSize:]
	plaintext := make([]byte, len(cipherText))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plaintext, cipherText)
	plaintext, ok := unpad(plaintext)
	if !ok {
		return time.Time{}, nil, ErrInvalidToken
	}
	return ts, plaintext, nil
}

func (c *Cipher) sign(data []byte) []byte {
	mac := hmac.New(sha256.New, c.signingKey)
	mac.Write(data)
	return mac.Sum(nil)
}

// pad applies PKCS#7 padding to a whole number of AES blocks.
func pad(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func unpad(data []byte) ([]byte, bool) {
	if len(data) == 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, false
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, false
		}
	}
	return data[:len(data)-n], true
}

// TokenSize returns the encoded length of a token sealing a plaintext of the given size.
func TokenSize(plaintextSize int64) int64 {
	raw := headerSize + (plaintextSize/aes.BlockSize+1)*aes.BlockSize + macSize
	return (raw + 2) / 3 * 4
}
