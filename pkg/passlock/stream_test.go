package passlock

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/saylorsolutions/pwcrypt/pkg/fernet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestLocker_Stream(t *testing.T) {
	var (
		l         = fastLocker(t)
		plaintext = randomBytes(t, 2048)
		password  = []byte("password")
		sealed    bytes.Buffer
		opened    bytes.Buffer
	)
	n, err := l.EncryptStream(context.Background(), &sealed, bytes.NewReader(plaintext), password)
	require.NoError(t, err)
	assert.Equal(t, int64(sealed.Len()), n)

	n, err = l.DecryptStream(context.Background(), &opened, &sealed, password)
	require.NoError(t, err)
	assert.Equal(t, int64(len(plaintext)), n)
	assert.Equal(t, plaintext, opened.Bytes())
}

func TestLocker_StreamLimits(t *testing.T) {
	var (
		l        = fastLocker(t, WithMaxPayloadSize(100))
		password = []byte("password")
		out      bytes.Buffer
	)
	_, err := l.EncryptStream(context.Background(), &out, bytes.NewReader(make([]byte, 101)), password)
	assert.True(t, IsPreconditionError(err), "Oversized input should be rejected, got %v", err)
	assert.Zero(t, out.Len(), "Nothing should be written on failure")

	var sealed bytes.Buffer
	_, err = l.EncryptStream(context.Background(), &sealed, bytes.NewReader(make([]byte, 100)), password)
	require.NoError(t, err)
	assert.Equal(t, int64(SaltSize)+fernet.TokenSize(100), int64(sealed.Len()))

	_, err = l.DecryptStream(context.Background(), &out, &sealed, password)
	require.NoError(t, err, "A container for the largest payload should be accepted")

	oversized := make([]byte, SaltSize+fernet.TokenSize(100)+1)
	_, err = l.DecryptStream(context.Background(), &out, bytes.NewReader(oversized), password)
	assert.True(t, IsPreconditionError(err))
}

func TestLocker_StreamFailures(t *testing.T) {
	var (
		l        = fastLocker(t)
		password = []byte("password")
		out      bytes.Buffer
	)
	_, err := l.EncryptStream(context.Background(), &out, bytes.NewReader([]byte("data")), []byte("short"))
	assert.True(t, IsPreconditionError(err))

	_, err = l.DecryptStream(context.Background(), &out, bytes.NewReader([]byte("too short")), password)
	assert.True(t, IsMalformedContainerError(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.EncryptStream(ctx, &out, bytes.NewReader([]byte("data")), password)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = l.EncryptStream(context.Background(), failingWriter{}, bytes.NewReader([]byte("data")), password)
	assert.Error(t, err)
	assert.Zero(t, out.Len())
}
