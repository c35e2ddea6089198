package passlock

import (
	"context"
	"fmt"
	"io"

	"github.com/saylorsolutions/pwcrypt/pkg/fernet"
)

// EncryptStream reads the whole payload from src, encrypts it, and writes the Container to dst.
// Nothing is written to dst unless encryption succeeds.
// The context is checked between stages, not during key derivation.
func (l *Locker) EncryptStream(ctx context.Context, dst io.Writer, src io.Reader, password []byte) (int64, error) {
	if err := l.checkPassword(password, true); err != nil {
		return 0, err
	}
	return transform(ctx, dst, src, l.maxPayload, func(data []byte) ([]byte, error) {
		return l.Encrypt(data, password)
	})
}

// DecryptStream reads a whole Container from src, decrypts it, and writes the plaintext to dst.
// Nothing is written to dst unless decryption succeeds.
func (l *Locker) DecryptStream(ctx context.Context, dst io.Writer, src io.Reader, password []byte) (int64, error) {
	if err := l.checkPassword(password, false); err != nil {
		return 0, err
	}
	limit := int64(0)
	if l.maxPayload > 0 {
		limit = SaltSize + fernet.TokenSize(l.maxPayload)
	}
	return transform(ctx, dst, src, limit, func(data []byte) ([]byte, error) {
		return l.Decrypt(data, password)
	})
}

func transform(ctx context.Context, dst io.Writer, src io.Reader, readLimit int64, fn func([]byte) ([]byte, error)) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	data, err := readAll(src, readLimit)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	out, err := fn(data)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := dst.Write(out)
	if err != nil {
		return int64(n), fmt.Errorf("failed to write output: %w", err)
	}
	return int64(n), nil
}

// readAll reads src to EOF, but no more than limit bytes when limit > 0.
func readAll(src io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, preconditionf("payload", "input exceeds the limit of %d bytes", limit)
	}
	return data, nil
}
