package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/saylorsolutions/pwcrypt/pkg/passlock"
	"github.com/sirupsen/logrus"
)

const stdio = "-"

// codec is satisfied by both the password and master key lockers.
type codec interface {
	EncryptStream(ctx context.Context, dst io.Writer, src io.Reader) (int64, error)
	DecryptStream(ctx context.Context, dst io.Writer, src io.Reader) (int64, error)
}

var _ codec = (*passlock.MasterLocker)(nil)

type passwordCodec struct {
	locker   *passlock.Locker
	password []byte
}

func (c *passwordCodec) EncryptStream(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	return c.locker.EncryptStream(ctx, dst, src, c.password)
}

func (c *passwordCodec) DecryptStream(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	return c.locker.DecryptStream(ctx, dst, src, c.password)
}

type fileJob struct {
	input  string
	output string
	force  bool
	log    logrus.FieldLogger
}

func (j *fileJob) encrypt(ctx context.Context, c codec) error {
	return j.run(ctx, "encrypt", c.EncryptStream)
}

func (j *fileJob) decrypt(ctx context.Context, c codec) error {
	return j.run(ctx, "decrypt", c.DecryptStream)
}

func (j *fileJob) run(ctx context.Context, op string, fn func(context.Context, io.Writer, io.Reader) (int64, error)) error {
	log := j.log.WithFields(logrus.Fields{
		"op":     op,
		"input":  j.input,
		"output": j.output,
	})
	if j.output != stdio && !j.force {
		if _, err := os.Stat(j.output); err == nil {
			return fmt.Errorf("output file '%s' already exists, use --force to overwrite it", j.output)
		}
	}

	in, closeIn, err := openInput(j.input)
	if err != nil {
		return err
	}
	defer closeIn()

	var buf bytes.Buffer
	log.Debug("Processing input")
	n, err := fn(ctx, &buf, in)
	if err != nil {
		return err
	}
	if j.output == stdio {
		if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("failed to write to stdout: %w", err)
		}
	} else if err := os.WriteFile(j.output, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	log.WithField("bytes", n).Info("Done")
	return nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == stdio {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input file: %w", err)
	}
	return f, func() {
		_ = f.Close()
	}, nil
}

// describe turns an engine error into the message shown to the user.
func describe(op string, err error) string {
	switch {
	case passlock.IsAuthenticationError(err):
		return "Decryption failed. Wrong password or corrupted file."
	case passlock.IsMalformedContainerError(err):
		return "Decryption failed. The input is not an encrypted file."
	case passlock.IsPreconditionError(err):
		var pe *passlock.PreconditionError
		errors.As(err, &pe)
		return fmt.Sprintf("Cannot %s: %s %s", op, pe.Field, pe.Reason)
	default:
		return fmt.Sprintf("Failed to %s: %v", op, err)
	}
}
