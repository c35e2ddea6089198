package main

import (
	"path/filepath"
	"strings"
)

const (
	encryptedPrefix = "encrypted_"
	decryptedPrefix = "decrypted_"
	encryptedExt    = ".enc"
)

// encryptedName returns the default output path for encrypting the file at path.
func encryptedName(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, encryptedPrefix+base+encryptedExt)
}

// decryptedName returns the default output path for decrypting the file at path, reversing encryptedName where possible.
func decryptedName(path string) string {
	dir, base := filepath.Split(path)
	if !strings.HasSuffix(base, encryptedExt) || len(base) == len(encryptedExt) {
		return filepath.Join(dir, decryptedPrefix+base)
	}
	base = strings.TrimSuffix(base, encryptedExt)
	if trimmed := strings.TrimPrefix(base, encryptedPrefix); len(trimmed) > 0 {
		base = trimmed
	}
	return filepath.Join(dir, base)
}
