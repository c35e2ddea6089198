package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncryptedName(t *testing.T) {
	assert.Equal(t, "encrypted_report.pdf.enc", encryptedName("report.pdf"))
	assert.Equal(t, filepath.Join("docs", "encrypted_report.pdf.enc"), encryptedName(filepath.Join("docs", "report.pdf")))
}

func TestDecryptedName(t *testing.T) {
	tests := map[string]string{
		"encrypted_report.pdf.enc": "report.pdf",
		"report.pdf.enc":           "report.pdf",
		"report.pdf":               "decrypted_report.pdf",
		".enc":                     "decrypted_.enc",
		"encrypted_.enc":           "encrypted_",
	}
	for input, expected := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, expected, decryptedName(input))
		})
	}
	assert.Equal(t, filepath.Join("docs", "report.pdf"), decryptedName(filepath.Join("docs", "encrypted_report.pdf.enc")))
}

func TestNames_RoundTrip(t *testing.T) {
	for _, name := range []string{"a.txt", "archive.tar.gz", "encrypted_notes", "plain"} {
		assert.Equal(t, name, decryptedName(encryptedName(name)))
	}
}
