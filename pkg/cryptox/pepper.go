package cryptox

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

const pepperLength = 32

// LoadPepper reads the pepper stored at path, generating and persisting a new
// one when the file does not exist yet. An empty path disables peppering.
func LoadPepper(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}

	path = filepath.Clean(path)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		return bytes.TrimSpace(data), nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}

	raw := make([]byte, pepperLength)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	pepper := []byte(base64.RawURLEncoding.EncodeToString(raw))

	if err := os.WriteFile(path, pepper, 0o600); err != nil {
		return nil, err
	}
	return pepper, nil
}
