package assets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"
)

// URLPrefix is the HTTP path under which uploaded files are served.
const URLPrefix = "/uploads"

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image too large")
	ErrInvalidEncoding = errors.New("invalid image encoding")
	ErrForeignURL      = errors.New("not an upload from this store")
)

// Uploader stores raw image bytes and returns a retrievable URL. Remove
// deletes an upload by the URL Upload returned.
type Uploader interface {
	Upload(ctx context.Context, data []byte) (string, error)
	Remove(ctx context.Context, url string) error
}

// LocalStore keeps uploads on local disk. Files are named by ULID with an
// extension taken from the sniffed content type.
type LocalStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

// NewLocalStore creates dir if needed. baseURL prefixes returned URLs and may
// be empty for relative URLs.
func NewLocalStore(dir, baseURL string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
	}, nil
}

// Dir returns the directory uploads are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Upload writes data to disk and returns its URL. Only image content is
// accepted.
func (s *LocalStore) Upload(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrInvalidEncoding
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mime.String())
	}

	name := ulid.Make().String() + mime.Extension()
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return s.baseURL + URLPrefix + "/" + name, nil
}

// Remove deletes the file behind url. A URL this store did not hand out is
// an error; a file that is already gone is not.
func (s *LocalStore) Remove(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, ok := strings.CutPrefix(url, s.baseURL+URLPrefix+"/")
	if !ok || name == "" || name != filepath.Base(name) {
		return fmt.Errorf("%w: %s", ErrForeignURL, url)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

// DecodeImage decodes a data URL ("data:image/png;base64,...") or a bare
// base64 string.
func DecodeImage(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		comma := strings.IndexByte(encoded, ',')
		if comma < 0 || !strings.HasSuffix(encoded[:comma], ";base64") {
			return nil, ErrInvalidEncoding
		}
		encoded = encoded[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, ErrInvalidEncoding
		}
	}
	if len(data) == 0 {
		return nil, ErrInvalidEncoding
	}
	return data, nil
}
