package fs

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/semadox/odoo-ninja/internal/cli/model"
)

// AttachmentFSStore is the local file side of attachments: where downloads go and what gets uploaded.
type AttachmentFSStore struct{}

// ResolvePath decides where a downloaded file goes.
// Empty output means the working directory; an existing directory gets name appended;
// anything else is used as the file path itself.
func (AttachmentFSStore) ResolvePath(output, name string) (string, error) {
	if output == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(wd, name), nil
	}
	if fi, err := os.Stat(output); err == nil && fi.IsDir() {
		return filepath.Join(output, name), nil
	}
	return output, nil
}

// EnsureDir creates dir and its parents.
func (AttachmentFSStore) EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// SaveBase64 decodes data and writes it to path, replacing any existing file.
func (AttachmentFSStore) SaveBase64(path, data string) (int, error) {
	raw, err := decodeBase64(data)
	if err != nil {
		return 0, fmt.Errorf("decode attachment %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return 0, err
	}
	return len(raw), nil
}

// LoadBase64 reads a local file and returns its base name and base64 content.
func (AttachmentFSStore) LoadBase64(path string) (string, string, error) {
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", "", fmt.Errorf("%w: %s", model.ErrFileNotFound, path)
	}
	if err != nil {
		return "", "", err
	}
	// каталоги, устройства и FIFO не загружаем: ReadFile на FIFO без писателя висит
	if !fi.Mode().IsRegular() {
		return "", "", fmt.Errorf("%w: %s is not a regular file", model.ErrInvalidArgument, path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return filepath.Base(path), base64.StdEncoding.EncodeToString(b), nil
}

// decodeBase64 accepts padded and unpadded payloads; the server may wrap lines.
func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' {
			return -1
		}
		return r
	}, s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
