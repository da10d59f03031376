package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UploadPrefix is the URL path uploaded images are served under.
const UploadPrefix = "/uploads/"

var ErrUnsupportedImage = errors.New("invalid file type, only images allowed")

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// ImageStore saves uploaded images into a directory served statically
// under UploadPrefix.
type ImageStore struct {
	Dir string
}

func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ImageStore{Dir: dir}, nil
}

// Save writes r under a server-generated name and returns the public URL.
func (s *ImageStore) Save(r io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !imageExtensions[ext] {
		return "", ErrUnsupportedImage
	}

	name := fmt.Sprintf("%d_%s%s", time.Now().Unix(), uuid.NewString(), ext)
	f, err := os.OpenFile(filepath.Join(s.Dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	return UploadPrefix + name, nil
}

// Remove deletes the file behind a URL returned by Save. URLs that do not
// point into the store are ignored, as are files already gone.
func (s *ImageStore) Remove(url string) error {
	if !strings.HasPrefix(url, UploadPrefix) {
		return nil
	}
	name := strings.TrimPrefix(url, UploadPrefix)
	if name == "" || name != filepath.Base(name) {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
