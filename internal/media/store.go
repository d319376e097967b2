// Package media stores uploaded binary assets and returns stable URLs.
package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrMissingFile indicates no upload was provided.
	ErrMissingFile = errors.New("media: file is required")
	errMissingDir  = errors.New("media: base directory is required")
)

// Store persists uploaded files and deletes previously stored ones.
type Store interface {
	Save(file *multipart.FileHeader) (string, error)
	Delete(reference string) error
}

// DiskStoreConfig configures the local-disk store.
type DiskStoreConfig struct {
	BaseDir   string
	PublicURL string
	Logger    *zap.Logger
}

// DiskStore keeps assets on the local filesystem under uuid names. It plays
// the role of an external blob service; callers treat the returned URL as
// opaque.
type DiskStore struct {
	baseDir   string
	publicURL string
	logger    *zap.Logger
}

// NewDiskStore constructs a DiskStore, creating the base directory.
func NewDiskStore(cfg DiskStoreConfig) (*DiskStore, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, errMissingDir
	}
	if err := os.MkdirAll(cfg.BaseDir, 0o755); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	publicURL := strings.TrimSuffix(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = "/media"
	}
	return &DiskStore{baseDir: cfg.BaseDir, publicURL: publicURL, logger: logger}, nil
}

// Save writes the upload under a fresh uuid name preserving the extension
// and returns its public URL.
func (s *DiskStore) Save(file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", ErrMissingFile
	}

	source, err := file.Open()
	if err != nil {
		return "", err
	}
	defer source.Close()

	name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	destinationPath := filepath.Join(s.baseDir, name)
	destination, err := os.Create(destinationPath)
	if err != nil {
		return "", err
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		// Half-written assets are useless; best effort removal.
		_ = os.Remove(destinationPath)
		return "", err
	}

	s.logger.Debug("media asset stored", zap.String("name", name))
	return fmt.Sprintf("%s/%s", s.publicURL, name), nil
}

// Delete removes a previously stored asset. Unknown references are a no-op.
func (s *DiskStore) Delete(reference string) error {
	name := filepath.Base(reference)
	if name == "." || name == "/" || name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.baseDir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
