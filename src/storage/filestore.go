package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/username/tradejournal/src/models"
)

const metadataFilename = "metadata.json"

var (
	ErrFileNotFound   = errors.New("file not found")
	ErrUnsafeFilename = errors.New("filename contains unsafe characters")
)

// FileStore keeps the uploaded export files and one JSON metadata document
// (filename → FileMetadata) together in a single directory. The document is
// read fully and rewritten fully on every update; concurrent writers can
// clobber each other, which is an accepted limitation of the design.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Checksum returns the hex SHA-256 of raw file content, used to recognize
// byte-identical re-uploads.
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ValidateFilename rejects names that could escape the data directory.
func ValidateFilename(name string) error {
	if name == "" || name == metadataFilename {
		return ErrUnsafeFilename
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return ErrUnsafeFilename
	}
	return nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *FileStore) SaveFile(name string, content []byte) error {
	if err := ValidateFilename(name); err != nil {
		return err
	}
	if err := os.WriteFile(s.path(name), content, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) ReadFile(name string) ([]byte, error) {
	if err := ValidateFilename(name); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to read file %s: %w", name, err)
	}
	return content, nil
}

func (s *FileStore) DeleteFile(name string) error {
	if err := ValidateFilename(name); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to delete file %s: %w", name, err)
	}
	return nil
}

// LoadMetadata reads the metadata document. A missing document is an empty
// store, not an error.
func (s *FileStore) LoadMetadata() (map[string]models.FileMetadata, error) {
	content, err := os.ReadFile(s.path(metadataFilename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]models.FileMetadata), nil
		}
		return nil, fmt.Errorf("failed to read metadata document: %w", err)
	}

	meta := make(map[string]models.FileMetadata)
	if err := json.Unmarshal(content, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata document: %w", err)
	}
	return meta, nil
}

// SaveMetadata rewrites the whole metadata document.
func (s *FileStore) SaveMetadata(meta map[string]models.FileMetadata) error {
	content, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata document: %w", err)
	}
	if err := os.WriteFile(s.path(metadataFilename), content, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata document: %w", err)
	}
	return nil
}

// SortedByNewestUpload returns the metadata entries ordered newest upload
// first, the order the deduplicator expects files in.
func SortedByNewestUpload(meta map[string]models.FileMetadata) []models.FileMetadata {
	files := make([]models.FileMetadata, 0, len(meta))
	for _, m := range meta {
		files = append(files, m)
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].UploadedAt.Equal(files[j].UploadedAt) {
			return files[i].Filename < files[j].Filename
		}
		return files[i].UploadedAt.After(files[j].UploadedAt)
	})
	return files
}

// FindByChecksum reports whether any stored file already carries the given
// content checksum.
func FindByChecksum(meta map[string]models.FileMetadata, checksum string) (models.FileMetadata, bool) {
	for _, m := range meta {
		if m.Checksum == checksum {
			return m, true
		}
	}
	return models.FileMetadata{}, false
}
