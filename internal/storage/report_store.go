package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrUnsupportedType = errors.New("only PDF, PNG and JPG files are allowed")
)

// allowedContentTypes maps acceptable upload MIME types
var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/jpg":       true,
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// ReportStore persists uploaded report files on disk
type ReportStore struct {
	dir     string
	maxSize int64
}

// NewReportStore creates a disk-backed report store rooted at dir
func NewReportStore(dir string, maxSize int64) (*ReportStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &ReportStore{dir: dir, maxSize: maxSize}, nil
}

// Save validates and writes an uploaded file to disk. It returns the stored
// filename (unique, sanitized) and the original filename for display.
func (s *ReportStore) Save(file multipart.File, header *multipart.FileHeader) (string, string, error) {
	if header.Size > s.maxSize {
		return "", "", ErrFileTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if !allowedContentTypes[contentType] {
		return "", "", ErrUnsupportedType
	}

	storedName := uuid.New().String() + "-" + SanitizeFilename(header.Filename)
	path := filepath.Join(s.dir, storedName)

	dst, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	// LimitReader guards against a Size header smaller than the actual body
	written, err := io.Copy(dst, io.LimitReader(file, s.maxSize+1))
	if err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("failed to write file: %w", err)
	}
	if written > s.maxSize {
		os.Remove(path)
		return "", "", ErrFileTooLarge
	}

	return storedName, header.Filename, nil
}

// SanitizeFilename strips path components and characters unsafe for storage
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	return unsafeChars.ReplaceAllString(name, "")
}
