package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// MaxFileSize is 10MB in bytes
	MaxFileSize = 10 * 1024 * 1024
	// AllowedImageFormat is PNG
	AllowedImageFormat = ".png"
	// ImageContentType is what a design image must sniff as
	ImageContentType = "image/png"
)

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ValidateImageFile validates the uploaded file format and size
func ValidateImageFile(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != AllowedImageFormat {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: fmt.Sprintf("Only %s files are allowed", AllowedImageFormat),
		}
	}

	return nil
}

// ReadImageFile validates the upload and returns its content. The content
// itself must be a PNG, not just the file name.
func ReadImageFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	if err := ValidateImageFile(fileHeader); err != nil {
		return nil, err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	content, err := io.ReadAll(io.LimitReader(src, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if len(content) > MaxFileSize {
		return nil, &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}
	if http.DetectContentType(content) != ImageContentType {
		return nil, &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "File content is not a PNG image",
		}
	}

	return content, nil
}

// SanitizeFilename keeps the base name of an upload with anything outside
// [A-Za-z0-9._-] replaced by underscores.
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeFilenameChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "upload"
	}
	return base
}

// SaveFile writes content under dir at the slash separated key, creating
// intermediate directories. Keys that escape dir are rejected.
func SaveFile(dir, key string, content []byte) (err error) {
	fullPath, err := ResolveKey(dir, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file: %w", closeErr)
		}
	}()

	if _, err := dst.Write(content); err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}
	return nil
}

// RemoveFile deletes the file stored at key. A missing file is not an error.
func RemoveFile(dir, key string) error {
	fullPath, err := ResolveKey(dir, key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// ResolveKey maps a storage key to a path inside dir.
func ResolveKey(dir, key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// GetImageURL returns the URL path for accessing a locally stored image
func GetImageURL(key string) string {
	if key == "" {
		return ""
	}
	return "/uploads/" + strings.TrimPrefix(key, "/")
}
