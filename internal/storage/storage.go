package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"digicommerce/internal/model"

	"github.com/google/uuid"
)

// FileStore persists uploaded product images.
type FileStore interface {
	// Store writes content under a generated name derived from originalName
	// and returns the generated name.
	Store(ctx context.Context, originalName string, content io.Reader) (string, error)
}

// GenerateName returns a random file name that keeps the extension of
// originalName. Names without an extension are rejected.
func GenerateName(originalName string) (string, error) {
	base := filepath.Base(originalName)
	dot := strings.LastIndex(base, ".")
	if dot < 0 || dot == len(base)-1 {
		return "", model.ErrInvalidFile
	}
	return uuid.NewString() + base[dot:], nil
}

// ImageURL joins the public image base URL and a stored file name. Empty
// names and names that are already absolute URLs are returned unchanged.
func ImageURL(baseURL, name string) string {
	if name == "" || baseURL == "" || strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return name
	}
	if strings.HasSuffix(baseURL, "/") {
		return baseURL + name
	}
	return baseURL + "/" + name
}
