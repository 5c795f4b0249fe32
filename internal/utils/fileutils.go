package utils

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BatchID returns an identifier shared by all files of one generation
// call: a UTC timestamp for sortability plus a random suffix so two
// calls in the same second cannot collide.
func BatchID() string {
	return time.Now().UTC().Format("20060102-150405") + "-" + uuid.NewString()[:8]
}

// ExtensionForMime maps an image MIME type to the file extension used
// when saving. Unknown types fall back to png.
func ExtensionForMime(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}

// MimeForExtension is the inverse mapping, used when serving saved
// files back out as resources.
func MimeForExtension(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	case "png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

// WriteImageFile writes decoded image bytes to path, creating the
// parent directory if needed. Zero-length data is rejected rather than
// written.
func WriteImageFile(path string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("refusing to write empty image file: %s", path)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("Error creating output directory", "path", dir, "error", err)
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		slog.Error("Error writing image file", "path", path, "error", err)
		return fmt.Errorf("failed to save generated image to disk: %w", err)
	}
	slog.Debug("Saved image", "path", path, "size_bytes", len(data))
	return nil
}
