package helpers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

type StorageConfig struct {
	MaxSizeBytes     int64
	AllowedMimeTypes []string
	BasePath         string
}

var DefaultImageStorageConfig = StorageConfig{
	MaxSizeBytes: 5 * 1024 * 1024, // 5MB
	AllowedMimeTypes: []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
	},
	BasePath: "./uploads/",
}

// StoreFile writes data under config.BasePath/subdir with a random name
// prefixed by prefix and returns the stored file name.
func StoreFile(data []byte, subdir, prefix, ext string, configs ...StorageConfig) (string, error) {
	config := DefaultImageStorageConfig
	if len(configs) > 0 {
		config = configs[0]
	}

	if int64(len(data)) > config.MaxSizeBytes {
		return "", fmt.Errorf("file size exceeds maximum limit of %d MB", config.MaxSizeBytes/(1024*1024))
	}

	mimeType := http.DetectContentType(data)
	mimeTypeAllowed := false
	for _, allowedType := range config.AllowedMimeTypes {
		if mimeType == allowedType {
			mimeTypeAllowed = true
			break
		}
	}
	if !mimeTypeAllowed {
		return "", fmt.Errorf("invalid file type %s. Allowed types: %v", mimeType, config.AllowedMimeTypes)
	}

	dir := filepath.Join(config.BasePath, subdir)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%s%s%s", prefix, uuid.New().String(), ext)
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return "", err
	}

	return filename, nil
}

func DeleteFile(filePath string) error {
	return os.Remove(filePath)
}
