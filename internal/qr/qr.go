// Package qr renders bank-transfer payment instructions as QR images.
package qr

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/farellandr/homestay/internal/helpers"
	"github.com/skip2/go-qrcode"
)

// BankTransfer is the content a banking app needs to prefill a transfer.
type BankTransfer struct {
	BankName      string
	AccountNumber string
	AccountName   string
	Amount        int64
	Reference     string
}

func (b BankTransfer) Content() string {
	return strings.Join([]string{
		"Account: " + b.AccountNumber,
		"Name: " + b.AccountName,
		"Bank: " + b.BankName,
		fmt.Sprintf("Amount: %d", b.Amount),
		"Reference: " + b.Reference,
	}, "\n")
}

type Config struct {
	Dir        string
	PublicPath string
	Size       int
}

// FileEncoder writes PNG QR codes to disk and returns their public path.
type FileEncoder struct {
	storage    helpers.StorageConfig
	publicPath string
	size       int
}

func NewFileEncoder(cfg Config) *FileEncoder {
	storage := helpers.DefaultImageStorageConfig
	storage.BasePath = cfg.Dir
	size := cfg.Size
	if size <= 0 {
		size = 300
	}
	return &FileEncoder{storage: storage, publicPath: cfg.PublicPath, size: size}
}

func (e *FileEncoder) Encode(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	png, err := qrcode.Encode(content, qrcode.High, e.size)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}

	name, err := helpers.StoreFile(png, "", "payment-", ".png", e.storage)
	if err != nil {
		return "", fmt.Errorf("store qr: %w", err)
	}

	return path.Join(e.publicPath, name), nil
}

// Remove deletes a code previously returned by Encode. Unknown or already
// removed references are ignored.
func (e *FileEncoder) Remove(_ context.Context, ref string) error {
	name := path.Base(ref)
	if path.Join(e.publicPath, name) != ref || !strings.HasPrefix(name, "payment-") {
		return nil
	}
	err := helpers.DeleteFile(filepath.Join(e.storage.BasePath, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove qr: %w", err)
	}
	return nil
}
