package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// MaxImageBytes bounds uploaded photos and logos.
const MaxImageBytes = 2 << 20

const maxDimension = 1024

// maxPixels bounds the decoded size; a small compressed file can still
// declare an enormous canvas.
const maxPixels = 40_000_000

var (
	ErrTooLarge   = errors.New("image exceeds 2 MB")
	ErrNotImage   = errors.New("file is not a supported image")
	ErrDimensions = errors.New("image exceeds 40 megapixels")
)

// ObjectStore is the blob backend images are written to.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, url string) error
}

// Images validates, downsizes and stores uploaded pictures.
type Images struct {
	store ObjectStore
}

func NewImages(store ObjectStore) *Images {
	return &Images{store: store}
}

// Upload stores the file under folder and returns its public URL. Images
// wider or taller than 1024px are scaled down keeping their aspect ratio.
func (im *Images) Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxImageBytes {
		return "", ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	raw, err := io.ReadAll(io.LimitReader(src, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(raw) > MaxImageBytes {
		return "", ErrTooLarge
	}

	data, format, err := normalize(raw)
	if err != nil {
		return "", err
	}

	key := UniqueKey(folder, fh.Filename, format)
	return im.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType(format))
}

// Remove deletes a previously uploaded image. Empty URLs are ignored.
func (im *Images) Remove(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}
	return im.store.Remove(ctx, url)
}

// normalize decodes raw, shrinks it if needed and re-encodes it in its
// original format. GIFs are re-encoded as PNG.
func normalize(raw []byte) ([]byte, imaging.Format, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, 0, ErrNotImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, 0, ErrDimensions
	}

	format, err := imaging.FormatFromExtension(name)
	if err != nil || (format != imaging.JPEG && format != imaging.PNG && format != imaging.GIF) {
		return nil, 0, ErrNotImage
	}
	if format == imaging.GIF {
		format = imaging.PNG
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, ErrNotImage
	}

	b := img.Bounds()
	if b.Dx() > maxDimension || b.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(85)); err != nil {
		return nil, 0, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), format, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]+`)

// UniqueKey builds folder/YYYYMMDD-uuid-name with the extension matching format.
func UniqueKey(folder, filename string, format imaging.Format) string {
	base := filename
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	base = unsafeChars.ReplaceAllString(base, "_")
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("%s/%s-%s-%s%s", folder, time.Now().Format("20060102"), uuid.New().String(), base, extension(format))
}

func extension(format imaging.Format) string {
	if format == imaging.JPEG {
		return ".jpg"
	}
	return ".png"
}

func contentType(format imaging.Format) string {
	if format == imaging.JPEG {
		return "image/jpeg"
	}
	return "image/png"
}
