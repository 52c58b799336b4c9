package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

type memStore struct {
	objects map[string][]byte
	types   map[string]string
	removed []string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objects[key] = b
	m.types[key] = contentType
	return "mem://" + key, nil
}

func (m *memStore) Remove(_ context.Context, url string) error {
	m.removed = append(m.removed, url)
	return nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal("Failed to encode png:", err)
	}
	return buf.Bytes()
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(content)
	mw.Close()

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatal("Failed to parse form:", err)
	}
	return req.MultipartForm.File["file"][0]
}

func TestUploadResizesLargeImages(t *testing.T) {
	store := newMemStore()
	images := NewImages(store)

	url, err := images.Upload(context.Background(), "items", fileHeader(t, "foto laptop.png", pngBytes(t, 2048, 512)))
	if err != nil {
		t.Fatal("Failed to upload:", err)
	}

	key := strings.TrimPrefix(url, "mem://")
	if !strings.HasPrefix(key, "items/") || !strings.HasSuffix(key, "-foto_laptop.png") {
		t.Errorf("Unexpected object key %s", key)
	}
	if store.types[key] != "image/png" {
		t.Errorf("Expected image/png, got %s", store.types[key])
	}

	img, err := imaging.Decode(bytes.NewReader(store.objects[key]))
	if err != nil {
		t.Fatal("Stored object is not an image:", err)
	}
	if img.Bounds().Dx() != 1024 || img.Bounds().Dy() != 256 {
		t.Errorf("Expected 1024x256, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestUploadRejectsNonImages(t *testing.T) {
	images := NewImages(newMemStore())

	_, err := images.Upload(context.Background(), "logo", fileHeader(t, "notes.txt", []byte("hello")))
	if !errors.Is(err, ErrNotImage) {
		t.Errorf("Expected ErrNotImage, got %v", err)
	}
}

func TestUploadRejectsLargeFiles(t *testing.T) {
	images := NewImages(newMemStore())

	fh := fileHeader(t, "big.png", pngBytes(t, 8, 8))
	fh.Size = MaxImageBytes + 1

	if _, err := images.Upload(context.Background(), "logo", fh); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}
}

// withCanvas rewrites the IHDR size of a PNG so the header claims w x h.
func withCanvas(raw []byte, w, h uint32) []byte {
	out := append([]byte(nil), raw...)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestUploadRejectsHugeCanvas(t *testing.T) {
	store := newMemStore()
	images := NewImages(store)

	raw := withCanvas(pngBytes(t, 1, 1), 10000, 10000)
	if len(raw) > MaxImageBytes {
		t.Fatalf("Expected a small file, got %d bytes", len(raw))
	}

	_, err := images.Upload(context.Background(), "items", fileHeader(t, "bomb.png", raw))
	if !errors.Is(err, ErrDimensions) {
		t.Errorf("Expected ErrDimensions, got %v", err)
	}
	if len(store.objects) != 0 {
		t.Errorf("Expected nothing stored, got %d objects", len(store.objects))
	}
}

func TestRemoveIgnoresEmptyURL(t *testing.T) {
	store := newMemStore()
	images := NewImages(store)

	if err := images.Remove(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if err := images.Remove(context.Background(), "mem://logo/a.png"); err != nil {
		t.Fatal(err)
	}
	if len(store.removed) != 1 {
		t.Errorf("Expected one removal, got %v", store.removed)
	}
}

func TestObjectBaseURL(t *testing.T) {
	tests := []struct {
		cfg  MinioConfig
		want string
	}{
		{MinioConfig{Endpoint: "localhost:9000", Bucket: "inventaris"}, "http://localhost:9000/inventaris/"},
		{MinioConfig{Endpoint: "s3.local", Bucket: "b", UseSSL: true}, "https://s3.local/b/"},
		{MinioConfig{Endpoint: "minio:9000", Bucket: "b", PublicURL: "https://cdn.example.com/"}, "https://cdn.example.com/b/"},
	}
	for _, tt := range tests {
		if got := objectBaseURL(tt.cfg); got != tt.want {
			t.Errorf("objectBaseURL(%+v) = %s, want %s", tt.cfg, got, tt.want)
		}
	}
}
