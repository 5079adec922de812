package imaging

import (
	"bytes"
	"context"
	"image/jpeg"
	"io"
	"testing"
	"time"

	"github.com/jmpark/foyer/internal/logger"
)

type memStorage struct {
	keys []string
	data map[string][]byte
}

func (m *memStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.keys = append(m.keys, key)
	m.data[key] = raw
	return nil
}

func (m *memStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.data[key])), nil
}

func (m *memStorage) Delete(ctx context.Context, key string) error { return nil }

func (m *memStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func TestStorageSinkKeyLayout(t *testing.T) {
	store := &memStorage{}
	sink := NewStorageSink(store, logger.New(&logger.Config{Level: "error", Output: io.Discard}))
	sink.now = func() time.Time {
		return time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	}

	img := NewImage(2, 2)
	sink.Save(context.Background(), "verify", "visitor_alice_ok", img)

	if len(store.keys) != 1 {
		t.Fatalf("got %d uploads, want 1", len(store.keys))
	}
	want := "verify/20260314_150926_visitor_alice_ok.jpg"
	if store.keys[0] != want {
		t.Errorf("key: got %q, want %q", store.keys[0], want)
	}

	// The payload is a decodable JPEG of the same dimensions.
	decoded, err := jpeg.Decode(bytes.NewReader(store.data[want]))
	if err != nil {
		t.Fatalf("stored object is not a JPEG: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Errorf("decoded size: %v", b)
	}
}

func TestEncodeJPEGRestoresChannelOrder(t *testing.T) {
	// A pure-red pixel is stored BGR as (0, 0, 255); the encoder must
	// emit it red, not blue.
	img := NewImage(8, 8)
	for i := 0; i < len(img.Pix); i += 3 {
		img.Pix[i+2] = 255
	}

	var buf bytes.Buffer
	if err := EncodeJPEG(&buf, img); err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}
	decoded, err := jpeg.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, _ := decoded.At(4, 4).RGBA()
	if r>>8 < 200 || g>>8 > 80 || b>>8 > 80 {
		t.Errorf("center pixel RGB = (%d, %d, %d), want red", r>>8, g>>8, b>>8)
	}
}
