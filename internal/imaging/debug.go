package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"time"

	"github.com/jmpark/foyer/internal/logger"
	"github.com/jmpark/foyer/internal/storage"
)

// CaptureSink records normalized frames for offline inspection. Saving is
// fire-and-forget: the recognition path never depends on it and failures
// are not reported to the caller.
type CaptureSink interface {
	Save(ctx context.Context, mode, tag string, img *Image)
}

// NopSink discards every frame. Used when debug saving is disabled.
type NopSink struct{}

func (NopSink) Save(ctx context.Context, mode, tag string, img *Image) {}

// StorageSink writes frames as JPEG objects under
// <mode>/<timestamp>_<tag>.jpg in the configured object storage.
type StorageSink struct {
	store storage.ObjectStorage
	log   *logger.Logger
	now   func() time.Time
}

// NewStorageSink creates a sink backed by the given object storage.
func NewStorageSink(store storage.ObjectStorage, log *logger.Logger) *StorageSink {
	return &StorageSink{store: store, log: log, now: time.Now}
}

func (s *StorageSink) Save(ctx context.Context, mode, tag string, img *Image) {
	key := fmt.Sprintf("%s/%s_%s.jpg", mode, s.now().Format("20060102_150405"), tag)

	var buf bytes.Buffer
	if err := EncodeJPEG(&buf, img); err != nil {
		s.log.WithError(err).Debug("capture encode failed")
		return
	}
	if err := s.store.Upload(ctx, key, &buf, int64(buf.Len()), "image/jpeg"); err != nil {
		s.log.WithError(err).WithField("key", key).Debug("capture save failed")
	}
}

// EncodeJPEG writes the frame as JPEG, converting from the BGR pixel order
// back to RGB for the encoder.
func EncodeJPEG(w *bytes.Buffer, m *Image) error {
	rgba := image.NewRGBA(image.Rect(0, 0, m.W, m.H))
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			b, g, r := m.At(x, y)
			rgba.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 0xff})
		}
	}
	return jpeg.Encode(w, rgba, &jpeg.Options{Quality: 90})
}
