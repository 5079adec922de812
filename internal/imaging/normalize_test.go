package imaging

import (
	"bytes"
	"testing"
)

func TestAdjustGammaIdentity(t *testing.T) {
	pix := make([]byte, 256)
	for i := range pix {
		pix[i] = byte(i)
	}
	want := append([]byte(nil), pix...)

	AdjustGamma(pix, 1.0)

	if !bytes.Equal(pix, want) {
		t.Error("gamma 1.0 must leave pixel data untouched")
	}
}

func TestAdjustGammaBrightens(t *testing.T) {
	pix := []byte{128}
	AdjustGamma(pix, 1.2)
	// (128/255)^(1/1.2)*255 = 143.58, truncated
	if pix[0] != 143 {
		t.Errorf("gamma 1.2 on 128: got %d, want 143", pix[0])
	}
}

func TestNormalizeGrayFrame(t *testing.T) {
	// A uniform gray frame goes through every stage deterministically:
	// gamma 1.2 maps 128 -> 143, then 143*1.1+10 = 167.3 -> 167.
	const size = 640
	raw := bytes.Repeat([]byte{128}, size*size*3)

	img, err := Normalize(raw, size, size, Options{
		TargetSize: size,
		CropCenter: true,
		Gamma:      1.2,
		Contrast:   1.1,
		Brightness: 10,
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if img.W != size || img.H != size {
		t.Fatalf("got %dx%d, want %dx%d", img.W, img.H, size, size)
	}
	for i, v := range img.Pix {
		if v != 167 {
			t.Fatalf("pixel %d: got %d, want 167", i, v)
		}
	}
}

func TestNormalizeChannelOrder(t *testing.T) {
	// Single RGB pixel (10, 20, 30) must come out BGR.
	img, err := Normalize([]byte{10, 20, 30}, 1, 1, Options{
		TargetSize: 1,
		Gamma:      1.0,
		Contrast:   1.0,
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	b, g, r := img.At(0, 0)
	if b != 30 || g != 20 || r != 10 {
		t.Errorf("got BGR (%d, %d, %d), want (30, 20, 10)", b, g, r)
	}
}

func TestNormalizeTruncatesPartialRow(t *testing.T) {
	// 4x3 frame with 5 bytes missing: the partial third row is discarded
	// and the effective height becomes 2.
	raw := make([]byte, 4*3*3-5)

	img, err := Normalize(raw, 4, 3, Options{
		TargetSize: 2,
		CropCenter: true,
		Gamma:      1.0,
		Contrast:   1.0,
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if img.W != 2 || img.H != 2 {
		t.Errorf("got %dx%d, want 2x2", img.W, img.H)
	}
}

func TestNormalizeFlipVertical(t *testing.T) {
	// Two rows, one pixel wide: flipping swaps them.
	raw := []byte{
		1, 1, 1,
		2, 2, 2,
	}
	img, err := Normalize(raw, 1, 2, Options{
		TargetSize:   1,
		FlipVertical: true,
		Gamma:        1.0,
		Contrast:     1.0,
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if b, _, _ := img.At(0, 0); b != 2 {
		t.Errorf("top row after flip: got %d, want 2", b)
	}
}

func TestNormalizeEmptyBuffer(t *testing.T) {
	if _, err := Normalize([]byte{1, 2}, 4, 1, Options{TargetSize: 4, Gamma: 1, Contrast: 1}); err == nil {
		t.Error("buffer without a complete row must fail")
	}
	if _, err := Normalize(nil, 0, 0, Options{TargetSize: 4, Gamma: 1, Contrast: 1}); err == nil {
		t.Error("zero width must fail")
	}
}

func TestNormalizeScalesShorterSide(t *testing.T) {
	// 8x4 frame, target 2: shorter side scales to 2, aspect preserved,
	// then the center crop takes 2x2.
	raw := make([]byte, 8*4*3)

	img, err := Normalize(raw, 8, 4, Options{
		TargetSize: 2,
		CropCenter: true,
		Gamma:      1.0,
		Contrast:   1.0,
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if img.W != 2 || img.H != 2 {
		t.Errorf("got %dx%d, want 2x2", img.W, img.H)
	}
}

func TestNormalizeWithoutCropKeepsAspect(t *testing.T) {
	raw := make([]byte, 8*4*3)

	img, err := Normalize(raw, 8, 4, Options{
		TargetSize: 2,
		CropCenter: false,
		Gamma:      1.0,
		Contrast:   1.0,
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if img.W != 4 || img.H != 2 {
		t.Errorf("got %dx%d, want 4x2", img.W, img.H)
	}
}

func TestContrastClamps(t *testing.T) {
	pix := []byte{250, 0}
	adjustContrast(pix, 1.1, 10)
	if pix[0] != 255 {
		t.Errorf("overflow must clamp to 255, got %d", pix[0])
	}
	if pix[1] != 10 {
		t.Errorf("0*1.1+10: got %d, want 10", pix[1])
	}
}
