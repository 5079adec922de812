// Package imaging normalizes raw camera buffers into the fixed-size,
// color-corrected frames the face extractor expects.
package imaging

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Image is a packed 3-channel pixel grid, 3 bytes per pixel, BGR order.
type Image struct {
	W, H int
	Pix  []byte
}

// NewImage allocates a zeroed w x h image.
func NewImage(w, h int) *Image {
	return &Image{W: w, H: h, Pix: make([]byte, w*h*3)}
}

// At returns the BGR triple at (x, y).
func (m *Image) At(x, y int) (b, g, r byte) {
	i := (y*m.W + x) * 3
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// Options holds the normalization tunables.
type Options struct {
	TargetSize   int
	FlipVertical bool
	CropCenter   bool
	Gamma        float64
	Contrast     float64
	Brightness   float64
}

// Normalize converts a flat RGB byte buffer into a model-ready frame.
//
// The buffer is expected to hold width*height*3 bytes; when it does not,
// it is truncated to whole rows and an effective height is derived.
// Malformed payloads from the capture client are recovered this way
// rather than rejected.
func Normalize(raw []byte, width, height int, opts Options) (*Image, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid width %d", width)
	}

	rowBytes := width * 3
	if len(raw) != width*height*3 {
		height = len(raw) / rowBytes
		raw = raw[:height*rowBytes]
	}
	if height == 0 {
		return nil, fmt.Errorf("buffer of %d bytes holds no complete %d-pixel row", len(raw), width)
	}

	img := &Image{W: width, H: height, Pix: make([]byte, len(raw))}
	copy(img.Pix, raw)

	reverseChannels(img)
	if opts.FlipVertical {
		flipVertical(img)
	}

	img = resizeShorterSide(img, opts.TargetSize)
	if opts.CropCenter {
		img = cropCenter(img, opts.TargetSize)
	}

	AdjustGamma(img.Pix, opts.Gamma)
	adjustContrast(img.Pix, opts.Contrast, opts.Brightness)

	return img, nil
}

// reverseChannels swaps the first and third byte of every pixel (RGB -> BGR).
func reverseChannels(m *Image) {
	for i := 0; i+2 < len(m.Pix); i += 3 {
		m.Pix[i], m.Pix[i+2] = m.Pix[i+2], m.Pix[i]
	}
}

func flipVertical(m *Image) {
	row := m.W * 3
	tmp := make([]byte, row)
	for y := 0; y < m.H/2; y++ {
		top := m.Pix[y*row : (y+1)*row]
		bot := m.Pix[(m.H-1-y)*row : (m.H-y)*row]
		copy(tmp, top)
		copy(top, bot)
		copy(bot, tmp)
	}
}

// resizeShorterSide scales uniformly so the shorter dimension equals target,
// preserving aspect ratio. Bilinear resampling.
func resizeShorterSide(m *Image, target int) *Image {
	short := m.W
	if m.H < short {
		short = m.H
	}
	scale := float64(target) / float64(short)
	newW := int(float64(m.W) * scale)
	newH := int(float64(m.H) * scale)
	if newW == m.W && newH == m.H {
		return m
	}

	src := image.NewRGBA(image.Rect(0, 0, m.W, m.H))
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			si := (y*m.W + x) * 3
			di := y*src.Stride + x*4
			src.Pix[di] = m.Pix[si]
			src.Pix[di+1] = m.Pix[si+1]
			src.Pix[di+2] = m.Pix[si+2]
			src.Pix[di+3] = 0xff
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := NewImage(newW, newH)
	for y := 0; y < newH; y++ {
		for x := 0; x < newW; x++ {
			si := y*dst.Stride + x*4
			di := (y*newW + x) * 3
			out.Pix[di] = dst.Pix[si]
			out.Pix[di+1] = dst.Pix[si+1]
			out.Pix[di+2] = dst.Pix[si+2]
		}
	}
	return out
}

// cropCenter extracts a centered size x size window. Frames already smaller
// than size in a dimension (the truncated-buffer path) keep that dimension.
func cropCenter(m *Image, size int) *Image {
	cw, ch := size, size
	if cw > m.W {
		cw = m.W
	}
	if ch > m.H {
		ch = m.H
	}
	if cw == m.W && ch == m.H {
		return m
	}
	startX := (m.W - cw) / 2
	startY := (m.H - ch) / 2

	out := NewImage(cw, ch)
	for y := 0; y < ch; y++ {
		srcOff := ((startY+y)*m.W + startX) * 3
		copy(out.Pix[y*cw*3:(y+1)*cw*3], m.Pix[srcOff:srcOff+cw*3])
	}
	return out
}

// AdjustGamma applies in-place gamma correction through a 256-entry lookup
// table. Gamma 1.0 is the identity and skips the table entirely.
func AdjustGamma(pix []byte, gamma float64) {
	if gamma == 1.0 {
		return
	}
	inv := 1.0 / gamma
	var table [256]byte
	for i := 0; i < 256; i++ {
		table[i] = byte(math.Pow(float64(i)/255.0, inv) * 255.0)
	}
	for i, v := range pix {
		pix[i] = table[v]
	}
}

// adjustContrast applies the affine contrast/brightness map with saturation.
func adjustContrast(pix []byte, contrast, brightness float64) {
	for i, v := range pix {
		out := math.Round(float64(v)*contrast + brightness)
		if out < 0 {
			out = 0
		} else if out > 255 {
			out = 255
		}
		pix[i] = byte(out)
	}
}
