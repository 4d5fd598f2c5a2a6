// Package imaging re-encodes uploaded images into size-bounded WebP.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoders
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ContentType is the MIME type of every transcoded image.
const ContentType = "image/webp"

// DefaultMaxPixels caps the declared width*height of an input image.
const DefaultMaxPixels = 40_000_000

var (
	ErrUnsupportedImage = errors.New("unsupported image")
	ErrImageTooLarge    = errors.New("image dimensions too large")
)

// Transcoder decodes jpeg, png, gif or webp input and emits lossy WebP.
type Transcoder struct {
	Quality   float32
	MaxPixels int
}

func NewTranscoder(quality int) *Transcoder {
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	return &Transcoder{Quality: float32(quality), MaxPixels: DefaultMaxPixels}
}

// FitWidth shrinks the image to at most maxWidth pixels wide, keeping the
// aspect ratio. Narrower images keep their size.
func (t *Transcoder) FitWidth(r io.Reader, maxWidth int) ([]byte, error) {
	src, err := t.decode(r)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return t.encode(src)
	}
	h := b.Dy() * maxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return t.encode(dst)
}

// Cover scales the image to fill exactly w×h, cropping the overflow around the centre.
func (t *Transcoder) Cover(r io.Reader, w, h int) ([]byte, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", w, h)
	}
	src, err := t.decode(r)
	if err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, coverRect(src.Bounds(), w, h), xdraw.Src, nil)
	return t.encode(dst)
}

// coverRect is the centred region of b with the aspect ratio w:h.
func coverRect(b image.Rectangle, w, h int) image.Rectangle {
	sw, sh := b.Dx(), b.Dy()
	cw, ch := sw, sh
	if sw*h > sh*w {
		cw = sh * w / h
	} else {
		ch = sw * h / w
	}
	if cw < 1 {
		cw = 1
	}
	if ch < 1 {
		ch = 1
	}
	x0 := b.Min.X + (sw-cw)/2
	y0 := b.Min.Y + (sh-ch)/2
	return image.Rect(x0, y0, x0+cw, y0+ch)
}

// decode reads the header first so oversized images are rejected before
// any pixel buffer is allocated.
func (t *Transcoder) decode(r io.Reader) (image.Image, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnsupportedImage)
	}
	if limit := t.MaxPixels; limit > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(limit) {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return img, nil
}

func (t *Transcoder) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: t.Quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
