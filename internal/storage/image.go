package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

var (
	ErrTooLarge     = errors.New("file too large")
	ErrInvalidImage = errors.New("invalid image")
	ErrUnsupported  = errors.New("unsupported image type")
)

type ImageProcessOptions struct {
	MaxBytes    int64
	MaxDim      int
	JPEGQuality int
	// Aspect is the target width:height ratio; the source is center-cropped
	// to it before scaling. A zero ratio keeps the source shape.
	Aspect Ratio
	// If source has alpha (e.g. PNG), flatten onto this background.
	FlattenBackground colorRGB
}

type colorRGB struct{ R, G, B uint8 }

type Ratio struct{ W, H int }

var white = colorRGB{R: 255, G: 255, B: 255}

// OptionsFor returns the processing preset of a media kind.
func OptionsFor(kind MediaKind) ImageProcessOptions {
	switch kind {
	case KindBanner:
		return ImageProcessOptions{MaxBytes: 8 << 20, MaxDim: 1500, JPEGQuality: 82, Aspect: Ratio{3, 1}, FlattenBackground: white}
	case KindCover:
		return ImageProcessOptions{MaxBytes: 8 << 20, MaxDim: 1280, JPEGQuality: 82, Aspect: Ratio{16, 9}, FlattenBackground: white}
	default:
		return ImageProcessOptions{MaxBytes: 5 << 20, MaxDim: 512, JPEGQuality: 85, Aspect: Ratio{1, 1}, FlattenBackground: white}
	}
}

// Detect allowed types by magic number.
func detectMagic(header []byte) (string, error) {
	if len(header) < 12 {
		return "", ErrInvalidImage
	}
	// JPEG: FF D8 FF
	if header[0] == 0xFF && header[1] == 0xD8 && header[2] == 0xFF {
		return "image/jpeg", nil
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if bytes.Equal(header[:8], []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}) {
		return "image/png", nil
	}
	// WebP: RIFF....WEBP
	if string(header[0:4]) == "RIFF" && string(header[8:12]) == "WEBP" {
		return "image/webp", nil
	}
	return "", ErrUnsupported
}

// cropToAspect returns the centered sub-rectangle of b with the given ratio.
func cropToAspect(b image.Rectangle, r Ratio) image.Rectangle {
	if r.W <= 0 || r.H <= 0 {
		return b
	}
	w, h := b.Dx(), b.Dy()
	if w*r.H > h*r.W {
		cw := max(h*r.W/r.H, 1)
		x0 := b.Min.X + (w-cw)/2
		return image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	}
	ch := max(w*r.H/r.W, 1)
	y0 := b.Min.Y + (h-ch)/2
	return image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
}

// fitWithin scales (w, h) down to fit maxDim, keeping the ratio. It never upscales.
func fitWithin(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		return maxDim, max(h*maxDim/w, 1)
	}
	return max(w*maxDim/h, 1), maxDim
}

// ProcessImage reads an uploaded image, validates it by magic number, crops
// and downscales it per opts and re-encodes it as JPEG.
func ProcessImage(r io.Reader, opts ImageProcessOptions) ([]byte, string, int64, error) {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 5 << 20
	}
	if opts.MaxDim <= 0 {
		opts.MaxDim = 2048
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 85
	}

	data, err := io.ReadAll(io.LimitReader(r, opts.MaxBytes+1))
	if err != nil {
		return nil, "", 0, err
	}
	if int64(len(data)) > opts.MaxBytes {
		return nil, "", 0, ErrTooLarge
	}
	if len(data) < 12 {
		return nil, "", 0, ErrInvalidImage
	}

	srcType, err := detectMagic(data[:12])
	if err != nil {
		return nil, "", 0, err
	}

	var img image.Image
	switch srcType {
	case "image/jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	case "image/png":
		img, err = png.Decode(bytes.NewReader(data))
	case "image/webp":
		img, err = webp.Decode(bytes.NewReader(data))
	default:
		return nil, "", 0, ErrUnsupported
	}
	if err != nil {
		return nil, "", 0, fmt.Errorf("decode: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, "", 0, ErrInvalidImage
	}

	src := cropToAspect(bounds, opts.Aspect)
	tw, th := fitWithin(src.Dx(), src.Dy(), opts.MaxDim)

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	bg := image.NewUniform(color.RGBA{R: opts.FlattenBackground.R, G: opts.FlattenBackground.G, B: opts.FlattenBackground.B, A: 255})
	draw.Draw(dst, dst.Bounds(), bg, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: opts.JPEGQuality}); err != nil {
		return nil, "", 0, fmt.Errorf("encode: %w", err)
	}
	return out.Bytes(), "image/jpeg", int64(out.Len()), nil
}
