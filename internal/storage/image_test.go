package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func decodedSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("jpeg decode: %v", err)
	}
	return decoded.Bounds().Dx(), decoded.Bounds().Dy()
}

func TestProcessImage_PNG_ToJPEG(t *testing.T) {
	opts := OptionsFor(KindAvatar)
	opts.Aspect = Ratio{}
	out, ct, size, err := ProcessImage(bytes.NewReader(encodePNG(t, 120, 60)), opts)
	if err != nil {
		t.Fatalf("ProcessImage: %v", err)
	}
	if ct != "image/jpeg" {
		t.Fatalf("content type = %q, want image/jpeg", ct)
	}
	if size != int64(len(out)) {
		t.Fatalf("size = %d, want %d", size, len(out))
	}
	if w, h := decodedSize(t, out); w != 120 || h != 60 {
		t.Fatalf("dims = %dx%d, want 120x60", w, h)
	}
}

func TestProcessImage_Presets(t *testing.T) {
	tests := []struct {
		name  string
		kind  MediaKind
		w, h  int
		wantW int
		wantH int
	}{
		{"Avatar crops to square", KindAvatar, 300, 200, 200, 200},
		{"Avatar downscales", KindAvatar, 1024, 1024, 512, 512},
		{"Banner crops to 3:1", KindBanner, 900, 600, 900, 300},
		{"Cover crops to 16:9", KindCover, 1600, 1600, 1280, 720},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, _, err := ProcessImage(bytes.NewReader(encodePNG(t, tt.w, tt.h)), OptionsFor(tt.kind))
			if err != nil {
				t.Fatalf("ProcessImage: %v", err)
			}
			if w, h := decodedSize(t, out); w != tt.wantW || h != tt.wantH {
				t.Fatalf("dims = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestProcessImage_TooLarge(t *testing.T) {
	opts := OptionsFor(KindAvatar)
	opts.MaxBytes = 10
	payload := bytes.Repeat([]byte{0x00}, 11)
	if _, _, _, err := ProcessImage(bytes.NewReader(payload), opts); err != ErrTooLarge {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
}

func TestProcessImage_UnsupportedMagic(t *testing.T) {
	payload := bytes.Repeat([]byte{0x01}, 128)
	if _, _, _, err := ProcessImage(bytes.NewReader(payload), OptionsFor(KindCover)); err != ErrUnsupported {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}
