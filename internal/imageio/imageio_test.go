package imageio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestDecode_JPEGOutput(t *testing.T) {
	data := encodePNG(createTestImage(40, 30, color.White))

	img, err := Decode(data, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if img.Format != "png" {
		t.Errorf("expected source format png, got %q", img.Format)
	}
	if img.Width != 40 || img.Height != 30 {
		t.Errorf("expected 40x30, got %dx%d", img.Width, img.Height)
	}
	if _, err := jpeg.Decode(bytes.NewReader(img.JPEG)); err != nil {
		t.Errorf("expected valid JPEG output: %v", err)
	}
}

func TestDecode_BMP(t *testing.T) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, createTestImage(10, 10, color.Black)); err != nil {
		t.Fatalf("failed to encode bmp: %v", err)
	}

	img, err := Decode(buf.Bytes(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Format != "bmp" {
		t.Errorf("expected bmp, got %q", img.Format)
	}
}

func TestDecode_Downscale(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		maxDim        int
		wantW, wantH  int
	}{
		{"landscape", 400, 200, 100, 100, 50},
		{"portrait", 200, 400, 100, 50, 100},
		{"square", 300, 300, 150, 150, 150},
		{"already small", 80, 60, 100, 80, 60},
		{"disabled", 400, 200, 0, 400, 200},
		{"thin strip keeps a pixel", 1000, 2, 100, 100, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data := encodePNG(createTestImage(tc.width, tc.height, color.Gray{Y: 128}))

			img, err := Decode(data, tc.maxDim)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if img.Width != tc.wantW || img.Height != tc.wantH {
				t.Errorf("got %dx%d; want %dx%d", img.Width, img.Height, tc.wantW, tc.wantH)
			}
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte("this is not an image"), 0)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.jpg"), 0)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoad_Directory(t *testing.T) {
	_, err := Load(t.TempDir(), 0)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode for directory, got %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face.png")
	if err := os.WriteFile(path, encodePNG(createTestImage(20, 20, color.White)), 0600); err != nil {
		t.Fatalf("failed to write: %v", err)
	}

	img, err := Load(path, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(img.JPEG) == 0 {
		t.Error("expected JPEG payload")
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	if err := os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF, 0x00}, 0600); err != nil {
		t.Fatalf("failed to write: %v", err)
	}

	if _, err := Load(path, 0); !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}
