// Package imageio loads images from disk and normalizes them into the JPEG
// payload the face extractors accept.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const jpegQuality = 95

var (
	// ErrNotFound is returned when the image path does not exist.
	ErrNotFound = errors.New("image file not found")
	// ErrDecode is returned when the file is not a decodable image.
	ErrDecode = errors.New("error reading image")
)

// Image is a decoded image re-encoded as JPEG for the extractor.
type Image struct {
	Format string // source format reported by the decoder
	Width  int    // dimensions after any downscaling
	Height int
	JPEG   []byte
}

// Load reads and decodes the image at path.
func Load(path string, maxDim int) (*Image, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrDecode, path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own argument
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return Decode(data, maxDim)
}

// Decode decodes data, downscales it to fit within maxDim (0 disables) while
// keeping aspect ratio, and encodes it as JPEG.
func Decode(data []byte, maxDim int) (*Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrDecode)
	}

	if maxDim > 0 && (bounds.Dx() > maxDim || bounds.Dy() > maxDim) {
		img = resize(img, maxDim)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	b := img.Bounds()
	return &Image{Format: format, Width: b.Dx(), Height: b.Dy(), JPEG: buf.Bytes()}, nil
}

func resize(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = max(1, int(float64(height)*float64(maxSize)/float64(width)))
	} else {
		newHeight = maxSize
		newWidth = max(1, int(float64(width)*float64(maxSize)/float64(height)))
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
	return resized
}
