package processing

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Processor decodes uploaded images and prepares payloads for detection models
type Processor struct {
	config Config
}

// Config holds configuration for the processor
type Config struct {
	// ProbeSize is the edge length of the synthetic warmup image
	ProbeSize int
	// ProbeQuality is the JPEG quality used for the warmup image
	ProbeQuality int
}

// NewProcessor creates a new image processor with default configuration
func NewProcessor() *Processor {
	return &Processor{
		config: Config{
			ProbeSize:    1,
			ProbeQuality: 90,
		},
	}
}

// NewProcessorWithConfig creates a new image processor with custom configuration
func NewProcessorWithConfig(config Config) *Processor {
	if config.ProbeSize < 1 {
		config.ProbeSize = 1
	}
	if config.ProbeQuality < 1 || config.ProbeQuality > 100 {
		config.ProbeQuality = 90
	}
	return &Processor{config: config}
}

// Decode decodes an image from raw bytes with WebP support
func (p *Processor) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image: empty input")
	}

	// Registered decoders first (jpeg, png, gif, bmp, tiff, webp)
	if img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode for variants x/image does not handle
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// ValidateImage checks that a decoded image has a non-zero area
func (p *Processor) ValidateImage(img image.Image) error {
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return fmt.Errorf("image has zero area: %dx%d", bounds.Dx(), bounds.Dy())
	}
	return nil
}

// ProbeImage encodes a small solid white JPEG used to warm up cold models
func (p *Processor) ProbeImage() ([]byte, error) {
	img := imaging.New(p.config.ProbeSize, p.config.ProbeSize, color.White)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.config.ProbeQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode probe image: %w", err)
	}
	return buf.Bytes(), nil
}

// ContentType sniffs the MIME type of image bytes for the upload header
func ContentType(data []byte) string {
	ct := http.DetectContentType(data)
	if strings.HasPrefix(ct, "image/") {
		return ct
	}
	return "application/octet-stream"
}
