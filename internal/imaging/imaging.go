// Package imaging validates uploaded screenshots and re-encodes them for
// vision requests.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	"image/png"
	"slices"
	"strings"

	_ "golang.org/x/image/webp" // register decoder
)

// DefaultMaxSize is the upload limit when none is configured.
const DefaultMaxSize = 10 << 20

// MaxPixels bounds the decoded canvas. Larger images are rejected before
// decoding so a small compressed upload cannot claim gigabytes of memory.
const MaxPixels = 89_478_485

// AllowedContentTypes lists the accepted upload media types, in the order
// they are reported to clients.
var AllowedContentTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp", "image/gif"}

var (
	// ErrUnsupportedType is returned for content types outside AllowedContentTypes.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("image too large")
	// ErrInvalidImage is returned when the data cannot be decoded.
	ErrInvalidImage = errors.New("invalid image")
)

// Result is a decoded upload re-encoded as opaque PNG.
type Result struct {
	PNG    []byte
	Width  int
	Height int
	Format string
}

// Dimensions formats the size as "WxH".
func (r *Result) Dimensions() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// CheckContentType reports whether the media type is accepted.
// Parameters such as "; charset" are ignored.
func CheckContentType(contentType string) error {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if !slices.Contains(AllowedContentTypes, mediaType) {
		return ErrUnsupportedType
	}
	return nil
}

// CheckSize enforces the upload limit. A non-positive limit uses DefaultMaxSize.
func CheckSize(size, limit int64) error {
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	if size > limit {
		return ErrTooLarge
	}
	return nil
}

// Normalize decodes data, drops any alpha channel and re-encodes as PNG.
func Normalize(data []byte) (*Result, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, MaxPixels)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}

	// Composite over white so transparent regions do not turn black.
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	return &Result{
		PNG:    buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
	}, nil
}

// DataURL embeds PNG bytes in a data URL.
func DataURL(pngData []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)
}
