package filehandler

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// DefaultThumbnailMaxDimension is the maximum dimension (width or height) for previews.
const DefaultThumbnailMaxDimension = 1024

// GenerateThumbnail downscales an image so that neither side exceeds
// maxDimension and encodes it as JPEG. Images already within bounds are
// returned unchanged with their own media type.
func GenerateThumbnail(data []byte, mimeType string, maxDimension int) ([]byte, string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	origWidth, origHeight := bounds.Dx(), bounds.Dy()
	if origWidth <= maxDimension && origHeight <= maxDimension {
		return data, mimeType, nil
	}

	newWidth, newHeight := calculateThumbnailDimensions(origWidth, origHeight, maxDimension)

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	log.Debug().
		Int("orig_width", origWidth).
		Int("orig_height", origHeight).
		Int("width", newWidth).
		Int("height", newHeight).
		Int("output_size", buf.Len()).
		Msg("Thumbnail generation complete")

	return buf.Bytes(), "image/jpeg", nil
}

// calculateThumbnailDimensions calculates new dimensions maintaining aspect ratio.
func calculateThumbnailDimensions(width, height, maxDimension int) (int, int) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}

	if width > height {
		newHeight := max(1, int(float64(height)*float64(maxDimension)/float64(width)))
		return maxDimension, newHeight
	}

	newWidth := max(1, int(float64(width)*float64(maxDimension)/float64(height)))
	return newWidth, maxDimension
}
