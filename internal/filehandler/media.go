// Package filehandler loads, inspects and encodes the photos handled by the
// restoration workflow.
//
// Only the formats the upload control accepts are supported: PNG, JPEG and
// WebP. An Image keeps the raw bytes together with the facts derived from
// them (media type, dimensions, EXIF date and camera), so callers never have
// to re-read the source.
package filehandler

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder for DecodeConfig
	_ "image/png"  // register decoder for DecodeConfig
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp" // register decoder for DecodeConfig
)

// SupportedImageExtensions maps the accepted file extensions to their media types.
var SupportedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ErrUnsupportedType is returned for files that are not PNG, JPEG or WebP.
var ErrUnsupportedType = errors.New("unsupported image type")

// Image is a photo selected by the user. It is immutable once loaded.
type Image struct {
	Name     string         `json:"name"`
	MIMEType string         `json:"mimeType"`
	Size     int            `json:"size"`
	Width    int            `json:"width,omitempty"`
	Height   int            `json:"height,omitempty"`
	Metadata *ImageMetadata `json:"metadata,omitempty"`

	// Data is the raw file content. It never leaves the process as JSON.
	Data []byte `json:"-"`
}

// IsSupportedType reports whether mimeType is one of the accepted image types.
func IsSupportedType(mimeType string) bool {
	mimeType = normalizeMIMEType(mimeType)
	for _, t := range SupportedImageExtensions {
		if t == mimeType {
			return true
		}
	}
	return false
}

// IsImage returns true if the file extension corresponds to an accepted image.
func IsImage(ext string) bool {
	_, ok := SupportedImageExtensions[strings.ToLower(ext)]
	return ok
}

// GetMIMEType returns the MIME type for a given file extension.
func GetMIMEType(ext string) (string, error) {
	if mimeType, ok := SupportedImageExtensions[strings.ToLower(ext)]; ok {
		return mimeType, nil
	}
	return "", fmt.Errorf("%w: extension %q", ErrUnsupportedType, ext)
}

// LoadImage reads an image from disk. The extension decides the declared
// media type; the content is sniffed and inspected like an upload.
func LoadImage(filePath string) (*Image, error) {
	log.Debug().Str("path", filePath).Msg("Loading image file")

	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", filePath)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	declared, err := GetMIMEType(filepath.Ext(filePath))
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return NewImage(filepath.Base(filePath), declared, data)
}

// NewImage builds an Image from uploaded bytes. declaredType is the type the
// client claimed. The content decides the media type; a PNG, JPEG or WebP
// claim never admits bytes of another format.
func NewImage(name, declaredType string, data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image %q is empty", name)
	}

	mimeType, err := resolveMIMEType(declaredType, data)
	if err != nil {
		return nil, err
	}

	img := &Image{
		Name:     name,
		MIMEType: mimeType,
		Size:     len(data),
		Data:     data,
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		log.Debug().Err(err).Str("name", name).Msg("Could not read image dimensions")
	} else {
		img.Width, img.Height = cfg.Width, cfg.Height
	}

	meta, err := ExtractImageMetadata(data)
	if err != nil {
		log.Debug().Err(err).Str("name", name).Msg("No EXIF metadata, continuing without it")
	} else {
		img.Metadata = meta
	}

	log.Info().
		Str("name", name).
		Str("mime_type", mimeType).
		Int("size_bytes", img.Size).
		Int("width", img.Width).
		Int("height", img.Height).
		Msg("Image loaded")

	return img, nil
}

// resolveMIMEType trusts the sniffed type. The declared type is only
// considered when sniffing recognises nothing, and then the bytes must still
// decode as one of the accepted formats.
func resolveMIMEType(declared string, data []byte) (string, error) {
	sniffed := normalizeMIMEType(http.DetectContentType(data))
	if IsSupportedType(sniffed) {
		return sniffed, nil
	}
	if sniffed != "application/octet-stream" || !IsSupportedType(declared) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, sniffed)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: declared %s but content does not decode: %v", ErrUnsupportedType, normalizeMIMEType(declared), err)
	}
	decoded := normalizeMIMEType("image/" + format)
	if !IsSupportedType(decoded) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, decoded)
	}
	return decoded, nil
}

// normalizeMIMEType strips parameters and lowercases a media type.
func normalizeMIMEType(s string) string {
	if mediaType, _, err := mime.ParseMediaType(s); err == nil {
		s = mediaType
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "image/jpg" {
		return "image/jpeg"
	}
	return s
}
