package filehandler

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// ImageMetadata holds the EXIF facts worth showing next to an old photo.
// Scans of prints rarely carry any; camera originals usually do.
type ImageMetadata struct {
	DateTaken   time.Time `json:"dateTaken,omitzero"`
	HasDate     bool      `json:"hasDate"`
	CameraMake  string    `json:"cameraMake,omitempty"`
	CameraModel string    `json:"cameraModel,omitempty"`
}

// ExtractImageMetadata decodes EXIF metadata from in-memory image bytes using
// the imagemeta library. Only the metadata blocks are parsed, not the pixels.
func ExtractImageMetadata(data []byte) (*ImageMetadata, error) {
	exifData, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode EXIF metadata: %w", err)
	}

	metadata := &ImageMetadata{}

	// Priority: DateTimeOriginal > CreateDate > ModifyDate
	switch {
	case !exifData.DateTimeOriginal().IsZero():
		metadata.DateTaken = exifData.DateTimeOriginal()
		metadata.HasDate = true
	case !exifData.CreateDate().IsZero():
		metadata.DateTaken = exifData.CreateDate()
		metadata.HasDate = true
	case !exifData.ModifyDate().IsZero():
		metadata.DateTaken = exifData.ModifyDate()
		metadata.HasDate = true
	}

	metadata.CameraMake = strings.TrimSpace(exifData.Make)
	metadata.CameraModel = strings.TrimSpace(exifData.Model)

	log.Debug().
		Bool("has_date", metadata.HasDate).
		Str("camera_make", metadata.CameraMake).
		Msg("Image metadata extraction complete")

	return metadata, nil
}

// IsEmpty reports whether no useful field was found.
func (m *ImageMetadata) IsEmpty() bool {
	return m == nil || (!m.HasDate && m.CameraMake == "" && m.CameraModel == "")
}

// Summary renders the metadata as a short human-readable line, or "" when
// nothing is known.
func (m *ImageMetadata) Summary() string {
	if m.IsEmpty() {
		return ""
	}
	var parts []string
	if m.HasDate {
		parts = append(parts, m.DateTaken.Format("January 2, 2006"))
	}
	if camera := strings.TrimSpace(m.CameraMake + " " + m.CameraModel); camera != "" {
		parts = append(parts, camera)
	}
	return strings.Join(parts, " · ")
}
