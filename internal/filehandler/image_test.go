package filehandler

import (
	"testing"
	"time"
)

func TestImageMetadataSummary(t *testing.T) {
	tests := []struct {
		name string
		meta *ImageMetadata
		want string
	}{
		{"nil", nil, ""},
		{"empty", &ImageMetadata{}, ""},
		{
			name: "date and camera",
			meta: &ImageMetadata{
				DateTaken:   time.Date(1987, 7, 4, 12, 0, 0, 0, time.UTC),
				HasDate:     true,
				CameraMake:  "Canon",
				CameraModel: "AE-1",
			},
			want: "July 4, 1987 · Canon AE-1",
		},
		{
			name: "camera only",
			meta: &ImageMetadata{CameraModel: "Scanner"},
			want: "Scanner",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractImageMetadataNoExif(t *testing.T) {
	// A synthetic PNG carries no EXIF block; the call must not panic and
	// whatever it returns must be empty.
	meta, err := ExtractImageMetadata(encodePNG(t, 4, 4))
	if err == nil && !meta.IsEmpty() {
		t.Errorf("expected empty metadata, got %+v", meta)
	}
}
