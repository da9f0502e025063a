package filehandler

import (
	"bytes"
	"image"
	"testing"
)

func TestGenerateThumbnailDownscales(t *testing.T) {
	data := encodePNG(t, 300, 150)

	thumb, mimeType, err := GenerateThumbnail(data, "image/png", 100)
	if err != nil {
		t.Fatalf("GenerateThumbnail() error = %v", err)
	}
	if mimeType != "image/jpeg" {
		t.Errorf("mimeType = %q, want image/jpeg", mimeType)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(thumb))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Errorf("thumbnail = %dx%d, want 100x50", cfg.Width, cfg.Height)
	}
}

func TestGenerateThumbnailSmallImageUnchanged(t *testing.T) {
	data := encodePNG(t, 20, 20)

	thumb, mimeType, err := GenerateThumbnail(data, "image/png", 100)
	if err != nil {
		t.Fatalf("GenerateThumbnail() error = %v", err)
	}
	if mimeType != "image/png" || !bytes.Equal(thumb, data) {
		t.Error("small image should be returned unchanged")
	}
}

func TestCalculateThumbnailDimensions(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{4000, 3000, 1024, 1024, 768},
		{3000, 4000, 1024, 768, 1024},
		{800, 600, 1024, 800, 600},
		{5000, 1, 1024, 1024, 1},
	}
	for _, tt := range tests {
		w, h := calculateThumbnailDimensions(tt.w, tt.h, tt.max)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("calculateThumbnailDimensions(%d, %d, %d) = %d, %d; want %d, %d",
				tt.w, tt.h, tt.max, w, h, tt.wantW, tt.wantH)
		}
	}
}
