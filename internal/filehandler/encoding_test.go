package filehandler

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	types := []string{"image/png", "image/jpeg", "image/webp"}

	for i := 0; i < 300; i++ {
		data := make([]byte, rng.IntN(2048))
		for j := range data {
			data[j] = byte(rng.UintN(256))
		}
		mimeType := types[i%len(types)]

		payload := Encode(&Image{MIMEType: mimeType, Data: data})
		if payload.MIMEType != mimeType {
			t.Fatalf("iteration %d: MIMEType = %q, want %q", i, payload.MIMEType, mimeType)
		}

		got, err := Decode(payload)
		if err != nil {
			t.Fatalf("iteration %d: Decode() error = %v", i, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("iteration %d: round trip changed %d bytes of data", i, len(data))
		}

		uriData, uriType, err := NewDataURI(payload).Bytes()
		if err != nil {
			t.Fatalf("iteration %d: DataURI.Bytes() error = %v", i, err)
		}
		if uriType != mimeType || !bytes.Equal(uriData, data) {
			t.Fatalf("iteration %d: data URI round trip mismatch", i)
		}
	}
}

func TestNewDataURI(t *testing.T) {
	got := NewDataURI(InlinePayload{MIMEType: "image/png", Data: "QUJD"})
	if got != "data:image/png;base64,QUJD" {
		t.Errorf("NewDataURI() = %q", got)
	}

	got = NewDataURI(InlinePayload{Data: "QUJD"})
	if got != "data:image/png;base64,QUJD" {
		t.Errorf("NewDataURI() without type = %q, want image/png default", got)
	}
}

func TestDataURIPayloadInvalid(t *testing.T) {
	for _, s := range []DataURI{
		"",
		"http://example.com/a.png",
		"data:image/png,QUJD",
		"data:image/png;base64",
	} {
		if _, err := s.Payload(); !errors.Is(err, ErrInvalidDataURI) {
			t.Errorf("Payload(%q) error = %v, want ErrInvalidDataURI", s, err)
		}
	}

	if _, _, err := DataURI("data:image/png;base64,!!!").Bytes(); err == nil {
		t.Error("expected error for malformed base64")
	}
}

func TestRestoredFilename(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	if got := RestoredFilename(ts); got != "restored-photo-1700000000123.png" {
		t.Errorf("RestoredFilename() = %q", got)
	}
}
