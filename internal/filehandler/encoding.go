package filehandler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultOutputMIMEType is assumed when a generated image arrives without a
// declared media type.
const DefaultOutputMIMEType = "image/png"

// InlinePayload is an image embedded directly in a request or response.
type InlinePayload struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64 (standard alphabet, padded)
}

// Encode converts an image to its inline payload form.
func Encode(img *Image) InlinePayload {
	return InlinePayload{
		MIMEType: img.MIMEType,
		Data:     base64.StdEncoding.EncodeToString(img.Data),
	}
}

// Decode returns the raw bytes of an inline payload.
func Decode(p InlinePayload) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", p.MIMEType, err)
	}
	return data, nil
}

// DataURI is a self-contained image reference of the form
// data:<mediaType>;base64,<payload>.
type DataURI string

// ErrInvalidDataURI is returned when a string is not a base64 data URI.
var ErrInvalidDataURI = errors.New("invalid data URI")

// NewDataURI builds a data URI from an inline payload. An empty media type
// becomes DefaultOutputMIMEType.
func NewDataURI(p InlinePayload) DataURI {
	mimeType := p.MIMEType
	if mimeType == "" {
		mimeType = DefaultOutputMIMEType
	}
	return DataURI("data:" + mimeType + ";base64," + p.Data)
}

// Payload splits the URI back into media type and base64 data.
func (d DataURI) Payload() (InlinePayload, error) {
	rest, ok := strings.CutPrefix(string(d), "data:")
	if !ok {
		return InlinePayload{}, ErrInvalidDataURI
	}
	header, data, ok := strings.Cut(rest, ",")
	if !ok {
		return InlinePayload{}, ErrInvalidDataURI
	}
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return InlinePayload{}, fmt.Errorf("%w: payload is not base64", ErrInvalidDataURI)
	}
	return InlinePayload{MIMEType: mimeType, Data: data}, nil
}

// Bytes decodes the image held by the URI.
func (d DataURI) Bytes() ([]byte, string, error) {
	p, err := d.Payload()
	if err != nil {
		return nil, "", err
	}
	data, err := Decode(p)
	if err != nil {
		return nil, "", err
	}
	return data, p.MIMEType, nil
}

// RestoredFilename is the download name for a restored photo saved at t.
func RestoredFilename(t time.Time) string {
	return "restored-photo-" + strconv.FormatInt(t.UnixMilli(), 10) + ".png"
}
