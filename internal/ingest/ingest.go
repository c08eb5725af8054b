// Package ingest turns an uploaded tablet photo into the in-memory payload
// submitted to the extraction model.
package ingest

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

var (
	// ErrInputMissing is returned when no file was supplied.
	ErrInputMissing = errors.New("no file uploaded")
	ErrTooLarge     = errors.New("image too large")
)

// MaxImageSize caps the number of bytes read from a single upload.
const MaxImageSize = 20 * 1024 * 1024 // 20 MB

// ImagePayload is one uploaded image. It is created once per submission and
// never modified afterwards.
type ImagePayload struct {
	mimeType string
	data     []byte
}

// New reads r to EOF and packages the bytes with the declared mimeType.
func New(r io.Reader, mimeType string) (*ImagePayload, error) {
	if r == nil {
		return nil, ErrInputMissing
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, MaxImageSize)
	}
	return &ImagePayload{mimeType: mimeType, data: data}, nil
}

// FromMultipart builds a payload from a multipart upload, using the part's
// declared Content-Type.
func FromMultipart(file multipart.File, header *multipart.FileHeader) (*ImagePayload, error) {
	if file == nil || header == nil {
		return nil, ErrInputMissing
	}
	return New(file, header.Header.Get("Content-Type"))
}

// MIMEType returns the declared content type.
func (p *ImagePayload) MIMEType() string { return p.mimeType }

// Data returns the raw image bytes. Callers must not modify the slice.
func (p *ImagePayload) Data() []byte { return p.data }

// Size returns the payload length in bytes.
func (p *ImagePayload) Size() int { return len(p.data) }

// Base64 returns the standard base64 encoding of the image bytes.
func (p *ImagePayload) Base64() string {
	return base64.StdEncoding.EncodeToString(p.data)
}

// DataURL returns the image as an RFC 2397 data URL.
func (p *ImagePayload) DataURL() string {
	return "data:" + p.mimeType + ";base64," + p.Base64()
}

// allowedImageTypes is the set of MIME types accepted by the upload filter.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// DetectMIME sniffs data and returns the detected MIME type and true if it is
// an accepted tablet photo format (JPEG or PNG), or ("", false) otherwise.
func DetectMIME(data []byte) (string, bool) {
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// WithMIMEType returns a copy of p that reports mimeType. The image bytes are
// shared.
func (p *ImagePayload) WithMIMEType(mimeType string) *ImagePayload {
	return &ImagePayload{mimeType: mimeType, data: p.data}
}
