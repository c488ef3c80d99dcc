// Package imaging decides whether downloaded bytes are a genuine image and
// crops face regions out of them. File types are always inferred from
// content; URL extensions and Content-Type headers are never trusted.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"

	// Register every decoder we accept. jpeg/png/gif come from the standard
	// registry; bmp/tiff/webp from golang.org/x/image.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUndeterminedType marks bytes that no available method could identify
// as a genuine image. Such bytes must never be written to disk.
var ErrUndeterminedType = errors.New("cannot determine file type")

// Sniffer is the optional deep file-type check. A successful decode is the
// primary evidence that bytes are a genuine image; the sniffer only names
// undecodable payloads like HTML error pages served with a 200 status. When
// absent the extra detail is simply skipped.
type Sniffer interface {
	// Sniff returns the detected MIME type, or "" when undetectable.
	Sniff(data []byte) string
}

// ContentSniffer detects MIME types from the leading bytes of the payload.
type ContentSniffer struct{}

// Sniff implements Sniffer using the stdlib content detector.
func (ContentSniffer) Sniff(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	mediaType := http.DetectContentType(data)
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	return mediaType
}

// Validator checks downloaded bytes. The sniffer is selected once at
// construction rather than per row; pass nil to run decode-only.
type Validator struct {
	sniffer Sniffer
}

// NewValidator creates a Validator with the given optional sniffer.
func NewValidator(sniffer Sniffer) *Validator {
	return &Validator{sniffer: sniffer}
}

// Validate decodes data and returns the canonical format name ("jpeg",
// "png", ...) to use as the file extension. contentTypeHint is the declared
// Content-Type; it only ever shows up in error details.
func (v *Validator) Validate(data []byte, contentTypeHint string) (string, error) {
	// A successful decode settles it. The sniffer must never veto a
	// decodable image; its table is narrower than the decoder registry
	// (no tiff entry, for one).
	_, format, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return format, nil
	}

	if v.sniffer != nil {
		if sniffed := v.sniffer.Sniff(data); sniffed != "" && !strings.HasPrefix(sniffed, "image/") {
			return "", fmt.Errorf("%w (sniffed %s, declared %s)", ErrUndeterminedType, sniffed, hintOrNone(contentTypeHint))
		}
	}

	return "", fmt.Errorf("%w (declared %s)", ErrUndeterminedType, hintOrNone(contentTypeHint))
}

func hintOrNone(contentType string) string {
	if contentType == "" {
		return "no content-type"
	}
	return contentType
}
