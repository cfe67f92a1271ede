package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrMalformedMedia indicates a payload that does not parse as the media
// format it claims to be (e.g. a data URI without a mime prefix).
var ErrMalformedMedia = errors.New("malformed media payload")

// ErrMediaDecode indicates a local decoding failure, such as an unreadable
// video file or a missing decoder binary.
var ErrMediaDecode = errors.New("media decode failed")

const maxFileSize = 10 << 20 // 10MB

// EncodeFile reads the file at path and returns its mime type and base64
// body without a data-URI wrapper. The mime type comes from the file
// extension when known, otherwise from content sniffing.
func EncodeFile(path string) (mimeType, b64 string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) > maxFileSize {
		return "", "", fmt.Errorf("%w: file exceeds %d bytes", ErrMalformedMedia, maxFileSize)
	}
	return EncodeBytes(data, mime.TypeByExtension(filepath.Ext(path)))
}

// EncodeBytes base64-encodes raw media bytes. When declaredMime is empty the
// mime type is sniffed from the content.
func EncodeBytes(data []byte, declaredMime string) (mimeType, b64 string, err error) {
	if len(data) == 0 {
		return "", "", fmt.Errorf("%w: empty payload", ErrMalformedMedia)
	}
	mimeType = declaredMime
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return mimeType, base64.StdEncoding.EncodeToString(data), nil
}

// DataURL composes a self-describing data URI from a mime type and base64 body.
func DataURL(mimeType, b64 string) string {
	return "data:" + mimeType + ";base64," + b64
}

// SplitDataURL decomposes a data URI into its mime type and base64 body.
// Returns ErrMalformedMedia when the URI lacks a `:<mime>;` prefix.
func SplitDataURL(dataURL string) (mimeType, b64 string, err error) {
	colon := strings.Index(dataURL, ":")
	semi := strings.Index(dataURL, ";")
	if colon < 0 || semi < 0 || semi <= colon+1 {
		return "", "", fmt.Errorf("%w: data URI has no mime prefix", ErrMalformedMedia)
	}
	mimeType = dataURL[colon+1 : semi]

	comma := strings.Index(dataURL, ",")
	if comma < 0 || comma < semi {
		return "", "", fmt.Errorf("%w: data URI has no payload separator", ErrMalformedMedia)
	}
	return mimeType, dataURL[comma+1:], nil
}
