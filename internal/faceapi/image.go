package faceapi

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// MaxImageBytes caps how much image data is read.
const MaxImageBytes = 10 << 20

// ErrImageUnreadable is returned when the image cannot be read or encoded.
var ErrImageUnreadable = errors.New("image unreadable")

// EncodeImage reads the file at path and returns it as a data URI.
func EncodeImage(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageUnreadable, err)
	}
	defer f.Close()

	return EncodeImageReader(f)
}

// EncodeImageReader reads r fully and returns it as a data URI. The MIME
// type is sniffed from the content.
func EncodeImageReader(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageUnreadable, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty image", ErrImageUnreadable)
	}
	if len(data) > MaxImageBytes {
		return "", fmt.Errorf("%w: larger than %d bytes", ErrImageUnreadable, MaxImageBytes)
	}

	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w: content type %s is not an image", ErrImageUnreadable, mime)
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// IsDataURI reports whether s already looks like an encoded image.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:image/") && strings.Contains(s, ";base64,")
}
