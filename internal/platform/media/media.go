package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrEmpty      = errors.New("empty payload")
	ErrNotAnImage = errors.New("payload is not a supported image")
	ErrNotAPDF    = errors.New("payload is not a PDF")
	ErrTooLarge   = errors.New("payload too large")
)

// ImageInfo is what DecodeConfig learned about an uploaded image.
type ImageInfo struct {
	Format      string
	ContentType string
	Width       int
	Height      int
}

const (
	ContentTypePDF         = "application/pdf"
	ContentTypeOctetStream = "application/octet-stream"
)

// InspectImage sniffs data as an image type and decodes its header with one
// of the registered decoders. ContentType is the sniffed type, never the
// client's claim.
func InspectImage(data []byte) (ImageInfo, error) {
	if len(data) == 0 {
		return ImageInfo{}, ErrEmpty
	}
	ct := Sniff(data)
	if !strings.HasPrefix(ct, "image/") {
		return ImageInfo{}, fmt.Errorf("%w: detected %s", ErrNotAnImage, ct)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}
	return ImageInfo{
		Format:      format,
		ContentType: ct,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

// CheckPDF accepts data only when its bytes sniff as a PDF.
func CheckPDF(data []byte) error {
	if len(data) == 0 {
		return ErrEmpty
	}
	if ct := Sniff(data); ct != ContentTypePDF {
		return fmt.Errorf("%w: detected %s", ErrNotAPDF, ct)
	}
	return nil
}

// Sniff detects the content type from the payload itself, without
// parameters such as charset.
func Sniff(data []byte) string {
	if len(data) == 0 {
		return ContentTypeOctetStream
	}
	ct, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return strings.TrimSpace(ct)
}

// ReadLimited reads at most max bytes; larger payloads are an error.
func ReadLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, max)
	}
	return data, nil
}

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// SanitizeFilename lowercases the base name and collapses anything outside
// [a-z0-9._-] into single dashes.
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if base == "." || base == "/" {
		base = ""
	}
	base = strings.ToLower(base)
	base = unsafeNameChars.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-.")
	if len(base) > 80 {
		ext := filepath.Ext(base)
		if len(ext) > 10 {
			ext = ""
		}
		base = strings.TrimRight(base[:80-len(ext)], "-.") + ext
	}
	if base == "" {
		return "file"
	}
	return base
}
