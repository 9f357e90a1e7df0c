package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestInspectImagePNG(t *testing.T) {
	info, err := InspectImage(pngBytes(t, 4, 3))
	if err != nil {
		t.Fatalf("InspectImage: %v", err)
	}
	if info.Format != "png" || info.ContentType != "image/png" {
		t.Fatalf("unexpected format: %+v", info)
	}
	if info.Width != 4 || info.Height != 3 {
		t.Fatalf("unexpected dimensions: %+v", info)
	}
}

func TestInspectImageRejects(t *testing.T) {
	if _, err := InspectImage(nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty: want ErrEmpty, got %v", err)
	}
	if _, err := InspectImage([]byte("%PDF-1.7 not an image")); !errors.Is(err, ErrNotAnImage) {
		t.Fatalf("pdf: want ErrNotAnImage, got %v", err)
	}
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"></svg>`)
	if _, err := InspectImage(svg); !errors.Is(err, ErrNotAnImage) {
		t.Fatalf("svg: want ErrNotAnImage, got %v", err)
	}
}

func TestCheckPDF(t *testing.T) {
	if err := CheckPDF([]byte("%PDF-1.4\n%...")); err != nil {
		t.Fatalf("valid pdf: %v", err)
	}
	if err := CheckPDF([]byte("\n%PDF-1.4")); err != nil {
		t.Fatalf("leading whitespace: %v", err)
	}
	if err := CheckPDF([]byte("hello")); !errors.Is(err, ErrNotAPDF) {
		t.Fatalf("text: want ErrNotAPDF, got %v", err)
	}
	if err := CheckPDF(pngBytes(t, 2, 2)); !errors.Is(err, ErrNotAPDF) {
		t.Fatalf("png: want ErrNotAPDF, got %v", err)
	}
	if err := CheckPDF(nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty: want ErrEmpty, got %v", err)
	}
}

func TestReadLimited(t *testing.T) {
	data, err := ReadLimited(strings.NewReader("abcd"), 4)
	if err != nil || string(data) != "abcd" {
		t.Fatalf("at limit: data=%q err=%v", data, err)
	}
	if _, err := ReadLimited(strings.NewReader("abcde"), 4); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("over limit: want ErrTooLarge got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"Barn Photo (1).JPG":     "barn-photo-1-.jpg",
		`C:\Users\me\Waiver.pdf`: "waiver.pdf",
		"../../etc/passwd":       "passwd",
		"   ":                    "file",
		"horse_lessons-2024.png": "horse_lessons-2024.png",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Fatalf("SanitizeFilename(%q): want=%q got=%q", in, want, got)
		}
	}
}

func TestSniff(t *testing.T) {
	if got := Sniff(pngBytes(t, 2, 2)); got != "image/png" {
		t.Fatalf("png: want=image/png got=%q", got)
	}
	if got := Sniff([]byte("%PDF-1.7\n%...")); got != "application/pdf" {
		t.Fatalf("pdf: want=application/pdf got=%q", got)
	}
	if got := Sniff([]byte("hello world")); got != "text/plain" {
		t.Fatalf("text: want=text/plain got=%q", got)
	}
	if got := Sniff(nil); got != "application/octet-stream" {
		t.Fatalf("empty: want=application/octet-stream got=%q", got)
	}
}
