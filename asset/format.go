package asset

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register GIF for Normalize
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP for Normalize
	_ "golang.org/x/image/tiff" // register TIFF for Normalize
	_ "golang.org/x/image/webp" // register WebP for Normalize
)

// Format is an embeddable raster encoding.
type Format string

const (
	PNG  Format = "PNG"
	JPEG Format = "JPG"
	PDF  Format = "PDF"
)

// MediaType returns the IANA media type of f.
func (f Format) MediaType() string {
	switch f {
	case PNG:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	case PDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// ClassifyRaster guesses the raster format of an image source from its
// reference alone: PNG when src contains ".png" or is a PNG data URL, JPEG
// otherwise. This is a naming heuristic and does not inspect any bytes; see
// Sniff for content detection.
func ClassifyRaster(src string) Format {
	if strings.Contains(src, ".png") || strings.HasPrefix(src, "data:image/png") {
		return PNG
	}
	return JPEG
}

var magic = []struct {
	prefix []byte
	name   string
}{
	{[]byte("\x89PNG\r\n\x1a\n"), "png"},
	{[]byte("\xff\xd8\xff"), "jpeg"},
	{[]byte("%PDF-"), "pdf"},
	{[]byte("GIF87a"), "gif"},
	{[]byte("GIF89a"), "gif"},
	{[]byte("BM"), "bmp"},
	{[]byte("II*\x00"), "tiff"},
	{[]byte("MM\x00*"), "tiff"},
}

// Sniff identifies a payload by its magic bytes. It returns "png", "jpeg",
// "pdf", "gif", "bmp", "tiff", "webp" or "" when unknown.
func Sniff(data []byte) string {
	for _, m := range magic {
		if bytes.HasPrefix(data, m.prefix) {
			return m.name
		}
	}
	if len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		return "webp"
	}
	return ""
}

// Normalize prepares a payload for embedding. PNG, JPEG and PDF payloads are
// returned unchanged; BMP, TIFF, WebP and GIF payloads are transcoded to PNG.
// For unchanged rasters the format comes from ClassifyRaster(src) so the
// naming heuristic stays authoritative; a payload whose bytes contradict it
// will fail at embed time.
func Normalize(src string, data []byte) ([]byte, Format, error) {
	switch kind := Sniff(data); kind {
	case "pdf":
		return data, PDF, nil
	case "gif", "bmp", "tiff", "webp":
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, "", &DecodeError{Source: short(src), Err: fmt.Errorf("%s: %w", kind, err)}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", &DecodeError{Source: short(src), Err: err}
		}
		return buf.Bytes(), PNG, nil
	}
	if MediaType(src) == "application/pdf" {
		return data, PDF, nil
	}
	return data, ClassifyRaster(src), nil
}
