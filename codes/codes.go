// Package codes renders QR symbols and barcodes as PNG rasters ready for
// embedding. Generation never panics: failures are reported as
// *GenerationError and callers fall back to a placeholder.
package codes

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/ean"
	"github.com/boombuler/barcode/pdf417"
	"github.com/boombuler/barcode/qr"
	"golang.org/x/image/draw"

	pdfzone "github.com/prajwal-pl/dnd-pdf-zone"
)

// Symbologies accepted by Barcode.
const (
	Code128 = "code128"
	Code39  = "code39"
	EAN13   = "ean13"
	PDF417  = "pdf417"
)

const (
	qrMargin      = 1 // modules
	barcodeMargin = 2 // pixels
	minBarHeight  = 24
	pdf417Level   = 2 // error correction level
)

var (
	white  = color.Gray{Y: 0xff}
	black  = color.Gray{Y: 0x00}
	border = color.Gray{Y: 0xdd}
)

// GenerationError reports a value that could not be encoded in the
// requested symbology.
type GenerationError struct {
	Symbology string
	Value     string
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("codes: %s %q: %v", e.Symbology, e.Value, e.Err)
}

func (e *GenerationError) Unwrap() []error { return []error{pdfzone.ErrCodeGeneration, e.Err} }

// QR renders value as a QR symbol at error correction level M with a one
// module quiet zone, black on white, on a square canvas of sizePx pixels.
// The canvas grows to one pixel per module if sizePx is smaller than the
// symbol. An empty value yields Blank(sizePx, sizePx).
func QR(value string, sizePx int) ([]byte, error) {
	if value == "" {
		return Blank(sizePx, sizePx)
	}
	bc, err := qr.Encode(value, qr.M, qr.Auto)
	if err != nil {
		return nil, &GenerationError{Symbology: "qr", Value: value, Err: err}
	}
	b := bc.Bounds()
	n := b.Dx() + 2*qrMargin
	src := image.NewGray(image.Rect(0, 0, n, n))
	draw.Draw(src, src.Bounds(), image.NewUniform(white), image.Point{}, draw.Src)
	paintModules(src, bc, qrMargin, qrMargin)

	size := max(sizePx, n)
	dst := image.NewGray(image.Rect(0, 0, size, size))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return encode(dst)
}

// Barcode renders value in the given symbology. Linear symbologies use a
// bar width of max(1, floor((widthPx-10)/max(len(value),12))) pixels and a
// bar height of max(24, heightPx-8), inside a 2 pixel margin, with no text
// line. The canvas is widthPx x heightPx, enlarged when the symbol needs
// more room. PDF417 is scaled to fill the canvas inside the same margin.
// An empty value yields Blank(widthPx, heightPx).
func Barcode(value, symbology string, widthPx, heightPx int) ([]byte, error) {
	if value == "" {
		return Blank(widthPx, heightPx)
	}
	if symbology == "" {
		symbology = Code128
	}

	var (
		bc  barcode.Barcode
		err error
	)
	switch symbology {
	case Code128:
		bc, err = code128.Encode(value)
	case Code39:
		bc, err = code39.Encode(value, false, true)
	case EAN13:
		if n := len(value); n != 12 && n != 13 {
			err = fmt.Errorf("ean13 needs 12 or 13 digits, got %d", n)
			break
		}
		bc, err = ean.Encode(value)
	case PDF417:
		bc, err = pdf417.Encode(value, pdf417Level)
	default:
		err = fmt.Errorf("unknown symbology")
	}
	if err != nil {
		return nil, &GenerationError{Symbology: symbology, Value: value, Err: err}
	}

	if symbology == PDF417 {
		return stacked(bc, widthPx, heightPx)
	}
	return linear(bc, len(value), widthPx, heightPx)
}

func linear(bc barcode.Barcode, valueLen, widthPx, heightPx int) ([]byte, error) {
	barWidth := max(1, int(math.Floor(float64(widthPx-10)/float64(max(valueLen, 12)))))
	barHeight := max(minBarHeight, heightPx-8)

	modules := bc.Bounds().Dx()
	symbolW := modules*barWidth + 2*barcodeMargin
	symbolH := barHeight + 2*barcodeMargin
	w, h := max(widthPx, symbolW), max(heightPx, symbolH)

	dst := canvas(w, h)
	left := (w - symbolW) / 2
	top := (h - symbolH) / 2
	for m := 0; m < modules; m++ {
		if !isDark(bc.At(bc.Bounds().Min.X+m, bc.Bounds().Min.Y)) {
			continue
		}
		x0 := left + barcodeMargin + m*barWidth
		r := image.Rect(x0, top+barcodeMargin, x0+barWidth, top+barcodeMargin+barHeight)
		draw.Draw(dst, r, image.NewUniform(black), image.Point{}, draw.Src)
	}
	return encode(dst)
}

func stacked(bc barcode.Barcode, widthPx, heightPx int) ([]byte, error) {
	b := bc.Bounds()
	src := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	paintModules(src, bc, 0, 0)

	w := max(widthPx, b.Dx()+2*barcodeMargin)
	h := max(heightPx, b.Dy()+2*barcodeMargin)
	dst := canvas(w, h)
	inner := image.Rect(barcodeMargin, barcodeMargin, w-barcodeMargin, h-barcodeMargin)
	draw.NearestNeighbor.Scale(dst, inner, src, src.Bounds(), draw.Src, nil)
	return encode(dst)
}

// Blank returns a white PNG of the given size with a one pixel light grey
// border. It marks an empty or failed code.
func Blank(widthPx, heightPx int) ([]byte, error) {
	w, h := max(widthPx, 1), max(heightPx, 1)
	img := canvas(w, h)
	for x := 0; x < w; x++ {
		img.SetGray(x, 0, border)
		img.SetGray(x, h-1, border)
	}
	for y := 0; y < h; y++ {
		img.SetGray(0, y, border)
		img.SetGray(w-1, y, border)
	}
	return encode(img)
}

func canvas(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(white), image.Point{}, draw.Src)
	return img
}

func paintModules(dst *image.Gray, bc barcode.Barcode, offX, offY int) {
	b := bc.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if isDark(bc.At(x, y)) {
				dst.SetGray(offX+x-b.Min.X, offY+y-b.Min.Y, black)
			} else {
				dst.SetGray(offX+x-b.Min.X, offY+y-b.Min.Y, white)
			}
		}
	}
}

func isDark(c color.Color) bool {
	return color.GrayModel.Convert(c).(color.Gray).Y < 0x80
}

func encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("codes: encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
