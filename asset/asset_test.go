package asset_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/image/bmp"

	pdfzone "github.com/prajwal-pl/dnd-pdf-zone"
	"github.com/prajwal-pl/dnd-pdf-zone/asset"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeDataURL(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    string
		wantErr bool
	}{
		{"base64", "data:text/plain;base64,aGVsbG8=", "hello", false},
		{"unpadded", "data:text/plain;base64,aGVsbG8", "hello", false},
		{"whitespace", "data:text/plain;base64,aGVs\nbG8=", "hello", false},
		{"empty payload", "data:image/png;base64,", "", false},
		{"no base64 marker", "data:image/png,aGVsbG8=", "hello", false},
		{"no marker, not base64", "data:image/png,@@@not-base64@@@", "", true},
		{"no comma", "data:image/png;base64", "", true},
		{"garbage", "data:image/png;base64,!!!not base64!!!", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := asset.DecodeDataURL(tt.src)
			if tt.wantErr {
				if !errors.Is(err, pdfzone.ErrAssetDecode) {
					t.Fatalf("expected decode error, got %v", err)
				}
				var de *asset.DecodeError
				if !errors.As(err, &de) {
					t.Errorf("error %T is not a DecodeError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeDecodeDataURL(t *testing.T) {
	data := pngBytes(t)
	src := asset.EncodeDataURL("image/png", data)
	if !strings.HasPrefix(src, "data:image/png;base64,") {
		t.Fatalf("unexpected prefix: %.40s", src)
	}
	if asset.MediaType(src) != "image/png" {
		t.Errorf("media type = %q", asset.MediaType(src))
	}
	got, err := asset.DecodeDataURL(src)
	if err != nil || !bytes.Equal(got, data) {
		t.Errorf("decode = %d bytes, %v", len(got), err)
	}
}

func TestClassifyRaster(t *testing.T) {
	tests := map[string]asset.Format{
		"data:image/png;base64,AAAA":      asset.PNG,
		"data:image/jpeg;base64,AAAA":     asset.JPEG,
		"https://cdn.example.com/a.png":   asset.PNG,
		"https://cdn.example.com/a.png?x": asset.PNG,
		"https://cdn.example.com/a.jpg":   asset.JPEG,
		"https://cdn.example.com/photo":   asset.JPEG,
	}
	for src, want := range tests {
		if got := asset.ClassifyRaster(src); got != want {
			t.Errorf("ClassifyRaster(%q) = %s, want %s", src, got, want)
		}
	}
}

func TestSniff(t *testing.T) {
	tests := map[string][]byte{
		"png":  pngBytes(t),
		"jpeg": {0xff, 0xd8, 0xff, 0xe0},
		"pdf":  []byte("%PDF-1.7\n"),
		"gif":  []byte("GIF89a...."),
		"webp": []byte("RIFF\x00\x00\x00\x00WEBPVP8 "),
		"tiff": []byte("II*\x00...."),
		"":     []byte("hello"),
	}
	for want, data := range tests {
		if got := asset.Sniff(data); got != want {
			t.Errorf("Sniff(%q) = %q, want %q", want, got, want)
		}
	}
}

func TestNormalizeTranscodesBMP(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		t.Fatalf("bmp: %v", err)
	}
	out, format, err := asset.Normalize("https://x/img.bmp", buf.Bytes())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if format != asset.PNG || asset.Sniff(out) != "png" {
		t.Errorf("format = %s, sniff = %s", format, asset.Sniff(out))
	}

	_, _, err = asset.Normalize("x.bmp", []byte("BM-truncated"))
	if !errors.Is(err, pdfzone.ErrAssetDecode) {
		t.Errorf("truncated bmp: got %v", err)
	}
}

func TestNormalizeKeepsHeuristic(t *testing.T) {
	data := pngBytes(t)
	_, format, err := asset.Normalize("https://x/photo", data)
	if err != nil {
		t.Fatal(err)
	}
	if format != asset.JPEG {
		t.Errorf("format = %s, want the name-based JPEG guess", format)
	}
}

func TestHTTPFetcher(t *testing.T) {
	data := pngBytes(t)
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		switch r.URL.Path {
		case "/ok.png":
			_, _ = w.Write(data)
		case "/big":
			_, _ = w.Write(make([]byte, 64))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := &asset.HTTPFetcher{Client: srv.Client(), UserAgent: "test-agent"}
	got, err := f.Fetch(context.Background(), srv.URL+"/ok.png")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("body mismatch")
	}
	if gotUA != "test-agent" {
		t.Errorf("user agent = %q", gotUA)
	}

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.png")
	var fe *asset.FetchError
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 FetchError, got %v", err)
	}
	if !errors.Is(err, pdfzone.ErrAssetFetch) {
		t.Error("FetchError does not wrap ErrAssetFetch")
	}

	small := &asset.HTTPFetcher{Client: srv.Client(), MaxBytes: 16}
	if _, err := small.Fetch(context.Background(), srv.URL+"/big"); err == nil {
		t.Error("expected size limit error")
	}

	if _, err := f.Fetch(context.Background(), "file:///etc/passwd"); !errors.Is(err, pdfzone.ErrAssetFetch) {
		t.Errorf("file scheme: got %v", err)
	}
}

func TestLoad(t *testing.T) {
	data := pngBytes(t)
	calls := 0
	fetch := asset.FetcherFunc(func(ctx context.Context, ref string) ([]byte, error) {
		calls++
		return data, nil
	})

	_, format, err := asset.Load(context.Background(), fetch, asset.EncodeDataURL("image/png", data))
	if err != nil || format != asset.PNG {
		t.Fatalf("data url load = %s, %v", format, err)
	}
	if calls != 0 {
		t.Error("data URL went through the fetcher")
	}

	if _, _, err := asset.Load(context.Background(), fetch, "https://x/a.png"); err != nil {
		t.Fatalf("remote load: %v", err)
	}
	if calls != 1 {
		t.Errorf("fetcher calls = %d", calls)
	}

	if _, _, err := asset.Load(context.Background(), fetch, "data:image/png;base64,"); !errors.Is(err, pdfzone.ErrAssetDecode) {
		t.Errorf("empty payload: got %v", err)
	}
	if _, _, err := asset.Load(context.Background(), nil, "https://x/a.png"); !errors.Is(err, pdfzone.ErrAssetFetch) {
		t.Errorf("nil fetcher: got %v", err)
	}
}
