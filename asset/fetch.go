package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	pdfzone "github.com/prajwal-pl/dnd-pdf-zone"
)

// Fetcher retrieves the payload behind a remote asset reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, ref string) ([]byte, error)

// Fetch calls f(ctx, ref).
func (f FetcherFunc) Fetch(ctx context.Context, ref string) ([]byte, error) { return f(ctx, ref) }

// FetchError reports a failed remote fetch. StatusCode is zero for transport
// failures. It is never fatal to an export.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("asset: fetching %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("asset: fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{pdfzone.ErrAssetFetch}
	}
	return []error{pdfzone.ErrAssetFetch, e.Err}
}

// Default limits for HTTPFetcher.
const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultMaxBytes     = 10 << 20
	DefaultUserAgent    = "pdfzone"
)

var errTooLarge = errors.New("payload exceeds size limit")

// HTTPFetcher fetches assets over HTTP(S) with a single attempt per
// reference. The zero value is usable and applies the package defaults.
type HTTPFetcher struct {
	Client         *http.Client
	Timeout        time.Duration // per request; 0 = DefaultFetchTimeout
	MaxBytes       int64         // 0 = DefaultMaxBytes
	UserAgent      string
	AllowedSchemes []string // nil = http and https
}

// Fetch issues a GET for ref and returns the body. Any non-200 status is an
// error.
func (h *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, &FetchError{URL: ref, Err: err}
	}
	schemes := h.AllowedSchemes
	if schemes == nil {
		schemes = []string{"http", "https"}
	}
	if !slices.Contains(schemes, strings.ToLower(u.Scheme)) {
		return nil, &FetchError{URL: ref, Err: fmt.Errorf("scheme %q not allowed", u.Scheme)}
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	maxBytes := h.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	ua := h.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, &FetchError{URL: ref, Err: err}
	}
	req.Header.Set("User-Agent", ua)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: ref, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: ref, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, &FetchError{URL: ref, Err: err}
	}
	if int64(len(data)) > maxBytes {
		return nil, &FetchError{URL: ref, Err: errTooLarge}
	}
	return data, nil
}

// Load returns the embeddable payload for src: data URLs are decoded inline,
// anything else goes through f. The result is passed through Normalize.
func Load(ctx context.Context, f Fetcher, src string) ([]byte, Format, error) {
	var (
		data []byte
		err  error
	)
	if IsDataURL(src) {
		data, err = DecodeDataURL(src)
	} else {
		if f == nil {
			return nil, "", &FetchError{URL: src, Err: errors.New("no fetcher configured")}
		}
		data, err = f.Fetch(ctx, src)
	}
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", &DecodeError{Source: short(src), Err: errors.New("empty payload")}
	}
	return Normalize(src, data)
}
