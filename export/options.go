package export

import (
	"log/slog"
	"time"

	"github.com/prajwal-pl/dnd-pdf-zone/asset"
	"github.com/prajwal-pl/dnd-pdf-zone/render"
)

// Option is a functional option for configuring an Export call.
type Option func(*config)

type config struct {
	acroForm       bool
	flatten        bool
	staticFallback bool
	compress       bool
	fetcher        asset.Fetcher
	concurrency    int
	rasterScale    float64
	creationDate   time.Time
	logger         *slog.Logger
}

func newConfig(opts []Option) *config {
	cfg := &config{
		compress:    true,
		fetcher:     &asset.HTTPFetcher{},
		concurrency: 4,
		rasterScale: 1,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithAcroForm selects interactive output: text, date and checkbox fields
// become fillable form widgets.
func WithAcroForm(on bool) Option {
	return func(c *config) {
		c.acroForm = on
	}
}

// WithFlatten burns interactive widgets into page content once every page is
// drawn. It has no effect without WithAcroForm.
func WithFlatten(on bool) Option {
	return func(c *config) {
		c.flatten = on
	}
}

// WithStaticFallback draws image, signature, QR and barcode fields as static
// graphics in interactive output instead of omitting them.
func WithStaticFallback(on bool) Option {
	return func(c *config) {
		c.staticFallback = on
	}
}

// WithCompression toggles stream compression. Defaults to on.
func WithCompression(on bool) Option {
	return func(c *config) {
		c.compress = on
	}
}

// WithFetcher replaces the HTTP fetcher used for remote images and
// backgrounds. A nil fetcher disables remote assets; every remote reference
// then falls back to a placeholder.
func WithFetcher(f asset.Fetcher) Option {
	return func(c *config) {
		c.fetcher = f
	}
}

// WithFetchConcurrency bounds the number of remote assets fetched at once.
func WithFetchConcurrency(n int) Option {
	return func(c *config) {
		c.concurrency = n
	}
}

// WithRasterScale sets the QR and barcode resolution in pixels per point.
func WithRasterScale(scale float64) Option {
	return func(c *config) {
		c.rasterScale = scale
	}
}

// WithCreationDate fixes the document creation date. By default it is taken
// from the template's updatedAt, then createdAt.
func WithCreationDate(t time.Time) Option {
	return func(c *config) {
		c.creationDate = t
	}
}

// WithLogger sets the logger that receives fallback warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

func (c *config) renderOptions() render.Options {
	mode := render.Flattened
	if c.acroForm {
		mode = render.Interactive
	}
	return render.Options{
		Mode:             mode,
		Flatten:          c.flatten,
		StaticFallback:   c.staticFallback,
		Fetcher:          c.fetcher,
		FetchConcurrency: c.concurrency,
		RasterScale:      c.rasterScale,
		Compress:         c.compress,
		CreationDate:     c.creationDate,
		Logger:           c.logger,
	}
}
