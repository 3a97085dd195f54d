package config

import (
	"github.com/prajwal-pl/dnd-pdf-zone/asset"
	"github.com/prajwal-pl/dnd-pdf-zone/export"
)

// Fetcher builds the remote asset fetcher, or nil when remote assets are
// disabled.
func (c AssetsConfig) Fetcher() asset.Fetcher {
	if c.Disabled {
		return nil
	}
	return &asset.HTTPFetcher{
		Timeout:        c.FetchTimeout,
		MaxBytes:       c.MaxBytes,
		UserAgent:      c.UserAgent,
		AllowedSchemes: c.AllowedSchemes,
	}
}

// Options returns the export options selected by the configuration, using
// f for remote assets.
func (c *Config) Options(f asset.Fetcher) []export.Option {
	return []export.Option{
		export.WithAcroForm(c.Export.AcroForm),
		export.WithFlatten(c.Export.Flatten),
		export.WithCompression(c.Export.Compress),
		export.WithRasterScale(c.Export.RasterScale),
		export.WithStaticFallback(c.Export.StaticFallback),
		export.WithFetcher(f),
		export.WithFetchConcurrency(c.Assets.Concurrency),
	}
}
