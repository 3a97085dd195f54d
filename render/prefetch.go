package render

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/prajwal-pl/dnd-pdf-zone/asset"
	"github.com/prajwal-pl/dnd-pdf-zone/form"
	"github.com/prajwal-pl/dnd-pdf-zone/template"
)

type fetched struct {
	data []byte
	err  error
}

var errNotFetched = errors.New("remote asset was not prefetched")

// remoteRefs lists, in first-use order, the distinct remote references the
// render will draw: page backgrounds and image or signature sources.
// Fields omitted by the mode are skipped.
func remoteRefs(tpl *template.Template, opts Options) []string {
	seen := make(map[string]bool)
	var refs []string
	add := func(src string) {
		if src == "" || asset.IsDataURL(src) || seen[src] {
			return
		}
		seen[src] = true
		refs = append(refs, src)
	}
	drawsStatic := func(f template.Field) bool {
		return opts.Mode == Flattened || opts.StaticFallback || form.Supports(f.Type())
	}
	for _, p := range tpl.Pages {
		add(p.Background)
		for _, f := range p.Fields {
			if !drawsStatic(f) {
				continue
			}
			switch f := f.(type) {
			case *template.ImageField:
				add(f.Src)
			case *template.SignatureField:
				add(f.Src)
			}
		}
	}
	return refs
}

// prefetch fetches refs concurrently, at most limit at a time. Individual
// failures are kept per reference; only cancellation of ctx fails the
// whole prefetch.
func prefetch(ctx context.Context, f asset.Fetcher, refs []string, limit int) (map[string]fetched, error) {
	out := make(map[string]fetched, len(refs))
	if len(refs) == 0 {
		return out, nil
	}
	if f == nil {
		for _, ref := range refs {
			out[ref] = fetched{err: &asset.FetchError{URL: ref, Err: errors.New("remote assets disabled")}}
		}
		return out, nil
	}

	var mu sync.Mutex
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for _, ref := range refs {
		eg.Go(func() error {
			data, err := f.Fetch(gctx, ref)
			mu.Lock()
			out[ref] = fetched{data: data, err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render: fetching assets: %w", err)
	}
	return out, nil
}

// load returns the normalized payload for src from its data URL or the
// prefetched remote body.
func (r *renderer) load(src string) ([]byte, asset.Format, error) {
	if asset.IsDataURL(src) {
		data, err := asset.DecodeDataURL(src)
		if err != nil {
			return nil, "", err
		}
		if len(data) == 0 {
			return nil, "", &asset.DecodeError{Source: "data URL", Err: errors.New("empty payload")}
		}
		return asset.Normalize(src, data)
	}
	res, ok := r.assets[src]
	if !ok {
		return nil, "", &asset.FetchError{URL: src, Err: errNotFetched}
	}
	if res.err != nil {
		var fe *asset.FetchError
		if !errors.As(res.err, &fe) {
			return nil, "", &asset.FetchError{URL: src, Err: res.err}
		}
		return nil, "", res.err
	}
	return asset.Normalize(src, res.data)
}
