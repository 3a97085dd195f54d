package geom_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/prajwal-pl/dnd-pdf-zone/geom"
)

func TestToDocument(t *testing.T) {
	tests := []struct {
		in         geom.Box
		pageHeight float64
		want       geom.Box
	}{
		{geom.Box{X: 50, Y: 50, W: 120, H: 24}, 842, geom.Box{X: 50, Y: 768, W: 120, H: 24}},
		{geom.Box{X: 0, Y: 0, W: 595, H: 842}, 842, geom.Box{X: 0, Y: 0, W: 595, H: 842}},
		{geom.Box{X: 10, Y: 790, W: 5, H: 2}, 792, geom.Box{X: 10, Y: 0, W: 5, H: 2}},
		{geom.Box{X: 1.5, Y: 0.25, W: 3, H: 0.75}, 100, geom.Box{X: 1.5, Y: 99, W: 3, H: 0.75}},
	}
	for _, tt := range tests {
		got := geom.ToDocument(tt.in, tt.pageHeight)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ToDocument(%+v, %v) (-want +got):\n%s", tt.in, tt.pageHeight, diff)
		}
		if back := geom.ToEditor(got, tt.pageHeight); back != tt.in {
			t.Errorf("round trip of %+v gave %+v", tt.in, back)
		}
	}
}

func TestFit(t *testing.T) {
	box := geom.Box{X: 10, Y: 20, W: 100, H: 50}
	tests := []struct {
		mode       string
		imgW, imgH float64
		want       geom.Box
	}{
		{"", 10, 10, box},
		{geom.FitFill, 10, 10, box},
		{geom.FitContain, 10, 10, geom.Box{X: 35, Y: 20, W: 50, H: 50}},
		{geom.FitContain, 200, 50, geom.Box{X: 10, Y: 32.5, W: 100, H: 25}},
		{geom.FitCover, 10, 10, geom.Box{X: 10, Y: -5, W: 100, H: 100}},
		{geom.FitCover, 0, 10, box},
	}
	for _, tt := range tests {
		got := geom.Fit(tt.mode, tt.imgW, tt.imgH, box)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Fit(%q, %v, %v) (-want +got):\n%s", tt.mode, tt.imgW, tt.imgH, diff)
		}
	}
}
