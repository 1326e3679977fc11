package ui

import (
	"testing"
)

func TestRGBToImage_ConvertsPixels(t *testing.T) {
	// 2x1 frame: red then green.
	data := []byte{0xff, 0, 0, 0, 0xff, 0}

	img := rgbToImage(nil, data, 2, 1)
	if img == nil {
		t.Fatal("got nil image")
	}

	r := img.NRGBAAt(0, 0)
	if r.R != 0xff || r.G != 0 || r.B != 0 || r.A != 0xff {
		t.Errorf("pixel (0,0) = %+v, want opaque red", r)
	}
	g := img.NRGBAAt(1, 0)
	if g.G != 0xff || g.A != 0xff {
		t.Errorf("pixel (1,0) = %+v, want opaque green", g)
	}
}

func TestRGBToImage_ReusesBuffer(t *testing.T) {
	data := make([]byte, 4*4*3)

	first := rgbToImage(nil, data, 4, 4)
	second := rgbToImage(first, data, 4, 4)
	if first != second {
		t.Error("matching dimensions should reuse the destination image")
	}

	third := rgbToImage(second, data[:2*2*3], 2, 2)
	if third == second {
		t.Error("dimension change must allocate a fresh image")
	}
}

func TestRGBToImage_RejectsShortData(t *testing.T) {
	prev := rgbToImage(nil, make([]byte, 4*4*3), 4, 4)

	got := rgbToImage(prev, []byte{1, 2, 3}, 1920, 1080)
	if got != prev {
		t.Error("truncated frame must leave the previous image untouched")
	}
}

func TestPlaceholderImage(t *testing.T) {
	img := placeholderImage()
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		t.Fatal("placeholder has zero size")
	}
	px := img.NRGBAAt(0, 0)
	if px.A != 0xff {
		t.Error("placeholder must be opaque")
	}
}
