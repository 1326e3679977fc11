package ui

import (
	"image"
	"image/color"
)

// rgbToImage converts a packed RGB frame into an NRGBA image for the
// canvas. dst is reused when its bounds already match, which keeps the
// per-frame allocation at zero during steady display.
func rgbToImage(dst *image.NRGBA, data []byte, width, height int) *image.NRGBA {
	if width <= 0 || height <= 0 || len(data) < width*height*3 {
		return dst
	}
	if dst == nil || dst.Bounds().Dx() != width || dst.Bounds().Dy() != height {
		dst = image.NewNRGBA(image.Rect(0, 0, width, height))
	}

	for y := 0; y < height; y++ {
		src := data[y*width*3:]
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < width; x++ {
			row[x*4+0] = src[x*3+0]
			row[x*4+1] = src[x*3+1]
			row[x*4+2] = src[x*3+2]
			row[x*4+3] = 0xff
		}
	}
	return dst
}

// placeholderImage is shown while no video is flowing: a dark frame so
// the window does not flash white between disconnect and reconnect.
func placeholderImage() *image.NRGBA {
	const w, h = 640, 360
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	dark := color.NRGBA{R: 0x10, G: 0x10, B: 0x12, A: 0xff}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, dark)
		}
	}
	return img
}
