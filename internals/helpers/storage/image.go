package storage

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

type WebPOptions struct {
	MaxW    int
	MaxH    int
	Quality float32
}

var DefaultWebP = WebPOptions{MaxW: 1600, MaxH: 1600, Quality: 80}

// ToWebP decodes a jpeg/png/webp image, shrinks it to fit MaxW x MaxH
// (keeping the aspect ratio, never enlarging) and re-encodes it as lossy WebP.
func ToWebP(data []byte, opt WebPOptions) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if opt.MaxW > 0 && opt.MaxH > 0 {
		img = imaging.Fit(img, opt.MaxW, opt.MaxH, imaging.CatmullRom)
	}
	q := opt.Quality
	if q <= 0 {
		q = 80
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: q}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
