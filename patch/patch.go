// Package patch turns images into point sets of overlapping square patches.
//
// An image resized to s×s yields (s-p+1)² patches of size p×p at stride 1, in
// row-major order of their top-left corner. Each patch is flattened channel-major
// (R plane, then G, then B; each plane row-major) into 3p² raw 0..255 values.
package patch

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"

	_ "golang.org/x/image/bmp" // register decoder
	"golang.org/x/image/draw"

	"github.com/ic-timon/nnbench/nn"
)

// Channels is the number of color channels kept per pixel.
const Channels = 3

// ErrImageTooSmall is returned when the (resized) image is smaller than one patch.
var ErrImageTooSmall = errors.New("patch: image smaller than patch size")

// Loader loads an image file as a point set of patches.
type Loader interface {
	Load(path string, resize int) (nn.PointSet, error)
}

// ImageLoader decodes PNG, JPEG, GIF and BMP files.
type ImageLoader struct {
	PatchSize int
}

// Load decodes path, resizes it to resize×resize with bilinear filtering and
// extracts every patch.
func (l ImageLoader) Load(path string, resize int) (nn.PointSet, error) {
	if l.PatchSize <= 0 {
		return nn.PointSet{}, fmt.Errorf("%w: patch size must be positive, got %d", nn.ErrInvalidInput, l.PatchSize)
	}
	if resize < l.PatchSize {
		return nn.PointSet{}, fmt.Errorf("%w: resize %d < patch size %d", ErrImageTooSmall, resize, l.PatchSize)
	}
	f, err := os.Open(path)
	if err != nil {
		return nn.PointSet{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nn.PointSet{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return Extract(Resize(src, resize), l.PatchSize)
}

// Resize scales img to size×size with bilinear filtering.
func Resize(img image.Image, size int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// Extract returns every p×p patch of img at stride 1.
func Extract(img image.Image, p int) (nn.PointSet, error) {
	if p <= 0 {
		return nn.PointSet{}, fmt.Errorf("%w: patch size must be positive, got %d", nn.ErrInvalidInput, p)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < p || h < p {
		return nn.PointSet{}, fmt.Errorf("%w: %dx%d image, patch size %d", ErrImageTooSmall, w, h, p)
	}
	px := toNRGBA(img)
	nx, ny := w-p+1, h-p+1
	dim := Channels * p * p
	data := make([]float32, nx*ny*dim)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			row := data[(y*nx+x)*dim : (y*nx+x+1)*dim]
			for c := 0; c < Channels; c++ {
				plane := row[c*p*p : (c+1)*p*p]
				for ky := 0; ky < p; ky++ {
					off := px.PixOffset(x, y+ky)
					for kx := 0; kx < p; kx++ {
						plane[ky*p+kx] = float32(px.Pix[off+4*kx+c])
					}
				}
			}
		}
	}
	return nn.NewPointSet(nx*ny, dim, data)
}

// toNRGBA returns img as a zero-origin NRGBA, converting when needed.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
