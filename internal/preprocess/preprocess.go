package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"

	"github.com/Brownie44l1/biryani-api/internal/model"
	"github.com/Brownie44l1/biryani-api/internal/tensor"
)

const (
	ImageSize = 224
	Channels  = 3
	Scale     = 255.0

	// MaxPixels caps the declared dimensions of any image before it is decoded.
	MaxPixels = 40_000_000
)

// Preprocessor turns JPEG bytes into [1, size, size, 3] tensors with values in [0, 1].
type Preprocessor struct {
	size int
	pool *tensor.Pool
}

func New(size int) (*Preprocessor, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid image size %d", size)
	}
	pool, err := tensor.NewPool(1, int64(size), int64(size), Channels)
	if err != nil {
		return nil, err
	}
	return &Preprocessor{size: size, pool: pool}, nil
}

func (p *Preprocessor) Size() int {
	return p.size
}

func (p *Preprocessor) Pool() *tensor.Pool {
	return p.pool
}

// Tensor decodes, resizes and normalizes data. The caller owns the returned
// tensor and must Release it. Nothing is taken from the pool when decoding fails.
func (p *Preprocessor) Tensor(data []byte) (*tensor.Tensor, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	resized := Resize(img, p.size)

	t := p.pool.Get()
	if err := Normalize(resized, t.Data); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

// Decode accepts JPEG data only.
func Decode(data []byte) (image.Image, error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}
	if err := checkDimensions(cfg); err != nil {
		return nil, err
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}
	return img, nil
}

func checkDimensions(cfg image.Config) error {
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return fmt.Errorf("%w: image is %dx%d, limit is %d pixels", model.ErrDecode, cfg.Width, cfg.Height, MaxPixels)
	}
	return nil
}

// Resize scales src to size x size with nearest-neighbor sampling. The model
// was trained on nearest-neighbor inputs, so no other kernel may be used here.
func Resize(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.NearestNeighbor.Scale(dst, dst.Rect, src, src.Bounds(), draw.Src, nil)
	return dst
}

// Normalize writes img into dst in HWC, RGB order, dividing each channel by 255.
func Normalize(img *image.RGBA, dst []float32) error {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if len(dst) != width*height*Channels {
		return fmt.Errorf("tensor holds %d values, image needs %d", len(dst), width*height*Channels)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			off := img.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			i := (y*width + x) * Channels
			dst[i] = float32(img.Pix[off]) / Scale
			dst[i+1] = float32(img.Pix[off+1]) / Scale
			dst[i+2] = float32(img.Pix[off+2]) / Scale
		}
	}
	return nil
}
