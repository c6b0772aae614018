package preprocess

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/Brownie44l1/biryani-api/internal/model"
)

// Transcode re-encodes an upload of any registered format as a size x size
// JPEG, the way the capture screen hands pictures to the classifier.
func Transcode(data []byte, size int) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}
	if err := checkDimensions(cfg); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}

	resized := resize.Resize(uint(size), uint(size), img, resize.Bilinear)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 100}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
