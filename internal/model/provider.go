package model

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/biryani-api/internal/metrics"
)

// Provider resolves a trained classifier into a ready Handle.
type Provider interface {
	Acquire(ctx context.Context) (*Handle, error)
}

// BundledProvider loads the descriptor and weights packaged with the application.
type BundledProvider struct {
	FS         fs.FS
	Descriptor string
	Runtime    Runtime
}

func (p *BundledProvider) Acquire(_ context.Context) (*Handle, error) {
	start := time.Now()
	descriptor := p.Descriptor
	if descriptor == "" {
		descriptor = DefaultDescriptorFile
	}

	raw, err := fs.ReadFile(p.FS, descriptor)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read descriptor: %w", ErrLoad, err)
	}
	meta, err := ParseMetadata(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	weightsPath := path.Join(path.Dir(descriptor), meta.Weights)
	weights, err := fs.ReadFile(p.FS, weightsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read weights: %w", ErrLoad, err)
	}

	scorer, err := p.Runtime.LoadBytes(meta, weights)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	metrics.Timing("model.load", time.Since(start), []string{"strategy:bundled"})
	log.Info().
		Str("descriptor", descriptor).
		Int("weights_bytes", len(weights)).
		Strs("classes", meta.Classes).
		Msg("bundled model loaded")
	return NewHandle(meta, scorer), nil
}
