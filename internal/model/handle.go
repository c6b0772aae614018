package model

import (
	"context"
	"fmt"

	"github.com/Brownie44l1/biryani-api/internal/tensor"
)

// Scorer runs the network on a single input buffer and returns the raw scores.
type Scorer interface {
	Score(ctx context.Context, input []float32, shape []int64) ([]float32, error)
	Close() error
}

// Runtime builds a Scorer from a descriptor and its weights.
type Runtime interface {
	LoadFile(meta Metadata, weightsPath string) (Scorer, error)
	LoadBytes(meta Metadata, weights []byte) (Scorer, error)
}

// Handle is a loaded, read-only model. It is safe to share between sequential callers.
type Handle struct {
	Metadata Metadata
	scorer   Scorer
}

func NewHandle(meta Metadata, scorer Scorer) *Handle {
	return &Handle{Metadata: meta, scorer: scorer}
}

func (h *Handle) Ready() bool {
	return h != nil && h.scorer != nil
}

// Score validates the input against the descriptor and returns a copy of the
// model output that stays valid after the runtime buffers are gone.
func (h *Handle) Score(ctx context.Context, t *tensor.Tensor) ([]float32, error) {
	if !h.Ready() {
		return nil, ErrModelNotReady
	}
	if t == nil || t.Data == nil {
		return nil, fmt.Errorf("%w: empty input tensor", ErrInference)
	}
	if !tensor.SameShape(t.Shape, h.Metadata.InputShape) || len(t.Data) != t.Len() {
		return nil, fmt.Errorf("%w: input shape %v, model expects %v",
			ErrInference, t.Shape, h.Metadata.InputShape)
	}

	out, err := h.scorer.Score(ctx, t.Data, t.Shape)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}
	if want := tensor.Volume(h.Metadata.OutputShape); len(out) != want {
		return nil, fmt.Errorf("%w: got %d scores, expected %d", ErrInference, len(out), want)
	}

	scores := make([]float32, len(out))
	copy(scores, out)
	return scores, nil
}

func (h *Handle) Close() error {
	if !h.Ready() {
		return nil
	}
	return h.scorer.Close()
}
