// Package classifier runs images through a loaded model and reports whether
// they show a biryani.
package classifier

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/biryani-api/internal/metrics"
	"github.com/Brownie44l1/biryani-api/internal/model"
	"github.com/Brownie44l1/biryani-api/internal/preprocess"
	"github.com/Brownie44l1/biryani-api/internal/tensor"
)

// Classifier allows one classification at a time. A call made while another
// is in flight fails with model.ErrBusy instead of waiting.
type Classifier struct {
	pre  *preprocess.Preprocessor
	busy atomic.Bool
}

func New(pre *preprocess.Preprocessor) *Classifier {
	return &Classifier{pre: pre}
}

// Classify reads the JPEG at path and scores it with h.
func (c *Classifier) Classify(ctx context.Context, path string, h *model.Handle) (model.Prediction, error) {
	release, err := c.acquire(h)
	if err != nil {
		return model.Prediction{}, err
	}
	defer release()

	data, err := os.ReadFile(path)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("failed to read image: %w", err)
	}
	return c.classify(ctx, data, h)
}

// ClassifyBytes scores JPEG data with h.
func (c *Classifier) ClassifyBytes(ctx context.Context, data []byte, h *model.Handle) (model.Prediction, error) {
	release, err := c.acquire(h)
	if err != nil {
		return model.Prediction{}, err
	}
	defer release()

	return c.classify(ctx, data, h)
}

// ClassifyTensor scores an already normalized input, skipping decode and resize.
func (c *Classifier) ClassifyTensor(ctx context.Context, t *tensor.Tensor, h *model.Handle) (model.Prediction, error) {
	release, err := c.acquire(h)
	if err != nil {
		return model.Prediction{}, err
	}
	defer release()

	return c.score(ctx, t, h, time.Now())
}

func (c *Classifier) acquire(h *model.Handle) (func(), error) {
	if !h.Ready() {
		return nil, model.ErrModelNotReady
	}
	if !c.busy.CompareAndSwap(false, true) {
		metrics.Count("classifier.busy", 1, nil)
		return nil, model.ErrBusy
	}
	return func() { c.busy.Store(false) }, nil
}

func (c *Classifier) classify(ctx context.Context, data []byte, h *model.Handle) (model.Prediction, error) {
	start := time.Now()

	t, err := c.pre.Tensor(data)
	if err != nil {
		metrics.Count("classifier.error", 1, []string{"stage:decode"})
		return model.Prediction{}, err
	}
	defer t.Release()

	return c.score(ctx, t, h, start)
}

func (c *Classifier) score(ctx context.Context, t *tensor.Tensor, h *model.Handle, start time.Time) (model.Prediction, error) {
	scores, err := h.Score(ctx, t)
	if err != nil {
		metrics.Count("classifier.error", 1, []string{"stage:score"})
		return model.Prediction{}, err
	}

	pred, err := model.NewPrediction(scores, h.Metadata.Classes)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("%w: %w", model.ErrInference, err)
	}

	elapsed := time.Since(start)
	metrics.Timing("classifier.latency", elapsed, []string{"label:" + pred.Label()})
	log.Debug().
		Floats32("scores", pred.Scores).
		Bool("is_biryani", pred.IsBiryani()).
		Dur("elapsed", elapsed).
		Msg("image classified")
	return pred, nil
}
