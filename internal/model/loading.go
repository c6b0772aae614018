package model

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/biryani-api/internal/metrics"
)

const readyGauge = "model.ready"

type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Loading is a single asynchronous acquisition started at process start. The
// resulting handle lives until Close.
type Loading struct {
	done   chan struct{}
	handle *Handle
	err    error
}

// Load starts acquiring a handle from p in the background.
func Load(ctx context.Context, p Provider) *Loading {
	l := &Loading{done: make(chan struct{})}
	go func() {
		defer close(l.done)

		start := time.Now()
		h, err := p.Acquire(ctx)
		if err == nil && !h.Ready() {
			err = fmt.Errorf("%w: provider returned an empty handle", ErrLoad)
		}
		if err != nil {
			log.Error().Err(err).Msg("Failed to load the model")
			metrics.Gauge(readyGauge, 0, nil)
			l.err = err
			return
		}
		l.handle = h
		metrics.Gauge(readyGauge, 1, nil)
		log.Info().Dur("elapsed", time.Since(start)).Msg("model ready")
	}()
	return l
}

// Handle returns the loaded model without blocking. It fails with
// ErrModelNotReady while loading and with the load error after a failure.
func (l *Loading) Handle() (*Handle, error) {
	select {
	case <-l.done:
		if l.err != nil {
			return nil, l.err
		}
		return l.handle, nil
	default:
		return nil, ErrModelNotReady
	}
}

// Wait blocks until loading finishes or ctx is done.
func (l *Loading) Wait(ctx context.Context) (*Handle, error) {
	select {
	case <-l.done:
		return l.Handle()
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrModelNotReady, ctx.Err())
	}
}

func (l *Loading) State() State {
	select {
	case <-l.done:
		if l.err != nil {
			return StateFailed
		}
		return StateReady
	default:
		return StateLoading
	}
}

// Close waits for an acquisition still in flight, bounded by ctx, and then
// releases the handle. Cancel the context passed to Load first so a pending
// download stops early.
func (l *Loading) Close(ctx context.Context) error {
	select {
	case <-l.done:
	case <-ctx.Done():
		return fmt.Errorf("model still loading: %w", ctx.Err())
	}
	if l.err != nil {
		return nil
	}
	metrics.Gauge(readyGauge, 0, nil)
	return l.handle.Close()
}
