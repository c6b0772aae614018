// Package modeltest provides in-memory stand-ins for the ONNX runtime.
package modeltest

import (
	"context"
	"sync"

	"github.com/Brownie44l1/biryani-api/internal/model"
)

// Scorer returns Output for every input. The returned slice is Output itself,
// not a copy, mirroring a runtime that hands out views into its own buffers.
type Scorer struct {
	mu        sync.Mutex
	Output    []float32
	Err       error
	Calls     int
	LastShape []int64
	LastInput []float32
	Closed    bool
}

func (s *Scorer) Score(_ context.Context, input []float32, shape []int64) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	s.LastShape = append([]int64(nil), shape...)
	s.LastInput = append([]float32(nil), input...)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Output, nil
}

func (s *Scorer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

// Runtime hands out Scorer and records what it was asked to load.
type Runtime struct {
	mu        sync.Mutex
	Scorer    *Scorer
	Err       error
	FileLoads []string
	ByteLoads [][]byte
}

func (r *Runtime) LoadFile(_ model.Metadata, weightsPath string) (model.Scorer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FileLoads = append(r.FileLoads, weightsPath)
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Scorer, nil
}

func (r *Runtime) LoadBytes(_ model.Metadata, weights []byte) (model.Scorer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ByteLoads = append(r.ByteLoads, weights)
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Scorer, nil
}

// Provider returns a fixed handle. A non-nil Gate holds Acquire until it is
// closed or ctx ends.
type Provider struct {
	Handle *model.Handle
	Err    error
	Gate   chan struct{}
}

func (p *Provider) Acquire(ctx context.Context) (*model.Handle, error) {
	if p.Gate != nil {
		select {
		case <-p.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.Handle, p.Err
}

// Descriptor is a valid model.json for a 224x224 RGB two-class model.
const Descriptor = `{
	"input_name": "input",
	"output_name": "output",
	"input_shape": [1, 224, 224, 3],
	"output_shape": [1, 2],
	"classes": ["biryani", "not_biryani"],
	"image_size": 224,
	"weights": "weights.bin"
}`

func Metadata() model.Metadata {
	meta, err := model.ParseMetadata([]byte(Descriptor))
	if err != nil {
		panic(err)
	}
	return meta
}

// NewHandle returns a ready handle whose scorer always answers scores.
func NewHandle(scores ...float32) (*model.Handle, *Scorer) {
	s := &Scorer{Output: scores}
	return model.NewHandle(Metadata(), s), s
}
