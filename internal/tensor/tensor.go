package tensor

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Tensor is a dense float32 array in row-major order.
type Tensor struct {
	Shape []int64
	Data  []float32
	pool  *Pool
}

// Len returns the number of elements described by the shape.
func (t *Tensor) Len() int {
	return Volume(t.Shape)
}

// Release hands the buffer back to its pool. Calling it twice is a no-op.
func (t *Tensor) Release() {
	if t == nil || t.Data == nil {
		return
	}
	if t.pool != nil {
		t.pool.put(t.Data)
	}
	t.Data = nil
}

// Volume multiplies the dimensions of a shape.
func Volume(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range shape {
		n *= int(d)
	}
	return n
}

// SameShape reports whether a and b have identical dimensions.
func SameShape(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Pool recycles buffers for tensors of one fixed shape.
type Pool struct {
	shape []int64
	size  int
	bufs  sync.Pool
	inUse atomic.Int64
}

func NewPool(shape ...int64) (*Pool, error) {
	size := Volume(shape)
	if size <= 0 {
		return nil, fmt.Errorf("invalid tensor shape %v", shape)
	}
	p := &Pool{shape: append([]int64(nil), shape...), size: size}
	p.bufs.New = func() any {
		return make([]float32, size)
	}
	return p, nil
}

// Get returns a tensor with a buffer owned by the caller until Release.
func (p *Pool) Get() *Tensor {
	p.inUse.Add(1)
	return &Tensor{
		Shape: append([]int64(nil), p.shape...),
		Data:  p.bufs.Get().([]float32),
		pool:  p,
	}
}

// InUse is the number of buffers handed out and not yet released.
func (p *Pool) InUse() int64 {
	return p.inUse.Load()
}

func (p *Pool) Shape() []int64 {
	return append([]int64(nil), p.shape...)
}

func (p *Pool) put(buf []float32) {
	p.inUse.Add(-1)
	if len(buf) != p.size {
		return
	}
	p.bufs.Put(buf)
}
