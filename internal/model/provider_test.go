package model_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/biryani-api/internal/model"
	"github.com/Brownie44l1/biryani-api/internal/model/modeltest"
)

func bundle() fstest.MapFS {
	return fstest.MapFS{
		"models/model.json":  {Data: []byte(modeltest.Descriptor)},
		"models/weights.bin": {Data: []byte("onnx-bytes")},
	}
}

func TestBundledProviderAcquire(t *testing.T) {
	rt := &modeltest.Runtime{Scorer: &modeltest.Scorer{Output: []float32{0.9, 0.1}}}
	p := &model.BundledProvider{FS: bundle(), Descriptor: "models/model.json", Runtime: rt}

	h, err := p.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, h.Ready())
	assert.Equal(t, []string{"biryani", "not_biryani"}, h.Metadata.Classes)
	require.Len(t, rt.ByteLoads, 1)
	assert.Equal(t, []byte("onnx-bytes"), rt.ByteLoads[0])
	assert.Empty(t, rt.FileLoads)
}

func TestBundledProviderDefaultDescriptor(t *testing.T) {
	fsys := fstest.MapFS{
		"model.json":  {Data: []byte(`{"weights": "net.onnx"}`)},
		"net.onnx":    {Data: []byte("x")},
		"weights.bin": {Data: []byte("wrong")},
	}
	rt := &modeltest.Runtime{Scorer: &modeltest.Scorer{}}
	p := &model.BundledProvider{FS: fsys, Runtime: rt}

	_, err := p.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), rt.ByteLoads[0])
}

func TestBundledProviderFailures(t *testing.T) {
	tests := map[string]struct {
		fs  fstest.MapFS
		err error
	}{
		"missing descriptor": {fs: fstest.MapFS{}},
		"corrupt descriptor": {fs: fstest.MapFS{"models/model.json": {Data: []byte("{nope")}}},
		"missing weights": {fs: fstest.MapFS{
			"models/model.json": {Data: []byte(modeltest.Descriptor)},
		}},
		"runtime rejects weights": {fs: bundle(), err: errors.New("invalid protobuf")},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rt := &modeltest.Runtime{Scorer: &modeltest.Scorer{}, Err: tt.err}
			p := &model.BundledProvider{FS: tt.fs, Descriptor: "models/model.json", Runtime: rt}

			h, err := p.Acquire(context.Background())
			assert.ErrorIs(t, err, model.ErrLoad)
			assert.Nil(t, h)
		})
	}
}
