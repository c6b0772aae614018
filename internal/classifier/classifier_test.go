package classifier

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/biryani-api/internal/model"
	"github.com/Brownie44l1/biryani-api/internal/model/modeltest"
	"github.com/Brownie44l1/biryani-api/internal/preprocess"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	os.Exit(m.Run())
}

func newClassifier(t *testing.T) (*Classifier, *preprocess.Preprocessor) {
	t.Helper()
	pre, err := preprocess.New(preprocess.ImageSize)
	require.NoError(t, err)
	return New(pre), pre
}

func writeJPEG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestClassifyRoundTrip(t *testing.T) {
	tests := []struct {
		scores  []float32
		biryani bool
	}{
		{[]float32{0.9, 0.1}, true},
		{[]float32{0.1, 0.9}, false},
		{[]float32{0.5, 0.5}, false},
	}
	path := writeJPEG(t, 320, 240)

	for _, tt := range tests {
		c, pre := newClassifier(t)
		h, scorer := modeltest.NewHandle(tt.scores...)

		pred, err := c.Classify(context.Background(), path, h)
		require.NoError(t, err)
		assert.Equal(t, tt.biryani, pred.IsBiryani(), "%v", tt.scores)
		assert.Equal(t, tt.scores, pred.Scores)

		assert.Equal(t, []int64{1, 224, 224, 3}, scorer.LastShape)
		for _, v := range scorer.LastInput {
			require.True(t, v >= 0 && v <= 1)
		}
		assert.EqualValues(t, 0, pre.Pool().InUse(), "tensor must be released")
	}
}

func TestClassifyModelNotReady(t *testing.T) {
	c, pre := newClassifier(t)
	path := writeJPEG(t, 10, 10)

	_, err := c.Classify(context.Background(), path, nil)
	assert.ErrorIs(t, err, model.ErrModelNotReady)

	_, err = c.ClassifyBytes(context.Background(), []byte{0xff}, model.NewHandle(modeltest.Metadata(), nil))
	assert.ErrorIs(t, err, model.ErrModelNotReady)

	assert.EqualValues(t, 0, pre.Pool().InUse())
}

func TestClassifyDecodeFailure(t *testing.T) {
	c, pre := newClassifier(t)
	h, scorer := modeltest.NewHandle(0.9, 0.1)

	_, err := c.ClassifyBytes(context.Background(), []byte("GIF89a"), h)
	assert.ErrorIs(t, err, model.ErrDecode)
	assert.Zero(t, scorer.Calls)
	assert.EqualValues(t, 0, pre.Pool().InUse())
}

func TestClassifyMissingFile(t *testing.T) {
	c, _ := newClassifier(t)
	h, _ := modeltest.NewHandle(0.9, 0.1)

	_, err := c.Classify(context.Background(), filepath.Join(t.TempDir(), "gone.jpg"), h)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = c.Classify(context.Background(), writeJPEG(t, 4, 4), h)
	assert.NoError(t, err, "busy flag must be cleared after a failure")
}

func TestClassifyInferenceFailureReleasesTensor(t *testing.T) {
	c, pre := newClassifier(t)
	h, scorer := modeltest.NewHandle(0.9, 0.1)
	scorer.Err = assert.AnError

	_, err := c.Classify(context.Background(), writeJPEG(t, 64, 64), h)
	assert.ErrorIs(t, err, model.ErrInference)
	assert.ErrorIs(t, err, assert.AnError)
	assert.EqualValues(t, 0, pre.Pool().InUse())
}

func TestScoresSurviveRelease(t *testing.T) {
	c, pre := newClassifier(t)
	h, scorer := modeltest.NewHandle(0.9, 0.1)

	pred, err := c.Classify(context.Background(), writeJPEG(t, 50, 50), h)
	require.NoError(t, err)

	// scribble over everything the call touched after it returned
	scorer.Output[0], scorer.Output[1] = 0, 1
	reused := pre.Pool().Get()
	for i := range reused.Data {
		reused.Data[i] = -1
	}
	reused.Release()

	assert.Equal(t, []float32{0.9, 0.1}, pred.Scores)
	assert.True(t, pred.IsBiryani())
}

func TestClassifyBusy(t *testing.T) {
	c, _ := newClassifier(t)
	h, _ := modeltest.NewHandle(0.9, 0.1)

	c.busy.Store(true)
	_, err := c.ClassifyBytes(context.Background(), nil, h)
	assert.ErrorIs(t, err, model.ErrBusy)

	c.busy.Store(false)
	_, err = c.Classify(context.Background(), writeJPEG(t, 8, 8), h)
	assert.NoError(t, err)
}

func TestClassifyTensor(t *testing.T) {
	c, pre := newClassifier(t)
	h, _ := modeltest.NewHandle(0.2, 0.7)

	in := pre.Pool().Get()
	defer in.Release()

	pred, err := c.ClassifyTensor(context.Background(), in, h)
	require.NoError(t, err)
	assert.False(t, pred.IsBiryani())
	assert.Equal(t, "Not Biryani: 70.00%", pred.Summary())
}
