package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/biryani-api/internal/model"
)

func TestPrintResultText(t *testing.T) {
	pred, err := model.NewPrediction([]float32{0.92, 0.08}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	printResult(&buf, classifyResult{Image: "lunch.jpg", PredictionResponse: pred.Response()}, pred, false)
	assert.Equal(t, "lunch.jpg: Dis is a Biryani! Biryani: 92.00%\n", buf.String())

	buf.Reset()
	printResult(&buf, classifyResult{Image: "cat.png", Error: "image is not valid JPEG data"}, model.Prediction{}, false)
	assert.Equal(t, "cat.png: Failed to process the image image is not valid JPEG data\n", buf.String())
}

func TestPrintResultJSON(t *testing.T) {
	pred, err := model.NewPrediction([]float32{0.5, 0.5}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	printResult(&buf, classifyResult{Image: "tie.jpg", PredictionResponse: pred.Response()}, pred, true)

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "tie.jpg", out["image"])
	assert.Equal(t, "not_biryani", out["class"])
	assert.Equal(t, false, out["is_biryani"])
	assert.NotContains(t, out, "error")
}
