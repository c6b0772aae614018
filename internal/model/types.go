package model

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/Brownie44l1/biryani-api/internal/tensor"
)

const (
	DefaultDescriptorFile = "model.json"
	DefaultWeightsFile    = "weights.bin"
	DefaultImageSize      = 224

	ClassBiryani    = "biryani"
	ClassNotBiryani = "not_biryani"
)

// Metadata is the model descriptor shipped next to the weights blob.
type Metadata struct {
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
	Weights     string   `json:"weights"`
}

// ParseMetadata decodes a descriptor, fills defaults and validates it.
func ParseMetadata(data []byte) (Metadata, error) {
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	meta.applyDefaults()
	if err := meta.Validate(); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

func (m *Metadata) applyDefaults() {
	if m.InputName == "" {
		m.InputName = "input"
	}
	if m.OutputName == "" {
		m.OutputName = "output"
	}
	if m.ImageSize == 0 {
		m.ImageSize = DefaultImageSize
	}
	if len(m.InputShape) == 0 {
		s := int64(m.ImageSize)
		m.InputShape = []int64{1, s, s, 3}
	}
	if len(m.OutputShape) == 0 {
		m.OutputShape = []int64{1, 2}
	}
	if len(m.Classes) == 0 {
		m.Classes = []string{ClassBiryani, ClassNotBiryani}
	}
	if m.Weights == "" {
		m.Weights = DefaultWeightsFile
	}
}

// Validate checks the descriptor against the input layout the pipeline produces:
// a single NHWC RGB image and a two-class output.
func (m Metadata) Validate() error {
	s := int64(m.ImageSize)
	if len(m.InputShape) != 4 || m.InputShape[0] != 1 || m.InputShape[1] != s ||
		m.InputShape[2] != s || m.InputShape[3] != 3 {
		return fmt.Errorf("input shape %v does not match [1 %d %d 3]", m.InputShape, s, s)
	}
	if tensor.Volume(m.OutputShape) != 2 {
		return fmt.Errorf("output shape %v must hold exactly 2 scores", m.OutputShape)
	}
	if len(m.Classes) != 2 {
		return fmt.Errorf("expected 2 classes, got %d", len(m.Classes))
	}
	if m.Weights != filepath.Base(m.Weights) || m.Weights == "." || m.Weights == ".." {
		return fmt.Errorf("weights %q must be a plain file name", m.Weights)
	}
	return nil
}

type PredictionRequest struct {
	Image []float32 `json:"image"`
}

type PredictionResponse struct {
	Class       string             `json:"class"`
	Confidence  float32            `json:"confidence"`
	IsBiryani   bool               `json:"is_biryani"`
	Summary     string             `json:"summary"`
	Predictions map[string]float32 `json:"predictions"`
}
