package model

import (
	"context"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXRuntime loads descriptors and weights into ONNX Runtime sessions.
type ONNXRuntime struct{}

// NewONNXRuntime initializes the process-wide ONNX environment. An empty
// libraryPath keeps the onnxruntime_go default lookup.
func NewONNXRuntime(libraryPath string) (*ONNXRuntime, error) {
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}
	return &ONNXRuntime{}, nil
}

func (r *ONNXRuntime) LoadFile(meta Metadata, weightsPath string) (Scorer, error) {
	session, err := ort.NewDynamicAdvancedSession(weightsPath,
		[]string{meta.InputName}, []string{meta.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return newOnnxScorer(session, meta), nil
}

func (r *ONNXRuntime) LoadBytes(meta Metadata, weights []byte) (Scorer, error) {
	session, err := ort.NewDynamicAdvancedSessionWithONNXData(weights,
		[]string{meta.InputName}, []string{meta.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return newOnnxScorer(session, meta), nil
}

func (r *ONNXRuntime) Close() error {
	return ort.DestroyEnvironment()
}

type onnxScorer struct {
	session     *ort.DynamicAdvancedSession
	outputShape ort.Shape
}

func newOnnxScorer(session *ort.DynamicAdvancedSession, meta Metadata) *onnxScorer {
	return &onnxScorer{
		session:     session,
		outputShape: ort.NewShape(meta.OutputShape...),
	}
}

// Score allocates the runtime tensors for a single call and destroys them
// before returning, whatever the outcome.
func (s *onnxScorer) Score(_ context.Context, input []float32, shape []int64) ([]float32, error) {
	inputTensor, err := ort.NewTensor(ort.NewShape(shape...), input)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](s.outputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := s.session.Run([]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor}); err != nil {
		return nil, err
	}

	outputData := outputTensor.GetData()
	scores := make([]float32, len(outputData))
	copy(scores, outputData)
	return scores, nil
}

func (s *onnxScorer) Close() error {
	if s.session == nil {
		return nil
	}
	return s.session.Destroy()
}
