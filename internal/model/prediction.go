package model

import "fmt"

// Prediction holds the two independent class scores returned by the model.
// Index 0 is biryani and index 1 is not-biryani. They need not sum to 1.
type Prediction struct {
	Scores  []float32
	Classes []string
}

func NewPrediction(scores []float32, classes []string) (Prediction, error) {
	if len(scores) != 2 {
		return Prediction{}, fmt.Errorf("expected 2 scores, got %d", len(scores))
	}
	if len(classes) != 2 {
		classes = []string{ClassBiryani, ClassNotBiryani}
	}
	return Prediction{
		Scores:  append([]float32(nil), scores...),
		Classes: append([]string(nil), classes...),
	}, nil
}

// IsBiryani is a strict comparison, so a tie is not a biryani.
func (p Prediction) IsBiryani() bool {
	return p.Scores[0] > p.Scores[1]
}

func (p Prediction) index() int {
	if p.IsBiryani() {
		return 0
	}
	return 1
}

func (p Prediction) Label() string {
	return p.Classes[p.index()]
}

func (p Prediction) Confidence() float32 {
	return p.Scores[p.index()]
}

func (p Prediction) Headline() string {
	if p.IsBiryani() {
		return "Dis is a Biryani!"
	}
	return "Dat not a Biryani"
}

// Summary renders the reported class as a percentage, e.g. "Biryani: 91.20%".
func (p Prediction) Summary() string {
	name := "Not Biryani"
	if p.IsBiryani() {
		name = "Biryani"
	}
	return fmt.Sprintf("%s: %.2f%%", name, p.Confidence()*100)
}

func (p Prediction) Response() *PredictionResponse {
	predictions := make(map[string]float32, len(p.Scores))
	for i, val := range p.Scores {
		predictions[p.Classes[i]] = val
	}
	return &PredictionResponse{
		Class:       p.Label(),
		Confidence:  p.Confidence(),
		IsBiryani:   p.IsBiryani(),
		Summary:     p.Summary(),
		Predictions: predictions,
	}
}
