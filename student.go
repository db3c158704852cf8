/*
File: student.go
Description: The Student Model (SM, §4.3) — a linear logistic
             classifier with optional Platt scaling, hot-swappable via
             atomic.Pointer the same way HIG hot-swaps feed snapshots.
             Grounded on original_source/engine/src/types.go's ordered
             {weights, bias, feature_names, version} StudentModel shape,
             which asserts positional identity the way a map-keyed model
             cannot.
*/

package scorecore

import (
	"encoding/json"
	"fmt"
	"math"
	"sync/atomic"
)

// PlattCalibration is the optional post-hoc calibration (a,c) applied
// as p <- sigma(a*logit(p)+c) (§4.3).
type PlattCalibration struct {
	A float64 `json:"a"`
	C float64 `json:"c"`
}

// studentModelDoc is the versioned JSON document SM is serialized as.
type studentModelDoc struct {
	Version      string            `json:"version"`
	FeatureNames []string          `json:"feature_names"`
	Weights      []float64         `json:"weights"`
	Bias         float64           `json:"bias"`
	Platt        *PlattCalibration `json:"platt,omitempty"`
}

// StudentModel is an immutable, loaded linear-logistic classifier.
// Safe for concurrent reads; never mutated after construction.
type StudentModel struct {
	version string
	weights []float64
	bias    float64
	platt   *PlattCalibration
}

// Version returns the model's declared version tag.
func (m *StudentModel) Version() string { return m.version }

// Score implements §4.3's contract: p = sigma(b + w.x), optionally
// recalibrated by Platt scaling.
func (m *StudentModel) Score(fv FeatureVector) float64 {
	z := m.bias
	for i, w := range m.weights {
		z += w * fv[i]
	}
	p := sigmoid(z)
	if m.platt != nil {
		p = sigmoid(m.platt.A*logit(p) + m.platt.C)
	}
	return p
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// logit clamps p away from the {0,1} boundary before taking log-odds,
// since Platt scaling's input domain is open (0,1).
func logit(p float64) float64 {
	const eps = 1e-12
	if p < eps {
		p = eps
	} else if p > 1-eps {
		p = 1 - eps
	}
	return math.Log(p / (1 - p))
}

// ParseStudentModel decodes and validates a serialized student model.
// The declared feature_names must match FeatureNames exactly and in
// order (I3) — a mismatch is a fatal load error, never a silent
// reorder, since SM's weight vector is positional.
func ParseStudentModel(data []byte) (*StudentModel, error) {
	var doc studentModelDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, newError(ErrModelLoad, "student_model", "decode json", err)
	}
	if len(doc.FeatureNames) != FeatureCount {
		return nil, newError(ErrModelLoad, "student_model",
			fmt.Sprintf("expected %d feature names, got %d", FeatureCount, len(doc.FeatureNames)), nil)
	}
	for i, name := range doc.FeatureNames {
		if name != FeatureNames[i] {
			return nil, newError(ErrModelLoad, "student_model",
				fmt.Sprintf("feature schema mismatch at index %d: want %q, got %q", i, FeatureNames[i], name), nil)
		}
	}
	if len(doc.Weights) != FeatureCount {
		return nil, newError(ErrModelLoad, "student_model",
			fmt.Sprintf("expected %d weights, got %d", FeatureCount, len(doc.Weights)), nil)
	}
	weights := make([]float64, FeatureCount)
	copy(weights, doc.Weights)
	return &StudentModel{
		version: doc.Version,
		weights: weights,
		bias:    doc.Bias,
		platt:   doc.Platt,
	}, nil
}

// StudentModelRegistry holds the currently-active StudentModel behind
// an atomic pointer, so Score() and Swap() never race: a reader always
// sees either the old or the new model in full, never a half-swapped
// one, mirroring HardIntelGate's snapshot discipline.
type StudentModelRegistry struct {
	current atomic.Pointer[StudentModel]
}

// NewStudentModelRegistry seeds the registry with an already-parsed
// model.
func NewStudentModelRegistry(initial *StudentModel) *StudentModelRegistry {
	r := &StudentModelRegistry{}
	r.current.Store(initial)
	return r
}

// Current returns the active model. Never nil once the registry has
// been seeded.
func (r *StudentModelRegistry) Current() *StudentModel {
	return r.current.Load()
}

// Swap atomically replaces the active model and returns the previous
// one, so a caller can keep it around briefly for in-flight requests
// that already captured a reference before the swap.
func (r *StudentModelRegistry) Swap(next *StudentModel) *StudentModel {
	return r.current.Swap(next)
}
