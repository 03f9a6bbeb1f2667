package ml

import (
	"errors"
	"fmt"
)

// LinearModel is a regression of the form intercept + Σ weight·feature.
type LinearModel struct {
	features  []string
	weights   []float64
	intercept float64
	labels    Labels
}

func NewLinearModel(features []string, weights []float64, intercept float64, labels Labels) (*LinearModel, error) {
	if len(features) == 0 {
		return nil, errors.New("linear model has no features")
	}
	if len(weights) != len(features) {
		return nil, fmt.Errorf("linear model has %d weights for %d features", len(weights), len(features))
	}
	return &LinearModel{
		features:  append([]string(nil), features...),
		weights:   append([]float64(nil), weights...),
		intercept: intercept,
		labels:    labels,
	}, nil
}

func (m *LinearModel) Info() Info {
	return Info{Type: TypeLinear, Features: append([]string(nil), m.features...), Labels: m.labels}
}

func (m *LinearModel) Predict(t *Table) ([]float64, error) {
	matrix, err := featureMatrix(t, m.features)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(matrix))
	for i, row := range matrix {
		sum := m.intercept
		for j, x := range row {
			sum += m.weights[j] * x
		}
		out[i] = sum
	}
	return out, nil
}
