package ml

import (
	"fmt"
	"math"
)

// Model 已加载的只读预测器，实现必须并发安全
type Model interface {
	Predict(t *Table) ([]float64, error)
	Info() Info
}

type Info struct {
	Type     string   `json:"type"`
	Features []string `json:"features"`
	Labels   Labels   `json:"labels,omitempty"`
}

// featureMatrix 按模型的特征顺序取出特征列，其他列忽略
func featureMatrix(t *Table, features []string) ([][]float64, error) {
	positions := make([]int, len(features))
	for i, name := range features {
		idx, ok := t.ColumnIndex(name)
		if !ok {
			return nil, fmt.Errorf("feature %q not found in input columns", name)
		}
		positions[i] = idx
	}

	matrix := make([][]float64, t.Len())
	for r := range t.rows {
		vector := make([]float64, len(features))
		for i, idx := range positions {
			f, err := cellFloat(t.rows[r][idx])
			if err != nil {
				return nil, fmt.Errorf("feature %q at row %d: %w", features[i], r, err)
			}
			vector[i] = f
		}
		matrix[r] = vector
	}
	return matrix, nil
}

func cellFloat(v Value) (float64, error) {
	switch v.Kind() {
	case KindMissing:
		return 0, fmt.Errorf("input contains a missing value")
	case KindInt, KindFloat, KindBool, KindString:
		n := v.ToNumeric()
		f, ok := n.Float64()
		if !ok {
			return 0, fmt.Errorf("could not convert %q to float", v.Text())
		}
		if math.IsInf(f, 0) {
			return 0, fmt.Errorf("input contains infinity")
		}
		return f, nil
	default:
		return 0, fmt.Errorf("could not convert %s value to float", v.Kind())
	}
}
