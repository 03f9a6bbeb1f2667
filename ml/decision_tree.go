package ml

import (
	"errors"
	"fmt"
)

type DecisionTree struct {
	features []string
	labels   Labels
	nodes    []TreeNode
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

// NewDecisionTree 由根在下标0的扁平节点数组构建决策树
func NewDecisionTree(features []string, nodes []TreeNode, labels Labels) (*DecisionTree, error) {
	if len(features) == 0 {
		return nil, errors.New("decision tree has no features")
	}
	if len(nodes) == 0 {
		return nil, errors.New("decision tree has no nodes")
	}
	for i, node := range nodes {
		if node.IsLeaf {
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return nil, fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		if node.LeftChild <= i || node.LeftChild >= len(nodes) {
			return nil, fmt.Errorf("node %d: invalid left child %d", i, node.LeftChild)
		}
		if node.RightChild <= i || node.RightChild >= len(nodes) {
			return nil, fmt.Errorf("node %d: invalid right child %d", i, node.RightChild)
		}
	}
	return &DecisionTree{
		features: append([]string(nil), features...),
		labels:   labels,
		nodes:    append([]TreeNode(nil), nodes...),
	}, nil
}

func (dt *DecisionTree) Info() Info {
	return Info{Type: TypeDecisionTree, Features: append([]string(nil), dt.features...), Labels: dt.labels}
}

func (dt *DecisionTree) Predict(t *Table) ([]float64, error) {
	matrix, err := featureMatrix(t, dt.features)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(matrix))
	for i, row := range matrix {
		value, err := dt.predictRow(row)
		if err != nil {
			return nil, err
		}
		out[i] = value
	}
	return out, nil
}

// 子节点总在后面，遍历最多 len(nodes) 步
func (dt *DecisionTree) predictRow(features []float64) (float64, error) {
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}
