package ml

import "testing"

func sampleTree(t *testing.T) *DecisionTree {
	t.Helper()
	// analog_value <= 20 为2，否则 timestamp <= 1000 为1，其余为0
	nodes := []TreeNode{
		{FeatureIdx: 1, Threshold: 20, LeftChild: 1, RightChild: 2},
		{IsLeaf: true, Value: 2},
		{FeatureIdx: 0, Threshold: 1000, LeftChild: 3, RightChild: 4},
		{IsLeaf: true, Value: 1},
		{IsLeaf: true, Value: 0},
	}
	tree, err := NewDecisionTree([]string{"timestamp", "analog_value"}, nodes, DefaultLabels())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tree
}

func TestDecisionTreePredict(t *testing.T) {
	tree := sampleTree(t)

	table := NewTable()
	table.AppendRow([]string{"timestamp", "analog_value"}, []Value{Int(500), Float(10.5)})
	table.AppendRow([]string{"timestamp", "analog_value"}, []Value{Int(500), Float(30)})
	table.AppendRow([]string{"timestamp", "analog_value", "client_id"}, []Value{Int(5000), Int(30), String("T1")})

	got, err := tree.Predict(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{2, 1, 0}
	if len(got) != len(want) {
		t.Fatalf("expected %d predictions, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("prediction %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestDecisionTreeFeatureOrderFollowsModel(t *testing.T) {
	tree := sampleTree(t)

	table := NewTable()
	table.AppendRow([]string{"analog_value", "timestamp"}, []Value{Float(30), Int(5000)})

	got, err := tree.Predict(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0] != 0 {
		t.Fatalf("expected class 0, got %v", got[0])
	}
}

func TestDecisionTreeRejectsMissingFeature(t *testing.T) {
	tree := sampleTree(t)

	table := NewTable()
	table.AppendRow([]string{"timestamp", "analog_value"}, []Value{Int(1), Float(1)})
	table.AppendRow([]string{"timestamp"}, []Value{Int(2)})

	if _, err := tree.Predict(table); err == nil {
		t.Fatal("expected error for missing analog_value")
	}
}

func TestDecisionTreeRejectsNonNumericFeature(t *testing.T) {
	tree := sampleTree(t)

	table := NewTable()
	table.AppendRow([]string{"timestamp", "analog_value"}, []Value{Int(1), String("bright")})

	if _, err := tree.Predict(table); err == nil {
		t.Fatal("expected error for non-numeric analog_value")
	}
}

func TestNewDecisionTreeValidatesNodes(t *testing.T) {
	features := []string{"timestamp", "analog_value"}
	cases := map[string][]TreeNode{
		"empty":          nil,
		"bad feature":    {{FeatureIdx: 5, LeftChild: 1, RightChild: 2}, {IsLeaf: true}, {IsLeaf: true}},
		"backward child": {{FeatureIdx: 0, LeftChild: 1, RightChild: 2}, {IsLeaf: true}, {FeatureIdx: 0, LeftChild: 0, RightChild: 1}},
		"child overflow": {{FeatureIdx: 0, LeftChild: 1, RightChild: 9}, {IsLeaf: true}},
	}
	for name, nodes := range cases {
		if _, err := NewDecisionTree(features, nodes, nil); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
