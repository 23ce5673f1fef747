package ml

import "testing"

func testTree() *DecisionTree {
	return &DecisionTree{
		Features: 2,
		Nodes: []TreeNode{
			{FeatureIdx: 0, Threshold: 0.5, LeftChild: 1, RightChild: 2},
			{IsLeaf: true, ClassLabel: 0, Probability: 0.1},
			{IsLeaf: true, ClassLabel: 1, Probability: 0.9},
		},
	}
}

func TestDecisionTreePredict(t *testing.T) {
	model := testTree()
	if err := model.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	label, confidence, err := model.Predict([]float64{0.15, 0.15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected label 0, got %d", label)
	}
	if confidence != 0.1 {
		t.Fatalf("expected confidence 0.1, got %f", confidence)
	}

	label, _, err = model.Predict([]float64{0.9, 0.1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 {
		t.Fatalf("expected label 1, got %d", label)
	}
}

func TestDecisionTreeWidthMismatch(t *testing.T) {
	if _, _, err := testTree().Predict([]float64{1}); err == nil {
		t.Fatal("expected width error")
	}
}

func TestDecisionTreeValidateRejectsBadTrees(t *testing.T) {
	cycle := testTree()
	cycle.Nodes[0].LeftChild = 0
	if err := cycle.validate(); err == nil {
		t.Fatal("expected error for self-referencing node")
	}

	multiclass := testTree()
	multiclass.Nodes[2].ClassLabel = 2
	if err := multiclass.validate(); err == nil {
		t.Fatal("expected error for non-binary label")
	}

	outOfRange := testTree()
	outOfRange.Nodes[0].FeatureIdx = 5
	if err := outOfRange.validate(); err == nil {
		t.Fatal("expected error for feature index out of range")
	}

	if err := (&DecisionTree{}).validate(); err == nil {
		t.Fatal("expected error for empty tree")
	}
}
