package ml

import (
	"errors"
	"fmt"
)

// DecisionTree is a fitted tree stored as a flat node list; node 0 is the root.
type DecisionTree struct {
	Features int        `json:"n_features"`
	Nodes    []TreeNode `json:"nodes"`
}

type TreeNode struct {
	FeatureIdx  int     `json:"feature_idx"`
	Threshold   float64 `json:"threshold"`
	LeftChild   int     `json:"left_child"`
	RightChild  int     `json:"right_child"`
	ClassLabel  int     `json:"class_label"`
	Probability float64 `json:"probability"`
	IsLeaf      bool    `json:"is_leaf"`
}

func (dt *DecisionTree) NumFeatures() int {
	return dt.Features
}

func (dt *DecisionTree) Predict(features []float64) (int, float64, error) {
	if len(dt.Nodes) == 0 {
		return 0, 0, errors.New("model not trained")
	}
	if err := checkWidth(len(features), dt.Features); err != nil {
		return 0, 0, err
	}
	idx := 0
	// A valid tree reaches a leaf in at most len(Nodes) steps.
	for steps := 0; steps <= len(dt.Nodes); steps++ {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return node.ClassLabel, leafConfidence(node), nil
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
	return 0, 0, errors.New("invalid tree state")
}

func (dt *DecisionTree) validate() error {
	if len(dt.Nodes) == 0 {
		return ErrNotFitted
	}
	if dt.Features <= 0 {
		return errors.New("decision_tree: n_features must be positive")
	}
	for i, node := range dt.Nodes {
		if node.IsLeaf {
			if node.ClassLabel != 0 && node.ClassLabel != 1 {
				return fmt.Errorf("decision_tree: node %d has non-binary label %d", i, node.ClassLabel)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= dt.Features {
			return fmt.Errorf("decision_tree: node %d feature index %d out of range", i, node.FeatureIdx)
		}
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(dt.Nodes) {
				return fmt.Errorf("decision_tree: node %d has invalid child %d", i, child)
			}
		}
	}
	return nil
}

func leafConfidence(node TreeNode) float64 {
	if node.Probability > 0 {
		return node.Probability
	}
	return float64(node.ClassLabel)
}
