package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Forest is a pre-trained random forest. Each tree is stored as a flattened
// node array; a leaf keeps the class counts seen during training, so a
// single traversal yields both the vote and the probability mass.
type Forest struct {
	version   string
	trainedAt string
	schema    []string
	trees     [][]TreeNode
}

type TreeNode struct {
	FeatureIdx  int     `json:"feature_idx"`
	Threshold   float64 `json:"threshold"`
	LeftChild   int     `json:"left_child"`
	RightChild  int     `json:"right_child"`
	ClassCounts [2]int  `json:"class_counts"`
	IsLeaf      bool    `json:"is_leaf"`
}

type forestArtifact struct {
	Version   string       `json:"version"`
	TrainedAt string       `json:"trained_at"`
	Schema    []string     `json:"schema"`
	Trees     [][]TreeNode `json:"trees"`
}

// Predict averages the class-1 share of each tree's leaf counts and labels
// the input 1 when that mean exceeds 0.5 (ties resolve to class 0, matching
// argmax over the averaged distribution).
func (f *Forest) Predict(features []float64) (int, float64, error) {
	if len(f.trees) == 0 {
		return 0, 0, errors.New("model not loaded")
	}
	if len(features) != len(f.schema) {
		return 0, 0, fmt.Errorf("%w: got %d features, artifact expects %d",
			ErrSchemaMismatch, len(features), len(f.schema))
	}

	sum := 0.0
	for _, nodes := range f.trees {
		p, err := treeProba(nodes, features)
		if err != nil {
			return 0, 0, err
		}
		sum += p
	}
	proba := sum / float64(len(f.trees))

	label := 0
	if proba > 0.5 {
		label = 1
	}
	return label, proba, nil
}

func treeProba(nodes []TreeNode, features []float64) (float64, error) {
	idx := 0
	for {
		node := nodes[idx]
		if node.IsLeaf {
			total := node.ClassCounts[0] + node.ClassCounts[1]
			if total == 0 {
				return 0, errors.New("leaf with empty class counts")
			}
			return float64(node.ClassCounts[1]) / float64(total), nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

func (f *Forest) Schema() []string {
	return append([]string(nil), f.schema...)
}

func (f *Forest) Version() string {
	if f.trainedAt == "" {
		return f.version
	}
	return fmt.Sprintf("%s (trained on %s)", f.version, f.trainedAt)
}

// Load reads and validates a JSON artifact. A structurally broken artifact
// is rejected wholesale; the Forest is only mutated on success.
func (f *Forest) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var artifact forestArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return fmt.Errorf("decode model artifact: %w", err)
	}
	if err := validateArtifact(artifact); err != nil {
		return fmt.Errorf("invalid model artifact %s: %w", path, err)
	}

	f.version = artifact.Version
	f.trainedAt = artifact.TrainedAt
	f.schema = artifact.Schema
	f.trees = artifact.Trees
	return nil
}

func validateArtifact(a forestArtifact) error {
	if len(a.Schema) == 0 {
		return errors.New("empty schema")
	}
	if len(a.Trees) == 0 {
		return errors.New("no trees")
	}
	for t, nodes := range a.Trees {
		if len(nodes) == 0 {
			return fmt.Errorf("tree %d is empty", t)
		}
		for i, node := range nodes {
			if node.IsLeaf {
				if node.ClassCounts[0]+node.ClassCounts[1] <= 0 {
					return fmt.Errorf("tree %d node %d: leaf without class counts", t, i)
				}
				continue
			}
			if node.FeatureIdx < 0 || node.FeatureIdx >= len(a.Schema) {
				return fmt.Errorf("tree %d node %d: feature index %d out of range", t, i, node.FeatureIdx)
			}
			if node.LeftChild <= i || node.LeftChild >= len(nodes) ||
				node.RightChild <= i || node.RightChild >= len(nodes) {
				return fmt.Errorf("tree %d node %d: child index out of range", t, i)
			}
		}
	}
	return nil
}
