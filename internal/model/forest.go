package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
)

// leaf marks a missing child, matching scikit-learn's TREE_LEAF.
const leaf = -1

// positiveClass is the class label whose probability is returned.
const positiveClass = 1

// Forest is a random forest classifier evaluated from a JSON tree export.
// It implements domain.Scorer and is immutable after loading.
type Forest struct {
	trees    [][]treeNode
	positive int // index of positiveClass in the artifact's classes
}

type treeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value"`
}

type forestFile struct {
	NFeatures int   `json:"n_features"`
	Classes   []int `json:"classes"`
	Trees     []struct {
		Nodes []treeNode `json:"nodes"`
	} `json:"trees"`
}

// LoadForest reads a forest artifact from disk.
func LoadForest(path string) (*Forest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open forest artifact: %w", err)
	}
	defer f.Close()

	forest, err := DecodeForest(f)
	if err != nil {
		return nil, fmt.Errorf("load forest %s: %w", path, err)
	}
	return forest, nil
}

// DecodeForest parses and validates a forest artifact.
//
// Nodes are stored in scikit-learn's depth-first order, so every child index
// is greater than its parent's. That ordering is enforced here and guarantees
// traversal terminates.
func DecodeForest(r io.Reader) (*Forest, error) {
	var ff forestFile
	if err := json.NewDecoder(r).Decode(&ff); err != nil {
		return nil, fmt.Errorf("decode forest: %w", err)
	}

	if ff.NFeatures != domain.NumFeatures {
		return nil, fmt.Errorf("forest expects %d features, want %d", ff.NFeatures, domain.NumFeatures)
	}
	if len(ff.Trees) == 0 {
		return nil, errors.New("forest has no trees")
	}

	positive := -1
	for i, c := range ff.Classes {
		if c == positiveClass {
			positive = i
		}
	}
	if positive < 0 {
		return nil, fmt.Errorf("forest classes %v do not include %d", ff.Classes, positiveClass)
	}

	f := &Forest{
		trees:    make([][]treeNode, len(ff.Trees)),
		positive: positive,
	}
	for t, tr := range ff.Trees {
		if err := validateTree(tr.Nodes, len(ff.Classes)); err != nil {
			return nil, fmt.Errorf("tree %d: %w", t, err)
		}
		f.trees[t] = tr.Nodes
	}
	return f, nil
}

func validateTree(nodes []treeNode, nClasses int) error {
	if len(nodes) == 0 {
		return errors.New("empty tree")
	}
	for i, n := range nodes {
		if n.Left == leaf || n.Right == leaf {
			if n.Left != n.Right {
				return fmt.Errorf("node %d: exactly one child is a leaf marker", i)
			}
			if len(n.Value) != nClasses {
				return fmt.Errorf("node %d: leaf has %d class counts, want %d", i, len(n.Value), nClasses)
			}
			var total float64
			for _, c := range n.Value {
				if c < 0 {
					return fmt.Errorf("node %d: negative class count", i)
				}
				total += c
			}
			if total == 0 {
				return fmt.Errorf("node %d: leaf has no samples", i)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= domain.NumFeatures {
			return fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
		if n.Left <= i || n.Left >= len(nodes) || n.Right <= i || n.Right >= len(nodes) {
			return fmt.Errorf("node %d: child index out of order", i)
		}
	}
	return nil
}

// Trees returns the number of trees in the forest.
func (f *Forest) Trees() int { return len(f.trees) }

// Score returns the mean positive-class probability across all trees.
func (f *Forest) Score(ctx context.Context, v domain.FeatureVector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var sum float64
	for _, nodes := range f.trees {
		sum += leafProbability(nodes, v, f.positive)
	}
	return sum / float64(len(f.trees)), nil
}

// leafProbability walks one tree (x <= threshold goes left) and normalises
// the reached leaf's class counts.
func leafProbability(nodes []treeNode, v domain.FeatureVector, class int) float64 {
	i := 0
	for nodes[i].Left != leaf {
		n := nodes[i]
		if v[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}

	var total float64
	for _, c := range nodes[i].Value {
		total += c
	}
	return nodes[i].Value[class] / total
}
