// Package assign maps the ordered item sequence onto annotator shards.
package assign

import (
	"fmt"

	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/models"
)

// Policy selects how items are divided among annotators.
type Policy string

const (
	// PolicyPartition slices the dataset into contiguous equal shards by
	// annotator index, with any remainder going to the last shard.
	PolicyPartition Policy = "partition"
	// PolicyShared assigns the full dataset to every annotator.
	PolicyShared Policy = "shared"
)

// ParsePolicy validates a policy name from configuration.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyPartition, PolicyShared:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown assignment policy %q (must be %q or %q)", s, PolicyPartition, PolicyShared)
	}
}

// Assigner computes the item shard for each annotator.
type Assigner struct {
	Policy     Policy
	Annotators int
}

// Shard returns the items the given annotator is responsible for. Under
// the partition policy the slices are disjoint and cover the dataset
// exactly once; integer-division truncation is absorbed by the final
// shard, never dropped.
func (a Assigner) Shard(items []models.Item, annotatorID string) ([]models.Item, error) {
	idx, err := models.AnnotatorIndex(annotatorID, a.Annotators)
	if err != nil {
		return nil, err
	}

	if a.Policy == PolicyShared {
		return items, nil
	}

	perAnnotator := len(items) / a.Annotators
	start := (idx - 1) * perAnnotator
	end := start + perAnnotator
	if idx == a.Annotators {
		end = len(items)
	}

	return items[start:end], nil
}
