// Package dataset loads the fixed annotation dataset: a JSON array of
// text+image pairs whose order defines each item's derived id.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/models"
)

type rawItem struct {
	Text    string `json:"text"`
	ImageID string `json:"image_id"`
}

// Load reads the dataset file and assigns sequential item ids. The ids are
// position-based (item_0, item_1, ...) and only stable for this load; the
// dataset file itself is the source of truth for ordering.
func Load(path string) ([]models.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	var raw []rawItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse dataset file %s: %w", path, err)
	}

	items := make([]models.Item, len(raw))
	for i, r := range raw {
		items[i] = models.Item{
			ID:      fmt.Sprintf("item_%d", i),
			Text:    r.Text,
			ImageID: r.ImageID,
		}
	}

	return items, nil
}
