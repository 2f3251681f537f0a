package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/models"
)

// EncodeJSONL serializes annotations as one JSON object per line.
func EncodeJSONL(anns []models.Annotation) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, ann := range anns {
		if err := enc.Encode(ann); err != nil {
			return nil, fmt.Errorf("failed to encode annotation %s: %w", ann.ItemID, err)
		}
	}
	return buf.Bytes(), nil
}

// DecodeJSONL parses every non-empty line. A line that fails to parse is
// skipped rather than aborting the whole read; the skipped count is
// returned so callers can log it.
func DecodeJSONL(data []byte) (anns []models.Annotation, skipped int) {
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var ann models.Annotation
		if err := json.Unmarshal(line, &ann); err != nil {
			skipped++
			continue
		}
		anns = append(anns, ann)
	}
	return anns, skipped
}

// MergeByItemID unions two record sets by item id. Existing records win on
// conflict: an incoming record whose item id is already present is dropped
// whole, not merged field-by-field. Applying the same incoming set twice
// is therefore idempotent.
func MergeByItemID(existing, incoming []models.Annotation) []models.Annotation {
	seen := make(map[string]struct{}, len(existing))
	for _, ann := range existing {
		seen[ann.ItemID] = struct{}{}
	}

	merged := make([]models.Annotation, 0, len(existing)+len(incoming))
	merged = append(merged, existing...)
	for _, ann := range incoming {
		if _, ok := seen[ann.ItemID]; ok {
			continue
		}
		seen[ann.ItemID] = struct{}{}
		merged = append(merged, ann)
	}
	return merged
}
