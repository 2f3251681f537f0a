// Package store persists annotation records as JSON Lines, locally on
// disk and remotely through a pluggable sink. There is no file locking:
// the tool assumes a single annotator session per file, and concurrent
// writers from two processes will race.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/models"
)

// Local is the on-disk annotation store. Each annotator gets a directory
// holding a single <annotator_id>_annotations.jsonl file.
type Local struct {
	dir    string
	logger *zap.Logger
}

// NewLocal creates the local store rooted at dir.
func NewLocal(dir string, logger *zap.Logger) *Local {
	return &Local{dir: dir, logger: logger}
}

// Path returns the annotation file path for an annotator.
func (s *Local) Path(annotatorID string) string {
	return filepath.Join(s.dir, annotatorID, annotatorID+"_annotations.jsonl")
}

func (s *Local) ensureDir(annotatorID string) error {
	if err := os.MkdirAll(filepath.Join(s.dir, annotatorID), 0o755); err != nil {
		return fmt.Errorf("failed to create annotator directory: %w", err)
	}
	return nil
}

// Append writes one record as a single JSON line.
func (s *Local) Append(ann models.Annotation) error {
	if err := s.ensureDir(ann.AnnotatorID); err != nil {
		return err
	}

	data, err := EncodeJSONL([]models.Annotation{ann})
	if err != nil {
		return err
	}

	f, err := os.OpenFile(s.Path(ann.AnnotatorID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open annotation file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to append annotation: %w", err)
	}
	return nil
}

// AppendAll appends a batch of records in order.
func (s *Local) AppendAll(annotatorID string, anns []models.Annotation) error {
	if len(anns) == 0 {
		return nil
	}
	if err := s.ensureDir(annotatorID); err != nil {
		return err
	}

	data, err := EncodeJSONL(anns)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(s.Path(annotatorID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open annotation file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to append annotations: %w", err)
	}
	return nil
}

// SaveAll appends a batch of records, satisfying the flush sink contract.
// The local store is append-only on flush; deduplication is the remote
// store's concern.
func (s *Local) SaveAll(_ context.Context, annotatorID string, anns []models.Annotation) error {
	return s.AppendAll(annotatorID, anns)
}

// ReadAll parses every non-empty line of the annotator's file. A missing
// file is an empty store, not an error. Malformed lines are skipped with a
// warning instead of aborting the read.
func (s *Local) ReadAll(annotatorID string) ([]models.Annotation, error) {
	data, err := os.ReadFile(s.Path(annotatorID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read annotation file: %w", err)
	}

	anns, skipped := DecodeJSONL(data)
	if skipped > 0 {
		s.logger.Warn("Skipped malformed annotation lines",
			zap.String("annotator_id", annotatorID),
			zap.Int("skipped", skipped))
	}
	return anns, nil
}

// Replace substitutes the first record whose item id matches and rewrites
// the whole file. All other records pass through untouched. Returns false
// if no record matched.
func (s *Local) Replace(annotatorID, itemID string, ann models.Annotation) (bool, error) {
	anns, err := s.ReadAll(annotatorID)
	if err != nil {
		return false, err
	}

	replaced := false
	for i := range anns {
		if anns[i].ItemID == itemID {
			anns[i] = ann
			replaced = true
			break
		}
	}
	if !replaced {
		return false, nil
	}

	data, err := EncodeJSONL(anns)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(s.Path(annotatorID), data, 0o644); err != nil {
		return false, fmt.Errorf("failed to rewrite annotation file: %w", err)
	}
	return true, nil
}
