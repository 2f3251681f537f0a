// Package buffer holds in-progress annotations for one interactive
// session until they are flushed to durable storage.
package buffer

import (
	"context"
	"sync"

	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/models"
)

// Sink durably persists a batch of annotation records.
type Sink interface {
	SaveAll(ctx context.Context, annotatorID string, anns []models.Annotation) error
}

// Buffer maps item id to a draft annotation. Put overwrites an existing
// draft for the same item; Flush clears the buffer only after the sink
// reports success, so a failed flush leaves everything in place for a
// retry.
type Buffer struct {
	mu     sync.Mutex
	drafts map[string]models.Annotation
	order  []string
}

// New returns an empty draft buffer.
func New() *Buffer {
	return &Buffer{drafts: make(map[string]models.Annotation)}
}

// Put stores or overwrites the draft for an item.
func (b *Buffer) Put(itemID string, ann models.Annotation) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.drafts[itemID]; !exists {
		b.order = append(b.order, itemID)
	}
	b.drafts[itemID] = ann
}

// Get returns the draft for an item, if buffered.
func (b *Buffer) Get(itemID string) (models.Annotation, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ann, ok := b.drafts[itemID]
	return ann, ok
}

// Len reports the number of buffered drafts.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.drafts)
}

// Snapshot returns the buffered drafts in insertion order.
func (b *Buffer) Snapshot() []models.Annotation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Buffer) snapshotLocked() []models.Annotation {
	anns := make([]models.Annotation, 0, len(b.drafts))
	for _, id := range b.order {
		anns = append(anns, b.drafts[id])
	}
	return anns
}

// Flush persists all buffered drafts through the sink and reports how
// many were flushed. The buffer is cleared only on success.
func (b *Buffer) Flush(ctx context.Context, annotatorID string, sink Sink) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.drafts) == 0 {
		return 0, nil
	}

	anns := b.snapshotLocked()
	if err := sink.SaveAll(ctx, annotatorID, anns); err != nil {
		return 0, err
	}

	b.drafts = make(map[string]models.Annotation)
	b.order = nil
	return len(anns), nil
}

// Clear discards all buffered drafts.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drafts = make(map[string]models.Annotation)
	b.order = nil
}
