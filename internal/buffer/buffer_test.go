package buffer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/models"
)

type captureSink struct {
	err     error
	saved   []models.Annotation
	calls   int
	lastFor string
}

func (c *captureSink) SaveAll(_ context.Context, annotatorID string, anns []models.Annotation) error {
	c.calls++
	c.lastFor = annotatorID
	if c.err != nil {
		return c.err
	}
	c.saved = append(c.saved, anns...)
	return nil
}

func draft(itemID string, status models.ClaimStatus) models.Annotation {
	return models.Annotation{
		AnnotatorID: "annotator_01",
		ItemID:      itemID,
		Label:       models.Label{ClaimStatus: status},
	}
}

func TestPutOverwritesExistingDraft(t *testing.T) {
	b := New()
	b.Put("item_0", draft("item_0", models.NoClaim))
	b.Put("item_0", draft("item_0", models.Claim))

	assert.Equal(t, 1, b.Len())
	ann, ok := b.Get("item_0")
	require.True(t, ok)
	assert.Equal(t, models.Claim, ann.Label.ClaimStatus)
}

func TestSnapshotPreservesInsertionOrder(t *testing.T) {
	b := New()
	b.Put("item_2", draft("item_2", models.NoClaim))
	b.Put("item_0", draft("item_0", models.NoClaim))
	b.Put("item_1", draft("item_1", models.NoClaim))
	b.Put("item_0", draft("item_0", models.Claim)) // overwrite keeps position

	snap := b.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "item_2", snap[0].ItemID)
	assert.Equal(t, "item_0", snap[1].ItemID)
	assert.Equal(t, "item_1", snap[2].ItemID)
}

func TestFlushClearsOnSuccess(t *testing.T) {
	b := New()
	b.Put("item_0", draft("item_0", models.NoClaim))
	b.Put("item_1", draft("item_1", models.NoClaim))

	sink := &captureSink{}
	n, err := b.Flush(context.Background(), "annotator_01", sink)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, b.Len())
	assert.Len(t, sink.saved, 2)
	assert.Equal(t, "annotator_01", sink.lastFor)
}

func TestFlushKeepsBufferOnFailure(t *testing.T) {
	b := New()
	b.Put("item_0", draft("item_0", models.NoClaim))

	sink := &captureSink{err: errors.New("network down")}
	_, err := b.Flush(context.Background(), "annotator_01", sink)
	require.Error(t, err)

	// Buffer intact: the caller can retry the same flush.
	assert.Equal(t, 1, b.Len())

	sink.err = nil
	n, err := b.Flush(context.Background(), "annotator_01", sink)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, b.Len())
}

func TestFlushEmptyBufferSkipsSink(t *testing.T) {
	b := New()
	sink := &captureSink{}

	n, err := b.Flush(context.Background(), "annotator_01", sink)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, sink.calls)
}

func TestClear(t *testing.T) {
	b := New()
	b.Put("item_0", draft("item_0", models.NoClaim))
	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Snapshot())
}
