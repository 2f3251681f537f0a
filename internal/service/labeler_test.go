package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/assign"
	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/models"
	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/session"
	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/store"
)

// fakeRemote is an in-memory RemoteStore with the same merge semantics as
// the Drive store.
type fakeRemote struct {
	records  map[string][]models.Annotation
	failSave error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{records: make(map[string][]models.Annotation)}
}

func (f *fakeRemote) SaveAll(_ context.Context, annotatorID string, anns []models.Annotation) error {
	if f.failSave != nil {
		return f.failSave
	}
	f.records[annotatorID] = store.MergeByItemID(f.records[annotatorID], anns)
	return nil
}

func (f *fakeRemote) ReadAll(_ context.Context, annotatorID string) ([]models.Annotation, error) {
	return f.records[annotatorID], nil
}

func (f *fakeRemote) Replace(_ context.Context, annotatorID, itemID string, ann models.Annotation) (bool, error) {
	anns := f.records[annotatorID]
	for i := range anns {
		if anns[i].ItemID == itemID {
			anns[i] = ann
			return true, nil
		}
	}
	return false, nil
}

func writeTestDataset(t *testing.T, n int) string {
	t.Helper()
	items := make([]map[string]string, n)
	for i := range items {
		items[i] = map[string]string{
			"text":     fmt.Sprintf("post %d", i),
			"image_id": fmt.Sprintf("img_%d.jpg", i),
		}
	}
	data, err := json.Marshal(items)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "filtered_posts.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func newTestLabeler(t *testing.T, datasetSize int, mode StorageMode, remote RemoteStore) *Labeler {
	t.Helper()
	return NewLabeler(
		writeTestDataset(t, datasetSize),
		assign.Assigner{Policy: assign.PolicyPartition, Annotators: 4},
		session.NewStore(time.Minute),
		store.NewLocal(t.TempDir(), zap.NewNop()),
		remote,
		mode,
		zap.NewNop(),
	)
}

func claimLabel(cw models.Checkworthiness) models.Label {
	return models.Label{ClaimStatus: models.Claim, Checkworthiness: &cw}
}

func TestStartSessionShardsDataset(t *testing.T) {
	l := newTestLabeler(t, 100, ModeDrive, newFakeRemote())

	view, err := l.StartSession(context.Background(), "annotator_01")
	require.NoError(t, err)

	assert.Equal(t, 25, view.Progress.Assigned)
	assert.Equal(t, 25, view.Progress.Remaining)
	require.NotNil(t, view.Item)
	assert.Equal(t, "item_0", view.Item.ID)

	view4, err := l.StartSession(context.Background(), "annotator_04")
	require.NoError(t, err)
	assert.Equal(t, "item_75", view4.Item.ID)
}

func TestStartSessionRejectsInvalidAnnotator(t *testing.T) {
	l := newTestLabeler(t, 100, ModeDrive, newFakeRemote())
	_, err := l.StartSession(context.Background(), "annotator_99")
	assert.Error(t, err)
}

func TestStartSessionResumesPastPersistedItems(t *testing.T) {
	remote := newFakeRemote()
	remote.records["annotator_01"] = []models.Annotation{
		{AnnotatorID: "annotator_01", ItemID: "item_0", Label: models.Label{ClaimStatus: models.NoClaim}},
		{AnnotatorID: "annotator_01", ItemID: "item_1", Label: models.Label{ClaimStatus: models.NoClaim}},
	}
	l := newTestLabeler(t, 100, ModeDrive, remote)

	view, err := l.StartSession(context.Background(), "annotator_01")
	require.NoError(t, err)

	assert.Equal(t, 2, view.Progress.Submitted)
	assert.Equal(t, 23, view.Progress.Remaining)
	require.NotNil(t, view.Item)
	assert.Equal(t, "item_2", view.Item.ID)
}

func TestAnnotateNoClaimForcesNullCheckworthiness(t *testing.T) {
	remote := newFakeRemote()
	l := newTestLabeler(t, 100, ModeDrive, remote)
	ctx := context.Background()

	view, err := l.StartSession(ctx, "annotator_01")
	require.NoError(t, err)

	// Stale checkworthiness from a prior item rides along with No Claim.
	cw := models.Checkworthy
	_, err = l.Annotate(view.SessionID, models.Label{
		ClaimStatus:     models.NoClaim,
		Checkworthiness: &cw,
	})
	require.NoError(t, err)

	_, _, err = l.Flush(ctx, view.SessionID)
	require.NoError(t, err)

	records := remote.records["annotator_01"]
	require.Len(t, records, 1)
	assert.Equal(t, models.NoClaim, records[0].Label.ClaimStatus)
	assert.Nil(t, records[0].Label.Checkworthiness)
}

func TestAnnotateAdvancesAndBuffers(t *testing.T) {
	l := newTestLabeler(t, 100, ModeDrive, newFakeRemote())

	view, err := l.StartSession(context.Background(), "annotator_01")
	require.NoError(t, err)

	view, err = l.Annotate(view.SessionID, claimLabel(models.Checkworthy))
	require.NoError(t, err)

	assert.Equal(t, "item_1", view.Item.ID)
	assert.Equal(t, 1, view.Progress.Buffered)
	assert.Equal(t, 1, view.Progress.Annotated)
	assert.Equal(t, 24, view.Progress.Remaining)
}

func TestPreviousShowsBufferedDraft(t *testing.T) {
	l := newTestLabeler(t, 100, ModeDrive, newFakeRemote())

	view, err := l.StartSession(context.Background(), "annotator_01")
	require.NoError(t, err)

	view, err = l.Annotate(view.SessionID, claimLabel(models.NotCheckworthy))
	require.NoError(t, err)
	assert.Nil(t, view.Draft)

	view, err = l.Previous(view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "item_0", view.Item.ID)
	require.NotNil(t, view.Draft)
	assert.Equal(t, models.Claim, view.Draft.ClaimStatus)

	// Stepping back at the first item is a no-op.
	view, err = l.Previous(view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "item_0", view.Item.ID)
}

func TestFlushFailureKeepsBuffer(t *testing.T) {
	remote := newFakeRemote()
	l := newTestLabeler(t, 100, ModeDrive, remote)
	ctx := context.Background()

	view, err := l.StartSession(ctx, "annotator_01")
	require.NoError(t, err)

	_, err = l.Annotate(view.SessionID, models.Label{ClaimStatus: models.NoClaim})
	require.NoError(t, err)

	remote.failSave = errors.New("drive unavailable")
	_, _, err = l.Flush(ctx, view.SessionID)
	require.Error(t, err)

	progress, err := l.Progress(view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.Buffered)
	assert.Equal(t, 0, progress.Submitted)

	// The retry succeeds with the same buffered draft.
	remote.failSave = nil
	n, flushView, err := l.Flush(ctx, view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, flushView.Progress.Submitted)
	assert.Equal(t, 0, flushView.Progress.Buffered)
}

func TestFlushCountersAreAdditive(t *testing.T) {
	l := newTestLabeler(t, 100, ModeDrive, newFakeRemote())
	ctx := context.Background()

	view, err := l.StartSession(ctx, "annotator_01")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = l.Annotate(view.SessionID, models.Label{ClaimStatus: models.NoClaim})
		require.NoError(t, err)
	}

	_, _, err = l.Flush(ctx, view.SessionID)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = l.Annotate(view.SessionID, models.Label{ClaimStatus: models.NoClaim})
		require.NoError(t, err)
	}

	progress, err := l.Progress(view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.Submitted)
	assert.Equal(t, 2, progress.Buffered)
	assert.Equal(t, 5, progress.Annotated)
	assert.Equal(t, 20, progress.Remaining)
}

func TestAnnotatePastEndOfShard(t *testing.T) {
	l := newTestLabeler(t, 4, ModeDrive, newFakeRemote())

	view, err := l.StartSession(context.Background(), "annotator_01")
	require.NoError(t, err)
	require.Equal(t, 1, view.Progress.Assigned)

	view, err = l.Annotate(view.SessionID, models.Label{ClaimStatus: models.NoClaim})
	require.NoError(t, err)
	assert.True(t, view.Done)
	assert.Nil(t, view.Item)

	_, err = l.Annotate(view.SessionID, models.Label{ClaimStatus: models.NoClaim})
	assert.Error(t, err)
}

func TestUpdateReplacesPersistedRecord(t *testing.T) {
	remote := newFakeRemote()
	l := newTestLabeler(t, 100, ModeDrive, remote)
	ctx := context.Background()

	view, err := l.StartSession(ctx, "annotator_01")
	require.NoError(t, err)

	_, err = l.Annotate(view.SessionID, models.Label{ClaimStatus: models.NoClaim})
	require.NoError(t, err)
	_, _, err = l.Flush(ctx, view.SessionID)
	require.NoError(t, err)

	_, err = l.Update(ctx, view.SessionID, "item_0", claimLabel(models.Checkworthy))
	require.NoError(t, err)

	records := remote.records["annotator_01"]
	require.Len(t, records, 1)
	assert.Equal(t, models.Claim, records[0].Label.ClaimStatus)

	_, err = l.Update(ctx, view.SessionID, "item_50", claimLabel(models.Checkworthy))
	assert.Error(t, err, "item outside the shard")
}

func TestLocalModeFlushWritesFile(t *testing.T) {
	local := store.NewLocal(t.TempDir(), zap.NewNop())
	l := NewLabeler(
		writeTestDataset(t, 100),
		assign.Assigner{Policy: assign.PolicyPartition, Annotators: 4},
		session.NewStore(time.Minute),
		local,
		nil,
		ModeLocal,
		zap.NewNop(),
	)
	ctx := context.Background()

	view, err := l.StartSession(ctx, "annotator_02")
	require.NoError(t, err)

	_, err = l.Annotate(view.SessionID, models.Label{ClaimStatus: models.NoClaim})
	require.NoError(t, err)
	n, _, err := l.Flush(ctx, view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	anns, err := local.ReadAll("annotator_02")
	require.NoError(t, err)
	require.Len(t, anns, 1)
	assert.Equal(t, "item_25", anns[0].ItemID)
}

func TestRecordsExport(t *testing.T) {
	remote := newFakeRemote()
	remote.records["annotator_03"] = []models.Annotation{
		{AnnotatorID: "annotator_03", ItemID: "item_50"},
	}
	l := newTestLabeler(t, 100, ModeDrive, remote)

	anns, err := l.Records(context.Background(), "annotator_03")
	require.NoError(t, err)
	assert.Len(t, anns, 1)

	_, err = l.Records(context.Background(), "somebody")
	assert.Error(t, err)
}
