package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/assign"
	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/buffer"
	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/dataset"
	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/models"
	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/session"
	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/store"
)

// RemoteStore is the remote half of durable persistence.
type RemoteStore interface {
	SaveAll(ctx context.Context, annotatorID string, anns []models.Annotation) error
	ReadAll(ctx context.Context, annotatorID string) ([]models.Annotation, error)
	Replace(ctx context.Context, annotatorID, itemID string, ann models.Annotation) (bool, error)
}

// StorageMode mirrors the config storage.mode values.
type StorageMode string

const (
	ModeDrive StorageMode = "drive"
	ModeLocal StorageMode = "local"
	ModeBoth  StorageMode = "both"
)

// Labeler orchestrates one annotator's labeling flow: dataset load, shard
// assignment, session state, draft buffering and flushes to the durable
// store(s).
type Labeler struct {
	datasetPath string
	assigner    assign.Assigner
	sessions    *session.Store
	local       *store.Local
	remote      RemoteStore
	mode        StorageMode
	logger      *zap.Logger
}

// NewLabeler wires the labeling service. remote may be nil only in local
// storage mode.
func NewLabeler(
	datasetPath string,
	assigner assign.Assigner,
	sessions *session.Store,
	local *store.Local,
	remote RemoteStore,
	mode StorageMode,
	logger *zap.Logger,
) *Labeler {
	return &Labeler{
		datasetPath: datasetPath,
		assigner:    assigner,
		sessions:    sessions,
		local:       local,
		remote:      remote,
		mode:        mode,
		logger:      logger,
	}
}

// View is the render payload returned to the caller after every action.
type View struct {
	SessionID   string          `json:"session_id"`
	AnnotatorID string          `json:"annotator_id"`
	Done        bool            `json:"done"`
	Item        *models.Item    `json:"item"`
	Draft       *models.Label   `json:"draft"`
	Progress    models.Progress `json:"progress"`
}

// StartSession validates the annotator id, loads the dataset fresh,
// computes the annotator's shard, counts already-persisted records and
// opens a new session.
func (l *Labeler) StartSession(ctx context.Context, annotatorID string) (*View, error) {
	items, err := dataset.Load(l.datasetPath)
	if err != nil {
		return nil, err
	}

	shard, err := l.assigner.Shard(items, annotatorID)
	if err != nil {
		return nil, err
	}

	persisted, err := l.persistedRecords(ctx, annotatorID)
	if err != nil {
		l.logger.Error("Failed to read persisted annotations",
			zap.String("annotator_id", annotatorID), zap.Error(err))
		return nil, fmt.Errorf("failed to read persisted annotations: %w", err)
	}

	state := l.sessions.Create(annotatorID, shard, len(persisted))

	// Resume past the items already persisted in earlier sessions.
	done := make(map[string]struct{}, len(persisted))
	for _, ann := range persisted {
		done[ann.ItemID] = struct{}{}
	}
	for state.Index < len(state.Items) {
		if _, ok := done[state.Items[state.Index].ID]; !ok {
			break
		}
		state.Index++
	}

	l.logger.Info("Annotation session started",
		zap.String("annotator_id", annotatorID),
		zap.String("session_id", state.ID),
		zap.Int("assigned", len(shard)),
		zap.Int("submitted", state.Submitted))

	return l.view(state), nil
}

// Current returns the render payload for the session's current item.
func (l *Labeler) Current(sessionID string) (*View, error) {
	state, err := l.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return l.view(state), nil
}

// Annotate buffers a draft for the current item and advances the cursor.
// The label is normalized first so a non-claim can never carry a
// checkworthiness value left over from the previous item.
func (l *Labeler) Annotate(sessionID string, label models.Label) (*View, error) {
	state, err := l.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	item := state.Current()
	if item == nil {
		return nil, fmt.Errorf("no current item: all assigned items have been annotated")
	}

	label.Normalize()
	if err := label.Validate(); err != nil {
		return nil, err
	}

	state.Buffer.Put(item.ID, models.Annotation{
		AnnotatorID: state.AnnotatorID,
		ItemID:      item.ID,
		Timestamp:   models.Timestamp(),
		Text:        item.Text,
		ImageID:     item.ImageID,
		Label:       label,
	})
	state.Index++

	return l.view(state), nil
}

// Previous steps the cursor back one item.
func (l *Labeler) Previous(sessionID string) (*View, error) {
	state, err := l.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if state.Index > 0 {
		state.Index--
	}
	return l.view(state), nil
}

// Flush persists all buffered drafts to the configured store(s). On
// failure the buffer stays intact and the caller may simply retry.
func (l *Labeler) Flush(ctx context.Context, sessionID string) (int, *View, error) {
	state, err := l.sessions.Get(sessionID)
	if err != nil {
		return 0, nil, err
	}

	n, err := state.Buffer.Flush(ctx, state.AnnotatorID, l.sink())
	if err != nil {
		l.logger.Error("Flush failed, buffer retained",
			zap.String("annotator_id", state.AnnotatorID),
			zap.Int("buffered", state.Buffer.Len()),
			zap.Error(err))
		return 0, nil, err
	}

	state.Submitted += n
	l.logger.Info("Flushed annotations",
		zap.String("annotator_id", state.AnnotatorID),
		zap.Int("flushed", n),
		zap.Int("submitted", state.Submitted))

	return n, l.view(state), nil
}

// Update replaces an already-persisted record for one of the session's
// items, in every configured store.
func (l *Labeler) Update(ctx context.Context, sessionID, itemID string, label models.Label) (*View, error) {
	state, err := l.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	var item *models.Item
	for i := range state.Items {
		if state.Items[i].ID == itemID {
			item = &state.Items[i]
			break
		}
	}
	if item == nil {
		return nil, fmt.Errorf("item %s is not assigned to %s", itemID, state.AnnotatorID)
	}

	label.Normalize()
	if err := label.Validate(); err != nil {
		return nil, err
	}

	ann := models.Annotation{
		AnnotatorID: state.AnnotatorID,
		ItemID:      itemID,
		Timestamp:   models.Timestamp(),
		Text:        item.Text,
		ImageID:     item.ImageID,
		Label:       label,
	}

	replaced := false
	if l.mode == ModeLocal || l.mode == ModeBoth {
		ok, err := l.local.Replace(state.AnnotatorID, itemID, ann)
		if err != nil {
			return nil, err
		}
		replaced = replaced || ok
	}
	if l.mode == ModeDrive || l.mode == ModeBoth {
		ok, err := l.remote.Replace(ctx, state.AnnotatorID, itemID, ann)
		if err != nil {
			return nil, err
		}
		replaced = replaced || ok
	}

	if !replaced {
		return nil, fmt.Errorf("no persisted annotation for item %s", itemID)
	}

	l.logger.Info("Annotation updated",
		zap.String("annotator_id", state.AnnotatorID),
		zap.String("item_id", itemID))
	return l.view(state), nil
}

// Progress reports the session's counters.
func (l *Labeler) Progress(sessionID string) (models.Progress, error) {
	state, err := l.sessions.Get(sessionID)
	if err != nil {
		return models.Progress{}, err
	}
	return l.progress(state), nil
}

// Records returns an annotator's persisted annotations for export.
func (l *Labeler) Records(ctx context.Context, annotatorID string) ([]models.Annotation, error) {
	if _, err := models.AnnotatorIndex(annotatorID, l.assigner.Annotators); err != nil {
		return nil, err
	}
	return l.persistedRecords(ctx, annotatorID)
}

func (l *Labeler) persistedRecords(ctx context.Context, annotatorID string) ([]models.Annotation, error) {
	if l.mode == ModeLocal {
		return l.local.ReadAll(annotatorID)
	}
	return l.remote.ReadAll(ctx, annotatorID)
}

func (l *Labeler) sink() buffer.Sink {
	switch l.mode {
	case ModeLocal:
		return l.local
	case ModeBoth:
		return multiSink{l.local, l.remote}
	default:
		return l.remote
	}
}

func (l *Labeler) progress(state *session.State) models.Progress {
	buffered := state.Buffer.Len()
	p := models.Progress{
		Buffered:  buffered,
		Submitted: state.Submitted,
		Annotated: buffered + state.Submitted,
		Assigned:  len(state.Items),
	}
	p.Remaining = p.Assigned - p.Annotated
	if p.Remaining < 0 {
		// Assignment shrank between sessions; surface it rather than clamp.
		l.logger.Warn("Remaining count is negative",
			zap.String("annotator_id", state.AnnotatorID),
			zap.Int("assigned", p.Assigned),
			zap.Int("annotated", p.Annotated))
	}
	return p
}

func (l *Labeler) view(state *session.State) *View {
	v := &View{
		SessionID:   state.ID,
		AnnotatorID: state.AnnotatorID,
		Done:        state.Done(),
		Item:        state.Current(),
		Progress:    l.progress(state),
	}
	if v.Item != nil {
		if draft, ok := state.Buffer.Get(v.Item.ID); ok {
			label := draft.Label
			v.Draft = &label
		}
	}
	return v
}

// multiSink writes to each sink in order and stops at the first failure,
// leaving the buffer intact for retry.
type multiSink []buffer.Sink

func (m multiSink) SaveAll(ctx context.Context, annotatorID string, anns []models.Annotation) error {
	for _, s := range m {
		if err := s.SaveAll(ctx, annotatorID, anns); err != nil {
			return err
		}
	}
	return nil
}
