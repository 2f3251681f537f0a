package drive

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/models"
	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/store"
)

// Store keeps annotation records in Drive under a single root folder with
// one subfolder per annotator. Writes follow a read-merge-rewrite
// protocol: download the existing file, union by item id with existing
// records winning, re-upload the union as a full replacement. The same
// flush applied twice is idempotent; concurrent flushes from two sessions
// are not coordinated and the last rewrite wins.
type Store struct {
	api       API
	rootName  string
	shareWith string
	logger    *zap.Logger
}

// NewStore creates the remote store. shareWith, if non-empty, is granted
// writer access on the root folder when the store first creates it.
func NewStore(api API, rootName, shareWith string, logger *zap.Logger) *Store {
	return &Store{
		api:       api,
		rootName:  rootName,
		shareWith: shareWith,
		logger:    logger,
	}
}

// recordsFileName is the per-annotator records file name.
func recordsFileName(annotatorID string) string {
	return annotatorID + "_annotations.jsonl"
}

// rootFolder locates or creates the root folder. The service account owns
// everything it creates, so a newly created root is shared with the
// configured human account to make it visible.
func (s *Store) rootFolder(ctx context.Context) (string, error) {
	id, found, err := s.api.FindFolder(ctx, s.rootName, "")
	if err != nil {
		return "", err
	}
	if found {
		return id, nil
	}

	id, err = s.api.CreateFolder(ctx, s.rootName, "")
	if err != nil {
		return "", err
	}
	s.logger.Info("Created root folder", zap.String("name", s.rootName), zap.String("id", id))

	if s.shareWith != "" {
		if err := s.api.Share(ctx, id, s.shareWith); err != nil {
			return "", err
		}
		s.logger.Info("Shared root folder", zap.String("email", s.shareWith))
	}
	return id, nil
}

// annotatorFolder locates or creates the annotator's subfolder.
func (s *Store) annotatorFolder(ctx context.Context, annotatorID string) (string, error) {
	rootID, err := s.rootFolder(ctx)
	if err != nil {
		return "", err
	}

	id, found, err := s.api.FindFolder(ctx, annotatorID, rootID)
	if err != nil {
		return "", err
	}
	if found {
		return id, nil
	}

	id, err = s.api.CreateFolder(ctx, annotatorID, rootID)
	if err != nil {
		return "", err
	}
	s.logger.Info("Created annotator folder",
		zap.String("annotator_id", annotatorID),
		zap.String("id", id))
	return id, nil
}

// SaveAll flushes a batch of records. If the records file is absent it is
// created from the batch; otherwise the existing file is downloaded,
// unioned by item id (existing entries win, clashing new ids are dropped)
// and re-uploaded whole.
func (s *Store) SaveAll(ctx context.Context, annotatorID string, anns []models.Annotation) error {
	if len(anns) == 0 {
		return nil
	}

	folderID, err := s.annotatorFolder(ctx, annotatorID)
	if err != nil {
		return err
	}

	name := recordsFileName(annotatorID)
	fileID, found, err := s.api.FindFile(ctx, name, folderID)
	if err != nil {
		return err
	}

	if !found {
		data, err := store.EncodeJSONL(anns)
		if err != nil {
			return err
		}
		if _, err := s.api.CreateFile(ctx, name, folderID, data); err != nil {
			return err
		}
		s.logger.Info("Created remote annotation file",
			zap.String("annotator_id", annotatorID),
			zap.Int("records", len(anns)))
		return nil
	}

	raw, err := s.api.Download(ctx, fileID)
	if err != nil {
		return err
	}
	existing, skipped := store.DecodeJSONL(raw)
	if skipped > 0 {
		s.logger.Warn("Skipped malformed remote annotation lines",
			zap.String("annotator_id", annotatorID),
			zap.Int("skipped", skipped))
	}

	merged := store.MergeByItemID(existing, anns)
	data, err := store.EncodeJSONL(merged)
	if err != nil {
		return err
	}
	if err := s.api.Update(ctx, fileID, data); err != nil {
		return err
	}

	s.logger.Info("Merged annotations into remote file",
		zap.String("annotator_id", annotatorID),
		zap.Int("existing", len(existing)),
		zap.Int("added", len(merged)-len(existing)))
	return nil
}

// ReadAll downloads the annotator's records. An absent folder or file is
// an empty store, not an error.
func (s *Store) ReadAll(ctx context.Context, annotatorID string) ([]models.Annotation, error) {
	rootID, found, err := s.api.FindFolder(ctx, s.rootName, "")
	if err != nil || !found {
		return nil, err
	}

	folderID, found, err := s.api.FindFolder(ctx, annotatorID, rootID)
	if err != nil || !found {
		return nil, err
	}

	fileID, found, err := s.api.FindFile(ctx, recordsFileName(annotatorID), folderID)
	if err != nil || !found {
		return nil, err
	}

	raw, err := s.api.Download(ctx, fileID)
	if err != nil {
		return nil, err
	}

	anns, skipped := store.DecodeJSONL(raw)
	if skipped > 0 {
		s.logger.Warn("Skipped malformed remote annotation lines",
			zap.String("annotator_id", annotatorID),
			zap.Int("skipped", skipped))
	}
	return anns, nil
}

// Replace substitutes the first remote record whose item id matches and
// rewrites the file wholesale. Returns false if the store or the record
// is absent.
func (s *Store) Replace(ctx context.Context, annotatorID, itemID string, ann models.Annotation) (bool, error) {
	rootID, found, err := s.api.FindFolder(ctx, s.rootName, "")
	if err != nil || !found {
		return false, err
	}
	folderID, found, err := s.api.FindFolder(ctx, annotatorID, rootID)
	if err != nil || !found {
		return false, err
	}
	fileID, found, err := s.api.FindFile(ctx, recordsFileName(annotatorID), folderID)
	if err != nil || !found {
		return false, err
	}

	raw, err := s.api.Download(ctx, fileID)
	if err != nil {
		return false, err
	}
	anns, skipped := store.DecodeJSONL(raw)
	if skipped > 0 {
		s.logger.Warn("Skipped malformed remote annotation lines",
			zap.String("annotator_id", annotatorID),
			zap.Int("skipped", skipped))
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

	data, err := store.EncodeJSONL(anns)
	if err != nil {
		return false, err
	}
	if err := s.api.Update(ctx, fileID, data); err != nil {
		return false, err
	}

	s.logger.Info("Replaced remote annotation",
		zap.String("annotator_id", annotatorID),
		zap.String("item_id", itemID))
	return true, nil
}

// ListRoot returns the direct children of the root folder, typically one
// folder per annotator. An absent root is an empty listing.
func (s *Store) ListRoot(ctx context.Context) ([]Entry, error) {
	rootID, found, err := s.api.FindFolder(ctx, s.rootName, "")
	if err != nil || !found {
		return nil, err
	}
	return s.api.List(ctx, rootID)
}

// WipeRoot deletes the root folder and everything in it. This is the only
// deletion path for annotation records and is deliberately out-of-band,
// reachable from the maintenance CLI rather than the annotation flow.
// Child deletions are best-effort: a failure is logged and the wipe moves
// on, since deleting the root removes the remainder anyway.
func (s *Store) WipeRoot(ctx context.Context) (bool, error) {
	rootID, found, err := s.api.FindFolder(ctx, s.rootName, "")
	if err != nil {
		return false, err
	}
	if !found {
		s.logger.Warn("Root folder not found, nothing to wipe", zap.String("name", s.rootName))
		return false, nil
	}

	folders, err := s.api.List(ctx, rootID)
	if err != nil {
		return false, err
	}
	for _, folder := range folders {
		files, err := s.api.List(ctx, folder.ID)
		if err != nil {
			s.logger.Error("Failed to list folder during wipe",
				zap.String("name", folder.Name), zap.Error(err))
			continue
		}
		for _, f := range files {
			if err := s.api.Delete(ctx, f.ID); err != nil {
				s.logger.Error("Failed to delete file during wipe",
					zap.String("name", f.Name), zap.Error(err))
			}
		}
		if err := s.api.Delete(ctx, folder.ID); err != nil {
			s.logger.Error("Failed to delete folder during wipe",
				zap.String("name", folder.Name), zap.Error(err))
		}
	}

	if err := s.api.Delete(ctx, rootID); err != nil {
		return false, fmt.Errorf("failed to delete root folder: %w", err)
	}
	s.logger.Info("Deleted root folder", zap.String("name", s.rootName))
	return true, nil
}
