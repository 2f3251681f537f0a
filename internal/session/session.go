// Package session keeps per-annotator interactive state in an expiring
// key-value store. Each request restores the session from its id, mutates
// it, and saves it back; there is no hidden process-wide state.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/buffer"
	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/models"
)

// State is one annotator's interactive session: their shard snapshot, the
// current position, the draft buffer and the submitted counter.
type State struct {
	ID          string
	AnnotatorID string
	Items       []models.Item
	Index       int
	Submitted   int
	Buffer      *buffer.Buffer
	CreatedAt   time.Time
}

// Done reports whether the annotator has stepped past their last item.
func (s *State) Done() bool {
	return s.Index >= len(s.Items)
}

// Current returns the item at the session cursor, or nil when done.
func (s *State) Current() *models.Item {
	if s.Done() {
		return nil
	}
	return &s.Items[s.Index]
}

// Store holds sessions with a sliding TTL.
type Store struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewStore creates a session store whose entries expire after ttl of
// inactivity.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		cache: gocache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

// Create starts a session for an annotator over their item shard.
func (st *Store) Create(annotatorID string, items []models.Item, submitted int) *State {
	s := &State{
		ID:          uuid.New().String(),
		AnnotatorID: annotatorID,
		Items:       items,
		Submitted:   submitted,
		Buffer:      buffer.New(),
		CreatedAt:   time.Now(),
	}
	st.cache.Set(s.ID, s, st.ttl)
	return s
}

// Get restores a session by id, refreshing its TTL.
func (st *Store) Get(sessionID string) (*State, error) {
	v, ok := st.cache.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("session %s not found or expired", sessionID)
	}
	s := v.(*State)
	st.cache.Set(sessionID, s, st.ttl)
	return s, nil
}

// Delete drops a session.
func (st *Store) Delete(sessionID string) {
	st.cache.Delete(sessionID)
}
