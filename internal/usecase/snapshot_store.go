package usecase

import (
	"sync"
	"sync/atomic"

	"PriceBoard/internal/domain/models"
)

// SnapshotListener is told about every snapshot the store accepts, in
// acceptance order, so one key's snapshots arrive with increasing Seq.
// Listeners run on the writer's goroutine, must not block and must not call Put.
type SnapshotListener func(*models.Snapshot)

// SnapshotStore holds the latest snapshot per series key. A fetch reserves a
// sequence number before it starts and Put rejects anything older than what
// is already stored, so an overlapping slow fetch cannot clobber a newer one.
type SnapshotStore struct {
	seq atomic.Uint64

	// putMu orders accept-and-notify across concurrent Puts.
	putMu sync.Mutex

	mu    sync.RWMutex
	snaps map[models.SeriesKey]*models.Snapshot

	subMu   sync.RWMutex
	subs    map[int]SnapshotListener
	nextSub int
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snaps: make(map[models.SeriesKey]*models.Snapshot),
		subs:  make(map[int]SnapshotListener),
	}
}

// NextSeq reserves the sequence number for a fetch about to start.
func (s *SnapshotStore) NextSeq() uint64 {
	return s.seq.Add(1)
}

// Get returns the stored snapshot for key.
func (s *SnapshotStore) Get(key models.SeriesKey) (*models.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[key]
	return snap, ok
}

// Put stores snap unless a snapshot with a higher sequence is already present.
// It reports whether snap was accepted; listeners are only notified when it was.
func (s *SnapshotStore) Put(snap *models.Snapshot) bool {
	if snap == nil {
		return false
	}
	key := snap.Key()

	s.putMu.Lock()
	defer s.putMu.Unlock()

	s.mu.Lock()
	if cur, ok := s.snaps[key]; ok && cur.Seq > snap.Seq {
		s.mu.Unlock()
		return false
	}
	s.snaps[key] = snap
	s.mu.Unlock()

	s.subMu.RLock()
	listeners := make([]SnapshotListener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range listeners {
		fn(snap)
	}
	return true
}

// Invalidate forgets the snapshot for key so the next read refetches.
func (s *SnapshotStore) Invalidate(key models.SeriesKey) {
	s.mu.Lock()
	delete(s.snaps, key)
	s.mu.Unlock()
}

// Keys lists the keys currently held.
func (s *SnapshotStore) Keys() []models.SeriesKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]models.SeriesKey, 0, len(s.snaps))
	for k := range s.snaps {
		keys = append(keys, k)
	}
	return keys
}

// Subscribe registers fn and returns a function that removes it.
func (s *SnapshotStore) Subscribe(fn SnapshotListener) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}
