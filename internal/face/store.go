package face

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmpark/foyer/internal/logger"
)

// Store is the durable visitor gallery: a JSON file mapping visitor
// identifiers to their face embeddings. The in-memory map is the source of
// truth for the process lifetime; every mutation rewrites the file whole so
// memory and disk never drift apart.
//
// The store is the only shared mutable state in the service. Verifications
// take the read lock and may run concurrently; registrations take the write
// lock so the load-modify-persist sequence cannot interleave.
type Store struct {
	mu   sync.RWMutex
	path string
	data map[string][]float64
	log  *logger.Logger
}

// OpenStore loads the gallery from path. A missing or corrupt file is not
// fatal: the exhibit must come up even after a bad shutdown, so load
// failures yield an empty gallery.
func OpenStore(path string, log *logger.Logger) *Store {
	s := &Store{path: path, data: make(map[string][]float64), log: log}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.WithError(err).Warn("face db not loaded, starting empty")
		return s
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		log.WithError(err).Warn("face db unreadable, starting empty")
		s.data = make(map[string][]float64)
		return s
	}
	log.WithField("visitors", len(s.data)).Info("face db loaded")
	return s
}

// Count returns the number of enrolled visitors.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Get returns the embedding stored for id, if any.
func (s *Store) Get(id string) ([]float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emb, ok := s.data[id]
	return emb, ok
}

// Match runs the linear cosine scan against the current gallery under the
// read lock.
func (s *Store) Match(query []float64) (string, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FindBestMatch(query, s.data)
}

// Upsert stores the embedding for id, overwriting any prior enrollment
// (last write wins), and synchronously rewrites the durable file.
//
// A persist failure leaves the in-memory gallery updated: durability is
// best-effort, availability is not.
func (s *Store) Upsert(id string, embedding []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[id] = embedding
	if err := s.persistLocked(); err != nil {
		s.log.WithError(err).WithField(logger.FieldVisitorID, id).Error("face db persist failed")
		return fmt.Errorf("failed to persist face db: %w", err)
	}
	return nil
}

// persistLocked rewrites the whole gallery to disk. Write-to-temp then
// rename so a crash mid-write cannot truncate previously durable data.
func (s *Store) persistLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".face_db-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
