package face

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmpark/foyer/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: "error", Output: io.Discard})
}

func TestOpenStoreMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face_db.json")
	s := OpenStore(path, testLogger())
	if s.Count() != 0 {
		t.Errorf("missing file: got %d visitors, want 0", s.Count())
	}
}

func TestOpenStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face_db.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := OpenStore(path, testLogger())
	if s.Count() != 0 {
		t.Errorf("corrupt file: got %d visitors, want 0", s.Count())
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face_db.json")
	log := testLogger()

	s := OpenStore(path, log)
	if err := s.Upsert("visitor_alice", []float64{0.1, 0.2, 0.3}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert("visitor_bob", []float64{0.4, 0.5, 0.6}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	reopened := OpenStore(path, log)
	if reopened.Count() != 2 {
		t.Fatalf("reopened: got %d visitors, want 2", reopened.Count())
	}
	emb, ok := reopened.Get("visitor_alice")
	if !ok {
		t.Fatal("visitor_alice missing after reopen")
	}
	if len(emb) != 3 || emb[1] != 0.2 {
		t.Errorf("round-tripped embedding: got %v", emb)
	}
}

func TestStoreUpsertOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face_db.json")
	s := OpenStore(path, testLogger())

	if err := s.Upsert("visitor_alice", []float64{1, 0}); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert("visitor_alice", []float64{0, 1}); err != nil {
		t.Fatal(err)
	}

	if s.Count() != 1 {
		t.Errorf("got %d visitors, want 1", s.Count())
	}
	emb, _ := s.Get("visitor_alice")
	if emb[0] != 0 || emb[1] != 1 {
		t.Errorf("re-enrollment must win: got %v", emb)
	}
}

func TestStoreMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face_db.json")
	s := OpenStore(path, testLogger())
	if err := s.Upsert("visitor_alice", []float64{1, 0}); err != nil {
		t.Fatal(err)
	}

	id, sim := s.Match([]float64{1, 0})
	if id != "visitor_alice" || sim < 0.999 {
		t.Errorf("got (%q, %v)", id, sim)
	}
}

func TestStorePersistLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := OpenStore(filepath.Join(dir, "face_db.json"), testLogger())
	if err := s.Upsert("visitor_alice", []float64{1}); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "face_db.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory after persist: %v, want only face_db.json", names)
	}
}
