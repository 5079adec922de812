package storage

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	ctx := context.Background()

	body := "exported clip bytes"
	if err := s.Upload(ctx, "clips/0001.fbx", strings.NewReader(body), int64(len(body)), "application/octet-stream"); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	ok, err := s.Exists(ctx, "clips/0001.fbx")
	if err != nil || !ok {
		t.Fatalf("Exists: %v, %v", ok, err)
	}

	rc, err := s.Download(ctx, "clips/0001.fbx")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != body {
		t.Errorf("round trip: got %q", got)
	}

	if err := s.Delete(ctx, "clips/0001.fbx"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := s.Exists(ctx, "clips/0001.fbx"); ok {
		t.Error("object still exists after delete")
	}
}

func TestLocalStorageDeleteMissingIsNoop(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(context.Background(), "absent.bin"); err != nil {
		t.Errorf("deleting a missing object must not fail: %v", err)
	}
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, key := range []string{"../outside.txt", "/etc/passwd", "a/../../b"} {
		if err := s.Upload(ctx, key, strings.NewReader("x"), 1, "text/plain"); err == nil {
			t.Errorf("key %q must be rejected", key)
		}
	}
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(&Config{Type: "local", LocalRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := s.(*LocalStorage); !ok {
		t.Errorf("got %T, want *LocalStorage", s)
	}

	if _, err := New(&Config{Type: "ftp"}); err == nil {
		t.Error("unknown backend must be rejected")
	}
}
