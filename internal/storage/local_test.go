package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/arkilian/enginecompat/internal/config"
)

func TestLocalStorage_PutGet(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	ctx := context.Background()

	objectPath := "runs/r1/report.json"
	content := []byte(`{"run_id":"r1"}`)
	if err := storage.Put(ctx, objectPath, content); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	exists, err := storage.Exists(ctx, objectPath)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected object to exist")
	}

	got, err := storage.Get(ctx, objectPath)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q, want %q", got, content)
	}

	if err := storage.Delete(ctx, objectPath); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	exists, err = storage.Exists(ctx, objectPath)
	if err != nil {
		t.Fatalf("Exists after delete failed: %v", err)
	}
	if exists {
		t.Error("expected object to not exist after delete")
	}

	// Deleting again is not an error
	if err := storage.Delete(ctx, objectPath); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}
}

func TestLocalStorage_PutIfAbsent(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	ctx := context.Background()

	if err := storage.PutIfAbsent(ctx, "a/obj", []byte("first")); err != nil {
		t.Fatalf("first PutIfAbsent failed: %v", err)
	}
	err = storage.PutIfAbsent(ctx, "a/obj", []byte("second"))
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Errorf("expected ErrPreconditionFailed, got %v", err)
	}

	got, _ := storage.Get(ctx, "a/obj")
	if string(got) != "first" {
		t.Errorf("object was replaced: %q", got)
	}
}

func TestLocalStorage_GetNotFound(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}

	_, err = storage.Get(context.Background(), "nonexistent/object.txt")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestLocalStorage_ListObjects(t *testing.T) {
	base := t.TempDir()
	storage, err := NewLocalStorage(base)
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	ctx := context.Background()

	for _, p := range []string{"runs/r1/report.json", "runs/r1/transcripts/a.json.sz", "runs/r2/report.json", "other/x"} {
		if err := storage.Put(ctx, p, []byte("x")); err != nil {
			t.Fatalf("Put %s failed: %v", p, err)
		}
	}
	// Leftover temp files are not objects
	if err := os.WriteFile(filepath.Join(base, "runs", ".tmp-123"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := storage.ListObjects(ctx, "runs")
	if err != nil {
		t.Fatalf("ListObjects failed: %v", err)
	}
	sort.Strings(got)
	want := []string{"runs/r1/report.json", "runs/r1/transcripts/a.json.sz", "runs/r2/report.json"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}

	missing, err := storage.ListObjects(ctx, "nope")
	if err != nil || len(missing) != 0 {
		t.Errorf("missing prefix: %v, %v", missing, err)
	}
}

func TestLocalStorage_CancelledContext(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := storage.Put(ctx, "obj", []byte("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("Put: expected context.Canceled, got %v", err)
	}
	if _, err := storage.Get(ctx, "obj"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get: expected context.Canceled, got %v", err)
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, config.StorageConfig{Type: "local", Path: t.TempDir()})
	if err != nil {
		t.Fatalf("New local failed: %v", err)
	}
	if _, ok := s.(*LocalStorage); !ok {
		t.Errorf("expected *LocalStorage, got %T", s)
	}

	if _, err := New(ctx, config.StorageConfig{Type: "local"}); err == nil {
		t.Error("expected error for local storage without path")
	}
	if _, err := New(ctx, config.StorageConfig{Type: "s3"}); err == nil {
		t.Error("expected error for s3 storage without bucket")
	}
	if _, err := New(ctx, config.StorageConfig{Type: "gcs"}); err == nil {
		t.Error("expected error for unknown storage type")
	}
}
