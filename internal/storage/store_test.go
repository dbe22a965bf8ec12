package storage

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestFactory(t *testing.T) {
	if _, err := New(Config{Type: "memory"}); err != nil {
		t.Errorf("memory store: %v", err)
	}
	if _, err := New(Config{Type: "filesystem", Root: t.TempDir()}); err != nil {
		t.Errorf("filesystem store: %v", err)
	}
	if _, err := New(Config{Type: "filesystem"}); err == nil {
		t.Error("filesystem store without root should fail")
	}
	if _, err := New(Config{Type: "s3"}); err == nil {
		t.Error("unknown type should fail")
	}
}

func testRoundTrip(t *testing.T, store BlobStore) {
	t.Helper()
	ctx := context.Background()

	location, size, err := store.Save(ctx, strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if size != int64(len("payload")) {
		t.Errorf("size = %d, want %d", size, len("payload"))
	}
	if location == "" {
		t.Fatal("empty location")
	}

	rc, err := store.Open(ctx, location)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("content = %q, want %q", data, "payload")
	}

	if err := store.Remove(ctx, location); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := store.Open(ctx, location); err == nil {
		t.Error("open after remove should fail")
	}
	if err := store.Remove(ctx, location); err == nil {
		t.Error("double remove should fail")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	testRoundTrip(t, store)
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
}

func TestFileSystemStoreRoundTrip(t *testing.T) {
	store, err := NewFileSystemStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	testRoundTrip(t, store)
}

func TestFileSystemStoreDistinctLocations(t *testing.T) {
	store, err := NewFileSystemStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	first, _, err := store.Save(ctx, strings.NewReader("one"))
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := store.Save(ctx, strings.NewReader("two"))
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("two saves produced the same location")
	}
}

func TestFileSystemStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileSystemStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, location := range []string{"../escape", "a/b", "..", ""} {
		if _, err := store.Open(ctx, location); err == nil {
			t.Errorf("Open(%q) should fail", location)
		}
		if err := store.Remove(ctx, location); err == nil {
			t.Errorf("Remove(%q) should fail", location)
		}
	}
}
