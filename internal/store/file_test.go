package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cwarden/skuld/internal/calendar"
	"github.com/cwarden/skuld/internal/log"
)

func localAt(day, hour, minute int) time.Time {
	return time.Date(2025, 8, day, hour, minute, 0, 0, calendar.Zone).UTC()
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s := NewFileStore(filepath.Join(t.TempDir(), "events.yaml"), log.Nop())
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return s
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)

	events, err := s.Events(context.Background(), localAt(25, 0, 0), localAt(31, 0, 0))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected no events, got %d", len(events))
	}
}

func TestFileStoreCreateAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	later, err := s.Create(ctx, calendar.Event{Title: "review", Start: localAt(26, 14, 0), End: localAt(26, 15, 0)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if later.ID != "id-1" {
		t.Errorf("ID = %q, want id-1", later.ID)
	}
	if _, err := s.Create(ctx, calendar.Event{Title: "standup", Start: localAt(25, 9, 0), End: localAt(25, 9, 15)}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := s.Create(ctx, calendar.Event{Title: "next week", Start: localAt(31, 23, 0).Add(2 * time.Hour), End: localAt(31, 23, 0).Add(3 * time.Hour)}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// a fresh store sees what the first one wrote
	reopened := NewFileStore(s.Path(), log.Nop())
	events, err := reopened.Events(ctx, localAt(25, 0, 0), localAt(31, 0, 0).Add(24*time.Hour))
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events in the week, got %d", len(events))
	}
	if events[0].Title != "standup" || events[1].Title != "review" {
		t.Errorf("events out of order: %v", events)
	}
	if !events[1].Start.Equal(localAt(26, 14, 0)) {
		t.Errorf("Start = %v, want %v", events[1].Start, localAt(26, 14, 0))
	}
}

func TestFileStoreRejectsInvalidEvents(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create(context.Background(), calendar.Event{Start: localAt(25, 9, 0), End: localAt(25, 9, 0)})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("err = %v, want ErrInvalidEvent", err)
	}
	if _, statErr := os.Stat(s.Path()); !os.IsNotExist(statErr) {
		t.Error("rejected create wrote the file")
	}
}

func TestFileStorePatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	ev, _ := s.Create(ctx, calendar.Event{Title: "focus", Start: localAt(25, 9, 0), End: localAt(25, 10, 0)})

	end := localAt(25, 11, 0)
	patched, err := s.Patch(ctx, ev.ID, nil, &end)
	if err != nil {
		t.Fatalf("Patch failed: %v", err)
	}
	if !patched.Start.Equal(ev.Start) || !patched.End.Equal(end) || patched.Title != "focus" {
		t.Errorf("patched = %v", patched)
	}

	bad := localAt(25, 8, 0)
	if _, err := s.Patch(ctx, ev.ID, nil, &bad); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("err = %v, want ErrInvalidEvent", err)
	}
	if _, err := s.Patch(ctx, "missing", nil, &end); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFileStoreUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	ev, _ := s.Create(ctx, calendar.Event{Start: localAt(25, 9, 0), End: localAt(25, 10, 0)})

	ev.Title = "renamed"
	if _, err := s.Update(ctx, ev); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	all, _ := s.All(ctx)
	if len(all) != 1 || all[0].Title != "renamed" {
		t.Errorf("after update: %v", all)
	}

	if err := s.Delete(ctx, ev.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, ev.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
	all, _ = s.All(ctx)
	if len(all) != 0 {
		t.Errorf("Expected no events, got %v", all)
	}
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		if _, err := s.Create(ctx, calendar.Event{Start: localAt(25, 9+i, 0), End: localAt(25, 10+i, 0)}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "events.yaml" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory contains %v", names)
	}

	data, _ := os.ReadFile(s.Path())
	if !strings.Contains(string(data), "events:") {
		t.Errorf("unexpected file contents:\n%s", data)
	}
}

func TestFileStoreUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	n, err := s.Upsert(ctx, []calendar.Event{
		{ID: "uid-1", Title: "one", Start: localAt(25, 9, 0), End: localAt(25, 10, 0)},
		{Title: "no id", Start: localAt(26, 9, 0), End: localAt(26, 10, 0)},
		{ID: "broken", Start: localAt(26, 9, 0), End: localAt(26, 8, 0)},
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Upsert wrote %d events, want 2", n)
	}

	n, _ = s.Upsert(ctx, []calendar.Event{
		{ID: "uid-1", Title: "one again", Start: localAt(25, 9, 0), End: localAt(25, 10, 0)},
	})
	all, _ := s.All(ctx)
	if n != 1 || len(all) != 2 || all[0].Title != "one again" {
		t.Errorf("after second upsert: %d written, %v", n, all)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), []byte("events: [[["), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.All(context.Background()); err == nil {
		t.Error("Expected error for a corrupt file")
	}
}

func TestFileStoreHonoursContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.All(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
