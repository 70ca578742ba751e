package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cwarden/skuld/internal/calendar"
	"github.com/cwarden/skuld/internal/log"
)

// record is the on-disk form of an event.
type record struct {
	ID     string    `yaml:"id"`
	Title  string    `yaml:"title"`
	Start  time.Time `yaml:"start"`
	End    time.Time `yaml:"end"`
	AllDay bool      `yaml:"all_day,omitempty"`
}

type document struct {
	Events []record `yaml:"events"`
}

// FileStore keeps events in a single YAML file. Every write replaces the file
// atomically.
type FileStore struct {
	path   string
	logger *log.Logger
	newID  func() string

	mu sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on the
// first write.
func NewFileStore(path string, logger *log.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Events(ctx context.Context, start, end time.Time) ([]calendar.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var out []calendar.Event
	for _, ev := range events {
		if overlaps(ev, start, end) {
			out = append(out, ev)
		}
	}
	sortEvents(out)
	return out, nil
}

// All returns every stored event ordered by start.
func (s *FileStore) All(ctx context.Context) ([]calendar.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	sortEvents(events)
	return events, nil
}

func (s *FileStore) Create(ctx context.Context, ev calendar.Event) (calendar.Event, error) {
	if err := validate(ev); err != nil {
		return calendar.Event{}, fmt.Errorf("create %s: %w", ev, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load(ctx)
	if err != nil {
		return calendar.Event{}, err
	}

	ev.ID = s.newID()
	events = append(events, ev)
	if err := s.save(events); err != nil {
		return calendar.Event{}, err
	}
	s.logger.Infof("created event %s", ev.ID)
	return ev, nil
}

func (s *FileStore) Patch(ctx context.Context, id string, start, end *time.Time) (calendar.Event, error) {
	return s.modify(ctx, id, func(ev calendar.Event) calendar.Event {
		if start != nil {
			ev.Start = start.UTC()
		}
		if end != nil {
			ev.End = end.UTC()
		}
		return ev
	})
}

func (s *FileStore) Update(ctx context.Context, ev calendar.Event) (calendar.Event, error) {
	return s.modify(ctx, ev.ID, func(calendar.Event) calendar.Event {
		return ev
	})
}

func (s *FileStore) modify(ctx context.Context, id string, change func(calendar.Event) calendar.Event) (calendar.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load(ctx)
	if err != nil {
		return calendar.Event{}, err
	}

	i := calendar.Find(events, id)
	if i < 0 {
		return calendar.Event{}, fmt.Errorf("event %q: %w", id, ErrNotFound)
	}

	updated := change(events[i])
	updated.ID = id
	if err := validate(updated); err != nil {
		return calendar.Event{}, fmt.Errorf("update %q: %w", id, err)
	}

	events[i] = updated
	if err := s.save(events); err != nil {
		return calendar.Event{}, err
	}
	s.logger.Infof("updated event %s", id)
	return updated, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load(ctx)
	if err != nil {
		return err
	}

	i := calendar.Find(events, id)
	if i < 0 {
		return fmt.Errorf("event %q: %w", id, ErrNotFound)
	}

	events = append(events[:i], events[i+1:]...)
	if err := s.save(events); err != nil {
		return err
	}
	s.logger.Infof("deleted event %s", id)
	return nil
}

// Upsert stores events under their own ids, replacing any existing event
// with the same id. Events without an id get a new one. It returns the
// number of events written.
func (s *FileStore) Upsert(ctx context.Context, incoming []calendar.Event) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, ev := range incoming {
		if err := validate(ev); err != nil {
			s.logger.Warnf("skipping %s: %v", ev, err)
			continue
		}
		if ev.ID == "" {
			ev.ID = s.newID()
		}
		if i := calendar.Find(events, ev.ID); i >= 0 {
			events[i] = ev
		} else {
			events = append(events, ev)
		}
		n++
	}

	if n == 0 {
		return 0, nil
	}
	if err := s.save(events); err != nil {
		return 0, err
	}
	s.logger.Infof("imported %d events", n)
	return n, nil
}

func (s *FileStore) load(ctx context.Context) ([]calendar.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}

	events := make([]calendar.Event, 0, len(doc.Events))
	for _, r := range doc.Events {
		events = append(events, calendar.Event{
			ID:     r.ID,
			Title:  r.Title,
			Start:  r.Start.UTC(),
			End:    r.End.UTC(),
			AllDay: r.AllDay,
		})
	}
	return events, nil
}

// save writes events to a temp file next to the target, then renames it
// over the target.
func (s *FileStore) save(events []calendar.Event) error {
	sortEvents(events)

	doc := document{Events: make([]record, 0, len(events))}
	for _, ev := range events {
		doc.Events = append(doc.Events, record{
			ID:     ev.ID,
			Title:  ev.Title,
			Start:  ev.Start.UTC(),
			End:    ev.End.UTC(),
			AllDay: ev.AllDay,
		})
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to encode events: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".skuld-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		s.logger.Errorf("failed to replace %s: %v", s.path, err)
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}

func sortEvents(events []calendar.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if !a.End.Equal(b.End) {
			return a.End.Before(b.End)
		}
		return a.ID < b.ID
	})
}
