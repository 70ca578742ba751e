package store

import (
	"context"
	"errors"
	"time"

	"github.com/cwarden/skuld/internal/calendar"
)

var (
	ErrNotFound     = errors.New("event not found")
	ErrInvalidEvent = errors.New("invalid event")
)

// Store is a source of calendar events that accepts the grid's mutations.
type Store interface {
	// Events returns events overlapping [start, end), ordered by start.
	Events(ctx context.Context, start, end time.Time) ([]calendar.Event, error)
	// Create stores a new event and returns it with its assigned id.
	Create(ctx context.Context, ev calendar.Event) (calendar.Event, error)
	// Patch changes the start and/or end of an event; nil leaves a field as is.
	Patch(ctx context.Context, id string, start, end *time.Time) (calendar.Event, error)
	// Update replaces every field of an existing event.
	Update(ctx context.Context, ev calendar.Event) (calendar.Event, error)
	Delete(ctx context.Context, id string) error
}

// ChangeEvent reports that a backing file changed on disk.
type ChangeEvent struct {
	Path      string
	Timestamp time.Time
}

func validate(ev calendar.Event) error {
	if !ev.Valid() {
		return ErrInvalidEvent
	}
	return nil
}

func overlaps(ev calendar.Event, start, end time.Time) bool {
	return ev.Start.Before(end) && ev.End.After(start)
}
