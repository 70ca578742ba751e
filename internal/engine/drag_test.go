package engine

import (
	"testing"
	"time"

	"github.com/cwarden/skuld/internal/calendar"
)

func TestCreateSnapsBothEnds(t *testing.T) {
	h := newHarness()

	from := h.at(0, 100)
	if got := h.HitTest(from).Kind; got != TargetTimedCell {
		t.Fatalf("HitTest = %v, want timed cell", got)
	}
	h.drag(from, h.at(0, 137))

	if len(h.sink.intents) != 1 {
		t.Fatalf("Expected 1 intent, got %d", len(h.sink.intents))
	}
	create, ok := h.lastIntent().(CreateEvent)
	if !ok {
		t.Fatalf("Expected CreateEvent, got %T", h.lastIntent())
	}
	if !create.Start.Equal(calendar.At(bucket(25), 90)) || !create.End.Equal(calendar.At(bucket(25), 135)) {
		t.Errorf("create = [%v, %v), want [01:30, 02:15) on Monday", create.Start, create.End)
	}
	if create.AllDay {
		t.Error("timed create produced an all-day event")
	}
	if h.Dragging() {
		t.Error("gesture still active after pointer up")
	}
}

func TestCreateSingleDay(t *testing.T) {
	tests := []struct {
		name       string
		from, to   float64
		emits      bool
		start, end int
	}{
		{"forward", 540, 600, true, 540, 600},
		{"backward", 600, 480, true, 480, 600},
		{"backward across a slot", 610, 200, true, 195, 600},
		{"same point", 95, 95, false, 0, 0},
		{"click in the upper half of a slot", 100, 100, false, 0, 0},
		{"wiggle inside the pressed slot", 100, 104, false, 0, 0},
		{"one slot down", 100, 112, true, 90, 105},
		{"snaps back onto start", 100, 92, false, 0, 0},
		{"clamped at midnight", 1400, 1500, true, 1395, 1440},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.drag(h.at(2, tt.from), h.at(2, tt.to))

			if !tt.emits {
				if len(h.sink.intents) != 0 {
					t.Errorf("Expected no intent, got %#v", h.sink.intents)
				}
				return
			}
			if len(h.sink.intents) != 1 {
				t.Fatalf("Expected 1 intent, got %d", len(h.sink.intents))
			}
			create := h.lastIntent().(CreateEvent)
			if !create.End.After(create.Start) {
				t.Errorf("create is not ordered: [%v, %v)", create.Start, create.End)
			}
			if got := calendar.MinutesFrom(bucket(27), create.Start); got != tt.start {
				t.Errorf("start minute = %d, want %d", got, tt.start)
			}
			if got := int(create.End.Sub(bucket(27)) / time.Minute); got != tt.end {
				t.Errorf("end minute = %d, want %d", got, tt.end)
			}
		})
	}
}

func TestCreateAcrossDaysIsMultiDayTimed(t *testing.T) {
	h := newHarness()

	h.PointerDown(h.at(0, 540), h.HitTest(h.at(0, 540)))
	h.PointerMove(h.at(1, 600))

	c, ok := h.Drag().(Create)
	if !ok {
		t.Fatalf("Expected Create, got %T", h.Drag())
	}
	if !c.CrossesDay || !c.IsMultiDayTimed || c.IsAllDay {
		t.Errorf("flags = crosses %v, multi-day %v, all-day %v", c.CrossesDay, c.IsMultiDayTimed, c.IsAllDay)
	}

	h.PointerMove(h.at(2, 660))
	h.PointerUp(h.at(2, 660))

	create := h.lastIntent().(CreateEvent)
	if !create.Start.Equal(localAt(25, 9, 0)) || !create.End.Equal(localAt(27, 11, 0)) {
		t.Errorf("create = [%v, %v), want Monday 09:00 to Wednesday 11:00", create.Start, create.End)
	}
	if create.AllDay {
		t.Error("multi-day timed create became all-day")
	}
}

func TestCreateAcrossDaysBackward(t *testing.T) {
	h := newHarness()
	h.drag(h.at(2, 600), h.at(1, 700), h.at(0, 540))

	create := h.lastIntent().(CreateEvent)
	if !create.Start.Equal(localAt(25, 9, 0)) || !create.End.Equal(localAt(27, 10, 0)) {
		t.Errorf("create = [%v, %v), want Monday 09:00 to Wednesday 10:00", create.Start, create.End)
	}
}

func TestCreateReturningToStartColumnIsSingleDay(t *testing.T) {
	h := newHarness()

	h.PointerDown(h.at(3, 300), h.HitTest(h.at(3, 300)))
	h.PointerMove(h.at(4, 400))
	h.PointerMove(h.at(3, 400))

	c := h.Drag().(Create)
	if c.CrossesDay || c.IsMultiDayTimed {
		t.Errorf("flags not reset: crosses %v, multi-day %v", c.CrossesDay, c.IsMultiDayTimed)
	}
	h.PointerUp(h.at(3, 400))

	create := h.lastIntent().(CreateEvent)
	if !create.Start.Equal(localAt(28, 5, 0)) || !create.End.Equal(localAt(28, 6, 45)) {
		t.Errorf("create = [%v, %v), want Thursday 05:00 to 06:45", create.Start, create.End)
	}
}

func TestCreateAllDay(t *testing.T) {
	tests := []struct {
		name    string
		fromCol int
		toCol   int
		toTimed bool
		first   int
		last    int
	}{
		{"single day", 3, 3, false, 28, 28},
		{"forward", 1, 3, false, 26, 28},
		{"backward", 3, 1, false, 26, 28},
		{"dragged into the timed lane", 4, 5, true, 29, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			from := h.allDay(tt.fromCol, 0)
			to := h.allDay(tt.toCol, 0)
			if tt.toTimed {
				to = h.at(tt.toCol, 600)
			}

			if got := h.HitTest(from).Kind; got != TargetAllDayCell {
				t.Fatalf("HitTest = %v, want all-day cell", got)
			}
			h.drag(from, to)

			create, ok := h.lastIntent().(CreateEvent)
			if !ok {
				t.Fatalf("Expected CreateEvent, got %T", h.lastIntent())
			}
			if !create.AllDay {
				t.Error("all-day lane produced a timed event")
			}
			wantEnd := bucket(tt.last + 1).Add(-time.Millisecond)
			if !create.Start.Equal(bucket(tt.first)) || !create.End.Equal(wantEnd) {
				t.Errorf("create = [%v, %v], want [%v, %v]", create.Start, create.End, bucket(tt.first), wantEnd)
			}
		})
	}
}

func TestMoveSingleDayPreservesDuration(t *testing.T) {
	ev := calendar.Event{ID: "focus", Start: localAt(25, 9, 0), End: localAt(25, 10, 30)}

	tests := []struct {
		name   string
		col    int
		minute float64
		start  time.Time
	}{
		{"later on another day", 4, 800, localAt(29, 12, 45)},
		{"earlier same day", 0, 400, localAt(25, 6, 0)},
		{"clamped to the end of the day", 6, 1430, localAt(31, 22, 30)},
		{"clamped to the start of the day", 2, 10, localAt(27, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(ev)
			// grab the event 40 minutes below its top
			from := h.at(0, 580)
			if got := h.HitTest(from).Kind; got != TargetEventBody {
				t.Fatalf("HitTest = %v, want event", got)
			}
			h.drag(from, h.at(tt.col, tt.minute))

			patch, ok := h.lastIntent().(MoveOrResizeEvent)
			if !ok {
				t.Fatalf("Expected MoveOrResizeEvent, got %T", h.lastIntent())
			}
			if patch.ID != "focus" || patch.Start == nil || patch.End == nil {
				t.Fatalf("unexpected patch %#v", patch)
			}
			if !patch.Start.Equal(tt.start) {
				t.Errorf("start = %v, want %v", patch.Start, tt.start)
			}
			if got := patch.End.Sub(*patch.Start); got != ev.Duration() {
				t.Errorf("duration = %v, want %v", got, ev.Duration())
			}
		})
	}
}

func TestMoveWithoutChangeEmitsNothing(t *testing.T) {
	ev := calendar.Event{ID: "focus", Start: localAt(25, 9, 0), End: localAt(25, 10, 30)}
	h := newHarness(ev)

	h.drag(h.at(0, 600))

	if len(h.sink.intents) != 0 {
		t.Errorf("Expected no intent for a click, got %#v", h.sink.intents)
	}
	if h.SelectedID() != "focus" {
		t.Errorf("SelectedID() = %q, want focus", h.SelectedID())
	}
}

func TestMoveMultiDayShiftsWholeDays(t *testing.T) {
	ev := calendar.Event{ID: "trip", Start: localAt(26, 10, 0), End: localAt(28, 16, 30)}

	tests := []struct {
		name    string
		fromCol int
		fromMin float64
		toCol   int
		toMin   float64
	}{
		{"grabbed by the first segment", 1, 720, 3, 200},
		{"grabbed by the middle segment", 2, 300, 4, 900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(ev)
			from := h.at(tt.fromCol, tt.fromMin)
			if got := h.HitTest(from).Kind; got != TargetEventBody {
				t.Fatalf("HitTest = %v, want event", got)
			}
			h.drag(from, h.at(tt.toCol, tt.toMin))

			patch := h.lastIntent().(MoveOrResizeEvent)
			if patch.Start == nil || patch.End == nil {
				t.Fatalf("Expected both fields, got %#v", patch)
			}
			if !patch.Start.Equal(localAt(28, 10, 0)) || !patch.End.Equal(localAt(30, 16, 30)) {
				t.Errorf("moved to [%v, %v), want Thursday 10:00 to Saturday 16:30", patch.Start, patch.End)
			}
			if calendar.MinuteOfDay(*patch.Start) != calendar.MinuteOfDay(ev.Start) ||
				calendar.MinuteOfDay(*patch.End) != calendar.MinuteOfDay(ev.End) {
				t.Error("minute of day changed")
			}
		})
	}
}

func TestMultiDaySegmentsHaveNoResizeHandles(t *testing.T) {
	ev := calendar.Event{ID: "trip", Start: localAt(26, 10, 0), End: localAt(28, 16, 30)}
	h := newHarness(ev)

	for _, p := range []Point{h.at(1, 602), h.at(2, 1), h.at(3, 988)} {
		if got := h.HitTest(p).Kind; got != TargetEventBody {
			t.Errorf("HitTest(%v) = %v, want event", p, got)
		}
	}
}

func TestMoveAllDayIgnoresVerticalMovement(t *testing.T) {
	ev := calendar.Event{ID: "offsite", AllDay: true, Start: bucket(26), End: bucket(27).Add(-time.Millisecond)}
	h := newHarness(ev)

	from := h.allDay(1, 0)
	if got := h.HitTest(from).Kind; got != TargetEventBody {
		t.Fatalf("HitTest = %v, want event", got)
	}
	h.drag(from, h.allDay(2, 0), h.at(3, 700))

	patch := h.lastIntent().(MoveOrResizeEvent)
	if !patch.Start.Equal(bucket(28)) || !patch.End.Equal(bucket(29).Add(-time.Millisecond)) {
		t.Errorf("moved to [%v, %v], want Thursday", patch.Start, patch.End)
	}
}

func TestResize(t *testing.T) {
	ev := calendar.Event{ID: "meeting", Start: localAt(25, 9, 0), End: localAt(25, 10, 30)}

	tests := []struct {
		name       string
		grab       float64
		kind       TargetKind
		release    float64
		emits      bool
		start, end *time.Time
	}{
		{"extend end", 626, TargetResizeEnd, 700, true, nil, ptr(localAt(25, 11, 45))},
		{"move start later", 543, TargetResizeStart, 600, true, ptr(localAt(25, 10, 0)), nil},
		{"end dragged above start", 626, TargetResizeEnd, 480, true, ptr(localAt(25, 8, 0)), ptr(localAt(25, 9, 0))},
		{"end snapped onto start", 626, TargetResizeEnd, 541, false, nil, nil},
		{"start snapped onto end", 543, TargetResizeStart, 632, false, nil, nil},
		{"released where it started", 626, TargetResizeEnd, 626, false, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(ev)
			from := h.at(0, tt.grab)
			if got := h.HitTest(from).Kind; got != tt.kind {
				t.Fatalf("HitTest = %v, want %v", got, tt.kind)
			}
			h.drag(from, h.at(0, tt.release))

			if !tt.emits {
				if len(h.sink.intents) != 0 {
					t.Errorf("Expected no intent, got %#v", h.sink.intents)
				}
				return
			}
			patch := h.lastIntent().(MoveOrResizeEvent)
			checkTime(t, "start", patch.Start, tt.start)
			checkTime(t, "end", patch.End, tt.end)
		})
	}
}

func TestResizeStaysInItsDay(t *testing.T) {
	ev := calendar.Event{ID: "meeting", Start: localAt(25, 9, 0), End: localAt(25, 10, 30)}
	h := newHarness(ev)

	h.drag(h.at(0, 626), h.at(3, 720))

	patch := h.lastIntent().(MoveOrResizeEvent)
	checkTime(t, "start", patch.Start, nil)
	checkTime(t, "end", patch.End, ptr(localAt(25, 12, 0)))
}

func TestEscapeCancelsGesture(t *testing.T) {
	h := newHarness()

	h.PointerDown(h.at(0, 100), h.HitTest(h.at(0, 100)))
	h.PointerMove(h.at(0, 400))

	if !h.HandleAction(Cancel) {
		t.Fatal("Cancel was not handled")
	}
	if h.Dragging() {
		t.Error("gesture still active after cancel")
	}
	h.PointerUp(h.at(0, 400))
	if len(h.sink.intents) != 0 {
		t.Errorf("Expected no intent after cancel, got %#v", h.sink.intents)
	}
}

func TestPointerMoveIsIdempotent(t *testing.T) {
	h := newHarness()

	h.PointerDown(h.at(0, 100), h.HitTest(h.at(0, 100)))
	h.PointerMove(h.at(1, 250))
	first := h.Drag()
	h.PointerMove(h.at(1, 250))

	if h.Drag() != first {
		t.Errorf("state changed on a repeated move: %#v -> %#v", first, h.Drag())
	}
}

func TestPointerDownIgnoredWhileDragging(t *testing.T) {
	ev := calendar.Event{ID: "meeting", Start: localAt(25, 9, 0), End: localAt(25, 10, 30)}
	h := newHarness(ev)

	h.PointerDown(h.at(2, 100), h.HitTest(h.at(2, 100)))
	h.PointerDown(h.at(0, 580), h.HitTest(h.at(0, 580)))

	if _, ok := h.Drag().(Create); !ok {
		t.Errorf("second pointer down replaced the gesture with %T", h.Drag())
	}
}

func TestDraftsAreNotDraggable(t *testing.T) {
	h := newHarness()
	h.drag(h.at(0, 540), h.at(0, 600))

	// the optimistic draft now sits at 09:00
	if got := h.HitTest(h.at(0, 570)); got.Kind != TargetEventBody || !got.Event.IsDraft() {
		t.Fatalf("HitTest = %v %#v, want the draft", got.Kind, got.Event)
	}
	h.PointerDown(h.at(0, 570), h.HitTest(h.at(0, 570)))
	if h.Dragging() {
		t.Error("draft started a gesture")
	}
}

func TestPreviewFollowsGesture(t *testing.T) {
	h := newHarness()

	if _, ok := h.Preview(); ok {
		t.Error("preview without a gesture")
	}
	h.PointerDown(h.at(1, 60), h.HitTest(h.at(1, 60)))
	h.PointerMove(h.at(1, 120))

	ev, ok := h.Preview()
	if !ok {
		t.Fatal("Expected a valid preview")
	}
	if !ev.Start.Equal(localAt(26, 1, 0)) || !ev.End.Equal(localAt(26, 2, 0)) {
		t.Errorf("preview = [%v, %v)", ev.Start, ev.End)
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}

func checkTime(t *testing.T, name string, got, want *time.Time) {
	t.Helper()
	switch {
	case want == nil && got != nil:
		t.Errorf("%s = %v, want unchanged", name, *got)
	case want != nil && got == nil:
		t.Errorf("%s unchanged, want %v", name, *want)
	case want != nil && !got.Equal(*want):
		t.Errorf("%s = %v, want %v", name, *got, *want)
	}
}
