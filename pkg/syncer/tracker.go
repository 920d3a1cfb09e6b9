package syncer

import "time"

// tracker holds the change-tracking state machine: Clean -> Dirty (first
// mark) -> Flushing (save started) -> Clean on success, or back to Dirty on
// failure with the same or a superset of the original ids. All access is
// guarded by the engine's mutex; the network write itself runs outside it
// with saving as the sole overlap guard.
type tracker struct {
	dirty    map[string]struct{}
	inFlight map[string]struct{}
	pending  bool
	saving   bool
	lastSave time.Time
}

func newTracker() *tracker {
	return &tracker{dirty: make(map[string]struct{})}
}

func (t *tracker) mark(id string) int {
	t.dirty[id] = struct{}{}
	t.pending = true
	return len(t.dirty)
}

func (t *tracker) drop(id string) {
	delete(t.dirty, id)
	if len(t.dirty) == 0 && len(t.inFlight) == 0 {
		t.pending = false
	}
}

// beginFlush moves the current generation of dirty ids into flight. Marks
// arriving while the save is suspended on the network accumulate in a fresh
// dirty set; the document is re-serialized wholesale on the next save, so no
// per-id snapshotting is needed.
func (t *tracker) beginFlush() {
	t.saving = true
	t.inFlight = t.dirty
	t.dirty = make(map[string]struct{})
	t.pending = len(t.dirty) > 0
}

func (t *tracker) finishFlush(ok bool, at time.Time) {
	t.saving = false
	if ok {
		t.lastSave = at
		t.inFlight = nil
	} else {
		// Failed writes keep their change set so the next flush retries it.
		for id := range t.inFlight {
			t.dirty[id] = struct{}{}
		}
		t.inFlight = nil
	}
	t.pending = len(t.dirty) > 0
}

func (t *tracker) reset() {
	t.dirty = make(map[string]struct{})
	t.inFlight = nil
	t.pending = false
}
