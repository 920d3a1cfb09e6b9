// Package syncer reconciles a live, mutable entity graph against a remote
// JSON document store. The engine owns the authoritative in-memory document,
// mediates every read and write on it, and batches network writes so bursty
// user-driven mutation (dragging, selecting, bulk creation) does not turn
// into a write per event.
//
// Three thresholds drive flushing, whichever is met first:
//
//   - a debounce window rate-limits writes to one per window after the last
//     completed save
//   - a buffer window bounds how stale pending changes may get under
//     continuous activity
//   - a dirty-set size threshold flushes immediately when too many distinct
//     objects have unsaved edits
//
// A save already in flight suppresses new flush attempts until it completes.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/V4C38/Unity-Journify/pkg/document"
	"github.com/V4C38/Unity-Journify/pkg/store"
)

const (
	DefaultDebounce       = 2 * time.Second
	DefaultBufferWindow   = 10 * time.Second
	DefaultDirtyThreshold = 10
)

var (
	ErrNoIdentifier = errors.New("syncer: entity has no identifier and cannot mint one")
	ErrNodeNotFound = errors.New("syncer: document node not found")
)

// Entity is the capability every persistable node carries: a stable id, a
// snapshot of its current live state, and partial application of incoming
// remote updates. Serialize must reflect live state (e.g. the current scene
// position), not a cached copy; it is the single point where live state is
// frozen into a persisted record.
type Entity interface {
	UUID() string
	Serialize() document.Record
	ApplyUpdate(rec document.Record)
}

// IdentityMinter is implemented by entities that can accept a freshly minted
// id at registration time.
type IdentityMinter interface {
	SetUUID(id string)
}

// Options tune the flush policy. Zero values fall back to the defaults.
type Options struct {
	Debounce       time.Duration
	BufferWindow   time.Duration
	DirtyThreshold int
	Logger         zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.BufferWindow <= 0 {
		o.BufferWindow = DefaultBufferWindow
	}
	if o.DirtyThreshold <= 0 {
		o.DirtyThreshold = DefaultDirtyThreshold
	}
	return o
}

// Engine is the synchronization core. One engine owns one document.
type Engine struct {
	store  store.Store
	opts   Options
	logger zerolog.Logger

	mu          sync.Mutex
	doc         document.Record
	registry    map[string]Entity
	track       *tracker
	flushTimer  *time.Timer
	bufferTimer *time.Timer
	closed      bool
}

func New(st store.Store, opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		store:    st,
		opts:     opts,
		logger:   opts.Logger,
		registry: make(map[string]Entity),
		track:    newTracker(),
	}
}

// Load fetches the document from the store and replaces the in-memory copy,
// clearing all dirty state. On failure nothing changes; the caller decides
// whether to retry or abort the archive load.
func (e *Engine) Load(ctx context.Context) error {
	doc, err := e.store.Load(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.doc = doc
	e.track.reset()
	// A fresh document is in sync by definition; the debounce window runs
	// from here.
	e.track.lastSave = time.Now()
	e.stopTimersLocked()
	e.mu.Unlock()
	return nil
}

// Document returns a deep copy of the authoritative document. Entities never
// touch the document directly; mutation goes through UpdateObjectData.
func (e *Engine) Document() document.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		return nil
	}
	return document.Clone(e.doc)
}

// Register adds an entity to the lookup registry, minting an id when the
// entity has none. Registering the same entity twice keeps a single entry.
func (e *Engine) Register(ent Entity) error {
	id := ent.UUID()
	if id == "" {
		minter, ok := ent.(IdentityMinter)
		if !ok {
			return ErrNoIdentifier
		}
		id = uuid.NewString()
		minter.SetUUID(id)
	}

	e.mu.Lock()
	e.registry[id] = ent
	e.mu.Unlock()
	return nil
}

// Unregister removes an entity from the registry and the dirty set. Safe to
// call for ids that were never registered.
func (e *Engine) Unregister(id string) {
	e.mu.Lock()
	delete(e.registry, id)
	e.track.drop(id)
	e.mu.Unlock()
}

// ObjectData returns a copy of the document node whose UUID equals id, found
// by depth-first search in document order. The root is checked first.
func (e *Engine) ObjectData(id string) (document.Record, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	node, ok := document.FindByUUID(e.doc, id)
	if !ok {
		return nil, false
	}
	return document.Clone(node), true
}

// UpdateObjectData serializes the registered entity with the given id and
// merges the result into the matching document node, then marks the id
// dirty. An unknown id or a node missing from the document means there is
// nothing to update; neither is an error.
func (e *Engine) UpdateObjectData(id string) {
	e.mu.Lock()
	ent, ok := e.registry[id]
	if !ok {
		e.mu.Unlock()
		return
	}
	rec := ent.Serialize()
	node, ok := document.FindByUUID(e.doc, id)
	if !ok {
		e.mu.Unlock()
		e.logger.Debug().Str("uuid", id).Msg("no document node for entity, skipping update")
		return
	}
	document.Merge(node, rec)
	e.markChangedLocked(id)
	e.mu.Unlock()
}

// InsertObjectData appends a new child record to the named array field of
// the parent node and marks the new id dirty. Fails when the parent is no
// longer in the document, e.g. a spawn targeting an entry that has since
// disappeared.
func (e *Engine) InsertObjectData(parentID, field string, rec document.Record) error {
	id := document.UUIDOf(rec)
	if id == "" {
		return ErrNoIdentifier
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	parent, ok := document.FindByUUID(e.doc, parentID)
	if !ok {
		return fmt.Errorf("%w: parent %q", ErrNodeNotFound, parentID)
	}
	arr, _ := parent[field].([]any)
	parent[field] = append(arr, document.Clone(rec))
	e.markChangedLocked(id)
	return nil
}

// RemoveObjectData removes the node with the given id from its containing
// array, drops the id from the registry and dirty set, and schedules a
// flush. Removing an id that is not in the document is a no-op.
func (e *Engine) RemoveObjectData(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !document.RemoveByUUID(e.doc, id) {
		return
	}
	delete(e.registry, id)
	e.track.drop(id)
	e.markChangedLocked(id)
}

// MarkChanged records that the entity with the given id has unsaved local
// mutations and schedules a flush per the debounce policy. A dirty set at
// or past the size threshold flushes immediately, regardless of timers.
func (e *Engine) MarkChanged(id string) {
	e.mu.Lock()
	e.markChangedLocked(id)
	e.mu.Unlock()
}

func (e *Engine) markChangedLocked(id string) {
	if e.closed {
		return
	}
	n := e.track.mark(id)

	if e.bufferTimer == nil {
		e.bufferTimer = time.AfterFunc(e.opts.BufferWindow, e.timedFlush)
	}

	if n >= e.opts.DirtyThreshold {
		go e.flush()
		return
	}

	delay := time.Until(e.track.lastSave.Add(e.opts.Debounce))
	if delay <= 0 {
		go e.flush()
		return
	}
	e.scheduleFlushLocked(delay)
}

func (e *Engine) scheduleFlushLocked(delay time.Duration) {
	if e.flushTimer == nil {
		e.flushTimer = time.AfterFunc(delay, e.timedFlush)
		return
	}
	e.flushTimer.Reset(delay)
}

func (e *Engine) stopTimersLocked() {
	if e.flushTimer != nil {
		e.flushTimer.Stop()
		e.flushTimer = nil
	}
	if e.bufferTimer != nil {
		e.bufferTimer.Stop()
		e.bufferTimer = nil
	}
}

// timedFlush is the timer entry point. Timers can fire while a save is
// suspended awaiting the network; Save's in-flight guard absorbs that.
func (e *Engine) timedFlush() {
	e.flush()
}

func (e *Engine) flush() {
	if err := e.Save(context.Background(), true); err != nil {
		e.logger.Warn().Err(err).Msg("flush failed, changes kept for retry")
	}
}

// Save writes the whole document to the store.
//
// With nothing pending it is a no-op. While a save is in flight it returns
// nil without enqueuing a second write: the document is read-modify-written
// wholesale, and two overlapping writes could interleave and lose updates.
// When not forced and the debounce window since the last completed save has
// not elapsed, a forced save is scheduled for the end of the window and Save
// returns nil (deferred success).
//
// On failure the dirty set is kept intact and retried at the flush cadence;
// there is no backoff and no retry cap.
func (e *Engine) Save(ctx context.Context, force bool) error {
	e.mu.Lock()
	if !e.track.pending || e.track.saving {
		e.mu.Unlock()
		return nil
	}
	if !force {
		if wait := time.Until(e.track.lastSave.Add(e.opts.Debounce)); wait > 0 {
			e.scheduleFlushLocked(wait)
			e.mu.Unlock()
			return nil
		}
	}
	e.track.beginFlush()
	payload := document.Clone(e.doc)
	e.mu.Unlock()

	err := e.store.Save(ctx, payload)

	e.mu.Lock()
	e.track.finishFlush(err == nil, time.Now())
	if e.bufferTimer != nil {
		e.bufferTimer.Stop()
		e.bufferTimer = nil
	}
	if e.track.pending && !e.closed {
		// Changes survived the flush: either a new generation accumulated
		// while we were on the network, or the write failed and its set was
		// kept. Retry at the debounce cadence, bounded by the buffer window.
		e.scheduleFlushLocked(e.opts.Debounce)
		e.bufferTimer = time.AfterFunc(e.opts.BufferWindow, e.timedFlush)
	}
	e.mu.Unlock()

	return err
}

// ApplyRemote merges a partial record pushed by the store (live feed) into
// the document and forwards it to the registered entity. Remote updates are
// authoritative and do not dirty the id.
//
// The entity's ApplyUpdate runs on the caller's goroutine, outside the
// engine lock. Entities are not goroutine-safe: a host that feeds this from
// a socket reader must marshal the calls onto its own update loop.
func (e *Engine) ApplyRemote(rec document.Record) {
	id := document.UUIDOf(rec)
	if id == "" {
		return
	}

	e.mu.Lock()
	node, ok := document.FindByUUID(e.doc, id)
	if !ok {
		e.mu.Unlock()
		e.logger.Debug().Str("uuid", id).Msg("remote update for unknown node dropped")
		return
	}
	document.Merge(node, rec)
	ent := e.registry[id]
	e.mu.Unlock()

	if ent != nil {
		ent.ApplyUpdate(rec)
	}
}

// Close forces one final best-effort save of any pending changes, then
// cancels timers and clears the registry. Delivery before process exit is
// not guaranteed; a host that needs that must provide its own fire-and-
// forget transport.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.stopTimersLocked()
	pending := e.track.pending
	e.mu.Unlock()

	var err error
	if pending {
		err = e.Save(ctx, true)
		if err != nil {
			e.logger.Warn().Err(err).Msg("final save on close failed")
		}
	}

	e.mu.Lock()
	e.stopTimersLocked()
	e.registry = make(map[string]Entity)
	e.track.reset()
	e.mu.Unlock()
	return err
}
