package scene

import (
	"context"
	"fmt"

	"github.com/V4C38/Unity-Journify/pkg/document"
	"github.com/V4C38/Unity-Journify/pkg/syncer"
	"github.com/V4C38/Unity-Journify/pkg/transform"
)

// SelectionFunc observes an entry's active-state changes. Listeners are
// invoked synchronously from SetActive, before the change is handed to the
// engine for persistence.
type SelectionFunc func(entry *Entry, active bool, t Transition)

// Entry is a selectable placement within a cluster. It owns its assets; at
// most one entry per cluster is active at a time, enforced by the cluster's
// selection coordinator, not by the entry itself.
type Entry struct {
	uuid     string
	title    string
	location transform.Vec3
	active   bool

	handle Handle
	assets []*Asset

	engine *syncer.Engine
	cfg    Config

	// onSelect routes an active-state change to the owning cluster's
	// coordinator. Set by the cluster on attach, cleared on teardown.
	onSelect func(changed *Entry, active bool, t Transition, commit bool)

	listeners    map[int]SelectionFunc
	nextListener int
}

func newEntry(engine *syncer.Engine, cfg Config, uuid, title string, location transform.Vec3) *Entry {
	return &Entry{
		uuid:      uuid,
		title:     title,
		location:  location,
		engine:    engine,
		cfg:       cfg,
		listeners: make(map[int]SelectionFunc),
	}
}

func (en *Entry) UUID() string { return en.uuid }
func (en *Entry) SetUUID(id string) { en.uuid = id }

func (en *Entry) Title() string { return en.title }
func (en *Entry) IsActive() bool { return en.active }
func (en *Entry) Assets() []*Asset { return en.assets }
func (en *Entry) Handle() Handle { return en.handle }

// Location returns the authoritative position: the live handle when the
// entry has a scene presence, the loaded value otherwise.
func (en *Entry) Location() transform.Vec3 {
	if en.handle != nil {
		return en.handle.Position()
	}
	return en.location
}

func (en *Entry) attachScene(ctx context.Context, host Host, parent Handle) error {
	if en.cfg.EntryTemplate == "" {
		return &MissingTemplateError{Kind: "entry", UUID: en.uuid}
	}
	h, err := host.Instantiate(ctx, en.cfg.EntryTemplate, InstantiateOptions{
		Parent:   parent,
		Position: en.location,
	})
	if err != nil {
		return fmt.Errorf("scene: instantiating entry %q: %w", en.uuid, err)
	}
	en.handle = h
	return nil
}

// Serialize freezes the entry's current live state into a wire record. The
// asset subtree is owned by the assets themselves and is not included, so a
// merge can never clobber their records with stale copies.
func (en *Entry) Serialize() document.Record {
	return document.Record{
		"UUID":     en.uuid,
		"Title":    en.title,
		"Location": en.Location().Slice(),
		"IsActive": en.active,
	}
}

// ApplyUpdate applies the fields present in an incoming record, leaving the
// rest untouched.
func (en *Entry) ApplyUpdate(rec document.Record) {
	if title, ok := rec["Title"].(string); ok {
		en.title = title
	}
	if loc, ok := transform.Vec3FromAny(rec["Location"]); ok {
		en.location = loc
		if en.handle != nil {
			en.handle.SetPosition(loc)
		}
	}
	if active, ok := rec["IsActive"].(bool); ok {
		// The pushing editor already persisted this change (and any sibling
		// deactivations); applying it must not echo a write back.
		en.setActive(active, TransitionInstant, false)
	}
}

// SetActive expands or collapses the entry. Descendant assets mirror the
// state; the coordinator runs synchronously before the change is committed,
// so a persisted snapshot can never capture two active entries in one
// cluster.
func (en *Entry) SetActive(active bool, t Transition) {
	en.setActive(active, t, true)
}

// setActive is the shared state transition. commit routes the change, and
// through the coordinator any sibling deactivations, to the engine; remote
// applies pass false because the store already holds that state.
func (en *Entry) setActive(active bool, t Transition, commit bool) {
	if en.active == active {
		return
	}
	en.active = active

	for _, a := range en.assets {
		a.setVisible(active, t)
	}
	for _, fn := range en.listeners {
		fn(en, active, t)
	}
	if en.onSelect != nil {
		en.onSelect(en, active, t, commit)
	}

	if commit {
		en.engine.UpdateObjectData(en.uuid)
	}
}

// Subscribe registers a selection observer and returns its unsubscribe.
// Observers see every active-state change, local and remote; they do not
// drive persistence.
func (en *Entry) Subscribe(fn SelectionFunc) func() {
	id := en.nextListener
	en.nextListener++
	en.listeners[id] = fn
	return func() { delete(en.listeners, id) }
}

// EndDrag commits the position accumulated during a drag gesture. The host
// moves the handle per-frame on its own; only the release reaches the
// engine, as a single change.
func (en *Entry) EndDrag() {
	if en.handle == nil {
		return
	}
	en.location = en.handle.Position()
	en.engine.UpdateObjectData(en.uuid)
}

// AddAsset creates a new asset under this entry, typically from the output
// of a generation request, gives it a scene presence and persists it. Fails
// loudly when the entry no longer exists in the document or the asset cannot
// be instantiated.
func (en *Entry) AddAsset(ctx context.Context, host Host, title, prompt, url string, snap transform.Snapshot) (*Asset, error) {
	a := newAsset(en.engine, en.cfg, "", title, prompt, url, snap)
	if err := a.attachScene(ctx, host, en.handle); err != nil {
		return nil, err
	}
	if err := en.engine.Register(a); err != nil {
		return nil, err
	}
	if err := en.engine.InsertObjectData(en.uuid, "DataAssets", a.Serialize()); err != nil {
		en.engine.Unregister(a.UUID())
		if a.handle != nil {
			host.Destroy(a.handle)
		}
		return nil, err
	}

	a.setVisible(en.active, TransitionInstant)
	en.assets = append(en.assets, a)
	return a, nil
}

// RemoveAsset destroys an asset's scene presence and removes it from the
// document.
func (en *Entry) RemoveAsset(host Host, a *Asset) {
	for i, cur := range en.assets {
		if cur == a {
			en.assets = append(en.assets[:i], en.assets[i+1:]...)
			break
		}
	}
	en.engine.RemoveObjectData(a.UUID())
	if a.handle != nil {
		host.Destroy(a.handle)
		a.handle = nil
	}
}
