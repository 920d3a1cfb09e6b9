package scene

import (
	"context"

	"github.com/V4C38/Unity-Journify/pkg/document"
	"github.com/V4C38/Unity-Journify/pkg/syncer"
	"github.com/V4C38/Unity-Journify/pkg/transform"
)

// Cluster is a top-level grouping of entries. It owns its entries and wires
// the selection coordinator to each of them through explicit listener
// registrations, so teardown is deterministic and nothing outlives its
// owner through a dangling callback.
type Cluster struct {
	uuid  string
	title string

	entries []*Entry

	engine      *syncer.Engine
	cfg         Config
	coordinator Coordinator
}

func newCluster(engine *syncer.Engine, cfg Config, uuid, title string) *Cluster {
	return &Cluster{
		uuid:   uuid,
		title:  title,
		engine: engine,
		cfg:    cfg,
	}
}

func (c *Cluster) UUID() string { return c.uuid }
func (c *Cluster) SetUUID(id string) { c.uuid = id }

func (c *Cluster) Title() string { return c.title }
func (c *Cluster) Entries() []*Entry { return c.entries }

func (c *Cluster) Serialize() document.Record {
	return document.Record{
		"UUID":  c.uuid,
		"Title": c.title,
	}
}

func (c *Cluster) ApplyUpdate(rec document.Record) {
	if title, ok := rec["Title"].(string); ok {
		c.title = title
	}
}

// attach takes ownership of an entry and routes its selection changes
// through the coordinator.
func (c *Cluster) attach(en *Entry) {
	c.entries = append(c.entries, en)
	en.onSelect = func(changed *Entry, active bool, t Transition, commit bool) {
		c.coordinator.Apply(c.entries, changed, active, t, commit)
	}
}

// AddEntry creates a new entry in this cluster, gives it a scene presence
// and persists it.
func (c *Cluster) AddEntry(ctx context.Context, host Host, title string, location transform.Vec3) (*Entry, error) {
	en := newEntry(c.engine, c.cfg, "", title, location)
	if err := en.attachScene(ctx, host, nil); err != nil {
		return nil, err
	}
	if err := c.engine.Register(en); err != nil {
		return nil, err
	}
	if err := c.engine.InsertObjectData(c.uuid, "DataEntries", en.Serialize()); err != nil {
		c.engine.Unregister(en.UUID())
		if en.handle != nil {
			host.Destroy(en.handle)
		}
		return nil, err
	}

	c.attach(en)
	return en, nil
}

// ActiveEntry returns the currently expanded entry, if any.
func (c *Cluster) ActiveEntry() *Entry {
	for _, en := range c.entries {
		if en.IsActive() {
			return en
		}
	}
	return nil
}

func (c *Cluster) teardown() {
	for _, en := range c.entries {
		en.onSelect = nil
	}
}
