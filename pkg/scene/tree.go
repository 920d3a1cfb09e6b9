package scene

import (
	"context"
	"errors"

	"github.com/V4C38/Unity-Journify/pkg/document"
	"github.com/V4C38/Unity-Journify/pkg/syncer"
	"github.com/V4C38/Unity-Journify/pkg/transform"
)

var ErrNoDocument = errors.New("scene: engine has no loaded document")

// Tree is the live entity graph built from a loaded document. It owns the
// clusters; the engine keeps only a non-owning lookup registry, torn down
// again in Close.
type Tree struct {
	docUUID  string
	clusters []*Cluster

	host   Host
	engine *syncer.Engine
	cfg    Config
}

// Build constructs the live tree from the engine's current document. An
// entity that cannot be given a scene presence (missing template, failed
// instantiation) is reported and left without one; loading of its siblings
// continues.
func Build(ctx context.Context, host Host, engine *syncer.Engine, cfg Config) (*Tree, error) {
	doc := engine.Document()
	if doc == nil {
		return nil, ErrNoDocument
	}

	t := &Tree{
		docUUID: document.UUIDOf(doc),
		host:    host,
		engine:  engine,
		cfg:     cfg,
	}

	clusters, _ := doc["DataClusters"].([]any)
	for _, cv := range clusters {
		crec, ok := cv.(document.Record)
		if !ok {
			continue
		}
		c := t.buildCluster(ctx, crec)
		t.clusters = append(t.clusters, c)
	}
	return t, nil
}

func (t *Tree) buildCluster(ctx context.Context, rec document.Record) *Cluster {
	title, _ := rec["Title"].(string)
	c := newCluster(t.engine, t.cfg, document.UUIDOf(rec), title)
	if err := t.engine.Register(c); err != nil {
		t.cfg.Logger.Error().Err(err).Msg("registering cluster")
	}

	entries, _ := rec["DataEntries"].([]any)
	for _, ev := range entries {
		erec, ok := ev.(document.Record)
		if !ok {
			continue
		}
		c.attach(t.buildEntry(ctx, erec))
	}
	return c
}

func (t *Tree) buildEntry(ctx context.Context, rec document.Record) *Entry {
	title, _ := rec["Title"].(string)
	loc, _ := transform.Vec3FromAny(rec["Location"])
	en := newEntry(t.engine, t.cfg, document.UUIDOf(rec), title, loc)

	if err := en.attachScene(ctx, t.host, nil); err != nil {
		// The entry keeps loading without a scene presence; siblings are
		// unaffected.
		t.cfg.Logger.Error().Err(err).Str("uuid", en.uuid).Msg("entry has no scene presence")
	}
	if err := t.engine.Register(en); err != nil {
		t.cfg.Logger.Error().Err(err).Msg("registering entry")
	}

	active, _ := rec["IsActive"].(bool)
	assets, _ := rec["DataAssets"].([]any)
	for _, av := range assets {
		arec, ok := av.(document.Record)
		if !ok {
			continue
		}
		a := t.buildAsset(ctx, arec, en)
		a.setVisible(active, TransitionInstant)
		en.assets = append(en.assets, a)
	}

	// Restore the persisted selection without firing listeners; the cluster
	// is not wired up yet and the loaded document is trusted to satisfy the
	// single-active invariant.
	en.active = active
	return en
}

func (t *Tree) buildAsset(ctx context.Context, rec document.Record, owner *Entry) *Asset {
	title, _ := rec["Title"].(string)
	prompt, _ := rec["Prompt"].(string)
	url, _ := rec["URL"].(string)

	var snap transform.Snapshot
	if tr, ok := rec["transform"].(document.Record); ok {
		snap, _ = transform.SnapshotFromRecord(tr)
	}

	a := newAsset(t.engine, t.cfg, document.UUIDOf(rec), title, prompt, url, snap)
	if err := a.attachScene(ctx, t.host, owner.handle); err != nil {
		t.cfg.Logger.Error().Err(err).Str("uuid", a.uuid).Msg("asset has no scene presence")
	}
	if err := t.engine.Register(a); err != nil {
		t.cfg.Logger.Error().Err(err).Msg("registering asset")
	}
	return a
}

func (t *Tree) Clusters() []*Cluster { return t.clusters }

// AddCluster creates a new top-level cluster and persists it.
func (t *Tree) AddCluster(title string) (*Cluster, error) {
	c := newCluster(t.engine, t.cfg, "", title)
	if err := t.engine.Register(c); err != nil {
		return nil, err
	}
	rec := c.Serialize()
	rec["DataEntries"] = []any{}
	if err := t.engine.InsertObjectData(t.docUUID, "DataClusters", rec); err != nil {
		t.engine.Unregister(c.UUID())
		return nil, err
	}
	t.clusters = append(t.clusters, c)
	return c, nil
}

// Close detaches the selection coordinators, unregisters every entity from
// the engine and destroys the scene handles. The engine itself is left to
// its owner.
func (t *Tree) Close() {
	for _, c := range t.clusters {
		c.teardown()
		for _, en := range c.entries {
			for _, a := range en.assets {
				t.engine.Unregister(a.UUID())
				if a.handle != nil {
					t.host.Destroy(a.handle)
					a.handle = nil
				}
			}
			t.engine.Unregister(en.UUID())
			if en.handle != nil {
				t.host.Destroy(en.handle)
				en.handle = nil
			}
		}
		t.engine.Unregister(c.UUID())
	}
	t.clusters = nil
}
