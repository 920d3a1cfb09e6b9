package scene

import (
	"context"
	"fmt"

	"github.com/V4C38/Unity-Journify/pkg/document"
	"github.com/V4C38/Unity-Journify/pkg/syncer"
	"github.com/V4C38/Unity-Journify/pkg/transform"
)

// Asset is a single generated 3D model placement. Its visible state mirrors
// the owning entry; assets carry no independent active toggle.
type Asset struct {
	uuid    string
	title   string
	prompt  string
	url     string
	snap    transform.Snapshot
	visible bool

	handle Handle

	engine *syncer.Engine
	cfg    Config
}

func newAsset(engine *syncer.Engine, cfg Config, uuid, title, prompt, url string, snap transform.Snapshot) *Asset {
	return &Asset{
		uuid:   uuid,
		title:  title,
		prompt: prompt,
		url:    url,
		snap:   snap,
		engine: engine,
		cfg:    cfg,
	}
}

func (a *Asset) UUID() string { return a.uuid }
func (a *Asset) SetUUID(id string) { a.uuid = id }

func (a *Asset) Title() string { return a.title }
func (a *Asset) Prompt() string { return a.prompt }
func (a *Asset) URL() string { return a.url }
func (a *Asset) Visible() bool { return a.visible }
func (a *Asset) Handle() Handle { return a.handle }

func (a *Asset) attachScene(ctx context.Context, host Host, parent Handle) error {
	if a.cfg.AssetTemplate == "" {
		return &MissingTemplateError{Kind: "asset", UUID: a.uuid}
	}
	h, err := host.Instantiate(ctx, a.cfg.AssetTemplate, InstantiateOptions{
		Parent:   parent,
		Position: a.snap.Position,
		Rotation: a.snap.SceneRotation(),
	})
	if err != nil {
		return fmt.Errorf("scene: instantiating asset %q: %w", a.uuid, err)
	}
	a.handle = h
	return nil
}

// snapshot freezes the live placement, falling back to the loaded values
// when the asset has no scene presence.
func (a *Asset) snapshot() transform.Snapshot {
	if a.handle == nil {
		return a.snap
	}
	s := transform.FromScene(a.handle.Position(), a.handle.Rotation())
	if a.snap.HasScale {
		s = s.WithScale(a.snap.Scale)
	}
	return s
}

func (a *Asset) Serialize() document.Record {
	return document.Record{
		"UUID":      a.uuid,
		"Title":     a.title,
		"Prompt":    a.prompt,
		"URL":       a.url,
		"transform": a.snapshot().Record(a.cfg.PersistScale),
		"IsActive":  a.visible,
	}
}

func (a *Asset) ApplyUpdate(rec document.Record) {
	if title, ok := rec["Title"].(string); ok {
		a.title = title
	}
	if prompt, ok := rec["Prompt"].(string); ok {
		a.prompt = prompt
	}
	if url, ok := rec["URL"].(string); ok {
		a.url = url
	}
	if tr, ok := rec["transform"].(document.Record); ok {
		if snap, ok := transform.SnapshotFromRecord(tr); ok {
			a.snap = snap
			if a.handle != nil {
				a.handle.SetPosition(snap.Position)
				a.handle.SetRotation(snap.SceneRotation())
			}
		}
	}
}

func (a *Asset) setVisible(visible bool, t Transition) {
	a.visible = visible
	if a.handle != nil {
		a.handle.SetVisible(visible, t)
	}
}

// EndDrag commits the placement accumulated during a drag gesture as a
// single change.
func (a *Asset) EndDrag() {
	if a.handle == nil {
		return
	}
	a.snap = a.snapshot()
	a.engine.UpdateObjectData(a.uuid)
}
