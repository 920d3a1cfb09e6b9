// Package scene holds the live Cluster/Entry/Asset tree: the domain objects
// users browse, select and drag. Each node registers itself with the sync
// engine and commits its state through it; the 3D engine itself is an
// external collaborator reached only through the Host and Handle interfaces.
package scene

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/V4C38/Unity-Journify/pkg/transform"
)

// Transition selects how a visibility or active-state change is presented.
// It is forwarded to the scene host and never persisted.
type Transition int

const (
	TransitionInstant Transition = iota
	TransitionAnimated
)

// Handle is a scene object owned by the host engine: a mutable transform
// plus a visibility flag. Rotations are radians on this side of the
// boundary.
type Handle interface {
	Position() transform.Vec3
	SetPosition(p transform.Vec3)
	Rotation() transform.Vec3
	SetRotation(r transform.Vec3)
	SetVisible(visible bool, t Transition)
}

// InstantiateOptions place a freshly instantiated object.
type InstantiateOptions struct {
	Parent   Handle
	Position transform.Vec3
	Rotation transform.Vec3
}

// Host instantiates and destroys scene objects from template references.
type Host interface {
	Instantiate(ctx context.Context, template string, opts InstantiateOptions) (Handle, error)
	Destroy(h Handle)
}

// Config wires a tree to its collaborators and fixes the persistence policy.
type Config struct {
	EntryTemplate string
	AssetTemplate string

	// PersistScale includes asset scale in the persisted transform. The wire
	// contract carries no scale by default.
	PersistScale bool

	Logger zerolog.Logger
}

// MissingTemplateError reports an entity that could not be given a scene
// presence because its instantiation template was not supplied. The entity
// still loads; siblings are unaffected.
type MissingTemplateError struct {
	Kind string
	UUID string
}

func (e *MissingTemplateError) Error() string {
	return fmt.Sprintf("scene: no %s template for %q", e.Kind, e.UUID)
}
