// Package transform holds the serializable placement values shared between
// the live scene and the persisted document. The wire format stores rotation
// in degrees while the scene works in radians; conversion happens here, at
// the boundary, and nowhere else.
package transform

import (
	"encoding/json"
	"fmt"
	"math"
)

// Vec3 is a 3-component vector encoded on the wire as a JSON array [x, y, z].
type Vec3 [3]float64

func (v Vec3) X() float64 { return v[0] }
func (v Vec3) Y() float64 { return v[1] }
func (v Vec3) Z() float64 { return v[2] }

func (v Vec3) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64(v))
}

func (v *Vec3) UnmarshalJSON(data []byte) error {
	var arr []float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) != 3 {
		return fmt.Errorf("vec3: expected 3 components, got %d", len(arr))
	}
	copy(v[:], arr)
	return nil
}

// Slice returns the vector as a fresh []any, the shape it takes inside a
// generic document record.
func (v Vec3) Slice() []any {
	return []any{v[0], v[1], v[2]}
}

// Vec3FromAny reads a Vec3 back out of a decoded JSON value ([]any of
// numbers). Returns false when the value has any other shape.
func Vec3FromAny(val any) (Vec3, bool) {
	arr, ok := val.([]any)
	if !ok || len(arr) != 3 {
		return Vec3{}, false
	}
	var v Vec3
	for i, c := range arr {
		f, ok := c.(float64)
		if !ok {
			return Vec3{}, false
		}
		v[i] = f
	}
	return v, true
}

// DegToRad converts a per-component euler rotation from wire degrees to
// scene radians.
func DegToRad(deg Vec3) Vec3 {
	return Vec3{
		deg[0] * math.Pi / 180,
		deg[1] * math.Pi / 180,
		deg[2] * math.Pi / 180,
	}
}

// RadToDeg is the inverse of DegToRad.
func RadToDeg(rad Vec3) Vec3 {
	return Vec3{
		rad[0] * 180 / math.Pi,
		rad[1] * 180 / math.Pi,
		rad[2] * 180 / math.Pi,
	}
}

// Snapshot is a placement frozen in wire form: position in scene units,
// rotation in degrees. Scale is only carried when the persistence policy
// asks for it.
type Snapshot struct {
	Position Vec3
	Rotation Vec3
	Scale    Vec3

	HasRotation bool
	HasScale    bool
}

type snapshotWire struct {
	Position Vec3  `json:"position"`
	Rotation *Vec3 `json:"rotation,omitempty"`
	Scale    *Vec3 `json:"scale,omitempty"`
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	w := snapshotWire{Position: s.Position, Rotation: &s.Rotation}
	if s.HasScale {
		w.Scale = &s.Scale
	}
	return json.Marshal(w)
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var w snapshotWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Position = w.Position
	s.HasRotation = w.Rotation != nil
	if w.Rotation != nil {
		s.Rotation = *w.Rotation
	}
	s.HasScale = w.Scale != nil
	if w.Scale != nil {
		s.Scale = *w.Scale
	}
	return nil
}

// FromScene freezes a live placement (rotation in radians) into a Snapshot.
func FromScene(position, rotation Vec3) Snapshot {
	return Snapshot{
		Position:    position,
		Rotation:    RadToDeg(rotation),
		HasRotation: true,
	}
}

// WithScale adds a scale component to the snapshot.
func (s Snapshot) WithScale(scale Vec3) Snapshot {
	s.Scale = scale
	s.HasScale = true
	return s
}

// SceneRotation returns the rotation in radians for handing to the scene.
func (s Snapshot) SceneRotation() Vec3 {
	return DegToRad(s.Rotation)
}

// Record renders the snapshot as a generic document node
// {"position": [...], "rotation": [...]}. Scale is included only when
// persistScale is set and the snapshot carries one.
func (s Snapshot) Record(persistScale bool) map[string]any {
	rec := map[string]any{
		"position": s.Position.Slice(),
		"rotation": s.Rotation.Slice(),
	}
	if persistScale && s.HasScale {
		rec["scale"] = s.Scale.Slice()
	}
	return rec
}

// SnapshotFromRecord reads a snapshot back out of a generic document node.
func SnapshotFromRecord(rec map[string]any) (Snapshot, bool) {
	pos, ok := Vec3FromAny(rec["position"])
	if !ok {
		return Snapshot{}, false
	}
	s := Snapshot{Position: pos}
	if rot, ok := Vec3FromAny(rec["rotation"]); ok {
		s.Rotation = rot
		s.HasRotation = true
	}
	if sc, ok := Vec3FromAny(rec["scale"]); ok {
		s.Scale = sc
		s.HasScale = true
	}
	return s, true
}
