package transform

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVec3JSONRoundTrip(t *testing.T) {
	v := Vec3{1.5, 2.0, -3.25}

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, 2.0, -3.25]`, string(data))

	var got Vec3
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, v, got)
}

func TestVec3UnmarshalRejectsWrongArity(t *testing.T) {
	var v Vec3
	assert.Error(t, json.Unmarshal([]byte(`[1, 2]`), &v))
	assert.Error(t, json.Unmarshal([]byte(`"nope"`), &v))
}

func TestDegreeRadianRoundTrip(t *testing.T) {
	deg := Vec3{0, 90, 180}

	rad := DegToRad(deg)
	back := RadToDeg(rad)

	for i := range deg {
		assert.InDelta(t, deg[i], back[i], 1e-6)
	}
}

// Repeated load/save cycles must not accumulate drift.
func TestDegreeRadianRepeatedCycles(t *testing.T) {
	deg := Vec3{12.5, 90, -179.25}
	cur := deg
	for i := 0; i < 1000; i++ {
		cur = RadToDeg(DegToRad(cur))
	}
	for i := range deg {
		assert.InDelta(t, deg[i], cur[i], 1e-6)
	}
}

func TestSnapshotRecordRoundTrip(t *testing.T) {
	s := FromScene(Vec3{1.5, 2.0, -3.25}, DegToRad(Vec3{0, 90, 180}))

	rec := s.Record(false)
	_, hasScale := rec["scale"]
	assert.False(t, hasScale)

	got, ok := SnapshotFromRecord(rec)
	require.True(t, ok)
	for i := range s.Position {
		assert.InDelta(t, s.Position[i], got.Position[i], 1e-6)
		assert.InDelta(t, s.Rotation[i], got.Rotation[i], 1e-6)
	}
}

func TestSnapshotScalePolicy(t *testing.T) {
	s := FromScene(Vec3{}, Vec3{}).WithScale(Vec3{2, 2, 2})

	// Policy off: scale never reaches the wire even when present.
	_, hasScale := s.Record(false)["scale"]
	assert.False(t, hasScale)

	rec := s.Record(true)
	got, ok := SnapshotFromRecord(rec)
	require.True(t, ok)
	assert.True(t, got.HasScale)
	assert.Equal(t, Vec3{2, 2, 2}, got.Scale)
}

func TestSceneRotation(t *testing.T) {
	s := Snapshot{Rotation: Vec3{0, 90, 180}, HasRotation: true}
	rad := s.SceneRotation()
	assert.InDelta(t, 0, rad[0], 1e-9)
	assert.InDelta(t, 1.5707963267948966, rad[1], 1e-9)
	assert.InDelta(t, 3.141592653589793, rad[2], 1e-9)
}
