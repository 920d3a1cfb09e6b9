package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "UUID": "doc-1",
  "DataClusters": [
    {
      "UUID": "cluster-1", "Title": "Chapter 1",
      "DataEntries": [
        {
          "UUID": "entry-1", "Title": "Vase", "Location": [0, 0, 0],
          "DataAssets": [
            { "UUID": "asset-1", "Title": "Blue Vase", "Prompt": "a blue vase",
              "transform": { "position": [1, 2, 3], "rotation": [0, 90, 180] },
              "URL": "https://models.example/vase.glb", "IsActive": false }
          ]
        },
        { "UUID": "entry-2", "Title": "Lamp", "Location": [5, 0, 5], "DataAssets": [] }
      ]
    }
  ]
}`

func TestDecodeEncodeRoundTrip(t *testing.T) {
	rec, err := Decode([]byte(sampleJSON))
	require.NoError(t, err)

	data, err := Encode(rec)
	require.NoError(t, err)
	assert.JSONEq(t, sampleJSON, string(data))
}

func TestFindByUUIDRoot(t *testing.T) {
	rec, err := Decode([]byte(sampleJSON))
	require.NoError(t, err)

	found, ok := FindByUUID(rec, "doc-1")
	require.True(t, ok)
	assert.Equal(t, "doc-1", UUIDOf(found))
}

func TestFindByUUIDNested(t *testing.T) {
	rec, err := Decode([]byte(sampleJSON))
	require.NoError(t, err)

	found, ok := FindByUUID(rec, "asset-1")
	require.True(t, ok)
	assert.Equal(t, "Blue Vase", found["Title"])

	found, ok = FindByUUID(rec, "entry-2")
	require.True(t, ok)
	assert.Equal(t, "Lamp", found["Title"])
}

func TestFindByUUIDNotFound(t *testing.T) {
	rec, err := Decode([]byte(sampleJSON))
	require.NoError(t, err)

	_, ok := FindByUUID(rec, "no-such-id")
	assert.False(t, ok)
}

func TestFindByUUIDMutatesInPlace(t *testing.T) {
	rec, err := Decode([]byte(sampleJSON))
	require.NoError(t, err)

	found, ok := FindByUUID(rec, "entry-2")
	require.True(t, ok)
	found["Title"] = "Floor Lamp"

	again, ok := FindByUUID(rec, "entry-2")
	require.True(t, ok)
	assert.Equal(t, "Floor Lamp", again["Title"])
}

func TestMergeReplacesFields(t *testing.T) {
	dst := Record{"UUID": "entry-1", "Title": "Vase", "Location": []any{0.0, 0.0, 0.0}}
	Merge(dst, Record{"Title": "Tall Vase", "IsActive": true})

	assert.Equal(t, "Tall Vase", dst["Title"])
	assert.Equal(t, true, dst["IsActive"])
	assert.Equal(t, []any{0.0, 0.0, 0.0}, dst["Location"])
}

func TestMergePreservesUUID(t *testing.T) {
	dst := Record{"UUID": "entry-1", "Title": "Vase"}

	// Mismatching incoming id must not win.
	Merge(dst, Record{"UUID": "evil", "Title": "Hacked"})
	assert.Equal(t, "entry-1", dst["UUID"])
	assert.Equal(t, "Hacked", dst["Title"])

	// Omitted incoming id must not clear it either.
	Merge(dst, Record{"Title": "Vase Again"})
	assert.Equal(t, "entry-1", dst["UUID"])
}

func TestRemoveByUUID(t *testing.T) {
	rec, err := Decode([]byte(sampleJSON))
	require.NoError(t, err)

	require.True(t, RemoveByUUID(rec, "asset-1"))
	_, ok := FindByUUID(rec, "asset-1")
	assert.False(t, ok)

	// Siblings and ancestors survive.
	_, ok = FindByUUID(rec, "entry-1")
	assert.True(t, ok)

	assert.False(t, RemoveByUUID(rec, "asset-1"), "second removal finds nothing")
	assert.False(t, RemoveByUUID(rec, "doc-1"), "the root is not removable")
}

func TestCloneIsDeep(t *testing.T) {
	rec, err := Decode([]byte(sampleJSON))
	require.NoError(t, err)

	cp := Clone(rec)
	node, ok := FindByUUID(cp, "entry-1")
	require.True(t, ok)
	node["Title"] = "Changed"

	orig, ok := FindByUUID(rec, "entry-1")
	require.True(t, ok)
	assert.Equal(t, "Vase", orig["Title"])
}

func TestToRecord(t *testing.T) {
	doc := Document{
		UUID: "doc-2",
		DataClusters: []Cluster{
			{UUID: "c", Title: "T", DataEntries: []Entry{}},
		},
	}
	rec, err := ToRecord(doc)
	require.NoError(t, err)
	assert.Equal(t, "doc-2", UUIDOf(rec))

	_, ok := FindByUUID(rec, "c")
	assert.True(t, ok)
}
