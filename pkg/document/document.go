// Package document defines the persisted document tree and the operations
// the sync engine performs on it: decoding the wire JSON, locating a node by
// its UUID at arbitrary depth, and merging updated fields into a node while
// keeping its identity intact.
//
// Field names are the wire contract and are case-sensitive.
package document

import (
	"encoding/json"

	"github.com/V4C38/Unity-Journify/pkg/transform"
)

// KeyUUID is the identifier field every persistable node carries. It is the
// join key between the live object graph and the document tree and is never
// rewritten by a merge.
const KeyUUID = "UUID"

// Record is a generic document node as decoded from JSON.
type Record = map[string]any

// Typed wire shapes. The engine itself works on generic Records so that a
// lookup reaches nodes at any depth; these structs exist for construction,
// validation and the CLI.

type Document struct {
	UUID         string    `json:"UUID"`
	DataClusters []Cluster `json:"DataClusters"`
}

type Cluster struct {
	UUID        string  `json:"UUID"`
	Title       string  `json:"Title"`
	DataEntries []Entry `json:"DataEntries"`
}

type Entry struct {
	UUID       string         `json:"UUID"`
	Title      string         `json:"Title"`
	Location   transform.Vec3 `json:"Location"`
	DataAssets []Asset        `json:"DataAssets"`
	IsActive   bool           `json:"IsActive,omitempty"`
}

type Asset struct {
	UUID      string             `json:"UUID"`
	Title     string             `json:"Title"`
	Prompt    string             `json:"Prompt"`
	Transform transform.Snapshot `json:"transform"`
	URL       string             `json:"URL"`
	IsActive  bool               `json:"IsActive"`
}

// Decode parses wire JSON into a generic record tree.
func Decode(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Encode renders a record tree back to wire JSON.
func Encode(rec Record) ([]byte, error) {
	return json.Marshal(rec)
}

// ToRecord converts a typed wire value to its generic form by passing it
// through the JSON codec, so both forms stay byte-equivalent.
func ToRecord(v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// UUIDOf returns the identifier of a node, or "" when it has none.
func UUIDOf(rec Record) string {
	id, _ := rec[KeyUUID].(string)
	return id
}

// FindByUUID walks the tree depth-first, in document order, and returns the
// first map node whose UUID field equals id. The node itself is checked
// before its children, so the root is the fast path. Arrays nested inside
// objects nested inside arrays are all traversed.
func FindByUUID(node any, id string) (Record, bool) {
	switch n := node.(type) {
	case Record:
		if UUIDOf(n) == id {
			return n, true
		}
		for _, v := range n {
			if found, ok := FindByUUID(v, id); ok {
				return found, true
			}
		}
	case []any:
		for _, v := range n {
			if found, ok := FindByUUID(v, id); ok {
				return found, true
			}
		}
	}
	return nil, false
}

// Merge copies every field of src into dst, replacing existing values.
// dst's UUID is preserved verbatim: an incoming record that omits or
// mismatches the identifier can never corrupt it.
func Merge(dst, src Record) {
	if dst == nil {
		return
	}
	keep, hadID := dst[KeyUUID]
	for k, v := range src {
		dst[k] = v
	}
	if hadID {
		dst[KeyUUID] = keep
	} else {
		delete(dst, KeyUUID)
	}
}

// RemoveByUUID removes the first node with the given UUID from its
// containing array, searching depth-first in document order. Returns false
// when no such node exists. The root cannot be removed.
func RemoveByUUID(node any, id string) bool {
	switch n := node.(type) {
	case Record:
		for k, v := range n {
			if arr, ok := v.([]any); ok {
				for i, el := range arr {
					if rec, ok := el.(Record); ok && UUIDOf(rec) == id {
						n[k] = append(arr[:i:i], arr[i+1:]...)
						return true
					}
				}
			}
			if RemoveByUUID(v, id) {
				return true
			}
		}
	case []any:
		for _, v := range n {
			if RemoveByUUID(v, id) {
				return true
			}
		}
	}
	return false
}

// Clone deep-copies a record tree. Used to hand callers data they can
// mutate without touching the engine's authoritative document.
func Clone(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Record:
		return Clone(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
