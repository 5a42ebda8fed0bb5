// Package snapshot holds FormSnapshot, the nested value tree a collection
// pass produces. Each node maps a segment to a scalar string, an ordered
// list of strings, or another snapshot. Keys keep insertion order so JSON and
// form encodings are deterministic and follow document order.
package snapshot

import (
	"bytes"
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/goliatone/go-formsync/pkg/fieldpath"
)

// Kind identifies the shape stored at a key.
type Kind int

const (
	KindScalar Kind = iota + 1
	KindList
	KindTree
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindTree:
		return "tree"
	default:
		return "unknown"
	}
}

// Value is a single node in the snapshot.
type Value struct {
	kind   Kind
	scalar string
	list   []string
	tree   *Snapshot
}

// Scalar wraps a string value.
func Scalar(v string) Value { return Value{kind: KindScalar, scalar: v} }

// List wraps an ordered list. A nil slice still yields an (empty) list.
func List(values ...string) Value {
	return Value{kind: KindList, list: append([]string{}, values...)}
}

// Kind reports the node shape.
func (v Value) Kind() Kind { return v.kind }

// String returns the scalar value; lists are joined with ", ".
func (v Value) String() string {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindList:
		return strings.Join(v.list, ", ")
	default:
		return ""
	}
}

// Strings returns the list values (or the scalar as a one-element list).
func (v Value) Strings() []string {
	switch v.kind {
	case KindList:
		return append([]string{}, v.list...)
	case KindScalar:
		return []string{v.scalar}
	default:
		return nil
	}
}

// Tree returns the nested snapshot for tree nodes.
func (v Value) Tree() *Snapshot {
	if v.kind != KindTree {
		return nil
	}
	return v.tree
}

// Snapshot is an ordered tree of form values. The zero value is not usable;
// call New.
type Snapshot struct {
	keys    []string
	entries map[string]*Value
}

// New returns an empty snapshot.
func New() *Snapshot {
	return &Snapshot{entries: make(map[string]*Value)}
}

// Len reports the number of top-level keys.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the top-level keys in insertion order.
func (s *Snapshot) Keys() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.keys...)
}

// Get resolves a segment path.
func (s *Snapshot) Get(path ...string) (Value, bool) {
	if s == nil || len(path) == 0 {
		return Value{}, false
	}
	current := s
	for i, segment := range path {
		node, ok := current.entries[segment]
		if !ok {
			return Value{}, false
		}
		if i == len(path)-1 {
			return *node, true
		}
		if node.kind != KindTree {
			return Value{}, false
		}
		current = node.tree
	}
	return Value{}, false
}

// Has reports whether a value exists at path.
func (s *Snapshot) Has(path ...string) bool {
	_, ok := s.Get(path...)
	return ok
}

// Set stores a scalar at path, creating intermediate trees. Non-tree nodes
// on the way are replaced.
func (s *Snapshot) Set(path []string, value string) {
	s.put(path, Scalar(value))
}

// SetList stores a list at path, replacing any existing value. Duplicate
// entries are dropped while keeping first-seen order.
func (s *Snapshot) SetList(path []string, values []string) {
	s.put(path, List(dedupe(values)...))
}

// Append adds value to the list at path, creating it when absent. A scalar
// already stored there becomes the first list entry. Values already present
// are skipped; the return value reports whether value was added.
func (s *Snapshot) Append(path []string, value string) bool {
	parent, key := s.parentFor(path)
	if parent == nil {
		return false
	}
	node, ok := parent.entries[key]
	if !ok {
		parent.insert(key, &Value{kind: KindList, list: []string{value}})
		return true
	}
	switch node.kind {
	case KindList:
		for _, existing := range node.list {
			if existing == value {
				return false
			}
		}
		node.list = append(node.list, value)
		return true
	case KindScalar:
		if node.scalar == value {
			node.kind, node.list, node.scalar = KindList, []string{value}, ""
			return false
		}
		node.kind, node.list, node.scalar = KindList, []string{node.scalar, value}, ""
		return true
	default:
		*node = Value{kind: KindList, list: []string{value}}
		return true
	}
}

// Delete removes the value at path. Empty parent trees are kept.
func (s *Snapshot) Delete(path ...string) bool {
	if s == nil || len(path) == 0 {
		return false
	}
	parentPath, key := path[:len(path)-1], path[len(path)-1]
	parent := s
	if len(parentPath) > 0 {
		value, ok := s.Get(parentPath...)
		if !ok || value.kind != KindTree {
			return false
		}
		parent = value.tree
	}
	if _, ok := parent.entries[key]; !ok {
		return false
	}
	delete(parent.entries, key)
	for i, k := range parent.keys {
		if k == key {
			parent.keys = append(parent.keys[:i], parent.keys[i+1:]...)
			break
		}
	}
	return true
}

// Walk visits every leaf (scalar or list) depth-first in key order. Empty
// trees are visited as leaves so callers can see them.
func (s *Snapshot) Walk(fn func(path []string, value Value)) {
	if s == nil || fn == nil {
		return
	}
	s.walk(nil, fn)
}

func (s *Snapshot) walk(prefix []string, fn func([]string, Value)) {
	for _, key := range s.keys {
		node := s.entries[key]
		path := append(append([]string(nil), prefix...), key)
		if node.kind == KindTree && node.tree.Len() > 0 {
			node.tree.walk(path, fn)
			continue
		}
		fn(path, *node)
	}
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := New()
	for _, key := range s.keys {
		node := s.entries[key]
		out.insert(key, cloneValue(node))
	}
	return out
}

// Equal compares two snapshots including key order.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s.Len() != other.Len() {
		return false
	}
	if s == nil || other == nil {
		return true
	}
	for i, key := range s.keys {
		if other.keys[i] != key {
			return false
		}
		a, b := s.entries[key], other.entries[key]
		if a.kind != b.kind {
			return false
		}
		switch a.kind {
		case KindScalar:
			if a.scalar != b.scalar {
				return false
			}
		case KindList:
			if len(a.list) != len(b.list) {
				return false
			}
			for j := range a.list {
				if a.list[j] != b.list[j] {
					return false
				}
			}
		case KindTree:
			if !a.tree.Equal(b.tree) {
				return false
			}
		}
	}
	return true
}

// Map converts the snapshot into JSON-shaped values: map[string]any for
// trees, []any of strings for lists, string for scalars.
func (s *Snapshot) Map() map[string]any {
	out := make(map[string]any, s.Len())
	if s == nil {
		return out
	}
	for _, key := range s.keys {
		out[key] = valueToAny(s.entries[key])
	}
	return out
}

// FromMap builds a snapshot from JSON-shaped values. Map keys are sorted
// because Go maps carry no order; non-string leaves are formatted with JSON.
func FromMap(in map[string]any) *Snapshot {
	out := New()
	keys := make([]string, 0, len(in))
	for key := range in {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		out.insert(key, anyToValue(in[key]))
	}
	return out
}

// MarshalJSON encodes the snapshot as a JSON object in key order.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.encodeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving key order.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	decoded, err := decodeOrdered(dec)
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}

// Values flattens the snapshot into bracket-notation form values. Lists are
// emitted under `name[]`. The optional root wraps every key, e.g. root
// "soal_selidik" yields `soal_selidik[fr][a]`.
func (s *Snapshot) Values(root string) url.Values {
	out := url.Values{}
	s.Walk(func(path []string, value Value) {
		segments := path
		if root != "" {
			segments = append([]string{root}, path...)
		}
		switch value.kind {
		case KindList:
			name := fieldpath.Encode(segments, true)
			if len(value.list) == 0 {
				out[name] = []string{}
				return
			}
			for _, item := range value.list {
				out.Add(name, item)
			}
		case KindScalar:
			out.Set(fieldpath.Encode(segments, false), value.scalar)
		}
	})
	return out
}

func (s *Snapshot) put(path []string, value Value) {
	parent, key := s.parentFor(path)
	if parent == nil {
		return
	}
	if node, ok := parent.entries[key]; ok {
		*node = value
		return
	}
	parent.insert(key, &value)
}

func (s *Snapshot) parentFor(path []string) (*Snapshot, string) {
	if s == nil || len(path) == 0 {
		return nil, ""
	}
	current := s
	for _, segment := range path[:len(path)-1] {
		node, ok := current.entries[segment]
		if !ok {
			child := New()
			current.insert(segment, &Value{kind: KindTree, tree: child})
			current = child
			continue
		}
		if node.kind != KindTree {
			*node = Value{kind: KindTree, tree: New()}
		}
		current = node.tree
	}
	return current, path[len(path)-1]
}

func (s *Snapshot) insert(key string, value *Value) {
	if s.entries == nil {
		s.entries = make(map[string]*Value)
	}
	if _, exists := s.entries[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.entries[key] = value
}

func cloneValue(v *Value) *Value {
	out := &Value{kind: v.kind, scalar: v.scalar}
	switch v.kind {
	case KindList:
		out.list = append([]string{}, v.list...)
	case KindTree:
		out.tree = v.tree.Clone()
	}
	return out
}

func valueToAny(v *Value) any {
	switch v.kind {
	case KindList:
		items := make([]any, len(v.list))
		for i, item := range v.list {
			items[i] = item
		}
		return items
	case KindTree:
		return v.tree.Map()
	default:
		return v.scalar
	}
}

func anyToValue(raw any) *Value {
	switch typed := raw.(type) {
	case nil:
		return &Value{kind: KindScalar}
	case string:
		return &Value{kind: KindScalar, scalar: typed}
	case map[string]any:
		return &Value{kind: KindTree, tree: FromMap(typed)}
	case []string:
		return &Value{kind: KindList, list: append([]string{}, typed...)}
	case []any:
		list := make([]string, 0, len(typed))
		for _, item := range typed {
			list = append(list, stringify(item))
		}
		return &Value{kind: KindList, list: list}
	default:
		return &Value{kind: KindScalar, scalar: stringify(typed)}
	}
}

func stringify(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	default:
		b, err := json.Marshal(typed)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
