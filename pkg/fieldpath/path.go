package fieldpath

import (
	"strings"
)

// Path is a decoded field name. Segments are opaque strings; numeric
// segments are not interpreted.
type Path struct {
	segments []string
	array    bool
}

// New builds a Path from raw segments. Empty segments are rejected so the
// result always round-trips through String and Parse.
func New(segments ...string) (Path, bool) {
	if len(segments) == 0 {
		return Path{}, false
	}
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "" || strings.ContainsAny(segment, "[]") {
			return Path{}, false
		}
		out = append(out, segment)
	}
	return Path{segments: out}, true
}

// Parse decodes a bracket-notation name. Names with unbalanced or nested
// brackets, empty segments, or an empty `[]` anywhere but the end report
// ok=false.
func Parse(name string) (Path, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Path{}, false
	}

	open := strings.IndexByte(name, '[')
	if open == -1 {
		if strings.IndexByte(name, ']') != -1 {
			return Path{}, false
		}
		return Path{segments: []string{name}}, true
	}
	if open == 0 {
		return Path{}, false
	}

	segments := []string{name[:open]}
	if strings.IndexByte(segments[0], ']') != -1 {
		return Path{}, false
	}

	array := false
	rest := name[open:]
	for rest != "" {
		if array {
			// `[]` is only meaningful as the final group.
			return Path{}, false
		}
		if rest[0] != '[' {
			return Path{}, false
		}
		end := strings.IndexByte(rest, ']')
		if end == -1 {
			return Path{}, false
		}
		segment := rest[1:end]
		if strings.IndexByte(segment, '[') != -1 {
			return Path{}, false
		}
		if segment == "" {
			array = true
		} else {
			segments = append(segments, segment)
		}
		rest = rest[end+1:]
	}

	return Path{segments: segments, array: array}, true
}

// MustParse panics when name is not a valid field name. Intended for tests
// and package-level constants.
func MustParse(name string) Path {
	path, ok := Parse(name)
	if !ok {
		panic("fieldpath: invalid field name " + `"` + name + `"`)
	}
	return path
}

// String encodes the path back into bracket notation.
func (p Path) String() string {
	if len(p.segments) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(p.segments[0])
	for _, segment := range p.segments[1:] {
		b.WriteByte('[')
		b.WriteString(segment)
		b.WriteByte(']')
	}
	if p.array {
		b.WriteString("[]")
	}
	return b.String()
}

// Segments returns a copy of the decoded segments.
func (p Path) Segments() []string {
	if len(p.segments) == 0 {
		return nil
	}
	return append([]string(nil), p.segments...)
}

// Len reports the number of segments.
func (p Path) Len() int {
	return len(p.segments)
}

// IsZero reports whether the path holds no segments.
func (p Path) IsZero() bool {
	return len(p.segments) == 0
}

// Array reports whether the name ended in `[]`.
func (p Path) Array() bool {
	return p.array
}

// Key joins the segments with dots. Useful for log fields and map keys.
func (p Path) Key() string {
	return strings.Join(p.segments, ".")
}

// Equal compares segments and the array flag.
func (p Path) Equal(other Path) bool {
	if p.array != other.array || len(p.segments) != len(other.segments) {
		return false
	}
	for i := range p.segments {
		if p.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix's segments lead p's segments. The array
// flag of prefix is ignored.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.segments) > len(p.segments) {
		return false
	}
	for i := range prefix.segments {
		if p.segments[i] != prefix.segments[i] {
			return false
		}
	}
	return true
}

// TrimPrefix removes prefix's segments from p. When p does not start with
// prefix it is returned unchanged with ok=false. The array flag survives.
func (p Path) TrimPrefix(prefix Path) (Path, bool) {
	if !p.HasPrefix(prefix) {
		return p, false
	}
	rest := p.segments[len(prefix.segments):]
	out := Path{array: p.array}
	if len(rest) > 0 {
		out.segments = append([]string(nil), rest...)
	}
	return out, true
}

// Child returns a new path with segment appended. The array flag is cleared.
func (p Path) Child(segment string) Path {
	out := Path{segments: make([]string, 0, len(p.segments)+1)}
	out.segments = append(out.segments, p.segments...)
	out.segments = append(out.segments, segment)
	return out
}

// Encode builds a bracket-notation name from raw segments, appending `[]`
// when array is set. It is the inverse of Parse for valid segments.
func Encode(segments []string, array bool) string {
	return Path{segments: segments, array: array}.String()
}
