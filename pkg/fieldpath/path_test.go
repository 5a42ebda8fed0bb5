package fieldpath_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsync/pkg/fieldpath"
)

func TestParse_DecodesBracketNames(t *testing.T) {
	cases := []struct {
		name     string
		segments []string
		array    bool
	}{
		{name: "title", segments: []string{"title"}},
		{name: "a[b][3][c]", segments: []string{"a", "b", "3", "c"}},
		{name: "soal_selidik[fr][a][1][soalan]", segments: []string{"soal_selidik", "fr", "a", "1", "soalan"}},
		{name: "opt[]", segments: []string{"opt"}, array: true},
		{name: "project[tags][]", segments: []string{"project", "tags"}, array: true},
		{name: "  padded[x]  ", segments: []string{"padded", "x"}},
		{name: "dotted.key[with space]", segments: []string{"dotted.key", "with space"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path, ok := fieldpath.Parse(tc.name)
			if !ok {
				t.Fatalf("expected %q to parse", tc.name)
			}
			if diff := cmp.Diff(tc.segments, path.Segments()); diff != "" {
				t.Fatalf("segments mismatch (-want +got):\n%s", diff)
			}
			if path.Array() != tc.array {
				t.Fatalf("array flag: want %v, got %v", tc.array, path.Array())
			}
		})
	}
}

func TestParse_RejectsMalformedNames(t *testing.T) {
	for _, name := range []string{
		"",
		"   ",
		"[a]",
		"a[b",
		"a]b",
		"a[b]]",
		"a[b[c]]",
		"a[][b]",
		"a[b]c",
		"a[]extra",
		"a[[b]",
	} {
		if path, ok := fieldpath.Parse(name); ok {
			t.Fatalf("expected %q to be rejected, got %v", name, path.Segments())
		}
	}
}

func TestParse_RoundTrip(t *testing.T) {
	for _, name := range []string{
		"title",
		"a[b][3][c]",
		"soal_selidik[nama_sistem]",
		"soal_selidik[fr][a][1][soalan]",
		"opt[]",
		"x[0][]",
	} {
		path, ok := fieldpath.Parse(name)
		if !ok {
			t.Fatalf("parse %q failed", name)
		}
		if got := path.String(); got != name {
			t.Fatalf("round trip: want %q, got %q", name, got)
		}
		if got := fieldpath.Encode(path.Segments(), path.Array()); got != name {
			t.Fatalf("encode: want %q, got %q", name, got)
		}
	}
}

func TestTrimPrefix(t *testing.T) {
	prefix := fieldpath.MustParse("soal_selidik")
	path := fieldpath.MustParse("soal_selidik[fr][a][1][soalan]")

	rest, ok := path.TrimPrefix(prefix)
	if !ok {
		t.Fatalf("expected prefix match")
	}
	if diff := cmp.Diff([]string{"fr", "a", "1", "soalan"}, rest.Segments()); diff != "" {
		t.Fatalf("trimmed segments mismatch (-want +got):\n%s", diff)
	}

	other := fieldpath.MustParse("project[name]")
	if _, ok := other.TrimPrefix(prefix); ok {
		t.Fatalf("expected prefix mismatch")
	}

	arr := fieldpath.MustParse("soal_selidik[tags][]")
	rest, _ = arr.TrimPrefix(prefix)
	if !rest.Array() || rest.Key() != "tags" {
		t.Fatalf("expected array flag to survive trim, got %q array=%v", rest.Key(), rest.Array())
	}
}

func TestNew_RejectsBracketsAndEmptySegments(t *testing.T) {
	if _, ok := fieldpath.New(); ok {
		t.Fatalf("empty path should be rejected")
	}
	if _, ok := fieldpath.New("a", ""); ok {
		t.Fatalf("empty segment should be rejected")
	}
	if _, ok := fieldpath.New("a[b]"); ok {
		t.Fatalf("bracketed segment should be rejected")
	}
	path, ok := fieldpath.New("a", "b")
	if !ok || path.String() != "a[b]" {
		t.Fatalf("unexpected path %q", path.String())
	}
	if !path.Child("c").Equal(fieldpath.MustParse("a[b][c]")) {
		t.Fatalf("child mismatch")
	}
}
