package export

import (
	"fmt"
	"strconv"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// Token names read from a theme manifest.
const (
	TokenHeaderFill = "export.header_fill"
	TokenHeaderText = "export.header_text"
	TokenBorder     = "export.border"
	TokenRowBorder  = "export.row_border"
	TokenHeading    = "export.heading"
	TokenFont       = "export.font"
)

// Style carries the resolved presentation tokens renderers use.
type Style struct {
	Theme      string
	Variant    string
	HeaderFill string
	HeaderText string
	Border     string
	RowBorder  string
	Heading    string
	Font       string
	Tokens     map[string]string
}

// DefaultStyle is the light-grey header look of the printed tables.
func DefaultStyle() Style {
	return Style{
		HeaderFill: "#f5f5f5",
		HeaderText: "#464646",
		Border:     "#c8c8c8",
		RowBorder:  "#dcdcdc",
		Heading:    "#1e40af",
		Font:       "Helvetica",
	}
}

// StyleFromTokens overlays token values on the defaults.
func StyleFromTokens(tokens map[string]string) Style {
	style := DefaultStyle()
	style.Tokens = copyTokens(tokens)
	apply := func(dst *string, key string) {
		if v := strings.TrimSpace(tokens[key]); v != "" {
			*dst = v
		}
	}
	apply(&style.HeaderFill, TokenHeaderFill)
	apply(&style.HeaderText, TokenHeaderText)
	apply(&style.Border, TokenBorder)
	apply(&style.RowBorder, TokenRowBorder)
	apply(&style.Heading, TokenHeading)
	apply(&style.Font, TokenFont)
	return style
}

// StyleFromSelection resolves a go-theme selection: manifest tokens first,
// then the selected variant's tokens on top.
func StyleFromSelection(sel *theme.Selection) Style {
	if sel == nil || sel.Manifest == nil {
		return DefaultStyle()
	}
	tokens := copyTokens(sel.Manifest.Tokens)
	if variant, ok := sel.Manifest.Variants[sel.Variant]; ok {
		if tokens == nil {
			tokens = make(map[string]string, len(variant.Tokens))
		}
		for k, v := range variant.Tokens {
			tokens[k] = v
		}
	}
	style := StyleFromTokens(tokens)
	style.Theme = sel.Theme
	style.Variant = sel.Variant
	return style
}

// ResolveStyle asks selector for name/variant and converts the selection.
// A nil selector yields DefaultStyle.
func ResolveStyle(selector theme.ThemeSelector, name, variant string) (Style, error) {
	if selector == nil {
		return DefaultStyle(), nil
	}
	sel, err := selector.Select(name, variant)
	if err != nil {
		return Style{}, fmt.Errorf("export: select theme %q: %w", name, err)
	}
	return StyleFromSelection(sel), nil
}

// Manifests is a ThemeSelector over a fixed set of manifests keyed by name.
type Manifests map[string]*theme.Manifest

var _ theme.ThemeSelector = Manifests(nil)

// Select implements theme.ThemeSelector. An empty name picks the only
// manifest when exactly one is present; unknown variants fall back to the
// base tokens.
func (m Manifests) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if name == "" && len(m) == 1 {
		for key := range m {
			name = key
		}
	}
	manifest, ok := m[name]
	if !ok || manifest == nil {
		return nil, fmt.Errorf("export: theme %q not found", name)
	}
	if _, ok := manifest.Variants[variant]; !ok {
		variant = ""
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// Register validates manifests through a go-theme registry and returns them
// as a selector.
func Register(manifests ...*theme.Manifest) (Manifests, error) {
	registry := theme.NewRegistry()
	out := make(Manifests, len(manifests))
	for _, manifest := range manifests {
		if manifest == nil {
			continue
		}
		if err := registry.Register(manifest); err != nil {
			return nil, fmt.Errorf("export: register theme %q: %w", manifest.Name, err)
		}
		out[manifest.Name] = manifest
	}
	return out, nil
}

// RGB parses "#rrggbb" or "#rgb". Invalid values report ok=false.
func RGB(hex string) (r, g, b int, ok bool) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}

func copyTokens(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
