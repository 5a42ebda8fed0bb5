package template

import (
	"strconv"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

var filtersOnce sync.Once

// registerFilters installs the package filters into pongo2's global filter
// table once per process.
func registerFilters() {
	filtersOnce.Do(func() {
		register("trim", filterTrim)
		register("placeholder", filterPlaceholder)
		register("pct", filterPercent)
	})
}

func register(name string, fn pongo2.FilterFunction) {
	if !pongo2.FilterExists(name) {
		_ = pongo2.RegisterFilter(name, fn)
	}
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

// filterPlaceholder swaps blank strings for the parameter (default "-").
func filterPlaceholder(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if strings.TrimSpace(in.String()) != "" {
		return in, nil
	}
	fallback := "-"
	if param != nil && param.String() != "" {
		fallback = param.String()
	}
	return pongo2.AsValue(fallback), nil
}

// filterPercent formats a float as a CSS percentage with two decimals.
func filterPercent(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(strings.TrimRight(strings.TrimRight(strconv.FormatFloat(in.Float(), 'f', 2, 64), "0"), ".") + "%"), nil
}
