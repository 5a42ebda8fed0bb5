// Package collector serializes a form's live controls into a snapshot keyed
// by bracket-notation field paths.
package collector

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-formsync/pkg/dom"
	"github.com/goliatone/go-formsync/pkg/fieldpath"
	"github.com/goliatone/go-formsync/pkg/snapshot"
)

// checkboxDefault is what browsers submit for a checked box without a value.
const checkboxDefault = "on"

// Option configures a Collector.
type Option func(*Collector)

// WithPrefix limits collection to names rooted at prefix and strips that
// segment from the stored paths.
func WithPrefix(prefix string) Option {
	return func(c *Collector) {
		c.prefix = prefix
	}
}

// WithLogger sets the logger used to report skipped controls.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDisabled includes disabled controls, which browsers leave out of a
// submission.
func WithDisabled(include bool) Option {
	return func(c *Collector) {
		c.includeDisabled = include
	}
}

// Collector builds snapshots from form elements. It holds no per-form state
// and can be shared.
type Collector struct {
	prefix          string
	prefixPath      fieldpath.Path
	prefixInvalid   bool
	includeDisabled bool
	logger          *zap.Logger
}

// New constructs a Collector.
func New(opts ...Option) *Collector {
	c := &Collector{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.prefix != "" {
		if p, ok := fieldpath.Parse(c.prefix); ok {
			c.prefixPath = p
		} else {
			// No name can sit under a malformed prefix.
			c.prefixInvalid = true
			c.logger.Warn("collector: malformed prefix matches no field", zap.String("prefix", c.prefix))
		}
	}
	return c
}

// Prefix returns the configured naming prefix.
func (c *Collector) Prefix() string {
	if c == nil {
		return ""
	}
	return c.prefix
}

// Collect is shorthand for New(opts...).Collect(form).
func Collect(form *dom.Element, opts ...Option) *snapshot.Snapshot {
	return New(opts...).Collect(form)
}

// Collect reads every named control under form. A nil or detached form
// yields an empty snapshot.
func (c *Collector) Collect(form *dom.Element) *snapshot.Snapshot {
	snap := snapshot.New()
	if c == nil || form == nil || !form.Connected() {
		return snap
	}

	groups := make(map[string]struct{})
	controls := form.Controls()

	for _, control := range controls {
		name := control.Name()
		if name == "" {
			continue
		}
		kind := control.Type()
		if skipType(kind) {
			continue
		}
		if control.Disabled() && !c.includeDisabled {
			continue
		}

		path, ok := c.resolve(name)
		if !ok {
			c.logger.Debug("collector: skipping field", zap.String("name", name))
			continue
		}
		segments := path.Segments()

		switch kind {
		case "checkbox":
			if _, seen := groups[name]; seen {
				continue
			}
			groups[name] = struct{}{}
			snap.SetList(segments, checkedValues(controls, name, c.includeDisabled))
		case "radio":
			if !control.Checked() {
				continue
			}
			c.store(snap, path, control.Value())
		case "select":
			if control.Multiple() {
				values := control.SelectedValues()
				if path.Array() {
					for _, v := range values {
						snap.Append(segments, v)
					}
					if len(values) == 0 && !snap.Has(segments...) {
						snap.SetList(segments, nil)
					}
					continue
				}
				snap.SetList(segments, values)
				continue
			}
			c.store(snap, path, control.Value())
		default:
			c.store(snap, path, control.Value())
		}
	}
	return snap
}

func (c *Collector) store(snap *snapshot.Snapshot, path fieldpath.Path, value string) {
	if path.Array() {
		snap.Append(path.Segments(), value)
		return
	}
	snap.Set(path.Segments(), value)
}

// resolve decodes name and strips the prefix. Names outside the prefix or
// equal to it are rejected.
func (c *Collector) resolve(name string) (fieldpath.Path, bool) {
	if c.prefixInvalid {
		return fieldpath.Path{}, false
	}
	path, ok := fieldpath.Parse(name)
	if !ok {
		return fieldpath.Path{}, false
	}
	if c.prefixPath.IsZero() {
		return path, true
	}
	rest, ok := path.TrimPrefix(c.prefixPath)
	if !ok || rest.IsZero() {
		return fieldpath.Path{}, false
	}
	return rest, true
}

func checkedValues(controls []*dom.Element, name string, includeDisabled bool) []string {
	values := make([]string, 0)
	for _, control := range controls {
		if control.Type() != "checkbox" || control.Name() != name || !control.Checked() {
			continue
		}
		if control.Disabled() && !includeDisabled {
			continue
		}
		value, ok := control.Attr("value")
		if !ok {
			value = checkboxDefault
		}
		values = append(values, value)
	}
	return values
}

func skipType(kind string) bool {
	switch kind {
	case "button", "submit", "reset", "image", "file":
		return true
	default:
		return false
	}
}
