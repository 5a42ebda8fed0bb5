package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formsync/pkg/dom"
	"github.com/goliatone/go-formsync/pkg/export"
	"github.com/goliatone/go-formsync/pkg/fieldpath"
)

// Option configures a Filler.
type Option func(*Filler)

// WithDriver swaps the prompt driver.
func WithDriver(driver Driver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Filler) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithSkipFilled only asks for controls that are still blank.
func WithSkipFilled(skip bool) Option {
	return func(f *Filler) {
		f.skipFilled = skip
	}
}

// Filler walks a form and asks for each control.
type Filler struct {
	driver     Driver
	logger     *zap.Logger
	skipFilled bool
}

// New returns a Filler using the survey driver by default.
func New(opts ...Option) *Filler {
	f := &Filler{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver(nil)
	}
	return f
}

// Fill prompts for every enabled, named control of form and returns the
// number of controls that changed. Checkbox and radio groups are asked once.
func (f *Filler) Fill(ctx context.Context, form *dom.Element) (int, error) {
	if form == nil || !form.Connected() {
		return 0, errors.New("prompt: form is not attached")
	}

	changed := 0
	asked := make(map[string]struct{})
	controls := form.Controls()
	for _, control := range controls {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		name := control.Name()
		if name == "" || control.Disabled() {
			continue
		}
		kind := control.Type()
		if skipType(kind) {
			continue
		}

		var (
			did bool
			err error
		)
		switch kind {
		case "checkbox", "radio":
			if _, ok := asked[name]; ok {
				continue
			}
			asked[name] = struct{}{}
			group := groupOf(controls, name, kind)
			if kind == "radio" {
				did, err = f.askRadio(ctx, name, group)
			} else {
				did, err = f.askCheckbox(ctx, name, group)
			}
		case "select":
			did, err = f.askSelect(ctx, control)
		default:
			did, err = f.askText(ctx, control)
		}
		if err != nil {
			return changed, err
		}
		if did {
			changed++
		}
	}
	f.logger.Debug("prompt: form filled", zap.Int("changed", changed))
	return changed, nil
}

func (f *Filler) askText(ctx context.Context, control *dom.Element) (bool, error) {
	current := control.Value()
	if f.skipFilled && strings.TrimSpace(current) != "" {
		return false, nil
	}
	cfg := InputConfig{
		Message: message(control, control.Name()),
		Default: current,
		Help:    control.Dataset("help"),
	}
	var (
		answer string
		err    error
	)
	if control.Tag() == "textarea" {
		answer, err = f.driver.TextArea(ctx, cfg)
	} else {
		answer, err = f.driver.Input(ctx, cfg)
	}
	if err != nil {
		return false, err
	}
	if answer == current {
		return false, nil
	}
	control.Input(answer)
	return true, nil
}

func (f *Filler) askSelect(ctx context.Context, control *dom.Element) (bool, error) {
	options := control.Options()
	if len(options) == 0 {
		return false, nil
	}
	labels := make([]string, len(options))
	var selected []int
	for i, opt := range options {
		labels[i] = optionLabel(opt.Label, opt.Value)
		if opt.Selected {
			selected = append(selected, i)
		}
	}
	cfg := SelectConfig{
		Message:      message(control, control.Name()),
		Options:      labels,
		DefaultIndex: -1,
		Help:         control.Dataset("help"),
	}

	if control.Multiple() {
		if f.skipFilled && len(selected) > 0 {
			return false, nil
		}
		cfg.Defaults = selected
		indices, err := f.driver.MultiSelect(ctx, cfg)
		if err != nil {
			return false, err
		}
		values := make([]string, 0, len(indices))
		for _, idx := range indices {
			if idx >= 0 && idx < len(options) {
				values = append(values, options[idx].Value)
			}
		}
		if equalStrings(values, control.SelectedValues()) {
			return false, nil
		}
		control.SetSelectedValues(values...)
		control.Dispatch(dom.EventChange)
		return true, nil
	}

	if f.skipFilled && len(selected) > 0 && options[selected[0]].Value != "" {
		return false, nil
	}
	if len(selected) > 0 {
		cfg.DefaultIndex = selected[0]
	}
	idx, err := f.driver.Select(ctx, cfg)
	if err != nil {
		return false, err
	}
	if idx < 0 || idx >= len(options) {
		_ = f.driver.Info(ctx, fmt.Sprintf("Invalid %s selection", control.Name()))
		return false, nil
	}
	value := options[idx].Value
	if value == control.Value() && len(selected) > 0 {
		return false, nil
	}
	control.SetValue(value)
	control.Dispatch(dom.EventChange)
	return true, nil
}

func (f *Filler) askRadio(ctx context.Context, name string, group []*dom.Element) (bool, error) {
	labels := make([]string, len(group))
	current := -1
	for i, radio := range group {
		labels[i] = optionLabel(radio.Label(), radio.Value())
		if radio.Checked() {
			current = i
		}
	}
	if f.skipFilled && current >= 0 {
		return false, nil
	}
	idx, err := f.driver.Select(ctx, SelectConfig{
		Message:      groupMessage(group, name),
		Options:      labels,
		DefaultIndex: current,
	})
	if err != nil {
		return false, err
	}
	if idx < 0 || idx >= len(group) || idx == current {
		return false, nil
	}
	group[idx].Toggle()
	return true, nil
}

func (f *Filler) askCheckbox(ctx context.Context, name string, group []*dom.Element) (bool, error) {
	if len(group) == 1 {
		box := group[0]
		checked := box.Checked()
		if f.skipFilled && checked {
			return false, nil
		}
		answer, err := f.driver.Confirm(ctx, ConfirmConfig{
			Message: message(box, name),
			Default: checked,
		})
		if err != nil {
			return false, err
		}
		if answer == checked {
			return false, nil
		}
		box.Toggle()
		return true, nil
	}

	labels := make([]string, len(group))
	var current []int
	for i, box := range group {
		labels[i] = optionLabel(box.Label(), box.Value())
		if box.Checked() {
			current = append(current, i)
		}
	}
	if f.skipFilled && len(current) > 0 {
		return false, nil
	}
	indices, err := f.driver.MultiSelect(ctx, SelectConfig{
		Message:      groupMessage(group, name),
		Options:      labels,
		DefaultIndex: -1,
		Defaults:     current,
	})
	if err != nil {
		return false, err
	}
	want := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		want[idx] = struct{}{}
	}
	changed := false
	for i, box := range group {
		_, on := want[i]
		if on != box.Checked() {
			box.Toggle()
			changed = true
		}
	}
	return changed, nil
}

func groupOf(controls []*dom.Element, name, kind string) []*dom.Element {
	var out []*dom.Element
	for _, control := range controls {
		if control.Name() == name && control.Type() == kind && !control.Disabled() {
			out = append(out, control)
		}
	}
	return out
}

// message prefers an explicit data-label, then the <label>, then a
// humanized last path segment.
func message(control *dom.Element, name string) string {
	if label := strings.TrimSpace(control.Dataset("label")); label != "" {
		return label
	}
	if label := control.Label(); label != "" {
		return label
	}
	return humanizeName(name)
}

func groupMessage(group []*dom.Element, name string) string {
	for _, control := range group {
		if label := strings.TrimSpace(control.Dataset("label")); label != "" {
			return label
		}
	}
	return humanizeName(name)
}

func humanizeName(name string) string {
	path, ok := fieldpath.Parse(name)
	if !ok {
		return name
	}
	segments := path.Segments()
	return export.Humanize(segments[len(segments)-1])
}

func optionLabel(label, value string) string {
	if strings.TrimSpace(label) != "" {
		return label
	}
	return value
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func skipType(kind string) bool {
	switch kind {
	case "button", "submit", "reset", "image", "file", "hidden":
		return true
	default:
		return false
	}
}
