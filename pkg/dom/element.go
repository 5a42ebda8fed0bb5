package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element wraps a node of the document tree. Elements are interned per
// document so pointer equality means node identity.
type Element struct {
	doc  *Document
	node *html.Node
}

// Document returns the owning document.
func (e *Element) Document() *Document {
	if e == nil {
		return nil
	}
	return e.doc
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string {
	if e == nil {
		return ""
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.node.Data
}

// Attr returns an attribute value and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	if e == nil {
		return "", false
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return lookupAttr(e.node, name)
}

// SetAttr sets or replaces an attribute.
func (e *Element) SetAttr(name, value string) {
	if e == nil {
		return
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	setAttr(e.node, name, value)
}

// RemoveAttr drops an attribute.
func (e *Element) RemoveAttr(name string) {
	if e == nil {
		return
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	removeAttr(e.node, name)
}

// ID returns the id attribute.
func (e *Element) ID() string {
	v, _ := e.Attr("id")
	return v
}

// Name returns the name attribute.
func (e *Element) Name() string {
	v, _ := e.Attr("name")
	return v
}

// Dataset returns a data-* attribute, e.g. Dataset("section-id").
func (e *Element) Dataset(key string) string {
	v, _ := e.Attr("data-" + key)
	return v
}

// Type returns the lower-cased input type. Inputs without a type are "text";
// other elements report their tag name.
func (e *Element) Type() string {
	if e == nil {
		return ""
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return controlType(e.node)
}

// Disabled reports the disabled attribute.
func (e *Element) Disabled() bool {
	_, ok := e.Attr("disabled")
	return ok
}

// SetDisabled toggles the disabled attribute.
func (e *Element) SetDisabled(disabled bool) {
	if disabled {
		e.SetAttr("disabled", "")
		return
	}
	e.RemoveAttr("disabled")
}

// Checked reports the checked state of checkboxes and radios.
func (e *Element) Checked() bool {
	_, ok := e.Attr("checked")
	return ok
}

// SetChecked updates the checked state. Checking a radio unchecks the other
// members of its group within the same form.
func (e *Element) SetChecked(checked bool) {
	if e == nil {
		return
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if !checked {
		removeAttr(e.node, "checked")
		return
	}
	setAttr(e.node, "checked", "")
	if controlType(e.node) != "radio" {
		return
	}
	name := attr(e.node, "name")
	scope := formOf(e.node)
	if scope == nil {
		scope = e.doc.root
	}
	walk(scope, func(n *html.Node) bool {
		if n != e.node && n.DataAtom == atom.Input && controlType(n) == "radio" && attr(n, "name") == name {
			removeAttr(n, "checked")
		}
		return true
	})
}

// Value returns the live control value: the value attribute for inputs, text
// content for textareas, the selected option's value for selects.
func (e *Element) Value() string {
	if e == nil {
		return ""
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	switch e.node.DataAtom {
	case atom.Textarea:
		return textContent(e.node)
	case atom.Select:
		values := selectedValues(e.node)
		if len(values) == 0 {
			return ""
		}
		return values[0]
	case atom.Option:
		return optionValue(e.node)
	default:
		return attr(e.node, "value")
	}
}

// SelectedValues returns every selected option value of a select. Single
// selects without an explicit selection report their first option.
func (e *Element) SelectedValues() []string {
	if e == nil {
		return nil
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	if e.node.DataAtom != atom.Select {
		return nil
	}
	return selectedValues(e.node)
}

// SelectedText returns the label of the selected option.
func (e *Element) SelectedText() string {
	if e == nil {
		return ""
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	if e.node.DataAtom != atom.Select {
		return ""
	}
	if opt := firstSelectedOption(e.node); opt != nil {
		return strings.TrimSpace(textContent(opt))
	}
	return ""
}

// SetValue updates the live value. For selects the matching option becomes
// the only selected one.
func (e *Element) SetValue(value string) {
	if e == nil {
		return
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	switch e.node.DataAtom {
	case atom.Textarea:
		setTextContent(e.node, value)
	case atom.Select:
		for _, opt := range options(e.node) {
			if optionValue(opt) == value {
				setAttr(opt, "selected", "")
			} else {
				removeAttr(opt, "selected")
			}
		}
	default:
		setAttr(e.node, "value", value)
	}
}

// SetSelectedValues selects every option whose value is listed.
func (e *Element) SetSelectedValues(values ...string) {
	if e == nil {
		return
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	want := make(map[string]struct{}, len(values))
	for _, v := range values {
		want[v] = struct{}{}
	}
	for _, opt := range options(e.node) {
		if _, ok := want[optionValue(opt)]; ok {
			setAttr(opt, "selected", "")
		} else {
			removeAttr(opt, "selected")
		}
	}
}

// Options returns the option labels and values of a select, in order.
func (e *Element) Options() []Option {
	if e == nil {
		return nil
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	var out []Option
	for _, opt := range options(e.node) {
		_, selected := lookupAttr(opt, "selected")
		out = append(out, Option{
			Value:    optionValue(opt),
			Label:    strings.TrimSpace(textContent(opt)),
			Selected: selected,
		})
	}
	return out
}

// Multiple reports whether a select accepts several values.
func (e *Element) Multiple() bool {
	_, ok := e.Attr("multiple")
	return ok
}

// Text returns the concatenated text content.
func (e *Element) Text() string {
	if e == nil {
		return ""
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return textContent(e.node)
}

// Label returns the text of the <label for=id> pointing at the element, or
// of the wrapping <label>.
func (e *Element) Label() string {
	if e == nil {
		return ""
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	for n := e.node.Parent; n != nil; n = n.Parent {
		if n.DataAtom == atom.Label {
			return strings.TrimSpace(textContent(n))
		}
	}
	id := attr(e.node, "id")
	if id == "" {
		return ""
	}
	var label string
	walk(e.doc.root, func(n *html.Node) bool {
		if n.DataAtom == atom.Label && attr(n, "for") == id {
			label = strings.TrimSpace(textContent(n))
			return false
		}
		return true
	})
	return label
}

// HasClass reports whether the class list contains name.
func (e *Element) HasClass(name string) bool {
	v, _ := e.Attr("class")
	for _, class := range strings.Fields(v) {
		if class == name {
			return true
		}
	}
	return false
}

// AddClass adds class names not already present.
func (e *Element) AddClass(names ...string) {
	e.updateClasses(func(set []string) []string {
		for _, name := range names {
			if !containsString(set, name) {
				set = append(set, name)
			}
		}
		return set
	})
}

// RemoveClass removes class names.
func (e *Element) RemoveClass(names ...string) {
	e.updateClasses(func(set []string) []string {
		out := set[:0]
		for _, class := range set {
			if !containsString(names, class) {
				out = append(out, class)
			}
		}
		return out
	})
}

func (e *Element) updateClasses(fn func([]string) []string) {
	if e == nil {
		return
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	classes := fn(strings.Fields(attr(e.node, "class")))
	if len(classes) == 0 {
		removeAttr(e.node, "class")
		return
	}
	setAttr(e.node, "class", strings.Join(classes, " "))
}

// Parent returns the parent element, or nil at the top or when detached.
func (e *Element) Parent() *Element {
	if e == nil {
		return nil
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return e.doc.wrap(p)
}

// Contains reports whether other is e or a descendant of e.
func (e *Element) Contains(other *Element) bool {
	if e == nil || other == nil || e.doc != other.doc {
		return false
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	for n := other.node; n != nil; n = n.Parent {
		if n == e.node {
			return true
		}
	}
	return false
}

// Connected reports whether the element is still attached to the document.
func (e *Element) Connected() bool {
	if e == nil {
		return false
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	for n := e.node; n != nil; n = n.Parent {
		if n == e.doc.root {
			return true
		}
	}
	return false
}

// Remove detaches the element from the tree. Its listeners stay registered
// until their remove funcs run, mirroring the browser.
func (e *Element) Remove() {
	if e == nil {
		return
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
}

// Find returns descendants whose tag matches, in document order. An empty
// tag matches every element.
func (e *Element) Find(tag string) []*Element {
	if e == nil {
		return nil
	}
	tag = strings.ToLower(tag)
	return e.doc.findAll(e.node, func(n *html.Node) bool {
		return tag == "" || n.Data == tag
	})
}

// FindByName returns descendants carrying name="name".
func (e *Element) FindByName(name string) []*Element {
	if e == nil {
		return nil
	}
	return e.doc.findAll(e.node, func(n *html.Node) bool {
		return attr(n, "name") == name
	})
}

// Controls returns the descendant input, textarea and select elements in
// document order.
func (e *Element) Controls() []*Element {
	if e == nil {
		return nil
	}
	return e.doc.findAll(e.node, func(n *html.Node) bool {
		switch n.DataAtom {
		case atom.Input, atom.Textarea, atom.Select:
			return true
		default:
			return false
		}
	})
}

// Closest returns the nearest ancestor-or-self with the given tag.
func (e *Element) Closest(tag string) *Element {
	if e == nil {
		return nil
	}
	tag = strings.ToLower(tag)
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for n := e.node; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.Data == tag {
			return e.doc.wrap(n)
		}
	}
	return nil
}

// AddEventListener registers fn for eventType on this element.
func (e *Element) AddEventListener(eventType string, fn Listener) (remove func()) {
	if e == nil {
		return func() {}
	}
	return e.doc.addListener(e.node, eventType, fn)
}

// Dispatch fires an event at the element; it bubbles to the document.
func (e *Element) Dispatch(eventType string) {
	if e == nil {
		return
	}
	e.doc.dispatch(e, eventType)
}

// Input sets the value and fires an input event, like a user typing.
func (e *Element) Input(value string) {
	e.SetValue(value)
	e.Dispatch(EventInput)
}

// Toggle flips a checkbox (or checks a radio) and fires a change event.
func (e *Element) Toggle() {
	if e.Type() == "radio" {
		e.SetChecked(true)
	} else {
		e.SetChecked(!e.Checked())
	}
	e.Dispatch(EventChange)
}

// Click fires a click event.
func (e *Element) Click() {
	e.Dispatch(EventClick)
}

// Option is a select option snapshot.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

func controlType(n *html.Node) string {
	if n.DataAtom != atom.Input {
		return n.Data
	}
	t := strings.ToLower(strings.TrimSpace(attr(n, "type")))
	if t == "" {
		return "text"
	}
	return t
}

func formOf(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.DataAtom == atom.Form {
			return p
		}
	}
	return nil
}

func options(sel *html.Node) []*html.Node {
	var out []*html.Node
	walk(sel, func(n *html.Node) bool {
		if n.DataAtom == atom.Option {
			out = append(out, n)
		}
		return true
	})
	return out
}

func optionValue(opt *html.Node) string {
	if v, ok := lookupAttr(opt, "value"); ok {
		return v
	}
	return strings.TrimSpace(textContent(opt))
}

func firstSelectedOption(sel *html.Node) *html.Node {
	opts := options(sel)
	for _, opt := range opts {
		if _, ok := lookupAttr(opt, "selected"); ok {
			return opt
		}
	}
	if _, multiple := lookupAttr(sel, "multiple"); multiple || len(opts) == 0 {
		return nil
	}
	return opts[0]
}

func selectedValues(sel *html.Node) []string {
	var out []string
	for _, opt := range options(sel) {
		if _, ok := lookupAttr(opt, "selected"); ok {
			out = append(out, optionValue(opt))
		}
	}
	if len(out) > 0 {
		return out
	}
	if first := firstSelectedOption(sel); first != nil {
		return []string{optionValue(first)}
	}
	return nil
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
