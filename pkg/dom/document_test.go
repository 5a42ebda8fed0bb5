package dom_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsync/pkg/dom"
)

const page = `<!doctype html><html><body>
<div id="wrap" class="card open">
  <form id="f" phx-hook="Autosave">
    <label for="name">Nama</label>
    <input id="name" name="soal_selidik[nama_sistem]" value="Sistem A">
    <textarea name="soal_selidik[catatan]">nota</textarea>
    <select name="soal_selidik[jenis]">
      <option value="web">Web</option>
      <option value="mobile" selected>Mobile</option>
    </select>
    <select name="tags[]" multiple>
      <option value="a" selected>A</option>
      <option value="b">B</option>
      <option value="c" selected>C</option>
    </select>
    <input type="radio" name="r" value="1" checked>
    <input type="radio" name="r" value="2">
  </form>
</div>
</body></html>`

func TestControlValues(t *testing.T) {
	doc := dom.MustParseString(page)
	form := doc.ByID("f")
	if form == nil {
		t.Fatalf("expected form")
	}
	controls := form.Controls()
	if len(controls) != 6 {
		t.Fatalf("expected 6 controls, got %d", len(controls))
	}

	got := []string{controls[0].Value(), controls[1].Value(), controls[2].Value()}
	want := []string{"Sistem A", "nota", "mobile"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "c"}, controls[3].SelectedValues()); diff != "" {
		t.Fatalf("multi select mismatch (-want +got):\n%s", diff)
	}
	if controls[2].SelectedText() != "Mobile" {
		t.Fatalf("expected selected label Mobile, got %q", controls[2].SelectedText())
	}
	if controls[0].Label() != "Nama" {
		t.Fatalf("expected label Nama, got %q", controls[0].Label())
	}
	if controls[0].Type() != "text" || controls[4].Type() != "radio" {
		t.Fatalf("unexpected types %q %q", controls[0].Type(), controls[4].Type())
	}
}

func TestSetValueAndRender(t *testing.T) {
	doc := dom.MustParseString(page)
	form := doc.ByID("f")
	controls := form.Controls()

	controls[1].SetValue("baru")
	controls[2].SetValue("web")
	controls[5].SetChecked(true)

	if controls[1].Value() != "baru" {
		t.Fatalf("textarea not updated")
	}
	if controls[2].Value() != "web" {
		t.Fatalf("select not updated, got %q", controls[2].Value())
	}
	if controls[4].Checked() {
		t.Fatalf("checking a radio should uncheck its group")
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "baru") {
		t.Fatalf("render missing edited value: %s", buf.String())
	}
}

func TestClasses(t *testing.T) {
	doc := dom.MustParseString(page)
	wrap := doc.ByID("wrap")

	wrap.AddClass("open", "visible")
	wrap.RemoveClass("card")

	class, _ := wrap.Attr("class")
	if class != "open visible" {
		t.Fatalf("unexpected class list %q", class)
	}
	if !wrap.HasClass("visible") || wrap.HasClass("card") {
		t.Fatalf("HasClass mismatch")
	}
}

func TestEventsBubbleAndRemove(t *testing.T) {
	doc := dom.MustParseString(page)
	form := doc.ByID("f")
	input := doc.ByID("name")

	var seen []string
	removeForm := form.AddEventListener(dom.EventInput, func(evt dom.Event) {
		seen = append(seen, "form:"+evt.Target.ID())
	})
	removeDoc := doc.AddEventListener(dom.EventInput, func(evt dom.Event) {
		seen = append(seen, "doc")
	})
	if doc.ListenerCount() != 2 {
		t.Fatalf("expected 2 listeners, got %d", doc.ListenerCount())
	}

	input.Input("x")
	if diff := cmp.Diff([]string{"form:name", "doc"}, seen); diff != "" {
		t.Fatalf("bubble order mismatch (-want +got):\n%s", diff)
	}

	removeForm()
	removeDoc()
	removeDoc()
	if doc.ListenerCount() != 0 {
		t.Fatalf("expected listeners removed, got %d", doc.ListenerCount())
	}
	input.Input("y")
	if len(seen) != 2 {
		t.Fatalf("removed listeners fired: %v", seen)
	}
}

func TestRemoveDisconnects(t *testing.T) {
	doc := dom.MustParseString(page)
	form := doc.ByID("f")
	input := doc.ByID("name")
	if !form.Contains(input) || !input.Connected() {
		t.Fatalf("expected connected input inside form")
	}

	form.Remove()
	if form.Connected() || input.Connected() {
		t.Fatalf("expected detached subtree")
	}
	if doc.ByID("f") != nil {
		t.Fatalf("detached form should not be found")
	}
	if doc.FirstForm() != nil {
		t.Fatalf("expected no forms after removal")
	}
}
