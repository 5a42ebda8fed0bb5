package hooks_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsync/pkg/dispatch"
	"github.com/goliatone/go-formsync/pkg/dom"
	"github.com/goliatone/go-formsync/pkg/hooks"
)

const questionnaireForm = `<html><body>
<form id="soal" data-prefix="soal_selidik">
  <input name="soal_selidik[nama_sistem]" value="eTanah">
  <input name="soal_selidik[fr][1][perkara]" value="Log masuk">
  <label><input type="checkbox" name="soal_selidik[fr][1][peranan][]" value="admin" checked>Admin</label>
  <label><input type="checkbox" name="soal_selidik[fr][1][peranan][]" value="staf">Staf</label>
  <input name="lain" value="abaikan">
</form>
</body></html>`

func mountAutosave(t *testing.T, f *fixture, doc *dom.Document, id string) (string, *hooks.Autosave) {
	t.Helper()
	instance, err := f.session.Mount(context.Background(), hooks.NameAutosave, doc.ByID(id))
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	hook, err := f.session.Hook(instance)
	if err != nil {
		t.Fatalf("hook: %v", err)
	}
	return instance, hook.(*hooks.Autosave)
}

func TestAutosaveDebouncesBurst(t *testing.T) {
	f := newFixture(t)
	doc := mustDoc(t, questionnaireForm)
	_, hook := mountAutosave(t, f, doc, "soal")

	name := doc.ByID("soal").FindByName("soal_selidik[nama_sistem]")[0]
	for _, v := range []string{"e", "eT", "eTanah Baru"} {
		name.Input(v)
		f.clock.Advance(100 * time.Millisecond)
	}
	if hook.State() != dispatch.StatePending {
		t.Fatalf("expected pending state, got %s", hook.State())
	}
	if f.recorder.Len() != 0 {
		t.Fatalf("nothing should be sent inside the quiet period, got %d", f.recorder.Len())
	}

	f.clock.Advance(200 * time.Millisecond)
	msg, ok := f.recorder.Last()
	if !ok || f.recorder.Len() != 1 {
		t.Fatalf("expected exactly one message, got %d", f.recorder.Len())
	}
	if msg.Event != dispatch.DefaultEvent {
		t.Fatalf("unexpected event %q", msg.Event)
	}
	want := map[string]any{
		"nama_sistem": "eTanah Baru",
		"fr": map[string]any{
			"1": map[string]any{
				"perkara": "Log masuk",
				"peranan": []any{"admin"},
			},
		},
	}
	if diff := cmp.Diff(want, msg.Payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if hook.State() != dispatch.StateIdle {
		t.Fatalf("expected idle after emission, got %s", hook.State())
	}
}

func TestAutosaveBlurSendsImmediately(t *testing.T) {
	f := newFixture(t)
	doc := mustDoc(t, questionnaireForm)
	mountAutosave(t, f, doc, "soal")

	staf := doc.ByID("soal").FindByName("soal_selidik[fr][1][peranan][]")[1]
	staf.Toggle()
	staf.Dispatch(dom.EventBlur)

	if f.recorder.Len() != 1 {
		t.Fatalf("expected blur to flush, got %d messages", f.recorder.Len())
	}
	msg, _ := f.recorder.Last()
	fr := msg.Payload["fr"].(map[string]any)["1"].(map[string]any)
	if diff := cmp.Diff([]any{"admin", "staf"}, fr["peranan"]); diff != "" {
		t.Fatalf("checkbox group mismatch (-want +got):\n%s", diff)
	}

	f.clock.Advance(time.Second)
	if f.recorder.Len() != 1 {
		t.Fatalf("flushed emission must not fire again, got %d", f.recorder.Len())
	}
}

func TestAutosaveDestroyCancelsPending(t *testing.T) {
	f := newFixture(t)
	doc := mustDoc(t, questionnaireForm)
	instance, _ := mountAutosave(t, f, doc, "soal")

	doc.ByID("soal").Controls()[0].Input("x")
	if err := f.session.Destroy(instance); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	f.clock.Advance(time.Second)
	doc.ByID("soal").Controls()[0].Input("y")
	f.clock.Advance(time.Second)

	if f.recorder.Len() != 0 {
		t.Fatalf("expected no sends after destroy, got %d", f.recorder.Len())
	}
	_, _, cancelled, _ := f.metrics.Snapshot()
	if cancelled != 1 {
		t.Fatalf("expected one cancelled emission, got %d", cancelled)
	}
}

func TestAutosaveElementOverrides(t *testing.T) {
	f := newFixture(t, hooks.WithPrefix("ignored"))
	doc := mustDoc(t, `<html><body>
<form id="f"><input name="a[b]" value="1"></form>
<div id="hook" data-form="f" data-event="save_draft" data-quiet="1s" data-prefix="a"></div>
</body></html>`)
	mountAutosave(t, f, doc, "hook")

	doc.ByID("f").Controls()[0].Input("2")
	f.clock.Advance(999 * time.Millisecond)
	if f.recorder.Len() != 0 {
		t.Fatal("data-quiet should extend the quiet period")
	}
	f.clock.Advance(time.Millisecond)

	msg, ok := f.recorder.Last()
	if !ok || msg.Event != "save_draft" {
		t.Fatalf("expected save_draft event, got %+v", msg)
	}
	if diff := cmp.Diff(map[string]any{"b": "2"}, msg.Payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestAutosaveUpdatedFollowsReplacedForm(t *testing.T) {
	f := newFixture(t)
	doc := mustDoc(t, `<html><body>
<form id="old"><input name="v" value="old"></form>
<form id="new"><input name="v" value="new"></form>
<div id="hook" data-form="old"></div>
</body></html>`)
	instance, hook := mountAutosave(t, f, doc, "hook")

	doc.ByID("hook").SetAttr("data-form", "new")
	if err := f.session.Update(context.Background(), instance); err != nil {
		t.Fatalf("update: %v", err)
	}

	doc.ByID("old").Controls()[0].Input("ignored")
	f.clock.Advance(time.Second)
	if f.recorder.Len() != 0 {
		t.Fatal("old form must be detached after update")
	}
	if diff := cmp.Diff(map[string]any{"v": "new"}, hook.Collect().Map()); diff != "" {
		t.Fatalf("collect mismatch (-want +got):\n%s", diff)
	}
}

func TestAutosaveWithoutFormIsInert(t *testing.T) {
	f := newFixture(t)
	doc := mustDoc(t, `<div id="lonely"></div>`)
	_, hook := mountAutosave(t, f, doc, "lonely")
	if hook.Collect().Len() != 0 {
		t.Fatal("expected empty snapshot without a form")
	}
}
