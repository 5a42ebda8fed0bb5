package hooks_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsync/pkg/dispatch"
	"github.com/goliatone/go-formsync/pkg/hooks"
)

const sectionMarkup = `<html><body>
<select id="kategori" data-section-id="12" phx-hook="UpdateSectionCategory">
  <option value="biasa">Biasa</option>
  <option value="kritikal">Kritikal</option>
</select>
</body></html>`

func TestSectionCategoryPushesLatestValue(t *testing.T) {
	f := newFixture(t)
	doc := mustDoc(t, sectionMarkup)
	if _, err := f.session.MountAll(context.Background(), doc); err != nil {
		t.Fatalf("mount: %v", err)
	}

	sel := doc.ByID("kategori")
	sel.Input("kritikal")
	f.clock.Advance(150 * time.Millisecond)
	sel.Input("biasa")
	f.clock.Advance(150 * time.Millisecond)
	sel.Input("kritikal")
	f.clock.Advance(300 * time.Millisecond)

	msgs := f.recorder.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected one push, got %d", len(msgs))
	}
	if msgs[0].Event != hooks.SectionCategoryEvent {
		t.Fatalf("unexpected event %q", msgs[0].Event)
	}
	want := map[string]any{"section_id": "12", "category": "kritikal"}
	if diff := cmp.Diff(want, msgs[0].Payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestSectionCategoryUpdatedRestartsPending(t *testing.T) {
	f := newFixture(t)
	doc := mustDoc(t, sectionMarkup)
	ids, err := f.session.MountAll(context.Background(), doc)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	hook, _ := f.session.Hook(ids[0])
	section := hook.(*hooks.SectionCategory)

	sel := doc.ByID("kategori")
	sel.Input("kritikal")
	f.clock.Advance(200 * time.Millisecond)

	sel.SetAttr("data-section-id", "13")
	if err := f.session.Update(context.Background(), ids[0]); err != nil {
		t.Fatalf("update: %v", err)
	}
	if section.State() != dispatch.StatePending {
		t.Fatalf("expected pending after update, got %s", section.State())
	}
	f.clock.Advance(200 * time.Millisecond)
	if f.recorder.Len() != 0 {
		t.Fatal("update should restart the quiet period")
	}
	f.clock.Advance(100 * time.Millisecond)

	msg, ok := f.recorder.Last()
	if !ok || msg.Payload["section_id"] != "13" {
		t.Fatalf("expected push for section 13, got %+v", msg)
	}
	if doc.ListenerCount() != 2 {
		t.Fatalf("update must not stack listeners, have %d", doc.ListenerCount())
	}
}

func TestSectionCategoryDestroyedCancels(t *testing.T) {
	f := newFixture(t)
	doc := mustDoc(t, sectionMarkup)
	ids, err := f.session.MountAll(context.Background(), doc)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	doc.ByID("kategori").Input("kritikal")
	if err := f.session.Destroy(ids[0]); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	f.clock.Advance(time.Second)
	if f.recorder.Len() != 0 {
		t.Fatalf("expected no push after destroy, got %d", f.recorder.Len())
	}
}
