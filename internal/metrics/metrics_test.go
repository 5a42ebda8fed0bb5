package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCountersAndHandler(t *testing.T) {
	c := New()
	c.Dispatched("autosave")
	c.Dispatched("autosave")
	c.Superseded("autosave")
	c.Failed("autosave")
	c.Cancelled("update_section_category")
	c.Mounted("Autosave")
	c.Mounted("Autosave")
	c.Destroyed("Autosave")
	c.Exported("pdf", nil)
	c.Exported("pdf", errors.New("boom"))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`formsync_dispatched_total{event="autosave"} 2`,
		`formsync_superseded_total{event="autosave"} 1`,
		`formsync_mounted_hooks{hook="Autosave"} 1`,
		`formsync_cancelled_total{event="update_section_category"} 1`,
		`formsync_exports_total{format="pdf",outcome="error"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}
