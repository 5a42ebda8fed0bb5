package phoenix

import (
	"strings"

	"github.com/goliatone/go-formsync/pkg/dom"
)

// CSRFToken finds the token a LiveSocket would send as _csrf_token: the
// <meta name="csrf-token"> content, falling back to a hidden _csrf_token
// input.
func CSRFToken(doc *dom.Document) string {
	if doc == nil {
		return ""
	}
	for _, meta := range doc.WithAttr("name") {
		if meta.Tag() != "meta" {
			continue
		}
		if name, _ := meta.Attr("name"); strings.EqualFold(name, "csrf-token") {
			content, _ := meta.Attr("content")
			return strings.TrimSpace(content)
		}
	}
	for _, el := range doc.WithAttr("name") {
		if el.Tag() == "input" && el.Name() == csrfParam {
			return strings.TrimSpace(el.Value())
		}
	}
	return ""
}

// Topic derives the LiveView topic from the root element id, which Phoenix
// renders as data-phx-main / id="phx-...".
func Topic(doc *dom.Document) string {
	if doc == nil {
		return ""
	}
	for _, el := range doc.WithAttr("data-phx-main") {
		if id := el.ID(); id != "" {
			return "lv:" + id
		}
	}
	for _, el := range doc.WithAttr("data-phx-session") {
		if id := el.ID(); id != "" {
			return "lv:" + id
		}
	}
	return ""
}
