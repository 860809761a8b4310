package ui

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestShell_RenderIncludesDocumentURL(t *testing.T) {
	shell, err := NewShell()
	if err != nil {
		t.Fatalf("new shell: %v", err)
	}
	page, err := shell.Render("Demo API", "event catalog", "/asyncapi/demo.json")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(page)
	if !strings.Contains(html, `schemaUrl="/asyncapi/demo.json"`) {
		t.Fatalf("expected document url in page:\n%s", html)
	}
	if !strings.Contains(html, "<title>Demo API</title>") {
		t.Fatalf("expected title in page:\n%s", html)
	}
	if !strings.Contains(html, "event catalog") {
		t.Fatalf("expected description in page:\n%s", html)
	}
}

func TestShell_DescriptionIsSanitized(t *testing.T) {
	shell, err := NewShell()
	if err != nil {
		t.Fatalf("new shell: %v", err)
	}
	page, err := shell.Render("Demo", `hello <script>alert(1)</script><em>world</em>`, "/asyncapi/demo")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(page)
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Fatalf("script tag survived sanitization:\n%s", html)
	}
	// benign user markup survives
	if !strings.Contains(html, "<em>world</em>") {
		t.Fatalf("expected benign markup kept:\n%s", html)
	}
}

func TestShell_EmptyDescriptionOmitsParagraph(t *testing.T) {
	shell, err := NewShell()
	if err != nil {
		t.Fatalf("new shell: %v", err)
	}
	page, err := shell.Render("Demo", "", "/asyncapi/demo")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(page), "<p>") {
		t.Fatalf("expected no description paragraph:\n%s", page)
	}
}

func TestShell_Handler(t *testing.T) {
	shell, err := NewShell()
	if err != nil {
		t.Fatalf("new shell: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	shell.Handler("Demo", "", "/asyncapi/demo")(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", got)
	}
}
