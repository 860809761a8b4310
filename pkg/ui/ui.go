// Package ui serves the HTML shell that embeds a document viewer pointed at
// the retrieval endpoint. The shell is a single template; descriptions are
// sanitized before they reach the page.
package ui

import (
	"embed"
	"fmt"
	"net/http"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

//go:embed shell.html
var assets embed.FS

// Shell renders the viewer page.
type Shell struct {
	tpl    *pongo2.Template
	policy *bluemonday.Policy
}

// NewShell loads the embedded shell template.
func NewShell() (*Shell, error) {
	set := pongo2.NewSet("asyncapi-ui", pongo2.NewFSLoader(assets))
	tpl, err := set.FromFile("shell.html")
	if err != nil {
		return nil, fmt.Errorf("ui: load shell template: %w", err)
	}
	return &Shell{
		tpl:    tpl,
		policy: bluemonday.UGCPolicy(),
	}, nil
}

// Render produces the shell page for a document. documentURL is the
// retrieval endpoint URL the embedded viewer loads; description may contain
// user-authored markup and is sanitized.
func (s *Shell) Render(title, description, documentURL string) ([]byte, error) {
	out, err := s.tpl.ExecuteBytes(pongo2.Context{
		"title":        title,
		"description":  s.policy.Sanitize(description),
		"document_url": documentURL,
	})
	if err != nil {
		return nil, fmt.Errorf("ui: render shell: %w", err)
	}
	return out, nil
}

// Handler serves the rendered shell for one document.
func (s *Shell) Handler(title, description, documentURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := s.Render(title, description, documentURL)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}
}
