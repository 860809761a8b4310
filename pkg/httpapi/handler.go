// Package httpapi serves generated documents over HTTP. The route carries a
// {documentName} variable whose optional extension selects the encoding:
// .yaml/.yml render YAML, anything else JSON.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/vitalvas/kasper/mux"

	"github.com/goliatone/go-asyncapi/pkg/config"
	"github.com/goliatone/go-asyncapi/pkg/serializer"
)

// Source renders a named document; *asyncapi.Provider satisfies it.
type Source interface {
	Generate(ctx context.Context, documentName string, format serializer.Format) ([]byte, error)
}

// Option configures a Handler.
type Option func(*Handler)

// WithPathPrefix overrides the mount prefix (default "/asyncapi").
func WithPathPrefix(prefix string) Option {
	return func(h *Handler) {
		trimmed := strings.TrimRight(strings.TrimSpace(prefix), "/")
		if trimmed != "" {
			h.prefix = trimmed
		}
	}
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(h *Handler) {
		h.log = log
	}
}

// Handler is the document retrieval endpoint.
type Handler struct {
	source Source
	prefix string
	log    zerolog.Logger
}

// New constructs a Handler over a document source.
func New(source Source, opts ...Option) *Handler {
	h := &Handler{
		source: source,
		prefix: "/asyncapi",
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Mount registers the document route on r.
func (h *Handler) Mount(r *mux.Router) {
	r.HandleFunc(h.prefix+"/{documentName}", h.document).Methods(http.MethodGet)
}

// Router returns a standalone router with the handler mounted, for hosts
// that do not share one.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	h.Mount(r)
	return r
}

func (h *Handler) document(w http.ResponseWriter, r *http.Request) {
	raw, _ := mux.VarGet(r, "documentName")
	name, format := splitName(raw)

	data, err := h.source.Generate(r.Context(), name, format)
	switch {
	case err == nil:
	case errors.Is(err, config.ErrDocumentNotFound):
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("asyncapi document " + name + " not found\n"))
		return
	case r.Context().Err() != nil:
		// client went away mid-generation; abandon silently
		return
	default:
		h.log.Error().Err(err).Str("document", name).Msg("document generation failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", serializer.ContentType(format))
	if _, err := w.Write(data); err != nil {
		// mid-write aborts are the host's concern; nothing to roll back
		h.log.Debug().Err(err).Str("document", name).Msg("response write aborted")
	}
}

// splitName separates the optional encoding extension from the document
// name and lowercases the name; matching is case-insensitive throughout.
func splitName(raw string) (string, serializer.Format) {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasSuffix(name, ".yaml"):
		return strings.TrimSuffix(name, ".yaml"), serializer.FormatYAML
	case strings.HasSuffix(name, ".yml"):
		return strings.TrimSuffix(name, ".yml"), serializer.FormatYAML
	case strings.HasSuffix(name, ".json"):
		return strings.TrimSuffix(name, ".json"), serializer.FormatJSON
	default:
		return name, serializer.FormatJSON
	}
}
