package httpx

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	ternadmin "github.com/ternsecure/tern-admin"
	corefuncs "github.com/ternsecure/tern-admin/internal/http/templates/core"
)

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	t      *template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Filesystem containing templates (required)
	Logger     *slog.Logger // Logger for template errors (optional)
}

// NewTemplateRenderer parses every template in cfg.TemplateFS.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var t *template.Template
	funcs := corefuncs.Funcs(corefuncs.Deps{Template: &t, ContentTemplateFor: ContentTemplateFor})
	t, err := template.New("root").Funcs(funcs).ParseFS(cfg.TemplateFS, "*.tmpl", "pages/*.tmpl", "partials/*.tmpl")
	if err != nil {
		logger.Error("template parsing failed", slog.Any("error", err), slog.String("phase", "initialization"))
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &TemplateRenderer{t: t, logger: logger}, nil
}

// DefaultTemplateFS returns the embedded templates, or the on-disk copy in dev mode so edits
// show without a rebuild.
func DefaultTemplateFS(devMode bool) (fs.FS, error) {
	if devMode {
		if info, err := os.Stat(TemplatePathFromRoot); err == nil && info.IsDir() {
			return os.DirFS(TemplatePathFromRoot), nil
		}
	}
	sub, err := fs.Sub(ternadmin.TemplateFS, TemplatePathFromRoot)
	if err != nil {
		return nil, fmt.Errorf("embedded templates: %w", err)
	}
	return sub, nil
}

// RenderFull renders the admin layout with the page's content section.
func (r *TemplateRenderer) RenderFull(w http.ResponseWriter, status int, data any) error {
	return r.renderTemplate(w, renderParams{name: "layout", status: status, data: data})
}

// RenderPage renders a standalone page such as sign-in.
func (r *TemplateRenderer) RenderPage(w http.ResponseWriter, name string, data any) error {
	return r.renderTemplate(w, renderParams{name: name, status: http.StatusOK, data: data})
}

// RenderError renders the error page with status.
func (r *TemplateRenderer) RenderError(w http.ResponseWriter, status int, data any) error {
	return r.renderTemplate(w, renderParams{name: "error-layout", status: status, data: data})
}

type renderParams struct {
	name   string
	status int
	data   any
}

func (r *TemplateRenderer) renderTemplate(w http.ResponseWriter, p renderParams) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, p.name, p.data); err != nil {
		r.logger.Error("template execution failed", slog.String("template", p.name), slog.Any("error", err))
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(p.status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template", slog.String("template", p.name), slog.Any("error", err))
		return err
	}
	return nil
}
