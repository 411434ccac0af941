package widget

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	titleUnsubscribe = "Unsubscribe"
	titleSubscribe   = "Subscribe"
)

type page struct {
	Title string
	Body  template.HTML
}

// Renderer writes the widget pages.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse widget templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// MustNewRenderer is NewRenderer for package-level setup; the templates are
// embedded so a failure is a build defect.
func MustNewRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Unsubscribe renders the card matching f.Status.
func (r *Renderer) Unsubscribe(w io.Writer, f *UnsubscribeForm) error {
	var card string
	switch f.Status {
	case StatusInitial:
		card = "unsubscribe_initial"
	case StatusLoading:
		card = "unsubscribe_loading"
	case StatusLoaded:
		card = "unsubscribe_loaded"
	default:
		return fmt.Errorf("widget: cannot render status %s", f.Status)
	}
	return r.renderPage(w, titleUnsubscribe, card, f)
}

func (r *Renderer) Subscribe(w io.Writer, f *SubscribeForm) error {
	return r.renderPage(w, titleSubscribe, "subscribe", f)
}

func (r *Renderer) renderPage(w io.Writer, title, name string, data any) error {
	var body bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&body, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	// body was produced by html/template and is already escaped.
	return r.tmpl.ExecuteTemplate(w, "layout", page{Title: title, Body: template.HTML(body.String())})
}
