package routehandlers

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/vikiai/newsletter/client"
	"github.com/vikiai/newsletter/logging"
	"github.com/vikiai/newsletter/webutil"
	"github.com/vikiai/newsletter/widget"
)

const formFieldEmail = "email"

// API is what the pages submit to: ServiceAPI in process, or client.Client
// when the JSON API runs elsewhere.
type API interface {
	Subscribe(ctx context.Context, email string) (client.Response, error)
	Unsubscribe(ctx context.Context, email string) (client.Response, error)
}

// PageHandler serves the widget pages and their form posts.
type PageHandler struct {
	API      API
	Renderer *widget.Renderer
}

func NewPageHandler(api API, renderer *widget.Renderer) *PageHandler {
	return &PageHandler{API: api, Renderer: renderer}
}

func (h *PageHandler) HandleSubscribePage(w http.ResponseWriter, r *http.Request) error {
	return h.writeSubscribe(w, &widget.SubscribeForm{})
}

func (h *PageHandler) HandleSubscribeForm(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return webutil.ErrBadRequestWrap(webutil.MsgInvalidPayload, err)
	}

	form := &widget.SubscribeForm{}
	form.Begin(r.PostForm.Get(formFieldEmail))

	resp, err := h.API.Subscribe(submitContext(r), form.Email)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Subscribe form submission failed")
		form.Fail(err)
	} else {
		form.Resolve(widget.Outcome{OK: resp.OK(), Message: resp.Message})
	}
	return h.writeSubscribe(w, form)
}

// HandleUnsubscribePage renders the initial card. An email query parameter
// prefills the input.
func (h *PageHandler) HandleUnsubscribePage(w http.ResponseWriter, r *http.Request) error {
	form := &widget.UnsubscribeForm{Email: r.URL.Query().Get(formFieldEmail)}
	return h.writeUnsubscribe(w, form)
}

func (h *PageHandler) HandleUnsubscribeForm(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return webutil.ErrBadRequestWrap(webutil.MsgInvalidPayload, err)
	}

	form := &widget.UnsubscribeForm{}
	send, err := form.Begin(r.PostForm.Get(formFieldEmail))
	if err != nil {
		return fmt.Errorf("failed to start unsubscribe: %w", err)
	}
	if send {
		resp, err := h.API.Unsubscribe(submitContext(r), form.Email)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Unsubscribe form submission failed")
			form.Fail(err)
		} else {
			form.Resolve(widget.Outcome{OK: resp.OK(), Message: resp.Message})
		}
	}
	return h.writeUnsubscribe(w, form)
}

// submitContext carries the visitor's address so a remote API rate limits
// per visitor instead of per page server.
func submitContext(r *http.Request) context.Context {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return client.ContextWithClientIP(r.Context(), ip)
}

func (h *PageHandler) writeUnsubscribe(w http.ResponseWriter, form *widget.UnsubscribeForm) error {
	var buf bytes.Buffer
	if err := h.Renderer.Unsubscribe(&buf, form); err != nil {
		return fmt.Errorf("failed to render unsubscribe page: %w", err)
	}
	writeHTML(w, &buf)
	return nil
}

func (h *PageHandler) writeSubscribe(w http.ResponseWriter, form *widget.SubscribeForm) error {
	var buf bytes.Buffer
	if err := h.Renderer.Subscribe(&buf, form); err != nil {
		return fmt.Errorf("failed to render subscribe page: %w", err)
	}
	writeHTML(w, &buf)
	return nil
}

func writeHTML(w http.ResponseWriter, buf *bytes.Buffer) {
	w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeHTMLUTF8)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
