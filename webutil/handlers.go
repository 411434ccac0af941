package webutil

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/vikiai/newsletter/logging"
)

// AppHandler represents a handler function that returns an error.
type AppHandler func(w http.ResponseWriter, r *http.Request) error

// MakeHandler adapts an AppHandler to the standard http.HandlerFunc signature.
// A returned *HTTPError is written as {message, error}; anything else becomes a
// 500 carrying the error text.
func MakeHandler(handler AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ww, ok := w.(middleware.WrapResponseWriter)
		if !ok {
			ww = middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		}

		err := handler(ww, r)
		if err == nil {
			return
		}

		var httpErr *HTTPError
		if !errors.As(err, &httpErr) {
			httpErr = ErrInternalServerWrap(err)
		}

		log := logging.Ctx(r.Context())
		event := log.Warn()
		if httpErr.Code >= http.StatusInternalServerError {
			event = log.Error()
		}
		if cause := errors.Unwrap(httpErr); cause != nil && cause.Error() != httpErr.Message {
			event = event.AnErr("cause", cause)
		}
		event.
			Int("code", httpErr.Code).
			Str("msg", httpErr.Message).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg("Error response")

		if HasResponseWriterSentHeader(ww) {
			log.Warn().
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Err(err).
				Msg("Handler returned error after writing response header")
			return
		}

		RespondWithJSON(ww, httpErr.Code, MessageResponse{
			Message: httpErr.Message,
			Error:   httpErr.Detail,
		})
	}
}
