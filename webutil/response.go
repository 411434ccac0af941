package webutil

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/vikiai/newsletter/logging"
)

// MessageResponse is the body shape shared by every API answer.
type MessageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func RespondWithMessage(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, MessageResponse{Message: message})
}

func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set(HeaderContentType, ContentTypeJSONUTF8)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Server error"}`))
		return
	}

	w.Header().Set(HeaderContentType, ContentTypeJSONUTF8)
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// HasResponseWriterSentHeader reports whether a status line has already gone
// out. It needs the writer to be wrapped by chi's WrapResponseWriter.
func HasResponseWriterSentHeader(w http.ResponseWriter) bool {
	if sw, ok := w.(interface{ Status() int }); ok {
		return sw.Status() != 0
	}
	return false
}
