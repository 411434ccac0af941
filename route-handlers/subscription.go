package routehandlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vikiai/newsletter/subscription"
	"github.com/vikiai/newsletter/webutil"
)

const (
	msgSubscribed        = "Subscribed successfully!"
	msgAlreadySubscribed = "This email is already subscribed."
	msgNotSubscribed     = "Email not found in subscribers list."
	msgUnsubscribedFmt   = "The email %s has been unsubscribed and deleted."
	msgSeeded            = "Test email inserted"
)

type SubscriptionHandler struct {
	Service *subscription.Service
}

func NewSubscriptionHandler(service *subscription.Service) *SubscriptionHandler {
	return &SubscriptionHandler{Service: service}
}

func (h *SubscriptionHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) error {
	req, err := webutil.DecodeEmailRequest(r)
	if err != nil {
		return err
	}

	sub, err := h.Service.Subscribe(r.Context(), req.Email)
	if err != nil {
		return mapServiceError(err)
	}

	webutil.RespondWithJSON(w, http.StatusCreated, webutil.MessageResponse{
		Message: msgSubscribed,
		Data:    sub,
	})
	return nil
}

func (h *SubscriptionHandler) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) error {
	req, err := webutil.DecodeEmailRequest(r)
	if err != nil {
		return err
	}

	if _, err := h.Service.Unsubscribe(r.Context(), req.Email); err != nil {
		return mapServiceError(err)
	}

	webutil.RespondWithMessage(w, http.StatusOK, fmt.Sprintf(msgUnsubscribedFmt, req.Email))
	return nil
}

// HandleSeed inserts the fixed test subscriber. Only mounted outside
// production.
func (h *SubscriptionHandler) HandleSeed(w http.ResponseWriter, r *http.Request) error {
	sub, err := h.Service.Seed(r.Context())
	if err != nil {
		return webutil.ErrInternalServerWrap(err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, webutil.MessageResponse{
		Message: msgSeeded,
		Data:    sub,
	})
	return nil
}

func mapServiceError(err error) *webutil.HTTPError {
	switch {
	case errors.Is(err, subscription.ErrInvalidInput):
		return webutil.ErrBadRequestWrap(webutil.MsgEmailRequired, err)
	case errors.Is(err, subscription.ErrAlreadySubscribed):
		return webutil.ErrConflictWrap(msgAlreadySubscribed, err)
	case errors.Is(err, subscription.ErrNotFound):
		return webutil.ErrNotFoundWrap(msgNotSubscribed, err)
	default:
		return webutil.ErrInternalServerWrap(err)
	}
}
