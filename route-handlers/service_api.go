package routehandlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/vikiai/newsletter/client"
	"github.com/vikiai/newsletter/subscription"
	"github.com/vikiai/newsletter/webutil"
)

// ServiceAPI answers page submissions from the subscription service in
// process. Status codes and messages are the ones the JSON API sends.
type ServiceAPI struct {
	Service *subscription.Service
}

func NewServiceAPI(service *subscription.Service) *ServiceAPI {
	return &ServiceAPI{Service: service}
}

func (a *ServiceAPI) Subscribe(ctx context.Context, email string) (client.Response, error) {
	email = strings.TrimSpace(email)
	if err := webutil.ValidateEmailRequest(webutil.EmailRequest{Email: email}); err != nil {
		return responseFor(err), nil
	}

	if _, err := a.Service.Subscribe(ctx, email); err != nil {
		return responseFor(mapServiceError(err)), nil
	}
	return client.Response{StatusCode: http.StatusCreated, Message: msgSubscribed}, nil
}

func (a *ServiceAPI) Unsubscribe(ctx context.Context, email string) (client.Response, error) {
	email = strings.TrimSpace(email)
	if err := webutil.ValidateEmailRequest(webutil.EmailRequest{Email: email}); err != nil {
		return responseFor(err), nil
	}

	if _, err := a.Service.Unsubscribe(ctx, email); err != nil {
		return responseFor(mapServiceError(err)), nil
	}
	return client.Response{StatusCode: http.StatusOK, Message: fmt.Sprintf(msgUnsubscribedFmt, email)}, nil
}

func responseFor(err error) client.Response {
	var httpErr *webutil.HTTPError
	if !errors.As(err, &httpErr) {
		httpErr = webutil.ErrInternalServerWrap(err)
	}
	return client.Response{StatusCode: httpErr.Code, Message: httpErr.Message}
}
