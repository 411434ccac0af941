package webutil

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const (
	MsgEmailRequired  = "Email is required."
	MsgEmailTooLong   = "Email is too long."
	MsgInvalidPayload = "Invalid request body."

	maxRequestBodyBytes = 64 << 10
)

// EmailRequest is the body of both subscribe and unsubscribe calls. Any
// non-empty address is accepted; the length cap matches RFC 5321.
type EmailRequest struct {
	Email string `json:"email" validate:"required,max=254"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// DecodeEmailRequest reads and validates an EmailRequest. An empty body is
// treated like {} so it fails with the "Email is required." message.
func DecodeEmailRequest(r *http.Request) (EmailRequest, error) {
	var req EmailRequest
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, ErrBadRequestWrap(MsgInvalidPayload, err)
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := ValidateEmailRequest(req); err != nil {
		return req, err
	}
	return req, nil
}

// ValidateEmailRequest maps validator failures to the user-facing messages.
func ValidateEmailRequest(req EmailRequest) error {
	err := Validator().Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Tag() == "required" {
				return ErrBadRequestWrap(MsgEmailRequired, err)
			}
		}
		return ErrBadRequestWrap(MsgEmailTooLong, err)
	}
	return ErrBadRequestWrap(MsgInvalidPayload, err)
}
