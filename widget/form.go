package widget

import (
	"errors"
	"strings"
)

const (
	MsgEmailMissing   = "Please enter your email."
	MsgServerError    = "Server error. Please try again."
	MsgSomethingWrong = "Something went wrong."
	MsgSubmitting     = "Submitting..."
	MsgDefaultRemoval = "Your email address is permanently removed from our mailing lists. You will not receive any further emails from us."

	labelUnsubscribe   = "Unsubscribe"
	labelUnsubscribing = "Unsubscribing..."
)

// ErrSubmissionInFlight is returned by Begin while an earlier submission has
// not been resolved.
var ErrSubmissionInFlight = errors.New("widget: submission already in flight")

// Outcome is what the API answered to a submission.
type Outcome struct {
	OK      bool
	Message string
}

// UnsubscribeForm drives the three-state unsubscribe card. The zero value is
// ready to use.
type UnsubscribeForm struct {
	Status     Status
	Email      string
	Message    string
	Submitting bool
}

// Begin starts a submission for email. It reports false when nothing should
// be sent, which happens for a blank email.
func (f *UnsubscribeForm) Begin(email string) (bool, error) {
	if f.Submitting {
		return false, ErrSubmissionInFlight
	}

	f.Email = strings.TrimSpace(email)
	if f.Email == "" {
		f.Status = StatusInitial
		f.Message = MsgEmailMissing
		return false, nil
	}

	f.Submitting = true
	f.Message = ""
	f.Status = StatusLoading
	return true, nil
}

// Resolve applies the API answer to the in-flight submission.
func (f *UnsubscribeForm) Resolve(o Outcome) {
	f.Submitting = false
	if o.OK {
		f.Status = StatusLoaded
		f.Message = o.Message
		return
	}
	f.Status = StatusInitial
	f.Message = o.Message
	if f.Message == "" {
		f.Message = MsgSomethingWrong
	}
}

// Fail records a submission that never got an answer.
func (f *UnsubscribeForm) Fail(error) {
	f.Submitting = false
	f.Status = StatusInitial
	f.Message = MsgServerError
}

// ButtonLabel is the text on the submit button.
func (f *UnsubscribeForm) ButtonLabel() string {
	if f.Submitting {
		return labelUnsubscribing
	}
	return labelUnsubscribe
}

// LoadedMessage is the body of the loaded card.
func (f *UnsubscribeForm) LoadedMessage() string {
	if f.Message == "" {
		return MsgDefaultRemoval
	}
	return f.Message
}

// SubscribeForm is the single-state subscribe form.
type SubscribeForm struct {
	Email   string
	Message string
	Tone    Tone
}

func (f *SubscribeForm) Begin(email string) {
	f.Email = strings.TrimSpace(email)
	f.Message = MsgSubmitting
	f.Tone = ToneNeutral
}

func (f *SubscribeForm) Resolve(o Outcome) {
	f.Message = o.Message
	if o.OK {
		f.Tone = ToneSuccess
	} else {
		f.Tone = ToneError
	}
}

func (f *SubscribeForm) Fail(error) {
	f.Message = MsgSomethingWrong
	f.Tone = ToneError
}
