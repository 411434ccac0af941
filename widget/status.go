package widget

import "fmt"

// Status is the state of the unsubscribe card.
type Status int

const (
	StatusInitial Status = iota
	StatusLoading
	StatusLoaded
)

func (s Status) String() string {
	switch s {
	case StatusInitial:
		return "initial"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Tone colours the subscribe form's message line.
type Tone int

const (
	ToneNeutral Tone = iota
	ToneSuccess
	ToneError
)

func (t Tone) String() string {
	switch t {
	case ToneSuccess:
		return "success"
	case ToneError:
		return "error"
	default:
		return "neutral"
	}
}
