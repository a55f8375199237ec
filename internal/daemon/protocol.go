// Package daemon talks to a local speech daemon over a Unix socket using
// NDJSON. The daemon owns the microphone and the native recognizer; this
// package turns its event stream into recognition events.
package daemon

import "github.com/jwulff/steno/journal/internal/recognition"

// Commands understood by the daemon.
const (
	CmdStatus = "status"
	CmdAccess = "access"
	CmdListen = "listen"
)

// Event names streamed by the daemon after a listen command.
const (
	EventPartial = "partial"
	EventFinal   = "final"
	EventResults = "results"
	EventError   = "error"
	EventEnd     = "end"
)

// Command is sent from a client to the daemon.
type Command struct {
	Cmd            string `json:"cmd"`
	Locale         string `json:"locale,omitempty"`
	InterimResults *bool  `json:"interimResults,omitempty"`
	Continuous     *bool  `json:"continuous,omitempty"`
}

// Response is returned by the daemon after processing a command.
type Response struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
	Supported *bool  `json:"supported,omitempty"`
	Device    string `json:"device,omitempty"`
}

// Event is streamed from the daemon while listening. "results" events carry a
// whole recognizer batch; "partial" and "final" carry a single fragment.
type Event struct {
	Event   string                 `json:"event"`
	Text    string                 `json:"text,omitempty"`
	Results []recognition.Fragment `json:"results,omitempty"`
	Code    string                 `json:"code,omitempty"`
	Message string                 `json:"message,omitempty"`
}

// BoolPtr returns a pointer to a bool value. Convenience for building commands.
func BoolPtr(b bool) *bool { return &b }

// toRecognition converts a daemon event. ok is false for unknown event names.
func (ev Event) toRecognition() (out recognition.Event, ok bool) {
	switch ev.Event {
	case EventPartial:
		return recognition.Event{Fragments: []recognition.Fragment{{Text: ev.Text}}}, true
	case EventFinal:
		return recognition.Event{Fragments: []recognition.Fragment{{Text: ev.Text, IsFinal: true}}}, true
	case EventResults:
		return recognition.Event{Fragments: ev.Results}, true
	case EventError:
		return recognition.Event{Err: recognition.Classify(ev.Code, ev.Message)}, true
	case EventEnd:
		return recognition.Event{End: true}, true
	}
	return recognition.Event{}, false
}
