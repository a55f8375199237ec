package recognition

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a recognizer failure.
type ErrorKind string

const (
	KindPermissionDenied ErrorKind = "permission_denied"
	KindNoSpeech         ErrorKind = "no_speech"
	KindAborted          ErrorKind = "aborted"
	KindNetwork          ErrorKind = "network"
	KindUnknown          ErrorKind = "unknown"
)

// Error is a classified recognizer failure. Code keeps the recognizer's own
// code for Unknown failures.
type Error struct {
	Kind   ErrorKind
	Code   string
	Detail string
}

// Classify maps a recognizer error code onto an Error. Both the snake_case
// codes used by the speech daemon and the hyphenated codes used by web-style
// recognizers are accepted.
func Classify(code, detail string) *Error {
	norm := strings.ToLower(strings.TrimSpace(code))
	norm = strings.ReplaceAll(norm, "-", "_")

	kind := KindUnknown
	switch norm {
	case "not_allowed", "service_not_allowed", "permission_denied":
		kind = KindPermissionDenied
	case "no_speech":
		kind = KindNoSpeech
	case "aborted":
		kind = KindAborted
	case "network", "network_error":
		kind = KindNetwork
	}
	return &Error{Kind: kind, Code: code, Detail: detail}
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("recognition %s (%s): %s", e.Kind, e.Code, e.Detail)
	}
	return fmt.Sprintf("recognition %s (%s)", e.Kind, e.Code)
}

// Fatal reports whether the failure ends the session. No-speech and aborted
// are transient: the recognizer keeps going.
func (e *Error) Fatal() bool {
	return e.Kind != KindNoSpeech && e.Kind != KindAborted
}

// Message is the user-visible text for a fatal failure.
func (e *Error) Message() string {
	switch e.Kind {
	case KindPermissionDenied:
		return "Microphone access was denied. Allow microphone access and try again."
	case KindNetwork:
		return "Speech recognition lost its network connection. Check your connection and try again."
	default:
		if e.Code == "" {
			return "Speech recognition failed."
		}
		return fmt.Sprintf("Speech recognition failed (%s).", e.Code)
	}
}

// AccessKind classifies a microphone access failure.
type AccessKind string

const (
	AccessPermissionDenied AccessKind = "permission_denied"
	AccessDeviceNotFound   AccessKind = "device_not_found"
	AccessUnknown          AccessKind = "unknown"
)

// AccessError is returned by an AccessGate when access is not granted.
type AccessError struct {
	Kind   AccessKind
	Detail string
}

// ClassifyAccess maps a permission-layer error name onto an AccessError.
func ClassifyAccess(code, detail string) *AccessError {
	norm := strings.ToLower(strings.TrimSpace(code))
	norm = strings.ReplaceAll(norm, "-", "_")

	kind := AccessUnknown
	switch norm {
	case "permission_denied", "not_allowed", "notallowederror", "denied":
		kind = AccessPermissionDenied
	case "device_not_found", "not_found", "notfounderror", "no_device":
		kind = AccessDeviceNotFound
	}
	return &AccessError{Kind: kind, Detail: detail}
}

func (e *AccessError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("microphone access %s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("microphone access %s", e.Kind)
}

// Message is the user-visible text for the failure.
func (e *AccessError) Message() string {
	switch e.Kind {
	case AccessPermissionDenied:
		return "Microphone access was denied. Allow microphone access and try again."
	case AccessDeviceNotFound:
		return "No microphone was found. Connect a microphone and try again."
	default:
		if e.Detail != "" {
			return "Could not access the microphone: " + e.Detail
		}
		return "Could not access the microphone."
	}
}

// AsAccessError converts any error from an AccessGate into an *AccessError,
// classifying unrecognized errors as AccessUnknown.
func AsAccessError(err error) *AccessError {
	if err == nil {
		return nil
	}
	var accessErr *AccessError
	if errors.As(err, &accessErr) {
		return accessErr
	}
	return &AccessError{Kind: AccessUnknown, Detail: err.Error()}
}

// PermissionError is returned by Session.Start when microphone access has not
// been granted first.
type PermissionError struct{}

func (*PermissionError) Error() string {
	return "microphone access has not been granted"
}

// ErrUnsupported marks a host without a usable speech recognizer.
var ErrUnsupported = errors.New("speech recognition is not supported on this host")

// UnsupportedMessage is the user-visible text shown when ErrUnsupported applies.
const UnsupportedMessage = "Speech recognition is not available. Start the speech daemon and restart the journal."
