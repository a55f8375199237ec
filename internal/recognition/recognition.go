// Package recognition wraps a continuous speech-recognition stream: start/stop,
// restart after spontaneous end-of-stream, and classification of recognizer
// failures.
package recognition

import "context"

// Fragment is one piece of recognized text. Interim fragments are revised by
// the recognizer as speech continues; final fragments are not.
type Fragment struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"isFinal"`
}

// Event is delivered by a Stream once per underlying recognizer callback.
// Exactly one of Fragments, Err or End is meaningful.
type Event struct {
	Fragments []Fragment
	Err       *Error
	End       bool
}

// Stream is one live continuous-recognition stream. Events is closed after the
// stream ends; a closed channel is treated as an end-of-stream event.
type Stream interface {
	Events() <-chan Event
	Stop() error
}

// Engine is the host speech capability. Listen must not block on I/O: failures
// to reach the recognizer are reported as error events on the returned stream.
type Engine interface {
	Available(ctx context.Context) error
	Listen(locale string) Stream
}

// AccessGate asks the host for microphone access. It returns nil when access is
// granted, or an *AccessError otherwise. Any capture handle opened to confirm
// access is released before returning.
type AccessGate interface {
	RequestAccess(ctx context.Context) error
}
