package app

import (
	"github.com/jwulff/steno/journal/internal/journal"
	"github.com/jwulff/steno/journal/internal/recognition"
)

// SupportCheckedMsg carries the result of probing the speech engine at startup.
type SupportCheckedMsg struct {
	Err error
}

// PermissionResultMsg carries the outcome of a microphone access request.
// Attempt identifies the start request it answers.
type PermissionResultMsg struct {
	Attempt int
	Err     error
}

// RecognitionMsg wraps one event read from the recognizer stream of
// generation Gen.
type RecognitionMsg struct {
	Gen   uint64
	Event recognition.Event
}

// SettleMsg fires once the settle delay after a stop has elapsed.
type SettleMsg struct {
	Attempt int
}

// EntriesLoadedMsg carries the stored entries, newest first.
type EntriesLoadedMsg struct {
	Entries []journal.Entry
}

// EntrySavedMsg reports the result of appending an entry to the store.
type EntrySavedMsg struct {
	Entry journal.Entry
	Err   error
}

// SelectEntryMsg selects an entry by id and shows its detail.
type SelectEntryMsg struct {
	ID string
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
