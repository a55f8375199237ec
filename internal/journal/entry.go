// Package journal defines finished journal entries and the mood projection
// shown alongside the recording state.
package journal

import (
	"time"

	"github.com/google/uuid"
)

// SnippetLimit is the maximum number of characters kept from a transcript.
const SnippetLimit = 120

// TruncationMarker is appended to snippets that were cut at SnippetLimit.
const TruncationMarker = "..."

// Default display layouts.
const (
	DefaultDateLayout = "Jan 2, 2006"
	DefaultTimeLayout = "3:04 PM"
)

// Entry is a finished journal entry. Entries are never modified after NewEntry.
type Entry struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	DisplayDate string    `json:"displayDate"`
	DisplayTime string    `json:"displayTime"`
	MoodLabel   string    `json:"moodLabel"`
	MoodColor   string    `json:"moodColor"`
	Snippet     string    `json:"snippet"`
	HasAudio    bool      `json:"hasAudio"`
}

// Layout controls how CreatedAt is projected into DisplayDate and DisplayTime.
type Layout struct {
	Date string
	Time string
}

// NewEntry builds the entry for a finalized transcript captured at now.
func NewEntry(transcript string, now time.Time, layout Layout) Entry {
	if layout.Date == "" {
		layout.Date = DefaultDateLayout
	}
	if layout.Time == "" {
		layout.Time = DefaultTimeLayout
	}
	return Entry{
		ID:          uuid.NewString(),
		CreatedAt:   now,
		DisplayDate: now.Format(layout.Date),
		DisplayTime: now.Format(layout.Time),
		MoodLabel:   MoodReflective.Label,
		MoodColor:   ReflectiveColor,
		Snippet:     Snippet(transcript),
		HasAudio:    true,
	}
}

// Snippet cuts text to SnippetLimit characters, appending TruncationMarker when
// anything was dropped.
func Snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= SnippetLimit {
		return text
	}
	return string(runes[:SnippetLimit]) + TruncationMarker
}
