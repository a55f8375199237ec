// Package transcript merges incremental recognition fragments into a single
// transcript with a settled region and a tentative region.
package transcript

import (
	"strings"
	"unicode"

	"github.com/jwulff/steno/journal/internal/recognition"
)

// Accumulator holds the transcript of one recording. Settled text only grows
// until Reset or Finalize; tentative text is replaced on every batch.
type Accumulator struct {
	settled   strings.Builder
	tentative string
}

// New returns an empty accumulator.
func New() *Accumulator {
	return &Accumulator{}
}

// Reset clears both regions.
func (a *Accumulator) Reset() {
	a.settled.Reset()
	a.tentative = ""
}

// Apply processes one recognizer batch in delivery order. Each final fragment
// is appended to the settled text followed by a space. Only the last interim
// fragment of the batch is kept, since recognizers redeliver growing interim
// text. A batch containing any final fragment leaves no tentative text.
func (a *Accumulator) Apply(batch []recognition.Fragment) {
	if len(batch) == 0 {
		return
	}

	var (
		hasFinal    bool
		lastInterim string
	)
	for _, f := range batch {
		if f.IsFinal {
			a.settled.WriteString(f.Text)
			a.settled.WriteByte(' ')
			hasFinal = true
			continue
		}
		lastInterim = f.Text
	}

	if hasFinal {
		a.tentative = ""
		return
	}
	a.tentative = lastInterim
}

// Settled returns the settled region.
func (a *Accumulator) Settled() string { return a.settled.String() }

// Tentative returns the tentative region.
func (a *Accumulator) Tentative() string { return a.tentative }

// Display returns settled followed by tentative.
func (a *Accumulator) Display() string {
	return a.settled.String() + a.tentative
}

// Finalize returns the settled text without trailing whitespace, drops the
// tentative text, and resets the accumulator for the next recording.
func (a *Accumulator) Finalize() string {
	out := strings.TrimRightFunc(a.settled.String(), unicode.IsSpace)
	a.Reset()
	return out
}
