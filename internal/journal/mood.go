package journal

// Mood is a presentation-only snapshot derived from the recording state. It is
// a fixed mapping, not an analysis of what was said.
type Mood struct {
	Emoji     string
	Label     string
	Intensity int // 0-100
}

var (
	// MoodDefault is shown while idle or processing.
	MoodDefault = Mood{Emoji: "😌", Label: "Calm", Intensity: 40}

	// MoodExpressing is shown while recording.
	MoodExpressing = Mood{Emoji: "🗣️", Label: "Expressing", Intensity: 75}

	// MoodReflective is stored on every finished entry. It never appears as
	// the live snapshot.
	MoodReflective = Mood{Emoji: "🌙", Label: "Reflective", Intensity: 60}
)

// ReflectiveColor is the color token stored alongside MoodReflective.
const ReflectiveColor = "indigo"
