package recognition

import (
	"go.uber.org/zap"
)

// SessionState is the state of a Session.
type SessionState string

const (
	SessionIdle      SessionState = "idle"
	SessionListening SessionState = "listening"
)

// Outcome tells the caller what a delivered event amounted to.
type Outcome struct {
	// Stale is set when the event belongs to a stream that has since been
	// stopped or replaced. The caller must not read from that stream again.
	Stale bool

	// Fragments to apply to the transcript, in recognizer order.
	Fragments []Fragment

	// Fatal is set when the session stopped because of a recognizer failure.
	Fatal *Error

	// Restarted is set when the stream ended on its own and a new one was
	// opened; the caller should start reading the new generation.
	Restarted bool

	// Ended is set when the stream ended and was not restarted.
	Ended bool
}

// Session wraps exactly one continuous-recognition stream at a time. It is not
// safe for concurrent use: every method is meant to run on the caller's event
// loop.
type Session struct {
	engine Engine
	locale string
	log    *zap.Logger

	granted    bool
	state      SessionState
	stream     Stream
	generation uint64
}

// NewSession creates an idle session over engine.
func NewSession(engine Engine, locale string, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		engine: engine,
		locale: locale,
		log:    log.Named("recognition"),
		state:  SessionIdle,
	}
}

// Grant records that microphone access was confirmed by the access gate.
func (s *Session) Grant() { s.granted = true }

// Revoke forgets a previous grant.
func (s *Session) Revoke() { s.granted = false }

// State returns the session state.
func (s *Session) State() SessionState { return s.state }

// Generation identifies the current stream. Events read from an older stream
// are reported as stale by Handle.
func (s *Session) Generation() uint64 { return s.generation }

// Events returns the event channel of the current stream, or nil when idle.
func (s *Session) Events() <-chan Event {
	if s.stream == nil {
		return nil
	}
	return s.stream.Events()
}

// Start begins listening. Starting an already listening session is a no-op.
func (s *Session) Start() error {
	if !s.granted {
		return &PermissionError{}
	}
	if s.state == SessionListening {
		return nil
	}
	s.open()
	s.log.Info("listening", zap.String("locale", s.locale), zap.Uint64("generation", s.generation))
	return nil
}

// Stop ends the current stream. Nothing read from it afterwards reaches the
// caller, including its end-of-stream event.
func (s *Session) Stop() {
	if s.state == SessionIdle {
		return
	}
	s.release()
	s.log.Info("stopped", zap.Uint64("generation", s.generation))
}

// Handle processes one event read from the stream of generation gen.
// recording must be the lifecycle's current state at the time the event is
// handled; it decides whether a spontaneous end-of-stream is restarted.
func (s *Session) Handle(gen uint64, ev Event, recording bool) Outcome {
	if gen != s.generation || s.state != SessionListening {
		return Outcome{Stale: true}
	}

	switch {
	case ev.Err != nil:
		if !ev.Err.Fatal() {
			s.log.Debug("transient recognizer error", zap.String("kind", string(ev.Err.Kind)))
			return Outcome{}
		}
		s.log.Warn("fatal recognizer error", zap.Error(ev.Err))
		if ev.Err.Kind == KindPermissionDenied {
			s.granted = false
		}
		s.release()
		return Outcome{Fatal: ev.Err}

	case ev.End:
		if recording {
			s.stopStream()
			s.open()
			s.log.Debug("stream ended, restarted", zap.Uint64("generation", s.generation))
			return Outcome{Restarted: true}
		}
		s.release()
		return Outcome{Ended: true}

	default:
		return Outcome{Fragments: ev.Fragments}
	}
}

func (s *Session) open() {
	s.generation++
	s.stream = s.engine.Listen(s.locale)
	s.state = SessionListening
}

func (s *Session) release() {
	s.stopStream()
	s.generation++
	s.state = SessionIdle
}

func (s *Session) stopStream() {
	if s.stream == nil {
		return
	}
	if err := s.stream.Stop(); err != nil {
		s.log.Debug("stop stream", zap.Error(err))
	}
	s.stream = nil
}
