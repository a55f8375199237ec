package daemon

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/jwulff/steno/journal/internal/recognition"
)

// Engine implements recognition.Engine and recognition.AccessGate on top of
// the speech daemon. Every stream and access probe uses its own connection.
type Engine struct {
	socketPath string
	log        *zap.Logger
}

// NewEngine returns an engine for the daemon listening on socketPath.
func NewEngine(socketPath string, log *zap.Logger) *Engine {
	if socketPath == "" {
		socketPath = SocketPath()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{socketPath: socketPath, log: log.Named("daemon")}
}

// Available checks that the daemon is running and has a recognizer.
func (e *Engine) Available(ctx context.Context) error {
	if _, err := os.Stat(e.socketPath); err != nil {
		return fmt.Errorf("%w: no daemon socket at %s", recognition.ErrUnsupported, e.socketPath)
	}

	client, err := Connect(ctx, e.socketPath)
	if err != nil {
		return fmt.Errorf("%w: %v", recognition.ErrUnsupported, err)
	}
	defer client.Close()

	resp, err := client.SendCommand(ctx, Command{Cmd: CmdStatus})
	if err != nil {
		return fmt.Errorf("%w: %v", recognition.ErrUnsupported, err)
	}
	if !resp.OK || (resp.Supported != nil && !*resp.Supported) {
		return fmt.Errorf("%w: daemon reports no recognizer", recognition.ErrUnsupported)
	}
	return nil
}

// RequestAccess asks the daemon to open and immediately release the
// microphone. It blocks until the daemon answers; there is no timeout unless
// ctx carries one.
func (e *Engine) RequestAccess(ctx context.Context) error {
	client, err := Connect(ctx, e.socketPath)
	if err != nil {
		return &recognition.AccessError{Kind: recognition.AccessUnknown, Detail: err.Error()}
	}
	defer client.Close()

	resp, err := client.SendCommand(ctx, Command{Cmd: CmdAccess})
	if err != nil {
		return &recognition.AccessError{Kind: recognition.AccessUnknown, Detail: err.Error()}
	}
	if !resp.OK {
		return recognition.ClassifyAccess(resp.Code, resp.Error)
	}
	e.log.Debug("microphone access granted", zap.String("device", resp.Device))
	return nil
}

// Listen opens a continuous recognition stream with interim results. The
// connection is made in the background; failures arrive as error events.
func (e *Engine) Listen(locale string) recognition.Stream {
	s := &stream{
		events: make(chan recognition.Event, 16),
		done:   make(chan struct{}),
		log:    e.log,
	}
	go s.run(e.socketPath, locale)
	return s
}

type stream struct {
	events chan recognition.Event
	done   chan struct{}
	once   sync.Once
	log    *zap.Logger

	mu     sync.Mutex
	client *Client
}

func (s *stream) Events() <-chan recognition.Event { return s.events }

// Stop closes the connection, which also unblocks the reader.
func (s *stream) Stop() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.client != nil {
			err = s.client.Close()
		}
	})
	return err
}

func (s *stream) stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *stream) emit(ev recognition.Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *stream) run(socketPath, locale string) {
	defer close(s.events)

	client, err := Connect(context.Background(), socketPath)
	if err != nil {
		s.emit(recognition.Event{Err: recognition.Classify("network", err.Error())})
		return
	}

	s.mu.Lock()
	if s.stopped() {
		s.mu.Unlock()
		client.Close()
		return
	}
	s.client = client
	s.mu.Unlock()

	resp, err := client.SendCommand(context.Background(), Command{
		Cmd:            CmdListen,
		Locale:         locale,
		InterimResults: BoolPtr(true),
		Continuous:     BoolPtr(true),
	})
	if err != nil {
		if !s.stopped() {
			s.emit(recognition.Event{Err: recognition.Classify("network", err.Error())})
		}
		return
	}
	if !resp.OK {
		s.emit(recognition.Event{Err: recognition.Classify(resp.Code, resp.Error)})
		return
	}

	for {
		ev, err := client.ReadEvent()
		if err != nil {
			if s.stopped() {
				return
			}
			s.log.Warn("event stream broken", zap.Error(err))
			s.emit(recognition.Event{Err: recognition.Classify("network", err.Error())})
			return
		}

		out, ok := ev.toRecognition()
		if !ok {
			s.log.Debug("ignoring daemon event", zap.String("event", ev.Event))
			continue
		}
		if !s.emit(out) || out.End {
			return
		}
	}
}
