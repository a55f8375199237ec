// Package wsspeech streams recognition results from a remote speech service
// over a websocket.
package wsspeech

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jwulff/steno/journal/internal/recognition"
)

// Message is the JSON frame exchanged with the service in both directions.
type Message struct {
	Type           string                 `json:"type"`
	Locale         string                 `json:"locale,omitempty"`
	InterimResults bool                   `json:"interimResults,omitempty"`
	OK             *bool                  `json:"ok,omitempty"`
	Results        []recognition.Fragment `json:"results,omitempty"`
	Code           string                 `json:"code,omitempty"`
	Message        string                 `json:"message,omitempty"`
}

// Frame types.
const (
	TypeStart   = "start"
	TypeAccess  = "access"
	TypeResults = "results"
	TypeError   = "error"
	TypeEnd     = "end"
)

// Config controls the websocket connection.
type Config struct {
	URL    string
	APIKey string
}

// Engine implements recognition.Engine and recognition.AccessGate against a
// remote service.
type Engine struct {
	cfg    Config
	dialer *websocket.Dialer
	log    *zap.Logger
}

// NewEngine returns an engine for the service at cfg.URL.
func NewEngine(cfg Config, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{cfg: cfg, dialer: websocket.DefaultDialer, log: log.Named("wsspeech")}
}

func (e *Engine) dial(ctx context.Context) (*websocket.Conn, error) {
	headers := http.Header{}
	if strings.TrimSpace(e.cfg.APIKey) != "" {
		headers.Set("Authorization", "Token "+e.cfg.APIKey)
	}
	conn, _, err := e.dialer.DialContext(ctx, e.cfg.URL, headers)
	if err != nil {
		return nil, fmt.Errorf("connect to speech service: %w", err)
	}
	return conn, nil
}

// Available checks that the service accepts a websocket connection.
func (e *Engine) Available(ctx context.Context) error {
	if strings.TrimSpace(e.cfg.URL) == "" {
		return fmt.Errorf("%w: no speech service url configured", recognition.ErrUnsupported)
	}
	conn, err := e.dial(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", recognition.ErrUnsupported, err)
	}
	closeConn(conn)
	return nil
}

// RequestAccess asks the service to confirm microphone access on the capture
// side and release the device again.
func (e *Engine) RequestAccess(ctx context.Context) error {
	conn, err := e.dial(ctx)
	if err != nil {
		return &recognition.AccessError{Kind: recognition.AccessUnknown, Detail: err.Error()}
	}
	defer closeConn(conn)

	if err := conn.WriteJSON(Message{Type: TypeAccess}); err != nil {
		return &recognition.AccessError{Kind: recognition.AccessUnknown, Detail: err.Error()}
	}

	var reply Message
	if err := conn.ReadJSON(&reply); err != nil {
		return &recognition.AccessError{Kind: recognition.AccessUnknown, Detail: err.Error()}
	}
	if reply.OK == nil || !*reply.OK {
		return recognition.ClassifyAccess(reply.Code, reply.Message)
	}
	return nil
}

// Listen opens a stream. Dialing happens in the background.
func (e *Engine) Listen(locale string) recognition.Stream {
	s := &stream{
		events: make(chan recognition.Event, 16),
		done:   make(chan struct{}),
		log:    e.log,
	}
	go s.run(e, locale)
	return s
}

type stream struct {
	events chan recognition.Event
	done   chan struct{}
	once   sync.Once
	log    *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *stream) Events() <-chan recognition.Event { return s.events }

func (s *stream) Stop() error {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.conn != nil {
			closeConn(s.conn)
		}
	})
	return nil
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

func (s *stream) run(e *Engine, locale string) {
	defer close(s.events)

	conn, err := e.dial(context.Background())
	if err != nil {
		s.emit(recognition.Event{Err: recognition.Classify("network", err.Error())})
		return
	}

	s.mu.Lock()
	if s.stopped() {
		s.mu.Unlock()
		closeConn(conn)
		return
	}
	s.conn = conn
	s.mu.Unlock()

	if err := conn.WriteJSON(Message{Type: TypeStart, Locale: locale, InterimResults: true}); err != nil {
		if !s.stopped() {
			s.emit(recognition.Event{Err: recognition.Classify("network", err.Error())})
		}
		return
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if s.stopped() {
				return
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				s.emit(recognition.Event{End: true})
				return
			}
			s.log.Warn("speech service read failed", zap.Error(err))
			s.emit(recognition.Event{Err: recognition.Classify("network", err.Error())})
			return
		}

		var ev recognition.Event
		switch msg.Type {
		case TypeResults:
			ev = recognition.Event{Fragments: msg.Results}
		case TypeError:
			ev = recognition.Event{Err: recognition.Classify(msg.Code, msg.Message)}
		case TypeEnd:
			ev = recognition.Event{End: true}
		default:
			s.log.Debug("ignoring frame", zap.String("type", msg.Type))
			continue
		}
		if !s.emit(ev) || ev.End {
			return
		}
	}
}

func closeConn(conn *websocket.Conn) {
	// WriteControl may run concurrently with the reader goroutine.
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	_ = conn.Close()
}
