package wsspeech

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jwulff/steno/journal/internal/recognition"
)

// startService runs a websocket endpoint that hands every connection to handle.
func startService(t *testing.T, handle func(conn *websocket.Conn)) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func collect(t *testing.T, events <-chan recognition.Event) []recognition.Event {
	t.Helper()
	var out []recognition.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("timed out waiting for stream to close")
		}
	}
}

func okPtr(b bool) *bool { return &b }

func TestAvailableWithoutURL(t *testing.T) {
	err := NewEngine(Config{}, nil).Available(context.Background())
	if !errors.Is(err, recognition.ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestAvailable(t *testing.T) {
	url := startService(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
	})
	if err := NewEngine(Config{URL: url}, nil).Available(context.Background()); err != nil {
		t.Errorf("available: %v", err)
	}
}

func TestRequestAccess(t *testing.T) {
	url := startService(t, func(conn *websocket.Conn) {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil || msg.Type != TypeAccess {
			return
		}
		conn.WriteJSON(Message{Type: TypeAccess, OK: okPtr(true)})
	})

	if err := NewEngine(Config{URL: url}, nil).RequestAccess(context.Background()); err != nil {
		t.Errorf("request access: %v", err)
	}
}

func TestRequestAccessDeviceNotFound(t *testing.T) {
	url := startService(t, func(conn *websocket.Conn) {
		var msg Message
		conn.ReadJSON(&msg)
		conn.WriteJSON(Message{Type: TypeAccess, OK: okPtr(false), Code: "NotFoundError"})
	})

	err := NewEngine(Config{URL: url}, nil).RequestAccess(context.Background())
	var accessErr *recognition.AccessError
	if !errors.As(err, &accessErr) || accessErr.Kind != recognition.AccessDeviceNotFound {
		t.Errorf("err = %v, want device not found", err)
	}
}

func TestListenStreamsResults(t *testing.T) {
	starts := make(chan Message, 1)
	url := startService(t, func(conn *websocket.Conn) {
		var start Message
		if err := conn.ReadJSON(&start); err != nil {
			return
		}
		starts <- start
		conn.WriteJSON(Message{Type: TypeResults, Results: []recognition.Fragment{
			{Text: "hello", IsFinal: false},
			{Text: "hello there", IsFinal: false},
		}})
		conn.WriteJSON(Message{Type: TypeError, Code: "aborted"})
		conn.WriteJSON(Message{Type: TypeResults, Results: []recognition.Fragment{
			{Text: "hello there", IsFinal: true},
		}})
		conn.WriteJSON(Message{Type: TypeEnd})
		conn.ReadMessage()
	})

	s := NewEngine(Config{URL: url}, nil).Listen("en-US")
	defer s.Stop()

	events := collect(t, s.Events())
	if len(events) != 4 {
		t.Fatalf("events = %d, want 4: %+v", len(events), events)
	}
	if len(events[0].Fragments) != 2 {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1].Err == nil || events[1].Err.Kind != recognition.KindAborted {
		t.Errorf("events[1] = %+v", events[1])
	}
	if !events[2].Fragments[0].IsFinal {
		t.Errorf("events[2] = %+v", events[2])
	}
	if !events[3].End {
		t.Errorf("events[3] = %+v", events[3])
	}
	gotStart := <-starts
	if gotStart.Type != TypeStart || gotStart.Locale != "en-US" || !gotStart.InterimResults {
		t.Errorf("start frame = %+v", gotStart)
	}
}

func TestListenServerClosesNormally(t *testing.T) {
	url := startService(t, func(conn *websocket.Conn) {
		var msg Message
		conn.ReadJSON(&msg)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "silence"))
	})

	events := collect(t, NewEngine(Config{URL: url}, nil).Listen("en-US").Events())
	if len(events) != 1 || !events[0].End {
		t.Fatalf("events = %+v, want a single end", events)
	}
}

func TestListenUnreachable(t *testing.T) {
	s := NewEngine(Config{URL: "ws://127.0.0.1:1/none"}, nil).Listen("en-US")
	events := collect(t, s.Events())
	if len(events) != 1 || events[0].Err == nil || events[0].Err.Kind != recognition.KindNetwork {
		t.Fatalf("events = %+v, want one network error", events)
	}
}
