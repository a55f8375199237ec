package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
)

// startMockDaemon creates a Unix socket that accepts connections and answers
// each one with handle. The returned channel receives every command read.
func startMockDaemon(t *testing.T, handle func(cmd Command, w *json.Encoder)) (string, <-chan Command) {
	t.Helper()

	dir, err := os.MkdirTemp("", "jd")
	if err != nil {
		t.Fatalf("tempdir: %v", err)
	}
	// Unix socket paths are length-limited, so avoid t.TempDir's long names.
	sockPath := filepath.Join(dir, "d.sock")

	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() {
		ln.Close()
		os.RemoveAll(dir)
	})

	cmds := make(chan Command, 16)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				scanner := bufio.NewScanner(conn)
				enc := json.NewEncoder(conn)
				for scanner.Scan() {
					var cmd Command
					if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
						return
					}
					cmds <- cmd
					handle(cmd, enc)
				}
			}(conn)
		}
	}()

	return sockPath, cmds
}

func TestClientSendCommand(t *testing.T) {
	sockPath, cmds := startMockDaemon(t, func(cmd Command, w *json.Encoder) {
		w.Encode(Response{OK: true, Device: "Built-in Microphone"})
	})

	client, err := Connect(context.Background(), sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	got, err := client.SendCommand(context.Background(), Command{Cmd: CmdAccess})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !got.OK {
		t.Error("ok = false, want true")
	}
	if got.Device != "Built-in Microphone" {
		t.Errorf("device = %q", got.Device)
	}
	if cmd := <-cmds; cmd.Cmd != CmdAccess {
		t.Errorf("daemon received %q, want %q", cmd.Cmd, CmdAccess)
	}
}

func TestClientConnectFailure(t *testing.T) {
	_, err := Connect(context.Background(), "/nonexistent/path/speechd.sock")
	if err == nil {
		t.Error("expected error connecting to nonexistent socket")
	}
}

func TestClientReadEvents(t *testing.T) {
	sockPath, _ := startMockDaemon(t, func(cmd Command, w *json.Encoder) {
		w.Encode(Response{OK: true})
		w.Encode(Event{Event: EventPartial, Text: "hello"})
		w.Encode(Event{Event: EventEnd})
	})

	client, err := Connect(context.Background(), sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if _, err := client.SendCommand(context.Background(), Command{Cmd: CmdListen}); err != nil {
		t.Fatalf("listen: %v", err)
	}

	ev1, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("read event 1: %v", err)
	}
	if ev1.Event != EventPartial || ev1.Text != "hello" {
		t.Errorf("event1 = %+v", ev1)
	}

	ev2, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("read event 2: %v", err)
	}
	if ev2.Event != EventEnd {
		t.Errorf("event2 = %+v", ev2)
	}
}
