package ipc

import (
	"bufio"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"
)

func startTestServer(t *testing.T, status func() StatusData, quit func()) *Server {
	t.Helper()
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	srv, err := NewServer(status, quit)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(srv.Stop)
	return srv
}

func TestGetStatusRoundTrip(t *testing.T) {
	startTestServer(t, func() StatusData {
		return StatusData{
			PanelWindow:   42,
			PanelClass:    "Polybar",
			Visible:       true,
			Held:          true,
			DroppedEvents: 3,
		}
	}, func() {})

	status, err := NewClient().GetStatus()
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if status.PanelWindow != 42 {
		t.Fatalf("expected panel_window 42, got %d", status.PanelWindow)
	}
	if status.PanelClass != "Polybar" {
		t.Fatalf("expected panel_class Polybar, got %q", status.PanelClass)
	}
	if !status.Visible || !status.Held {
		t.Fatalf("expected visible and held, got %+v", status)
	}
	if status.OverlayActive || status.WithinGrace {
		t.Fatalf("expected overlay_active and within_grace false, got %+v", status)
	}
	if status.DroppedEvents != 3 {
		t.Fatalf("expected dropped_events 3, got %d", status.DroppedEvents)
	}
	if !status.DaemonRunning {
		t.Fatal("expected daemon_running true")
	}
}

func TestQuitAcknowledgesThenSignals(t *testing.T) {
	quit := make(chan struct{})
	startTestServer(t, func() StatusData { return StatusData{} }, func() { close(quit) })

	if err := NewClient().Quit(); err != nil {
		t.Fatalf("quit: %v", err)
	}

	select {
	case <-quit:
	case <-time.After(2 * time.Second):
		t.Fatal("quit callback not invoked")
	}
}

func TestUnknownCommandRejected(t *testing.T) {
	startTestServer(t, func() StatusData { return StatusData{} }, func() {})

	c := NewClient()
	_, err := c.sendRequest(&Request{Command: "RELOAD"})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), "Unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestMalformedRequestGetsErrorResponse(t *testing.T) {
	srv := startTestServer(t, func() StatusData { return StatusData{} }, func() {})

	conn, err := net.Dial("unix", srv.socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * time.Second))

	if _, err := conn.Write([]byte("not-json\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "ERROR" {
		t.Fatalf("expected ERROR status, got %q", resp.Status)
	}
	if !strings.Contains(resp.Error, "Invalid request") {
		t.Fatalf("expected invalid request error, got %q", resp.Error)
	}
}

func TestPingReportsDaemonPresence(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	if err := NewClient().Ping(); err == nil {
		t.Fatal("expected ping to fail with no daemon listening")
	}

	startTestServer(t, func() StatusData { return StatusData{} }, func() {})
	if err := NewClient().Ping(); err != nil {
		t.Fatalf("expected ping to succeed against a live server, got %v", err)
	}
}
