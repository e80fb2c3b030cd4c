package panel

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

type fakeQueries struct {
	clients []xproto.Window
	docks   map[xproto.Window]bool
	classes map[xproto.Window]string
	listErr error
}

func (q *fakeQueries) ClientList() ([]xproto.Window, error) {
	if q.listErr != nil {
		return nil, q.listErr
	}
	return q.clients, nil
}

func (q *fakeQueries) IsDock(w xproto.Window) bool { return q.docks[w] }

func (q *fakeQueries) WindowClass(w xproto.Window) (string, error) {
	class, ok := q.classes[w]
	if !ok {
		return "", fmt.Errorf("no class for window %d", w)
	}
	return class, nil
}

func TestLocateReturnsFirstDock(t *testing.T) {
	q := &fakeQueries{
		clients: []xproto.Window{10, 11, 12},
		docks:   map[xproto.Window]bool{11: true, 12: true},
	}

	win, err := Locate(q, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if win != 11 {
		t.Fatalf("expected first dock 11, got %d", win)
	}
}

func TestLocateHonorsClassFilter(t *testing.T) {
	q := &fakeQueries{
		clients: []xproto.Window{10, 11, 12},
		docks:   map[xproto.Window]bool{11: true, 12: true},
		classes: map[xproto.Window]string{11: "Plank", 12: "Polybar"},
	}

	win, err := Locate(q, "Polybar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if win != 12 {
		t.Fatalf("expected window 12 for class Polybar, got %d", win)
	}
}

func TestLocateNoDockFound(t *testing.T) {
	q := &fakeQueries{clients: []xproto.Window{10}}

	if _, err := Locate(q, ""); err == nil {
		t.Fatal("expected error when no dock exists")
	}
}

func TestLocateClassNotFound(t *testing.T) {
	q := &fakeQueries{
		clients: []xproto.Window{11},
		docks:   map[xproto.Window]bool{11: true},
		classes: map[xproto.Window]string{11: "Plank"},
	}

	_, err := Locate(q, "Polybar")
	if err == nil {
		t.Fatal("expected error for missing class")
	}
	if !strings.Contains(err.Error(), "Polybar") {
		t.Fatalf("expected error to name the class, got %v", err)
	}
}

func TestLocateSkipsDockWithUnreadableClass(t *testing.T) {
	q := &fakeQueries{
		clients: []xproto.Window{11, 12},
		docks:   map[xproto.Window]bool{11: true, 12: true},
		classes: map[xproto.Window]string{12: "Polybar"}, // 11 unreadable
	}

	win, err := Locate(q, "Polybar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if win != 12 {
		t.Fatalf("expected unreadable dock skipped, got %d", win)
	}
}

func TestLocateClientListError(t *testing.T) {
	q := &fakeQueries{listErr: errors.New("connection closed")}

	if _, err := Locate(q, ""); err == nil {
		t.Fatal("expected client list error to propagate")
	}
}
