package x11

import "testing"

func TestQuitSetsFlagAndNudgesLoop(t *testing.T) {
	nudges := 0
	c := &Connection{nudge: func() error {
		nudges++
		return nil
	}}

	c.Quit()

	if !c.quitRequested.Load() {
		t.Fatal("expected Quit to mark the connection as quitting")
	}
	if nudges != 1 {
		t.Fatalf("expected exactly one wake nudge, got %d", nudges)
	}
}

func TestWakeBeforeQuitIsIgnored(t *testing.T) {
	stops := 0
	c := &Connection{
		wakeAtom: 7,
		stopLoop: func() { stops++ },
	}

	// Ordinary root property traffic must not stop the loop.
	c.handleWake(7)
	c.handleWake(9)

	if stops != 0 {
		t.Fatalf("expected no loop stop before Quit, got %d", stops)
	}
}

func TestWakeAfterQuitStopsLoop(t *testing.T) {
	stops := 0
	c := &Connection{
		wakeAtom: 7,
		nudge:    func() error { return nil },
		stopLoop: func() { stops++ },
	}

	c.Quit()

	c.handleWake(9)
	if stops != 0 {
		t.Fatalf("expected foreign atoms to be ignored, got %d stops", stops)
	}

	c.handleWake(7)
	if stops != 1 {
		t.Fatalf("expected the wake atom to stop the loop once, got %d stops", stops)
	}
}
