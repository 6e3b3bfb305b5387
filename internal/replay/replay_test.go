package replay

import (
	"path/filepath"
	"testing"

	"robosoccer/internal/sim"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "match.jsonl.zst")

	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	frames := []Frame{
		{Snapshot: sim.Snapshot{Tick: 1, Time: 1.0 / 60, Ball: sim.BallSnapshot{X: 0.1, Y: -0.2, VX: 3, VY: 0}}},
		{
			Snapshot: sim.Snapshot{Tick: 2, Time: 2.0 / 60, BlueScore: 1},
			Events: []sim.Event{
				{T: 2.0 / 60, Type: "goal", Payload: map[string]any{"team": "blue"}},
			},
		},
		{Snapshot: sim.Snapshot{Tick: 3, Time: 3.0 / 60, OwnerID: 4, OwnerTeam: 1}},
	}
	for _, fr := range frames {
		if err := w.Write(fr); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	defer r.Close()

	for i, want := range frames {
		got, ok, err := r.Next()
		if err != nil || !ok {
			t.Fatalf("frame %d: ok=%v err=%v", i, ok, err)
		}
		if got.Snapshot.Tick != want.Snapshot.Tick {
			t.Fatalf("frame %d: tick = %d, want %d", i, got.Snapshot.Tick, want.Snapshot.Tick)
		}
		if len(got.Events) != len(want.Events) {
			t.Fatalf("frame %d: %d events, want %d", i, len(got.Events), len(want.Events))
		}
	}

	if got, ok, err := r.Next(); ok || err != nil {
		t.Fatalf("expected clean end of file, got %+v ok=%v err=%v", got, ok, err)
	}
}

func TestEventPayloadSurvives(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ev.jsonl.zst")

	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	ev := sim.Event{T: 12.5, Type: "pass_attempt", Payload: map[string]any{"from": 4.0, "to": 5.0}}
	if err := w.Write(Frame{Snapshot: sim.Snapshot{Tick: 750}, Events: []sim.Event{ev}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	defer r.Close()

	fr, ok, err := r.Next()
	if err != nil || !ok {
		t.Fatalf("next: ok=%v err=%v", ok, err)
	}
	got := fr.Events[0]
	if got.Type != ev.Type || got.T != ev.T {
		t.Fatalf("event header mangled: %+v", got)
	}
	if got.Payload["from"] != 4.0 || got.Payload["to"] != 5.0 {
		t.Fatalf("payload mangled: %+v", got.Payload)
	}
}

func TestWriterCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "m.jsonl.zst")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.Write(Frame{Snapshot: sim.Snapshot{Tick: 1}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Write(Frame{}); err == nil {
		t.Fatalf("write after close must fail")
	}
}
