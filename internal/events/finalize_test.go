package events

import (
	"testing"
)

func TestFinalizeEmptyLog(t *testing.T) {
	if _, err := Finalize(nil, 100.0, 104.0, 0); err != ErrEmptyLog {
		t.Fatalf("expected ErrEmptyLog, got %v", err)
	}
}

func TestFinalizeSingleEvent(t *testing.T) {
	evs := []Event{{TrialNr: 0, Onset: 1.5, EventType: "instruction", NrFrames: 3}}
	rows, err := Finalize(evs, 100.0, 7.5, 42)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].Duration == nil || *rows[0].Duration != 6.0 {
		t.Errorf("expected duration 6.0, got %v", rows[0].Duration)
	}
	if rows[0].NrFrames != 42 {
		t.Errorf("expected final frame counter 42, got %d", rows[0].NrFrames)
	}
	if rows[0].OnsetAbs != 101.5 {
		t.Errorf("expected onset_abs 101.5, got %v", rows[0].OnsetAbs)
	}
}

func TestFinalizeForwardDifferences(t *testing.T) {
	evs := []Event{
		{TrialNr: 0, Onset: 0.0, EventType: "fix", Phase: 0, NrFrames: 30},
		{TrialNr: 0, Onset: 0.5, EventType: "stim", Phase: 1, NrFrames: 60},
		{TrialNr: 1, Onset: 1.25, EventType: "fix", Phase: 0, NrFrames: 45},
		{TrialNr: 1, Onset: 1.75, EventType: "stim", Phase: 1, NrFrames: 30},
	}
	rows, err := Finalize(evs, 10.0, 3.0, 75)
	if err != nil {
		t.Fatal(err)
	}

	wantDur := []float64{0.5, 0.75, 0.5, 1.25}
	wantFrames := []int{60, 45, 30, 75}
	for i := range rows {
		if rows[i].Duration == nil {
			t.Fatalf("row %d: missing duration", i)
		}
		if *rows[i].Duration != wantDur[i] {
			t.Errorf("row %d: duration = %v, want %v", i, *rows[i].Duration, wantDur[i])
		}
		if rows[i].NrFrames != wantFrames[i] {
			t.Errorf("row %d: nr_frames = %d, want %d", i, rows[i].NrFrames, wantFrames[i])
		}
	}
}

func TestFinalizeResponseNullDuration(t *testing.T) {
	evs := []Event{
		{TrialNr: 0, Onset: 0.0, EventType: EventResponse, Response: "space", NrFrames: 7},
		{TrialNr: 0, Onset: 0.2, EventType: "stim", NrFrames: 12},
		{TrialNr: 0, Onset: 0.9, EventType: EventResponse, Response: "left", NrFrames: 9},
		{TrialNr: 1, Onset: 1.4, EventType: "stim", NrFrames: 40},
	}
	rows, err := Finalize(evs, 0.0, 2.0, 20)
	if err != nil {
		t.Fatal(err)
	}

	for _, i := range []int{0, 2} {
		if rows[i].Duration != nil {
			t.Errorf("response row %d has duration %v, want nil", i, *rows[i].Duration)
		}
	}
	// Response rows keep the frame count they were logged with.
	if rows[0].NrFrames != 7 || rows[2].NrFrames != 9 {
		t.Errorf("response nr_frames changed: got %d, %d", rows[0].NrFrames, rows[2].NrFrames)
	}
	// The gap between the two stim events skips the intervening response.
	if *rows[1].Duration != 1.2 {
		t.Errorf("stim duration = %v, want 1.2", *rows[1].Duration)
	}
	if rows[1].NrFrames != 40 {
		t.Errorf("stim nr_frames = %d, want 40", rows[1].NrFrames)
	}
}

// The final duration is measured from the onset of the last event overall,
// even when that event is a response.
func TestFinalizeLastDurationUsesOverallLastOnset(t *testing.T) {
	evs := []Event{
		{TrialNr: 0, Onset: 0.0, EventType: "instruction", Phase: 0, NrFrames: 5},
		{TrialNr: 1, Onset: 2.0, EventType: "stim", Phase: 1, NrFrames: 8},
		{TrialNr: 2, Onset: 2.05, EventType: EventResponse, Phase: 1, NrFrames: 0},
	}
	rows, err := Finalize(evs, 100.0, 104.0, 11)
	if err != nil {
		t.Fatal(err)
	}

	if *rows[0].Duration != 2.0 {
		t.Errorf("row 0 duration = %v, want 2.0", *rows[0].Duration)
	}
	if rows[0].NrFrames != 8 {
		t.Errorf("row 0 nr_frames = %d, want 8", rows[0].NrFrames)
	}
	if *rows[1].Duration != 104.0-2.05 {
		t.Errorf("row 1 duration = %v, want %v", *rows[1].Duration, 104.0-2.05)
	}
	if rows[1].NrFrames != 11 {
		t.Errorf("row 1 nr_frames = %d, want 11", rows[1].NrFrames)
	}
	if rows[2].Duration != nil {
		t.Errorf("row 2 duration = %v, want nil", *rows[2].Duration)
	}
}

func TestFinalizeOnsetAbs(t *testing.T) {
	evs := []Event{
		{Onset: 0.0, EventType: "a"},
		{Onset: 1.5, EventType: EventResponse},
		{Onset: 3.25, EventType: "b"},
	}
	rows, err := Finalize(evs, 1234.5, 1240.0, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1234.5, 1236.0, 1237.75}
	for i := range rows {
		if rows[i].OnsetAbs != want[i] {
			t.Errorf("row %d: onset_abs = %v, want %v", i, rows[i].OnsetAbs, want[i])
		}
	}
}

func TestFinalizePreservesOrderOnDuplicateTrialNr(t *testing.T) {
	evs := []Event{
		{TrialNr: 3, Onset: 0.0, EventType: "fix"},
		{TrialNr: 3, Onset: 0.5, EventType: "stim"},
		{TrialNr: 3, Onset: 1.0, EventType: "fix"},
	}
	rows, err := Finalize(evs, 0.0, 2.0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i := range rows {
		if rows[i].Onset != evs[i].Onset {
			t.Errorf("row %d out of order: onset %v", i, rows[i].Onset)
		}
	}
}

func TestLogSnapshotIsACopy(t *testing.T) {
	l := NewLog()
	l.Append(Event{TrialNr: 0, Onset: 0.0, EventType: "stim"})
	snap := l.Events()
	snap[0].Onset = 99.0
	if l.Events()[0].Onset != 0.0 {
		t.Error("mutating a snapshot changed the log")
	}
}
