package events

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleRows(t *testing.T) []Row {
	t.Helper()
	evs := []Event{
		{TrialNr: 0, Onset: 0.0, EventType: "instruction", Phase: 0, NrFrames: 5},
		{TrialNr: 1, Onset: 2.0, EventType: "stim", Phase: 1, NrFrames: 8},
		{TrialNr: 2, Onset: 2.05, EventType: EventResponse, Phase: 1, Response: "space", NrFrames: 0},
	}
	rows, err := Finalize(evs, 100.0, 104.0, 11)
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestWriteTSVHeaderAndNulls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub-01.tsv")
	if err := WriteTSV(path, sampleRows(t)); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if lines[0] != strings.Join(Columns, "\t") {
		t.Errorf("bad header: %q", lines[0])
	}
	// The response row ends with an empty duration field.
	if !strings.HasSuffix(lines[3], "\t") {
		t.Errorf("response row should have empty duration: %q", lines[3])
	}
	if lines[2] != "1\t2\tstim\t1\t\t11\t102\t"+formatFloat(104.0-2.05) {
		t.Errorf("unexpected stim row: %q", lines[2])
	}
}

func TestWriteTSVCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nested", "sub-01.tsv")
	if err := WriteTSV(path, sampleRows(t)); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
}

func TestWriteTSVOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub-01.tsv")
	if err := os.WriteFile(path, []byte("stale contents\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := WriteTSV(path, sampleRows(t)); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "stale") {
		t.Error("old contents survived the write")
	}
}

func TestWriteTSVEmptyWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub-01.tsv")
	if err := WriteTSV(path, nil); err != ErrEmptyLog {
		t.Fatalf("expected ErrEmptyLog, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file was created for an empty log")
	}
}

// Reading the file back and re-deriving durations from its own onset column
// must reproduce the written duration column.
func TestRoundTripDurationConsistency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub-01.tsv")
	evs := []Event{
		{TrialNr: 0, Onset: 0.0, EventType: "fix", NrFrames: 30},
		{TrialNr: 0, Onset: 0.75, EventType: "stim", NrFrames: 45},
		{TrialNr: 0, Onset: 1.1, EventType: EventResponse, Response: "left", NrFrames: 2},
		{TrialNr: 1, Onset: 1.5, EventType: "fix", NrFrames: 24},
	}
	if rows, err := Finalize(evs, 500.25, 3.5, 60); err != nil {
		t.Fatal(err)
	} else if err := WriteTSV(path, rows); err != nil {
		t.Fatal(err)
	}

	got, err := ReadTSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(evs) {
		t.Fatalf("expected %d rows, got %d", len(evs), len(got))
	}

	var nonresp []int
	for i, r := range got {
		if r.OnsetAbs != r.Onset+500.25 {
			t.Errorf("row %d: onset_abs %v does not match onset %v + start", i, r.OnsetAbs, r.Onset)
		}
		if r.EventType != EventResponse {
			nonresp = append(nonresp, i)
		} else if r.Duration != nil {
			t.Errorf("row %d: response with duration %v", i, *r.Duration)
		}
	}
	for k, idx := range nonresp[:len(nonresp)-1] {
		want := got[nonresp[k+1]].Onset - got[idx].Onset
		if got[idx].Duration == nil || *got[idx].Duration != want {
			t.Errorf("row %d: duration %v, re-derived %v", idx, got[idx].Duration, want)
		}
	}
	last := nonresp[len(nonresp)-1]
	if got[last].Duration == nil || *got[last].Duration != 3.5-1.5 {
		t.Errorf("last duration %v, want 2", got[last].Duration)
	}
}
