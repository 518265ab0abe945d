package events

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Columns is the output column order, trial_nr first.
var Columns = []string{
	"trial_nr", "onset", "event_type", "phase",
	"response", "nr_frames", "onset_abs", "duration",
}

// WriteTSV writes the finalized table to path as UTF-8 tab-separated text,
// creating the parent directory if needed and overwriting any existing file.
// Null durations are written as the empty string.
func WriteTSV(path string, rows []Row) error {
	if len(rows) == 0 {
		return ErrEmptyLog
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'

	w.Write(Columns)
	for _, r := range rows {
		dur := ""
		if r.Duration != nil {
			dur = formatFloat(*r.Duration)
		}
		w.Write([]string{
			strconv.Itoa(r.TrialNr),
			formatFloat(r.Onset),
			r.EventType,
			strconv.Itoa(r.Phase),
			r.Response,
			strconv.Itoa(r.NrFrames),
			formatFloat(r.OnsetAbs),
			dur,
		})
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return f.Close()
}

// ReadTSV reads a table previously written by WriteTSV.
func ReadTSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header row", path)
	}
	if got := len(records[0]); got != len(Columns) {
		return nil, fmt.Errorf("%s: expected %d columns, got %d", path, len(Columns), got)
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(rec []string) (Row, error) {
	var row Row
	var err error

	if row.TrialNr, err = strconv.Atoi(rec[0]); err != nil {
		return row, fmt.Errorf("trial_nr: %w", err)
	}
	if row.Onset, err = strconv.ParseFloat(rec[1], 64); err != nil {
		return row, fmt.Errorf("onset: %w", err)
	}
	row.EventType = rec[2]
	if row.Phase, err = strconv.Atoi(rec[3]); err != nil {
		return row, fmt.Errorf("phase: %w", err)
	}
	row.Response = rec[4]
	if row.NrFrames, err = strconv.Atoi(rec[5]); err != nil {
		return row, fmt.Errorf("nr_frames: %w", err)
	}
	if row.OnsetAbs, err = strconv.ParseFloat(rec[6], 64); err != nil {
		return row, fmt.Errorf("onset_abs: %w", err)
	}
	if rec[7] != "" {
		d, err := strconv.ParseFloat(rec[7], 64)
		if err != nil {
			return row, fmt.Errorf("duration: %w", err)
		}
		row.Duration = &d
	}
	return row, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
