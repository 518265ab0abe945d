package events

// Finalize turns the raw events of a completed run into the output table.
//
// Every event gets an absolute onset (onset + startAbs). Non-response events
// additionally get a duration and a corrected frame count: the duration of
// phase k is the onset gap to the next non-response event, and its frame
// count is the count captured when that next event started. The last
// non-response event runs until stopAbs, measured from the onset of the last
// event overall (response or not), and takes finalFrames, the live frame
// counter sampled at close time.
//
// Row order follows the input order; trial_nr is a label, not a key.
func Finalize(evs []Event, startAbs, stopAbs float64, finalFrames int) ([]Row, error) {
	if len(evs) == 0 {
		return nil, ErrEmptyLog
	}

	rows := make([]Row, len(evs))
	for i, e := range evs {
		rows[i] = Row{Event: e, OnsetAbs: e.Onset + startAbs}
	}

	var nonresp []int
	for i, e := range evs {
		if e.EventType != EventResponse {
			nonresp = append(nonresp, i)
		}
	}

	lastOnset := evs[len(evs)-1].Onset
	for k, idx := range nonresp {
		var d float64
		if k < len(nonresp)-1 {
			next := nonresp[k+1]
			d = evs[next].Onset - evs[idx].Onset
			rows[idx].NrFrames = evs[next].NrFrames
		} else {
			d = stopAbs - lastOnset
			rows[idx].NrFrames = finalFrames
		}
		dur := d
		rows[idx].Duration = &dur
	}

	return rows, nil
}
