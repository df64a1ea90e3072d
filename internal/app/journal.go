package app

// Delta is the authoritative update produced by one applied mutation.
type Delta struct {
	Version   uint64
	TurnIndex int
	Events    []Event
}

// Journal keeps the most recent deltas for incremental resync. Once a client's
// gap exceeds the window the server answers with a full snapshot instead.
type Journal struct {
	window int
	deltas []Delta
}

// NewJournal creates a journal bounded to the given replay window.
func NewJournal(window int) *Journal {
	if window < 1 {
		window = 1
	}
	return &Journal{window: window}
}

// Append records a delta, evicting the oldest entries beyond the window.
func (j *Journal) Append(d Delta) {
	j.deltas = append(j.deltas, d)
	if len(j.deltas) > j.window {
		j.deltas = j.deltas[len(j.deltas)-j.window:]
	}
}

// Latest returns the newest recorded version, or zero when empty.
func (j *Journal) Latest() uint64 {
	if len(j.deltas) == 0 {
		return 0
	}
	return j.deltas[len(j.deltas)-1].Version
}

// Since returns every delta after lastVersion. ok is false when the gap
// reaches past the replay window and the caller must fall back to a snapshot.
// A lastVersion ahead of the journal means the client tracked a previous game
// instance, so that also forces a snapshot.
func (j *Journal) Since(lastVersion uint64) ([]Delta, bool) {
	latest := j.Latest()
	if lastVersion == latest {
		return nil, true
	}
	if lastVersion > latest {
		return nil, false
	}
	if len(j.deltas) == 0 || j.deltas[0].Version > lastVersion+1 {
		return nil, false
	}
	var out []Delta
	for _, d := range j.deltas {
		if d.Version > lastVersion {
			out = append(out, d)
		}
	}
	return out, true
}
