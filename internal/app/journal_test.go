package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func journalWith(window int, versions ...uint64) *Journal {
	j := NewJournal(window)
	for _, v := range versions {
		j.Append(Delta{Version: v})
	}
	return j
}

func TestJournalEvictsBeyondWindow(t *testing.T) {
	j := journalWith(3, 1, 2, 3, 4, 5)
	assert.Equal(t, uint64(5), j.Latest())

	deltas, ok := j.Since(2)
	require.True(t, ok)
	require.Len(t, deltas, 3)
	assert.Equal(t, uint64(3), deltas[0].Version)
	assert.Equal(t, uint64(5), deltas[2].Version)
}

func TestJournalSinceGapForcesSnapshot(t *testing.T) {
	j := journalWith(3, 1, 2, 3, 4, 5)

	// Version 1 was evicted; the gap to version 2 cannot be replayed.
	_, ok := j.Since(1)
	assert.False(t, ok)

	_, ok = j.Since(0)
	assert.False(t, ok)
}

func TestJournalSinceUpToDateClient(t *testing.T) {
	j := journalWith(4, 1, 2, 3)

	deltas, ok := j.Since(3)
	require.True(t, ok)
	assert.Empty(t, deltas)
}

func TestJournalFutureVersionForcesSnapshot(t *testing.T) {
	j := journalWith(4, 1, 2, 3)

	// A client ahead of the journal tracked a previous game instance, for
	// example before the owner restarted a finished game. Only a snapshot
	// can converge it.
	_, ok := j.Since(9)
	assert.False(t, ok)

	_, ok = NewJournal(8).Since(5)
	assert.False(t, ok)
}

func TestJournalEmpty(t *testing.T) {
	j := NewJournal(8)
	assert.Equal(t, uint64(0), j.Latest())

	deltas, ok := j.Since(0)
	require.True(t, ok)
	assert.Empty(t, deltas)
}

func TestJournalMinimumWindow(t *testing.T) {
	j := journalWith(0, 1, 2)

	deltas, ok := j.Since(1)
	require.True(t, ok)
	require.Len(t, deltas, 1)
	assert.Equal(t, uint64(2), deltas[0].Version)
}
