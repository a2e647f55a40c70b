package errorreport

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_AddAndSnapshot(t *testing.T) {
	buf := NewBuffer(3)

	buf.Add(Report{ID: "1"})
	buf.Add(Report{ID: "2"})
	assert.Equal(t, 2, buf.Len())

	snap := buf.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "1", snap[0].ID, "snapshot is oldest first")
	assert.Equal(t, "2", snap[1].ID)

	// Snapshot does not drain.
	assert.Equal(t, 2, buf.Len())
}

func TestBuffer_EvictsOldest(t *testing.T) {
	buf := NewBuffer(3)
	for i := 1; i <= 5; i++ {
		buf.Add(Report{ID: fmt.Sprintf("%d", i)})
	}

	assert.Equal(t, 3, buf.Len())
	snap := buf.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "3", snap[0].ID)
	assert.Equal(t, "5", snap[2].ID)
}

func TestBuffer_Drain(t *testing.T) {
	buf := NewBuffer(2)
	buf.Add(Report{ID: "1"})
	buf.Add(Report{ID: "2"})

	drained := buf.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, 0, buf.Len())
	assert.Empty(t, buf.Drain())

	// The buffer keeps working after a drain.
	buf.Add(Report{ID: "3"})
	assert.Equal(t, 1, buf.Len())
}

func TestBuffer_DefaultCapacity(t *testing.T) {
	buf := NewBuffer(0)
	for i := 0; i < 150; i++ {
		buf.Add(Report{ID: fmt.Sprintf("%d", i)})
	}
	assert.Equal(t, 100, buf.Len())
}
