package journal

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndex(t *testing.T) {
	name := filepath.Join(t.TempDir(), "0.index")
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, 0600)
	require.NoError(t, err)

	c := Config{}
	c.Segment.MaxIndexBytes = 3 * entryWidth
	idx, err := newIndex(f, c)
	require.NoError(t, err)
	require.Equal(t, name, idx.Name())

	_, err = idx.Position(0)
	require.Equal(t, io.EOF, err)

	positions := []uint64{0, 30, 61}
	for slot, want := range positions {
		require.NoError(t, idx.Add(want))
		got, err := idx.Position(uint64(slot))
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	require.Equal(t, uint64(3), idx.Len())

	// full
	require.Equal(t, io.EOF, idx.Add(90))
	_, err = idx.Position(3)
	require.Equal(t, io.EOF, err)
	require.NoError(t, idx.Close())

	fi, err := os.Stat(name)
	require.NoError(t, err)
	require.Equal(t, int64(3*entryWidth), fi.Size())

	// a reopened index starts empty; the segment refills it from the store
	f, err = os.OpenFile(name, os.O_RDWR, 0600)
	require.NoError(t, err)
	idx, err = newIndex(f, c)
	require.NoError(t, err)
	require.Zero(t, idx.Len())
	require.NoError(t, idx.Close())
}
