package journal

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	record      = []byte(`{"transaction":"d4f1"}`)
	recordWidth = uint64(len(record)) + frameWidth
)

func openTestStore(t *testing.T, name string) *store {
	t.Helper()
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	require.NoError(t, err)
	return newStore(f)
}

func TestStoreAppendRead(t *testing.T) {
	name := filepath.Join(t.TempDir(), "0.store")
	s := openTestStore(t, name)
	_, err := s.recover(func(uint64) error { return nil })
	require.NoError(t, err)

	for i := uint64(0); i < 4; i++ {
		pos, err := s.Append(record)
		require.NoError(t, err)
		require.Equal(t, recordWidth*i, pos)
	}
	for i := uint64(0); i < 4; i++ {
		got, err := s.ReadAt(recordWidth * i)
		require.NoError(t, err)
		require.Equal(t, record, got)
	}

	_, err = s.ReadAt(s.size + 10)
	require.Equal(t, io.EOF, err)
	require.NoError(t, s.Close())

	// reopening finds every frame again
	s = openTestStore(t, name)
	var positions []uint64
	torn, err := s.recover(func(pos uint64) error {
		positions = append(positions, pos)
		return nil
	})
	require.NoError(t, err)
	require.Zero(t, torn)
	require.Equal(t, []uint64{0, recordWidth, 2 * recordWidth, 3 * recordWidth}, positions)
	require.Equal(t, 4*recordWidth, s.size)
	require.NoError(t, s.Close())
}

func TestStoreRecoverCutsTornTail(t *testing.T) {
	name := filepath.Join(t.TempDir(), "0.store")
	s := openTestStore(t, name)
	_, err := s.recover(func(uint64) error { return nil })
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = s.Append(record)
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	// half a frame, as a crash mid-write leaves it
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_APPEND, 0600)
	require.NoError(t, err)
	_, err = f.Write([]byte{0, 0, 0, 40, 1, 2})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s = openTestStore(t, name)
	n := 0
	torn, err := s.recover(func(uint64) error {
		n++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, uint64(6), torn)
	require.Equal(t, 2, n)

	fi, err := os.Stat(name)
	require.NoError(t, err)
	require.Equal(t, int64(2*recordWidth), fi.Size())

	// appends continue right after the last intact frame
	pos, err := s.Append(record)
	require.NoError(t, err)
	require.Equal(t, 2*recordWidth, pos)
	got, err := s.ReadAt(pos)
	require.NoError(t, err)
	require.Equal(t, record, got)
	require.NoError(t, s.Close())
}

func TestStoreDetectsCorruption(t *testing.T) {
	name := filepath.Join(t.TempDir(), "0.store")
	s := openTestStore(t, name)
	_, err := s.recover(func(uint64) error { return nil })
	require.NoError(t, err)
	_, err = s.Append(record)
	require.NoError(t, err)
	_, err = s.Append(record)
	require.NoError(t, err)
	require.NoError(t, s.Sync())

	// flip a payload byte of the first frame
	f, err := os.OpenFile(name, os.O_RDWR, 0600)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{'X'}, frameWidth+2)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = s.ReadAt(0)
	require.Equal(t, ErrCorrupt, err)
	got, err := s.ReadAt(recordWidth)
	require.NoError(t, err)
	require.Equal(t, record, got)
	require.NoError(t, s.Close())
}
