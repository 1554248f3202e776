package journal_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	api "bank/api/v1"
	"bank/internal/journal"
)

func TestJournal(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, j *journal.Journal){
		"append and read a record":      testAppendRead,
		"offset out of range":           testOutOfRange,
		"reopen continues the offsets":  testReopen,
		"reads across segments":         testAcrossSegments,
		"lowest and highest offset":     testOffsets,
		"truncate drops old segments":   testTruncate,
		"truncate keeps active segment": testTruncateActive,
	} {
		t.Run(scenario, func(t *testing.T) {
			c := journal.Config{}
			// a couple of records per segment
			c.Segment.MaxStoreBytes = 64
			j, err := journal.Open(t.TempDir(), c)
			require.NoError(t, err)
			defer j.Close()

			fn(t, j)
		})
	}
}

func outcome() *api.Record {
	return &api.Record{Value: []byte("transfer completed")}
}

func testAppendRead(t *testing.T, j *journal.Journal) {
	record := outcome()
	off, err := j.Append(record)
	require.NoError(t, err)
	require.Equal(t, uint64(0), off)

	read, err := j.Read(off)
	require.NoError(t, err)
	require.Equal(t, record.Value, read.Value)
	require.Equal(t, off, read.Offset)
}

func testOutOfRange(t *testing.T, j *journal.Journal) {
	read, err := j.Read(2)
	require.Nil(t, read)
	require.Equal(t, api.ErrOffsetOutOfRange{Offset: 2}, err)
}

func testReopen(t *testing.T, j *journal.Journal) {
	for i := 0; i < 5; i++ {
		_, err := j.Append(outcome())
		require.NoError(t, err)
	}
	require.NoError(t, j.Close())

	n, err := journal.Open(j.Dir, j.Config)
	require.NoError(t, err)
	defer n.Close()

	off, err := n.Append(outcome())
	require.NoError(t, err)
	require.Equal(t, uint64(5), off)

	for i := uint64(0); i <= off; i++ {
		read, err := n.Read(i)
		require.NoError(t, err)
		require.Equal(t, i, read.Offset)
	}
}

func testAcrossSegments(t *testing.T, j *journal.Journal) {
	for i := 0; i < 10; i++ {
		_, err := j.Append(&api.Record{Value: []byte{byte(i)}})
		require.NoError(t, err)
	}
	for i := 0; i < 10; i++ {
		read, err := j.Read(uint64(i))
		require.NoError(t, err)
		require.Equal(t, []byte{byte(i)}, read.Value)
	}
}

func testOffsets(t *testing.T, j *journal.Journal) {
	for i := 0; i < 3; i++ {
		_, err := j.Append(outcome())
		require.NoError(t, err)
	}

	lowest, err := j.LowestOffset()
	require.NoError(t, err)
	require.Equal(t, uint64(0), lowest)

	highest, err := j.HighestOffset()
	require.NoError(t, err)
	require.Equal(t, uint64(2), highest)
}

func testTruncate(t *testing.T, j *journal.Journal) {
	for i := 0; i < 6; i++ {
		_, err := j.Append(outcome())
		require.NoError(t, err)
	}

	require.NoError(t, j.Truncate(3))

	_, err := j.Read(0)
	require.IsType(t, api.ErrOffsetOutOfRange{}, err)

	lowest, err := j.LowestOffset()
	require.NoError(t, err)
	require.True(t, lowest > 0)

	_, err = j.Read(5)
	require.NoError(t, err)
}

func testTruncateActive(t *testing.T, j *journal.Journal) {
	_, err := j.Append(outcome())
	require.NoError(t, err)

	require.NoError(t, j.Truncate(100))

	off, err := j.Append(outcome())
	require.NoError(t, err)
	require.Equal(t, uint64(1), off)
}

func TestJournalRecovery(t *testing.T) {
	dir := t.TempDir()
	j, err := journal.Open(dir, journal.Config{})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = j.Append(&api.Record{Value: []byte{byte(i)}})
		require.NoError(t, err)
	}
	require.NoError(t, j.Close())

	// a crash leaves a stale index and half a record behind
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0.index"), make([]byte, 64), 0644))
	f, err := os.OpenFile(filepath.Join(dir, "0.store"), os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.Write([]byte{0, 0, 0, 9, 0xde, 0xad})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	j, err = journal.Open(dir, journal.Config{})
	require.NoError(t, err)
	defer j.Close()

	highest, err := j.HighestOffset()
	require.NoError(t, err)
	require.Equal(t, uint64(2), highest)
	for i := 0; i < 3; i++ {
		read, err := j.Read(uint64(i))
		require.NoError(t, err)
		require.Equal(t, []byte{byte(i)}, read.Value)
	}

	off, err := j.Append(&api.Record{Value: []byte{3}})
	require.NoError(t, err)
	require.Equal(t, uint64(3), off)
	read, err := j.Read(off)
	require.NoError(t, err)
	require.Equal(t, []byte{3}, read.Value)
}
