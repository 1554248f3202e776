package journal

import (
	"io"
	"os"

	"github.com/tysontate/gommap"
)

// width of one index entry: the store position of a record
const entryWidth uint64 = 8

// index maps a record's place in its segment (its slot) to its position in the
// store. It is refilled from the store whenever the segment opens, so what the
// file held before is never read.
type index struct {
	file *os.File
	mmap gommap.MMap
	size uint64
}

func newIndex(f *os.File, c Config) (*index, error) {
	// a mapped file cannot grow, so size it for a full segment up front
	if err := f.Truncate(int64(c.Segment.MaxIndexBytes)); err != nil {
		return nil, err
	}
	mmap, err := gommap.Map(
		f.Fd(),
		gommap.PROT_READ|gommap.PROT_WRITE,
		gommap.MAP_SHARED,
	)
	if err != nil {
		return nil, err
	}
	return &index{file: f, mmap: mmap}, nil
}

// Len is the number of records indexed
func (i *index) Len() uint64 {
	return i.size / entryWidth
}

// Position returns where the record in slot starts; io.EOF means the slot is empty
func (i *index) Position(slot uint64) (uint64, error) {
	at := slot * entryWidth
	if at+entryWidth > i.size {
		return 0, io.EOF
	}
	return enc.Uint64(i.mmap[at : at+entryWidth]), nil
}

// Add indexes the next record; io.EOF means the index is full
func (i *index) Add(pos uint64) error {
	if uint64(len(i.mmap)) < i.size+entryWidth {
		return io.EOF
	}
	enc.PutUint64(i.mmap[i.size:i.size+entryWidth], pos)
	i.size += entryWidth
	return nil
}

func (i *index) Name() string {
	return i.file.Name()
}

// Close syncs the mapping and trims the file back to the entries written
func (i *index) Close() error {
	if err := i.mmap.Sync(gommap.MS_SYNC); err != nil {
		return err
	}
	if err := i.file.Truncate(int64(i.size)); err != nil {
		return err
	}
	return i.file.Close()
}
