// Package journal is an append-only, segmented record of completed transfers.
// Each terminal transfer outcome is appended once and can be replayed by offset.
package journal

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	api "bank/api/v1"
)

const (
	storeExt = ".store"
	indexExt = ".index"
)

type Journal struct {
	mu sync.RWMutex

	Dir    string
	Config Config

	logger   hclog.Logger
	active   *segment
	segments []*segment
}

// Open loads the segments found in dir, creating dir when missing
func Open(dir string, c Config) (*Journal, error) {
	if c.Segment.MaxStoreBytes == 0 {
		c.Segment.MaxStoreBytes = defaultMaxStoreBytes
	}
	if c.Segment.MaxIndexBytes == 0 {
		c.Segment.MaxIndexBytes = defaultMaxIndexBytes
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	j := &Journal{
		Dir:    dir,
		Config: c,
		logger: c.Logger.Named("journal"),
	}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Journal) load() error {
	entries, err := os.ReadDir(j.Dir)
	if err != nil {
		return err
	}

	var baseOffsets []uint64
	for _, entry := range entries {
		name := entry.Name()
		if filepath.Ext(name) != storeExt {
			continue
		}
		off, err := strconv.ParseUint(strings.TrimSuffix(name, storeExt), 10, 64)
		if err != nil {
			j.logger.Warn("ignoring unexpected file", "name", name)
			continue
		}
		baseOffsets = append(baseOffsets, off)
	}
	sort.Slice(baseOffsets, func(a, b int) bool {
		return baseOffsets[a] < baseOffsets[b]
	})

	for _, off := range baseOffsets {
		if err := j.newSegment(off); err != nil {
			return err
		}
	}
	if j.segments == nil {
		return j.newSegment(j.Config.Segment.InitialOffset)
	}

	j.logger.Debug("loaded", "segments", len(j.segments), "next_offset", j.active.nextOffset)
	return nil
}

// Append writes record and returns the offset it was given
func (j *Journal) Append(record *api.Record) (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	off, err := j.active.Append(record)
	if err != nil {
		return 0, err
	}
	if j.active.IsMaxed() {
		err = j.newSegment(off + 1)
	}
	return off, err
}

// Read returns the record at offset or api.ErrOffsetOutOfRange
func (j *Journal) Read(offset uint64) (*api.Record, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	for _, s := range j.segments {
		if s.Contains(offset) {
			return s.Read(offset)
		}
	}
	return nil, api.ErrOffsetOutOfRange{Offset: offset}
}

func (j *Journal) LowestOffset() (uint64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.segments[0].baseOffset, nil
}

// HighestOffset returns the offset of the last record, 0 when empty
func (j *Journal) HighestOffset() (uint64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	off := j.segments[len(j.segments)-1].nextOffset
	if off == 0 {
		return 0, nil
	}
	return off - 1, nil
}

// Truncate removes every segment whose records are all at or below lowest
func (j *Journal) Truncate(lowest uint64) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var segments []*segment
	for _, s := range j.segments {
		if s.nextOffset <= lowest+1 && s != j.active {
			if err := s.Remove(); err != nil {
				return err
			}
			continue
		}
		segments = append(segments, s)
	}
	j.segments = segments
	return nil
}

// Sync flushes the active segment to disk
func (j *Journal) Sync() error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.active.store.Sync()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, s := range j.segments {
		if err := s.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Remove closes the journal and deletes its directory
func (j *Journal) Remove() error {
	if err := j.Close(); err != nil {
		return err
	}
	return os.RemoveAll(j.Dir)
}

func (j *Journal) newSegment(off uint64) error {
	c := j.Config
	c.Logger = j.logger
	s, err := newSegment(j.Dir, off, c)
	if err != nil {
		return err
	}
	j.segments = append(j.segments, s)
	j.active = s
	return nil
}
