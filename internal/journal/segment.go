package journal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogo/protobuf/proto"

	api "bank/api/v1"
)

// segment is a run of consecutive journal offsets starting at baseOffset,
// kept in {baseOffset}.store with {baseOffset}.index beside it
type segment struct {
	store      *store
	index      *index
	baseOffset uint64
	nextOffset uint64
	config     Config
}

func segmentPath(dir string, baseOffset uint64, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%d%s", baseOffset, ext))
}

// newSegment opens or creates the segment at baseOffset. The index is rebuilt
// from the store and a record torn by a crash is dropped from the tail.
func newSegment(dir string, baseOffset uint64, c Config) (*segment, error) {
	storeFile, err := os.OpenFile(segmentPath(dir, baseOffset, storeExt), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	indexFile, err := os.OpenFile(segmentPath(dir, baseOffset, indexExt), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		storeFile.Close()
		return nil, err
	}

	s := &segment{
		store:      newStore(storeFile),
		baseOffset: baseOffset,
		config:     c,
	}
	if s.index, err = newIndex(indexFile, c); err != nil {
		storeFile.Close()
		indexFile.Close()
		return nil, err
	}

	torn, err := s.store.recover(s.index.Add)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("recovering segment %d: %w", baseOffset, err)
	}
	if torn > 0 {
		c.Logger.Warn("dropped torn record", "segment", baseOffset, "bytes", torn)
	}

	s.nextOffset = baseOffset + s.index.Len()
	return s, nil
}

// Append stamps record with the next offset and writes it
func (s *segment) Append(record *api.Record) (uint64, error) {
	record.Offset = s.nextOffset
	b, err := proto.Marshal(record)
	if err != nil {
		return 0, err
	}

	pos, err := s.store.Append(b)
	if err != nil {
		return 0, err
	}
	if err = s.index.Add(pos); err != nil {
		return 0, err
	}

	s.nextOffset++
	return record.Offset, nil
}

func (s *segment) Read(offset uint64) (*api.Record, error) {
	pos, err := s.index.Position(offset - s.baseOffset)
	if err != nil {
		return nil, err
	}
	b, err := s.store.ReadAt(pos)
	if err != nil {
		return nil, err
	}

	record := &api.Record{}
	if err := proto.Unmarshal(b, record); err != nil {
		return nil, fmt.Errorf("%w: offset %d: %v", ErrCorrupt, offset, err)
	}
	if record.Offset != offset {
		return nil, fmt.Errorf("%w: offset %d holds offset %d", ErrCorrupt, offset, record.Offset)
	}
	return record, nil
}

func (s *segment) Contains(offset uint64) bool {
	return s.baseOffset <= offset && offset < s.nextOffset
}

// IsMaxed reports whether either file has reached its configured size
func (s *segment) IsMaxed() bool {
	return s.store.size >= s.config.Segment.MaxStoreBytes ||
		s.index.size+entryWidth > s.config.Segment.MaxIndexBytes
}

func (s *segment) Close() error {
	if err := s.index.Close(); err != nil {
		return err
	}
	return s.store.Close()
}

// Remove closes the segment and deletes its files
func (s *segment) Remove() error {
	if err := s.Close(); err != nil {
		return err
	}
	if err := os.Remove(s.index.Name()); err != nil {
		return err
	}
	return os.Remove(s.store.Name())
}
