package journal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"os"
	"sync"
)

const (
	lenWidth   = 4
	sumWidth   = 4
	frameWidth = lenWidth + sumWidth
)

var (
	enc      = binary.BigEndian
	crcTable = crc32.MakeTable(crc32.Castagnoli)

	// ErrCorrupt means a stored record does not match its checksum or its offset
	ErrCorrupt = errors.New("journal: corrupt record")
)

// store is the file of framed records behind a segment.
// A frame is the payload length, the payload's CRC-32C, then the payload.
type store struct {
	file *os.File
	mu   sync.Mutex
	w    *bufio.Writer
	size uint64
}

// newStore wraps f. Its size is only trusted once recover has walked the file.
func newStore(f *os.File) *store {
	return &store{
		file: f,
		w:    bufio.NewWriter(f),
	}
}

// recover calls visit with the position of every intact frame, oldest first,
// and cuts off whatever follows the last one: the partial frame a crash leaves
// behind. It returns the number of bytes cut.
func (s *store) recover(visit func(pos uint64) error) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fi, err := s.file.Stat()
	if err != nil {
		return 0, err
	}
	end := uint64(fi.Size())
	r := bufio.NewReader(io.NewSectionReader(s.file, 0, fi.Size()))

	var pos uint64
	for pos < end {
		payload, err := readFrame(r, end-pos)
		if err == io.ErrUnexpectedEOF || err == ErrCorrupt {
			break
		}
		if err != nil {
			return 0, err
		}
		if err = visit(pos); err != nil {
			return 0, err
		}
		pos += frameWidth + uint64(len(payload))
	}

	s.size = pos
	if pos == end {
		return 0, nil
	}
	if err := s.file.Truncate(int64(pos)); err != nil {
		return 0, err
	}
	return end - pos, nil
}

// Append frames p and returns the position the frame starts at
func (s *store) Append(p []byte) (pos uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var header [frameWidth]byte
	enc.PutUint32(header[:lenWidth], uint32(len(p)))
	enc.PutUint32(header[lenWidth:], crc32.Checksum(p, crcTable))

	if _, err = s.w.Write(header[:]); err != nil {
		return 0, err
	}
	if _, err = s.w.Write(p); err != nil {
		return 0, err
	}

	pos = s.size
	s.size += frameWidth + uint64(len(p))
	return pos, nil
}

// ReadAt returns the payload of the frame at pos; io.EOF means pos is past the end
func (s *store) ReadAt(pos uint64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.w.Flush(); err != nil {
		return nil, err
	}
	if pos >= s.size {
		return nil, io.EOF
	}

	left := s.size - pos
	payload, err := readFrame(io.NewSectionReader(s.file, int64(pos), int64(left)), left)
	if err == io.ErrUnexpectedEOF {
		return nil, ErrCorrupt
	}
	return payload, err
}

// readFrame reads one frame that must fit in left bytes
func readFrame(r io.Reader, left uint64) ([]byte, error) {
	var header [frameWidth]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	n := uint64(enc.Uint32(header[:lenWidth]))
	if n > left-frameWidth {
		return nil, io.ErrUnexpectedEOF
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	if crc32.Checksum(payload, crcTable) != enc.Uint32(header[lenWidth:]) {
		return nil, ErrCorrupt
	}
	return payload, nil
}

func (s *store) Name() string {
	return s.file.Name()
}

// Sync flushes buffered frames to disk
func (s *store) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.w.Flush(); err != nil {
		return err
	}
	return s.file.Sync()
}

func (s *store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.w.Flush(); err != nil {
		return err
	}
	return s.file.Close()
}
