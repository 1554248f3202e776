package journal

import "github.com/hashicorp/go-hclog"

const (
	defaultMaxStoreBytes = 1 << 20
	defaultMaxIndexBytes = 1024 * entryWidth
)

// Config sizes the segments a Journal rolls over between
type Config struct {
	Segment struct {
		// offset given to the first record of an empty journal
		InitialOffset uint64
		// max size of a segment's store file
		MaxStoreBytes uint64
		// max size of a segment's index file
		MaxIndexBytes uint64
	}
	Logger hclog.Logger
}
