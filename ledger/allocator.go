package ledger

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// NumberLength is the number of decimal digits in an account number
const NumberLength = 10

// Source produces candidate account numbers
type Source interface {
	Next() string
}

// RandomSource draws NumberLength uniform digits from an injected generator.
// Leading zeros are allowed.
type RandomSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomSource(rnd *rand.Rand) *RandomSource {
	return &RandomSource{rnd: rnd}
}

// NewSeededSource returns a RandomSource seeded from crypto/rand
func NewSeededSource() *RandomSource {
	var seed [8]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic(err)
	}
	return NewRandomSource(rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(seed[:])))))
}

func (s *RandomSource) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := make([]byte, NumberLength)
	for i := range b {
		b[i] = byte('0' + s.rnd.Intn(10))
	}
	return string(b)
}

// SequenceSource replays a fixed list of numbers, wrapping around at the end
type SequenceSource struct {
	mu      sync.Mutex
	numbers []string
	next    int
}

func NewSequenceSource(numbers ...string) *SequenceSource {
	return &SequenceSource{numbers: numbers}
}

func (s *SequenceSource) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.numbers[s.next%len(s.numbers)]
	s.next++
	return n
}

// NumberChecker reports whether a number is already assigned
type NumberChecker interface {
	NumberExists(ctx context.Context, number string) (bool, error)
}

type AllocatorConfig struct {
	Source Source
	// a warning is logged after every WarnEvery consecutive collisions
	WarnEvery int
	Logger    hclog.Logger
}

// Allocator hands out account numbers not yet present in the store.
// It retries without bound; only context cancellation or a checker error stops it.
type Allocator struct {
	checker NumberChecker
	config  AllocatorConfig
}

func NewAllocator(checker NumberChecker, config AllocatorConfig) *Allocator {
	if config.Source == nil {
		config.Source = NewSeededSource()
	}
	if config.WarnEvery <= 0 {
		config.WarnEvery = 10
	}
	if config.Logger == nil {
		config.Logger = hclog.NewNullLogger()
	}
	return &Allocator{checker: checker, config: config}
}

func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("allocating account number: %w", err)
		}

		number := a.config.Source.Next()
		taken, err := a.checker.NumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !taken {
			return number, nil
		}

		if attempt%a.config.WarnEvery == 0 {
			a.config.Logger.Warn("account number collisions", "attempts", attempt)
		}
	}
}
