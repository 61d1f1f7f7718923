// Package shuffle produces a non-repeating random play order over [0,total)
// without materializing the permutation.
package shuffle

import (
	"fmt"
	"math/bits"
	"math/rand/v2"
	"slices"

	"github.com/pocketshuffle/pocketshuffle/internal/fault"
)

// NoPrevious is returned by Last when there is no earlier draw to go back to.
const NoPrevious = -1

const (
	DefaultHistoryLimit = 32
	DefaultRetryFactor  = 32
	minRetries          = 1024
)

type Options struct {
	// HistoryLimit caps the draws kept for Last. Oldest entries are dropped.
	HistoryLimit int
	// RetryFactor scales the rejection-sampling retry cap with total.
	RetryFactor int
	// Rand overrides the random source, mostly for tests.
	Rand *rand.Rand
}

// Shuffler draws each index once per round by rejection sampling against a
// bitset of used indices, and keeps a short history stack for one-step undo.
type Shuffler struct {
	total     int
	remaining int
	used      []uint64
	history   []int
	limit     int
	retries   int
	rng       *rand.Rand
}

func New(total int, opts Options) *Shuffler {
	if total < 0 {
		total = 0
	}
	if opts.HistoryLimit < 2 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.RetryFactor <= 0 {
		opts.RetryFactor = DefaultRetryFactor
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Shuffler{
		total:     total,
		remaining: total,
		used:      make([]uint64, (total+63)/64),
		limit:     opts.HistoryLimit,
		retries:   max(minRetries, total*opts.RetryFactor),
		rng:       opts.Rand,
	}
}

func (s *Shuffler) Total() int     { return s.total }
func (s *Shuffler) Remaining() int { return s.remaining }

// Next returns the next index of the current round, starting a new round
// when every index has been drawn.
func (s *Shuffler) Next() (int, error) {
	if s.total == 0 {
		return 0, fault.ErrCatalogEmpty
	}
	if s.remaining == 0 {
		s.reset()
	}
	for try := 0; try < s.retries; try++ {
		i := s.rng.IntN(s.total)
		if s.isUsed(i) {
			continue
		}
		s.mark(i)
		s.push(i)
		return i, nil
	}
	return 0, fmt.Errorf("%w: %d tries, %d of %d remaining", fault.ErrShuffleStalled, s.retries, s.remaining, s.total)
}

// Last undoes the most recent draw: the current index is released back into
// the round and the previous one is returned. It is not counted as a draw.
func (s *Shuffler) Last() int {
	if len(s.history) < 2 {
		return NoPrevious
	}
	cur := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.unmark(cur)
	return s.history[len(s.history)-1]
}

// Release hands a drawn index back to the current round and drops its most
// recent history entry. Indices not drawn in this round are ignored.
func (s *Shuffler) Release(i int) {
	if i < 0 || i >= s.total || !s.isUsed(i) {
		return
	}
	s.unmark(i)
	for k := len(s.history) - 1; k >= 0; k-- {
		if s.history[k] == i {
			s.history = slices.Delete(s.history, k, k+1)
			return
		}
	}
}

// Seed accepts a resumed index as already drawn in the current round.
func (s *Shuffler) Seed(i int) error {
	if i < 0 || i >= s.total {
		return fmt.Errorf("seed %d out of range [0,%d)", i, s.total)
	}
	if s.remaining == 0 {
		s.reset()
	}
	s.mark(i)
	s.push(i)
	return nil
}

func (s *Shuffler) reset() {
	clear(s.used)
	s.history = s.history[:0]
	s.remaining = s.total
}

func (s *Shuffler) push(i int) {
	if len(s.history) == s.limit {
		copy(s.history, s.history[1:])
		s.history = s.history[:len(s.history)-1]
	}
	s.history = append(s.history, i)
}

func (s *Shuffler) isUsed(i int) bool {
	return s.used[i/64]&(1<<(uint(i)%64)) != 0
}

func (s *Shuffler) mark(i int) {
	if !s.isUsed(i) {
		s.used[i/64] |= 1 << (uint(i) % 64)
		s.remaining--
	}
}

func (s *Shuffler) unmark(i int) {
	if s.isUsed(i) {
		s.used[i/64] &^= 1 << (uint(i) % 64)
		s.remaining++
	}
}

// usedCount is the population of the used set; it always equals total-remaining.
func (s *Shuffler) usedCount() int {
	n := 0
	for _, w := range s.used {
		n += bits.OnesCount64(w)
	}
	return n
}
