// Package allocator assigns unique per-day booking numbers.
//
// Number selection is two-phase: a bounded run of uniform random draws keeps
// early-morning bookings from clustering at the low end of the range, and a
// deterministic linear scan guarantees termination and full utilization of
// the range. The pick itself is pure; the surrounding read-modify-write of
// the daily counter must run inside a store transaction (see
// services.CreateBooking) so concurrent allocations for the same date
// serialize correctly.
package allocator

import (
	"math/rand"

	"github.com/donorlink/plasma-center/pkg/core/model"
)

const (
	// MinNumber and MaxNumber bound the booking-number range, inclusive.
	MinNumber = 1
	MaxNumber = 500

	// Capacity is the number of bookings a single date can hold.
	Capacity = MaxNumber - MinNumber + 1

	// maxRandomDraws bounds the random phase before falling back to the
	// linear scan.
	maxRandomDraws = 1000
)

// drawFn returns a uniform value in [0, n). Injected in tests to force the
// fallback path.
type drawFn func(n int) int

// PickNumber selects an unused booking number for a date given the set of
// numbers already consumed. Returns model.ErrExhausted when the full range is
// used.
func PickNumber(used map[int]bool) (int, error) {
	return pickNumber(used, rand.Intn)
}

func pickNumber(used map[int]bool, draw drawFn) (int, error) {
	if len(used) >= Capacity {
		return 0, model.ErrExhausted
	}

	for i := 0; i < maxRandomDraws; i++ {
		cand := MinNumber + draw(Capacity)
		if !used[cand] {
			return cand, nil
		}
	}

	// Pathologically unlucky draw run; a free slot exists, take the lowest.
	for n := MinNumber; n <= MaxNumber; n++ {
		if !used[n] {
			return n, nil
		}
	}

	return 0, model.ErrExhausted
}

// UsedSet converts a counter's used-number list into a lookup set, dropping
// anything outside the valid range so a corrupt counter cannot widen it.
func UsedSet(numbers []int) map[int]bool {
	used := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		if n >= MinNumber && n <= MaxNumber {
			used[n] = true
		}
	}
	return used
}
