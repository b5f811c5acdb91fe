package state

import (
	"sync"

	"github.com/Pasqui1010/DART-Planner-sub001/apperr"
)

// Buffer is a bounded, single-writer/multi-reader ring buffer of
// DroneState, used for transport-delay compensation (spec.md §4.D).
// Writes come from exactly one producer (the estimator/IO task); reads come
// from many consumers (planner, controller, safety) under snapshot
// semantics via RWMutex.
type Buffer struct {
	mu              sync.RWMutex
	samples         []DroneState
	head            int // index of the most recently written sample
	count           int // number of valid samples, <= len(samples)
	maxExtrapolate  float64
	transportDelay  float64
}

// NewBuffer constructs a ring buffer with the given capacity (default 1000
// per spec.md §4.D), maxExtrapolate and transportDelay in seconds.
func NewBuffer(capacity int, maxExtrapolate, transportDelay float64) *Buffer {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Buffer{
		samples:        make([]DroneState, capacity),
		head:           -1,
		maxExtrapolate: maxExtrapolate,
		transportDelay: transportDelay,
	}
}

// Push appends a new state sample. Timestamps must be nondecreasing. A
// sample whose timestamp equals the most recent one replaces it; this is
// not limited to one repeat, every equal-timestamp push replaces the latest
// sample again. A regression is rejected and logged by the caller via the
// returned error.
func (b *Buffer) Push(s DroneState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count > 0 {
		last := b.at(b.head)
		if s.Timestamp < last.Timestamp {
			return apperr.Newf(apperr.Numeric, "state.buffer", false,
				"timestamp regression: got %v, last %v", s.Timestamp, last.Timestamp)
		}
		if s.Timestamp == last.Timestamp {
			// Idempotent replace of the most recent sample.
			b.samples[b.head] = s
			return nil
		}
	}

	b.head = (b.head + 1) % len(b.samples)
	b.samples[b.head] = s
	if b.count < len(b.samples) {
		b.count++
	}
	return nil
}

// at returns the i-th slot (raw ring index), caller holds the lock.
func (b *Buffer) at(i int) DroneState {
	return b.samples[i]
}

// oldestIndex returns the ring index of the oldest retained sample, caller
// holds the lock.
func (b *Buffer) oldestIndex() int {
	if b.count < len(b.samples) {
		return 0
	}
	return (b.head + 1) % len(b.samples)
}

// chronological returns the k-th sample in time order (0 = oldest), caller
// holds the lock.
func (b *Buffer) chronological(k int) DroneState {
	idx := (b.oldestIndex() + k) % len(b.samples)
	return b.samples[idx]
}

// GetAt returns the state at time t, interpolating between bracketing
// samples. Returns an error if t is out of range by more than
// maxExtrapolate (spec.md §4.D).
func (b *Buffer) GetAt(t float64) (DroneState, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 {
		return DroneState{}, apperr.Newf(apperr.Link, "state.buffer", false, "buffer is empty")
	}
	if b.count == 1 {
		only := b.chronological(0)
		if abs(t-only.Timestamp) > b.maxExtrapolate {
			return DroneState{}, apperr.Newf(apperr.Link, "state.buffer", false,
				"t=%v out of single-sample range (timestamp=%v, max_extrapolate=%v)", t, only.Timestamp, b.maxExtrapolate)
		}
		return only, nil
	}

	first := b.chronological(0)
	last := b.chronological(b.count - 1)

	if t < first.Timestamp-b.maxExtrapolate || t > last.Timestamp+b.maxExtrapolate {
		return DroneState{}, apperr.Newf(apperr.Link, "state.buffer", false,
			"t=%v outside buffer range [%v,%v] beyond max_extrapolate=%v", t, first.Timestamp, last.Timestamp, b.maxExtrapolate)
	}
	if t <= first.Timestamp {
		return first, nil
	}
	if t >= last.Timestamp {
		return last, nil
	}

	// Binary search for the bracketing pair in chronological order.
	lo, hi := 0, b.count-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if b.chronological(mid).Timestamp <= t {
			lo = mid
		} else {
			hi = mid
		}
	}
	a, c := b.chronological(lo), b.chronological(hi)
	span := c.Timestamp - a.Timestamp
	if span <= 0 {
		return a, nil
	}
	frac := (t - a.Timestamp) / span
	return interpolate(a, c, frac), nil
}

// CompensatedState returns get_at(now - transport_delay) using the
// configured delay (spec.md §4.D compensated_state contract).
func (b *Buffer) CompensatedState(now float64) (DroneState, error) {
	return b.GetAt(now - b.transportDelay)
}

// Latest returns the most recently pushed sample.
func (b *Buffer) Latest() (DroneState, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.count == 0 {
		return DroneState{}, false
	}
	return b.at(b.head), true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
