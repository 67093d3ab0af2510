// Package allocator produces globally-unique, URL-safe short codes.
//
// Each code encodes a 64-bit id composed of a millisecond timestamp
// measured from a fixed epoch and a 12-bit per-millisecond sequence,
// combined as (timestamp << 12) | sequence. Ids are strictly increasing
// in allocation order within one process, so the base62-encoded codes are
// monotonic and collision-free without consulting the store.
package allocator

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/serroba/linkcycle/internal/shortener"
)

const (
	// MinCodeLength and MaxCodeLength bound the requested code length.
	MinCodeLength = 1
	MaxCodeLength = 20

	sequenceBits = 12
	sequenceMask = (1 << sequenceBits) - 1
)

// epoch keeps generated timestamps small, which keeps codes short.
var epoch = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// ErrInvalidLength indicates a code length request outside [1, 20].
var ErrInvalidLength = errors.New("code length must be between 1 and 20")

// Allocator hands out unique short codes. It is safe for concurrent use;
// a single lock protects the (lastTimestamp, sequence) pair. Each instance
// owns its own state, so tests can run isolated allocators in parallel.
type Allocator struct {
	mu            sync.Mutex
	lastTimestamp int64
	sequence      int64
	now           func() time.Time
}

// New creates an allocator backed by the wall clock.
func New() *Allocator {
	return NewWithClock(time.Now)
}

// NewWithClock creates an allocator with an injected clock for tests.
func NewWithClock(now func() time.Time) *Allocator {
	return &Allocator{lastTimestamp: -1, now: now}
}

// Allocate returns a fresh short code of at least minLength characters,
// left-padded with the alphabet's zero character when the encoded id is
// shorter than requested.
func (a *Allocator) Allocate(minLength int) (shortener.Code, error) {
	if minLength < MinCodeLength || minLength > MaxCodeLength {
		return "", fmt.Errorf("%w: got %d", ErrInvalidLength, minLength)
	}

	code := encodeBase62(a.nextID())
	if len(code) < minLength {
		code = strings.Repeat(string(alphabet[0]), minLength-len(code)) + code
	}

	return shortener.Code(code), nil
}

// ValidateCustomCode checks a caller-supplied code against the alphabet
// and length constraints. It does not check existence against the store;
// the caller must handle ErrCodeTaken from the insert and retry or fall
// back to Allocate.
func ValidateCustomCode(code shortener.Code) error {
	if !code.Valid() {
		return fmt.Errorf("%w: %q", shortener.ErrInvalidCode, code)
	}

	return nil
}

func (a *Allocator) nextID() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	timestamp := a.millis()

	// Clamp on clock regression rather than emit a duplicate or
	// out-of-order id.
	if timestamp < a.lastTimestamp {
		timestamp = a.lastTimestamp
	}

	if timestamp == a.lastTimestamp {
		a.sequence = (a.sequence + 1) & sequenceMask
		if a.sequence == 0 {
			// Sequence space for this millisecond is exhausted.
			timestamp = a.waitNextMillis(timestamp)
		}
	} else {
		a.sequence = 0
	}

	a.lastTimestamp = timestamp

	return timestamp<<sequenceBits | a.sequence
}

func (a *Allocator) millis() int64 {
	return a.now().UnixMilli() - epoch.UnixMilli()
}

// waitNextMillis yields the processor until the clock advances past the
// given timestamp. The wait is bounded by the millisecond boundary.
func (a *Allocator) waitNextMillis(last int64) int64 {
	timestamp := a.millis()
	for timestamp <= last {
		time.Sleep(50 * time.Microsecond)

		timestamp = a.millis()
	}

	return timestamp
}
