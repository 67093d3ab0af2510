package allocator

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/serroba/linkcycle/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBase62(code string) int64 {
	var n int64

	for i := 0; i < len(code); i++ {
		n = n*62 + int64(strings.IndexByte(alphabet, code[i]))
	}

	return n
}

func TestAllocate(t *testing.T) {
	t.Run("pads to minimum length", func(t *testing.T) {
		a := New()

		code, err := a.Allocate(20)

		require.NoError(t, err)
		assert.Len(t, string(code), 20)
		assert.True(t, strings.HasPrefix(string(code), "0"))
	})

	t.Run("codes satisfy the custom code constraints", func(t *testing.T) {
		a := New()

		code, err := a.Allocate(6)

		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(string(code)), 6)
		assert.True(t, code.Valid())
	})

	t.Run("rejects non-positive length", func(t *testing.T) {
		a := New()

		_, err := a.Allocate(0)
		assert.ErrorIs(t, err, ErrInvalidLength)

		_, err = a.Allocate(-3)
		assert.ErrorIs(t, err, ErrInvalidLength)
	})

	t.Run("rejects length above the code limit", func(t *testing.T) {
		a := New()

		_, err := a.Allocate(21)

		assert.ErrorIs(t, err, ErrInvalidLength)
	})
}

func TestAllocateUniqueness(t *testing.T) {
	const (
		goroutines = 16
		perWorker  = 500
	)

	a := New()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = make(map[shortener.Code]struct{}, goroutines*perWorker)
	)

	for range goroutines {
		wg.Add(1)

		go func() {
			defer wg.Done()

			local := make([]shortener.Code, 0, perWorker)

			for range perWorker {
				code, err := a.Allocate(6)
				if err != nil {
					t.Error(err)

					return
				}

				local = append(local, code)
			}

			mu.Lock()
			defer mu.Unlock()

			for _, code := range local {
				codes[code] = struct{}{}
			}
		}()
	}

	wg.Wait()

	assert.Len(t, codes, goroutines*perWorker, "all concurrently allocated codes must be pairwise distinct")
}

func TestAllocateMonotonicity(t *testing.T) {
	a := New()

	var prev int64 = -1

	for range 5000 {
		code, err := a.Allocate(1)
		require.NoError(t, err)

		n := decodeBase62(string(code))
		assert.Greater(t, n, prev)

		prev = n
	}
}

func TestAllocateClockRegression(t *testing.T) {
	times := []time.Time{
		epoch.Add(100 * time.Millisecond),
		epoch.Add(50 * time.Millisecond), // clock runs backwards
		epoch.Add(60 * time.Millisecond),
	}

	i := 0
	a := NewWithClock(func() time.Time {
		ts := times[i]
		if i < len(times)-1 {
			i++
		}

		return ts
	})

	first, err := a.Allocate(1)
	require.NoError(t, err)

	// Clock regressed; the allocator must clamp to the last timestamp and
	// keep sequencing instead of emitting an out-of-order id.
	second, err := a.Allocate(1)
	require.NoError(t, err)

	third, err := a.Allocate(1)
	require.NoError(t, err)

	n1, n2, n3 := decodeBase62(string(first)), decodeBase62(string(second)), decodeBase62(string(third))
	assert.Greater(t, n2, n1)
	assert.Greater(t, n3, n2)
	assert.Equal(t, n1>>sequenceBits, n2>>sequenceBits, "regressed clock must reuse the clamped timestamp")
}

func TestAllocateSameMillisecondSequencing(t *testing.T) {
	frozen := epoch.Add(42 * time.Millisecond)

	calls := 0
	a := NewWithClock(func() time.Time {
		calls++
		// Stay frozen long enough for the sequence space to wrap, forcing
		// the allocator through its wait-for-next-millisecond path.
		if calls > sequenceMask+3 {
			return frozen.Add(time.Duration(calls) * time.Millisecond)
		}

		return frozen
	})

	seen := make(map[int64]struct{})

	for range sequenceMask + 2 {
		code, err := a.Allocate(1)
		require.NoError(t, err)

		n := decodeBase62(string(code))
		_, dup := seen[n]

		require.False(t, dup, "sequence wrap must not produce duplicate ids")

		seen[n] = struct{}{}
	}
}

func TestValidateCustomCode(t *testing.T) {
	assert.NoError(t, ValidateCustomCode("abc123"))
	assert.NoError(t, ValidateCustomCode("A-b_9"))

	assert.ErrorIs(t, ValidateCustomCode(""), shortener.ErrInvalidCode)
	assert.ErrorIs(t, ValidateCustomCode("has space"), shortener.ErrInvalidCode)
	assert.ErrorIs(t, ValidateCustomCode(shortener.Code(strings.Repeat("a", 21))), shortener.ErrInvalidCode)
}

func TestEncodeBase62(t *testing.T) {
	cases := map[int64]string{
		0:    "0",
		1:    "1",
		61:   "Z",
		62:   "10",
		3843: "ZZ",
		3844: "100",
	}

	for n, want := range cases {
		assert.Equal(t, want, encodeBase62(n))
	}
}
