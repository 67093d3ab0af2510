package shortener

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// FrequencyTable maps a key (browser category, client address, referrer
// host) to the number of times it was observed.
type FrequencyTable map[string]int

// ClickSummary is a rollup of ClickEvents for one link over one time
// window. Window bounds never change after creation.
type ClickSummary struct {
	ID          uuid.UUID
	LinkID      uuid.UUID
	PeriodStart time.Time
	PeriodEnd   time.Time
	ClickCount  int
	UserAgents  FrequencyTable
	ClientIPs   FrequencyTable
	Referrers   FrequencyTable
	Compacted   bool
}

// NewClickSummary creates a summary for the given window. The window end
// must be strictly after its start and the click count non-negative.
func NewClickSummary(
	linkID uuid.UUID,
	periodStart, periodEnd time.Time,
	clickCount int,
	userAgents, clientIPs, referrers FrequencyTable,
) (*ClickSummary, error) {
	if !periodEnd.After(periodStart) {
		return nil, errors.New("summary period end must be after period start")
	}

	if clickCount < 0 {
		return nil, errors.New("summary click count cannot be negative")
	}

	return &ClickSummary{
		ID:          uuid.New(),
		LinkID:      linkID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		ClickCount:  clickCount,
		UserAgents:  userAgents,
		ClientIPs:   clientIPs,
		Referrers:   referrers,
		Compacted:   false,
	}, nil
}

// AddClicks increments the summary's click count when a later aggregation
// run targets an overlapping link.
func (s *ClickSummary) AddClicks(n int) error {
	if n < 0 {
		return errors.New("additional clicks cannot be negative")
	}

	s.ClickCount += n

	return nil
}

// SetCompacted marks whether the summary's blobs have been compacted.
func (s *ClickSummary) SetCompacted(compacted bool) {
	s.Compacted = compacted
}
