// Package lifecycle reclassifies link and click records across retention
// tiers: purging expired links, aggregating stale click events into
// statistical summaries, and compressing dormant link bodies into
// archives. Selection and summarization are pure functions over fetched
// state with "now" injected, so they are testable without a scheduler or
// a real clock.
package lifecycle

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/linkcycle/internal/shortener"
)

// ipTableLimit caps the client-address table at the top entries by frequency.
const ipTableLimit = 10

// ArchivePlan is the set of transitions a retention pass applies as one
// unit of work: archives to create, then link rows to remove.
type ArchivePlan struct {
	Archives []*shortener.CompressedLink
	Remove   []uuid.UUID
}

// Empty reports whether the plan has nothing to apply.
func (p ArchivePlan) Empty() bool {
	return len(p.Archives) == 0 && len(p.Remove) == 0
}

// PlanPurge builds the transition set for a batch of expired links. Links
// that accrued clicks are archived so their history survives as an audit
// trail; zero-click links are removed outright.
func PlanPurge(links []*shortener.Link, now time.Time) (ArchivePlan, error) {
	var plan ArchivePlan

	for _, link := range links {
		if link.ClickCount > 0 {
			archive, err := shortener.NewCompressedLink(link, now)
			if err != nil {
				return ArchivePlan{}, err
			}

			plan.Archives = append(plan.Archives, archive)
		}

		plan.Remove = append(plan.Remove, link.ID)
	}

	return plan, nil
}

// PlanCompression builds the transition set for a batch of dormant links.
// Every link is archived; dormancy has already been established by the
// selection query.
func PlanCompression(links []*shortener.Link, now time.Time) (ArchivePlan, error) {
	var plan ArchivePlan

	for _, link := range links {
		archive, err := shortener.NewCompressedLink(link, now)
		if err != nil {
			return ArchivePlan{}, err
		}

		plan.Archives = append(plan.Archives, archive)
		plan.Remove = append(plan.Remove, link.ID)
	}

	return plan, nil
}

// SummarizeClicks collapses a link's old click events into one summary.
// The window spans the min and max event timestamps; when all events share
// one timestamp the window end is nudged forward a millisecond to keep the
// end-after-start invariant.
func SummarizeClicks(linkID uuid.UUID, events []*shortener.ClickEvent) (*shortener.ClickSummary, error) {
	periodStart, periodEnd := events[0].ClickedAt, events[0].ClickedAt

	for _, event := range events[1:] {
		if event.ClickedAt.Before(periodStart) {
			periodStart = event.ClickedAt
		}

		if event.ClickedAt.After(periodEnd) {
			periodEnd = event.ClickedAt
		}
	}

	if !periodEnd.After(periodStart) {
		periodEnd = periodStart.Add(time.Millisecond)
	}

	return shortener.NewClickSummary(
		linkID,
		periodStart,
		periodEnd,
		len(events),
		userAgentTable(events),
		clientIPTable(events),
		referrerTable(events),
	)
}

func userAgentTable(events []*shortener.ClickEvent) shortener.FrequencyTable {
	table := shortener.FrequencyTable{}

	for _, event := range events {
		table[classifyUserAgent(event.UserAgent)]++
	}

	return table
}

func clientIPTable(events []*shortener.ClickEvent) shortener.FrequencyTable {
	table := shortener.FrequencyTable{}

	for _, event := range events {
		if event.ClientIP != "" {
			table[event.ClientIP]++
		}
	}

	return topN(table, ipTableLimit)
}

func referrerTable(events []*shortener.ClickEvent) shortener.FrequencyTable {
	table := shortener.FrequencyTable{}

	for _, event := range events {
		if event.Referrer != "" {
			table[referrerHost(event.Referrer)]++
		}
	}

	return table
}

// classifyUserAgent buckets a user-agent string into a small fixed set of
// browser categories by substring match.
func classifyUserAgent(userAgent string) string {
	if userAgent == "" {
		return "unknown"
	}

	ua := strings.ToLower(userAgent)

	switch {
	case strings.Contains(ua, "chrome"):
		return "chrome"
	case strings.Contains(ua, "firefox"):
		return "firefox"
	case strings.Contains(ua, "safari"):
		return "safari"
	case strings.Contains(ua, "edge"):
		return "edge"
	case strings.Contains(ua, "opera"):
		return "opera"
	case strings.Contains(ua, "msie"), strings.Contains(ua, "trident"):
		return "internet explorer"
	default:
		return "other"
	}
}

// referrerHost reduces a referrer URL to its host component.
func referrerHost(referrer string) string {
	u, err := url.Parse(referrer)
	if err != nil || u.Host == "" {
		return "invalid"
	}

	return strings.ToLower(u.Host)
}

// topN keeps the n most frequent entries of a table. Ties are broken by
// key so the result is deterministic.
func topN(table shortener.FrequencyTable, n int) shortener.FrequencyTable {
	if len(table) <= n {
		return table
	}

	keys := make([]string, 0, len(table))
	for key := range table {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		if table[keys[i]] != table[keys[j]] {
			return table[keys[i]] > table[keys[j]]
		}

		return keys[i] < keys[j]
	})

	top := make(shortener.FrequencyTable, n)
	for _, key := range keys[:n] {
		top[key] = table[key]
	}

	return top
}
