package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/serroba/linkcycle/internal/shortener"
)

// Fixed per-field byte-size constants used to estimate storage footprint.
// The estimate is diagnostic only and never drives control decisions.
const (
	avgURLBytes       = 150
	avgShortCodeBytes = 10
	avgClickFieldSize = 50  // user-agent, client address, referrer
	avgSummaryBlob    = 200 // serialized frequency table
	avgArchiveBody    = 50
	idBytes           = 16
	timestampBytes    = 8
	intBytes          = 4
	boolBytes         = 1

	bytesPerLink    = idBytes + avgURLBytes + avgShortCodeBytes + 2*timestampBytes + intBytes + boolBytes
	bytesPerClick   = idBytes + idBytes + timestampBytes + 3*avgClickFieldSize
	bytesPerSummary = idBytes + idBytes + 2*timestampBytes + intBytes + 3*avgSummaryBlob + boolBytes
	bytesPerArchive = idBytes + idBytes + avgShortCodeBytes + avgArchiveBody + 3*timestampBytes + intBytes
)

// StorageStatistics reports live row counts across all four entity kinds
// and the estimated bytes they occupy.
type StorageStatistics struct {
	TotalLinks       int64 `json:"totalLinks"`
	ActiveLinks      int64 `json:"activeLinks"`
	ExpiredLinks     int64 `json:"expiredLinks"`
	TotalClickEvents int64 `json:"totalClickEvents"`
	TotalSummaries   int64 `json:"totalSummaries"`
	TotalArchives    int64 `json:"totalArchives"`

	LinkStorageBytes  int64 `json:"linkStorageBytes"`
	ClickStorageBytes int64 `json:"clickStorageBytes"`
	TotalStorageBytes int64 `json:"totalStorageBytes"`
}

// CollectStatistics counts live rows and estimates their storage footprint.
// TotalStorageBytes is always the sum of the link and click estimates, and
// ActiveLinks+ExpiredLinks always equals TotalLinks.
func CollectStatistics(ctx context.Context, store shortener.Store, now time.Time) (*StorageStatistics, error) {
	totalLinks, err := store.CountLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count links: %w", err)
	}

	expiredLinks, err := store.CountExpiredLinks(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("count expired links: %w", err)
	}

	totalClicks, err := store.CountClicks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count clicks: %w", err)
	}

	totalSummaries, err := store.CountSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("count summaries: %w", err)
	}

	totalArchives, err := store.CountArchives(ctx)
	if err != nil {
		return nil, fmt.Errorf("count archives: %w", err)
	}

	linkBytes := totalLinks*bytesPerLink + totalArchives*bytesPerArchive
	clickBytes := totalClicks*bytesPerClick + totalSummaries*bytesPerSummary

	return &StorageStatistics{
		TotalLinks:        totalLinks,
		ActiveLinks:       totalLinks - expiredLinks,
		ExpiredLinks:      expiredLinks,
		TotalClickEvents:  totalClicks,
		TotalSummaries:    totalSummaries,
		TotalArchives:     totalArchives,
		LinkStorageBytes:  linkBytes,
		ClickStorageBytes: clickBytes,
		TotalStorageBytes: linkBytes + clickBytes,
	}, nil
}
