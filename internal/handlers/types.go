package handlers

import (
	"time"

	"github.com/serroba/linkcycle/internal/lifecycle"
)

// CreateLinkRequest is the request body for shortening a URL.
type CreateLinkRequest struct {
	Body struct {
		URL        string     `doc:"The URL to shorten"                                example:"https://example.com/very/long/path" json:"url"`
		CustomCode string     `doc:"Optional custom short code (1-20 URL-safe chars)"  example:"launch-day"                         json:"customCode,omitempty" required:"false"`
		ExpiresAt  *time.Time `doc:"Optional expiry; the link stops resolving past it" json:"expiresAt,omitempty"                   required:"false"`
	}
}

// CreateLinkResponse is the response for a successfully shortened URL.
type CreateLinkResponse struct {
	Headers struct {
		Location string `doc:"The short URL location" header:"Location"`
	}
	Body struct {
		Code        string     `doc:"The short code"     example:"abc123"                             json:"code"`
		ShortURL    string     `doc:"The full short URL" example:"http://localhost:8888/abc123"       json:"shortUrl"`
		OriginalURL string     `doc:"The original URL"   example:"https://example.com/very/long/path" json:"originalUrl"`
		ExpiresAt   *time.Time `doc:"Expiry, if any"     json:"expiresAt,omitempty"`
	}
}

// RedirectRequest is the request for resolving a short code.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"abc123" path:"code"`
}

// RedirectResponse is the 301 redirect to the original URL.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location string `doc:"The original URL" header:"Location"`
	}
}

// PurgeResponse reports how many expired links a purge run removed.
type PurgeResponse struct {
	Body struct {
		Purged int `doc:"Number of expired links removed" json:"purged"`
	}
}

// AggregateRequest selects how old click events must be to qualify.
type AggregateRequest struct {
	Body struct {
		Days int `doc:"Aggregate click events older than this many days" example:"30" json:"days,omitempty" minimum:"0" required:"false"`
	}
}

// AggregateResponse reports how many raw click events were subsumed.
type AggregateResponse struct {
	Body struct {
		Aggregated int `doc:"Number of raw click events aggregated" json:"aggregated"`
	}
}

// CompressRequest selects how long a link must have been dormant.
type CompressRequest struct {
	Body struct {
		Days int `doc:"Compress links dormant for this many days" example:"90" json:"days,omitempty" minimum:"0" required:"false"`
	}
}

// CompressResponse reports how many dormant links were archived.
type CompressResponse struct {
	Body struct {
		Compressed int `doc:"Number of dormant links archived" json:"compressed"`
	}
}

// StatsResponse carries the storage statistics report.
type StatsResponse struct {
	Body lifecycle.StorageStatistics
}
