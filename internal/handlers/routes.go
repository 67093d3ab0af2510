package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the link and maintenance routes.
func RegisterRoutes(api huma.API, links *LinkHandler, maintenance *MaintenanceHandler) {
	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/shorten",
		Summary:     "Create short link",
		Description: "Shortens a URL, with an allocated code or a caller-supplied custom code.",
		Tags:        []string{"Links"},
	}, links.CreateLink)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to original URL",
		Description: "Redirects to the original URL and records the click. Expired, deactivated, and archived links answer 410.",
		Tags:        []string{"Links"},
	}, links.Redirect)

	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/maintenance/purge",
		Summary:     "Purge expired links",
		Description: "Removes expired links now, archiving those that were ever clicked.",
		Tags:        []string{"Maintenance"},
	}, maintenance.Purge)

	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/maintenance/aggregate",
		Summary:     "Aggregate old clicks",
		Description: "Rolls raw click events older than the given age into per-link summaries.",
		Tags:        []string{"Maintenance"},
	}, maintenance.Aggregate)

	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/maintenance/compress",
		Summary:     "Compress dormant links",
		Description: "Archives links without recent activity, compressing their bodies.",
		Tags:        []string{"Maintenance"},
	}, maintenance.Compress)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/maintenance/stats",
		Summary:     "Storage statistics",
		Description: "Reports estimated storage held by links, clicks, summaries, and archives.",
		Tags:        []string{"Maintenance"},
	}, maintenance.Stats)
}
