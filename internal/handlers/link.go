package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkcycle/internal/allocator"
	"github.com/serroba/linkcycle/internal/clicks"
	"github.com/serroba/linkcycle/internal/shortener"
	"go.uber.org/zap"
)

// allocateRetries bounds how often creation retries a generated code that
// lost an insert race. Generated codes are monotonic, so a second attempt
// practically never collides.
const allocateRetries = 3

// LinkHandler handles link creation and redirect resolution.
type LinkHandler struct {
	store         shortener.Store
	alloc         *allocator.Allocator
	ledger        *clicks.Ledger
	baseURL       string
	minCodeLength int
	now           func() time.Time
	logger        *zap.Logger
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(
	store shortener.Store,
	alloc *allocator.Allocator,
	ledger *clicks.Ledger,
	baseURL string,
	minCodeLength int,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		store:         store,
		alloc:         alloc,
		ledger:        ledger,
		baseURL:       baseURL,
		minCodeLength: minCodeLength,
		now:           time.Now,
		logger:        logger,
	}
}

type requestMetaKey struct{}

// RequestMeta holds HTTP request metadata recorded with each click.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

func (h *LinkHandler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	now := h.now()

	if req.Body.ExpiresAt != nil && !req.Body.ExpiresAt.After(now) {
		return nil, huma.Error400BadRequest("expiresAt must be in the future")
	}

	var link *shortener.Link

	var err error

	if req.Body.CustomCode != "" {
		link, err = h.createWithCustomCode(ctx, req, now)
	} else {
		link, err = h.createWithGeneratedCode(ctx, req, now)
	}

	if err != nil {
		return nil, err
	}

	shortURL := fmt.Sprintf("%s/%s", h.baseURL, link.Code)

	resp := &CreateLinkResponse{}
	resp.Headers.Location = shortURL
	resp.Body.Code = string(link.Code)
	resp.Body.ShortURL = shortURL
	resp.Body.OriginalURL = link.OriginalURL
	resp.Body.ExpiresAt = link.ExpiresAt

	return resp, nil
}

func (h *LinkHandler) createWithCustomCode(
	ctx context.Context, req *CreateLinkRequest, now time.Time,
) (*shortener.Link, error) {
	code := shortener.Code(req.Body.CustomCode)

	if err := allocator.ValidateCustomCode(code); err != nil {
		return nil, huma.Error400BadRequest("invalid custom code: must be 1-20 characters of [A-Za-z0-9_-]")
	}

	// Early check for a friendlier error; the insert constraint still
	// decides the race.
	inUse, err := h.store.CodeInUse(ctx, code)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to save link")
	}

	if inUse {
		return nil, huma.Error409Conflict("code already in use")
	}

	link, err := shortener.NewLink(req.Body.URL, code, req.Body.ExpiresAt, now)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	if err := h.store.CreateLink(ctx, link); err != nil {
		if errors.Is(err, shortener.ErrCodeTaken) {
			return nil, huma.Error409Conflict("code already in use")
		}

		return nil, huma.Error500InternalServerError("failed to save link")
	}

	return link, nil
}

func (h *LinkHandler) createWithGeneratedCode(
	ctx context.Context, req *CreateLinkRequest, now time.Time,
) (*shortener.Link, error) {
	for range allocateRetries {
		code, err := h.alloc.Allocate(h.minCodeLength)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		link, err := shortener.NewLink(req.Body.URL, code, req.Body.ExpiresAt, now)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		err = h.store.CreateLink(ctx, link)
		if err == nil {
			return link, nil
		}

		if !errors.Is(err, shortener.ErrCodeTaken) {
			return nil, huma.Error500InternalServerError("failed to save link")
		}

		h.logger.Warn("generated code collided, retrying",
			zap.String("code", string(code)),
		)
	}

	return nil, huma.Error500InternalServerError("failed to allocate a free code")
}

func (h *LinkHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	code := shortener.Code(req.Code)

	link, err := h.store.LinkByCode(ctx, code)
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, h.resolveMissing(ctx, code)
		}

		return nil, huma.Error500InternalServerError("failed to resolve link")
	}

	if !link.Resolvable(h.now()) {
		return nil, huma.Error410Gone("link is no longer available")
	}

	h.recordClick(ctx, link)

	resp := &RedirectResponse{
		Status: http.StatusMovedPermanently,
	}
	resp.Headers.Location = link.OriginalURL

	return resp, nil
}

// resolveMissing distinguishes a code that never existed from one whose
// link has been archived.
func (h *LinkHandler) resolveMissing(ctx context.Context, code shortener.Code) error {
	_, err := h.store.ArchiveByCode(ctx, code)
	if err == nil {
		return huma.Error410Gone("link is no longer available")
	}

	if errors.Is(err, shortener.ErrNotFound) {
		return huma.Error404NotFound("short url not found")
	}

	return huma.Error500InternalServerError("failed to resolve link")
}

func (h *LinkHandler) recordClick(ctx context.Context, link *shortener.Link) {
	meta := RequestMetaFromContext(ctx)

	event := &clicks.LinkClickedEvent{
		LinkID:    link.ID,
		Code:      string(link.Code),
		ClickedAt: h.now(),
		UserAgent: meta.UserAgent,
		ClientIP:  meta.ClientIP,
		Referrer:  meta.Referrer,
	}

	if err := h.ledger.Record(event); err != nil {
		h.logger.Error("failed to publish click event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}
}
