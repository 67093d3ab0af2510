package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkcycle/internal/lifecycle"
	"go.uber.org/zap"
)

const hoursPerDay = 24

// MaintenanceHandler exposes on-demand lifecycle runs and storage
// statistics on top of the scheduler's regular cadence.
type MaintenanceHandler struct {
	scheduler    *lifecycle.Scheduler
	aggregateAge time.Duration
	compressAge  time.Duration
	logger       *zap.Logger
}

// NewMaintenanceHandler creates a maintenance handler. The ages are the
// defaults applied when a request does not name its own.
func NewMaintenanceHandler(
	scheduler *lifecycle.Scheduler,
	aggregateAge, compressAge time.Duration,
	logger *zap.Logger,
) *MaintenanceHandler {
	return &MaintenanceHandler{
		scheduler:    scheduler,
		aggregateAge: aggregateAge,
		compressAge:  compressAge,
		logger:       logger,
	}
}

func (h *MaintenanceHandler) Purge(ctx context.Context, _ *struct{}) (*PurgeResponse, error) {
	purged, err := h.scheduler.RunPurgeNow(ctx)
	if err != nil {
		h.logger.Error("manual purge failed", zap.Error(err))

		return nil, huma.Error500InternalServerError("purge failed")
	}

	resp := &PurgeResponse{}
	resp.Body.Purged = purged

	return resp, nil
}

func (h *MaintenanceHandler) Aggregate(ctx context.Context, req *AggregateRequest) (*AggregateResponse, error) {
	age := h.aggregateAge
	if req.Body.Days > 0 {
		age = time.Duration(req.Body.Days) * hoursPerDay * time.Hour
	}

	aggregated, err := h.scheduler.RunAggregateNow(ctx, age)
	if err != nil {
		h.logger.Error("manual aggregation failed", zap.Error(err))

		return nil, huma.Error500InternalServerError("aggregation failed")
	}

	resp := &AggregateResponse{}
	resp.Body.Aggregated = aggregated

	return resp, nil
}

func (h *MaintenanceHandler) Compress(ctx context.Context, req *CompressRequest) (*CompressResponse, error) {
	age := h.compressAge
	if req.Body.Days > 0 {
		age = time.Duration(req.Body.Days) * hoursPerDay * time.Hour
	}

	compressed, err := h.scheduler.RunCompressNow(ctx, age)
	if err != nil {
		h.logger.Error("manual compression failed", zap.Error(err))

		return nil, huma.Error500InternalServerError("compression failed")
	}

	resp := &CompressResponse{}
	resp.Body.Compressed = compressed

	return resp, nil
}

func (h *MaintenanceHandler) Stats(ctx context.Context, _ *struct{}) (*StatsResponse, error) {
	stats, err := h.scheduler.Statistics(ctx)
	if err != nil {
		h.logger.Error("statistics collection failed", zap.Error(err))

		return nil, huma.Error500InternalServerError("statistics collection failed")
	}

	return &StatsResponse{Body: *stats}, nil
}
