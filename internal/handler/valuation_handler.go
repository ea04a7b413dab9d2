package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ledger-service/internal/auth"
	"ledger-service/internal/middleware"
	"ledger-service/internal/model"
	"ledger-service/internal/valuation"
	"ledger-service/pkg/logger"
)

// PropertyFinder validates that a property exists in the caller's
// organization before a job is queued for it.
type PropertyFinder interface {
	FindProperty(ctx context.Context, authCtx auth.Context, id uint) (*model.Property, error)
}

// ValuationHandler serves snapshot enqueueing and listing.
type ValuationHandler struct {
	queue      valuation.Queue
	snapshots  valuation.SnapshotStore
	properties PropertyFinder
}

// NewValuationHandler constructs a ValuationHandler.
func NewValuationHandler(queue valuation.Queue, snapshots valuation.SnapshotStore, properties PropertyFinder) *ValuationHandler {
	return &ValuationHandler{queue: queue, snapshots: snapshots, properties: properties}
}

// CreateSnapshot queues a valuation snapshot job for a property. The
// response is immediate; the worker pool does the aggregation.
func (h *ValuationHandler) CreateSnapshot(c echo.Context) error {
	log := logger.FromEcho(c)

	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	propertyID, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property ID"})
	}

	// Validate property exists and belongs to org
	if _, err := h.properties.FindProperty(c.Request().Context(), authCtx, propertyID); err != nil {
		return respondError(c, err)
	}

	job, err := h.queue.Enqueue(c.Request().Context(), propertyID, authCtx.OrgID)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Valuation snapshot job queued",
		zap.Uint("job_id", job.ID),
		zap.Uint("property_id", propertyID))

	return c.JSON(http.StatusAccepted, echo.Map{
		"message":     "Valuation snapshot job queued successfully",
		"job_id":      job.ID,
		"property_id": propertyID,
		"status":      job.Status,
	})
}

// GetSnapshots lists the newest snapshots of a property, most recent
// first.
func (h *ValuationHandler) GetSnapshots(c echo.Context) error {
	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	propertyID, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property ID"})
	}

	snapshots, err := h.snapshots.ListByProperty(c.Request().Context(), authCtx.OrgID, propertyID, 10)
	if err != nil {
		return respondError(c, err)
	}
	if snapshots == nil {
		snapshots = []model.ValuationSnapshot{}
	}

	return c.JSON(http.StatusOK, echo.Map{"snapshots": snapshots})
}
