package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ledger-service/internal/apperr"
	"ledger-service/pkg/logger"
)

// respondError maps the service error taxonomy to HTTP responses.
// Validation and entitlement errors carry their message to the
// caller; anything else is reported as an internal error without
// leaking details.
func respondError(c echo.Context, err error) error {
	var (
		ve *apperr.ValidationError
		ib *apperr.InsufficientBalanceError
	)

	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Msg})
	case errors.Is(err, apperr.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
	case errors.Is(err, apperr.ErrAccessDenied):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	case errors.As(err, &ib):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     ib.Error(),
			"balance":   ib.Balance,
			"requested": ib.Requested,
		})
	case errors.Is(err, apperr.ErrMutationForbidden):
		return c.JSON(http.StatusConflict, echo.Map{"error": apperr.ErrMutationForbidden.Error()})
	default:
		logger.FromEcho(c).Error("request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}

// pagination is the metadata block attached to paginated listings.
type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func newPagination(page, limit int, total int64) pagination {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}
