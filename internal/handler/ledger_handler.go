package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ledger-service/internal/ledger"
	"ledger-service/internal/middleware"
	"ledger-service/pkg/logger"
)

// LedgerHandler serves the ownership-credit endpoints.
type LedgerHandler struct {
	service *ledger.Service
}

// NewLedgerHandler constructs a LedgerHandler.
func NewLedgerHandler(service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{service: service}
}

type creditRequest struct {
	Amount int64  `json:"amount"`
	Memo   string `json:"memo"`
}

// Earn awards credits to a tenant. Landlord/admin only (enforced by
// the role guard on the route).
func (h *LedgerHandler) Earn(c echo.Context) error {
	log := logger.FromEcho(c)

	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	tenantID, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	var req creditRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse earn request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	tx, err := h.service.Earn(c.Request().Context(), authCtx, tenantID, req.Amount, req.Memo)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":     "Credits earned successfully",
		"transaction": tx,
	})
}

// Adjust applies a signed manual credit correction. Landlord/admin
// only.
func (h *LedgerHandler) Adjust(c echo.Context) error {
	log := logger.FromEcho(c)

	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	tenantID, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	var req creditRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse adjust request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	tx, err := h.service.Adjust(c.Request().Context(), authCtx, tenantID, req.Amount, req.Memo)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":     "Credits adjusted successfully",
		"transaction": tx,
	})
}

// Redeem spends credits against the tenant's derived balance.
func (h *LedgerHandler) Redeem(c echo.Context) error {
	log := logger.FromEcho(c)

	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	tenantID, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	var req creditRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse redeem request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	tx, err := h.service.Redeem(c.Request().Context(), authCtx, tenantID, req.Amount, req.Memo)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":     "Credits redeemed successfully",
		"transaction": tx,
	})
}

// GetLedger lists a tenant's transaction history, newest first.
func (h *LedgerHandler) GetLedger(c echo.Context) error {
	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	tenantID, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 10)

	result, err := h.service.GetLedger(c.Request().Context(), authCtx, tenantID, page, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"transactions": result.Items,
		"pagination":   newPagination(page, limit, result.Total),
	})
}

// GetBalance returns the tenant's derived balance.
func (h *LedgerHandler) GetBalance(c echo.Context) error {
	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	tenantID, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	balance, err := h.service.GetBalance(c.Request().Context(), authCtx, tenantID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, balance)
}

// parseUintParam parses a numeric path parameter.
func parseUintParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// queryInt parses a numeric query parameter with a default.
func queryInt(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return def
	}
	return v
}
