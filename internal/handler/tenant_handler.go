package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ledger-service/internal/middleware"
	"ledger-service/internal/model"
	"ledger-service/internal/scope"
	"ledger-service/pkg/logger"
)

// TenantHandler serves tenant profile CRUD, always org-scoped.
type TenantHandler struct {
	db *gorm.DB
}

// NewTenantHandler constructs a TenantHandler.
func NewTenantHandler(db *gorm.DB) *TenantHandler {
	return &TenantHandler{db: db}
}

type tenantRequest struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Create places a tenant into a unit of the caller's organization.
func (h *TenantHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)

	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	unitID, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid unit ID"})
	}

	// Validate that the unit exists and belongs to the org
	var unit model.Unit
	if err := scope.Caller(h.db, authCtx).First(&unit, unitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unit not found"})
		}
		return respondError(c, err)
	}

	var req tenantRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.UserID == 0 || req.Name == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id, name and email are required"})
	}

	tenant := model.Tenant{
		UnitID: unit.ID,
		OrgID:  authCtx.OrgID,
		UserID: req.UserID,
		Name:   req.Name,
		Email:  req.Email,
	}

	if result := h.db.Create(&tenant); result.Error != nil {
		log.Error("Failed to create tenant", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant creation failed"})
	}

	log.Info("Tenant created",
		zap.Uint("id", tenant.ID),
		zap.Uint("unit_id", unit.ID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Tenant created successfully",
		"tenant":  tenant,
	})
}

// List returns the organization's tenants, newest first.
func (h *TenantHandler) List(c echo.Context) error {
	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var tenants []model.Tenant
	if err := scope.Caller(h.db, authCtx).
		Order("created_at DESC").
		Find(&tenants).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"tenants": tenants})
}

// Get returns one tenant of the caller's organization.
func (h *TenantHandler) Get(c echo.Context) error {
	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	var tenant model.Tenant
	if err := scope.Caller(h.db, authCtx).First(&tenant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, tenant)
}

// Me returns the tenant profile of the authenticated account.
func (h *TenantHandler) Me(c echo.Context) error {
	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var tenant model.Tenant
	if err := scope.Caller(h.db, authCtx).
		Where("user_id = ?", authCtx.UserID).
		First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant profile not found"})
		}
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, tenant)
}
