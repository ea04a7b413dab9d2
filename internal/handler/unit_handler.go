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

// UnitHandler serves unit CRUD under a property, always org-scoped.
type UnitHandler struct {
	db *gorm.DB
}

// NewUnitHandler constructs a UnitHandler.
func NewUnitHandler(db *gorm.DB) *UnitHandler {
	return &UnitHandler{db: db}
}

type unitRequest struct {
	UnitNumber string `json:"unit_number"`
	Rent       *int64 `json:"rent"`
}

// Create adds a unit to a property of the caller's organization.
func (h *UnitHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)

	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	propertyID, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property ID"})
	}

	// Validate that the property exists and belongs to the org
	var property model.Property
	if err := scope.Caller(h.db, authCtx).First(&property, propertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
		}
		return respondError(c, err)
	}

	var req unitRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse unit creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.UnitNumber == "" || req.Rent == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unit_number and rent are required"})
	}
	if *req.Rent < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rent must not be negative"})
	}

	unit := model.Unit{
		PropertyID: property.ID,
		OrgID:      authCtx.OrgID,
		UnitNumber: req.UnitNumber,
		Rent:       *req.Rent,
	}

	if result := h.db.Create(&unit); result.Error != nil {
		log.Error("Failed to create unit", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unit creation failed"})
	}

	log.Info("Unit created",
		zap.Uint("id", unit.ID),
		zap.Uint("property_id", property.ID),
		zap.String("unit_number", unit.UnitNumber))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Unit created successfully",
		"unit":    unit,
	})
}

// ListByProperty returns the units of one property, by unit number.
func (h *UnitHandler) ListByProperty(c echo.Context) error {
	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	propertyID, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property ID"})
	}

	var units []model.Unit
	if err := scope.Caller(h.db, authCtx).
		Where("property_id = ?", propertyID).
		Order("unit_number ASC").
		Find(&units).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"units": units})
}

// Get returns one unit of the caller's organization.
func (h *UnitHandler) Get(c echo.Context) error {
	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid unit ID"})
	}

	var unit model.Unit
	if err := scope.Caller(h.db, authCtx).First(&unit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unit not found"})
		}
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, unit)
}

// Update modifies a unit of the caller's organization.
func (h *UnitHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)

	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid unit ID"})
	}

	var unit model.Unit
	if err := scope.Caller(h.db, authCtx).First(&unit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unit not found"})
		}
		return respondError(c, err)
	}

	var req unitRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse unit update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.UnitNumber != "" {
		updates["unit_number"] = req.UnitNumber
	}
	if req.Rent != nil {
		if *req.Rent < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "rent must not be negative"})
		}
		updates["rent"] = *req.Rent
	}

	if len(updates) > 0 {
		if err := h.db.Model(&unit).Updates(updates).Error; err != nil {
			log.Error("Failed to update unit", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unit update failed"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Unit updated successfully",
		"unit":    unit,
	})
}

// Delete removes a unit of the caller's organization.
func (h *UnitHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)

	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid unit ID"})
	}

	result := scope.Caller(h.db, authCtx).Delete(&model.Unit{}, id)
	if result.Error != nil {
		log.Error("Failed to delete unit", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unit deletion failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unit not found"})
	}

	log.Info("Unit deleted", zap.Uint("id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Unit deleted successfully"})
}
