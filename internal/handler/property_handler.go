package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ledger-service/internal/middleware"
	"ledger-service/internal/model"
	"ledger-service/internal/scope"
	"ledger-service/pkg/logger"
)

// PropertyHandler serves property CRUD, always org-scoped.
type PropertyHandler struct {
	db *gorm.DB
}

// NewPropertyHandler constructs a PropertyHandler.
func NewPropertyHandler(db *gorm.DB) *PropertyHandler {
	return &PropertyHandler{db: db}
}

type propertyRequest struct {
	Nickname string `json:"nickname"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
}

// Create adds a property to the caller's organization.
func (h *PropertyHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)

	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req propertyRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse property creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Nickname == "" || req.Street == "" || req.City == "" || req.State == "" || req.Zip == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nickname, street, city, state and zip are required"})
	}

	property := model.Property{
		OrgID:    authCtx.OrgID,
		Nickname: req.Nickname,
		Street:   req.Street,
		City:     req.City,
		State:    strings.ToUpper(req.State),
		Zip:      req.Zip,
	}

	if result := h.db.Create(&property); result.Error != nil {
		log.Error("Failed to create property", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "property creation failed"})
	}

	log.Info("Property created",
		zap.Uint("id", property.ID),
		zap.String("nickname", property.Nickname))

	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "Property created successfully",
		"property": property,
	})
}

// List returns the organization's properties with optional city/state
// filters, newest first, paginated.
func (h *PropertyHandler) List(c echo.Context) error {
	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 10)

	q := scope.Caller(h.db.Model(&model.Property{}), authCtx)
	if city := c.QueryParam("city"); city != "" {
		q = q.Where("city ILIKE ?", "%"+city+"%")
	}
	if state := c.QueryParam("state"); state != "" {
		q = q.Where("state = ?", strings.ToUpper(state))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return respondError(c, err)
	}

	var properties []model.Property
	if err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&properties).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"properties": properties,
		"pagination": newPagination(page, limit, total),
	})
}

// Get returns one property of the caller's organization.
func (h *PropertyHandler) Get(c echo.Context) error {
	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property ID"})
	}

	var property model.Property
	if err := scope.Caller(h.db, authCtx).First(&property, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
		}
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, property)
}

// Update modifies a property of the caller's organization.
func (h *PropertyHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)

	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property ID"})
	}

	var property model.Property
	if err := scope.Caller(h.db, authCtx).First(&property, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
		}
		return respondError(c, err)
	}

	var req propertyRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse property update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Nickname != "" {
		updates["nickname"] = req.Nickname
	}
	if req.Street != "" {
		updates["street"] = req.Street
	}
	if req.City != "" {
		updates["city"] = req.City
	}
	if req.State != "" {
		updates["state"] = strings.ToUpper(req.State)
	}
	if req.Zip != "" {
		updates["zip"] = req.Zip
	}

	if len(updates) > 0 {
		if err := h.db.Model(&property).Updates(updates).Error; err != nil {
			log.Error("Failed to update property", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "property update failed"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Property updated successfully",
		"property": property,
	})
}

// Delete removes a property of the caller's organization.
func (h *PropertyHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)

	authCtx, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property ID"})
	}

	result := scope.Caller(h.db, authCtx).Delete(&model.Property{}, id)
	if result.Error != nil {
		log.Error("Failed to delete property", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "property deletion failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
	}

	log.Info("Property deleted", zap.Uint("id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Property deleted successfully"})
}
