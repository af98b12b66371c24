package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"configurator-service/internal/engine"
	"configurator-service/internal/events"
	"configurator-service/internal/middleware"
	"configurator-service/internal/models"
	"configurator-service/internal/repository"
	"gorm.io/gorm"
)

// ConfigurationsHandler serves the admin CRUD surface for product
// configurations and their variants.
type ConfigurationsHandler struct {
	repo            repository.CatalogRepositoryInterface
	eventsPublisher *events.Publisher
}

func NewConfigurationsHandler(repo repository.CatalogRepositoryInterface, eventsPublisher *events.Publisher) *ConfigurationsHandler {
	return &ConfigurationsHandler{
		repo:            repo,
		eventsPublisher: eventsPublisher,
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    code,
			Message: message,
		},
	})
}

// writeRepoError maps repository failures onto the response envelope. Catalog
// validation problems are the caller's data being unusable, not a server
// fault, so they come back as 422.
func writeRepoError(c *gin.Context, err error) {
	var catalogErr *engine.InvalidCatalogError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Configuration not found")
	case errors.As(err, &catalogErr):
		respondError(c, http.StatusUnprocessableEntity, "INVALID_CATALOG_CONFIGURATION", catalogErr.Error())
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func (h *ConfigurationsHandler) publishCatalogChanged(c *gin.Context, tenantID string, cfg *models.ProductConfiguration, changeType string) {
	if h.eventsPublisher == nil || cfg == nil {
		return
	}
	go func() {
		_ = h.eventsPublisher.PublishCatalogChanged(context.Background(), tenantID, cfg.ID.String(), cfg.ProductID, changeType)
	}()
}

// CreateConfiguration creates a product configuration
// @Summary Create a product configuration
// @Tags configurations
// @Router /configurations [post]
func (h *ConfigurationsHandler) CreateConfiguration(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := c.GetString("user_id")

	var req models.CreateConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	cfg, err := h.repo.CreateConfiguration(c.Request.Context(), tenantID, &req, userID)
	if err != nil {
		writeRepoError(c, err)
		return
	}

	h.publishCatalogChanged(c, tenantID, cfg, "created")
	c.JSON(http.StatusCreated, models.ConfigurationResponse{
		Success: true,
		Data:    cfg,
	})
}

// GetConfiguration returns a configuration by id
// @Summary Get a product configuration
// @Tags configurations
// @Router /configurations/{id} [get]
func (h *ConfigurationsHandler) GetConfiguration(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid configuration ID")
		return
	}

	cfg, err := h.repo.GetConfiguration(c.Request.Context(), tenantID, id)
	if err != nil {
		writeRepoError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ConfigurationResponse{
		Success: true,
		Data:    cfg,
	})
}

// ListConfigurations returns a page of configurations
// @Summary List product configurations
// @Tags configurations
// @Router /configurations [get]
func (h *ConfigurationsHandler) ListConfigurations(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	configs, total, err := h.repo.ListConfigurations(c.Request.Context(), tenantID, page, limit)
	if err != nil {
		writeRepoError(c, err)
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	c.JSON(http.StatusOK, models.ConfigurationListResponse{
		Success: true,
		Data:    configs,
		Pagination: &models.PaginationInfo{
			Page:        page,
			Limit:       limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNext:     page < totalPages,
			HasPrevious: page > 1,
		},
	})
}

// UpdateConfiguration applies a partial update to a configuration
// @Summary Update a product configuration
// @Tags configurations
// @Router /configurations/{id} [put]
func (h *ConfigurationsHandler) UpdateConfiguration(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := c.GetString("user_id")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid configuration ID")
		return
	}

	var req models.UpdateConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	cfg, err := h.repo.UpdateConfiguration(c.Request.Context(), tenantID, id, &req, userID)
	if err != nil {
		writeRepoError(c, err)
		return
	}

	h.publishCatalogChanged(c, tenantID, cfg, "updated")
	c.JSON(http.StatusOK, models.ConfigurationResponse{
		Success: true,
		Data:    cfg,
	})
}

// DeleteConfiguration removes a configuration and its variants
// @Summary Delete a product configuration
// @Tags configurations
// @Router /configurations/{id} [delete]
func (h *ConfigurationsHandler) DeleteConfiguration(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid configuration ID")
		return
	}

	cfg, err := h.repo.GetConfiguration(c.Request.Context(), tenantID, id)
	if err != nil {
		writeRepoError(c, err)
		return
	}
	if err := h.repo.DeleteConfiguration(c.Request.Context(), tenantID, id); err != nil {
		writeRepoError(c, err)
		return
	}

	h.publishCatalogChanged(c, tenantID, cfg, "deleted")
	message := "Configuration deleted successfully"
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: &message,
	})
}

// CreateVariant adds a concrete variant to a configuration
// @Summary Create a variant
// @Tags configurations
// @Router /configurations/{id}/variants [post]
func (h *ConfigurationsHandler) CreateVariant(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	configID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid configuration ID")
		return
	}

	var req models.CreateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	variant, err := h.repo.CreateVariant(c.Request.Context(), tenantID, configID, &req)
	if err != nil {
		writeRepoError(c, err)
		return
	}

	cfg, _ := h.repo.GetConfiguration(c.Request.Context(), tenantID, configID)
	h.publishCatalogChanged(c, tenantID, cfg, "variant_changed")
	c.JSON(http.StatusCreated, models.VariantResponse{
		Success: true,
		Data:    variant,
	})
}

// ListVariants returns all variants of a configuration
// @Summary List variants
// @Tags configurations
// @Router /configurations/{id}/variants [get]
func (h *ConfigurationsHandler) ListVariants(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	configID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid configuration ID")
		return
	}

	variants, err := h.repo.ListVariants(c.Request.Context(), tenantID, configID)
	if err != nil {
		writeRepoError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.VariantListResponse{
		Success: true,
		Data:    variants,
	})
}

// UpdateVariant applies a partial update to a variant
// @Summary Update a variant
// @Tags configurations
// @Router /configurations/{id}/variants/{variantId} [put]
func (h *ConfigurationsHandler) UpdateVariant(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	configID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid configuration ID")
		return
	}
	variantID, err := uuid.Parse(c.Param("variantId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid variant ID")
		return
	}

	var req models.UpdateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	variant, err := h.repo.UpdateVariant(c.Request.Context(), tenantID, configID, variantID, &req)
	if err != nil {
		writeRepoError(c, err)
		return
	}

	cfg, _ := h.repo.GetConfiguration(c.Request.Context(), tenantID, configID)
	h.publishCatalogChanged(c, tenantID, cfg, "variant_changed")
	c.JSON(http.StatusOK, models.VariantResponse{
		Success: true,
		Data:    variant,
	})
}

// UpdateVariantStock sets a variant's stock level
// @Summary Update variant stock
// @Tags configurations
// @Router /configurations/{id}/variants/{variantId}/stock [put]
func (h *ConfigurationsHandler) UpdateVariantStock(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	configID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid configuration ID")
		return
	}
	variantID, err := uuid.Parse(c.Param("variantId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid variant ID")
		return
	}

	var req models.UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	variant, err := h.repo.UpdateVariantStock(c.Request.Context(), tenantID, configID, variantID, req.StockCount)
	if err != nil {
		writeRepoError(c, err)
		return
	}

	cfg, _ := h.repo.GetConfiguration(c.Request.Context(), tenantID, configID)
	h.publishCatalogChanged(c, tenantID, cfg, "variant_changed")
	c.JSON(http.StatusOK, models.VariantResponse{
		Success: true,
		Data:    variant,
	})
}

// DeleteVariant removes a variant
// @Summary Delete a variant
// @Tags configurations
// @Router /configurations/{id}/variants/{variantId} [delete]
func (h *ConfigurationsHandler) DeleteVariant(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	configID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid configuration ID")
		return
	}
	variantID, err := uuid.Parse(c.Param("variantId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid variant ID")
		return
	}

	if err := h.repo.DeleteVariant(c.Request.Context(), tenantID, configID, variantID); err != nil {
		writeRepoError(c, err)
		return
	}

	cfg, _ := h.repo.GetConfiguration(c.Request.Context(), tenantID, configID)
	h.publishCatalogChanged(c, tenantID, cfg, "variant_changed")
	message := "Variant deleted successfully"
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: &message,
	})
}
