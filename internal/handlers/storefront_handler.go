package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"configurator-service/internal/clients"
	"configurator-service/internal/engine"
	"configurator-service/internal/events"
	"configurator-service/internal/metrics"
	"configurator-service/internal/middleware"
	"configurator-service/internal/models"
	"configurator-service/internal/repository"
	"gorm.io/datatypes"
)

// StorefrontHandler serves the shopper-facing configuration endpoints: fetch
// the configuration space, resolve a selection into a priced view, and
// commit a completed selection to the cart collaborator.
type StorefrontHandler struct {
	repo            repository.CatalogRepositoryInterface
	eventsPublisher *events.Publisher
	cartClient      *clients.CartClient
	logger          *logrus.Entry
}

func NewStorefrontHandler(repo repository.CatalogRepositoryInterface, eventsPublisher *events.Publisher, cartClient *clients.CartClient, logger *logrus.Logger) *StorefrontHandler {
	return &StorefrontHandler{
		repo:            repo,
		eventsPublisher: eventsPublisher,
		cartClient:      cartClient,
		logger:          logger.WithField("component", "storefront"),
	}
}

// loadCatalog fetches the stored configuration for a product and builds the
// engine catalog from it. A configuration that fails validation here is a
// catalog authoring problem, reported as 422 and counted.
func (h *StorefrontHandler) loadCatalog(c *gin.Context, tenantID, productID string) (*models.ProductConfiguration, *engine.Catalog, bool) {
	cfg, err := h.repo.GetConfigurationByProduct(c.Request.Context(), tenantID, productID)
	if err != nil {
		writeRepoError(c, err)
		return nil, nil, false
	}

	catalog, err := engine.BuildCatalog(cfg)
	if err != nil {
		metrics.CatalogBuildErrors.Inc()
		h.logger.WithError(err).WithField("productId", productID).Error("Stored configuration failed catalog validation")
		respondError(c, http.StatusUnprocessableEntity, "INVALID_CATALOG_CONFIGURATION", err.Error())
		return nil, nil, false
	}
	return cfg, catalog, true
}

// buildSession replays the request's selections and answers onto a fresh
// session. Each request is an independent interaction; nothing is shared
// between calls.
func buildSession(catalog *engine.Catalog, selections map[string]string, answers map[string]any) *engine.Session {
	session := engine.NewSession(catalog)
	for group, value := range selections {
		session.SetAttribute(group, value)
	}
	for id, value := range answers {
		session.SetCustomAnswer(id, value)
	}
	return session
}

func toFieldErrors(errs engine.ValidationErrors) []models.FieldError {
	out := make([]models.FieldError, 0, len(errs))
	for _, e := range errs {
		out = append(out, models.FieldError{Code: e.Code, Field: e.Field, Message: e.Message})
	}
	return out
}

func findModelVariant(cfg *models.ProductConfiguration, id uuid.UUID) *models.ConcreteVariant {
	for _, v := range cfg.Variants {
		if v.ID == id {
			return v
		}
	}
	return nil
}

func resolvedView(cfg *models.ProductConfiguration, session *engine.Session, quantity int) *models.ResolvedView {
	if quantity < 1 {
		quantity = 1
	}
	view := session.View()

	resolved := &models.ResolvedView{
		UnitPrice:            engine.FormatAmount(session.UnitPrice()),
		TotalPrice:           engine.FormatAmount(session.TotalPrice(quantity)),
		Quantity:             quantity,
		CurrencyCode:         cfg.CurrencyCode,
		AvailabilityByOption: view.Availability,
		IsValid:              view.IsValid,
		Errors:               toFieldErrors(view.Errors),
	}
	if view.MatchedVariant != nil {
		resolved.MatchedVariant = findModelVariant(cfg, view.MatchedVariant.ID)
	}
	return resolved
}

// GetProductConfiguration returns the full configuration space for a product
// @Summary Get a product's configuration space
// @Tags storefront
// @Router /storefront/products/{id}/configuration [get]
func (h *StorefrontHandler) GetProductConfiguration(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	productID := c.Param("id")

	cfg, _, ok := h.loadCatalog(c, tenantID, productID)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, models.ConfigurationResponse{
		Success: true,
		Data:    cfg,
	})
}

// ResolveConfiguration resolves a (possibly partial) selection
// @Summary Resolve a selection into price, matched variant and availability
// @Tags storefront
// @Router /storefront/products/{id}/configuration/resolve [post]
func (h *StorefrontHandler) ResolveConfiguration(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	productID := c.Param("id")

	var req models.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	cfg, catalog, ok := h.loadCatalog(c, tenantID, productID)
	if !ok {
		return
	}

	session := buildSession(catalog, req.Selections, req.Answers)
	view := resolvedView(cfg, session, req.Quantity)

	if view.IsValid {
		metrics.ResolveTotal.WithLabelValues("valid").Inc()
	} else {
		metrics.ResolveTotal.WithLabelValues("invalid").Inc()
	}

	c.JSON(http.StatusOK, models.ResolveResponse{
		Success: true,
		Data:    view,
	})
}

// CommitConfiguration finalizes a completed selection
// @Summary Commit a completed selection for add-to-cart
// @Tags storefront
// @Router /storefront/products/{id}/configuration/commit [post]
func (h *StorefrontHandler) CommitConfiguration(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	productID := c.Param("id")

	var req models.CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	cfg, catalog, ok := h.loadCatalog(c, tenantID, productID)
	if !ok {
		return
	}

	session := buildSession(catalog, req.Selections, req.Answers)
	commit, err := session.Commit(req.Quantity)
	if err != nil {
		metrics.CommitTotal.WithLabelValues("blocked").Inc()
		var validationErrs engine.ValidationErrors
		if verrs, ok := err.(engine.ValidationErrors); ok {
			validationErrs = verrs
		}
		message := "Selection is incomplete or unavailable"
		c.JSON(http.StatusUnprocessableEntity, models.CommitResponse{
			Success: false,
			Errors:  toFieldErrors(validationErrs),
			Message: &message,
		})
		return
	}

	result := &models.CommitResult{
		CommitID:         uuid.New(),
		ProductID:        commit.ProductID,
		ConfigurationID:  commit.ConfigurationID,
		MatchedVariantID: commit.VariantID,
		Selections:       commit.Selections,
		Answers:          commit.Answers,
		UnitPrice:        engine.FormatAmount(commit.UnitPrice),
		Quantity:         commit.Quantity,
		TotalPrice:       engine.FormatAmount(commit.TotalPrice),
	}

	if err := h.writeCommitRecord(c, tenantID, cfg, result); err != nil {
		metrics.CommitTotal.WithLabelValues("failed").Inc()
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	if h.eventsPublisher != nil {
		actorID := c.GetString("user_id")
		clientIP := c.ClientIP()
		userAgent := c.Request.UserAgent()
		go func() {
			_ = h.eventsPublisher.PublishCommitted(context.Background(), tenantID, result, actorID, clientIP, userAgent)
		}()
	}

	if h.cartClient != nil {
		sessionID := c.GetHeader("X-Session-ID")
		if err := h.cartClient.AddItem(tenantID, sessionID, result); err != nil {
			// cart delivery is best-effort here; the event stream is the
			// durable handoff path
			h.logger.WithError(err).Warn("Failed to push committed configuration to cart service")
		}
	}

	metrics.CommitTotal.WithLabelValues("committed").Inc()
	c.JSON(http.StatusOK, models.CommitResponse{
		Success: true,
		Data:    result,
	})
}

func (h *StorefrontHandler) writeCommitRecord(c *gin.Context, tenantID string, cfg *models.ProductConfiguration, result *models.CommitResult) error {
	selections, err := toJSONB(result.Selections)
	if err != nil {
		return err
	}
	answers, err := toJSONB(result.Answers)
	if err != nil {
		return err
	}

	record := &models.CommittedConfiguration{
		ID:              result.CommitID,
		TenantID:        tenantID,
		ProductID:       result.ProductID,
		ConfigurationID: cfg.ID,
		VariantID:       result.MatchedVariantID,
		Selections:      selections,
		Answers:         answers,
		UnitPrice:       result.UnitPrice,
		Quantity:        result.Quantity,
		TotalPrice:      result.TotalPrice,
	}
	if userID := c.GetString("user_id"); userID != "" {
		record.CreatedBy = &userID
	}
	return h.repo.CreateCommit(c.Request.Context(), record)
}

func toJSONB(v interface{}) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}
