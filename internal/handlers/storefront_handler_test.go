package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"configurator-service/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MockCatalogRepository is a mock implementation of CatalogRepositoryInterface
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) CreateConfiguration(ctx context.Context, tenantID string, req *models.CreateConfigurationRequest, userID string) (*models.ProductConfiguration, error) {
	args := m.Called(ctx, tenantID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductConfiguration), args.Error(1)
}

func (m *MockCatalogRepository) GetConfiguration(ctx context.Context, tenantID string, id uuid.UUID) (*models.ProductConfiguration, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductConfiguration), args.Error(1)
}

func (m *MockCatalogRepository) GetConfigurationByProduct(ctx context.Context, tenantID, productID string) (*models.ProductConfiguration, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductConfiguration), args.Error(1)
}

func (m *MockCatalogRepository) ListConfigurations(ctx context.Context, tenantID string, page, limit int) ([]models.ProductConfiguration, int64, error) {
	args := m.Called(ctx, tenantID, page, limit)
	return args.Get(0).([]models.ProductConfiguration), args.Get(1).(int64), args.Error(2)
}

func (m *MockCatalogRepository) UpdateConfiguration(ctx context.Context, tenantID string, id uuid.UUID, req *models.UpdateConfigurationRequest, userID string) (*models.ProductConfiguration, error) {
	args := m.Called(ctx, tenantID, id, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductConfiguration), args.Error(1)
}

func (m *MockCatalogRepository) DeleteConfiguration(ctx context.Context, tenantID string, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockCatalogRepository) CreateVariant(ctx context.Context, tenantID string, configID uuid.UUID, req *models.CreateVariantRequest) (*models.ConcreteVariant, error) {
	args := m.Called(ctx, tenantID, configID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConcreteVariant), args.Error(1)
}

func (m *MockCatalogRepository) UpdateVariant(ctx context.Context, tenantID string, configID, variantID uuid.UUID, req *models.UpdateVariantRequest) (*models.ConcreteVariant, error) {
	args := m.Called(ctx, tenantID, configID, variantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConcreteVariant), args.Error(1)
}

func (m *MockCatalogRepository) UpdateVariantStock(ctx context.Context, tenantID string, configID, variantID uuid.UUID, stockCount int) (*models.ConcreteVariant, error) {
	args := m.Called(ctx, tenantID, configID, variantID, stockCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConcreteVariant), args.Error(1)
}

func (m *MockCatalogRepository) DeleteVariant(ctx context.Context, tenantID string, configID, variantID uuid.UUID) error {
	args := m.Called(ctx, tenantID, configID, variantID)
	return args.Error(0)
}

func (m *MockCatalogRepository) ListVariants(ctx context.Context, tenantID string, configID uuid.UUID) ([]models.ConcreteVariant, error) {
	args := m.Called(ctx, tenantID, configID)
	return args.Get(0).([]models.ConcreteVariant), args.Error(1)
}

func (m *MockCatalogRepository) CreateCommit(ctx context.Context, record *models.CommittedConfiguration) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// Helper to setup test router
func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	return r
}

func newTestStorefrontHandler(repo *MockCatalogRepository) *StorefrontHandler {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	return NewStorefrontHandler(repo, nil, nil, logger)
}

// Helper to create a Size/Color test configuration with one stocked variant
func createTestConfiguration(tenantID string) *models.ProductConfiguration {
	return &models.ProductConfiguration{
		ID:        uuid.New(),
		TenantID:  tenantID,
		ProductID: "prod-1",
		BasePrice: "10.00",
		Groups: datatypes.NewJSONSlice([]models.VariationGroup{
			{
				ID: "g-size", Name: "Size", DisplayKind: models.DisplayKindButton, Required: true,
				Options: []models.VariationOption{
					{Value: "S", Label: "Small"},
					{Value: "M", Label: "Medium"},
				},
			},
			{
				ID: "g-color", Name: "Color", DisplayKind: models.DisplayKindSwatch, Required: true,
				Options: []models.VariationOption{
					{Value: "Red", Label: "Red"},
					{Value: "Blue", Label: "Blue"},
				},
			},
		}),
		Variants: []*models.ConcreteVariant{
			{
				ID:         uuid.New(),
				Attributes: datatypes.NewJSONType(map[string]string{"Size": "S", "Color": "Red"}),
				StockCount: 5,
			},
		},
	}
}

func postJSON(router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestResolveConfiguration_CompleteSelection(t *testing.T) {
	mockRepo := new(MockCatalogRepository)
	handler := newTestStorefrontHandler(mockRepo)

	cfg := createTestConfiguration("tenant-123")
	mockRepo.On("GetConfigurationByProduct", mock.Anything, "tenant-123", "prod-1").Return(cfg, nil)

	router := setupTestRouter()
	router.POST("/products/:id/configuration/resolve", func(c *gin.Context) {
		c.Set("tenant_id", "tenant-123")
		handler.ResolveConfiguration(c)
	})

	w := postJSON(router, "/products/prod-1/configuration/resolve", models.ResolveRequest{
		Selections: map[string]string{"Size": "S", "Color": "Red"},
		Quantity:   2,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.ResolveResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.True(t, response.Data.IsValid)
	assert.Equal(t, "10.00", response.Data.UnitPrice)
	assert.Equal(t, "20.00", response.Data.TotalPrice)
	assert.Equal(t, 2, response.Data.Quantity)
	assert.NotNil(t, response.Data.MatchedVariant)
	mockRepo.AssertExpectations(t)
}

func TestResolveConfiguration_PartialSelectionReportsMissing(t *testing.T) {
	mockRepo := new(MockCatalogRepository)
	handler := newTestStorefrontHandler(mockRepo)

	cfg := createTestConfiguration("tenant-123")
	mockRepo.On("GetConfigurationByProduct", mock.Anything, "tenant-123", "prod-1").Return(cfg, nil)

	router := setupTestRouter()
	router.POST("/products/:id/configuration/resolve", func(c *gin.Context) {
		c.Set("tenant_id", "tenant-123")
		handler.ResolveConfiguration(c)
	})

	w := postJSON(router, "/products/prod-1/configuration/resolve", models.ResolveRequest{
		Selections: map[string]string{"Size": "S"},
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.ResolveResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response.Data.IsValid)
	assert.Nil(t, response.Data.MatchedVariant)
	assert.Len(t, response.Data.Errors, 1)
	assert.Equal(t, "MISSING_REQUIRED_ATTRIBUTE", response.Data.Errors[0].Code)
	assert.Equal(t, "Color", response.Data.Errors[0].Field)
	// availability map still renders affordances for the partial state
	assert.True(t, response.Data.AvailabilityByOption["Color"]["Red"])
	assert.False(t, response.Data.AvailabilityByOption["Color"]["Blue"])
}

func TestResolveConfiguration_NotFound(t *testing.T) {
	mockRepo := new(MockCatalogRepository)
	handler := newTestStorefrontHandler(mockRepo)

	mockRepo.On("GetConfigurationByProduct", mock.Anything, "tenant-123", "missing").Return(nil, gorm.ErrRecordNotFound)

	router := setupTestRouter()
	router.POST("/products/:id/configuration/resolve", func(c *gin.Context) {
		c.Set("tenant_id", "tenant-123")
		handler.ResolveConfiguration(c)
	})

	w := postJSON(router, "/products/missing/configuration/resolve", models.ResolveRequest{})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResolveConfiguration_InvalidCatalog(t *testing.T) {
	mockRepo := new(MockCatalogRepository)
	handler := newTestStorefrontHandler(mockRepo)

	cfg := createTestConfiguration("tenant-123")
	// point a variant at a value the groups never declare
	cfg.Variants[0].Attributes = datatypes.NewJSONType(map[string]string{"Size": "XXL", "Color": "Red"})
	mockRepo.On("GetConfigurationByProduct", mock.Anything, "tenant-123", "prod-1").Return(cfg, nil)

	router := setupTestRouter()
	router.POST("/products/:id/configuration/resolve", func(c *gin.Context) {
		c.Set("tenant_id", "tenant-123")
		handler.ResolveConfiguration(c)
	})

	w := postJSON(router, "/products/prod-1/configuration/resolve", models.ResolveRequest{})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response models.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "INVALID_CATALOG_CONFIGURATION", response.Error.Code)
}

func TestCommitConfiguration_IncompleteSelectionBlocked(t *testing.T) {
	mockRepo := new(MockCatalogRepository)
	handler := newTestStorefrontHandler(mockRepo)

	cfg := createTestConfiguration("tenant-123")
	mockRepo.On("GetConfigurationByProduct", mock.Anything, "tenant-123", "prod-1").Return(cfg, nil)

	router := setupTestRouter()
	router.POST("/products/:id/configuration/commit", func(c *gin.Context) {
		c.Set("tenant_id", "tenant-123")
		handler.CommitConfiguration(c)
	})

	w := postJSON(router, "/products/prod-1/configuration/commit", models.CommitRequest{
		Selections: map[string]string{"Size": "S"},
		Quantity:   1,
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response models.CommitResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response.Success)
	assert.Len(t, response.Errors, 1)
	assert.Equal(t, "MISSING_REQUIRED_ATTRIBUTE", response.Errors[0].Code)
	mockRepo.AssertNotCalled(t, "CreateCommit", mock.Anything, mock.Anything)
}

func TestCommitConfiguration_Success(t *testing.T) {
	mockRepo := new(MockCatalogRepository)
	handler := newTestStorefrontHandler(mockRepo)

	cfg := createTestConfiguration("tenant-123")
	mockRepo.On("GetConfigurationByProduct", mock.Anything, "tenant-123", "prod-1").Return(cfg, nil)
	mockRepo.On("CreateCommit", mock.Anything, mock.AnythingOfType("*models.CommittedConfiguration")).Return(nil)

	router := setupTestRouter()
	router.POST("/products/:id/configuration/commit", func(c *gin.Context) {
		c.Set("tenant_id", "tenant-123")
		c.Set("user_id", uuid.New().String())
		handler.CommitConfiguration(c)
	})

	w := postJSON(router, "/products/prod-1/configuration/commit", models.CommitRequest{
		Selections: map[string]string{"Size": "S", "Color": "Red"},
		Quantity:   3,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.CommitResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, "prod-1", response.Data.ProductID)
	assert.Equal(t, "10.00", response.Data.UnitPrice)
	assert.Equal(t, "30.00", response.Data.TotalPrice)
	assert.Equal(t, 3, response.Data.Quantity)
	assert.NotNil(t, response.Data.MatchedVariantID)
	assert.Equal(t, cfg.Variants[0].ID, *response.Data.MatchedVariantID)
	mockRepo.AssertExpectations(t)
}

func TestCommitConfiguration_InvalidJSON(t *testing.T) {
	mockRepo := new(MockCatalogRepository)
	handler := newTestStorefrontHandler(mockRepo)

	router := setupTestRouter()
	router.POST("/products/:id/configuration/commit", func(c *gin.Context) {
		c.Set("tenant_id", "tenant-123")
		handler.CommitConfiguration(c)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/products/prod-1/configuration/commit", bytes.NewBuffer([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProductConfiguration(t *testing.T) {
	mockRepo := new(MockCatalogRepository)
	handler := newTestStorefrontHandler(mockRepo)

	cfg := createTestConfiguration("tenant-123")
	mockRepo.On("GetConfigurationByProduct", mock.Anything, "tenant-123", "prod-1").Return(cfg, nil)

	router := setupTestRouter()
	router.GET("/products/:id/configuration", func(c *gin.Context) {
		c.Set("tenant_id", "tenant-123")
		handler.GetProductConfiguration(c)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/products/prod-1/configuration", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.ConfigurationResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, cfg.ProductID, response.Data.ProductID)
	assert.Len(t, response.Data.Groups, 2)
}
