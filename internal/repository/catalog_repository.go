package repository

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"configurator-service/internal/engine"
	"configurator-service/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Cache TTL constants
const (
	ConfigurationCacheTTL = 5 * time.Minute  // Single configuration cache
	ConfigurationListTTL  = 2 * time.Minute  // List cache (shorter due to frequent changes)
)

const cacheKeyPrefix = "configurator:"

// CatalogRepository persists product configurations and their variants, with
// a Redis read-through cache in front of the storefront lookup path.
type CatalogRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

// CatalogRepositoryInterface is the surface consumed by handlers, kept as an
// interface so handler tests can mock it.
type CatalogRepositoryInterface interface {
	CreateConfiguration(ctx context.Context, tenantID string, req *models.CreateConfigurationRequest, userID string) (*models.ProductConfiguration, error)
	GetConfiguration(ctx context.Context, tenantID string, id uuid.UUID) (*models.ProductConfiguration, error)
	GetConfigurationByProduct(ctx context.Context, tenantID, productID string) (*models.ProductConfiguration, error)
	ListConfigurations(ctx context.Context, tenantID string, page, limit int) ([]models.ProductConfiguration, int64, error)
	UpdateConfiguration(ctx context.Context, tenantID string, id uuid.UUID, req *models.UpdateConfigurationRequest, userID string) (*models.ProductConfiguration, error)
	DeleteConfiguration(ctx context.Context, tenantID string, id uuid.UUID) error
	CreateVariant(ctx context.Context, tenantID string, configID uuid.UUID, req *models.CreateVariantRequest) (*models.ConcreteVariant, error)
	UpdateVariant(ctx context.Context, tenantID string, configID, variantID uuid.UUID, req *models.UpdateVariantRequest) (*models.ConcreteVariant, error)
	UpdateVariantStock(ctx context.Context, tenantID string, configID, variantID uuid.UUID, stockCount int) (*models.ConcreteVariant, error)
	DeleteVariant(ctx context.Context, tenantID string, configID, variantID uuid.UUID) error
	ListVariants(ctx context.Context, tenantID string, configID uuid.UUID) ([]models.ConcreteVariant, error)
	CreateCommit(ctx context.Context, record *models.CommittedConfiguration) error
}

var _ CatalogRepositoryInterface = (*CatalogRepository)(nil)

func NewCatalogRepository(db *gorm.DB, redisClient *redis.Client) *CatalogRepository {
	return &CatalogRepository{
		db:    db,
		redis: redisClient,
	}
}

// attributeHash derives the storage-level uniqueness key for a variant's
// attribute combination from the engine's canonical form.
func attributeHash(attrs map[string]string) string {
	sum := md5.Sum([]byte(engine.AttributeKey(attrs)))
	return hex.EncodeToString(sum[:])
}

func configCacheKey(tenantID string, id uuid.UUID) string {
	return fmt.Sprintf("%sconfig:%s:%s", cacheKeyPrefix, tenantID, id.String())
}

func productCacheKey(tenantID, productID string) string {
	return fmt.Sprintf("%sconfig:product:%s:%s", cacheKeyPrefix, tenantID, productID)
}

func (r *CatalogRepository) cacheGet(ctx context.Context, key string, out *models.ProductConfiguration) bool {
	if r.redis == nil {
		return false
	}
	data, err := r.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (r *CatalogRepository) cacheSet(ctx context.Context, key string, cfg *models.ProductConfiguration) {
	if r.redis == nil {
		return
	}
	if data, err := json.Marshal(cfg); err == nil {
		_ = r.redis.Set(ctx, key, data, ConfigurationCacheTTL).Err()
	}
}

// invalidateConfigurationCaches drops both cache entries for a configuration.
func (r *CatalogRepository) invalidateConfigurationCaches(ctx context.Context, tenantID string, id uuid.UUID, productID string) {
	if r.redis == nil {
		return
	}
	_ = r.redis.Del(ctx, configCacheKey(tenantID, id), productCacheKey(tenantID, productID)).Err()
}

// CreateConfiguration persists a new product configuration. The assembled
// catalog is run through the engine's validation first, so structurally
// broken data (duplicate combinations, dangling group references, negative
// modifiers) is rejected before anything hits the database.
func (r *CatalogRepository) CreateConfiguration(ctx context.Context, tenantID string, req *models.CreateConfigurationRequest, userID string) (*models.ProductConfiguration, error) {
	now := time.Now()
	cfg := &models.ProductConfiguration{
		ID:            uuid.New(),
		TenantID:      tenantID,
		ProductID:     req.ProductID,
		BasePrice:     req.BasePrice,
		CurrencyCode:  req.CurrencyCode,
		Groups:        datatypes.NewJSONSlice(req.Groups),
		CustomOptions: datatypes.NewJSONSlice(req.CustomOptions),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if userID != "" {
		cfg.CreatedBy = &userID
		cfg.UpdatedBy = &userID
	}

	for _, vr := range req.Variants {
		variant := &models.ConcreteVariant{
			ID:              uuid.New(),
			ConfigurationID: cfg.ID,
			SKU:             vr.SKU,
			Attributes:      datatypes.NewJSONType(vr.Attributes),
			AttributeHash:   attributeHash(vr.Attributes),
			PriceOverride:   vr.PriceOverride,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if vr.StockCount != nil {
			variant.StockCount = *vr.StockCount
		}
		cfg.Variants = append(cfg.Variants, variant)
	}

	if _, err := engine.BuildCatalog(cfg); err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Create(cfg).Error; err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfiguration fetches a configuration with its variants by id.
func (r *CatalogRepository) GetConfiguration(ctx context.Context, tenantID string, id uuid.UUID) (*models.ProductConfiguration, error) {
	key := configCacheKey(tenantID, id)
	var cached models.ProductConfiguration
	if r.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	var cfg models.ProductConfiguration
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&cfg).Error
	if err != nil {
		return nil, err
	}
	r.cacheSet(ctx, key, &cfg)
	return &cfg, nil
}

// GetConfigurationByProduct is the storefront lookup path: configuration by
// product id, cached.
func (r *CatalogRepository) GetConfigurationByProduct(ctx context.Context, tenantID, productID string) (*models.ProductConfiguration, error) {
	key := productCacheKey(tenantID, productID)
	var cached models.ProductConfiguration
	if r.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	var cfg models.ProductConfiguration
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		First(&cfg).Error
	if err != nil {
		return nil, err
	}
	r.cacheSet(ctx, key, &cfg)
	return &cfg, nil
}

// ListConfigurations returns a page of configurations for a tenant.
func (r *CatalogRepository) ListConfigurations(ctx context.Context, tenantID string, page, limit int) ([]models.ProductConfiguration, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	var total int64
	query := r.db.WithContext(ctx).Model(&models.ProductConfiguration{}).Where("tenant_id = ?", tenantID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var configs []models.ProductConfiguration
	err := query.
		Preload("Variants").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&configs).Error
	if err != nil {
		return nil, 0, err
	}
	return configs, total, nil
}

// UpdateConfiguration applies a partial update, re-validating the resulting
// catalog against the existing variants before saving.
func (r *CatalogRepository) UpdateConfiguration(ctx context.Context, tenantID string, id uuid.UUID, req *models.UpdateConfigurationRequest, userID string) (*models.ProductConfiguration, error) {
	cfg, err := r.getUncached(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.BasePrice != nil {
		cfg.BasePrice = *req.BasePrice
	}
	if req.CurrencyCode != nil {
		cfg.CurrencyCode = req.CurrencyCode
	}
	if req.Groups != nil {
		cfg.Groups = datatypes.NewJSONSlice(req.Groups)
	}
	if req.CustomOptions != nil {
		cfg.CustomOptions = datatypes.NewJSONSlice(req.CustomOptions)
	}
	cfg.UpdatedAt = time.Now()
	if userID != "" {
		cfg.UpdatedBy = &userID
	}

	if _, err := engine.BuildCatalog(cfg); err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Save(cfg).Error; err != nil {
		return nil, err
	}
	r.invalidateConfigurationCaches(ctx, tenantID, cfg.ID, cfg.ProductID)
	return cfg, nil
}

// DeleteConfiguration soft-deletes a configuration; variants go with it via
// the cascade constraint.
func (r *CatalogRepository) DeleteConfiguration(ctx context.Context, tenantID string, id uuid.UUID) error {
	cfg, err := r.getUncached(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Select("Variants").Delete(cfg).Error; err != nil {
		return err
	}
	r.invalidateConfigurationCaches(ctx, tenantID, cfg.ID, cfg.ProductID)
	return nil
}

// getUncached loads straight from the database, for update paths where the
// cache would hand back a stale row.
func (r *CatalogRepository) getUncached(ctx context.Context, tenantID string, id uuid.UUID) (*models.ProductConfiguration, error) {
	var cfg models.ProductConfiguration
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CreateVariant adds a variant to an existing configuration. The combined
// catalog is re-validated so a duplicate attribute combination or a dangling
// group reference is rejected here, not discovered at resolve time.
func (r *CatalogRepository) CreateVariant(ctx context.Context, tenantID string, configID uuid.UUID, req *models.CreateVariantRequest) (*models.ConcreteVariant, error) {
	cfg, err := r.getUncached(ctx, tenantID, configID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	variant := &models.ConcreteVariant{
		ID:              uuid.New(),
		ConfigurationID: configID,
		SKU:             req.SKU,
		Attributes:      datatypes.NewJSONType(req.Attributes),
		AttributeHash:   attributeHash(req.Attributes),
		PriceOverride:   req.PriceOverride,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.StockCount != nil {
		variant.StockCount = *req.StockCount
	}

	cfg.Variants = append(cfg.Variants, variant)
	if _, err := engine.BuildCatalog(cfg); err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Create(variant).Error; err != nil {
		return nil, err
	}
	r.invalidateConfigurationCaches(ctx, tenantID, cfg.ID, cfg.ProductID)
	return variant, nil
}

// UpdateVariant applies a partial update to a variant.
func (r *CatalogRepository) UpdateVariant(ctx context.Context, tenantID string, configID, variantID uuid.UUID, req *models.UpdateVariantRequest) (*models.ConcreteVariant, error) {
	cfg, err := r.getUncached(ctx, tenantID, configID)
	if err != nil {
		return nil, err
	}

	var variant *models.ConcreteVariant
	for _, v := range cfg.Variants {
		if v.ID == variantID {
			variant = v
			break
		}
	}
	if variant == nil {
		return nil, gorm.ErrRecordNotFound
	}

	if req.SKU != nil {
		variant.SKU = req.SKU
	}
	if req.Attributes != nil {
		variant.Attributes = datatypes.NewJSONType(req.Attributes)
		variant.AttributeHash = attributeHash(req.Attributes)
	}
	if req.StockCount != nil {
		variant.StockCount = *req.StockCount
	}
	if req.PriceOverride != nil {
		variant.PriceOverride = req.PriceOverride
	}
	variant.UpdatedAt = time.Now()

	if _, err := engine.BuildCatalog(cfg); err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Save(variant).Error; err != nil {
		return nil, err
	}
	r.invalidateConfigurationCaches(ctx, tenantID, cfg.ID, cfg.ProductID)
	return variant, nil
}

// UpdateVariantStock sets the stock count of a variant.
func (r *CatalogRepository) UpdateVariantStock(ctx context.Context, tenantID string, configID, variantID uuid.UUID, stockCount int) (*models.ConcreteVariant, error) {
	cfg, err := r.getUncached(ctx, tenantID, configID)
	if err != nil {
		return nil, err
	}

	var variant models.ConcreteVariant
	err = r.db.WithContext(ctx).
		Where("configuration_id = ? AND id = ?", configID, variantID).
		First(&variant).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Model(&variant).
		Updates(map[string]interface{}{"stock_count": stockCount, "updated_at": time.Now()}).Error
	if err != nil {
		return nil, err
	}
	r.invalidateConfigurationCaches(ctx, tenantID, cfg.ID, cfg.ProductID)
	return &variant, nil
}

// DeleteVariant removes a variant from a configuration.
func (r *CatalogRepository) DeleteVariant(ctx context.Context, tenantID string, configID, variantID uuid.UUID) error {
	cfg, err := r.getUncached(ctx, tenantID, configID)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Where("configuration_id = ? AND id = ?", configID, variantID).
		Delete(&models.ConcreteVariant{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.invalidateConfigurationCaches(ctx, tenantID, cfg.ID, cfg.ProductID)
	return nil
}

// ListVariants returns all variants of a configuration.
func (r *CatalogRepository) ListVariants(ctx context.Context, tenantID string, configID uuid.UUID) ([]models.ConcreteVariant, error) {
	if _, err := r.getUncached(ctx, tenantID, configID); err != nil {
		return nil, err
	}
	var variants []models.ConcreteVariant
	err := r.db.WithContext(ctx).
		Where("configuration_id = ?", configID).
		Order("created_at ASC").
		Find(&variants).Error
	if err != nil {
		return nil, err
	}
	return variants, nil
}

// CreateCommit writes the audit record for a successful commit.
func (r *CatalogRepository) CreateCommit(ctx context.Context, record *models.CommittedConfiguration) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = time.Now()
	return r.db.WithContext(ctx).Create(record).Error
}
