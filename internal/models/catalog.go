package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DisplayKind controls how a variation group is rendered by the storefront.
// The engine never branches on it; it is carried for the display layer only.
type DisplayKind string

const (
	DisplayKindButton    DisplayKind = "BUTTON"
	DisplayKindSwatch    DisplayKind = "SWATCH"
	DisplayKindDropdown  DisplayKind = "DROPDOWN"
	DisplayKindImage     DisplayKind = "IMAGE"
	DisplayKindSizeChart DisplayKind = "SIZE_CHART"
)

// CustomOptionKind identifies the input type of a per-order customization.
type CustomOptionKind string

const (
	CustomOptionKindText     CustomOptionKind = "TEXT"
	CustomOptionKindTextarea CustomOptionKind = "TEXTAREA"
	CustomOptionKindSelect   CustomOptionKind = "SELECT"
	CustomOptionKindCheckbox CustomOptionKind = "CHECKBOX"
	CustomOptionKindNumber   CustomOptionKind = "NUMBER"
	CustomOptionKindColor    CustomOptionKind = "COLOR"
	CustomOptionKindDate     CustomOptionKind = "DATE"
)

// VariationOption is a single selectable value within a variation group.
// OutOfStock is an author-supplied override independent of the variant table;
// it covers simple products that carry no variant rows at all.
type VariationOption struct {
	Value         string  `json:"value"`
	Label         string  `json:"label"`
	HexColor      *string `json:"hexColor,omitempty"`
	ImageRef      *string `json:"imageRef,omitempty"`
	OutOfStock    bool    `json:"outOfStock"`
	PriceModifier *string `json:"priceModifier,omitempty"`
}

// VariationGroup is one named axis of product variation (e.g. Size).
// Name is the stable key matched against a variant's attribute map; the
// order of Options is display order.
type VariationGroup struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	DisplayKind DisplayKind       `json:"displayKind"`
	Required    bool              `json:"required"`
	Options     []VariationOption `json:"options"`
}

// CustomOptionChoice is one entry of a select option's choice list. For
// checkbox options only the first choice is consulted, for its price.
type CustomOptionChoice struct {
	Label string  `json:"label"`
	Value string  `json:"value"`
	Price *string `json:"price,omitempty"`
}

// CustomOptionDefinition describes a free-form per-order customization
// (engraving, gift wrap, ...) with an optional price effect.
type CustomOptionDefinition struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Kind          CustomOptionKind     `json:"kind"`
	Required      bool                 `json:"required"`
	PriceModifier *string              `json:"priceModifier,omitempty"`
	Choices       []CustomOptionChoice `json:"choices,omitempty"`
	MinValue      *float64             `json:"minValue,omitempty"`
	MaxValue      *float64             `json:"maxValue,omitempty"`
	MaxLength     *int                 `json:"maxLength,omitempty"`
}

// ProductConfiguration is the per-product configuration aggregate: the
// declared variation space, the customization space and the base price the
// engine resolves against.
type ProductConfiguration struct {
	ID            uuid.UUID                                     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID      string                                        `json:"tenantId" gorm:"not null;index:idx_configurations_tenant;index:idx_configurations_tenant_product,unique"`
	ProductID     string                                        `json:"productId" gorm:"not null;index:idx_configurations_tenant_product,unique"`
	BasePrice     string                                        `json:"basePrice" gorm:"not null"`
	CurrencyCode  *string                                       `json:"currencyCode,omitempty"`
	Groups        datatypes.JSONSlice[VariationGroup]           `json:"groups" gorm:"type:jsonb"`
	CustomOptions datatypes.JSONSlice[CustomOptionDefinition]   `json:"customOptions" gorm:"type:jsonb"`
	Variants      []*ConcreteVariant                            `json:"variants,omitempty" gorm:"foreignKey:ConfigurationID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time                                     `json:"createdAt"`
	UpdatedAt     time.Time                                     `json:"updatedAt"`
	DeletedAt     *gorm.DeletedAt                               `json:"deletedAt,omitempty" gorm:"index"`
	CreatedBy     *string                                       `json:"createdBy,omitempty"`
	UpdatedBy     *string                                       `json:"updatedBy,omitempty"`
}

// ConcreteVariant is a specific stocked SKU identified by one value per
// variation group. AttributeHash is derived from the attribute map and is
// unique per configuration, which enforces the combination-uniqueness
// invariant at the storage layer as well.
type ConcreteVariant struct {
	ID              uuid.UUID                             `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ConfigurationID uuid.UUID                             `json:"configurationId" gorm:"type:uuid;not null;index;index:idx_variants_config_hash,unique"`
	SKU             *string                               `json:"sku,omitempty" gorm:"index"`
	Attributes      datatypes.JSONType[map[string]string] `json:"attributes" gorm:"type:jsonb"`
	AttributeHash   string                                `json:"-" gorm:"not null;index:idx_variants_config_hash,unique"`
	StockCount      int                                   `json:"stockCount" gorm:"not null;default:0"`
	PriceOverride   *string                               `json:"priceOverride,omitempty"`
	CreatedAt       time.Time                             `json:"createdAt"`
	UpdatedAt       time.Time                             `json:"updatedAt"`
	DeletedAt       *gorm.DeletedAt                       `json:"deletedAt,omitempty" gorm:"index"`
}

// CommittedConfiguration is the audit record written on a successful commit,
// mirroring the tuple handed to the cart collaborator.
type CommittedConfiguration struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID        string         `json:"tenantId" gorm:"not null;index"`
	ProductID       string         `json:"productId" gorm:"not null;index"`
	ConfigurationID uuid.UUID      `json:"configurationId" gorm:"type:uuid;not null;index"`
	VariantID       *uuid.UUID     `json:"variantId,omitempty" gorm:"type:uuid"`
	Selections      datatypes.JSON `json:"selections" gorm:"type:jsonb"`
	Answers         datatypes.JSON `json:"answers" gorm:"type:jsonb"`
	UnitPrice       string         `json:"unitPrice" gorm:"not null"`
	Quantity        int            `json:"quantity" gorm:"not null;default:1"`
	TotalPrice      string         `json:"totalPrice" gorm:"not null"`
	CreatedAt       time.Time      `json:"createdAt"`
	CreatedBy       *string        `json:"createdBy,omitempty"`
}

// TableName returns the table name for the ProductConfiguration model
func (ProductConfiguration) TableName() string {
	return "product_configurations"
}

// TableName returns the table name for the ConcreteVariant model
func (ConcreteVariant) TableName() string {
	return "concrete_variants"
}

// TableName returns the table name for the CommittedConfiguration model
func (CommittedConfiguration) TableName() string {
	return "committed_configurations"
}
