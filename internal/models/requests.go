package models

import "github.com/google/uuid"

// CreateConfigurationRequest represents a request to create a product configuration
type CreateConfigurationRequest struct {
	ProductID     string                   `json:"productId" binding:"required"`
	BasePrice     string                   `json:"basePrice" binding:"required"`
	CurrencyCode  *string                  `json:"currencyCode,omitempty"`
	Groups        []VariationGroup         `json:"groups,omitempty"`
	CustomOptions []CustomOptionDefinition `json:"customOptions,omitempty"`
	Variants      []CreateVariantRequest   `json:"variants,omitempty"`
}

// UpdateConfigurationRequest represents a request to update a product configuration
type UpdateConfigurationRequest struct {
	BasePrice     *string                  `json:"basePrice,omitempty"`
	CurrencyCode  *string                  `json:"currencyCode,omitempty"`
	Groups        []VariationGroup         `json:"groups,omitempty"`
	CustomOptions []CustomOptionDefinition `json:"customOptions,omitempty"`
}

// CreateVariantRequest represents a request to create a concrete variant
type CreateVariantRequest struct {
	SKU           *string           `json:"sku,omitempty"`
	Attributes    map[string]string `json:"attributes" binding:"required"`
	StockCount    *int              `json:"stockCount,omitempty"`
	PriceOverride *string           `json:"priceOverride,omitempty"`
}

// UpdateVariantRequest represents a request to update a concrete variant
type UpdateVariantRequest struct {
	SKU           *string           `json:"sku,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	StockCount    *int              `json:"stockCount,omitempty"`
	PriceOverride *string           `json:"priceOverride,omitempty"`
}

// UpdateStockRequest represents a stock level update for a variant
type UpdateStockRequest struct {
	StockCount int     `json:"stockCount" binding:"min=0"`
	Reason     *string `json:"reason,omitempty"`
}

// ResolveRequest carries the shopper's current selection for resolution.
// Answers values arrive as raw JSON values (string, bool or number) keyed by
// custom option id.
type ResolveRequest struct {
	Selections map[string]string `json:"selections,omitempty"`
	Answers    map[string]any    `json:"answers,omitempty"`
	Quantity   int               `json:"quantity,omitempty"`
}

// CommitRequest finalizes a selection and hands it to the cart collaborator.
type CommitRequest struct {
	Selections map[string]string `json:"selections,omitempty"`
	Answers    map[string]any    `json:"answers,omitempty"`
	Quantity   int               `json:"quantity" binding:"required,min=1"`
}

// FieldError is a single user-correctable validation problem.
type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ResolvedView is the derived view the display layer renders from: unit and
// quantity-scaled prices, the matched variant (if any), per-option
// availability and the accumulated validation errors.
type ResolvedView struct {
	UnitPrice            string                     `json:"unitPrice"`
	TotalPrice           string                     `json:"totalPrice"`
	Quantity             int                        `json:"quantity"`
	CurrencyCode         *string                    `json:"currencyCode,omitempty"`
	MatchedVariant       *ConcreteVariant           `json:"matchedVariant,omitempty"`
	AvailabilityByOption map[string]map[string]bool `json:"availabilityByOption"`
	IsValid              bool                       `json:"isValid"`
	Errors               []FieldError               `json:"errors"`
}

// CommitResult is the tuple handed to the cart collaborator on success.
type CommitResult struct {
	CommitID         uuid.UUID         `json:"commitId"`
	ProductID        string            `json:"productId"`
	ConfigurationID  uuid.UUID         `json:"configurationId"`
	MatchedVariantID *uuid.UUID        `json:"matchedVariantId,omitempty"`
	Selections       map[string]string `json:"attributeSelections"`
	Answers          map[string]any    `json:"customAnswers"`
	UnitPrice        string            `json:"unitPrice"`
	Quantity         int               `json:"quantity"`
	TotalPrice       string            `json:"totalPrice"`
}

// Response types
type PaginationInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

type ConfigurationResponse struct {
	Success bool                  `json:"success"`
	Data    *ProductConfiguration `json:"data"`
	Message *string               `json:"message,omitempty"`
}

type ConfigurationListResponse struct {
	Success    bool                   `json:"success"`
	Data       []ProductConfiguration `json:"data"`
	Pagination *PaginationInfo        `json:"pagination"`
}

type VariantResponse struct {
	Success bool             `json:"success"`
	Data    *ConcreteVariant `json:"data"`
	Message *string          `json:"message,omitempty"`
}

type VariantListResponse struct {
	Success bool              `json:"success"`
	Data    []ConcreteVariant `json:"data"`
}

type ResolveResponse struct {
	Success bool          `json:"success"`
	Data    *ResolvedView `json:"data"`
}

type CommitResponse struct {
	Success bool          `json:"success"`
	Data    *CommitResult `json:"data"`
	Errors  []FieldError  `json:"errors,omitempty"`
	Message *string       `json:"message,omitempty"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}
