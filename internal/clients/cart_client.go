package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"configurator-service/internal/models"
)

// CartClient hands committed configurations to the cart service. The cart
// collaborator owns persistence, quantity stacking and payment; this client
// only delivers the resolved tuple.
type CartClient struct {
	baseURL    string
	httpClient *http.Client
}

// AddCartItemRequest is the cart service's add-line payload.
type AddCartItemRequest struct {
	ProductID        string            `json:"productId"`
	VariantID        *string           `json:"variantId,omitempty"`
	Quantity         int               `json:"quantity"`
	UnitPrice        string            `json:"unitPrice"`
	Selections       map[string]string `json:"attributeSelections,omitempty"`
	CustomAnswers    map[string]any    `json:"customAnswers,omitempty"`
	ConfigurationRef string            `json:"configurationRef,omitempty"`
}

// CartItemResponse from the cart service
type CartItemResponse struct {
	Success bool    `json:"success"`
	Message *string `json:"message,omitempty"`
}

// NewCartClient creates a new cart client
func NewCartClient() *CartClient {
	baseURL := os.Getenv("CART_SERVICE_URL")
	if baseURL == "" {
		baseURL = "http://customers-service:8083"
	}

	return &CartClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// AddItem pushes a committed configuration onto the shopper's cart.
func (c *CartClient) AddItem(tenantID, sessionID string, commit *models.CommitResult) error {
	payload := AddCartItemRequest{
		ProductID:        commit.ProductID,
		Quantity:         commit.Quantity,
		UnitPrice:        commit.UnitPrice,
		Selections:       commit.Selections,
		CustomAnswers:    commit.Answers,
		ConfigurationRef: commit.CommitID.String(),
	}
	if commit.MatchedVariantID != nil {
		id := commit.MatchedVariantID.String()
		payload.VariantID = &id
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/v1/storefront/cart/items", c.baseURL)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("X-Tenant-ID", tenantID)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("cart service rejected item: %d - %s", resp.StatusCode, string(respBody))
	}

	var result CartItemResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if !result.Success {
		msg := "unknown error"
		if result.Message != nil {
			msg = *result.Message
		}
		return fmt.Errorf("cart service rejected item: %s", msg)
	}
	return nil
}
