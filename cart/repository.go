// Package cart is the client for the remote cart persistence service. The
// service is the single source of truth for cart contents; this package only
// moves state back and forth and maps failure classes onto sentinel errors.
package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"gofalre.io/storefront/driver"
	"gofalre.io/storefront/models"
)

var _ Repository = (*repository)(nil)

var (
	// ErrUnauthorized marks a call rejected for want of a valid credential.
	// The engine treats it as "not logged in", never as a user-visible error.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound marks a cart or item the service does not know about.
	ErrNotFound = errors.New("not found")
)

type Repository interface {
	GetCart(ctx context.Context) (*models.CartSnapshot, error)
	AddItem(ctx context.Context, productID string, quantity uint64) error
	ReplaceItems(ctx context.Context, items []models.CartLineItem) error
	RemoveItem(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
}

type repository struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewRepository(baseURL string, client *http.Client, logger *zap.Logger) Repository {
	return &repository{
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}
}

// rawCart is the wire shape of a get-cart response. Items are kept raw so
// each record is normalized exactly once, at the model boundary.
type rawCart struct {
	Items    json.RawMessage `json:"items"`
	Currency string          `json:"currency"`
}

func (r *repository) GetCart(ctx context.Context) (*models.CartSnapshot, error) {
	body, err := r.do(ctx, http.MethodGet, "/cart", nil)
	if err != nil {
		return nil, err
	}

	var raw rawCart
	if err = driver.DecodeEnvelope(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode cart response: %w", err)
	}

	snapshot := &models.CartSnapshot{
		Currency:  stripe.Currency(raw.Currency),
		FetchedAt: time.Now(),
		Items:     []models.CartLineItem{},
	}

	var rawItems []models.RawCartItem
	if len(raw.Items) > 0 {
		if err = json.Unmarshal(raw.Items, &rawItems); err != nil {
			// Malformed items collection normalizes to an empty cart.
			r.logger.Warn("Malformed cart items in response, treating as empty", zap.Error(err))
			rawItems = nil
		}
	}

	for i := range rawItems {
		item, ok := rawItems[i].Normalize()
		if !ok {
			r.logger.Warn("Dropping cart item with no resolvable product id")
			continue
		}
		snapshot.Items = append(snapshot.Items, item)
	}

	return snapshot, nil
}

func (r *repository) AddItem(ctx context.Context, productID string, quantity uint64) error {
	payload := addItemRequest{ProductID: productID, Quantity: quantity}
	if _, err := r.do(ctx, http.MethodPost, "/cart", payload); err != nil {
		return fmt.Errorf("failed to add item %s: %w", productID, err)
	}
	return nil
}

func (r *repository) ReplaceItems(ctx context.Context, items []models.CartLineItem) error {
	payload := replaceItemsRequest{Items: make([]wireItem, len(items))}
	for i := range items {
		payload.Items[i] = toWireItem(items[i])
	}
	if _, err := r.do(ctx, http.MethodPut, "/cart", payload); err != nil {
		return fmt.Errorf("failed to replace cart items: %w", err)
	}
	return nil
}

func (r *repository) RemoveItem(ctx context.Context, productID string) error {
	if _, err := r.do(ctx, http.MethodDelete, "/cart/"+productID, nil); err != nil {
		return fmt.Errorf("failed to remove item %s: %w", productID, err)
	}
	return nil
}

func (r *repository) Clear(ctx context.Context) error {
	if _, err := r.do(ctx, http.MethodDelete, "/cart", nil); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (r *repository) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	default:
		apiErr := driver.DecodeAPIError(resp.StatusCode, body)
		r.logger.Error("Cart service request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return nil, apiErr
	}
}
