// Package catalog is the client for the remote product catalog, used by the
// cart engine to hydrate line items that arrive without display fields.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"gofalre.io/storefront/driver"
	"gofalre.io/storefront/models"
)

var _ Repository = (*repository)(nil)

// ErrNotFound marks a product id the catalog does not know about.
var ErrNotFound = errors.New("product not found")

type Repository interface {
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
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

func (r *repository) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	body, err := r.get(ctx, "/products/"+id)
	if err != nil {
		return nil, err
	}

	product := models.NewProduct()
	if err = driver.DecodeEnvelope(body, product); err != nil {
		return nil, fmt.Errorf("failed to decode product %s: %w", id, err)
	}
	if product.ID == "" {
		product.ID = id
	}

	return product, nil
}

func (r *repository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	body, err := r.get(ctx, "/products")
	if err != nil {
		return nil, err
	}

	var products []*models.Product
	if err = driver.DecodeEnvelope(body, &products); err != nil {
		return nil, fmt.Errorf("failed to decode product list: %w", err)
	}

	return products, nil
}

func (r *repository) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
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
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	default:
		apiErr := driver.DecodeAPIError(resp.StatusCode, body)
		r.logger.Error("Catalog request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return nil, apiErr
	}
}
