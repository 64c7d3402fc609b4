// Package checkout computes the order summary shown before payment. The
// computation is pure: it depends only on the snapshot passed in and must be
// recomputed on every read, never cached across cart mutations.
package checkout

import (
	"math"

	"github.com/stripe/stripe-go/v79"

	"gofalre.io/storefront/models"
)

const (
	DefaultFreeShippingThreshold = 50.0
	DefaultShippingFee           = 5.99
	DefaultTaxRate               = 0.10
)

type Config struct {
	// FreeShippingThreshold waives the shipping fee once the subtotal
	// exceeds it.
	FreeShippingThreshold float64
	ShippingFee           float64
	TaxRate               float64
}

func DefaultConfig() Config {
	return Config{
		FreeShippingThreshold: DefaultFreeShippingThreshold,
		ShippingFee:           DefaultShippingFee,
		TaxRate:               DefaultTaxRate,
	}
}

// Summary is the derived cost breakdown for a snapshot.
type Summary struct {
	Subtotal float64         `json:"subtotal"`
	Shipping float64         `json:"shipping"`
	Tax      float64         `json:"tax"`
	Total    float64         `json:"total"`
	Currency stripe.Currency `json:"currency,omitempty"`
}

// Summarize computes shipping, tax, and order total for a subtotal. Shipping
// is zero for an empty cart and waived above the free-shipping threshold;
// tax is a flat rate on the subtotal. Amounts are rounded to cents.
func Summarize(subtotal float64, cfg Config) Summary {
	if subtotal < 0 {
		subtotal = 0
	}

	var shipping float64
	if subtotal > 0 && subtotal <= cfg.FreeShippingThreshold {
		shipping = cfg.ShippingFee
	}

	tax := round2(subtotal * cfg.TaxRate)

	return Summary{
		Subtotal: round2(subtotal),
		Shipping: shipping,
		Tax:      tax,
		Total:    round2(subtotal + shipping + tax),
	}
}

// ForSnapshot summarizes the current snapshot; a nil snapshot is an empty
// order.
func ForSnapshot(snapshot *models.CartSnapshot, cfg Config) Summary {
	summary := Summarize(snapshot.Subtotal(), cfg)
	if snapshot != nil {
		summary.Currency = snapshot.Currency
	}
	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
