package models

import (
	"time"

	"github.com/stripe/stripe-go/v79"
)

// CartLineItem is the canonical form of one product entry in the cart.
// Display fields (Name, Price, ImageURL) are best-effort: the server may omit
// them, in which case they are filled in by a catalog lookup during refresh.
type CartLineItem struct {
	ProductID string   `json:"product_id"`
	Quantity  uint64   `json:"quantity"`
	Name      string   `json:"name,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	ImageURL  string   `json:"image_url,omitempty"`
}

// NeedsHydration reports whether the item is missing display data that a
// catalog lookup could supply. Items without a resolvable product id are
// never hydrated.
func (i *CartLineItem) NeedsHydration() bool {
	return i.ProductID != "" && i.ImageURL == ""
}

// Merge fills the item's missing display fields from a catalog product
// without overwriting anything the server already supplied.
func (i *CartLineItem) Merge(p *Product) {
	if p == nil {
		return
	}
	if i.Name == "" {
		i.Name = p.DisplayName()
	}
	if i.Price == nil {
		price := p.Price
		i.Price = &price
	}
	if i.ImageURL == "" {
		i.ImageURL = p.ImageURL
	}
}

// LineSubtotal is price times quantity, counting a missing price as zero.
func (i *CartLineItem) LineSubtotal() float64 {
	if i.Price == nil {
		return 0
	}
	return *i.Price * float64(i.Quantity)
}

// RawProduct is the embedded product record as some backends return it.
type RawProduct struct {
	MongoID  string   `json:"_id"`
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Price    *float64 `json:"price"`
	ImageURL string   `json:"imageUrl"`
	Image    string   `json:"image"`
}

// RawCartItem is the wire shape of a cart line item. The product id may live
// in a flat field or inside an embedded product under either of two names;
// the image may live in any of four places. Normalize maps all accepted
// shapes to the canonical CartLineItem exactly once, at this boundary.
type RawCartItem struct {
	ProductID string      `json:"productId"`
	Quantity  uint64      `json:"quantity"`
	Name      string      `json:"name"`
	Price     *float64    `json:"price"`
	ImageURL  string      `json:"imageUrl"`
	Image     string      `json:"image"`
	Product   *RawProduct `json:"product"`
}

// Normalize converts the raw record into a canonical CartLineItem. The
// second return value is false when no product id is resolvable from any of
// the accepted locations.
func (r *RawCartItem) Normalize() (CartLineItem, bool) {
	item := CartLineItem{
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		Name:      r.Name,
		Price:     r.Price,
		ImageURL:  r.ImageURL,
	}

	if item.ImageURL == "" {
		item.ImageURL = r.Image
	}

	if p := r.Product; p != nil {
		if item.ProductID == "" {
			item.ProductID = p.MongoID
		}
		if item.ProductID == "" {
			item.ProductID = p.ID
		}
		if item.Name == "" {
			item.Name = p.Name
		}
		if item.Name == "" {
			item.Name = p.Title
		}
		if item.Price == nil {
			item.Price = p.Price
		}
		if item.ImageURL == "" {
			item.ImageURL = p.ImageURL
		}
		if item.ImageURL == "" {
			item.ImageURL = p.Image
		}
	}

	return item, item.ProductID != ""
}

// CartSnapshot is the complete, replace-wholesale view of the cart at a point
// in time. It is never mutated in place: every successful fetch cycle swaps
// in a new snapshot, and consumers receive copies.
type CartSnapshot struct {
	Items     []CartLineItem  `json:"items"`
	Currency  stripe.Currency `json:"currency"`
	FetchedAt time.Time       `json:"fetched_at"`
}

func NewCartSnapshot() *CartSnapshot {
	return new(CartSnapshot)
}

// ItemCount is the sum of quantities across all items.
func (s *CartSnapshot) ItemCount() uint64 {
	if s == nil {
		return 0
	}
	var count uint64
	for i := range s.Items {
		count += s.Items[i].Quantity
	}
	return count
}

// Subtotal is the sum of price times quantity across all items, counting a
// missing price as zero. Never negative; zero for a nil or empty snapshot.
func (s *CartSnapshot) Subtotal() float64 {
	if s == nil {
		return 0
	}
	var total float64
	for i := range s.Items {
		total += s.Items[i].LineSubtotal()
	}
	return total
}

// Clone returns a deep copy so consumers cannot mutate engine-owned state.
func (s *CartSnapshot) Clone() *CartSnapshot {
	if s == nil {
		return nil
	}
	dup := *s
	dup.Items = make([]CartLineItem, len(s.Items))
	copy(dup.Items, s.Items)
	return &dup
}
