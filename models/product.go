package models

// Product 代表目錄中的單個商品
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	Category    string  `json:"category,omitempty"`
	InStock     bool    `json:"inStock"`
}

func NewProduct() *Product {
	return new(Product)
}

// DisplayName prefers the product name and falls back to its title.
func (p *Product) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Title
}
