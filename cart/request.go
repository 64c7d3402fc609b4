package cart

import "gofalre.io/storefront/models"

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  uint64 `json:"quantity"`
}

type replaceItemsRequest struct {
	Items []wireItem `json:"items"`
}

// wireItem is a cart line item in the field names the backend expects.
type wireItem struct {
	ProductID string   `json:"productId"`
	Quantity  uint64   `json:"quantity"`
	Name      string   `json:"name,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	ImageURL  string   `json:"imageUrl,omitempty"`
}

func toWireItem(item models.CartLineItem) wireItem {
	return wireItem{
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Name:      item.Name,
		Price:     item.Price,
		ImageURL:  item.ImageURL,
	}
}
