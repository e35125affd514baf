package model

import (
	"time"

	"github.com/google/uuid"
)

// UnsetZone is the zone of a basket whose customer has not chosen a destination yet.
const UnsetZone = -1

// StoredBasket is the basket as persisted: the customer's raw selections.
type StoredBasket struct {
	ID        uuid.UUID    `json:"id"`
	Items     []StoredItem `json:"items"`
	Location  Location     `json:"delivery"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// StoredItem is a single customer selection in a stored basket.
type StoredItem struct {
	ProductSlug  string `json:"productSlug"`
	Quantity     int    `json:"quantity"`
	DeliveryType string `json:"deliveryType"`
	DeliveryDate string `json:"deliveryDate"`
}

// Location is the delivery destination chosen for a basket.
type Location struct {
	Address string `json:"address"`
	Zone    int    `json:"zone"`
}

// BasketItemRequest represents the request payload for updating or removing a basket line.
type BasketItemRequest struct {
	ProductSlug  string `json:"productSlug"`
	Quantity     int    `json:"quantity"`
	DeliveryType string `json:"deliveryType"`
	DeliveryDate string `json:"deliveryDate"`
}

// Basket is the priced view of a stored basket. It is recomputed on every read.
type Basket struct {
	BasketID  uuid.UUID      `json:"basketId"`
	Items     []BasketItem   `json:"items"`
	Delivery  BasketDelivery `json:"delivery"`
	Statement Statement      `json:"statement"`
}

// BasketItem is a stored item enriched with current catalogue data.
type BasketItem struct {
	ProductSlug  string   `json:"productSlug"`
	Quantity     int      `json:"quantity"`
	DeliveryType string   `json:"deliveryType"`
	DeliveryDate string   `json:"deliveryDate"`
	Name         string   `json:"name"`
	GrossPrice   int64    `json:"grossPrice"`
	MomsRate     int      `json:"momsRate"`
	LinePrice    int64    `json:"linePrice"`
	Details      *Product `json:"details,omitempty"`
}

// BasketDelivery summarises the delivery side of a basket.
type BasketDelivery struct {
	Address          string          `json:"address"`
	Zone             int             `json:"zone"`
	DeliveryRequired bool            `json:"deliveryRequired"`
	Deliverable      bool            `json:"deliverable"`
	DeliveryTotal    int64           `json:"deliveryTotal"`
	DeliveryMoms     int64           `json:"deliveryMoms"`
	MomsRate         int             `json:"momsRate"`
	Groups           []DeliveryGroup `json:"details"`
}

// DeliveryGroup collects the delivery items scheduled for one calendar day.
// A group is priced at its cheapest item for the basket zone: one consolidated slot per day.
type DeliveryGroup struct {
	DateCode    string            `json:"date"`
	DateLabel   string            `json:"dateLong"`
	MaxZone     int               `json:"maxZone"`
	Deliverable bool              `json:"deliverable"`
	MomsRate    int               `json:"momsRate"`
	Total       int64             `json:"total"`
	Products    []DeliveryProduct `json:"products"`
}

// DeliveryProduct is one item's contribution to a delivery group.
type DeliveryProduct struct {
	Slug         string `json:"slug"`
	Quantity     int    `json:"quantity"`
	DeliveryCost int64  `json:"deliveryCost"`
}

// Statement is the bottom line of a basket.
type Statement struct {
	BottomLine BottomLine `json:"bottomLine"`
}

// BottomLine is the final price breakdown of a basket or order.
type BottomLine struct {
	TotalDelivery int64 `json:"totalDelivery"`
	TotalMoms     int64 `json:"totalMoms"`
	TotalPrice    int64 `json:"totalPrice"`
}
