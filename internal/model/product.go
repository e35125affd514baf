package model

import "time"

// Delivery types a basket item can be fulfilled with.
const (
	DeliveryTypeDelivery   = "delivery"
	DeliveryTypeCollection = "collection"
	DeliveryTypeEmail      = "email"
)

// ValidDeliveryType reports whether t is a known delivery type.
func ValidDeliveryType(t string) bool {
	switch t {
	case DeliveryTypeDelivery, DeliveryTypeCollection, DeliveryTypeEmail:
		return true
	}
	return false
}

// Product represents a product in the store catalogue.
type Product struct {
	Slug            string          `json:"slug" yaml:"slug"`
	Name            string          `json:"name" yaml:"name"`
	Brand           string          `json:"brand,omitempty" yaml:"brand"`
	Category        string          `json:"category,omitempty" yaml:"category"`
	Description     []string        `json:"description,omitempty" yaml:"description"`
	Available       bool            `json:"available" yaml:"available"`
	GrossPrice      int64           `json:"grossPrice" yaml:"grossPrice"`
	MomsRate        int             `json:"momsRate" yaml:"momsRate"`
	DeliveryMethods []string        `json:"deliveryMethods,omitempty" yaml:"deliveryMethods"`
	Delivery        ProductDelivery `json:"delivery" yaml:"delivery"`
	CreatedAt       time.Time       `json:"createdAt" yaml:"-"`
}

// ProductDelivery describes how far and at what cost a product can be delivered.
type ProductDelivery struct {
	MaxZone int        `json:"maxZone" yaml:"maxZone"`
	Costs   []ZoneCost `json:"costs" yaml:"costs"`
}

// ZoneCost is the delivery price of a product to a single zone.
type ZoneCost struct {
	Zone     int   `json:"zone" yaml:"zone"`
	Price    int64 `json:"price" yaml:"price"`
	MomsRate int   `json:"momsRate" yaml:"momsRate"`
}

// CostForZone returns the delivery price to zone, if the product defines one.
func (d ProductDelivery) CostForZone(zone int) (int64, bool) {
	for _, c := range d.Costs {
		if c.Zone == zone {
			return c.Price, true
		}
	}
	return 0, false
}
