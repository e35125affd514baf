package service

import (
	"net/mail"
	"strings"

	"store-api/internal/model"
)

// AssembleOrder snapshots a priced basket and the checkout form into a new order.
// All prices are copied from the basket; the catalogue is never consulted again.
// The order is returned without id or timestamps.
func AssembleOrder(form model.CheckoutForm, basket *model.Basket) (*model.Order, error) {
	payment, err := model.NewPayment(form.PaymentMethod)
	if err != nil {
		return nil, err
	}

	if basket == nil || len(basket.Items) == 0 {
		return nil, model.ErrEmptyBasket
	}

	details := model.CustomerDetails{
		Name:      strings.TrimSpace(form.Name),
		Email:     strings.TrimSpace(form.Email),
		Telephone: strings.TrimSpace(form.Telephone),
		Address:   strings.TrimSpace(form.Address),
		Notes:     strings.TrimSpace(form.Notes),
	}
	if details.Address == "" {
		details.Address = basket.Delivery.Address
	}

	if err := validateDetails(details, basket.Delivery.DeliveryRequired); err != nil {
		return nil, err
	}

	for _, group := range basket.Delivery.Groups {
		if !group.Deliverable {
			return nil, model.ErrUndeliverable
		}
	}

	items := make([]model.OrderItem, len(basket.Items))
	for i, item := range basket.Items {
		items[i] = model.OrderItem{
			ProductSlug:  item.ProductSlug,
			Name:         item.Name,
			Quantity:     item.Quantity,
			GrossPrice:   item.GrossPrice,
			MomsRate:     item.MomsRate,
			LinePrice:    item.LinePrice,
			DeliveryType: item.DeliveryType,
			DeliveryDate: item.DeliveryDate,
		}
	}

	groups := make([]model.DeliveryGroup, len(basket.Delivery.Groups))
	for i, group := range basket.Delivery.Groups {
		groups[i] = group
		groups[i].Products = append([]model.DeliveryProduct{}, group.Products...)
	}

	return &model.Order{
		BasketID:   basket.BasketID,
		Details:    details,
		Items:      items,
		Delivery:   groups,
		BottomLine: basket.Statement.BottomLine,
		Payment:    payment,
	}, nil
}

func validateDetails(details model.CustomerDetails, deliveryRequired bool) error {
	if details.Name == "" {
		return model.NewValidationError(model.ErrCodeMissingField, "name is required")
	}
	if details.Email == "" {
		return model.NewValidationError(model.ErrCodeMissingField, "email is required")
	}
	if _, err := mail.ParseAddress(details.Email); err != nil {
		return model.NewValidationError(model.ErrCodeInvalidEmail, "email is not a valid address")
	}
	if details.Telephone == "" {
		return model.NewValidationError(model.ErrCodeMissingField, "telephone is required")
	}
	if deliveryRequired && details.Address == "" {
		return model.NewValidationError(model.ErrCodeMissingField, "address is required for delivery")
	}
	return nil
}
