package service

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"store-api/internal/model"
	"store-api/internal/pricing"
	"store-api/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultBasketRetention is how long an untouched basket is kept before purging.
const DefaultBasketRetention = 7 * 24 * time.Hour

// basketService implements BasketService.
type basketService struct {
	basketRepo  repository.BasketRepository
	productRepo repository.ProductRepository
	retention   time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewBasketService creates a new basket service. Baskets created more than retention ago
// are purged whenever a new basket is created.
func NewBasketService(
	basketRepo repository.BasketRepository,
	productRepo repository.ProductRepository,
	retention time.Duration,
	logger zerolog.Logger,
) BasketService {
	if retention <= 0 {
		retention = DefaultBasketRetention
	}
	return &basketService{
		basketRepo:  basketRepo,
		productRepo: productRepo,
		retention:   retention,
		logger:      logger.With().Str("service", "basket").Logger(),
		now:         time.Now,
	}
}

func (s *basketService) CreateBasket(ctx context.Context) (*model.Basket, error) {
	now := s.now()

	purged, err := s.basketRepo.DeleteOlderThan(ctx, now.Add(-s.retention))
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to purge expired baskets")
	} else if purged > 0 {
		s.logger.Info().Int64("count", purged).Msg("purged expired baskets")
	}

	stored := &model.StoredBasket{
		ID:        uuid.New(),
		Items:     []model.StoredItem{},
		Location:  model.Location{Zone: model.UnsetZone},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.basketRepo.Create(ctx, stored); err != nil {
		s.logger.Error().Err(err).Msg("failed to create basket")
		return nil, model.NewPersistenceError("failed to create basket", err)
	}

	s.logger.Info().Str("basket_id", stored.ID.String()).Msg("basket created")

	return s.value(ctx, stored)
}

func (s *basketService) PriceBasket(ctx context.Context, id uuid.UUID) (*model.Basket, error) {
	stored, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.value(ctx, stored)
}

func (s *basketService) GetOrCreateBasket(ctx context.Context, id uuid.UUID) (*model.Basket, error) {
	basket, err := s.PriceBasket(ctx, id)
	if errors.Is(err, model.ErrBasketNotFound) {
		s.logger.Info().Str("basket_id", id.String()).Msg("basket not found, creating a new one")
		return s.CreateBasket(ctx)
	}
	return basket, err
}

func (s *basketService) DeleteBasket(ctx context.Context, id uuid.UUID) error {
	if err := s.basketRepo.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("basket_id", id.String()).Msg("failed to delete basket")
		return model.NewPersistenceError("failed to delete basket", err)
	}
	return nil
}

func (s *basketService) UpdateItem(ctx context.Context, id uuid.UUID, req model.BasketItemRequest) (*model.Basket, error) {
	item := model.StoredItem(req)

	if item.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}
	if !model.ValidDeliveryType(item.DeliveryType) {
		return nil, model.ErrInvalidDeliveryType
	}
	if item.DeliveryType == model.DeliveryTypeDelivery {
		if _, err := pricing.ParseDeliveryDateCode(item.DeliveryDate); err != nil {
			s.logger.Debug().Err(err).Str("date_code", item.DeliveryDate).Msg("invalid delivery date code")
			return nil, model.ErrInvalidDeliveryDate
		}
	}

	product, err := s.productRepo.GetBySlug(ctx, item.ProductSlug)
	if err != nil {
		s.logger.Error().Err(err).Str("slug", item.ProductSlug).Msg("failed to get product")
		return nil, model.NewPersistenceError("failed to get product", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}
	if len(product.DeliveryMethods) > 0 && !slices.Contains(product.DeliveryMethods, item.DeliveryType) {
		return nil, model.NewValidationError(model.ErrCodeInvalidDeliveryType,
			"Product "+product.Slug+" cannot be fulfilled by "+item.DeliveryType)
	}

	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}

	if err := s.basketRepo.UpsertItem(ctx, id, item); err != nil {
		s.logger.Error().Err(err).Str("basket_id", id.String()).Msg("failed to update basket item")
		return nil, model.NewPersistenceError("failed to update basket item", err)
	}

	s.logger.Debug().
		Str("basket_id", id.String()).
		Str("slug", item.ProductSlug).
		Int("quantity", item.Quantity).
		Msg("basket item updated")

	return s.PriceBasket(ctx, id)
}

func (s *basketService) RemoveItem(ctx context.Context, id uuid.UUID, req model.BasketItemRequest) (*model.Basket, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}

	removed, err := s.basketRepo.RemoveItem(ctx, id, model.StoredItem(req))
	if err != nil {
		s.logger.Error().Err(err).Str("basket_id", id.String()).Msg("failed to remove basket item")
		return nil, model.NewPersistenceError("failed to remove basket item", err)
	}
	if !removed {
		s.logger.Debug().Str("basket_id", id.String()).Str("slug", req.ProductSlug).Msg("basket item not present")
	}

	return s.PriceBasket(ctx, id)
}

func (s *basketService) UpdateZone(ctx context.Context, id uuid.UUID, location model.Location) (*model.Basket, error) {
	if location.Zone < 0 {
		return nil, model.ErrInvalidZone
	}

	updated, err := s.basketRepo.UpdateZone(ctx, id, location)
	if err != nil {
		s.logger.Error().Err(err).Str("basket_id", id.String()).Msg("failed to update basket zone")
		return nil, model.NewPersistenceError("failed to update basket zone", err)
	}
	if !updated {
		return nil, model.ErrBasketNotFound
	}

	return s.PriceBasket(ctx, id)
}

func (s *basketService) load(ctx context.Context, id uuid.UUID) (*model.StoredBasket, error) {
	stored, err := s.basketRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("basket_id", id.String()).Msg("failed to get basket")
		return nil, model.NewPersistenceError("failed to get basket", err)
	}
	if stored == nil {
		return nil, model.ErrBasketNotFound
	}
	return stored, nil
}

// value prices a stored basket.
func (s *basketService) value(ctx context.Context, stored *model.StoredBasket) (*model.Basket, error) {
	items, err := s.enrich(ctx, stored.Items)
	if err != nil {
		s.logger.Warn().Err(err).Str("basket_id", stored.ID.String()).Msg("failed to enrich basket")
		return nil, err
	}

	delivery := ValueDelivery(stored.Location, items)

	return &model.Basket{
		BasketID:  stored.ID,
		Items:     items,
		Delivery:  delivery,
		Statement: Statement(items, delivery),
	}, nil
}

// enrich resolves every item's product concurrently. Each lookup is judged on its own;
// all of them finish before the first failure is reported.
func (s *basketService) enrich(ctx context.Context, stored []model.StoredItem) ([]model.BasketItem, error) {
	type lookupResult struct {
		index   int
		product *model.Product
		err     error
	}

	resultChan := make(chan lookupResult, len(stored))
	var wg sync.WaitGroup

	for i, item := range stored {
		wg.Add(1)
		go func(index int, slug string) {
			defer wg.Done()

			product, err := s.productRepo.GetBySlug(ctx, slug)
			resultChan <- lookupResult{index: index, product: product, err: err}
		}(i, item.ProductSlug)
	}

	wg.Wait()
	close(resultChan)

	results := make([]lookupResult, len(stored))
	for result := range resultChan {
		results[result.index] = result
	}

	items := make([]model.BasketItem, 0, len(stored))
	var missing []string
	for i, result := range results {
		if result.err != nil {
			return nil, model.NewPersistenceError("failed to get product "+stored[i].ProductSlug, result.err)
		}
		if result.product == nil {
			missing = append(missing, stored[i].ProductSlug)
			continue
		}
		items = append(items, enrichItem(stored[i], result.product))
	}

	if len(missing) > 0 {
		return nil, model.NewEnrichmentError(missing)
	}

	return items, nil
}

func enrichItem(item model.StoredItem, product *model.Product) model.BasketItem {
	return model.BasketItem{
		ProductSlug:  item.ProductSlug,
		Quantity:     item.Quantity,
		DeliveryType: item.DeliveryType,
		DeliveryDate: item.DeliveryDate,
		Name:         product.Name,
		GrossPrice:   product.GrossPrice,
		MomsRate:     product.MomsRate,
		LinePrice:    int64(item.Quantity) * product.GrossPrice,
		Details:      product,
	}
}

type groupBuilder struct {
	date    pricing.DeliveryDate
	parsed  bool
	group   model.DeliveryGroup
	costSet bool
}

// ValueDelivery groups the delivery items by day and prices each day at the cheapest
// zone price among its items. Items without a price for the zone add nothing.
func ValueDelivery(location model.Location, items []model.BasketItem) model.BasketDelivery {
	builders := map[string]*groupBuilder{}
	var order []*groupBuilder

	for _, item := range items {
		if item.DeliveryType != model.DeliveryTypeDelivery {
			continue
		}

		key := item.DeliveryDate
		date, err := pricing.ParseDeliveryDateCode(item.DeliveryDate)
		if err == nil {
			key = date.Code
		}

		b, ok := builders[key]
		if !ok {
			b = &groupBuilder{
				date:   date,
				parsed: err == nil,
				group: model.DeliveryGroup{
					DateCode:    key,
					DateLabel:   key,
					Deliverable: true,
					MomsRate:    pricing.DeliveryMomsRate,
					Products:    []model.DeliveryProduct{},
				},
			}
			if b.parsed {
				b.group.DateLabel = date.DateLabel
			}
			builders[key] = b
			order = append(order, b)
		}

		var productDelivery model.ProductDelivery
		if item.Details != nil {
			productDelivery = item.Details.Delivery
		}

		cost, priced := productDelivery.CostForZone(location.Zone)
		b.group.Products = append(b.group.Products, model.DeliveryProduct{
			Slug:         item.ProductSlug,
			Quantity:     item.Quantity,
			DeliveryCost: cost,
		})

		b.group.MaxZone = max(b.group.MaxZone, productDelivery.MaxZone)
		b.group.Deliverable = b.group.Deliverable && productDelivery.MaxZone >= location.Zone

		if priced && (!b.costSet || cost < b.group.Total) {
			b.group.Total = cost
			b.costSet = true
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.parsed != b.parsed {
			return a.parsed
		}
		if a.parsed {
			return a.date.Before(b.date)
		}
		return a.group.DateCode < b.group.DateCode
	})

	delivery := model.BasketDelivery{
		Address:          location.Address,
		Zone:             location.Zone,
		DeliveryRequired: len(order) > 0,
		Deliverable:      len(order) > 0,
		MomsRate:         pricing.DeliveryMomsRate,
		Groups:           make([]model.DeliveryGroup, 0, len(order)),
	}

	for _, b := range order {
		delivery.Groups = append(delivery.Groups, b.group)
		delivery.DeliveryTotal += b.group.Total
		delivery.Deliverable = delivery.Deliverable && b.group.Deliverable
	}
	delivery.DeliveryMoms = pricing.ComputeTax(delivery.DeliveryTotal, pricing.DeliveryMomsRate)

	return delivery
}

// Statement computes the bottom line. totalPrice is always the item lines plus delivery.
func Statement(items []model.BasketItem, delivery model.BasketDelivery) model.Statement {
	bottomLine := model.BottomLine{
		TotalDelivery: delivery.DeliveryTotal,
		TotalMoms:     delivery.DeliveryMoms,
		TotalPrice:    delivery.DeliveryTotal,
	}

	for _, item := range items {
		bottomLine.TotalMoms += pricing.ComputeTax(item.LinePrice, item.MomsRate)
		bottomLine.TotalPrice += item.LinePrice
	}

	return model.Statement{BottomLine: bottomLine}
}
