package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"store-api/internal/model"

	"github.com/google/uuid"
)

// In-memory repositories honouring the same conditional-update contracts as the
// PostgreSQL ones, for flow tests that span several calls.

type memoryProducts struct {
	mu       sync.Mutex
	products map[string]model.Product
}

func newMemoryProducts(products ...model.Product) *memoryProducts {
	m := &memoryProducts{products: map[string]model.Product{}}
	for _, p := range products {
		m.products[p.Slug] = p
	}
	return m
}

func (m *memoryProducts) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]model.Product, 0, len(m.products))
	for _, p := range m.products {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	if offset >= len(all) {
		return []model.Product{}, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

func (m *memoryProducts) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[slug]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memoryProducts) Upsert(ctx context.Context, products []model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range products {
		m.products[p.Slug] = p
	}
	return nil
}

type memoryBaskets struct {
	mu      sync.Mutex
	baskets map[uuid.UUID]model.StoredBasket
}

func newMemoryBaskets() *memoryBaskets {
	return &memoryBaskets{baskets: map[uuid.UUID]model.StoredBasket{}}
}

func (m *memoryBaskets) Create(ctx context.Context, basket *model.StoredBasket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := *basket
	b.Items = append([]model.StoredItem{}, basket.Items...)
	m.baskets[b.ID] = b
	return nil
}

func (m *memoryBaskets) GetByID(ctx context.Context, id uuid.UUID) (*model.StoredBasket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.baskets[id]
	if !ok {
		return nil, nil
	}
	b.Items = append([]model.StoredItem{}, b.Items...)
	return &b, nil
}

func (m *memoryBaskets) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.baskets, id)
	return nil
}

func (m *memoryBaskets) UpsertItem(ctx context.Context, basketID uuid.UUID, item model.StoredItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.baskets[basketID]
	for i, existing := range b.Items {
		if sameLine(existing, item) {
			b.Items[i].Quantity = item.Quantity
			m.baskets[basketID] = b
			return nil
		}
	}
	b.Items = append(b.Items, item)
	m.baskets[basketID] = b
	return nil
}

func (m *memoryBaskets) RemoveItem(ctx context.Context, basketID uuid.UUID, item model.StoredItem) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.baskets[basketID]
	for i, existing := range b.Items {
		if sameLine(existing, item) {
			b.Items = append(b.Items[:i], b.Items[i+1:]...)
			m.baskets[basketID] = b
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryBaskets) UpdateZone(ctx context.Context, basketID uuid.UUID, location model.Location) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.baskets[basketID]
	if !ok {
		return false, nil
	}
	b.Location = location
	m.baskets[basketID] = b
	return true, nil
}

func (m *memoryBaskets) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, b := range m.baskets {
		if b.CreatedAt.Before(cutoff) {
			delete(m.baskets, id)
			n++
		}
	}
	return n, nil
}

func sameLine(a, b model.StoredItem) bool {
	return a.ProductSlug == b.ProductSlug && a.DeliveryType == b.DeliveryType && a.DeliveryDate == b.DeliveryDate
}

type storedRefund struct {
	orderID uuid.UUID
	payload model.SwishRefundPayload
}

type memoryOrders struct {
	mu           sync.Mutex
	orders       map[uuid.UUID][]byte
	refunds      map[string]storedRefund
	refundOrder  []string
	claimedUntil map[uuid.UUID]time.Time
}

func newMemoryOrders() *memoryOrders {
	return &memoryOrders{
		orders:       map[uuid.UUID][]byte{},
		refunds:      map[string]storedRefund{},
		claimedUntil: map[uuid.UUID]time.Time{},
	}
}

func (m *memoryOrders) load(id uuid.UUID) *model.Order {
	raw, ok := m.orders[id]
	if !ok {
		return nil
	}
	var o model.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		panic(err)
	}
	if p, ok := o.Payment.(*model.SwishPayment); ok {
		p.Refunds = []model.SwishRefundPayload{}
		for _, refundID := range m.refundOrder {
			if r := m.refunds[refundID]; r.orderID == id {
				p.Refunds = append(p.Refunds, r.payload)
			}
		}
	}
	return &o
}

func (m *memoryOrders) save(o *model.Order) {
	raw, err := json.Marshal(o)
	if err != nil {
		panic(err)
	}
	m.orders[o.ID] = raw
}

func (m *memoryOrders) mutate(id uuid.UUID, fn func(o *model.Order) bool) bool {
	o := m.load(id)
	if o == nil || !fn(o) {
		return false
	}
	m.save(o)
	return true
}

func setPaymentStatus(o *model.Order, status model.OrderStatus) {
	switch p := o.Payment.(type) {
	case *model.PaymentLinkPayment:
		p.Status = status
	case *model.SwishPayment:
		p.Status = status
	}
}

func setEmailSent(o *model.Order, sent bool) {
	switch p := o.Payment.(type) {
	case *model.PaymentLinkPayment:
		p.ConfirmationEmailSent = sent
	case *model.SwishPayment:
		p.ConfirmationEmailSent = sent
	}
}

func (m *memoryOrders) Create(ctx context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.save(order)
	return nil
}

func (m *memoryOrders) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(id), nil
}

func (m *memoryOrders) List(ctx context.Context) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := []model.Order{}
	for id := range m.orders {
		orders = append(orders, *m.load(id))
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (m *memoryOrders) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	return nil
}

func (m *memoryOrders) MarkSwishCreated(ctx context.Context, id uuid.UUID, payload *model.SwishPayload) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mutate(id, func(o *model.Order) bool {
		p, ok := o.Payment.(*model.SwishPayment)
		if !ok || p.Status != model.StatusNotOrdered {
			return false
		}
		p.Status = model.StatusCreated
		p.Swish = payload
		return true
	}), nil
}

func (m *memoryOrders) UpdateSwishPayment(ctx context.Context, id uuid.UUID, payload *model.SwishPayload) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mutate(id, func(o *model.Order) bool {
		p, ok := o.Payment.(*model.SwishPayment)
		if !ok {
			return false
		}
		if p.Swish != nil && p.Swish.ID != payload.ID {
			return false
		}
		if !payload.IsFinal() && p.Swish != nil && p.Swish.IsFinal() {
			return false
		}
		p.Swish = payload
		return true
	}), nil
}

func (m *memoryOrders) GetSwishPayment(ctx context.Context, swishID string) (*model.SwishPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.orders {
		if p, ok := m.load(id).Payment.(*model.SwishPayment); ok && p.Swish != nil && p.Swish.ID == swishID {
			return p.Swish, nil
		}
	}
	return nil, nil
}

func (m *memoryOrders) AdvanceSwishStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mutate(id, func(o *model.Order) bool {
		if _, ok := o.Payment.(*model.SwishPayment); !ok {
			return false
		}
		if !o.Status().CanAdvanceTo(status) {
			return false
		}
		setPaymentStatus(o, status)
		return true
	}), nil
}

func (m *memoryOrders) SetStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mutate(id, func(o *model.Order) bool {
		setPaymentStatus(o, status)
		return true
	}), nil
}

func (m *memoryOrders) ClaimConfirmationEmail(ctx context.Context, id uuid.UUID, lease time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.load(id)
	if o == nil || !o.OwesConfirmation() || o.Payment.EmailSent() || time.Now().Before(m.claimedUntil[id]) {
		return false, nil
	}
	m.claimedUntil[id] = time.Now().Add(lease)
	return true, nil
}

func (m *memoryOrders) RecordConfirmationEmail(ctx context.Context, id uuid.UUID, sent bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claimedUntil, id)
	m.mutate(id, func(o *model.Order) bool {
		setEmailSent(o, sent)
		return true
	})
	return nil
}

func (m *memoryOrders) ListPendingConfirmations(ctx context.Context, limit int) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for id := range m.orders {
		o := m.load(id)
		if o.Payment.EmailSent() || time.Now().Before(m.claimedUntil[id]) {
			continue
		}
		if !o.OwesConfirmation() {
			continue
		}
		ids = append(ids, id)
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

func (m *memoryOrders) AppendRefund(ctx context.Context, orderID uuid.UUID, refund *model.SwishRefundPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refunds[refund.ID] = storedRefund{orderID: orderID, payload: *refund}
	m.refundOrder = append(m.refundOrder, refund.ID)
	return nil
}

func (m *memoryOrders) UpdateRefund(ctx context.Context, refund *model.SwishRefundPayload) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.refunds[refund.ID]
	if !ok {
		return uuid.Nil, false, nil
	}
	existing.payload = *refund
	m.refunds[refund.ID] = existing
	return existing.orderID, true, nil
}
