package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"order-desk-backend/internal/models"
	"order-desk-backend/internal/repository"
)

const (
	subscriberBuffer = 32
	// publishTimeout bounds each broker publish.
	publishTimeout = 5 * time.Second
)

// Publisher forwards accepted change events to systems outside the process.
type Publisher interface {
	Publish(ctx context.Context, ev models.ChangeEvent) error
}

// OrderFeed turns raw change notices into merged view updates and fans them
// out to subscribers.
type OrderFeed struct {
	orders    repository.Orders
	view      *OrderView
	publisher Publisher

	mu          sync.Mutex
	subscribers map[int]chan models.ChangeEvent
	nextID      int
}

func NewOrderFeed(orders repository.Orders, publisher Publisher) *OrderFeed {
	return &OrderFeed{
		orders:      orders,
		view:        NewOrderView(),
		publisher:   publisher,
		subscribers: make(map[int]chan models.ChangeEvent),
	}
}

func (f *OrderFeed) View() *OrderView {
	return f.view
}

// Load fills the view from the store.
func (f *OrderFeed) Load(ctx context.Context) error {
	orders, err := f.orders.ListOrders(ctx, models.OrderFilter{})
	if err != nil {
		return backend("load order view", err)
	}
	f.view.Reset(orders)
	return nil
}

// Handle resolves notice against the store and merges it into the view.
func (f *OrderFeed) Handle(ctx context.Context, notice models.ChangeNotice) {
	switch notice.Type {
	case models.ChangeResync:
		if err := f.Load(ctx); err != nil {
			log.Printf("order feed resync failed: %v", err)
			return
		}
		f.emit(ctx, models.ChangeEvent{Type: models.ChangeResync, At: time.Now().UTC()})

	case models.ChangeInsert, models.ChangeUpdate:
		order, err := f.orders.GetOrder(ctx, notice.OrderID)
		if errors.Is(err, repository.ErrNotFound) {
			f.apply(ctx, models.ChangeEvent{Type: models.ChangeDelete, OrderID: notice.OrderID, At: notice.UpdatedAt})
			return
		}
		if err != nil {
			log.Printf("order feed failed to load order %s: %v", notice.OrderID, err)
			return
		}
		f.apply(ctx, models.ChangeEvent{Type: notice.Type, OrderID: order.ID, Order: order, At: order.UpdatedAt})

	case models.ChangeDelete:
		f.apply(ctx, models.ChangeEvent{Type: models.ChangeDelete, OrderID: notice.OrderID, At: notice.UpdatedAt})

	default:
		log.Printf("order feed ignoring notice of type %q", notice.Type)
	}
}

func (f *OrderFeed) apply(ctx context.Context, ev models.ChangeEvent) {
	if f.view.Apply(ev) {
		f.emit(ctx, ev)
	}
}

func (f *OrderFeed) emit(ctx context.Context, ev models.ChangeEvent) {
	f.broadcast(ev)
	if f.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := f.publisher.Publish(ctx, ev); err != nil {
		log.Printf("order feed publish failed for %s: %v", ev.OrderID, err)
	}
}

// Subscribe registers a listener. A subscriber that falls behind is
// dropped: its channel is closed and it should reconnect for a fresh
// snapshot.
func (f *OrderFeed) Subscribe() (<-chan models.ChangeEvent, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	ch := make(chan models.ChangeEvent, subscriberBuffer)
	f.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { f.unsubscribe(id) })
	}
}

func (f *OrderFeed) unsubscribe(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ch, ok := f.subscribers[id]; ok {
		delete(f.subscribers, id)
		close(ch)
	}
}

func (f *OrderFeed) broadcast(ev models.ChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, ch := range f.subscribers {
		select {
		case ch <- ev:
		default:
			delete(f.subscribers, id)
			close(ch)
		}
	}
}

// Subscribers reports the number of live subscriptions.
func (f *OrderFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}
