package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"order-desk-backend/internal/models"
)

// OrdersChannel is the NOTIFY channel written by the orders trigger.
const OrdersChannel = "orders_changes"

const listenerPingInterval = 90 * time.Second

// RealtimeClient listens to row-level changes on the orders table. It is the
// Postgres side of the feed that Supabase Realtime broadcasts to browsers.
type RealtimeClient struct {
	listener *pq.Listener
}

func NewRealtimeClient(dbURL string) (*RealtimeClient, error) {
	listener := pq.NewListener(dbURL, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventDisconnected:
			log.Printf("Realtime listener disconnected: %v", err)
		case pq.ListenerEventReconnected:
			log.Println("Realtime listener reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			log.Printf("Realtime listener connection attempt failed: %v", err)
		}
	})

	if err := listener.Listen(OrdersChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", OrdersChannel, err)
	}

	return &RealtimeClient{listener: listener}, nil
}

// Run delivers notices to handle until ctx is done. After a reconnect the
// listener may have missed notifications, so a resync notice is delivered.
func (r *RealtimeClient) Run(ctx context.Context, handle func(context.Context, models.ChangeNotice)) error {
	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case n, ok := <-r.listener.Notify:
			if !ok {
				return fmt.Errorf("realtime listener closed")
			}
			if n == nil {
				handle(ctx, models.ChangeNotice{Type: models.ChangeResync})
				continue
			}
			notice, err := ParseChangeNotice(n.Extra)
			if err != nil {
				log.Printf("Realtime listener dropped notification: %v", err)
				continue
			}
			handle(ctx, notice)

		case <-ticker.C:
			go func() {
				if err := r.listener.Ping(); err != nil {
					log.Printf("Realtime listener ping failed: %v", err)
				}
			}()
		}
	}
}

func (r *RealtimeClient) Close() error {
	return r.listener.Close()
}

// ParseChangeNotice decodes the JSON payload written by orders_notify_change.
func ParseChangeNotice(payload string) (models.ChangeNotice, error) {
	var notice models.ChangeNotice
	if err := json.Unmarshal([]byte(payload), &notice); err != nil {
		return notice, fmt.Errorf("invalid change payload: %w", err)
	}
	switch notice.Type {
	case models.ChangeInsert, models.ChangeUpdate, models.ChangeDelete:
	default:
		return notice, fmt.Errorf("unknown change type %q", notice.Type)
	}
	if notice.OrderID == uuid.Nil {
		return notice, fmt.Errorf("change payload has no order id")
	}
	return notice, nil
}
