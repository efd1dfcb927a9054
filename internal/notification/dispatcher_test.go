package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []OrderPlaced
	err    error
	block  chan struct{}
}

func (p *recordingPublisher) Publish(ctx context.Context, ev OrderPlaced) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func sampleEvent(orderID int64) OrderPlaced {
	o := model.Order{
		ID:              orderID,
		UserID:          7,
		Status:          model.OrderStatusPending,
		TotalAmount:     decimal.RequireFromString("30.00"),
		ShippingAddress: "1 Main St",
		BillingAddress:  "1 Main St",
		Items: []model.OrderItem{
			{ProductID: 1, ProductNameSnapshot: "Mouse", PriceAtPurchase: decimal.RequireFromString("10"), Quantity: 3},
		},
	}
	return NewOrderPlaced(o, model.User{ID: 7, Email: "b@example.com", Name: "Buyer"}, time.Now())
}

func TestNewOrderPlaced(t *testing.T) {
	ev := sampleEvent(42)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, int64(42), ev.Order.ID)
	assert.Equal(t, "30.00", ev.Order.TotalAmount)
	require.Len(t, ev.Order.Items, 1)
	assert.Equal(t, "10.00", ev.Order.Items[0].PriceAtPurchase)
	assert.Equal(t, "30.00", ev.Order.Items[0].Subtotal)
	assert.Equal(t, int64(3), ev.TotalItems())
	assert.Equal(t, "b@example.com", ev.Buyer.Email)
}

func TestDispatcher_DeliversAndDrainsOnClose(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(pub, 8, time.Second)

	for i := int64(1); i <= 5; i++ {
		assert.True(t, d.Notify(sampleEvent(i)))
	}

	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 5, pub.count())

	// Close後は受け付けない
	assert.False(t, d.Notify(sampleEvent(6)))
}

func TestDispatcher_PublishErrorIsSwallowed(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	d := NewDispatcher(pub, 1, time.Second)

	assert.True(t, d.Notify(sampleEvent(1)))
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 1, pub.count())
}

func TestDispatcher_FullQueueDropsWithoutBlocking(t *testing.T) {
	pub := &recordingPublisher{block: make(chan struct{})}
	d := NewDispatcher(pub, 1, time.Second)

	accepted := 0
	for i := int64(1); i <= 10; i++ {
		if d.Notify(sampleEvent(i)) {
			accepted++
		}
	}
	// worker が1件抱え、キューに1件。残りは捨てる
	assert.LessOrEqual(t, accepted, 2)
	assert.GreaterOrEqual(t, accepted, 1)

	close(pub.block)
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, accepted, pub.count())
}

func TestDispatcher_CloseTimeoutAbortsInFlight(t *testing.T) {
	pub := &recordingPublisher{block: make(chan struct{})}
	d := NewDispatcher(pub, 4, time.Minute)

	d.Notify(sampleEvent(1))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := d.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
