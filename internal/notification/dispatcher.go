package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher はイベントを有界キューに積み、1本のworkerでPublisherへ渡す。
// Notifyはブロックしない。キューが満杯なら捨ててログに残す。
type Dispatcher struct {
	pub     Publisher
	timeout time.Duration

	queue chan OrderPlaced
	done  chan struct{}

	// Close待ちがタイムアウトしたら配送中のPublishも止める
	baseCtx context.Context
	abort   context.CancelFunc

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

func NewDispatcher(pub Publisher, buffer int, timeout time.Duration) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		pub:     pub,
		timeout: timeout,
		queue:   make(chan OrderPlaced, buffer),
		done:    make(chan struct{}),
		baseCtx: ctx,
		abort:   cancel,
	}
	go d.run()
	return d
}

func (d *Dispatcher) Notify(ev OrderPlaced) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		slog.Warn("order notification dropped: dispatcher closed", "event_id", ev.EventID, "order_id", ev.Order.ID)
		return false
	}

	select {
	case d.queue <- ev:
		return true
	default:
		slog.Error("order notification dropped: queue full", "event_id", ev.EventID, "order_id", ev.Order.ID)
		return false
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.queue {
		d.publish(ev)
	}
}

func (d *Dispatcher) publish(ev OrderPlaced) {
	ctx := d.baseCtx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.pub.Publish(ctx, ev); err != nil {
		slog.Error("order notification failed",
			"event_id", ev.EventID,
			"order_id", ev.Order.ID,
			"err", err,
		)
	}
}

// Close は新規受付を止め、キューに残った分を配り終えるまで待つ。
// ctxが先に切れたら配送中の分も打ち切る。
func (d *Dispatcher) Close(ctx context.Context) error {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})

	select {
	case <-d.done:
		d.abort()
		return nil
	case <-ctx.Done():
		d.abort()
		<-d.done
		return ctx.Err()
	}
}
