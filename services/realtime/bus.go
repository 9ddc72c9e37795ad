package realtime

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Booking lifecycle event types carried on the bus.
const (
	EventBookingCreated   = "booking_created"
	EventBookingUpdated   = "booking_updated"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
)

// BookingEvent is the minimal reservation snapshot event consumers need to
// decide relevance and re-query their view.
type BookingEvent struct {
	Type          string    `json:"type"`
	ReservationID string    `json:"reservationId"`
	CustomerID    string    `json:"customerId"`
	ResourceID    string    `json:"resourceId"`
	SalonID       string    `json:"salonId,omitempty"`
	Status        string    `json:"status"`
	At            time.Time `json:"at"`
}

// Handler reacts to a booking event. Handlers run on a dedicated delivery
// goroutine per subscriber; a panicking handler is isolated and never blocks
// delivery to other subscribers.
type Handler func(BookingEvent)

// subscriber owns a FIFO queue drained by one goroutine, so every subscriber
// observes events in publish order.
type subscriber struct {
	id      int
	handler Handler
	logger  *zap.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []BookingEvent
	closed bool
}

func (s *subscriber) run() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed && len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.deliver(ev)
	}
}

func (s *subscriber) deliver(ev BookingEvent) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("event subscriber panicked",
				zap.Int("subscriber", s.id),
				zap.String("event", ev.Type),
				zap.Any("panic", r))
		}
	}()
	s.handler(ev)
}

func (s *subscriber) enqueue(ev BookingEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, ev)
	s.cond.Signal()
}

func (s *subscriber) close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Bus is the process-wide publish/subscribe channel for booking lifecycle
// events. Publishing never blocks on slow consumers.
type Bus struct {
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
}

// NewBus constructs an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		logger: logger,
		subs:   make(map[int]*subscriber),
	}
}

// Subscription identifies one bus subscriber. Unsubscribe is safe to call
// multiple times.
type Subscription struct {
	bus  *Bus
	sub  *subscriber
	once sync.Once
}

// Unsubscribe removes the subscriber and stops its delivery goroutine once
// the remaining queue drains.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.sub.id)
		s.bus.mu.Unlock()
		s.sub.close()
	})
}

// Subscribe registers a handler for all booking events.
func (b *Bus) Subscribe(h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscriber{
		id:      b.nextID,
		handler: h,
		logger:  b.logger,
	}
	sub.cond = sync.NewCond(&sub.mu)
	b.subs[sub.id] = sub
	go sub.run()

	return &Subscription{bus: b, sub: sub}
}

// Publish fans the event out to every current subscriber. Enqueueing happens
// under the bus lock, so concurrent publishes are serialized into one global
// order that every subscriber observes; per-reservation delivery ordering
// follows. Queues are unbounded, so a publisher never blocks on consumers.
func (b *Bus) Publish(ev BookingEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		s.enqueue(ev)
	}
}
