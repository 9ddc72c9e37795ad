package realtime

import (
	"context"
	"sync"
	"time"

	"glowbook/models"

	"go.uber.org/zap"
)

// Dashboard role filters.
const (
	RoleCustomer = "customer"
	RoleArtist   = "artist"
	RoleSalon    = "salon"
	RoleAll      = "all"
)

// ViewStore supplies the authoritative reservation listing for a role/owner.
type ViewStore interface {
	ListForOwner(ctx context.Context, role, ownerID string) ([]models.Reservation, error)
}

// DashboardSync keeps one UI consumer's bounded view current. On every
// relevant bus event it re-derives the full view from the store and pushes a
// fresh snapshot; recomputing from authoritative state (rather than applying
// deltas) makes it idempotent under duplicate event delivery.
type DashboardSync struct {
	role    string
	ownerID string
	store   ViewStore
	logger  *zap.Logger

	sub       *Subscription
	snapshots chan models.DashboardSnapshot
	once      sync.Once
}

// NewDashboardSync subscribes a new adapter to the bus and emits an initial
// snapshot so consumers render before the first event arrives.
func NewDashboardSync(bus *Bus, store ViewStore, role, ownerID string, logger *zap.Logger) *DashboardSync {
	d := &DashboardSync{
		role:      role,
		ownerID:   ownerID,
		store:     store,
		logger:    logger,
		snapshots: make(chan models.DashboardSnapshot, 1),
	}
	d.sub = bus.Subscribe(d.onEvent)
	d.refresh()
	return d
}

// Snapshots returns the stream of recomputed views. Slow consumers only ever
// see the latest snapshot; intermediate ones are conflated away.
func (d *DashboardSync) Snapshots() <-chan models.DashboardSnapshot {
	return d.snapshots
}

// Unsubscribe detaches from the bus and stops further recomputation.
// Safe to call multiple times.
func (d *DashboardSync) Unsubscribe() {
	d.once.Do(func() {
		d.sub.Unsubscribe()
	})
}

func (d *DashboardSync) onEvent(ev BookingEvent) {
	if !d.relevant(ev) {
		return
	}
	d.refresh()
}

func (d *DashboardSync) relevant(ev BookingEvent) bool {
	switch d.role {
	case RoleAll:
		return true
	case RoleCustomer:
		return ev.CustomerID == d.ownerID
	case RoleArtist:
		return ev.ResourceID == d.ownerID
	case RoleSalon:
		return ev.SalonID == d.ownerID
	}
	return false
}

func (d *DashboardSync) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bookings, err := d.store.ListForOwner(ctx, d.role, d.ownerID)
	if err != nil {
		d.logger.Warn("dashboard refresh failed",
			zap.String("role", d.role),
			zap.String("owner", d.ownerID),
			zap.Error(err))
		return
	}

	snap := models.DashboardSnapshot{
		Bookings: bookings,
		Stats:    models.ComputeStats(bookings),
	}

	// Replace a stale undelivered snapshot instead of blocking delivery.
	for {
		select {
		case d.snapshots <- snap:
			return
		default:
			select {
			case <-d.snapshots:
			default:
			}
		}
	}
}
