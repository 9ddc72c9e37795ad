package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"glowbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeViewStore struct {
	mu   sync.Mutex
	rows []models.Reservation
}

func (s *fakeViewStore) set(rows []models.Reservation) {
	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()
}

func (s *fakeViewStore) ListForOwner(ctx context.Context, role, ownerID string) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Reservation
	for _, r := range s.rows {
		switch role {
		case RoleCustomer:
			if r.CustomerID != ownerID {
				continue
			}
		case RoleArtist:
			if r.ResourceID != ownerID {
				continue
			}
		case RoleSalon:
			if r.SalonID != ownerID {
				continue
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func waitSnapshot(t *testing.T, ch <-chan models.DashboardSnapshot) models.DashboardSnapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dashboard snapshot")
		return models.DashboardSnapshot{}
	}
}

func TestDashboardInitialSnapshot(t *testing.T) {
	bus := NewBus(zap.NewNop())
	store := &fakeViewStore{}
	store.set([]models.Reservation{
		{ID: "r1", CustomerID: "c1", Status: models.StatusPending},
		{ID: "r2", CustomerID: "c1", Status: models.StatusConfirmed},
		{ID: "r3", CustomerID: "c2", Status: models.StatusConfirmed},
	})

	ds := NewDashboardSync(bus, store, RoleCustomer, "c1", zap.NewNop())
	defer ds.Unsubscribe()

	snap := waitSnapshot(t, ds.Snapshots())
	assert.Len(t, snap.Bookings, 2)
	assert.Equal(t, 2, snap.Stats.Total)
	assert.Equal(t, 1, snap.Stats.Pending)
	assert.Equal(t, 1, snap.Stats.Confirmed)
}

func TestDashboardRefreshesOnRelevantEvent(t *testing.T) {
	bus := NewBus(zap.NewNop())
	store := &fakeViewStore{}
	store.set([]models.Reservation{{ID: "r1", ResourceID: "a1", Status: models.StatusPending}})

	ds := NewDashboardSync(bus, store, RoleArtist, "a1", zap.NewNop())
	defer ds.Unsubscribe()

	waitSnapshot(t, ds.Snapshots())

	store.set([]models.Reservation{
		{ID: "r1", ResourceID: "a1", Status: models.StatusConfirmed},
		{ID: "r2", ResourceID: "a1", Status: models.StatusPending},
	})
	bus.Publish(BookingEvent{Type: EventBookingCreated, ReservationID: "r2", ResourceID: "a1"})

	snap := waitSnapshot(t, ds.Snapshots())
	assert.Equal(t, 2, snap.Stats.Total)
	assert.Equal(t, 1, snap.Stats.Confirmed)
}

func TestDashboardIgnoresIrrelevantEvents(t *testing.T) {
	bus := NewBus(zap.NewNop())
	store := &fakeViewStore{}
	store.set([]models.Reservation{{ID: "r1", SalonID: "s1", Status: models.StatusPending}})

	ds := NewDashboardSync(bus, store, RoleSalon, "s1", zap.NewNop())
	defer ds.Unsubscribe()

	waitSnapshot(t, ds.Snapshots())

	bus.Publish(BookingEvent{Type: EventBookingCreated, ReservationID: "rX", SalonID: "other"})

	select {
	case <-ds.Snapshots():
		t.Fatal("received snapshot for another salon's event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDashboardDuplicateEventsConverge(t *testing.T) {
	bus := NewBus(zap.NewNop())
	store := &fakeViewStore{}
	store.set([]models.Reservation{{ID: "r1", CustomerID: "c1", Status: models.StatusConfirmed}})

	ds := NewDashboardSync(bus, store, RoleCustomer, "c1", zap.NewNop())
	defer ds.Unsubscribe()

	waitSnapshot(t, ds.Snapshots())

	// Redelivered event: the recomputed view must not double-count.
	ev := BookingEvent{Type: EventBookingConfirmed, ReservationID: "r1", CustomerID: "c1"}
	bus.Publish(ev)
	bus.Publish(ev)

	deadline := time.After(500 * time.Millisecond)
	var last models.DashboardSnapshot
	got := false
	for {
		select {
		case snap := <-ds.Snapshots():
			last = snap
			got = true
		case <-deadline:
			require.True(t, got)
			assert.Equal(t, 1, last.Stats.Total)
			assert.Equal(t, 1, last.Stats.Confirmed)
			return
		}
	}
}

func TestDashboardConflatesForSlowConsumers(t *testing.T) {
	bus := NewBus(zap.NewNop())
	store := &fakeViewStore{}
	store.set(nil)

	ds := NewDashboardSync(bus, store, RoleAll, "", zap.NewNop())
	defer ds.Unsubscribe()

	// Nobody reads while many events land; the channel holds only the latest.
	for i := 0; i < 20; i++ {
		bus.Publish(BookingEvent{Type: EventBookingUpdated, ReservationID: "r1"})
	}
	store.set([]models.Reservation{{ID: "final", Status: models.StatusCompleted}})
	bus.Publish(BookingEvent{Type: EventBookingUpdated, ReservationID: "r1"})

	require.Eventually(t, func() bool {
		select {
		case snap := <-ds.Snapshots():
			return len(snap.Bookings) == 1 && snap.Bookings[0].ID == "final"
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestDashboardUnsubscribeTwiceIsSafe(t *testing.T) {
	bus := NewBus(zap.NewNop())
	store := &fakeViewStore{}

	ds := NewDashboardSync(bus, store, RoleAll, "", zap.NewNop())
	ds.Unsubscribe()
	ds.Unsubscribe()
}
