package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	reservationRepo "glowbook/database/repository/reservation"
	"glowbook/models"
	"glowbook/services/catalog"
	"glowbook/services/profile"
	"glowbook/services/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memRepo is an in-memory stand-in for the Mongo reservation repository.
type memRepo struct {
	mu          sync.Mutex
	rows        map[string]*models.Reservation
	failInserts int // Inserts to fail with a transient error before succeeding
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[string]*models.Reservation)}
}

func (m *memRepo) Insert(ctx context.Context, r *models.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInserts > 0 {
		m.failInserts--
		return fmt.Errorf("insert reservation: %w", reservationRepo.ErrTransient)
	}
	cp := *r
	m.rows[r.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, reservationRepo.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) FindActiveOverlapping(ctx context.Context, resourceID string, start, end time.Time) ([]models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reservation
	for _, r := range m.rows {
		if r.ResourceID == resourceID && r.IsActive() && r.Overlaps(start, end) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRepo) ApplyTransition(ctx context.Context, id string, fromStatuses []string, patch models.ReservationPatch) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return false, nil
	}
	matched := false
	for _, s := range fromStatuses {
		if r.Status == s {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	if patch.Status != nil {
		r.Status = *patch.Status
	}
	if patch.PaymentStatus != nil {
		r.PaymentStatus = *patch.PaymentStatus
	}
	if patch.Note != nil {
		r.Note = *patch.Note
	}
	r.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *memRepo) ListForOwner(ctx context.Context, role, ownerID string) ([]models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reservation
	for _, r := range m.rows {
		switch role {
		case reservationRepo.RoleCustomer:
			if r.CustomerID != ownerID {
				continue
			}
		case reservationRepo.RoleArtist:
			if r.ResourceID != ownerID {
				continue
			}
		case reservationRepo.RoleSalon:
			if r.SalonID != ownerID {
				continue
			}
		}
		out = append(out, *r)
	}
	return out, nil
}

func (m *memRepo) ListPendingPaymentOlderThan(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reservation
	for _, r := range m.rows {
		if r.Status == models.StatusPending && r.PaymentStatus == models.PaymentPending && r.CreatedAt.Before(cutoff) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRepo) get(id string) models.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.rows[id]
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type fakeCatalog struct {
	services map[string]*models.Service
}

func (f *fakeCatalog) GetService(ctx context.Context, id string) (*models.Service, error) {
	svc, ok := f.services[id]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}
	return svc, nil
}

type fakeProfiles struct {
	profiles map[string]*models.Profile
}

func (f *fakeProfiles) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return p, nil
}

type fakePayments struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakePayments) CreateIntent(ctx context.Context, req models.PaymentRequest) (*models.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.PaymentIntent{
		ID:           "pi_" + req.ReservationID,
		ClientSecret: "secret_" + req.ReservationID,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       "requires_payment_method",
	}, nil
}

func newTestEngine(repo *memRepo, payments *fakePayments) *DefaultReservationEngine {
	return &DefaultReservationEngine{
		Repo:      repo,
		Conflicts: &StoreConflictDetector{Repo: repo},
		Catalog: &fakeCatalog{services: map[string]*models.Service{
			"svc-cut": {ID: "svc-cut", Name: "Haircut", Price: 45, DurationMin: 30},
			"svc-dye": {ID: "svc-dye", Name: "Coloring", Price: 120, DurationMin: 90},
		}},
		Profiles: &fakeProfiles{profiles: map[string]*models.Profile{
			"artist-1": {ID: "artist-1", DisplayName: "Ana", SalonID: "salon-1"},
			"cust-1":   {ID: "cust-1", DisplayName: "Ben"},
		}},
		Payments:        payments,
		Bus:             realtime.NewBus(zap.NewNop()),
		Logger:          zap.NewNop(),
		Currency:        "usd",
		DefaultDuration: 30 * time.Minute,
	}
}

func createInput(date, clock string) models.CreateBookingInput {
	return models.CreateBookingInput{
		CustomerID: "cust-1",
		ResourceID: "artist-1",
		ServiceID:  "svc-cut",
		Date:       date,
		Time:       clock,
	}
}

func TestCreateBookingHappyPath(t *testing.T) {
	repo := newMemRepo()
	payments := &fakePayments{}
	eng := newTestEngine(repo, payments)

	result, err := eng.CreateBookingWithPayment(context.Background(), createInput("2026-09-10", "10:00"))
	require.NoError(t, err)
	require.NotNil(t, result.Booking)
	require.NotNil(t, result.PaymentIntent)
	assert.Empty(t, result.Conflicts)

	r := result.Booking
	assert.Equal(t, models.StatusPending, r.Status)
	assert.Equal(t, models.PaymentPending, r.PaymentStatus)
	assert.Equal(t, "salon-1", r.SalonID)
	assert.Equal(t, 45.0, r.Price)
	assert.Equal(t, 30*time.Minute, r.End.Sub(r.Start))
	assert.Equal(t, 1, repo.count())
}

func TestCreateBookingValidation(t *testing.T) {
	eng := newTestEngine(newMemRepo(), &fakePayments{})

	cases := []struct {
		name   string
		mutate func(*models.CreateBookingInput)
	}{
		{"missing customer", func(in *models.CreateBookingInput) { in.CustomerID = "" }},
		{"missing resource", func(in *models.CreateBookingInput) { in.ResourceID = "" }},
		{"missing service", func(in *models.CreateBookingInput) { in.ServiceID = "" }},
		{"bad time", func(in *models.CreateBookingInput) { in.Time = "25:99" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := createInput("2026-09-10", "10:00")
			tc.mutate(&in)
			_, err := eng.CreateBookingWithPayment(context.Background(), in)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
		})
	}
}

func TestCreateBookingUnknownServiceAndResource(t *testing.T) {
	eng := newTestEngine(newMemRepo(), &fakePayments{})

	in := createInput("2026-09-10", "10:00")
	in.ServiceID = "svc-nope"
	_, err := eng.CreateBookingWithPayment(context.Background(), in)
	var ne *NotFoundError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "service", ne.Kind)

	in = createInput("2026-09-10", "10:00")
	in.ResourceID = "artist-nope"
	_, err = eng.CreateBookingWithPayment(context.Background(), in)
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "resource", ne.Kind)
}

func TestCreateBookingConflictIsDataNotError(t *testing.T) {
	repo := newMemRepo()
	eng := newTestEngine(repo, &fakePayments{})

	first, err := eng.CreateBookingWithPayment(context.Background(), createInput("2026-09-10", "10:00"))
	require.NoError(t, err)
	require.NotNil(t, first.Booking)

	// Overlapping request: 10:15 lands inside [10:00, 10:30).
	second, err := eng.CreateBookingWithPayment(context.Background(), createInput("2026-09-10", "10:15"))
	require.NoError(t, err)
	assert.Nil(t, second.Booking)
	assert.Nil(t, second.PaymentIntent)
	require.Len(t, second.Conflicts, 1)
	assert.Equal(t, first.Booking.ID, second.Conflicts[0].ID)

	// Nothing was persisted for the losing request.
	assert.Equal(t, 1, repo.count())
}

func TestCreateBookingBackToBackSlotsDoNotConflict(t *testing.T) {
	repo := newMemRepo()
	eng := newTestEngine(repo, &fakePayments{})

	first, err := eng.CreateBookingWithPayment(context.Background(), createInput("2026-09-10", "10:00"))
	require.NoError(t, err)
	require.NotNil(t, first.Booking)

	// [10:00, 10:30) and [10:30, 11:00) share only the boundary instant.
	second, err := eng.CreateBookingWithPayment(context.Background(), createInput("2026-09-10", "10:30"))
	require.NoError(t, err)
	require.NotNil(t, second.Booking)
	assert.Empty(t, second.Conflicts)
	assert.Equal(t, 2, repo.count())
}

func TestCreateBookingConcurrentSameSlotOneWinner(t *testing.T) {
	repo := newMemRepo()
	eng := newTestEngine(repo, &fakePayments{})

	const attempts = 8
	results := make([]*models.BookingResult, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = eng.CreateBookingWithPayment(context.Background(), createInput("2026-09-10", "14:00"))
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := 0; i < attempts; i++ {
		require.NoError(t, errs[i])
		if results[i].Booking != nil {
			winners++
		} else {
			assert.NotEmpty(t, results[i].Conflicts)
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, repo.count())
}

func TestCreateBookingPaymentFailureReleasesSlot(t *testing.T) {
	repo := newMemRepo()
	payments := &fakePayments{err: errors.New("card network down")}
	eng := newTestEngine(repo, payments)

	_, err := eng.CreateBookingWithPayment(context.Background(), createInput("2026-09-10", "10:00"))
	var pe *PaymentError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "create_intent", pe.Stage)

	// The compensated row remains as an audit record but no longer holds the slot.
	payments.err = nil
	retry, err := eng.CreateBookingWithPayment(context.Background(), createInput("2026-09-10", "10:00"))
	require.NoError(t, err)
	require.NotNil(t, retry.Booking)
	assert.Empty(t, retry.Conflicts)
}

func TestCreateBookingRetriesTransientInsert(t *testing.T) {
	repo := newMemRepo()
	repo.failInserts = 2
	eng := newTestEngine(repo, &fakePayments{})

	result, err := eng.CreateBookingWithPayment(context.Background(), createInput("2026-09-10", "10:00"))
	require.NoError(t, err)
	require.NotNil(t, result.Booking)
}

func TestCreateBookingTransientExhaustion(t *testing.T) {
	repo := newMemRepo()
	repo.failInserts = 10
	eng := newTestEngine(repo, &fakePayments{})

	_, err := eng.CreateBookingWithPayment(context.Background(), createInput("2026-09-10", "10:00"))
	var te *TransientStoreError
	require.ErrorAs(t, err, &te)
}

func TestUpdateBookingTransitions(t *testing.T) {
	repo := newMemRepo()
	eng := newTestEngine(repo, &fakePayments{})

	created, err := eng.CreateBookingWithPayment(context.Background(), createInput("2026-09-10", "10:00"))
	require.NoError(t, err)
	id := created.Booking.ID

	// pending -> completed skips confirmed and is rejected.
	completed := models.StatusCompleted
	ok, err := eng.UpdateBooking(context.Background(), id, models.BookingUpdate{Status: &completed})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, models.StatusPending, repo.get(id).Status)

	// pending -> confirmed is legal.
	confirmed := models.StatusConfirmed
	ok, err = eng.UpdateBooking(context.Background(), id, models.BookingUpdate{Status: &confirmed})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.StatusConfirmed, repo.get(id).Status)

	// A confirmed booking cannot carry a failed payment.
	failed := models.PaymentFailed
	ok, err = eng.UpdateBooking(context.Background(), id, models.BookingUpdate{PaymentStatus: &failed})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateBookingUnknownID(t *testing.T) {
	eng := newTestEngine(newMemRepo(), &fakePayments{})
	note := "hi"
	_, err := eng.UpdateBooking(context.Background(), "missing", models.BookingUpdate{Note: &note})
	var ne *NotFoundError
	require.ErrorAs(t, err, &ne)
}

func TestCancelBookingIdempotent(t *testing.T) {
	repo := newMemRepo()
	eng := newTestEngine(repo, &fakePayments{})

	created, err := eng.CreateBookingWithPayment(context.Background(), createInput("2026-09-10", "10:00"))
	require.NoError(t, err)
	id := created.Booking.ID

	ok, err := eng.CancelBooking(context.Background(), id, "customer changed plans")
	require.NoError(t, err)
	assert.True(t, ok)
	got := repo.get(id)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Contains(t, got.Note, "customer changed plans")

	// Second cancel succeeds without touching the row again.
	before := got.UpdatedAt
	ok, err = eng.CancelBooking(context.Background(), id, "again")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, before, repo.get(id).UpdatedAt)
}

func TestCancelBookingCompletedRejected(t *testing.T) {
	repo := newMemRepo()
	eng := newTestEngine(repo, &fakePayments{})

	created, err := eng.CreateBookingWithPayment(context.Background(), createInput("2026-09-10", "10:00"))
	require.NoError(t, err)
	id := created.Booking.ID

	confirmed := models.StatusConfirmed
	_, err = eng.UpdateBooking(context.Background(), id, models.BookingUpdate{Status: &confirmed})
	require.NoError(t, err)
	done := models.StatusCompleted
	_, err = eng.UpdateBooking(context.Background(), id, models.BookingUpdate{Status: &done})
	require.NoError(t, err)

	ok, err := eng.CancelBooking(context.Background(), id, "too late")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, models.StatusCompleted, repo.get(id).Status)
}

func TestConfirmPaymentPaid(t *testing.T) {
	repo := newMemRepo()
	eng := newTestEngine(repo, &fakePayments{})

	created, err := eng.CreateBookingWithPayment(context.Background(), createInput("2026-09-10", "10:00"))
	require.NoError(t, err)
	id := created.Booking.ID

	require.NoError(t, eng.ConfirmPayment(context.Background(), id, OutcomePaid))
	got := repo.get(id)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, models.PaymentPaid, got.PaymentStatus)

	// Duplicate webhook delivery is a no-op.
	before := got.UpdatedAt
	require.NoError(t, eng.ConfirmPayment(context.Background(), id, OutcomePaid))
	assert.Equal(t, before, repo.get(id).UpdatedAt)
}

func TestConfirmPaymentFailedCancels(t *testing.T) {
	repo := newMemRepo()
	eng := newTestEngine(repo, &fakePayments{})

	created, err := eng.CreateBookingWithPayment(context.Background(), createInput("2026-09-10", "10:00"))
	require.NoError(t, err)
	id := created.Booking.ID

	require.NoError(t, eng.ConfirmPayment(context.Background(), id, OutcomeFailed))
	got := repo.get(id)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Equal(t, models.PaymentFailed, got.PaymentStatus)
	assert.Contains(t, got.Note, "payment failed")

	// The slot is free again.
	retry, err := eng.CreateBookingWithPayment(context.Background(), createInput("2026-09-10", "10:00"))
	require.NoError(t, err)
	require.NotNil(t, retry.Booking)
}

func TestConfirmPaymentBadOutcome(t *testing.T) {
	repo := newMemRepo()
	eng := newTestEngine(repo, &fakePayments{})

	created, err := eng.CreateBookingWithPayment(context.Background(), createInput("2026-09-10", "10:00"))
	require.NoError(t, err)

	err = eng.ConfirmPayment(context.Background(), created.Booking.ID, "maybe")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestSweepExpiredPending(t *testing.T) {
	repo := newMemRepo()
	eng := newTestEngine(repo, &fakePayments{})

	mk := func(id string, age time.Duration, status, payment string) {
		now := time.Now().UTC()
		repo.rows[id] = &models.Reservation{
			ID:            id,
			CustomerID:    "cust-1",
			ResourceID:    "artist-1",
			Status:        status,
			PaymentStatus: payment,
			Start:         now.Add(time.Hour),
			End:           now.Add(90 * time.Minute),
			CreatedAt:     now.Add(-age),
		}
	}
	mk("stale-1", 30*time.Minute, models.StatusPending, models.PaymentPending)
	mk("stale-2", time.Hour, models.StatusPending, models.PaymentPending)
	mk("fresh", time.Minute, models.StatusPending, models.PaymentPending)
	mk("paid", time.Hour, models.StatusConfirmed, models.PaymentPaid)

	swept, err := eng.SweepExpiredPending(context.Background(), 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, swept)

	assert.Equal(t, models.StatusCancelled, repo.get("stale-1").Status)
	assert.Equal(t, models.StatusCancelled, repo.get("stale-2").Status)
	assert.Equal(t, models.StatusPending, repo.get("fresh").Status)
	assert.Equal(t, models.StatusConfirmed, repo.get("paid").Status)

	// Running the sweep again finds nothing.
	swept, err = eng.SweepExpiredPending(context.Background(), 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, swept)
}

func TestCreateBookingPublishesEvent(t *testing.T) {
	repo := newMemRepo()
	eng := newTestEngine(repo, &fakePayments{})

	var mu sync.Mutex
	var got []realtime.BookingEvent
	sub := eng.Bus.Subscribe(func(ev realtime.BookingEvent) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})
	defer sub.Unsubscribe()

	created, err := eng.CreateBookingWithPayment(context.Background(), createInput("2026-09-10", "10:00"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, realtime.EventBookingCreated, got[0].Type)
	assert.Equal(t, created.Booking.ID, got[0].ReservationID)
	assert.Equal(t, "salon-1", got[0].SalonID)
}
