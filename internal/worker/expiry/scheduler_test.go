package expiry_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-RentalService/internal/service/allocator"
	"github.com/m04kA/SMC-RentalService/internal/service/catalog"
	"github.com/m04kA/SMC-RentalService/internal/usecase/decide_booking"
	"github.com/m04kA/SMC-RentalService/internal/worker/expiry"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
)

type fixedTime struct {
	now time.Time
}

func (f fixedTime) Now() time.Time { return f.now }

func TestScheduler_Tick(t *testing.T) {
	ctx := context.Background()
	log := logger.NewWithWriter(io.Discard, logger.LevelError)
	store := memory.NewStore()
	tx := store.TxManager()

	catalogService := catalog.NewService(store.Resources(), store.Bookings(), tx, log)
	decide := decide_booking.NewUseCase(store.Bookings(), allocator.NewService(catalogService, nil, log), tx, nil, log)

	_, err := store.Resources().Create(ctx, &domain.Resource{
		ID: "r1", Kind: domain.KindAdventureDeparture, Name: "River rafting", Capacity: 5,
	})
	require.NoError(t, err)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seed := []struct {
		id     string
		age    time.Duration
		status domain.BookingStatus
	}{
		{id: "old-pending", age: 3 * time.Hour, status: domain.StatusPending},
		{id: "old-approved", age: 3 * time.Hour, status: domain.StatusApproved},
		{id: "fresh-pending", age: 10 * time.Minute, status: domain.StatusPending},
	}
	for _, s := range seed {
		_, err := store.Resources().TryCommit(ctx, "r1", 1)
		require.NoError(t, err)
		_, err = store.Bookings().Create(ctx, &domain.Booking{
			ID: s.id, ResourceID: "r1", ResourceKind: domain.KindAdventureDeparture,
			Quantity: 1, Status: s.status, CreatedAt: now.Add(-s.age),
		})
		require.NoError(t, err)
	}

	scheduler := expiry.New(store.Bookings(), decide, expiry.Config{
		PendingTTL: time.Hour,
		Interval:   time.Minute,
	}, log).WithTimeProvider(fixedTime{now: now})

	cancelled, err := scheduler.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cancelled)

	expired, err := store.Bookings().GetByID(ctx, "old-pending")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, expired.Status)
	require.NotNil(t, expired.CancelledBy)
	assert.Equal(t, domain.ActorExpiry, *expired.CancelledBy)

	res, err := store.Resources().GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Committed)

	cancelled, err = scheduler.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, cancelled)
}

// approvingLister одобряет каждую найденную заявку до того, как воркер успеет ее отменить
type approvingLister struct {
	expiry.PendingLister
	decide *decide_booking.UseCase
}

func (l approvingLister) ListPendingCreatedBefore(ctx context.Context, before time.Time, limit int) ([]*domain.Booking, error) {
	stale, err := l.PendingLister.ListPendingCreatedBefore(ctx, before, limit)
	if err != nil {
		return nil, err
	}
	for _, b := range stale {
		if _, err := l.decide.Approve(ctx, &decide_booking.ApproveRequest{BookingID: b.ID, By: "admin-1"}); err != nil {
			return nil, err
		}
	}
	return stale, nil
}

func TestScheduler_TickSkipsBookingApprovedAfterListing(t *testing.T) {
	ctx := context.Background()
	log := logger.NewWithWriter(io.Discard, logger.LevelError)
	store := memory.NewStore()
	tx := store.TxManager()

	catalogService := catalog.NewService(store.Resources(), store.Bookings(), tx, log)
	decide := decide_booking.NewUseCase(store.Bookings(), allocator.NewService(catalogService, nil, log), tx, nil, log)

	_, err := store.Resources().Create(ctx, &domain.Resource{
		ID: "r1", Kind: domain.KindVehicle, Name: "Lada Niva", Capacity: 1,
	})
	require.NoError(t, err)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	_, err = store.Resources().TryCommit(ctx, "r1", 1)
	require.NoError(t, err)
	_, err = store.Bookings().Create(ctx, &domain.Booking{
		ID: "late-approved", ResourceID: "r1", ResourceKind: domain.KindVehicle,
		Quantity: 1, Status: domain.StatusPending, CreatedAt: now.Add(-3 * time.Hour),
	})
	require.NoError(t, err)

	lister := approvingLister{PendingLister: store.Bookings(), decide: decide}
	scheduler := expiry.New(lister, decide, expiry.Config{
		PendingTTL: time.Hour,
		Interval:   time.Minute,
	}, log).WithTimeProvider(fixedTime{now: now})

	cancelled, err := scheduler.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, cancelled)

	b, err := store.Bookings().GetByID(ctx, "late-approved")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, b.Status)
	assert.Nil(t, b.CancelledBy)

	res, err := store.Resources().GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Committed, "approved booking keeps its unit")
}

func TestScheduler_StartDisabled(t *testing.T) {
	log := logger.NewWithWriter(io.Discard, logger.LevelError)
	scheduler := expiry.New(nil, nil, expiry.Config{}, log)

	done := make(chan struct{})
	go func() {
		scheduler.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled scheduler must return immediately")
	}
}
