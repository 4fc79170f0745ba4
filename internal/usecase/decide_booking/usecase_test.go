package decide_booking_test

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-RentalService/internal/service/allocator"
	"github.com/m04kA/SMC-RentalService/internal/service/catalog"
	catalogModels "github.com/m04kA/SMC-RentalService/internal/service/catalog/models"
	"github.com/m04kA/SMC-RentalService/internal/usecase/confirm_payment"
	"github.com/m04kA/SMC-RentalService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-RentalService/internal/usecase/decide_booking"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
)

// releaseSpy считает успешные освобождения вместимости по каждому бронированию
type releaseSpy struct {
	*allocator.Service

	mu       sync.Mutex
	releases map[string]int
}

func (s *releaseSpy) Release(ctx context.Context, b *domain.Booking, units int) (domain.Availability, error) {
	availability, err := s.Service.Release(ctx, b, units)
	if err == nil {
		s.mu.Lock()
		s.releases[b.ID]++
		s.mu.Unlock()
	}
	return availability, err
}

func (s *releaseSpy) count(bookingID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releases[bookingID]
}

type engine struct {
	store   *memory.Store
	catalog *catalog.Service
	spy     *releaseSpy
	create  *create_booking.UseCase
	decide  *decide_booking.UseCase
	confirm *confirm_payment.UseCase
}

func newEngine(t *testing.T) *engine {
	t.Helper()

	log := logger.NewWithWriter(io.Discard, logger.LevelError)
	store := memory.NewStore()
	tx := store.TxManager()

	catalogService := catalog.NewService(store.Resources(), store.Bookings(), tx, log)
	spy := &releaseSpy{
		Service:  allocator.NewService(catalogService, nil, log),
		releases: make(map[string]int),
	}
	decide := decide_booking.NewUseCase(store.Bookings(), spy, tx, nil, log)

	return &engine{
		store:   store,
		catalog: catalogService,
		spy:     spy,
		create:  create_booking.NewUseCase(catalogService, spy, store.Bookings(), tx, nil, log),
		decide:  decide,
		confirm: confirm_payment.NewUseCase(store.Bookings(), spy, decide, tx, nil, log),
	}
}

func (e *engine) newResource(t *testing.T, kind domain.ResourceKind, capacity int) string {
	t.Helper()
	res, err := e.catalog.CreateResource(context.Background(), &catalogModels.CreateResourceRequest{
		Kind:     string(kind),
		Name:     "test " + string(kind),
		Capacity: capacity,
	})
	require.NoError(t, err)
	return res.ID
}

func (e *engine) book(ctx context.Context, resourceID string, quantity int) (*create_booking.Response, error) {
	return e.create.Execute(ctx, &create_booking.Request{
		ResourceID: resourceID,
		Quantity:   quantity,
		Contact: create_booking.Contact{
			Name:  "Ann Lee",
			Phone: "+79991234567",
			Email: "ann@example.com",
		},
	})
}

func (e *engine) mustBook(t *testing.T, resourceID string, quantity int) *domain.Booking {
	t.Helper()
	resp, err := e.book(context.Background(), resourceID, quantity)
	require.NoError(t, err)
	return resp.Booking
}

func (e *engine) committed(t *testing.T, resourceID string) int {
	t.Helper()
	availability, err := e.catalog.GetCapacity(context.Background(), resourceID)
	require.NoError(t, err)
	return availability.Committed
}

// checkLedger атомарно сверяет committed с суммой количеств удерживающих бронирований
func (e *engine) checkLedger(resourceID string) (committed, capacity, held int, err error) {
	err = e.store.TxManager().Do(context.Background(), func(ctx context.Context) error {
		res, err := e.store.Resources().GetByID(ctx, resourceID)
		if err != nil {
			return err
		}
		bookings, err := e.store.Bookings().ListByResource(ctx, domain.BookingsFilter{ResourceID: resourceID})
		if err != nil {
			return err
		}
		committed, capacity = res.Committed, res.Capacity
		for _, b := range bookings {
			if b.Status.HoldsCapacity() || b.Status == domain.StatusConfirmed {
				held += b.Quantity
			}
		}
		return nil
	})
	return committed, capacity, held, err
}

func (e *engine) approve(ctx context.Context, id string) (*decide_booking.Response, error) {
	return e.decide.Approve(ctx, &decide_booking.ApproveRequest{BookingID: id, By: "admin-1"})
}

func (e *engine) reject(ctx context.Context, id string) (*decide_booking.Response, error) {
	return e.decide.Reject(ctx, &decide_booking.RejectRequest{BookingID: id, By: "admin-1", Reason: "no guide"})
}

func (e *engine) cancel(ctx context.Context, id string) (*decide_booking.Response, error) {
	return e.decide.Cancel(ctx, &decide_booking.CancelRequest{BookingID: id, By: "admin-1", Reason: "customer request"})
}

func (e *engine) delete(ctx context.Context, id string) (*decide_booking.Response, error) {
	return e.decide.Delete(ctx, &decide_booking.DeleteRequest{BookingID: id, By: "admin-1"})
}

func (e *engine) confirmPayment(ctx context.Context, id string) (*confirm_payment.Response, error) {
	return e.confirm.ConfirmPayment(ctx, &confirm_payment.ConfirmRequest{BookingID: id, PaymentRef: "pay-" + id})
}

func TestScenario_AdventurePartialFill(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	resourceID := e.newResource(t, domain.KindAdventureDeparture, 2)

	first, err := e.book(ctx, resourceID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, first.Booking.Status)
	assert.Equal(t, 1, first.Availability.Committed)

	_, err = e.book(ctx, resourceID, 2)
	require.ErrorIs(t, err, domain.ErrCapacityExhausted)
	assert.Equal(t, 1, e.committed(t, resourceID))

	third, err := e.book(ctx, resourceID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, third.Booking.Status)
	assert.Equal(t, 2, third.Availability.Committed)
	assert.True(t, third.Availability.IsFull())
}

func TestScenario_VehicleApproveRejectCancel(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	resourceID := e.newResource(t, domain.KindVehicle, 1)
	b := e.mustBook(t, resourceID, 1)
	assert.Equal(t, 1, e.committed(t, resourceID))

	approved, err := e.approve(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Booking.Status)
	assert.Equal(t, 1, approved.Availability.Committed)

	_, err = e.reject(ctx, b.ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 1, e.committed(t, resourceID))

	cancelled, err := e.cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Booking.Status)
	assert.Equal(t, 0, cancelled.Availability.Committed)
	assert.Equal(t, 0, e.committed(t, resourceID))
}

func TestScenario_ConfirmWithoutApprove(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	resourceID := e.newResource(t, domain.KindVehicle, 1)
	b := e.mustBook(t, resourceID, 1)

	_, err := e.confirmPayment(ctx, b.ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 1, e.committed(t, resourceID))
}

func TestScenario_ConfirmedIsTerminal(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	resourceID := e.newResource(t, domain.KindAdventureDeparture, 3)
	b := e.mustBook(t, resourceID, 1)

	_, err := e.approve(ctx, b.ID)
	require.NoError(t, err)
	confirmed, err := e.confirmPayment(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, confirmed.Booking.Status)

	_, err = e.cancel(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = e.reject(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = e.delete(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.Equal(t, 1, e.committed(t, resourceID))
	assert.Zero(t, e.spy.count(b.ID))
}

func TestScenario_DeletePendingFreesCapacity(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	resourceID := e.newResource(t, domain.KindVehicle, 1)
	b := e.mustBook(t, resourceID, 1)

	_, err := e.book(ctx, resourceID, 1)
	require.ErrorIs(t, err, domain.ErrCapacityExhausted)

	deleted, err := e.delete(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, deleted.Changed)
	assert.Equal(t, 0, deleted.Availability.Committed)

	again, err := e.book(ctx, resourceID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Availability.Committed)

	// Удаленное бронирование больше не видно остальным операциям
	_, err = e.approve(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	replay, err := e.delete(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, replay.Changed)
	assert.Equal(t, 1, e.spy.count(b.ID))
}

func TestApprove_Idempotent(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	resourceID := e.newResource(t, domain.KindAdventureDeparture, 4)
	b := e.mustBook(t, resourceID, 2)

	first, err := e.approve(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, first.Changed)

	second, err := e.approve(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, domain.StatusApproved, second.Booking.Status)
	assert.Equal(t, first.Booking.Version, second.Booking.Version)
	assert.Equal(t, 2, e.committed(t, resourceID))
}

func TestDecide_Validation(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.decide.Reject(ctx, &decide_booking.RejectRequest{BookingID: "b1", By: "admin"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = e.decide.Cancel(ctx, &decide_booking.CancelRequest{BookingID: "b1", Reason: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = e.decide.Approve(ctx, &decide_booking.ApproveRequest{By: "admin"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = e.approve(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_LastUnitRace(t *testing.T) {
	e := newEngine(t)

	for round := 0; round < 50; round++ {
		resourceID := e.newResource(t, domain.KindVehicle, 1)

		var (
			wg    sync.WaitGroup
			start = make(chan struct{})
			errs  = make([]error, 2)
		)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				_, errs[i] = e.book(context.Background(), resourceID, 1)
			}(i)
		}
		close(start)
		wg.Wait()

		succeeded, exhausted := 0, 0
		for _, err := range errs {
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, domain.ErrCapacityExhausted):
				exhausted++
			}
		}
		require.Equal(t, 1, succeeded, "round %d", round)
		require.Equal(t, 1, exhausted, "round %d", round)
		assert.Equal(t, 1, e.committed(t, resourceID))
	}
}

func TestRelease_AtMostOncePerBooking(t *testing.T) {
	e := newEngine(t)
	resourceID := e.newResource(t, domain.KindAdventureDeparture, 3)
	b := e.mustBook(t, resourceID, 3)

	ops := []func(context.Context, string) error{
		func(ctx context.Context, id string) error { _, err := e.reject(ctx, id); return err },
		func(ctx context.Context, id string) error { _, err := e.cancel(ctx, id); return err },
		func(ctx context.Context, id string) error { _, err := e.delete(ctx, id); return err },
	}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = ops[i%len(ops)](context.Background(), b.ID)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, e.spy.count(b.ID))
	assert.Equal(t, 0, e.committed(t, resourceID))
}

func TestConfirmed_ConcurrentDestructiveCalls(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	resourceID := e.newResource(t, domain.KindAdventureDeparture, 2)
	b := e.mustBook(t, resourceID, 2)
	_, err := e.approve(ctx, b.ID)
	require.NoError(t, err)
	_, err = e.confirmPayment(ctx, b.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			switch i % 3 {
			case 0:
				_, err = e.reject(ctx, b.ID)
			case 1:
				_, err = e.cancel(ctx, b.ID)
			default:
				_, err = e.delete(ctx, b.ID)
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	}
	assert.Equal(t, 2, e.committed(t, resourceID))
	assert.Zero(t, e.spy.count(b.ID))
}

func TestCapacityInvariant_RandomConcurrentOperations(t *testing.T) {
	e := newEngine(t)
	const capacity = 5
	resourceID := e.newResource(t, domain.KindAdventureDeparture, capacity)

	var (
		mu  sync.Mutex
		ids []string
	)
	pick := func(rng *rand.Rand) (string, bool) {
		mu.Lock()
		defer mu.Unlock()
		if len(ids) == 0 {
			return "", false
		}
		return ids[rng.Intn(len(ids))], true
	}

	done := make(chan struct{})
	samplerDone := make(chan struct{})
	go func() {
		defer close(samplerDone)
		for {
			select {
			case <-done:
				return
			default:
			}
			committed, capacity, held, err := e.checkLedger(resourceID)
			if !assert.NoError(t, err) {
				return
			}
			assert.LessOrEqual(t, committed, capacity)
			assert.Equal(t, held, committed)
			time.Sleep(time.Millisecond)
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			ctx := context.Background()
			rng := rand.New(rand.NewSource(seed))

			for i := 0; i < 60; i++ {
				op := rng.Intn(6)
				if op == 0 {
					resp, err := e.book(ctx, resourceID, 1+rng.Intn(2))
					if err == nil {
						mu.Lock()
						ids = append(ids, resp.Booking.ID)
						mu.Unlock()
					} else {
						assert.ErrorIs(t, err, domain.ErrCapacityExhausted)
					}
					continue
				}

				id, ok := pick(rng)
				if !ok {
					continue
				}
				var err error
				switch op {
				case 1:
					_, err = e.approve(ctx, id)
				case 2:
					_, err = e.reject(ctx, id)
				case 3:
					_, err = e.cancel(ctx, id)
				case 4:
					_, err = e.confirmPayment(ctx, id)
				case 5:
					_, err = e.delete(ctx, id)
				}
				if err != nil {
					assert.Truef(t,
						domain.IsInvalidTransition(err) || domain.IsNotFound(err),
						"unexpected error for op %d: %v", op, err)
				}
			}
		}(int64(w + 1))
	}
	wg.Wait()
	close(done)
	<-samplerDone

	committed, capacityNow, held, err := e.checkLedger(resourceID)
	require.NoError(t, err)
	assert.LessOrEqual(t, committed, capacityNow)
	assert.Equal(t, held, committed)

	mu.Lock()
	defer mu.Unlock()
	for _, id := range ids {
		assert.LessOrEqual(t, e.spy.count(id), 1, "booking %s released more than once", id)
	}
}

func TestCancel_OnlyIfStatus(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	resourceID := e.newResource(t, domain.KindAdventureDeparture, 4)
	pending := domain.StatusPending

	approved := e.mustBook(t, resourceID, 2)
	_, err := e.approve(ctx, approved.ID)
	require.NoError(t, err)

	_, err = e.decide.Cancel(ctx, &decide_booking.CancelRequest{
		BookingID: approved.ID, By: domain.ActorExpiry, Reason: "expired", OnlyIfStatus: &pending,
	})
	require.ErrorIs(t, err, decide_booking.ErrStatusMismatch)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 2, e.committed(t, resourceID))
	assert.Zero(t, e.spy.count(approved.ID))

	waiting := e.mustBook(t, resourceID, 1)
	resp, err := e.decide.Cancel(ctx, &decide_booking.CancelRequest{
		BookingID: waiting.ID, By: domain.ActorExpiry, Reason: "expired", OnlyIfStatus: &pending,
	})
	require.NoError(t, err)
	assert.True(t, resp.Changed)
	assert.Equal(t, domain.StatusCancelled, resp.Booking.Status)
	assert.Equal(t, 2, e.committed(t, resourceID))

	// Повтор на уже отмененном бронировании остается идемпотентным
	resp, err = e.decide.Cancel(ctx, &decide_booking.CancelRequest{
		BookingID: waiting.ID, By: domain.ActorExpiry, Reason: "expired", OnlyIfStatus: &pending,
	})
	require.NoError(t, err)
	assert.False(t, resp.Changed)
	assert.Equal(t, 1, e.spy.count(waiting.ID))

	confirmed := domain.StatusConfirmed
	_, err = e.decide.Cancel(ctx, &decide_booking.CancelRequest{
		BookingID: waiting.ID, By: "admin-1", Reason: "x", OnlyIfStatus: &confirmed,
	})
	assert.ErrorIs(t, err, decide_booking.ErrInvalidInput)
}
