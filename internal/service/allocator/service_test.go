package allocator_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-RentalService/internal/service/allocator"
	"github.com/m04kA/SMC-RentalService/internal/service/catalog"
	"github.com/m04kA/SMC-RentalService/internal/service/catalog/models"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
	"github.com/m04kA/SMC-RentalService/pkg/metrics"
)

type capacityCall struct {
	operation string
	outcome   string
	units     int
}

type recordingMetrics struct {
	mu    sync.Mutex
	calls []capacityCall
}

func (m *recordingMetrics) IncCapacityOperation(operation, outcome string, units int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, capacityCall{operation: operation, outcome: outcome, units: units})
}

func newAllocator(t *testing.T, capacity int) (*allocator.Service, *domain.Resource, *recordingMetrics) {
	t.Helper()

	log := logger.NewWithWriter(io.Discard, logger.LevelError)
	store := memory.NewStore()
	catalogService := catalog.NewService(store.Resources(), store.Bookings(), store.TxManager(), log)

	created, err := catalogService.CreateResource(context.Background(), &models.CreateResourceRequest{
		Kind:     string(domain.KindAdventureDeparture),
		Name:     "Kamchatka volcano hike",
		Capacity: capacity,
	})
	require.NoError(t, err)

	res, err := catalogService.Get(context.Background(), created.ID)
	require.NoError(t, err)

	m := &recordingMetrics{}
	return allocator.NewService(catalogService, m, log), res, m
}

func TestReserve(t *testing.T) {
	ctx := context.Background()
	alloc, res, m := newAllocator(t, 4)

	availability, err := alloc.Reserve(ctx, res.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, availability.Committed)
	assert.Equal(t, 1, availability.Available)

	availability, err = alloc.Reserve(ctx, res.ID, 2)
	require.ErrorIs(t, err, allocator.ErrCapacityExhausted)
	assert.ErrorIs(t, err, domain.ErrCapacityExhausted)
	assert.Equal(t, 1, availability.Available, "exhausted reservation reports current availability")

	_, err = alloc.Reserve(ctx, "missing", 1)
	assert.True(t, domain.IsNotFound(err))

	assert.Equal(t, []capacityCall{
		{operation: "commit", outcome: metrics.OutcomeSuccess, units: 3},
		{operation: "commit", outcome: metrics.OutcomeExhausted},
		{operation: "commit", outcome: metrics.OutcomeNotFound},
	}, m.calls)
}

func TestRelease(t *testing.T) {
	ctx := context.Background()
	alloc, res, _ := newAllocator(t, 4)

	_, err := alloc.Reserve(ctx, res.ID, 2)
	require.NoError(t, err)

	booking := domain.NewBooking("b-1", res, 2, domain.Contact{Name: "Ivan"}, time.Now())

	_, err = alloc.Release(ctx, booking, 3)
	require.ErrorIs(t, err, allocator.ErrInvalidRelease)

	_, err = alloc.Release(ctx, booking, 0)
	require.ErrorIs(t, err, allocator.ErrInvalidRelease)

	availability, err := alloc.Release(ctx, booking, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, availability.Committed)
	assert.Equal(t, 4, availability.Available)

	current, err := alloc.Availability(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, availability, current)
}

func TestReserve_ConcurrentLastUnit(t *testing.T) {
	ctx := context.Background()
	alloc, res, _ := newAllocator(t, 5)

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		exhausted int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := alloc.Reserve(ctx, res.ID, 1)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrCapacityExhausted):
				exhausted++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, workers-5, exhausted)

	availability, err := alloc.Availability(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, availability.Committed)
	assert.True(t, availability.IsFull())
}
