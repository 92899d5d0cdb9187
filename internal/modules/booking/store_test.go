package booking

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"spacerental/internal/domain"
	"spacerental/internal/pkg/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createParams(start time.Time, hours int) CreateParams {
	return CreateParams{
		UserID:     1,
		RoomID:     "room-1",
		StartTime:  start,
		Duration:   hours,
		HourlyRate: 10,
	}
}

func TestStore_Create(t *testing.T) {
	clock := newFakeClock(baseTime)
	store, durable := newTestStore(clock)
	ctx := context.Background()

	b, err := store.Create(ctx, CreateParams{
		UserID:     1,
		RoomID:     "room-1",
		StartTime:  baseTime.Add(time.Hour),
		Duration:   2,
		HourlyRate: 10,
		Services:   []domain.LineItem{{ItemID: "coffee", Price: 2.5, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, "book-1", b.ID)
	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Equal(t, baseTime.Add(3*time.Hour), b.EndTime)
	assert.Equal(t, 20.0, b.BasePrice)
	assert.Equal(t, 5.0, b.ServicesTotal)
	assert.Equal(t, 0.0, b.ProductsTotal)
	assert.Equal(t, 25.0, b.TotalPrice)
	assert.Equal(t, baseTime, b.CreatedAt)
	assert.Equal(t, 1, durable.saveCount())
}

func TestStore_CreateOverlapDeclined(t *testing.T) {
	store, durable := newTestStore(newFakeClock(baseTime))
	ctx := context.Background()

	_, err := store.Create(ctx, createParams(baseTime.Add(time.Hour), 2))
	require.NoError(t, err)

	_, err = store.Create(ctx, createParams(baseTime.Add(2*time.Hour), 2))
	assert.ErrorIs(t, err, ErrRoomNotAvailable)
	assert.Len(t, store.Snapshot(), 1)
	assert.Equal(t, 1, durable.saveCount())

	// back-to-back intervals do not overlap
	_, err = store.Create(ctx, createParams(baseTime.Add(3*time.Hour), 1))
	assert.NoError(t, err)
}

func TestStore_CancelledBookingFreesRoom(t *testing.T) {
	store, _ := newTestStore(newFakeClock(baseTime))
	ctx := context.Background()

	first, err := store.Create(ctx, createParams(baseTime.Add(time.Hour), 2))
	require.NoError(t, err)
	_, err = store.Cancel(ctx, first.ID)
	require.NoError(t, err)

	_, err = store.Create(ctx, createParams(baseTime.Add(time.Hour), 2))
	assert.NoError(t, err)
}

func TestStore_Cancel(t *testing.T) {
	clock := newFakeClock(baseTime)
	store, _ := newTestStore(clock)
	ctx := context.Background()

	b, err := store.Create(ctx, createParams(baseTime.Add(time.Hour), 2))
	require.NoError(t, err)

	clock.Advance(time.Minute)
	cancelled, err := store.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, cancelled.Status)
	assert.Equal(t, baseTime.Add(time.Minute), cancelled.UpdatedAt)

	_, err = store.Cancel(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotCancellable)

	_, err = store.Cancel(ctx, "book-missing")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestStore_CancelActiveDeclined(t *testing.T) {
	store, _ := newTestStore(newFakeClock(baseTime))
	ctx := context.Background()

	b, err := store.Create(ctx, createParams(baseTime, 2))
	require.NoError(t, err)
	_, err = store.PromoteStatuses(ctx, baseTime)
	require.NoError(t, err)

	_, err = store.Cancel(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotCancellable)

	got, err := store.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingActive, got.Status)
}

func TestStore_Extend(t *testing.T) {
	store, _ := newTestStore(newFakeClock(baseTime))
	ctx := context.Background()

	b, err := store.Create(ctx, CreateParams{
		UserID:     1,
		RoomID:     "room-1",
		StartTime:  baseTime,
		Duration:   2,
		HourlyRate: 10,
		Products:   []domain.LineItem{{ItemID: "snack", Price: 3, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = store.Extend(ctx, b.ID, 1)
	assert.ErrorIs(t, err, ErrNotExtendable, "pending bookings cannot be extended")

	_, err = store.PromoteStatuses(ctx, baseTime)
	require.NoError(t, err)

	extended, err := store.Extend(ctx, b.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, extended.Duration)
	assert.Equal(t, 30.0, extended.BasePrice)
	assert.Equal(t, 33.0, extended.TotalPrice)
	assert.Equal(t, baseTime.Add(3*time.Hour), extended.EndTime)
}

func TestStore_ExtendConflict(t *testing.T) {
	store, _ := newTestStore(newFakeClock(baseTime))
	ctx := context.Background()

	b, err := store.Create(ctx, createParams(baseTime, 2))
	require.NoError(t, err)
	_, err = store.Create(ctx, createParams(baseTime.Add(3*time.Hour), 1))
	require.NoError(t, err)
	_, err = store.PromoteStatuses(ctx, baseTime)
	require.NoError(t, err)

	_, err = store.Extend(ctx, b.ID, 2)
	assert.ErrorIs(t, err, ErrRoomNotAvailable)

	got, err := store.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Duration)
	assert.Equal(t, baseTime.Add(2*time.Hour), got.EndTime)
	assert.Equal(t, 20.0, got.BasePrice)

	// one hour still fits before the next booking
	_, err = store.Extend(ctx, b.ID, 1)
	assert.NoError(t, err)
}

func TestStore_ExtendRejectsNonPositiveHours(t *testing.T) {
	store, _ := newTestStore(newFakeClock(baseTime))

	_, err := store.Extend(context.Background(), "book-1", 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStore_AddItems(t *testing.T) {
	store, _ := newTestStore(newFakeClock(baseTime))
	ctx := context.Background()

	b, err := store.Create(ctx, CreateParams{
		UserID:     1,
		RoomID:     "room-1",
		StartTime:  baseTime,
		Duration:   1,
		HourlyRate: 10,
		Services:   []domain.LineItem{{ItemID: "projector", Price: 5, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = store.AddItems(ctx, b.ID, nil, []domain.LineItem{{ItemID: "water", Price: 1, Quantity: 1}})
	assert.ErrorIs(t, err, ErrNotModifiable)

	_, err = store.PromoteStatuses(ctx, baseTime)
	require.NoError(t, err)

	updated, err := store.AddItems(ctx, b.ID,
		[]domain.LineItem{{ItemID: "headset", Price: 2.5, Quantity: 2}},
		[]domain.LineItem{{ItemID: "water", Price: 1.2, Quantity: 3}},
	)
	require.NoError(t, err)

	require.Len(t, updated.Services, 2)
	assert.Equal(t, "projector", updated.Services[0].ItemID)
	assert.Equal(t, "headset", updated.Services[1].ItemID)
	assert.Equal(t, 10.0, updated.ServicesTotal)
	assert.Equal(t, 3.6, updated.ProductsTotal)
	assert.Equal(t, 23.6, updated.TotalPrice)
}

func TestStore_FlushFailureLeavesStateUnchanged(t *testing.T) {
	store, durable := newTestStore(newFakeClock(baseTime))
	ctx := context.Background()

	b, err := store.Create(ctx, createParams(baseTime.Add(time.Hour), 2))
	require.NoError(t, err)

	durable.setFail(true)

	_, err = store.Cancel(ctx, b.ID)
	assert.ErrorIs(t, err, errDiskFull)
	assert.False(t, IsDeclined(err))

	_, err = store.Create(ctx, createParams(baseTime.Add(5*time.Hour), 1))
	assert.ErrorIs(t, err, errDiskFull)

	got, err := store.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, got.Status)
	assert.Len(t, store.Snapshot(), 1)
}

func TestStore_ReturnsCopies(t *testing.T) {
	store, _ := newTestStore(newFakeClock(baseTime))
	ctx := context.Background()

	b, err := store.Create(ctx, CreateParams{
		UserID:     1,
		RoomID:     "room-1",
		StartTime:  baseTime,
		Duration:   1,
		HourlyRate: 10,
		Services:   []domain.LineItem{{ItemID: "a", Price: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	b.Services[0].Price = 1000
	b.Status = domain.BookingCancelled

	got, err := store.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Services[0].Price)
	assert.Equal(t, domain.BookingPending, got.Status)
}

func TestStore_Filters(t *testing.T) {
	store, _ := newTestStore(newFakeClock(baseTime))
	ctx := context.Background()

	_, err := store.Create(ctx, CreateParams{UserID: 1, RoomID: "room-1", StartTime: baseTime, Duration: 1, HourlyRate: 10})
	require.NoError(t, err)
	second, err := store.Create(ctx, CreateParams{UserID: 2, RoomID: "room-2", StartTime: baseTime.Add(24 * time.Hour), Duration: 1, HourlyRate: 10})
	require.NoError(t, err)
	_, err = store.Create(ctx, CreateParams{UserID: 1, RoomID: "room-2", StartTime: baseTime.Add(4 * time.Hour), Duration: 1, HourlyRate: 10})
	require.NoError(t, err)
	_, err = store.Cancel(ctx, second.ID)
	require.NoError(t, err)

	mine := store.ByUser(1)
	require.Len(t, mine, 2)
	assert.Equal(t, "book-1", mine[0].ID)
	assert.Equal(t, "book-3", mine[1].ID)

	assert.Len(t, store.ByStatus(domain.BookingPending), 2)
	assert.Len(t, store.ByStatus(domain.BookingCancelled), 1)
	assert.Empty(t, store.ByStatus(domain.BookingCompleted))

	day := store.ByDate(baseTime)
	require.Len(t, day, 2)
	assert.Len(t, store.ByDate(baseTime.Add(24*time.Hour)), 1)
	assert.NotNil(t, store.ByUser(99))
}

func TestStore_ConcurrentCreatesSingleWinner(t *testing.T) {
	store, _ := newTestStore(newFakeClock(baseTime))
	ctx := context.Background()

	const workers = 16
	var (
		wg       sync.WaitGroup
		ok       atomic.Int32
		declined atomic.Int32
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(user int64) {
			defer wg.Done()
			_, err := store.Create(ctx, CreateParams{
				UserID: user, RoomID: "room-1", StartTime: baseTime.Add(time.Hour), Duration: 2, HourlyRate: 10,
			})
			switch {
			case err == nil:
				ok.Add(1)
			case IsDeclined(err):
				declined.Add(1)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(workers-1), declined.Load())
	assert.Len(t, store.Snapshot(), 1)
}

func TestStore_ReopenLoadsSavedState(t *testing.T) {
	clock := newFakeClock(baseTime)
	store, durable := newTestStore(clock)
	ctx := context.Background()

	b, err := store.Create(ctx, createParams(baseTime.Add(time.Hour), 2))
	require.NoError(t, err)
	require.NoError(t, store.Close(ctx))

	_, err = store.Cancel(ctx, b.ID)
	assert.ErrorIs(t, err, ErrStoreClosed)

	reopened, err := OpenStore(ctx, durable)
	require.NoError(t, err)
	got, err := reopened.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.TotalPrice, got.TotalPrice)
}

func TestStore_CloseDoesNotRewriteDurable(t *testing.T) {
	clock := newFakeClock(baseTime)
	store, durable := newTestStore(clock)
	ctx := context.Background()

	_, err := store.Create(ctx, createParams(baseTime.Add(time.Hour), 2))
	require.NoError(t, err)
	saves := durable.saveCount()

	// A second store opened on the same durable writes after this one loaded.
	other, err := OpenStore(ctx, durable, WithClock(clock.Now), WithIDGenerator(func() string { return "book-other" }))
	require.NoError(t, err)
	_, err = other.Create(ctx, createParams(baseTime.Add(5*time.Hour), 1))
	require.NoError(t, err)

	require.NoError(t, store.Close(ctx))
	assert.Equal(t, saves+1, durable.saveCount())

	loaded, err := durable.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestStore_CancelRacingSchedulerTick(t *testing.T) {
	ctx := context.Background()
	start := baseTime.Add(time.Hour)

	for i := 0; i < 50; i++ {
		clock := newFakeClock(start)
		store, durable := newTestStore(clock)
		b, err := store.Create(ctx, createParams(start, 2))
		require.NoError(t, err)

		publisher := &recordingPublisher{}
		scheduler := NewScheduler(store, publisher, nil, time.Minute, WithSchedulerClock(clock.Now))

		var (
			wg        sync.WaitGroup
			cancelErr error
			promoted  int
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, cancelErr = store.Cancel(ctx, b.ID)
		}()
		go func() {
			defer wg.Done()
			promoted = scheduler.Tick(ctx)
		}()
		wg.Wait()

		got, err := store.Get(b.ID)
		require.NoError(t, err)

		switch got.Status {
		case domain.BookingCancelled:
			assert.NoError(t, cancelErr)
			assert.Zero(t, promoted)
		case domain.BookingActive:
			assert.ErrorIs(t, cancelErr, ErrNotCancellable)
			assert.Equal(t, 1, promoted)
		default:
			t.Fatalf("unexpected status %q", got.Status)
		}

		saved, err := durable.Load(ctx)
		require.NoError(t, err)
		require.Len(t, saved, 1)
		assert.Equal(t, got.Status, saved[0].Status)
	}
}

func TestStore_TotalsStayConsistent(t *testing.T) {
	clock := newFakeClock(baseTime)
	store, _ := newTestStore(clock)
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(7, 11))

	checkTotals := func(step int) {
		for _, b := range store.Snapshot() {
			want := pricing.RoundCents(b.BasePrice + b.ServicesTotal + b.ProductsTotal)
			require.InDelta(t, want, b.TotalPrice, 1e-9, "step %d booking %s", step, b.ID)
		}
	}

	var ids []string
	for step := 0; step < 300; step++ {
		switch op := rng.IntN(5); {
		case op == 0 || len(ids) == 0:
			start := clock.Now().Add(time.Duration(rng.IntN(48)) * time.Hour)
			b, err := store.Create(ctx, CreateParams{
				UserID:     1,
				RoomID:     "room-1",
				StartTime:  start,
				Duration:   1 + rng.IntN(4),
				HourlyRate: 7.35,
				Services:   []domain.LineItem{{ItemID: "coffee", Price: 1.15, Quantity: 1 + rng.IntN(3)}},
			})
			if err == nil {
				ids = append(ids, b.ID)
			}
		case op == 1:
			_, _ = store.Cancel(ctx, ids[rng.IntN(len(ids))])
		case op == 2:
			_, _ = store.Extend(ctx, ids[rng.IntN(len(ids))], 1+rng.IntN(3))
		case op == 3:
			_, _ = store.AddItems(ctx, ids[rng.IntN(len(ids))],
				[]domain.LineItem{{ItemID: "snack", Price: 0.35, Quantity: 3}},
				[]domain.LineItem{{ItemID: "soda", Price: 2.45, Quantity: 1 + rng.IntN(2)}})
		default:
			clock.Advance(time.Duration(1+rng.IntN(3)) * time.Hour)
			_, err := store.PromoteStatuses(ctx, clock.Now())
			require.NoError(t, err)
		}
		checkTotals(step)
	}
}

func TestStore_IsAvailable(t *testing.T) {
	store, _ := newTestStore(newFakeClock(baseTime))

	_, err := store.Create(context.Background(), createParams(baseTime.Add(time.Hour), 2))
	require.NoError(t, err)

	assert.False(t, store.IsAvailable("room-1", baseTime, baseTime.Add(90*time.Minute)))
	assert.True(t, store.IsAvailable("room-1", baseTime, baseTime.Add(time.Hour)))
	assert.True(t, store.IsAvailable("room-2", baseTime, baseTime.Add(4*time.Hour)))
}
