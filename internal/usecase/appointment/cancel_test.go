package appointment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/slot-scheduler/internal/audit"
	"github.com/BruksfildServices01/slot-scheduler/internal/httperr"
	"github.com/BruksfildServices01/slot-scheduler/internal/models"
	"github.com/BruksfildServices01/slot-scheduler/internal/testutil"
)

func reserveOne(t *testing.T, e *engine, subscriberID string) *models.Appointment {
	t.Helper()
	p := testutil.SeedProvider(t, e.db, "Dra. Ana")
	slot := futureSlot(t, e.db, p.ID, 0)
	testutil.SeedSubscription(t, e.db, subscriberID, "premium")

	ap, err := e.reserve.Execute(context.Background(), subscriberID, slot.ID)
	require.NoError(t, err)
	return ap
}

func TestCancelReleasesSlotAndDeletesAppointment(t *testing.T) {
	strategies(t, func(t *testing.T, useTx bool) {
		sink := &recordingSink{}
		dispatcher := audit.NewDispatcher(sink, zap.NewNop())
		cal := &fakeCalendar{}

		e := newEngine(t, engineOptions{useTransaction: useTx, audit: dispatcher, calendarSync: cal})
		ap := reserveOne(t, e, "sub-1")
		require.Equal(t, 1, quotaUsed(t, e.db, "sub-1"))

		require.NoError(t, e.cancel.Execute(context.Background(), "sub-1", ap.ID))

		assert.Equal(t, "free", testutil.SlotStatus(t, e.db, ap.SlotID))
		assert.Zero(t, countAppointments(t, e.db))
		assert.Zero(t, quotaUsed(t, e.db, "sub-1"))

		dispatcher.Close()
		e.calendar.Close()
		assert.Equal(t, []string{audit.ActionReserved, audit.ActionCancelled}, sink.actions())
		assert.Equal(t, []uint{ap.ID}, cal.cancelled)
	})
}

func TestCancelUnknownOrForeignAppointmentIsNotFound(t *testing.T) {
	e := newEngine(t, engineOptions{useTransaction: true})
	ap := reserveOne(t, e, "sub-1")

	err := e.cancel.Execute(context.Background(), "sub-2", ap.ID)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeNotFound))

	err = e.cancel.Execute(context.Background(), "sub-1", ap.ID+100)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeNotFound))

	assert.Equal(t, "booked", testutil.SlotStatus(t, e.db, ap.SlotID))
	assert.EqualValues(t, 1, countAppointments(t, e.db))
}

func TestCancelTwiceIsNotFound(t *testing.T) {
	strategies(t, func(t *testing.T, useTx bool) {
		e := newEngine(t, engineOptions{useTransaction: useTx})
		ap := reserveOne(t, e, "sub-1")

		require.NoError(t, e.cancel.Execute(context.Background(), "sub-1", ap.ID))

		err := e.cancel.Execute(context.Background(), "sub-1", ap.ID)
		assert.True(t, httperr.IsBusiness(err, httperr.CodeNotFound))
	})
}

func TestCancelConcurrentOnlyOneWins(t *testing.T) {
	strategies(t, func(t *testing.T, useTx bool) {
		e := newEngine(t, engineOptions{useTransaction: useTx})
		ap := reserveOne(t, e, "sub-1")

		const n = 8
		var (
			wg       sync.WaitGroup
			ok       atomic.Int32
			notFound atomic.Int32
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := e.cancel.Execute(context.Background(), "sub-1", ap.ID)
				switch {
				case err == nil:
					ok.Add(1)
				case httperr.IsBusiness(err, httperr.CodeNotFound):
					notFound.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 1, ok.Load())
		assert.EqualValues(t, n-1, notFound.Load())
		assert.Equal(t, "free", testutil.SlotStatus(t, e.db, ap.SlotID))
		assert.Zero(t, countAppointments(t, e.db))
		assert.Zero(t, quotaUsed(t, e.db, "sub-1"))
	})
}

func TestCancelDeleteFailureKeepsSlotBooked(t *testing.T) {
	strategies(t, func(t *testing.T, useTx bool) {
		e := newEngine(t, engineOptions{useTransaction: useTx})
		ap := reserveOne(t, e, "sub-1")

		failDeletes(t, e.db, "appointments", nil)

		err := e.cancel.Execute(context.Background(), "sub-1", ap.ID)
		assert.True(t, httperr.IsFailure(err, httperr.CodeCancellationFailed))
		assert.True(t, errors.Is(err, errForced))

		assert.Equal(t, "booked", testutil.SlotStatus(t, e.db, ap.SlotID))
		assert.EqualValues(t, 1, countAppointments(t, e.db))
		assert.Equal(t, 1, quotaUsed(t, e.db, "sub-1"))
	})
}

func TestCancelTxRefundFailureRollsBack(t *testing.T) {
	e := newEngine(t, engineOptions{useTransaction: true})
	ap := reserveOne(t, e, "sub-1")

	var armed atomic.Bool
	armed.Store(true)
	failUpdatesWhen(t, e.db, "quota_usages", &armed)

	err := e.cancel.Execute(context.Background(), "sub-1", ap.ID)
	assert.True(t, httperr.IsFailure(err, httperr.CodeCancellationFailed))

	assert.Equal(t, "booked", testutil.SlotStatus(t, e.db, ap.SlotID))
	assert.EqualValues(t, 1, countAppointments(t, e.db))
	assert.Equal(t, 1, quotaUsed(t, e.db, "sub-1"))
}

// Na saga o cancelamento já está feito quando o refund falha: o cliente vê
// sucesso e a cota presa vira evento de auditoria.
func TestCancelSagaRefundFailureIsAudited(t *testing.T) {
	sink := &recordingSink{}
	dispatcher := audit.NewDispatcher(sink, zap.NewNop())

	e := newEngine(t, engineOptions{useTransaction: false, audit: dispatcher})
	ap := reserveOne(t, e, "sub-1")

	var armed atomic.Bool
	armed.Store(true)
	failUpdatesWhen(t, e.db, "quota_usages", &armed)

	require.NoError(t, e.cancel.Execute(context.Background(), "sub-1", ap.ID))

	assert.Equal(t, "free", testutil.SlotStatus(t, e.db, ap.SlotID))
	assert.Zero(t, countAppointments(t, e.db))
	assert.Equal(t, 1, quotaUsed(t, e.db, "sub-1"))

	dispatcher.Close()
	assert.Equal(t,
		[]string{audit.ActionReserved, audit.ActionInconsistentState, audit.ActionCancelled},
		sink.actions(),
	)
}

func TestCancelSagaCompensationFailureIsInconsistentState(t *testing.T) {
	sink := &recordingSink{}
	dispatcher := audit.NewDispatcher(sink, zap.NewNop())

	e := newEngine(t, engineOptions{useTransaction: false, audit: dispatcher})
	ap := reserveOne(t, e, "sub-1")

	var armed atomic.Bool
	failDeletes(t, e.db, "appointments", func() { armed.Store(true) })
	failUpdatesWhen(t, e.db, "slots", &armed)

	err := e.cancel.Execute(context.Background(), "sub-1", ap.ID)
	assert.True(t, httperr.IsFailure(err, httperr.CodeInconsistentState))

	// Agendamento ainda existe apontando para um slot free.
	assert.Equal(t, "free", testutil.SlotStatus(t, e.db, ap.SlotID))
	assert.EqualValues(t, 1, countAppointments(t, e.db))

	dispatcher.Close()
	assert.Contains(t, sink.actions(), audit.ActionInconsistentState)
	assert.NotContains(t, sink.actions(), audit.ActionCancelled)
}
