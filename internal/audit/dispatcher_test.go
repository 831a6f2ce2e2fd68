package audit

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/slot-scheduler/internal/models"
	"github.com/BruksfildServices01/slot-scheduler/internal/testutil"
)

type memorySink struct {
	mu     sync.Mutex
	events []Event
}

func (s *memorySink) Log(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func TestDispatcherDeliversBeforeClose(t *testing.T) {
	sink := &memorySink{}
	d := NewDispatcher(sink, zap.NewNop())

	for i := 0; i < 10; i++ {
		d.Dispatch(Event{Action: ActionReserved})
	}
	d.Close()

	assert.Len(t, sink.events, 10)
}

func TestDispatcherDropsEventsAfterClose(t *testing.T) {
	sink := &memorySink{}
	d := NewDispatcher(sink, zap.NewNop())
	d.Close()

	assert.NotPanics(t, func() { d.Dispatch(Event{Action: ActionCancelled}) })
	assert.NotPanics(t, d.Close)
	assert.Empty(t, sink.events)
}

func TestDispatchRacingClose(t *testing.T) {
	sink := &memorySink{}
	d := NewDispatcher(sink, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				d.Dispatch(Event{Action: ActionReserved})
			}
		}()
	}
	d.Close()
	wg.Wait()

	// Nenhum envio cruzou o fechamento do canal.
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.LessOrEqual(t, len(sink.events), 400)
}

func TestNilDispatcherIsNoop(t *testing.T) {
	var d *Dispatcher
	assert.NotPanics(t, func() { d.Dispatch(Event{Action: ActionCancelled}) })
}

func TestLoggerPersistsRow(t *testing.T) {
	gdb := testutil.NewDB(t)
	id := uint(42)

	err := New(gdb).Log(context.Background(), Event{
		ProviderID:   3,
		SubscriberID: "sub-1",
		Action:       ActionReserved,
		Entity:       "appointment",
		EntityID:     &id,
		Metadata:     map[string]any{"slot_id": 7},
	})
	require.NoError(t, err)

	var row models.AuditLog
	require.NoError(t, gdb.First(&row).Error)
	assert.Equal(t, ActionReserved, row.Action)
	assert.Equal(t, "sub-1", row.SubscriberID)
	assert.JSONEq(t, `{"slot_id":7}`, row.Metadata)
}
