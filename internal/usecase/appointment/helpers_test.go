package appointment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/slot-scheduler/internal/audit"
	"github.com/BruksfildServices01/slot-scheduler/internal/calendar"
	domain "github.com/BruksfildServices01/slot-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/slot-scheduler/internal/infra/directory"
	"github.com/BruksfildServices01/slot-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/slot-scheduler/internal/models"
	"github.com/BruksfildServices01/slot-scheduler/internal/testutil"
)

var errForced = errors.New("forced failure")

type engine struct {
	db      *gorm.DB
	repo    *repository.AppointmentGormRepository
	quota   *CheckQuota
	reserve *ReserveSlot
	cancel  *CancelReservation
	free    *ListFreeSlots

	calendar *calendar.Dispatcher
}

type engineOptions struct {
	useTransaction bool
	locker         domain.SubscriberLocker
	audit          *audit.Dispatcher
	calendarSync   domain.CalendarSync
	// wrapRepo decora o repositório visto pelos casos de uso.
	wrapRepo func(domain.Repository) domain.Repository
}

func newEngine(t *testing.T, opts engineOptions) *engine {
	t.Helper()

	gdb := testutil.NewDB(t)
	repo := repository.NewAppointmentGormRepository(gdb)
	var ucRepo domain.Repository = repo
	if opts.wrapRepo != nil {
		ucRepo = opts.wrapRepo(repo)
	}
	quota := NewCheckQuota(ucRepo, directory.NewGormDirectory(gdb), "America/Sao_Paulo")

	var cal *calendar.Dispatcher
	if opts.calendarSync != nil {
		cal = calendar.NewDispatcher(opts.calendarSync, repo, zap.NewNop(), 10, time.Second)
	}

	return &engine{
		db:       gdb,
		repo:     repo,
		quota:    quota,
		calendar: cal,
		reserve: NewReserveSlot(ucRepo, quota, opts.audit, cal, zap.NewNop(), ReserveOptions{
			UseTransaction: opts.useTransaction,
			MeetingLink:    calendar.PlaceholderLinks("https://meet.test"),
			Locker:         opts.locker,
		}),
		cancel: NewCancelReservation(ucRepo, opts.audit, cal, zap.NewNop(), opts.useTransaction),
		free:   NewListFreeSlots(repo),
	}
}

// strategies roda o mesmo teste com transação e com saga.
func strategies(t *testing.T, fn func(t *testing.T, useTransaction bool)) {
	t.Run("transaction", func(t *testing.T) { fn(t, true) })
	t.Run("saga", func(t *testing.T) { fn(t, false) })
}

func countAppointments(t *testing.T, gdb *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(&models.Appointment{}).Count(&n).Error)
	return n
}

func futureSlot(t *testing.T, gdb *gorm.DB, providerID uint, offset time.Duration) *models.Slot {
	t.Helper()
	start := time.Now().UTC().Add(24 * time.Hour).Add(offset).Truncate(time.Minute)
	return testutil.SeedSlot(t, gdb, providerID, start, 30*time.Minute)
}

func quotaUsed(t *testing.T, gdb *gorm.DB, subscriberID string) int {
	t.Helper()
	var total int64
	require.NoError(t, gdb.Model(&models.QuotaUsage{}).
		Where("subscriber_id = ?", subscriberID).
		Select("COALESCE(SUM(used), 0)").
		Scan(&total).Error)
	return int(total)
}

// countBarrier segura cada contagem de cota até que `parties` chamadas
// tenham lido o banco, reproduzindo leituras concorrentes antes do commit.
type countBarrier struct {
	domain.Repository

	parties int
	mu      sync.Mutex
	arrived int
	release chan struct{}
}

func newCountBarrier(parties int) func(domain.Repository) domain.Repository {
	return func(inner domain.Repository) domain.Repository {
		return &countBarrier{Repository: inner, parties: parties, release: make(chan struct{})}
	}
}

func (b *countBarrier) CountAppointmentsInPeriod(
	ctx context.Context,
	subscriberID string,
	start, end time.Time,
) (int64, error) {
	n, err := b.Repository.CountAppointmentsInPeriod(ctx, subscriberID, start, end)

	b.mu.Lock()
	b.arrived++
	if b.arrived == b.parties {
		close(b.release)
	}
	b.mu.Unlock()

	select {
	case <-b.release:
	case <-time.After(2 * time.Second):
	}
	return n, err
}

// --------------------------------------------------
// Falhas forçadas via callbacks do gorm
// --------------------------------------------------

func failInserts(t *testing.T, gdb *gorm.DB, table string, onFail func()) {
	t.Helper()
	require.NoError(t, gdb.Callback().Create().Before("gorm:create").
		Register("test:fail_insert_"+table, func(tx *gorm.DB) {
			if tx.Statement.Table == table {
				if onFail != nil {
					onFail()
				}
				_ = tx.AddError(errForced)
			}
		}))
}

func failDeletes(t *testing.T, gdb *gorm.DB, table string, onFail func()) {
	t.Helper()
	require.NoError(t, gdb.Callback().Delete().Before("gorm:delete").
		Register("test:fail_delete_"+table, func(tx *gorm.DB) {
			if tx.Statement.Table == table {
				if onFail != nil {
					onFail()
				}
				_ = tx.AddError(errForced)
			}
		}))
}

// failUpdatesWhen derruba UPDATEs na tabela enquanto armed estiver ligado.
func failUpdatesWhen(t *testing.T, gdb *gorm.DB, table string, armed *atomic.Bool) {
	t.Helper()
	require.NoError(t, gdb.Callback().Update().Before("gorm:update").
		Register("test:fail_update_"+table, func(tx *gorm.DB) {
			if tx.Statement.Table == table && armed.Load() {
				_ = tx.AddError(errForced)
			}
		}))
}

// --------------------------------------------------
// Sinks em memória
// --------------------------------------------------

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *recordingSink) Log(_ context.Context, ev audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Action)
	}
	return out
}

type fakeCalendar struct {
	mu        sync.Mutex
	link      string
	createErr error
	created   []uint
	cancelled []uint
}

func (c *fakeCalendar) CreateEvent(_ context.Context, ev domain.CalendarEvent) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created = append(c.created, ev.AppointmentID)
	if c.createErr != nil {
		return "", c.createErr
	}
	return c.link, nil
}

func (c *fakeCalendar) CancelEvent(_ context.Context, appointmentID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelled = append(c.cancelled, appointmentID)
	return nil
}
