package calendar

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/slot-scheduler/internal/domain/appointment"
)

// LinkStore troca o link provisório pelo link definitivo.
type LinkStore interface {
	ReplaceMeetingLink(ctx context.Context, appointmentID uint, from, to string) (bool, error)
}

type jobKind int

const (
	jobCreate jobKind = iota
	jobCancel
)

type job struct {
	kind          jobKind
	event         domain.CalendarEvent
	appointmentID uint
}

// Dispatcher roda as chamadas ao calendário fora do caminho da reserva.
// Um único worker mantém a ordem create → cancel do mesmo agendamento.
type Dispatcher struct {
	sync    domain.CalendarSync
	links   LinkStore
	log     *zap.Logger
	timeout time.Duration

	queue chan job
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(
	calendar domain.CalendarSync,
	links LinkStore,
	log *zap.Logger,
	queueSize int,
	timeout time.Duration,
) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 100
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	d := &Dispatcher{
		sync:    calendar,
		links:   links,
		log:     log.Named("calendar"),
		timeout: timeout,
		queue:   make(chan job, queueSize),
	}

	d.wg.Add(1)
	go d.worker()
	return d
}

func (d *Dispatcher) EnqueueCreate(ev domain.CalendarEvent) {
	d.enqueue(job{kind: jobCreate, event: ev, appointmentID: ev.AppointmentID})
}

func (d *Dispatcher) EnqueueCancel(appointmentID uint) {
	d.enqueue(job{kind: jobCancel, appointmentID: appointmentID})
}

func (d *Dispatcher) enqueue(j job) {
	if d == nil {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("calendar queue closed, dropping job",
			zap.Uint("appointment_id", j.appointmentID),
		)
		return
	}
	select {
	case d.queue <- j:
	default:
		d.log.Warn("calendar queue full, dropping job",
			zap.Uint("appointment_id", j.appointmentID),
		)
	}
}

// Close drena a fila pendente e espera o worker.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		switch j.kind {
		case jobCreate:
			d.create(ctx, j.event)
		case jobCancel:
			d.cancel(ctx, j.appointmentID)
		}
		cancel()
	}
}

func (d *Dispatcher) create(ctx context.Context, ev domain.CalendarEvent) {
	link, err := d.sync.CreateEvent(ctx, ev)
	if err != nil {
		d.log.Warn("calendar create failed, keeping placeholder link",
			zap.Uint("appointment_id", ev.AppointmentID),
			zap.Error(err),
		)
		return
	}
	if link == "" || link == ev.PlaceholderLink {
		return
	}

	ok, err := d.links.ReplaceMeetingLink(ctx, ev.AppointmentID, ev.PlaceholderLink, link)
	if err != nil {
		d.log.Warn("failed to store meeting link",
			zap.Uint("appointment_id", ev.AppointmentID),
			zap.Error(err),
		)
		return
	}
	if !ok {
		// Cancelado antes do calendário responder.
		d.log.Debug("appointment gone before meeting link update",
			zap.Uint("appointment_id", ev.AppointmentID),
		)
	}
}

func (d *Dispatcher) cancel(ctx context.Context, appointmentID uint) {
	if err := d.sync.CancelEvent(ctx, appointmentID); err != nil {
		d.log.Warn("calendar cancel failed",
			zap.Uint("appointment_id", appointmentID),
			zap.Error(err),
		)
	}
}
