package calendar

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/slot-scheduler/internal/domain/appointment"
)

// PlaceholderLinks gera o link de sala provisório gravado na reserva.
func PlaceholderLinks(baseURL string) func() string {
	base := strings.TrimRight(baseURL, "/")
	return func() string {
		return fmt.Sprintf("%s/appt-%s", base, uuid.NewString())
	}
}

// Noop mantém o link provisório quando não há calendário configurado.
type Noop struct{}

func (Noop) CreateEvent(_ context.Context, ev domain.CalendarEvent) (string, error) {
	return ev.PlaceholderLink, nil
}

func (Noop) CancelEvent(context.Context, uint) error {
	return nil
}

var _ domain.CalendarSync = Noop{}
