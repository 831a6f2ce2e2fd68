package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/slot-scheduler/internal/domain/appointment"
)

const icsTime = "20060102T150405Z"

// EventUID é estável por agendamento, então reenviar o convite atualiza
// o mesmo evento no calendário do cliente.
func EventUID(appointmentID uint) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("appointment/%d", appointmentID))).String()
}

// RenderICS monta um VCALENDAR com um único VEVENT (RFC 5545).
func RenderICS(ev domain.CalendarEvent, stamp time.Time) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//slot-scheduler//reservations//EN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + EventUID(ev.AppointmentID),
		"DTSTAMP:" + stamp.UTC().Format(icsTime),
		"DTSTART:" + ev.Start.UTC().Format(icsTime),
		"DTEND:" + ev.End.UTC().Format(icsTime),
		fmt.Sprintf("SUMMARY:Appointment #%d", ev.AppointmentID),
		"DESCRIPTION:" + escapeText("Meeting link: "+ev.PlaceholderLink),
		"URL:" + ev.PlaceholderLink,
		"STATUS:CONFIRMED",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

func escapeText(s string) string {
	r := strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)
	return r.Replace(s)
}
