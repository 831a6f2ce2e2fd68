package timezone

import "time"

const DefaultTimezone = "UTC"

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

func Location(tz string) *time.Location {
	if IsValid(tz) {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.UTC
}

// PeriodKey identifica o mês de t no fuso loc, ex.: "2026-10".
func PeriodKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01")
}

// MonthRange devolve o intervalo [início, fim) do mês de t no fuso loc.
func MonthRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}
