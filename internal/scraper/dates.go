package scraper

import (
	"strconv"
	"strings"
	"time"

	pkgerrors "boshamlan-scraper/pkg/errors"
)

// absoluteLayouts are tried in order for absolute timestamps. The API emits
// RFC3339 with a +03:00 offset; older exports carried bare dates.
var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type dateUnit int

const (
	unitMinute dateUnit = iota
	unitHour
	unitDay
	unitWeek
	unitMonth
)

// unitWords maps the closed grammar's unit tokens to their unit and, for
// Arabic dual forms, the count implied by the word itself.
var unitWords = map[string]struct {
	unit     dateUnit
	implicit int
}{
	"دقيقة":   {unitMinute, 1},
	"دقائق":   {unitMinute, 0},
	"دقيقتين": {unitMinute, 2},
	"ساعة":    {unitHour, 1},
	"ساعات":   {unitHour, 0},
	"ساعتين":  {unitHour, 2},
	"يوم":     {unitDay, 1},
	"أيام":    {unitDay, 0},
	"يومين":   {unitDay, 2},
	"أسبوع":   {unitWeek, 1},
	"أسابيع":  {unitWeek, 0},
	"شهر":     {unitMonth, 1},
	"أشهر":    {unitMonth, 0},
	"minute":  {unitMinute, 1},
	"minutes": {unitMinute, 0},
	"min":     {unitMinute, 1},
	"hour":    {unitHour, 1},
	"hours":   {unitHour, 0},
	"day":     {unitDay, 1},
	"days":    {unitDay, 0},
	"week":    {unitWeek, 1},
	"weeks":   {unitWeek, 0},
	"month":   {unitMonth, 1},
	"months":  {unitMonth, 0},
}

var arabicDigits = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// AdmissionFilter decides whether a listing's publish instant falls inside
// the configured admission window. Relative dates are anchored at the
// reference instant in the source-local timezone.
type AdmissionFilter struct {
	reference time.Time
	loc       *time.Location
	start     time.Time // inclusive
	end       time.Time // exclusive, start of the day after the reference day
}

// NewAdmissionFilter builds a filter whose window spans windowDays calendar
// days before the reference day through the end of the reference day,
// inclusive of both whole days.
func NewAdmissionFilter(reference time.Time, windowDays int, loc *time.Location) *AdmissionFilter {
	ref := reference.In(loc)
	y, m, d := ref.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)

	return &AdmissionFilter{
		reference: ref,
		loc:       loc,
		start:     dayStart.AddDate(0, 0, -windowDays),
		end:       dayStart.AddDate(0, 0, 1),
	}
}

// Reference returns the instant relative dates are anchored at.
func (f *AdmissionFilter) Reference() time.Time {
	return f.reference
}

// Window returns the inclusive window bounds.
func (f *AdmissionFilter) Window() (time.Time, time.Time) {
	return f.start, f.end.Add(-time.Second)
}

// Contains reports whether the instant falls inside the admission window.
func (f *AdmissionFilter) Contains(t time.Time) bool {
	return !t.Before(f.start) && t.Before(f.end)
}

// Admit resolves the publish instant from the available date inputs and
// tests window membership. The absolute API timestamp is trusted over the
// card's relative text when both are present. A record whose date cannot
// be resolved is never admitted.
func (f *AdmissionFilter) Admit(relativeText, absoluteText string) (time.Time, bool) {
	if absoluteText != "" {
		if t, err := f.Resolve(absoluteText); err == nil {
			return t, f.Contains(t)
		}
	}
	if relativeText != "" {
		if t, err := f.Resolve(relativeText); err == nil {
			return t, f.Contains(t)
		}
	}
	return time.Time{}, false
}

// Resolve converts a raw date string, absolute or relative, to an absolute
// instant in the source timezone.
func (f *AdmissionFilter) Resolve(raw string) (time.Time, error) {
	raw = strings.TrimSpace(arabicDigits.Replace(raw))
	if raw == "" {
		return time.Time{}, pkgerrors.NewDateUnresolvable(raw)
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, raw, f.loc); err == nil {
			return t.In(f.loc), nil
		}
	}

	return f.resolveRelative(raw)
}

func (f *AdmissionFilter) resolveRelative(raw string) (time.Time, error) {
	lowered := strings.ToLower(raw)

	switch lowered {
	case "الآن", "now", "just now":
		return f.reference, nil
	case "اليوم", "today":
		return f.reference, nil
	case "أمس", "yesterday":
		return f.reference.AddDate(0, 0, -1), nil
	}

	n := 0
	var unit *dateUnit
	for _, token := range strings.Fields(lowered) {
		if token == "منذ" || token == "ago" || token == "قبل" {
			continue
		}
		if v, err := strconv.Atoi(token); err == nil {
			n = v
			continue
		}
		if w, ok := unitWords[token]; ok {
			u := w.unit
			unit = &u
			if n == 0 {
				n = w.implicit
			}
		}
	}

	if unit == nil || n == 0 {
		return time.Time{}, pkgerrors.NewDateUnresolvable(raw)
	}

	switch *unit {
	case unitMinute:
		return f.reference.Add(-time.Duration(n) * time.Minute), nil
	case unitHour:
		return f.reference.Add(-time.Duration(n) * time.Hour), nil
	case unitDay:
		return f.reference.AddDate(0, 0, -n), nil
	case unitWeek:
		return f.reference.AddDate(0, 0, -7*n), nil
	default:
		return f.reference.AddDate(0, -n, 0), nil
	}
}
