package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func kuwait(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kuwait")
	assert.NoError(t, err)
	return loc
}

func TestAdmissionWindowBounds(t *testing.T) {
	loc := kuwait(t)
	reference := time.Date(2026, 2, 22, 10, 0, 0, 0, loc)
	filter := NewAdmissionFilter(reference, 1, loc)

	start, end := filter.Window()
	assert.Equal(t, time.Date(2026, 2, 21, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, 2, 22, 23, 59, 59, 0, loc), end)

	assert.True(t, filter.Contains(time.Date(2026, 2, 21, 0, 0, 0, 0, loc)))
	assert.True(t, filter.Contains(time.Date(2026, 2, 22, 23, 59, 59, 0, loc)))
	assert.False(t, filter.Contains(time.Date(2026, 2, 20, 23, 59, 59, 0, loc)))
	assert.False(t, filter.Contains(time.Date(2026, 2, 23, 0, 0, 0, 0, loc)))
}

func TestResolveRelativeArabic(t *testing.T) {
	loc := kuwait(t)
	reference := time.Date(2026, 2, 22, 10, 0, 0, 0, loc)
	filter := NewAdmissionFilter(reference, 1, loc)

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"منذ 3 ساعات", reference.Add(-3 * time.Hour)},
		{"منذ ساعة", reference.Add(-time.Hour)},
		{"منذ ساعتين", reference.Add(-2 * time.Hour)},
		{"منذ 30 دقيقة", reference.Add(-30 * time.Minute)},
		{"منذ دقيقتين", reference.Add(-2 * time.Minute)},
		{"منذ يوم", reference.AddDate(0, 0, -1)},
		{"منذ يومين", reference.AddDate(0, 0, -2)},
		{"منذ 5 أيام", reference.AddDate(0, 0, -5)},
		{"منذ أسبوع", reference.AddDate(0, 0, -7)},
		{"منذ شهر", reference.AddDate(0, -1, 0)},
		{"الآن", reference},
		{"أمس", reference.AddDate(0, 0, -1)},
	}

	for _, tc := range tests {
		got, err := filter.Resolve(tc.raw)
		assert.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestResolveRelativeEnglish(t *testing.T) {
	loc := kuwait(t)
	reference := time.Date(2026, 2, 22, 10, 0, 0, 0, loc)
	filter := NewAdmissionFilter(reference, 1, loc)

	got, err := filter.Resolve("3 hours ago")
	assert.NoError(t, err)
	assert.Equal(t, reference.Add(-3*time.Hour), got)

	got, err = filter.Resolve("yesterday")
	assert.NoError(t, err)
	assert.Equal(t, reference.AddDate(0, 0, -1), got)
}

func TestResolveArabicIndicDigits(t *testing.T) {
	loc := kuwait(t)
	reference := time.Date(2026, 2, 22, 10, 0, 0, 0, loc)
	filter := NewAdmissionFilter(reference, 1, loc)

	got, err := filter.Resolve("منذ ٣ ساعات")
	assert.NoError(t, err)
	assert.Equal(t, reference.Add(-3*time.Hour), got)
}

func TestResolveAbsolute(t *testing.T) {
	loc := kuwait(t)
	reference := time.Date(2026, 2, 22, 10, 0, 0, 0, loc)
	filter := NewAdmissionFilter(reference, 1, loc)

	got, err := filter.Resolve("2026-02-21T14:30:00+03:00")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 21, 14, 30, 0, 0, loc).Unix(), got.Unix())

	got, err = filter.Resolve("2026-02-22")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 22, 0, 0, 0, 0, loc), got)
}

func TestResolveUnparseable(t *testing.T) {
	loc := kuwait(t)
	filter := NewAdmissionFilter(time.Date(2026, 2, 22, 10, 0, 0, 0, loc), 1, loc)

	for _, raw := range []string{"", "soon", "قريبا", "منذ"} {
		_, err := filter.Resolve(raw)
		assert.Error(t, err, raw)
	}
}

func TestAdmitScenarios(t *testing.T) {
	loc := kuwait(t)
	reference := time.Date(2026, 2, 22, 10, 0, 0, 0, loc)
	filter := NewAdmissionFilter(reference, 1, loc)

	// Fresh listing three hours back lands inside the window.
	got, admitted := filter.Admit("منذ 3 ساعات", "")
	assert.True(t, admitted)
	assert.Equal(t, time.Date(2026, 2, 22, 7, 0, 0, 0, loc), got)

	// Five days back is outside a one day window.
	_, admitted = filter.Admit("منذ 5 أيام", "")
	assert.False(t, admitted)

	// An unresolvable date is never admitted.
	_, admitted = filter.Admit("قريبا", "")
	assert.False(t, admitted)

	// The absolute timestamp wins over the relative text.
	_, admitted = filter.Admit("الآن", "2026-02-15T09:00:00+03:00")
	assert.False(t, admitted)

	got, admitted = filter.Admit("منذ 5 أيام", "2026-02-22T09:00:00+03:00")
	assert.True(t, admitted)
	assert.Equal(t, time.Date(2026, 2, 22, 9, 0, 0, 0, loc).Unix(), got.Unix())
}

func TestAdmitWiderWindow(t *testing.T) {
	loc := kuwait(t)
	reference := time.Date(2026, 2, 22, 10, 0, 0, 0, loc)
	filter := NewAdmissionFilter(reference, 3, loc)

	_, admitted := filter.Admit("منذ يومين", "")
	assert.True(t, admitted)

	_, admitted = filter.Admit("منذ 5 أيام", "")
	assert.False(t, admitted)
}
