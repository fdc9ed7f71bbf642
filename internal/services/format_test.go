package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kouranbot/outage-notifier/internal/domain"
)

func formatCandidate() domain.Candidate {
	// 05:00 UTC is 09:00 in Mauritius (UTC+4).
	from := time.Date(2026, 8, 26, 5, 0, 0, 0, time.UTC)
	return domain.Candidate{
		ID:           "o-1",
		LocalityName: "Quatre Bornes",
		DistrictName: "plaines_wilhems",
		Streets:      "St Jean Road",
		FromTime:     from,
		ToTime:       from.Add(3 * time.Hour),
	}
}

func TestFormatOutage_LocalTimes(t *testing.T) {
	msg := FormatOutage(formatCandidate())

	assert.Contains(t, msg, "Quatre Bornes")
	assert.Contains(t, msg, "Plaines Wilhems")
	assert.Contains(t, msg, "26 August 2026")
	assert.Contains(t, msg, "From: 09:00")
	assert.Contains(t, msg, "To: 12:00")
	assert.Contains(t, msg, "Streets: St Jean Road")
}

func TestFormatOutage_NoStreets(t *testing.T) {
	c := formatCandidate()
	c.Streets = "   "
	msg := FormatOutage(c)

	assert.NotContains(t, msg, "Streets:")
	assert.Contains(t, msg, "Quatre Bornes")
}

func TestFormatOutage_WindowCrossingMidnightLocal(t *testing.T) {
	c := formatCandidate()
	// 21:00 UTC on the 26th is 01:00 on the 27th in Mauritius; the date line
	// follows the local start time.
	c.FromTime = time.Date(2026, 8, 26, 21, 0, 0, 0, time.UTC)
	c.ToTime = c.FromTime.Add(2 * time.Hour)

	msg := FormatOutage(c)
	assert.Contains(t, msg, "27 August 2026")
	assert.Contains(t, msg, "From: 01:00")
	assert.Contains(t, msg, "To: 03:00")
}

func TestDisplayDistrict(t *testing.T) {
	cases := map[string]string{
		"plaines_wilhems":    "Plaines Wilhems",
		"moka":               "Moka",
		"riviere_du_rempart": "Riviere Du Rempart",
		"Black River":        "Black River",
	}
	for in, want := range cases {
		assert.Equal(t, want, DisplayDistrict(in), "input %q", in)
	}
}

func TestFormatOutage_SingleMessagePerTemplate(t *testing.T) {
	msg := FormatOutage(formatCandidate())
	if n := strings.Count(msg, "Power Outage Alert"); n != 1 {
		t.Fatalf("header appears %d times", n)
	}
}
