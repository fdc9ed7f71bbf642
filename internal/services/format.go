package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kouranbot/outage-notifier/internal/domain"
)

const (
	alertTemplate = "⚠️ Power Outage Alert\n\n📍 Locality: %s\n🏘️ District: %s\n📅 Date: %s\n🕐 From: %s\n🕐 To: %s\n📌 Streets: %s\n\nStay prepared!"

	alertTemplateNoStreets = "⚠️ Power Outage Alert\n\n📍 Locality: %s\n🏘️ District: %s\n📅 Date: %s\n🕐 From: %s\n🕐 To: %s\n\nStay prepared!"
)

var (
	mauritiusOnce sync.Once
	mauritiusZone *time.Location
)

// mauritius returns the island's timezone. Alerts always show wall-clock
// times as the recipients will experience them, not UTC.
func mauritius() *time.Location {
	mauritiusOnce.Do(func() {
		loc, err := time.LoadLocation("Indian/Mauritius")
		if err != nil {
			loc = time.FixedZone("MUT", 4*60*60)
		}
		mauritiusZone = loc
	})
	return mauritiusZone
}

// DisplayDistrict turns a feed district slug like "plaines_wilhems" into
// "Plaines Wilhems".
func DisplayDistrict(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// FormatOutage renders the alert message for a candidate with the outage
// window in Mauritius local time.
func FormatOutage(c domain.Candidate) string {
	loc := mauritius()
	from := c.FromTime.In(loc)
	to := c.ToTime.In(loc)

	date := from.Format("02 January 2006")
	fromStr := from.Format("15:04")
	toStr := to.Format("15:04")
	district := DisplayDistrict(c.DistrictName)

	if streets := strings.TrimSpace(c.Streets); streets != "" {
		return fmt.Sprintf(alertTemplate, c.LocalityName, district, date, fromStr, toStr, streets)
	}
	return fmt.Sprintf(alertTemplateNoStreets, c.LocalityName, district, date, fromStr, toStr)
}
