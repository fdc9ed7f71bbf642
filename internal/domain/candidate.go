package domain

import "time"

// Candidate is a normalized outage record: a feed entry whose geography has
// been resolved to canonical row identifiers and whose validity window has
// been parsed and validated. Candidates are the reconciler's input.
type Candidate struct {
	ID              string
	LocalityID      int64
	DistrictID      int64
	LocalityName    string
	DistrictName    string
	Streets         string
	DateDescription string
	FromTime        time.Time
	ToTime          time.Time
}

// Classification is the reconciler's verdict for one candidate.
type Classification int

const (
	// ClassUnchanged means the stored outage matches every tracked field;
	// only last_checked was touched and no downstream action follows.
	ClassUnchanged Classification = iota
	// ClassNew means no outage with this external id existed before.
	ClassNew
	// ClassChanged means at least one tracked field differed and the row
	// was updated in place.
	ClassChanged
)

// String returns the lowercase label used in logs and metrics.
func (c Classification) String() string {
	switch c {
	case ClassNew:
		return "new"
	case ClassChanged:
		return "changed"
	default:
		return "unchanged"
	}
}

// TrackedFieldsDiffer reports whether any field the reconciler tracks for
// change detection (street list, date description, validity window) differs
// between the stored outage and the candidate. Geography and bookkeeping
// timestamps are deliberately not compared.
func (o Outage) TrackedFieldsDiffer(c Candidate) bool {
	return o.Streets != c.Streets ||
		o.DateDescription != c.DateDescription ||
		!o.FromTime.Equal(c.FromTime) ||
		!o.ToTime.Equal(c.ToTime)
}

// ToOutage materializes the candidate as an outage row with the given
// bookkeeping timestamps.
func (c Candidate) ToOutage(firstSeen, lastChecked time.Time) Outage {
	return Outage{
		ID:              c.ID,
		LocalityID:      c.LocalityID,
		DistrictID:      c.DistrictID,
		Streets:         c.Streets,
		DateDescription: c.DateDescription,
		FromTime:        c.FromTime,
		ToTime:          c.ToTime,
		FirstSeen:       firstSeen,
		LastChecked:     lastChecked,
	}
}
