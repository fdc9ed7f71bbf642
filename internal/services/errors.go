// Package services implements the reconciliation/notification engine: the
// normalizer, reconciler, matcher, and dispatcher stages, plus the monitor
// that runs them as one cycle. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
package services

import "errors"

var (
	// ErrInvalidWindow is returned for a candidate whose from_time is not
	// strictly before its to_time.
	ErrInvalidWindow = errors.New("outage window is empty or inverted")

	// ErrBadTimestamp is returned when a feed record's from/to timestamps
	// cannot be parsed.
	ErrBadTimestamp = errors.New("unparseable timestamp")

	// ErrMissingID is returned for a feed record without an external id.
	ErrMissingID = errors.New("record has no external id")

	// ErrMissingLocality is returned for a feed record without locality or
	// district names.
	ErrMissingLocality = errors.New("record has no locality or district")

	// ErrCycleInProgress is reported when a new reconciliation cycle is
	// requested while the previous one is still executing.
	ErrCycleInProgress = errors.New("reconciliation cycle already in progress")
)
