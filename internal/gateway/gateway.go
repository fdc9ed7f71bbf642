// Package gateway abstracts the outbound messaging channel. The dispatcher
// depends only on the Gateway interface; the concrete Telegram adapter lives
// in telegram.go. Send failures are classified into transient (retryable)
// and permanent (the recipient is gone) so the dispatcher can decide between
// releasing its claim and deactivating the user.
package gateway

import "context"

// Gateway sends a plain-text message to the user identified by chatID.
//
// Error contract: a nil return means the message was accepted by the
// platform. Failures wrap ErrTransient or ErrPermanent; anything else is
// treated by callers as transient.
type Gateway interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// sendError carries the failure classification alongside the cause.
type sendError struct {
	permanent bool
	cause     error
}

func (e *sendError) Error() string {
	if e.permanent {
		return "permanent send failure: " + e.cause.Error()
	}
	return "transient send failure: " + e.cause.Error()
}

func (e *sendError) Unwrap() error { return e.cause }

// Permanent wraps err as a permanent delivery failure (user blocked the bot,
// account deleted). Retrying cannot succeed.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &sendError{permanent: true, cause: err}
}

// Transient wraps err as a retryable delivery failure (network, timeout,
// rate limit).
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &sendError{permanent: false, cause: err}
}

// IsPermanent reports whether err is a permanent delivery failure.
// Unclassified errors are not permanent: when in doubt, retry.
func IsPermanent(err error) bool {
	for err != nil {
		if se, ok := err.(*sendError); ok {
			return se.permanent
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
