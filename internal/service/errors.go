package service

import "errors"

var (
	// ErrDeliveryFailure marks a pass in which at least one send failed.
	ErrDeliveryFailure = errors.New("reminder delivery failed")
	// ErrStoreFailure marks a pass that could not read or commit the ledger.
	ErrStoreFailure = errors.New("reminder store failed")
	// ErrSchedulerFatal means the dispatch loop stopped for a reason other
	// than shutdown; reminders are no longer being sent.
	ErrSchedulerFatal = errors.New("reminder scheduler stopped unexpectedly")
)
