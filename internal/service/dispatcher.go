package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"peptide-reminder/internal/model"
)

// WorkerName keys the dispatcher's liveness record.
const WorkerName = "reminder_scheduler"

// Sender delivers one message to a chat.
type Sender interface {
	Send(ctx context.Context, recipientID int64, text string, rich bool) error
}

// ReminderStore is the persistence the dispatcher needs.
type ReminderStore interface {
	ListActiveSchedules(ctx context.Context) ([]model.Schedule, error)
	AlreadySent(ctx context.Context, scheduleID uint, day time.Time) (bool, error)
	CommitPass(ctx context.Context, entries []model.ReminderLog, workerName string, runAt time.Time) error
	LastRun(ctx context.Context, workerName string) (*time.Time, error)
}

// Clock abstracts time so the loop can be driven by tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// Outcome classifies a pass for the retry logic.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeRetryable
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeFatal:
		return "fatal"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// PassResult summarizes one pass over the active schedules.
type PassResult struct {
	Outcome Outcome
	Err     error
	Due     int
	Sent    int
	Failed  int
	Skipped int
}

// Dispatcher sends due reminders once a day and records them in the ledger.
type Dispatcher struct {
	store   ReminderStore
	sender  Sender
	clock   Clock
	cadence Cadence
	log     zerolog.Logger
}

func NewDispatcher(store ReminderStore, sender Sender, clock Clock, cadence Cadence, log zerolog.Logger) *Dispatcher {
	if clock == nil {
		clock = SystemClock()
	}
	if cadence.MaxAttempts < 1 {
		cadence.MaxAttempts = 1
	}
	return &Dispatcher{
		store:   store,
		sender:  sender,
		clock:   clock,
		cadence: cadence,
		log:     log.With().Str("component", "dispatcher").Logger(),
	}
}

// Run catches up if the last pass is missing or stale, then alternates
// between sleeping until the next trigger and running a pass. It returns
// ctx.Err() on shutdown; any other return wraps ErrSchedulerFatal.
func (d *Dispatcher) Run(ctx context.Context) error {
	err := d.loop(ctx)
	if ctx.Err() != nil {
		d.log.Info().Msg("reminder dispatcher stopping")
		return ctx.Err()
	}
	err = fmt.Errorf("%w: %v", ErrSchedulerFatal, err)
	d.log.WithLevel(zerolog.FatalLevel).Err(err).Msg("reminder dispatch loop exited, no reminders will be sent")
	return err
}

func (d *Dispatcher) loop(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in dispatch loop: %v", r)
		}
	}()

	if d.catchUpNeeded(ctx) {
		d.log.Info().Msg("running catch-up pass")
		d.RunWithRetry(ctx)
	}

	for {
		now := d.clock.Now()
		next, err := NextWake(now, d.cadence)
		if err != nil {
			return err
		}
		d.log.Info().Time("next_wake", next).Dur("sleep", next.Sub(now)).Msg("sleeping until next reminder pass")
		if !d.sleep(ctx, next.Sub(now)) {
			return ctx.Err()
		}

		pause := d.cadence.Buffer
		if res := d.RunWithRetry(ctx); res.Outcome != OutcomeOK {
			pause = d.cadence.RecoverySleep
			d.log.Warn().Dur("sleep", pause).Msg("reminder pass failed, backing off")
		}
		if !d.sleep(ctx, pause) {
			return ctx.Err()
		}
	}
}

func (d *Dispatcher) catchUpNeeded(ctx context.Context) bool {
	last, err := d.store.LastRun(ctx, WorkerName)
	if err != nil {
		d.log.Warn().Err(err).Msg("read last run time")
		return true
	}
	if last == nil {
		return true
	}
	return d.clock.Now().Sub(*last) > d.cadence.CatchUpAfter
}

// sleep waits for dur or until ctx is done; false means ctx is done.
func (d *Dispatcher) sleep(ctx context.Context, dur time.Duration) bool {
	if dur <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-d.clock.After(dur):
		return true
	}
}

// RunWithRetry runs passes until one is not retryable or MaxAttempts is
// reached, waiting RetryBackoff×attempt between attempts.
func (d *Dispatcher) RunWithRetry(ctx context.Context) PassResult {
	var res PassResult
	for attempt := 1; attempt <= d.cadence.MaxAttempts; attempt++ {
		res = d.RunPass(ctx)
		ev := d.log.Info()
		if res.Outcome != OutcomeOK {
			ev = d.log.Error().Err(res.Err)
		}
		ev.Int("attempt", attempt).
			Stringer("outcome", res.Outcome).
			Int("due", res.Due).
			Int("sent", res.Sent).
			Int("failed", res.Failed).
			Int("skipped", res.Skipped).
			Msg("reminder pass finished")

		if res.Outcome != OutcomeRetryable || attempt == d.cadence.MaxAttempts {
			break
		}
		if !d.sleep(ctx, d.cadence.RetryBackoff*time.Duration(attempt)) {
			return PassResult{Outcome: OutcomeFatal, Err: ctx.Err()}
		}
	}
	return res
}

// RunPass evaluates every active schedule once: due today, not yet sent,
// send, then commit the ledger and liveness together.
func (d *Dispatcher) RunPass(ctx context.Context) (res PassResult) {
	log := d.log.With().Str("pass_id", uuid.NewString()).Logger()
	defer func() {
		if r := recover(); r != nil {
			res = PassResult{Outcome: OutcomeFatal, Err: fmt.Errorf("%w: panic in pass: %v", ErrSchedulerFatal, r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return PassResult{Outcome: OutcomeFatal, Err: err}
	}

	loc := d.cadence.location()
	now := d.clock.Now()
	today := now.In(loc)

	schedules, err := d.store.ListActiveSchedules(ctx)
	if err != nil {
		return d.storeFailure(ctx, res, err)
	}

	var entries []model.ReminderLog
	for _, s := range schedules {
		if !d.cadence.AlwaysDue && !IsDueToday(s, today, loc) {
			res.Skipped++
			continue
		}
		if s.User.ID == 0 {
			res.Skipped++
			log.Warn().Uint("schedule_id", s.ID).Uint("user_id", s.UserID).Msg("schedule has no owner, skipping")
			continue
		}
		sent, err := d.store.AlreadySent(ctx, s.ID, today)
		if err != nil {
			return d.storeFailure(ctx, res, err)
		}
		if sent {
			res.Skipped++
			continue
		}

		res.Due++
		entry := model.ReminderLog{ScheduleID: s.ID, OccurrenceDate: now.UTC()}
		text := RenderReminder(s, DaysRemaining(s, today, loc))
		if err := d.sender.Send(ctx, s.User.TelegramID, text, true); err != nil {
			res.Failed++
			log.Warn().Err(err).Uint("schedule_id", s.ID).Int64("chat_id", s.User.TelegramID).Msg("send reminder")
		} else {
			sentAt := d.clock.Now().UTC()
			entry.IsSent = true
			entry.SentAt = &sentAt
			res.Sent++
			log.Debug().Uint("schedule_id", s.ID).Int64("chat_id", s.User.TelegramID).Msg("reminder sent")
		}
		entries = append(entries, entry)
	}

	if err := d.store.CommitPass(ctx, entries, WorkerName, now); err != nil {
		return d.storeFailure(ctx, res, err)
	}

	if res.Failed > 0 {
		res.Outcome = OutcomeRetryable
		res.Err = fmt.Errorf("%w: %d of %d reminders", ErrDeliveryFailure, res.Failed, res.Due)
	}
	return res
}

func (d *Dispatcher) storeFailure(ctx context.Context, res PassResult, err error) PassResult {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		res.Outcome = OutcomeFatal
		res.Err = err
		return res
	}
	res.Outcome = OutcomeRetryable
	res.Err = fmt.Errorf("%w: %w", ErrStoreFailure, err)
	return res
}
