// Package pipeline wires the ingestion steps together: normalize the raw
// payload, archive it unconditionally, classify, extract, commit. One
// Dispatch call is one bounded background invocation; nothing raised inside
// a step is allowed to escape, because a crashed headless invocation has
// worse failure semantics than a logged no-op.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/zeninapp/zenin-ingest/internal/archive"
	"github.com/zeninapp/zenin-ingest/internal/classify"
	"github.com/zeninapp/zenin-ingest/internal/domain"
	"github.com/zeninapp/zenin-ingest/internal/extract"
	"github.com/zeninapp/zenin-ingest/internal/session"
	"github.com/zeninapp/zenin-ingest/internal/store"
)

const (
	// DefaultExecutionBudget is the host's observed hard limit on one
	// background invocation.
	DefaultExecutionBudget = 5000 * time.Millisecond

	// DefaultCommitTimeout bounds the store write, leaving headroom within
	// the budget for the archive write and a graceful exit.
	DefaultCommitTimeout = 3000 * time.Millisecond
)

// RawNotification is the wire shape delivered by the OS listener. It is
// normalized at the dispatcher boundary so no downstream component ever
// depends on platform types.
type RawNotification struct {
	Title       string `json:"title"`
	Text        string `json:"text"`
	PackageName string `json:"packageName"`
}

// Outcome is the terminal state of one invocation.
type Outcome string

const (
	// OutcomeCompleted means the invocation ran to its end, regardless of
	// whether anything was committed.
	OutcomeCompleted Outcome = "completed"
	// OutcomeKilled means the execution budget expired before the end.
	OutcomeKilled Outcome = "killed"
)

// Result reports what one invocation did. The background pipeline never
// surfaces it to the user; only the debug surfaces read it.
type Result struct {
	Outcome   Outcome
	Financial bool
	Draft     *domain.TransactionDraft
	Commit    store.CommitResult
}

// invocation is the state threaded through the steps of one Dispatch call.
type invocation struct {
	payload domain.NotificationPayload
	userID  string
	result  Result
	halted  bool
}

// step is a single stage of the invocation. Returned errors are logged at
// the dispatcher boundary and never propagate further.
type step struct {
	name string
	run  func(ctx context.Context, inv *invocation) error
}

// Dispatcher owns the execution contract of the ingestion pipeline.
type Dispatcher struct {
	archive archive.Archive
	txs     store.TransactionStore
	users   session.UserResolver
	lock    WakeLock
	log     zerolog.Logger

	budget        time.Duration
	commitTimeout time.Duration
	clock         func() time.Time
}

// NewDispatcher creates a dispatcher with the default execution budget.
func NewDispatcher(arc archive.Archive, txs store.TransactionStore, users session.UserResolver, lock WakeLock, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		archive:       arc,
		txs:           txs,
		users:         users,
		lock:          lock,
		log:           log,
		budget:        DefaultExecutionBudget,
		commitTimeout: DefaultCommitTimeout,
		clock:         time.Now,
	}
}

// SetBudget overrides the execution budget and the commit timeout. The
// commit timeout must stay strictly below the budget.
func (d *Dispatcher) SetBudget(budget, commitTimeout time.Duration) {
	if budget > 0 {
		d.budget = budget
	}
	if commitTimeout > 0 && commitTimeout < d.budget {
		d.commitTimeout = commitTimeout
	}
}

// Dispatch runs one invocation for a raw OS payload: running, then completed
// or killed. The wake lock is held for exactly the duration of the call.
func (d *Dispatcher) Dispatch(parent context.Context, raw RawNotification) Result {
	return d.run(parent, d.normalize(raw))
}

// DispatchPayload runs one invocation for an already-normalized payload,
// e.g. one redelivered through the feed. A zero receipt time is stamped with
// the current time.
func (d *Dispatcher) DispatchPayload(parent context.Context, p domain.NotificationPayload) Result {
	p.Title = strings.TrimSpace(p.Title)
	p.Text = strings.TrimSpace(p.Text)
	if p.ReceivedAt.IsZero() {
		p.ReceivedAt = d.clock()
	}
	return d.run(parent, p)
}

func (d *Dispatcher) run(parent context.Context, payload domain.NotificationPayload) Result {
	d.lock.Acquire()
	defer d.lock.Release()

	ctx, cancel := context.WithTimeout(parent, d.budget)
	defer cancel()

	inv := &invocation{payload: payload}

	steps := []step{
		{"archive", d.archiveStep},
		{"resolve-user", d.resolveUserStep},
		{"classify", d.classifyStep},
		{"extract", d.extractStep},
		{"commit", d.commitStep},
	}

	for _, s := range steps {
		if ctx.Err() != nil {
			break
		}
		if err := runStep(ctx, s, inv); err != nil {
			d.log.Error().
				Err(err).
				Str("step", s.name).
				Str("source_package", inv.payload.SourcePackage).
				Msg("Pipeline step failed")
		}
		if inv.halted {
			break
		}
	}

	if ctx.Err() != nil {
		inv.result.Outcome = OutcomeKilled
		d.log.Warn().
			Dur("budget", d.budget).
			Str("source_package", inv.payload.SourcePackage).
			Msg("Invocation exceeded execution budget")
	} else {
		inv.result.Outcome = OutcomeCompleted
	}

	return inv.result
}

// runStep executes a step and converts panics into errors so no step can
// crash the host process.
func runStep(ctx context.Context, s step, inv *invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("runStep: panic in %s: %v", s.name, r)
		}
	}()
	return s.run(ctx, inv)
}

// normalize converts the platform payload into the single shape the rest of
// the pipeline consumes. The receipt time is stamped here.
func (d *Dispatcher) normalize(raw RawNotification) domain.NotificationPayload {
	return domain.NotificationPayload{
		Title:         strings.TrimSpace(raw.Title),
		Text:          strings.TrimSpace(raw.Text),
		SourcePackage: raw.PackageName,
		ReceivedAt:    d.clock(),
	}
}

// archiveStep writes the raw payload to the last-notification slot. It runs
// first and unconditionally; a failure is logged but never stops the rest of
// the invocation.
func (d *Dispatcher) archiveStep(ctx context.Context, inv *invocation) error {
	if err := d.archive.SetLast(ctx, &inv.payload); err != nil {
		return fmt.Errorf("archiveStep: %w", err)
	}
	return nil
}

// resolveUserStep asks the session collaborator for the signed-in user.
// Nobody signed in is a terminal no-op, not an error.
func (d *Dispatcher) resolveUserStep(ctx context.Context, inv *invocation) error {
	userID, err := d.users.CurrentUser(ctx)
	if errors.Is(err, session.ErrNoUser) {
		d.log.Debug().Msg("No signed-in user, skipping capture")
		inv.halted = true
		return nil
	}
	if err != nil {
		inv.halted = true
		return fmt.Errorf("resolveUserStep: %w", err)
	}
	inv.userID = userID
	return nil
}

// classifyStep stops the invocation for non-financial text. That is the
// normal path for most notifications, not a failure.
func (d *Dispatcher) classifyStep(ctx context.Context, inv *invocation) error {
	inv.result.Financial = classify.IsFinancial(inv.payload.Text)
	if !inv.result.Financial {
		inv.halted = true
	}
	return nil
}

// extractStep parses the draft and stamps it with the payload fingerprint.
// A classified-positive text that no template resolves is logged and
// dropped; the extractor never produces a partial draft.
func (d *Dispatcher) extractStep(ctx context.Context, inv *invocation) error {
	draft := extract.Parse(inv.payload.Text, inv.payload.ReceivedAt)
	if draft == nil {
		inv.halted = true
		d.log.Info().
			Str("source_package", inv.payload.SourcePackage).
			Msg("Financial notification did not match any template")
		return nil
	}
	draft.Fingerprint = inv.payload.Fingerprint()
	inv.result.Draft = draft
	return nil
}

// commitStep performs the conditional write under its own timeout so an
// unreachable store cannot consume the whole budget.
func (d *Dispatcher) commitStep(ctx context.Context, inv *invocation) error {
	commitCtx, cancel := context.WithTimeout(ctx, d.commitTimeout)
	defer cancel()

	res, err := d.txs.Commit(commitCtx, inv.userID, inv.result.Draft)
	inv.result.Commit = res
	if err != nil {
		return fmt.Errorf("commitStep: %w", err)
	}

	d.log.Info().
		Str("user_id", inv.userID).
		Str("result", string(res)).
		Str("fingerprint", inv.result.Draft.Fingerprint).
		Msg("Transaction commit finished")
	return nil
}
