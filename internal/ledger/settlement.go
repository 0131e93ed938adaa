package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/epoch-ledger/internal/interfaces"
	"github.com/sheikh-saqib/epoch-ledger/internal/metrics"
	"github.com/sheikh-saqib/epoch-ledger/internal/models"
	"github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

// Start launches the settlement loop. It settles one epoch per interval until
// ctx is canceled or Stop is called. Calling Start on a running ledger is a no-op.
func (l *Ledger) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.running = true

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				l.Settle(runCtx)
			}
		}
	}()

	l.log.WithField("interval", l.interval.String()).Info("settlement worker started")
	return nil
}

// Stop halts the loop, waits for an in-progress epoch to finish and then
// settles whatever is still queued, so acknowledged submissions are applied.
func (l *Ledger) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	cancel := l.cancel
	l.running = false
	l.cancel = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		l.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if l.queue.Len() > 0 {
		report := l.Settle(ctx)
		l.log.WithField("actions", len(report.Results)).Info("final epoch settled on shutdown")
	}
	l.log.Info("settlement worker stopped")
	return nil
}

// Settle runs one epoch: drain the queue, apply every drained action in
// arrival order under a single store critical section, then report. A failed
// action never stops the ones after it.
func (l *Ledger) Settle(ctx context.Context) EpochReport {
	l.settleMu.Lock()
	defer l.settleMu.Unlock()
	defer l.setState(StateIdle)

	l.epoch++
	report := EpochReport{
		ID:        uuid.New(),
		Epoch:     l.epoch,
		StartedAt: l.now(),
	}

	l.setState(StateDraining)
	actions := l.queue.DrainAll()
	metrics.SetPending(l.queue.Len())

	l.setState(StateApplying)
	results := make([]ActionResult, 0, len(actions))
	l.store.Update(func(tx interfaces.AccountTx) {
		for i, action := range actions {
			err := applyAction(tx, action)
			results = append(results, ActionResult{
				Sequence: i,
				Action:   action,
				Outcome:  models.OutcomeOf(err),
				Err:      err,
			})
		}
	})
	report.Results = results
	report.FinishedAt = l.now()

	// Store lock released; everything below may do I/O.
	l.logReport(report)
	metrics.RecordEpoch(report.FinishedAt.Sub(report.StartedAt), len(actions), report.outcomeCounts(), l.store.Len())
	l.publish(ctx, report)

	return report
}

func applyAction(tx interfaces.AccountTx, action models.Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic applying %s: %v", action, r)
		}
	}()

	switch a := action.(type) {
	case models.CreateAccount:
		return tx.CreateAccount(a.AccountID, a.StartingBalance)
	case models.Transfer:
		return tx.ApplyTransfer(a.FromID, a.ToID, a.Amount)
	default:
		return fmt.Errorf("unsupported action %T", action)
	}
}

func (l *Ledger) logReport(report EpochReport) {
	epochLog := l.log.WithFields(logrus.Fields{
		"epoch":    report.Epoch,
		"epoch_id": report.ID.String(),
	})

	if len(report.Results) == 0 {
		epochLog.Debug("epoch settled with no pending actions")
		return
	}

	for _, res := range report.Results {
		entry := epochLog.WithFields(logrus.Fields{
			"seq":     res.Sequence,
			"action":  res.Action.String(),
			"outcome": string(res.Outcome),
		})
		if res.Err != nil {
			entry.WithError(res.Err).Warn("action rejected")
			continue
		}
		entry.Info("action applied")
	}

	epochLog.WithFields(logrus.Fields{
		"actions":  len(report.Results),
		"applied":  report.Count(models.OutcomeApplied),
		"rejected": len(report.Results) - report.Count(models.OutcomeApplied),
		"duration": report.FinishedAt.Sub(report.StartedAt).String(),
	}).Info("epoch settled")
}

func (l *Ledger) publish(ctx context.Context, report EpochReport) {
	if l.publisher == nil || len(report.Results) == 0 {
		return
	}

	// Detached from ctx so the final epoch on shutdown still gets published.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := l.publisher.Publish(pubCtx, report.Events()); err != nil {
		metrics.RecordPublishFailure()
		l.log.WithError(err).WithField("epoch", report.Epoch).Warn("publish settlement events failed")
	}
}
