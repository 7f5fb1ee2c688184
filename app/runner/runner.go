package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/lysyi3m/profile-comb/app/cfg"
	"github.com/lysyi3m/profile-comb/app/config"
	"github.com/lysyi3m/profile-comb/app/profile"
)

// Phase is the runner's position in its pass cycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseAcquiring  Phase = "acquiring_session"
	PhaseExtracting Phase = "extracting"
	PhaseWriting    Phase = "writing"
	PhaseSleeping   Phase = "sleeping"
	PhaseDone       Phase = "done"
)

// Status is a snapshot of runner progress for the status API.
type Status struct {
	Phase      Phase      `json:"phase"`
	Passes     int        `json:"passes"`
	Collected  int        `json:"collected"`
	Skipped    int        `json:"skipped"`
	LastPassAt *time.Time `json:"last_pass_at,omitempty"`
}

// Runner drives passes over the worklist: acquire a session, extract and
// normalize each profile with randomized pacing, write the batch, then
// either stop or sleep and go again. Single-threaded by design: one
// session, one fetch in flight.
type Runner struct {
	sessions   SessionSource
	extractor  ProfileExtractor
	normalizer ProfileNormalizer
	writer     RecordWriter
	targets    *config.Targets

	continuous     bool
	loopWait       time.Duration
	minDelay       time.Duration
	maxDelay       time.Duration
	discoverOnline bool

	mu     sync.Mutex
	status Status
}

func New(sessions SessionSource, extractor ProfileExtractor,
	normalizer ProfileNormalizer, writer RecordWriter, targets *config.Targets) *Runner {
	appCfg := cfg.Get()

	return &Runner{
		sessions:       sessions,
		extractor:      extractor,
		normalizer:     normalizer,
		writer:         writer,
		targets:        targets,
		continuous:     appCfg.Continuous,
		loopWait:       time.Duration(appCfg.LoopWait) * time.Minute,
		minDelay:       time.Duration(appCfg.MinDelay) * time.Millisecond,
		maxDelay:       time.Duration(appCfg.MaxDelay) * time.Millisecond,
		discoverOnline: appCfg.DiscoverOnline,
		status:         Status{Phase: PhaseIdle},
	}
}

// Run executes passes until the context is cancelled. In one-shot mode a
// single pass runs and its error, if any, is returned. In continuous mode
// pass failures are logged and followed by an extended sleep.
func (r *Runner) Run(ctx context.Context) error {
	for {
		err := r.pass(ctx)
		if ctx.Err() != nil {
			r.setPhase(PhaseIdle)
			return ctx.Err()
		}

		if !r.continuous {
			r.setPhase(PhaseDone)
			return err
		}

		wait := r.loopWait
		if err != nil {
			// Extended backoff after a failed pass keeps a flapping
			// session from hammering the site.
			wait = 2 * r.loopWait
			slog.Error("Pass failed", "error", err, "retry_in", wait)
			r.sessions.Invalidate()
		}

		r.setPhase(PhaseSleeping)
		slog.Info("Sleeping until next pass", "wait", wait)
		if err := sleepCtx(ctx, wait); err != nil {
			r.setPhase(PhaseIdle)
			return err
		}
	}
}

func (r *Runner) pass(ctx context.Context) error {
	r.setPhase(PhaseAcquiring)
	page, err := r.sessions.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire session: %w", err)
	}

	worklist := r.targets.Identifiers()
	if r.discoverOnline {
		online, err := r.extractor.DiscoverOnline(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("Online discovery failed, using configured targets only", "error", err)
		} else {
			worklist = mergeWorklists(worklist, online)
		}
	}

	if len(worklist) == 0 {
		slog.Warn("Empty worklist, nothing to do")
		return nil
	}

	slog.Info("Starting pass", "targets", len(worklist))
	r.setPhase(PhaseExtracting)

	records := make([]*profile.Record, 0, len(worklist))
	skipped := 0

	for i, identifier := range worklist {
		if i > 0 {
			if err := sleepCtx(ctx, r.pacingDelay()); err != nil {
				return err
			}
		}

		raw, err := r.extractor.Fetch(ctx, page, identifier)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var fetchErr *profile.FetchError
			if errors.As(err, &fetchErr) {
				slog.Error("Skipping profile", "identifier", identifier, "error", err)
				skipped++
				continue
			}
			return fmt.Errorf("fetch aborted for %s: %w", identifier, err)
		}

		record, err := r.normalizer.Run(raw)
		if err != nil {
			slog.Error("Dropping record", "identifier", identifier, "error", err)
			skipped++
			continue
		}

		record.Tags = r.targets.TagsFor(identifier)
		records = append(records, record)
	}

	r.setPhase(PhaseWriting)
	if err := r.writer.Write(ctx, records); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}

	now := time.Now()
	r.mu.Lock()
	r.status.Passes++
	r.status.Collected += len(records)
	r.status.Skipped += skipped
	r.status.LastPassAt = &now
	r.mu.Unlock()

	slog.Info("Pass complete", "collected", len(records), "skipped", skipped)

	return nil
}

// Status returns a snapshot of runner progress.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Runner) setPhase(phase Phase) {
	r.mu.Lock()
	r.status.Phase = phase
	r.mu.Unlock()
}

// pacingDelay picks a uniformly random delay in [minDelay, maxDelay].
func (r *Runner) pacingDelay() time.Duration {
	if r.maxDelay <= r.minDelay {
		return r.minDelay
	}
	return r.minDelay + time.Duration(rand.Int63n(int64(r.maxDelay-r.minDelay)+1))
}

// mergeWorklists appends discovered identifiers after the configured ones,
// dropping duplicates.
func mergeWorklists(configured, discovered []string) []string {
	seen := make(map[string]bool, len(configured))
	merged := make([]string, 0, len(configured)+len(discovered))

	for _, identifier := range configured {
		seen[identifier] = true
		merged = append(merged, identifier)
	}
	for _, identifier := range discovered {
		if seen[identifier] {
			continue
		}
		seen[identifier] = true
		merged = append(merged, identifier)
	}

	return merged
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
