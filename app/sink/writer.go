package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/profile-comb/app/cfg"
	"github.com/lysyi3m/profile-comb/app/database"
	"github.com/lysyi3m/profile-comb/app/profile"
)

// Archive is the queryable capture trail behind the status API.
type Archive interface {
	UpsertProfile(profile database.Profile) error
	InsertCapture(identifier string, capturedAt time.Time, followers, posts int) error
}

var _ Archive = (*database.Repository)(nil)

// Writer fans records out to the sinks in a fixed order: local CSV first
// (the step that must not fail), then the SQLite archive, then the remote
// sheet in batches. Remote failures are retried, then logged and skipped.
type Writer struct {
	csv     *CSVWriter
	archive Archive
	store   RowStore

	batchSize  int
	maxRetries int
	retryDelay time.Duration
}

// NewWriter creates a writer. store may be nil when the remote sink is
// disabled.
func NewWriter(csv *CSVWriter, archive Archive, store RowStore) *Writer {
	appCfg := cfg.Get()

	return &Writer{
		csv:        csv,
		archive:    archive,
		store:      store,
		batchSize:  appCfg.BatchSize,
		maxRetries: appCfg.MaxRetries,
		retryDelay: time.Duration(appCfg.RetryDelay) * time.Second,
	}
}

// Write persists a pass worth of records. Only the local append can fail
// the call; archive and remote problems are logged per identifier and the
// remaining work continues.
func (w *Writer) Write(ctx context.Context, records []*profile.Record) error {
	if len(records) == 0 {
		return nil
	}

	if err := w.csv.Append(records); err != nil {
		return &SinkError{Op: "local append", Err: err}
	}
	slog.Info("Appended records to local archive", "count", len(records))

	w.writeArchive(records)

	if w.store == nil {
		return nil
	}

	return w.writeRemote(ctx, records)
}

func (w *Writer) writeArchive(records []*profile.Record) {
	for _, record := range records {
		archived := database.Profile{
			Identifier:  record.Identifier,
			Nickname:    record.Nickname,
			Tags:        record.Tags,
			City:        record.City,
			Gender:      string(record.Gender),
			Married:     record.Married,
			Age:         record.Age,
			JoinYear:    record.JoinYear,
			Followers:   record.Followers,
			Posts:       record.Posts,
			ProfileLink: record.ProfileLink,
			ImageLink:   record.ImageLink,
			Intro:       record.Intro,
			LastPost:    record.LastPost,
			LastPostAt:  record.LastPostAt,
			FirstSeenAt: record.CapturedAt,
			LastSeenAt:  record.CapturedAt,
		}

		if err := w.archive.UpsertProfile(archived); err != nil {
			slog.Error("Archive upsert failed", "identifier", record.Identifier, "error", err)
			continue
		}
		if err := w.archive.InsertCapture(record.Identifier, record.CapturedAt,
			record.Followers, record.Posts); err != nil {
			slog.Error("Archive capture insert failed", "identifier", record.Identifier, "error", err)
		}
	}
}

func (w *Writer) writeRemote(ctx context.Context, records []*profile.Record) error {
	state, err := w.loadState(ctx)
	if err != nil {
		slog.Error("Remote sink unavailable, skipping",
			"identifiers", identifiers(records), "error", err)
		return nil
	}

	for start := 0; start < len(records); start += w.batchSize {
		end := min(start+w.batchSize, len(records))
		batch := records[start:end]

		plan := state.Plan(batch)
		if err := w.applyPlan(ctx, plan); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("Remote batch failed, skipping",
				"identifiers", identifiers(batch), "error", err)
			continue
		}

		state.Commit(plan)
		slog.Debug("Remote batch written",
			"inserts", len(plan.Inserts), "updates", len(plan.Updates))
	}

	return nil
}

// loadState reads the sheet and writes the header when the sheet is empty.
func (w *Writer) loadState(ctx context.Context) (*State, error) {
	var rows [][]string
	err := w.withRetry(ctx, "load", func() error {
		var err error
		rows, err = w.store.Load(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		if err := w.withRetry(ctx, "write header", func() error {
			return w.store.Append(ctx, [][]string{SheetColumns})
		}); err != nil {
			return nil, err
		}
		return NewState(), nil
	}

	return BuildState(rows), nil
}

func (w *Writer) applyPlan(ctx context.Context, plan Plan) error {
	if err := w.withRetry(ctx, "append", func() error {
		return w.store.Append(ctx, plan.Inserts)
	}); err != nil {
		return err
	}

	return w.withRetry(ctx, "update", func() error {
		return w.store.Update(ctx, plan.Updates)
	})
}

func (w *Writer) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		slog.Warn("Remote sink operation failed", "operation", op,
			"attempt", attempt, "max_attempts", w.maxRetries, "error", lastErr)

		if attempt < w.maxRetries {
			timer := time.NewTimer(time.Duration(attempt) * w.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, w.maxRetries, lastErr)
}

func identifiers(records []*profile.Record) []string {
	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.Identifier)
	}
	return ids
}
