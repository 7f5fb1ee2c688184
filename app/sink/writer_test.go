package sink

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/lysyi3m/profile-comb/app/database"
	"github.com/lysyi3m/profile-comb/app/profile"
)

// fakeStore keeps sheet rows in memory and can fail a number of calls.
type fakeStore struct {
	rows       [][]string
	failLoads  int
	failWrites int
	loadCalls  int
	writeCalls int
}

func (s *fakeStore) Load(ctx context.Context) ([][]string, error) {
	s.loadCalls++
	if s.loadCalls <= s.failLoads {
		return nil, fmt.Errorf("quota exceeded")
	}
	out := make([][]string, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *fakeStore) Append(ctx context.Context, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	s.writeCalls++
	if s.writeCalls <= s.failWrites {
		return fmt.Errorf("quota exceeded")
	}
	s.rows = append(s.rows, rows...)
	return nil
}

func (s *fakeStore) Update(ctx context.Context, updates []Update) error {
	if len(updates) == 0 {
		return nil
	}
	s.writeCalls++
	if s.writeCalls <= s.failWrites {
		return fmt.Errorf("quota exceeded")
	}
	for _, update := range updates {
		for update.Row > len(s.rows) {
			s.rows = append(s.rows, nil)
		}
		s.rows[update.Row-1] = update.Values
	}
	return nil
}

type fakeArchive struct {
	upserts  []database.Profile
	captures int
}

func (a *fakeArchive) UpsertProfile(p database.Profile) error {
	a.upserts = append(a.upserts, p)
	return nil
}

func (a *fakeArchive) InsertCapture(identifier string, capturedAt time.Time, followers, posts int) error {
	a.captures++
	return nil
}

func newTestWriter(t *testing.T, store RowStore) (*Writer, *fakeArchive) {
	t.Helper()

	archive := &fakeArchive{}
	writer := &Writer{
		csv:        NewCSVWriter(filepath.Join(t.TempDir(), "profiles.csv")),
		archive:    archive,
		store:      store,
		batchSize:  2,
		maxRetries: 3,
		retryDelay: time.Millisecond,
	}

	return writer, archive
}

func TestWriteFansOutToAllSinks(t *testing.T) {
	store := &fakeStore{}
	writer, archive := newTestWriter(t, store)

	now := time.Now()
	records := []*profile.Record{testRecord("alice", now), testRecord("bob", now)}

	if err := writer.Write(context.Background(), records); err != nil {
		t.Fatal(err)
	}

	if len(archive.upserts) != 2 || archive.captures != 2 {
		t.Errorf("Expected 2 archive upserts and captures, got %d/%d",
			len(archive.upserts), archive.captures)
	}

	// Header plus one row per identifier.
	if len(store.rows) != 3 {
		t.Fatalf("Expected 3 sheet rows, got %d", len(store.rows))
	}
	if store.rows[0][0] != "DATE" {
		t.Errorf("Expected header row first, got %v", store.rows[0])
	}
	if store.rows[1][colSeenCount] != "1" || store.rows[2][colSeenCount] != "1" {
		t.Error("Expected new rows with seen count 1")
	}
}

func TestWriteTwoRunsAccumulateSeenCount(t *testing.T) {
	store := &fakeStore{}
	writer, _ := newTestWriter(t, store)

	now := time.Now()
	run := func(at time.Time) {
		t.Helper()
		records := []*profile.Record{testRecord("alice", at), testRecord("bob", at)}
		if err := writer.Write(context.Background(), records); err != nil {
			t.Fatal(err)
		}
	}

	run(now)
	run(now.Add(time.Hour))

	// Still one row per identifier, both at seen count 2.
	if len(store.rows) != 3 {
		t.Fatalf("Expected header plus 2 rows after two runs, got %d", len(store.rows))
	}
	for _, row := range store.rows[1:] {
		if row[colSeenCount] != "2" {
			t.Errorf("Expected seen count 2 for %s, got %s", row[colNickname], row[colSeenCount])
		}
	}
}

func TestWriteSurvivesRemoteOutage(t *testing.T) {
	store := &fakeStore{failLoads: 100}
	writer, archive := newTestWriter(t, store)

	records := []*profile.Record{testRecord("alice", time.Now())}

	// Local sinks succeed, the remote outage is logged and skipped.
	if err := writer.Write(context.Background(), records); err != nil {
		t.Fatal(err)
	}
	if len(archive.upserts) != 1 {
		t.Errorf("Expected local archive write despite remote outage, got %d", len(archive.upserts))
	}
}

func TestWriteRetriesTransientRemoteFailure(t *testing.T) {
	store := &fakeStore{failWrites: 2}
	writer, _ := newTestWriter(t, store)

	records := []*profile.Record{testRecord("alice", time.Now())}
	if err := writer.Write(context.Background(), records); err != nil {
		t.Fatal(err)
	}

	// Header append failed twice and then succeeded within the retry budget.
	if len(store.rows) != 2 {
		t.Fatalf("Expected header plus 1 row after retries, got %d", len(store.rows))
	}
}

func TestWriteWithoutRemoteStore(t *testing.T) {
	writer, archive := newTestWriter(t, nil)

	records := []*profile.Record{testRecord("alice", time.Now())}
	if err := writer.Write(context.Background(), records); err != nil {
		t.Fatal(err)
	}
	if len(archive.upserts) != 1 {
		t.Errorf("Expected archive write with remote disabled, got %d", len(archive.upserts))
	}
}

func TestWriteEmptyBatch(t *testing.T) {
	store := &fakeStore{}
	writer, _ := newTestWriter(t, store)

	if err := writer.Write(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if store.loadCalls != 0 {
		t.Error("Expected no remote calls for an empty batch")
	}
}
