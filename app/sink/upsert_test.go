package sink

import (
	"testing"
	"time"

	"github.com/lysyi3m/profile-comb/app/profile"
)

func testRecord(identifier string, capturedAt time.Time) *profile.Record {
	return &profile.Record{
		Identifier:  identifier,
		Nickname:    identifier,
		Gender:      profile.GenderUnknown,
		Followers:   100,
		Posts:       50,
		ProfileLink: "https://damadam.pk/users/" + identifier + "/",
		CapturedAt:  capturedAt,
	}
}

func TestPlanInsertsNewIdentifiers(t *testing.T) {
	state := NewState()
	now := time.Now()

	plan := state.Plan([]*profile.Record{
		testRecord("alice", now),
		testRecord("bob", now),
	})

	if len(plan.Inserts) != 2 {
		t.Fatalf("Expected 2 inserts, got %d", len(plan.Inserts))
	}
	if len(plan.Updates) != 0 {
		t.Fatalf("Expected 0 updates, got %d", len(plan.Updates))
	}
	if plan.Inserts[0][colNickname] != "alice" || plan.Inserts[1][colNickname] != "bob" {
		t.Errorf("Expected insertion order preserved, got %v", plan.Inserts)
	}
	if plan.Inserts[0][colSeenCount] != "1" {
		t.Errorf("Expected new rows with seen count 1, got %s", plan.Inserts[0][colSeenCount])
	}
}

func TestPlanUpdatesKnownIdentifiers(t *testing.T) {
	state := NewState()
	now := time.Now()

	first := state.Plan([]*profile.Record{testRecord("alice", now)})
	state.Commit(first)

	second := state.Plan([]*profile.Record{testRecord("alice", now.Add(time.Hour))})

	if len(second.Inserts) != 0 {
		t.Fatalf("Expected no inserts on re-encounter, got %d", len(second.Inserts))
	}
	if len(second.Updates) != 1 {
		t.Fatalf("Expected 1 update, got %d", len(second.Updates))
	}
	if second.Updates[0].Row != 2 {
		t.Errorf("Expected update of row 2, got row %d", second.Updates[0].Row)
	}
	if second.Updates[0].Values[colSeenCount] != "2" {
		t.Errorf("Expected seen count 2, got %s", second.Updates[0].Values[colSeenCount])
	}
}

func TestPlanDuplicateWithinBatch(t *testing.T) {
	state := NewState()
	now := time.Now()

	plan := state.Plan([]*profile.Record{
		testRecord("alice", now),
		testRecord("alice", now.Add(time.Minute)),
	})

	if len(plan.Inserts) != 1 {
		t.Fatalf("Expected 1 insert for duplicated identifier, got %d", len(plan.Inserts))
	}
	if len(plan.Updates) != 1 {
		t.Fatalf("Expected 1 update for duplicated identifier, got %d", len(plan.Updates))
	}
	if plan.Updates[0].Values[colSeenCount] != "2" {
		t.Errorf("Expected second occurrence at seen count 2, got %s", plan.Updates[0].Values[colSeenCount])
	}
}

func TestPlanUncommittedIsDiscardable(t *testing.T) {
	state := NewState()
	now := time.Now()

	// A failed batch is not committed, so replanning must produce the
	// identical writes.
	records := []*profile.Record{testRecord("alice", now)}

	first := state.Plan(records)
	second := state.Plan(records)

	if len(second.Inserts) != len(first.Inserts) || len(second.Updates) != len(first.Updates) {
		t.Errorf("Expected identical replan, got %d/%d vs %d/%d inserts/updates",
			len(first.Inserts), len(first.Updates), len(second.Inserts), len(second.Updates))
	}
}

func TestBuildStateFromSheet(t *testing.T) {
	values := [][]string{
		SheetColumns,
		renderSheetRow(testRecord("alice", time.Now()), 3),
		renderSheetRow(testRecord("bob", time.Now()), 1),
	}

	state := BuildState(values)

	if state.Size() != 2 {
		t.Fatalf("Expected 2 tracked identifiers, got %d", state.Size())
	}

	plan := state.Plan([]*profile.Record{testRecord("alice", time.Now())})
	if len(plan.Updates) != 1 {
		t.Fatalf("Expected update for known identifier, got %d inserts", len(plan.Inserts))
	}
	if plan.Updates[0].Row != 2 {
		t.Errorf("Expected alice on row 2, got %d", plan.Updates[0].Row)
	}
	if plan.Updates[0].Values[colSeenCount] != "4" {
		t.Errorf("Expected seen count 4, got %s", plan.Updates[0].Values[colSeenCount])
	}

	// New identifiers land after the existing rows.
	plan = state.Plan([]*profile.Record{testRecord("carol", time.Now())})
	if len(plan.Inserts) != 1 {
		t.Fatalf("Expected insert for new identifier")
	}
}

func TestTwoRunScenario(t *testing.T) {
	// Two passes over the same worklist: the sheet ends with one row per
	// identifier at seen count 2.
	state := NewState()
	now := time.Now()

	worklist := []*profile.Record{testRecord("alice", now), testRecord("bob", now)}

	first := state.Plan(worklist)
	state.Commit(first)

	if len(first.Inserts) != 2 || len(first.Updates) != 0 {
		t.Fatalf("First run: expected 2 inserts, got %d/%d", len(first.Inserts), len(first.Updates))
	}

	second := state.Plan([]*profile.Record{
		testRecord("alice", now.Add(time.Hour)),
		testRecord("bob", now.Add(time.Hour)),
	})
	state.Commit(second)

	if len(second.Inserts) != 0 || len(second.Updates) != 2 {
		t.Fatalf("Second run: expected 2 updates, got %d/%d", len(second.Inserts), len(second.Updates))
	}
	for _, update := range second.Updates {
		if update.Values[colSeenCount] != "2" {
			t.Errorf("Expected seen count 2 after second run, got %s", update.Values[colSeenCount])
		}
	}
	if state.Size() != 2 {
		t.Errorf("Expected 2 tracked identifiers after two runs, got %d", state.Size())
	}
}
