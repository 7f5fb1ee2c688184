package sink

import (
	"strconv"

	"github.com/lysyi3m/profile-comb/app/profile"
)

// State mirrors the remote sheet: which row each identifier occupies and
// how many times it has been seen. Plans are computed against it without
// mutation; Commit folds a successfully written plan back in.
type State struct {
	rows    map[string]rowRef
	nextRow int
}

type rowRef struct {
	row       int
	seenCount int
}

// Plan is the set of writes that bring the sheet up to date with a batch
// of records: new identifiers become inserts with a seen count of 1,
// known identifiers become in-place updates with the count incremented.
type Plan struct {
	Inserts [][]string
	Updates []Update

	staged  map[string]rowRef
	nextRow int
}

// NewState returns the state of an empty sheet (header on row 1).
func NewState() *State {
	return &State{rows: make(map[string]rowRef), nextRow: 2}
}

// BuildState reconstructs sheet state from loaded values. A leading header
// row is skipped. Malformed rows still occupy their row number.
func BuildState(values [][]string) *State {
	state := &State{rows: make(map[string]rowRef), nextRow: len(values) + 1}

	for i, row := range values {
		if i == 0 && isHeader(row) {
			continue
		}
		if len(row) <= colNickname {
			continue
		}

		identifier := row[colNickname]
		if identifier == "" {
			continue
		}

		seenCount := 1
		if len(row) > colSeenCount {
			if parsed, err := strconv.Atoi(row[colSeenCount]); err == nil && parsed > 0 {
				seenCount = parsed
			}
		}

		state.rows[identifier] = rowRef{row: i + 1, seenCount: seenCount}
	}

	return state
}

// Plan decides inserts and updates for a batch. Deciding is pure with
// respect to the state; repeated identifiers within the batch accumulate
// against the staged view, so planning the same batch twice after a Commit
// yields updates, never duplicate inserts.
func (s *State) Plan(records []*profile.Record) Plan {
	plan := Plan{
		staged:  make(map[string]rowRef),
		nextRow: s.nextRow,
	}

	for _, record := range records {
		ref, known := plan.staged[record.Identifier]
		if !known {
			ref, known = s.rows[record.Identifier]
		}

		if !known {
			// First ever encounter: insert at the next free row.
			ref = rowRef{row: plan.nextRow, seenCount: 1}
			plan.nextRow++
			plan.staged[record.Identifier] = ref
			plan.Inserts = append(plan.Inserts, renderSheetRow(record, 1))
			continue
		}

		ref.seenCount++
		plan.staged[record.Identifier] = ref
		plan.Updates = append(plan.Updates, Update{
			Row:    ref.row,
			Values: renderSheetRow(record, ref.seenCount),
		})
	}

	return plan
}

// Commit folds a successfully applied plan into the state. Failed plans
// are discarded instead, leaving the state consistent with the sheet.
func (s *State) Commit(plan Plan) {
	for identifier, ref := range plan.staged {
		s.rows[identifier] = ref
	}
	if plan.nextRow > s.nextRow {
		s.nextRow = plan.nextRow
	}
}

// Size returns the number of identifiers tracked.
func (s *State) Size() int {
	return len(s.rows)
}

func isHeader(row []string) bool {
	return len(row) > 0 && row[0] == Columns[0]
}
