package sink

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lysyi3m/profile-comb/app/profile"
)

// Columns is the fixed local CSV schema. Order is part of the contract:
// existing files are appended to, never rewritten.
var Columns = []string{
	"DATE", "TIME", "NICKNAME", "TAGS", "CITY", "GENDER", "MARRIED",
	"AGE", "JOINED", "FOLLOWERS", "POSTS", "PLINK", "PIMAGE", "INTRO",
}

// SheetColumns extends the local schema with the dedup counter.
var SheetColumns = append(append([]string{}, Columns...), "SCOUNT")

const (
	colNickname  = 2
	colSeenCount = 14
)

// RowStore is a remote spreadsheet holding one row per identifier.
// Implemented by SheetStore; faked in tests.
type RowStore interface {
	// Load returns every row including the header, in sheet order.
	Load(ctx context.Context) ([][]string, error)
	// Append adds rows after the current last row.
	Append(ctx context.Context, rows [][]string) error
	// Update rewrites specific rows in place.
	Update(ctx context.Context, updates []Update) error
}

// Update rewrites one sheet row (1-based) with new values.
type Update struct {
	Row    int
	Values []string
}

// SinkError reports a failure of the local append step, which is the one
// sink failure that aborts a write.
type SinkError struct {
	Op  string
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s failed: %v", e.Op, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// renderRow formats a record for the local CSV schema.
func renderRow(r *profile.Record) []string {
	return []string{
		r.CaptureDate(),
		r.CaptureTime(),
		r.Nickname,
		strings.Join(r.Tags, ", "),
		r.City,
		string(r.Gender),
		renderBool(r.Married),
		renderInt(r.Age),
		renderInt(r.JoinYear),
		strconv.Itoa(r.Followers),
		strconv.Itoa(r.Posts),
		r.ProfileLink,
		r.ImageLink,
		r.Intro,
	}
}

// renderSheetRow formats a record for the remote schema with its seen count.
func renderSheetRow(r *profile.Record, seenCount int) []string {
	return append(renderRow(r), strconv.Itoa(seenCount))
}

func renderBool(b *bool) string {
	if b == nil {
		return ""
	}
	if *b {
		return "Yes"
	}
	return "No"
}

func renderInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
