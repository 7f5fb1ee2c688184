package profile

import (
	"context"
	"time"
)

// Gender is the normalized gender classification of a profile.
type Gender string

const (
	GenderMale    Gender = "Male"
	GenderFemale  Gender = "Female"
	GenderUnknown Gender = "Unknown"
)

// Page is a live browser page capable of rendering site URLs. Satisfied by
// browser.Session; faked in tests.
type Page interface {
	HTML(ctx context.Context, url string, waitSelector string, timeout time.Duration) (string, error)
}

// Raw holds the field strings exactly as they appear on a profile page.
// Optional fields that are absent from the page stay empty.
type Raw struct {
	Identifier  string
	Nickname    string
	City        string
	Gender      string
	Married     string
	Age         string
	Joined      string
	Followers   string
	Posts       string
	Intro       string
	ImageLink   string
	LastPost    string
	LastPostAt  string
	ProfileLink string
	FetchedAt   time.Time
}

// Record is a normalized capture of one profile at one point in time.
// Identifier is the deduplication key; Identifier plus the capture date
// identifies a capture event.
type Record struct {
	Identifier  string
	Nickname    string
	Tags        []string
	City        string
	Gender      Gender
	Married     *bool
	Age         *int
	JoinYear    *int
	Followers   int
	Posts       int
	ProfileLink string
	ImageLink   string
	Intro       string
	LastPost    string
	LastPostAt  *time.Time
	CapturedAt  time.Time
}

// CaptureDate formats the capture timestamp for the DATE column.
func (r *Record) CaptureDate() string {
	return r.CapturedAt.In(time.Local).Format("02-Jan-2006")
}

// CaptureTime formats the capture timestamp for the TIME column.
func (r *Record) CaptureTime() string {
	return r.CapturedAt.In(time.Local).Format("03:04 PM")
}
