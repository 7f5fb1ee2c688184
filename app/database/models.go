package database

import (
	"time"
)

type Profile struct {
	Identifier  string
	Nickname    string
	Tags        []string
	City        string
	Gender      string
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
	SeenCount   int
	FirstSeenAt time.Time
	LastSeenAt  time.Time
}

type Capture struct {
	ID         int64
	Identifier string
	CapturedAt time.Time
	Followers  int
	Posts      int
	CreatedAt  time.Time
}

type Stats struct {
	Profiles       int
	Captures       int
	LastCapturedAt *time.Time
}
