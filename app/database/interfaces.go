package database

import (
	"time"
)

type ProfileRepository interface {
	GetProfile(identifier string) (*Profile, error)
	GetProfiles(limit int) ([]Profile, error)
	GetProfileCount() (int, error)

	UpsertProfile(profile Profile) error
}

type CaptureRepository interface {
	InsertCapture(identifier string, capturedAt time.Time, followers, posts int) error
	GetCaptureCount() (int, error)
	GetLastCapturedAt() (*time.Time, error)
}
