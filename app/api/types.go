package api

import (
	"github.com/lysyi3m/profile-comb/app/database"
	"github.com/lysyi3m/profile-comb/app/runner"
)

type StatusReporter interface {
	Status() runner.Status
}

var _ StatusReporter = (*runner.Runner)(nil)

type Handler struct {
	profileRepo database.ProfileRepository
	captureRepo database.CaptureRepository
	reporter    StatusReporter
}
