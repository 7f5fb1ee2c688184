package runner

import (
	"context"

	"github.com/lysyi3m/profile-comb/app/browser"
	"github.com/lysyi3m/profile-comb/app/profile"
	"github.com/lysyi3m/profile-comb/app/sink"
)

type SessionSource interface {
	Acquire(ctx context.Context) (profile.Page, error)
	Invalidate()
}

var _ SessionSource = (*browser.Manager)(nil)

type ProfileExtractor interface {
	Fetch(ctx context.Context, page profile.Page, identifier string) (*profile.Raw, error)
	DiscoverOnline(ctx context.Context, page profile.Page) ([]string, error)
}

var _ ProfileExtractor = (*profile.Extractor)(nil)

type ProfileNormalizer interface {
	Run(raw *profile.Raw) (*profile.Record, error)
}

var _ ProfileNormalizer = (*profile.Normalizer)(nil)

type RecordWriter interface {
	Write(ctx context.Context, records []*profile.Record) error
}

var _ RecordWriter = (*sink.Writer)(nil)
