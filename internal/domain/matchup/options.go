package matchup

import "github.com/okian/matchquant/pkg/logger"

// Option applies a configuration option to the Fetcher.
type Option func(*Fetcher)

// WithSeason pins the season instead of deriving it from the kick-off date.
func WithSeason(season string) Option {
	return func(f *Fetcher) {
		f.season = season
	}
}

// WithLogger sets a custom logger for the fetcher.
func WithLogger(l logger.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}
