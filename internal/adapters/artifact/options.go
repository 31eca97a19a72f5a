package artifact

import (
	"os"
	"time"

	"github.com/okian/diabrisk/pkg/logger"
)

type settings struct {
	logger logger.Logger
	now    func() time.Time
	rename func(oldpath, newpath string) error
}

// Option configures Save and Load.
type Option func(*settings)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		logger: logger.Get().Named("artifact"),
		now:    time.Now,
		rename: os.Rename,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
