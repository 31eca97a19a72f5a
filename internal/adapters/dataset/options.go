package dataset

import "github.com/okian/diabrisk/pkg/logger"

type settings struct {
	logger logger.Logger
}

// Option configures loading and cleaning.
type Option func(*settings)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{logger: logger.Get().Named("dataset")}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
