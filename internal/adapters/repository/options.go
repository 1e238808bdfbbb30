package repository

import "github.com/okian/talentscope/pkg/logger"

// Option configures an SQLStore.
type Option func(*SQLStore)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *SQLStore) {
		if l != nil {
			s.logger = l
		}
	}
}
