package repository

import "github.com/okian/tourism/pkg/logger"

// DefaultBatchSize is the number of receipts written per transaction.
const DefaultBatchSize = 2000

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithBatchSize sets the number of receipts written per transaction.
func WithBatchSize(n int) Option {
	return func(s *SQLiteStore) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(log logger.Logger) Option {
	return func(s *SQLiteStore) {
		if log != nil {
			s.logger = log
		}
	}
}
