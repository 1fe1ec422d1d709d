package currency

import "context"

// RecordStore holds one record per currency pair label.
type RecordStore interface {
	Find(ctx context.Context, pair string) ([]RecordWithID, error)
	Update(ctx context.Context, id string, record Record) error
	Create(ctx context.Context, record Record) (RecordWithID, error)
	GetStorageProviderName() string
	Close() error
}
