package services

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	currency "github.com/malusev998/rate-sync"
)

type (
	MockFetcher struct {
		mock.Mock
	}

	MockStorage struct {
		mock.Mock
	}

	MockReconciler struct {
		mock.Mock
	}
)

func (m *MockFetcher) Fetch(ctx context.Context, base string) (currency.Rates, error) {
	args := m.Called(ctx, base)
	return1 := args.Get(0)

	if return1 == nil {
		return nil, args.Error(1)
	}

	return return1.(currency.Rates), args.Error(1)
}

func (m *MockStorage) Find(ctx context.Context, pair string) ([]currency.RecordWithID, error) {
	args := m.Called(ctx, pair)
	return1 := args.Get(0)

	if return1 == nil {
		return nil, args.Error(1)
	}

	return return1.([]currency.RecordWithID), args.Error(1)
}

func (m *MockStorage) Update(ctx context.Context, id string, record currency.Record) error {
	return m.Called(ctx, id, record).Error(0)
}

func (m *MockStorage) Create(ctx context.Context, record currency.Record) (currency.RecordWithID, error) {
	args := m.Called(ctx, record)

	return args.Get(0).(currency.RecordWithID), args.Error(1)
}

func (m *MockStorage) GetStorageProviderName() string {
	return "MockStorage"
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockReconciler) Upsert(ctx context.Context, pair, currencyCode string, rate float64, success bool) currency.UpsertResult {
	return m.Called(ctx, pair, currencyCode, rate, success).Get(0).(currency.UpsertResult)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
