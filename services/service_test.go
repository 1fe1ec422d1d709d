package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	currency "github.com/malusev998/rate-sync"
	"github.com/malusev998/rate-sync/fetchers"
	"github.com/malusev998/rate-sync/metrics"
)

// scenarioRates has GBP at zero and JPY missing.
var scenarioRates = currency.Rates{
	"CNY": 1,
	"USD": 7.10,
	"EUR": 7.70,
	"GBP": 0,
	"HKD": 0.91,
	"CAD": 5.20,
	"AUD": 4.70,
}

func TestService_Run(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("SkipsMissingAndZeroRates", func(t *testing.T) {
		assert := require.New(t)
		fetcher := &MockFetcher{}
		reconciler := &MockReconciler{}
		registry := prometheus.NewRegistry()
		m := metrics.NewRunMetrics(registry)

		fetcher.On("Fetch", ctx, "CNY").Return(scenarioRates, nil)
		reconciler.On("Upsert", ctx, "USD/CNY", "USD", 0.1408, true).Return(currency.UpsertResult{Success: true, Action: currency.ActionUpdated})
		reconciler.On("Upsert", ctx, "EUR/CNY", "EUR", 0.1299, true).Return(currency.UpsertResult{Success: true, Action: currency.ActionUpdated})
		reconciler.On("Upsert", ctx, "HKD/CNY", "HKD", 1.0989, true).Return(currency.UpsertResult{Success: true, Action: currency.ActionCreated})
		reconciler.On("Upsert", ctx, "CAD/CNY", "CAD", 0.1923, true).Return(currency.UpsertResult{Action: currency.ActionUpdated, Message: "update failed"})
		reconciler.On("Upsert", ctx, "AUD/CNY", "AUD", 0.2128, true).Return(currency.UpsertResult{Success: true, Action: currency.ActionUpdated})

		service := Service{Fetcher: fetcher, Reconciler: reconciler, Logger: discardLogger(), Metrics: m}
		summary, err := service.Run(ctx)

		assert.Nil(err)
		reconciler.AssertExpectations(t)
		reconciler.AssertNumberOfCalls(t, "Upsert", 5)
		reconciler.AssertNotCalled(t, "Upsert", mock.Anything, "GBP/CNY", mock.Anything, mock.Anything, mock.Anything)
		reconciler.AssertNotCalled(t, "Upsert", mock.Anything, "JPY/CNY", mock.Anything, mock.Anything, mock.Anything)

		assert.Equal(7, summary.Total)
		assert.Equal(4, summary.Succeeded)
		assert.Equal(3, summary.Failed())
		assert.Equal(57.1, summary.SuccessRate())
		assert.Equal(currency.PartialSuccess, summary.Classification())
		assert.False(summary.FinishedAt.Before(summary.StartedAt))

		outcomes := make([]currency.PairOutcome, 0, len(summary.Pairs))
		for _, p := range summary.Pairs {
			outcomes = append(outcomes, p.Outcome)
		}

		assert.Equal([]currency.PairOutcome{
			currency.OutcomeSucceeded,
			currency.OutcomeSucceeded,
			currency.OutcomeZeroRate,
			currency.OutcomeMissing,
			currency.OutcomeSucceeded,
			currency.OutcomeStoreFailed,
			currency.OutcomeSucceeded,
		}, outcomes)
		assert.Equal("update failed", summary.Pairs[5].Reason)

		assert.Equal(1.0, testutil.ToFloat64(m.PairsTotal.WithLabelValues("JPY/CNY", "missing")))
		assert.Equal(1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("partial success")))
		assert.Equal(0.2128, testutil.ToFloat64(m.InverseRate.WithLabelValues("AUD/CNY")))
	})

	t.Run("AllSucceeded", func(t *testing.T) {
		assert := require.New(t)
		fetcher := &MockFetcher{}
		reconciler := &MockReconciler{}

		fetcher.On("Fetch", ctx, "CNY").Return(currency.Rates{"USD": 7.1234}, nil)
		reconciler.On("Upsert", ctx, "USD/CNY", "USD", 0.1404, true).Return(currency.UpsertResult{Success: true})

		service := Service{
			Fetcher:    fetcher,
			Reconciler: reconciler,
			Pairs:      []currency.Pair{{Currency: "USD", Label: "USD/CNY"}},
			Logger:     discardLogger(),
		}
		summary, err := service.Run(ctx)

		assert.Nil(err)
		assert.Equal(1, summary.Total)
		assert.Equal(100.0, summary.SuccessRate())
		assert.Equal(currency.AllSucceeded, summary.Classification())
		assert.Equal(0.1404, summary.Pairs[0].Rate)
	})

	t.Run("RatesUnavailable", func(t *testing.T) {
		assert := require.New(t)
		fetcher := &MockFetcher{}
		reconciler := &MockReconciler{}

		fetcher.On("Fetch", ctx, "CNY").Return(nil, fetchers.ErrServer)

		service := Service{Fetcher: fetcher, Reconciler: reconciler, Logger: discardLogger()}
		summary, err := service.Run(ctx)

		assert.True(errors.Is(err, ErrRatesUnavailable))
		assert.True(errors.Is(err, fetchers.ErrServer))
		assert.Equal(currency.Summary{}, summary)
		reconciler.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ArithmeticFailure", func(t *testing.T) {
		assert := require.New(t)
		fetcher := &MockFetcher{}
		reconciler := &MockReconciler{}

		fetcher.On("Fetch", ctx, "USD").Return(currency.Rates{"EUR": 5e-324}, nil)

		service := Service{
			Fetcher:    fetcher,
			Reconciler: reconciler,
			Pairs:      []currency.Pair{{Currency: "EUR", Label: "EUR/USD"}},
			Base:       "USD",
			Logger:     discardLogger(),
		}
		summary, err := service.Run(ctx)

		assert.Nil(err)
		assert.Equal(0, summary.Succeeded)
		assert.Equal(currency.TotalFailure, summary.Classification())
		assert.Equal(currency.OutcomeArithmetic, summary.Pairs[0].Outcome)
		reconciler.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
	t.Run("NonNumericRates", func(t *testing.T) {
		assert := require.New(t)
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			_, _ = writer.Write([]byte(`{"base":"CNY","rates":{"USD":"7.1","EUR":7.7,"GBP":9.1,"JPY":0.048,"HKD":0.91,"CAD":5.2,"AUD":4.7,"XDR":"n/a"}}`))
		}))
		defer server.Close()

		reconciler := &MockReconciler{}
		reconciler.On("Upsert", ctx, mock.Anything, mock.Anything, mock.Anything, true).Return(currency.UpsertResult{Success: true})

		service := Service{
			Fetcher:    fetchers.ExchangeRateAPIFetcher{URL: server.URL, Logger: discardLogger()},
			Reconciler: reconciler,
			Logger:     discardLogger(),
		}
		summary, err := service.Run(ctx)

		assert.Nil(err)
		assert.Equal(6, summary.Succeeded)
		assert.Equal(currency.OutcomeArithmetic, summary.Pairs[0].Outcome)
		assert.Equal(ErrRateNotFinite.Error(), summary.Pairs[0].Reason)

		for _, p := range summary.Pairs[1:] {
			assert.Equal(currency.OutcomeSucceeded, p.Outcome, p.Label)
		}

		reconciler.AssertNumberOfCalls(t, "Upsert", 6)
		reconciler.AssertNotCalled(t, "Upsert", mock.Anything, "USD/CNY", mock.Anything, mock.Anything, mock.Anything)
	})
}
