package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	currency "github.com/malusev998/rate-sync"
	"github.com/malusev998/rate-sync/metrics"
)

var ErrRatesUnavailable = errors.New("exchange rates are unavailable")

// Service runs one synchronisation: fetch rates once, then reconcile every
// pair in order. Only a failed fetch aborts the run.
type Service struct {
	Fetcher    currency.Fetcher
	Reconciler currency.Reconciler
	Pairs      []currency.Pair
	Base       string
	Logger     *slog.Logger
	Metrics    *metrics.RunMetrics
}

func (s Service) Run(ctx context.Context) (currency.Summary, error) {
	logger := s.logger()
	base := s.Base

	if base == "" {
		base = currency.BaseCurrency
	}

	pairs := s.Pairs

	if pairs == nil {
		pairs = currency.DefaultPairs
	}

	startedAt := time.Now()
	logger.Info("rate synchronisation started", slog.String("base", base), slog.Int("pairs", len(pairs)))

	rates, err := s.Fetcher.Fetch(ctx, base)

	if err != nil {
		logger.Error("cannot fetch exchange rates, aborting run", slog.String("error", err.Error()))
		s.Metrics.ObserveUnavailable()

		return currency.Summary{}, fmt.Errorf("%w: %w", ErrRatesUnavailable, err)
	}

	summary := currency.Summary{
		Total:     len(pairs),
		Pairs:     make([]currency.PairResult, 0, len(pairs)),
		StartedAt: startedAt,
	}

	for _, pair := range pairs {
		result := s.processPair(ctx, logger.With(slog.String("pair", pair.Label)), rates, pair)

		if result.Outcome == currency.OutcomeSucceeded {
			summary.Succeeded++
		}

		summary.Pairs = append(summary.Pairs, result)
		s.Metrics.ObservePair(result)
	}

	summary.FinishedAt = time.Now()
	s.Metrics.ObserveRun(summary)

	logger.Info(
		"rate synchronisation finished",
		slog.Int("total", summary.Total),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed()),
		slog.Float64("success_rate", summary.SuccessRate()),
		slog.String("classification", string(summary.Classification())),
	)

	return summary, nil
}

func (s Service) processPair(ctx context.Context, logger *slog.Logger, rates currency.Rates, pair currency.Pair) currency.PairResult {
	result := currency.PairResult{Pair: pair}
	rate, ok := rates[pair.Currency]

	if !ok {
		logger.Warn("rate API did not return this currency")
		result.Outcome = currency.OutcomeMissing
		result.Reason = "currency missing from rates"

		return result
	}

	inverse, err := Invert(rate)

	if errors.Is(err, ErrZeroRate) {
		logger.Warn("rate API returned a zero rate")
		result.Outcome = currency.OutcomeZeroRate
		result.Reason = "rate is zero"

		return result
	}

	if err != nil {
		logger.Error("cannot compute inverse rate", slog.Float64("rate", rate), slog.String("error", err.Error()))
		result.Outcome = currency.OutcomeArithmetic
		result.Reason = err.Error()

		return result
	}

	result.Rate = inverse
	upsert := s.Reconciler.Upsert(ctx, pair.Label, pair.Currency, inverse, true)

	if !upsert.Success {
		logger.Error("record update failed", slog.String("reason", upsert.Message))
		result.Outcome = currency.OutcomeStoreFailed
		result.Reason = upsert.Message

		return result
	}

	logger.Info("pair updated", slog.Float64("rate", inverse), slog.String("action", string(upsert.Action)))
	result.Outcome = currency.OutcomeSucceeded

	return result
}

func (s Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}

	return s.Logger
}
