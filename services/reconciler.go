package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	currency "github.com/malusev998/rate-sync"
)

// Reconciler keeps exactly one record per pair label in a RecordStore:
// the first match is updated, a new record is created when none exists.
type Reconciler struct {
	Storage currency.RecordStore
	Logger  *slog.Logger
}

func NewReconciler(storage currency.RecordStore, logger *slog.Logger) Reconciler {
	return Reconciler{Storage: storage, Logger: logger}
}

func (r Reconciler) Upsert(ctx context.Context, pair, currencyCode string, rate float64, success bool) (result currency.UpsertResult) {
	logger := r.logger().With(slog.String("pair", pair))

	defer func() {
		if p := recover(); p != nil {
			logger.Error("upsert panicked", slog.Any("panic", p))
			result = currency.UpsertResult{Message: fmt.Sprintf("upsert panicked: %v", p)}
		}
	}()

	logger.Info("processing pair", slog.Float64("rate", rate))

	matches, err := r.Storage.Find(ctx, pair)

	if err != nil {
		logger.Error("record lookup failed", slog.String("error", err.Error()))
		return currency.UpsertResult{Message: fmt.Sprintf("lookup failed: %v", err)}
	}

	logger.Info("existing records found", slog.Int("count", len(matches)))

	// NaN cannot be encoded as a JSON number.
	if math.IsNaN(rate) {
		rate = 0
	}

	record := currency.Record{
		Pair:     pair,
		Currency: currencyCode,
		Rate:     rate,
		Source:   currency.SourceAutoAPI,
		Status:   currency.StatusFromSuccess(success),
	}

	if len(matches) > 0 {
		if err := r.Storage.Update(ctx, matches[0].ID, record); err != nil {
			logger.Error("record update failed", slog.String("id", matches[0].ID), slog.String("error", err.Error()))
			return currency.UpsertResult{Action: currency.ActionUpdated, Message: fmt.Sprintf("update failed: %v", err)}
		}

		return currency.UpsertResult{Success: true, Action: currency.ActionUpdated}
	}

	created, err := r.Storage.Create(ctx, record)

	if err != nil {
		logger.Error("record create failed", slog.String("error", err.Error()))
		return currency.UpsertResult{Action: currency.ActionCreated, Message: fmt.Sprintf("create failed: %v", err)}
	}

	logger.Info("record created", slog.String("id", created.ID))

	return currency.UpsertResult{Success: true, Action: currency.ActionCreated}
}

func (r Reconciler) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}

	return r.Logger
}
