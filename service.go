package currency

import "context"

type (
	Service interface {
		Run(ctx context.Context) (Summary, error)
	}

	Reconciler interface {
		Upsert(ctx context.Context, pair, currencyCode string, rate float64, success bool) UpsertResult
	}
)
