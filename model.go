package currency

import (
	"time"

	"github.com/shopspring/decimal"
)

const SourceAutoAPI = "auto-api"

const (
	StatusNormal       Status = "normal"
	StatusUpdateFailed Status = "update failed"
)

const (
	ActionNone    Action = ""
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

const (
	OutcomeSucceeded   PairOutcome = "succeeded"
	OutcomeMissing     PairOutcome = "missing"
	OutcomeZeroRate    PairOutcome = "zero-rate"
	OutcomeArithmetic  PairOutcome = "arithmetic"
	OutcomeStoreFailed PairOutcome = "store-failed"
)

const (
	AllSucceeded   Classification = "all succeeded"
	PartialSuccess Classification = "partial success"
	TotalFailure   Classification = "total failure"
)

type (
	Status         string
	Action         string
	PairOutcome    string
	Classification string

	// Pair binds a currency code to the label of its record.
	Pair struct {
		Currency string
		Label    string
	}

	Record struct {
		Pair     string
		Currency string
		Rate     float64
		Source   string
		Status   Status
	}

	RecordWithID struct {
		Record
		ID string
	}

	UpsertResult struct {
		Success bool
		Action  Action
		Message string
	}

	PairResult struct {
		Pair
		Rate    float64
		Outcome PairOutcome
		Reason  string
	}

	Summary struct {
		Total      int
		Succeeded  int
		Pairs      []PairResult
		StartedAt  time.Time
		FinishedAt time.Time
	}
)

// DefaultPairs is processed in declaration order on every run.
var DefaultPairs = []Pair{
	{Currency: "USD", Label: "USD/CNY"},
	{Currency: "EUR", Label: "EUR/CNY"},
	{Currency: "GBP", Label: "GBP/CNY"},
	{Currency: "JPY", Label: "JPY/CNY"},
	{Currency: "HKD", Label: "HKD/CNY"},
	{Currency: "CAD", Label: "CAD/CNY"},
	{Currency: "AUD", Label: "AUD/CNY"},
}

func StatusFromSuccess(success bool) Status {
	if success {
		return StatusNormal
	}

	return StatusUpdateFailed
}

func (s Summary) Failed() int {
	return s.Total - s.Succeeded
}

// SuccessRate is the percentage of succeeded pairs rounded half to even
// to one decimal place.
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}

	rate, _ := decimal.NewFromInt(int64(s.Succeeded)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(s.Total))).
		RoundBank(1).
		Float64()

	return rate
}

func (s Summary) Classification() Classification {
	switch {
	case s.Total > 0 && s.Succeeded == s.Total:
		return AllSucceeded
	case s.Succeeded > 0:
		return PartialSuccess
	default:
		return TotalFailure
	}
}
