package services

import (
	"errors"
	"math"
	"strconv"
)

const InversePrecision = 4

var (
	ErrZeroRate      = errors.New("rate is zero")
	ErrRateNotFinite = errors.New("rate inverse is not a finite number")
)

// Invert converts "1 base = rate foreign" into "1 foreign = x base",
// rounded to InversePrecision decimal places. Rounding works on the exact
// binary value of the quotient, ties go to even.
func Invert(rate float64) (float64, error) {
	if rate == 0 {
		return 0, ErrZeroRate
	}

	inverse := 1 / rate

	if math.IsNaN(inverse) || math.IsInf(inverse, 0) {
		return 0, ErrRateNotFinite
	}

	return strconv.ParseFloat(strconv.FormatFloat(inverse, 'f', InversePrecision, 64), 64)
}
