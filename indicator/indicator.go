// Package indicator derives operational indicators from a snapshot total.
//
// Arithmetic runs on exact decimals; every rounding is half away from zero
// (decimal.Decimal.Round) so the figures are reproducible across runs and
// platforms.
package indicator

import (
	"math"
	"time"

	"github.com/kamaD-y/dcp-ops-monitor/models"
	"github.com/shopspring/decimal"
)

// Plan constants.
var (
	OperationStartDate = time.Date(2016, time.October, 1, 0, 0, 0, 0, time.UTC)
	RetirementDate     = time.Date(2046, time.October, 1, 0, 0, 0, 0, time.UTC)
)

const (
	AnnualContribution = 240_000
	ExpectedYieldRate  = 0.06

	yearsPlaces = 2
	yieldPlaces = 3
)

var daysPerYear = decimal.NewFromInt(365)

// Calculate computes the indicators for total as of today. Only today's
// calendar date is used.
func Calculate(total models.AssetEntry, today time.Time) (models.OperationalIndicators, error) {
	operationYears := YearDiff(OperationStartDate, today)

	yield, err := YieldRate(total.CumulativeContributions, total.GainsOrLosses, operationYears)
	if err != nil {
		return models.OperationalIndicators{}, err
	}

	payout, err := AmountAtRetirement(yield, total.AssetValuation, today)
	if err != nil {
		return models.OperationalIndicators{}, err
	}

	return models.OperationalIndicators{
		OperationYears:     operationYears.InexactFloat64(),
		ActualYieldRate:    yield.InexactFloat64(),
		ExpectedYieldRate:  ExpectedYieldRate,
		TotalAmountAt60Age: payout,
	}, nil
}

// YearDiff is the number of 365-day years between the calendar dates of
// start and end, rounded to 2 places.
func YearDiff(start, end time.Time) decimal.Decimal {
	days := civilDate(end).Sub(civilDate(start)).Hours() / 24
	return decimal.NewFromInt(int64(math.Round(days))).Div(daysPerYear).Round(yearsPlaces)
}

// YieldRate is gains / contributions / years, rounded to 3 places.
func YieldRate(contributions, gains int64, years decimal.Decimal) (decimal.Decimal, error) {
	if contributions == 0 || years.IsZero() {
		return decimal.Zero, &models.CalculationError{Op: "actual_yield_rate", Err: models.ErrDivisionByZero}
	}
	return decimal.NewFromInt(gains).
		Div(decimal.NewFromInt(contributions)).
		Div(years).
		Round(yieldPlaces), nil
}

// AmountAtRetirement projects the payout at RetirementDate: the future value
// of AnnualContribution paid yearly at yieldRate, plus the current valuation,
// truncated to whole yen.
func AmountAtRetirement(yieldRate decimal.Decimal, valuation int64, today time.Time) (int64, error) {
	if yieldRate.IsZero() {
		return 0, &models.CalculationError{Op: "total_amount_at_60age", Err: models.ErrDivisionByZero}
	}

	r := yieldRate.InexactFloat64()
	n := YearDiff(today, RetirementDate).InexactFloat64()

	fv := AnnualContribution * ((math.Pow(1+r, n) - 1) / r)
	if math.IsNaN(fv) || math.IsInf(fv, 0) {
		return 0, &models.CalculationError{Op: "total_amount_at_60age", Err: models.ErrNonFinite}
	}
	total := fv + float64(valuation)
	if total >= math.MaxInt64 || total <= math.MinInt64 {
		return 0, &models.CalculationError{Op: "total_amount_at_60age", Err: models.ErrOverflow}
	}
	return int64(fv) + valuation, nil
}

// civilDate drops the clock and zone, keeping the wall-clock date.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
