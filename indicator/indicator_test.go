package indicator

import (
	"errors"
	"testing"
	"time"

	"github.com/kamaD-y/dcp-ops-monitor/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleTotal = models.AssetEntry{
	CumulativeContributions: 900_000,
	GainsOrLosses:           300_000,
	AssetValuation:          1_200_000,
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculate(t *testing.T) {
	got, err := Calculate(sampleTotal, date(2026, time.October, 1))
	require.NoError(t, err)

	// 3652 days / 365 = 10.0054... -> 10.01
	assert.Equal(t, 10.01, got.OperationYears)
	// 300000 / 900000 / 10.01 = 0.03330... -> 0.033
	assert.Equal(t, 0.033, got.ActualYieldRate)
	assert.Equal(t, ExpectedYieldRate, got.ExpectedYieldRate)
	// 240000 * ((1.033^20.01 - 1) / 0.033) + 1200000
	assert.InDelta(t, 7_853_860, got.TotalAmountAt60Age, 1)
}

func TestCalculate_Deterministic(t *testing.T) {
	today := time.Date(2026, time.October, 19, 21, 30, 0, 0, time.FixedZone("JST", 9*60*60))

	first, err := Calculate(sampleTotal, today)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Calculate(sampleTotal, today)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCalculate_IgnoresClock(t *testing.T) {
	morning, err := Calculate(sampleTotal, time.Date(2026, time.October, 1, 0, 1, 0, 0, time.UTC))
	require.NoError(t, err)
	night, err := Calculate(sampleTotal, time.Date(2026, time.October, 1, 23, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, morning, night)
}

func TestCalculate_DivisionByZero(t *testing.T) {
	tests := []struct {
		name  string
		total models.AssetEntry
		today time.Time
		op    string
	}{
		{
			name:  "zero contributions",
			total: models.AssetEntry{CumulativeContributions: 0, GainsOrLosses: 10, AssetValuation: 10},
			today: date(2026, time.October, 1),
			op:    "actual_yield_rate",
		},
		{
			name:  "zero operation years",
			total: sampleTotal,
			today: OperationStartDate,
			op:    "actual_yield_rate",
		},
		{
			name:  "zero yield rate",
			total: models.AssetEntry{CumulativeContributions: 900_000, GainsOrLosses: 0, AssetValuation: 900_000},
			today: date(2026, time.October, 1),
			op:    "total_amount_at_60age",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(tt.total, tt.today)
			require.Error(t, err)
			assert.Equal(t, models.OperationalIndicators{}, got)

			var calcErr *models.CalculationError
			require.True(t, errors.As(err, &calcErr))
			assert.Equal(t, tt.op, calcErr.Op)
			assert.ErrorIs(t, err, models.ErrDivisionByZero)
		})
	}
}

func TestCalculate_PayoutOverflow(t *testing.T) {
	// yield 10.0 compounds 240,000/yr far past int64 by 2046.
	total := models.AssetEntry{CumulativeContributions: 100, GainsOrLosses: 10_010, AssetValuation: 10_110}

	got, err := Calculate(total, date(2026, time.October, 1))

	var calcErr *models.CalculationError
	require.True(t, errors.As(err, &calcErr))
	assert.Equal(t, "total_amount_at_60age", calcErr.Op)
	assert.ErrorIs(t, err, models.ErrOverflow)
	assert.Equal(t, models.OperationalIndicators{}, got)
}

func TestYearDiff(t *testing.T) {
	tests := []struct {
		start, end time.Time
		want       string
	}{
		{date(2016, time.October, 1), date(2017, time.October, 1), "1"},
		{date(2016, time.October, 1), date(2026, time.October, 1), "10.01"},
		{date(2026, time.October, 1), date(2046, time.October, 1), "20.01"},
		{date(2026, time.October, 1), date(2026, time.October, 1), "0"},
	}
	for _, tt := range tests {
		got := YearDiff(tt.start, tt.end)
		assert.Equal(t, tt.want, got.String(), "YearDiff(%s, %s)", tt.start.Format(time.DateOnly), tt.end.Format(time.DateOnly))
	}
}

func TestYieldRate_RoundsHalfAwayFromZero(t *testing.T) {
	one := decimal.NewFromInt(1)

	up, err := YieldRate(10_000, 25, one)
	require.NoError(t, err)
	assert.Equal(t, "0.003", up.String())

	down, err := YieldRate(10_000, -25, one)
	require.NoError(t, err)
	assert.Equal(t, "-0.003", down.String())
}
