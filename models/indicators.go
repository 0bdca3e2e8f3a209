package models

// OperationalIndicators are derived from a snapshot's total on a given day.
type OperationalIndicators struct {
	// OperationYears is elapsed years since the first contribution (2 d.p.).
	OperationYears float64 `json:"operation_years"`

	// ActualYieldRate is gains / contributions / years (3 d.p.).
	ActualYieldRate float64 `json:"actual_yield_rate"`

	// ExpectedYieldRate is the fixed target rate.
	ExpectedYieldRate float64 `json:"expected_yield_rate"`

	// TotalAmountAt60Age is the projected payout at retirement, whole yen.
	TotalAmountAt60Age int64 `json:"total_amount_at_60age"`
}

// NotificationMessage is a channel-neutral message with an optional image.
type NotificationMessage struct {
	Text     string `json:"text"`
	ImageURL string `json:"image_url,omitempty"`
}
