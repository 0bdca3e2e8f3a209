package extractor

import (
	"errors"
	"strconv"
	"strings"

	"github.com/kamaD-y/dcp-ops-monitor/models"
	"golang.org/x/text/width"
)

var errEmptyAmount = errors.New("empty amount")

// minusReplacer folds the minus look-alikes the portal renders into '-'.
// It runs before width folding: U+30FC would otherwise narrow to U+FF70.
var minusReplacer = strings.NewReplacer(
	"−", "-", // U+2212 minus sign
	"－", "-", // U+FF0D fullwidth hyphen-minus
	"ー", "-", // U+30FC katakana prolonged sound mark
	"‐", "-", // U+2010 hyphen
	"‑", "-", // U+2011 non-breaking hyphen
	"–", "-", // U+2013 en dash
)

// decorationReplacer drops grouping separators, currency marks and spaces.
var decorationReplacer = strings.NewReplacer(
	",", "",
	"円", "",
	"¥", "",
	" ", "",
	"\u00a0", "",
)

// ParseYen converts a displayed yen amount such as "1,234,567円" or
// "－１,２３４円" into a whole-yen integer. Fractional or empty amounts
// are rejected.
func ParseYen(s string) (int64, error) {
	cleaned := minusReplacer.Replace(s)
	cleaned = width.Narrow.String(cleaned)
	cleaned = decorationReplacer.Replace(cleaned)
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return 0, &models.ParseAmountError{Input: s, Err: errEmptyAmount}
	}

	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, &models.ParseAmountError{Input: s, Err: err}
	}
	return v, nil
}

// parseEntry builds an AssetEntry from the three displayed strings.
func parseEntry(contributions, gains, valuation string) (models.AssetEntry, error) {
	c, err := ParseYen(contributions)
	if err != nil {
		return models.AssetEntry{}, err
	}
	g, err := ParseYen(gains)
	if err != nil {
		return models.AssetEntry{}, err
	}
	v, err := ParseYen(valuation)
	if err != nil {
		return models.AssetEntry{}, err
	}
	return models.AssetEntry{
		CumulativeContributions: c,
		GainsOrLosses:           g,
		AssetValuation:          v,
	}, nil
}
