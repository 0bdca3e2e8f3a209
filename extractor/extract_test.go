package extractor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kamaD-y/dcp-ops-monitor/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err, "read fixture %s", name)
	return string(b)
}

func TestExtract_ValidPage(t *testing.T) {
	snap, err := Extract(readFixture(t, "valid_assets_page.html"))
	require.NoError(t, err)

	assert.Equal(t, models.AssetEntry{
		CumulativeContributions: 900_000,
		GainsOrLosses:           300_000,
		AssetValuation:          1_200_000,
	}, snap.Total)

	require.Len(t, snap.Products, 3)
	assert.Equal(t, []string{"プロダクト_1", "プロダクト_2", "プロダクト_3"}, productNames(snap))

	p1, ok := snap.Product("プロダクト_1")
	require.True(t, ok)
	assert.Equal(t, models.AssetEntry{
		CumulativeContributions: 100_000,
		GainsOrLosses:           11_111,
		AssetValuation:          111_111,
	}, p1)

	p3, ok := snap.Product("プロダクト_3")
	require.True(t, ok)
	assert.Equal(t, int64(300_000), p3.CumulativeContributions)
	assert.Equal(t, int64(33_333), p3.GainsOrLosses)
	assert.Equal(t, int64(333_333), p3.AssetValuation)
}

func TestExtract_FullWidthAmounts(t *testing.T) {
	snap, err := Extract(readFixture(t, "fullwidth_page.html"))
	require.NoError(t, err)

	assert.Equal(t, int64(-300_000), snap.Total.GainsOrLosses)
	p1, ok := snap.Product("プロダクト_1")
	require.True(t, ok)
	assert.Equal(t, models.AssetEntry{
		CumulativeContributions: 100_000,
		GainsOrLosses:           -11_111,
		AssetValuation:          111_111,
	}, p1)
}

func TestExtract_StructuralFailures(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		wantMsg string
	}{
		{"missing total", readFixture(t, "missing_total_page.html"), ".total"},
		{"short rows", readFixture(t, "short_rows_page.html"), "table rows"},
		{"empty document", "", ".total"},
		{
			name:    "too few total values",
			html:    `<div class="total"><dl><dd>1円</dd><dd>2円</dd></dl></div><div id="prodInfo"></div>`,
			wantMsg: "dd values",
		},
		{
			name:    "missing products container",
			html:    `<div class="total"><dl><dd>1円</dd><dd>2円</dd><dd>3円</dd></dl></div>`,
			wantMsg: "#prodInfo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := Extract(tt.html)
			require.Error(t, err)
			assert.Nil(t, snap, "no partial snapshot on failure")

			var extErr *models.ExtractionError
			require.True(t, errors.As(err, &extErr), "want ExtractionError, got %T", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestExtract_UnparseableAmount(t *testing.T) {
	page := strings.Replace(readFixture(t, "valid_assets_page.html"), "1,200,000円", "1,200,000.5円", 1)

	_, err := Extract(page)
	require.Error(t, err)

	var parseErr *models.ParseAmountError
	assert.True(t, errors.As(err, &parseErr), "parse error should be wrapped, got %v", err)
}

func TestExtract_DuplicateProductName(t *testing.T) {
	page := strings.Replace(readFixture(t, "valid_assets_page.html"), "プロダクト_2", "プロダクト_1", 1)

	_, err := Extract(page)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestExtract_NoProductBlocks(t *testing.T) {
	page := `<div class="total"><dl><dd>1円</dd><dd>-2円</dd><dd>3円</dd></dl></div><div id="prodInfo"></div>`

	snap, err := Extract(page)
	require.NoError(t, err)
	assert.Empty(t, snap.Products)
	assert.Equal(t, int64(-2), snap.Total.GainsOrLosses)
}

func productNames(s *models.AssetSnapshot) []string {
	names := make([]string, 0, len(s.Products))
	for _, p := range s.Products {
		names = append(names, p.Name)
	}
	return names
}
