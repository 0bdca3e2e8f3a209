package commands

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/kamaD-y/dcp-ops-monitor/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Japanese)

func yen(n int64) string {
	return printer.Sprintf("%d円", n)
}

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(header)
	t.SetStyle(table.StyleRounded)
	return t
}

func renderSnapshot(w io.Writer, snap *models.AssetSnapshot) {
	t := newTable(w, table.Row{"商品", "拠出金額累計", "評価損益", "資産評価額"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	for _, p := range snap.Products {
		t.AppendRow(entryRow(p.Name, p.Entry))
	}
	t.AppendFooter(entryRow("合計", snap.Total))
	t.Render()
}

func entryRow(name string, e models.AssetEntry) table.Row {
	return table.Row{name, yen(e.CumulativeContributions), yen(e.GainsOrLosses), yen(e.AssetValuation)}
}

func renderIndicators(w io.Writer, ind models.OperationalIndicators) {
	t := newTable(w, table.Row{"指標", "値"})
	t.AppendRows([]table.Row{
		{"運用年数", strconv.FormatFloat(ind.OperationYears, 'f', -1, 64) + "年"},
		{"運用利回り", strconv.FormatFloat(ind.ActualYieldRate, 'f', -1, 64)},
		{"想定利回り", strconv.FormatFloat(ind.ExpectedYieldRate, 'f', -1, 64)},
		{"想定受取額(60歳)", yen(ind.TotalAmountAt60Age)},
	})
	t.Render()
}

func signedYen(n int64) string {
	if n >= 0 {
		return "+" + yen(n)
	}
	return yen(n)
}
