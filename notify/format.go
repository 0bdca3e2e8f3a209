// Package notify formats run results and delivers them over the LINE
// Messaging API.
package notify

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kamaD-y/dcp-ops-monitor/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const summaryHeader = "確定拠出年金 運用状況通知Bot"

var printer = message.NewPrinter(language.Japanese)

// FormatSummary renders the daily summary. history is newest first and may
// be empty, in which case the trend section is omitted.
func FormatSummary(snap *models.AssetSnapshot, ind models.OperationalIndicators, history []models.DailyValuation) string {
	var b strings.Builder

	b.WriteString(summaryHeader + "\n\n")

	b.WriteString("拠出金額累計: " + yen(snap.Total.CumulativeContributions) + "\n")
	b.WriteString("評価損益: " + yen(snap.Total.GainsOrLosses) + "\n")
	b.WriteString("資産評価額: " + yen(snap.Total.AssetValuation) + "\n\n")

	b.WriteString("運用年数: " + decimalString(ind.OperationYears) + "年\n")
	b.WriteString("運用利回り: " + decimalString(ind.ActualYieldRate) + "\n")
	b.WriteString("想定受取額(60歳): " + yen(ind.TotalAmountAt60Age) + "\n\n")

	if len(snap.Products) > 0 {
		b.WriteString("商品別\n")
		for _, p := range snap.Products {
			b.WriteString("・" + p.Name + "\n")
			b.WriteString("  評価額 " + yen(p.Entry.AssetValuation) + " / 損益 " + signedYen(p.Entry.GainsOrLosses) + "\n")
		}
		b.WriteString("\n")
	}

	if len(history) > 0 {
		b.WriteString(fmt.Sprintf("資産評価額推移（直近%d日）\n", len(history)))
		for _, d := range history {
			diff := " -"
			if d.Diff != nil {
				diff = " " + signedYen(*d.Diff)
			}
			b.WriteString(d.Date.Format(time.DateOnly) + ": " + yen(d.Valuation) + diff + "\n")
		}
	}

	return b.String()
}

// FormatFailure renders a run failure raised at the given time.
func FormatFailure(err error, at time.Time) string {
	var b strings.Builder

	b.WriteString("🚨 エラー通知\n\n")
	b.WriteString("時刻: " + at.Format(time.DateTime) + " (" + at.Format("MST") + ")\n")

	var (
		sf *models.ScrapingFailure
		up *models.ArtifactUploadError
	)
	switch {
	case errors.As(err, &up):
		b.WriteString("メッセージ: 診断ファイルのアップロードに失敗しました\n")
		b.WriteString("ファイル: " + up.Path + "\n")
	case errors.As(err, &sf):
		b.WriteString("ステージ: " + sf.Stage.String() + "\n")
		b.WriteString("メッセージ: " + sf.Stage.Message() + "\n")
		if sf.ScreenshotKey != "" {
			b.WriteString("スクリーンショット: " + sf.ScreenshotKey + "\n")
		}
		if sf.PageSourceKey != "" {
			b.WriteString("HTML: " + sf.PageSourceKey + "\n")
		}
	default:
		detail := models.ToDetail(err)
		b.WriteString("コード: " + detail.Code + "\n")
	}
	b.WriteString("詳細: " + err.Error() + "\n")

	return b.String()
}

func yen(n int64) string {
	return printer.Sprintf("%d円", n)
}

func signedYen(n int64) string {
	if n >= 0 {
		return "+" + yen(n)
	}
	return yen(n)
}

func decimalString(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
