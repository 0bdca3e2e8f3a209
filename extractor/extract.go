package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/kamaD-y/dcp-ops-monitor/models"
	"golang.org/x/net/html"
)

// Anchors of the valuation page layout.
var (
	totalSel        = cascadia.MustCompile(".total")
	ddSel           = cascadia.MustCompile("dd")
	productInfoSel  = cascadia.MustCompile("#prodInfo")
	productBlockSel = cascadia.MustCompile(".infoDetailUnit_02.pc_mb30")
	tbodySel        = cascadia.MustCompile("tbody")
	trSel           = cascadia.MustCompile("tr")
	tdSel           = cascadia.MustCompile("td")
	productNameSel  = cascadia.MustCompile(".infoHdWrap00")
)

// Row and cell positions inside a product table body.
const (
	acquisitionRow    = 2 // last cell: cumulative acquisition cost
	valuationCell     = 2 // cell in acquisitionRow: asset valuation
	gainsRow          = 5 // last cell: gains or losses
	minRowsPerProduct = gainsRow + 1
	minTotalValues    = 3
)

// Extract parses the rendered valuation page into a snapshot.
//
// The total is read from the dedicated ".total" region, not summed from
// products. Any missing anchor or short table fails the whole extraction.
func Extract(pageContent string) (*models.AssetSnapshot, error) {
	root, err := html.Parse(strings.NewReader(pageContent))
	if err != nil {
		return nil, &models.ExtractionError{Reason: "parse html", Err: err}
	}
	doc := goquery.NewDocumentFromNode(root)

	total, err := extractTotal(doc.Selection)
	if err != nil {
		return nil, err
	}
	products, err := extractProducts(doc.Selection)
	if err != nil {
		return nil, err
	}

	return &models.AssetSnapshot{Total: total, Products: products}, nil
}

func extractTotal(doc *goquery.Selection) (models.AssetEntry, error) {
	region := doc.FindMatcher(totalSel).First()
	if region.Length() == 0 {
		return models.AssetEntry{}, &models.ExtractionError{Reason: "total region (.total) not found"}
	}

	values := region.FindMatcher(ddSel)
	if values.Length() < minTotalValues {
		return models.AssetEntry{}, &models.ExtractionError{
			Reason: fmt.Sprintf("total region has %d dd values, want %d", values.Length(), minTotalValues),
		}
	}

	entry, err := parseEntry(
		values.Eq(0).Text(),
		values.Eq(1).Text(),
		values.Eq(2).Text(),
	)
	if err != nil {
		return models.AssetEntry{}, &models.ExtractionError{Reason: "total", Err: err}
	}
	return entry, nil
}

func extractProducts(doc *goquery.Selection) (models.Products, error) {
	container := doc.FindMatcher(productInfoSel).First()
	if container.Length() == 0 {
		return nil, &models.ExtractionError{Reason: "products container (#prodInfo) not found"}
	}

	products := models.Products{}
	seen := make(map[string]struct{})

	var firstErr error
	container.FindMatcher(productBlockSel).EachWithBreak(func(i int, block *goquery.Selection) bool {
		p, err := extractProduct(i, block)
		if err != nil {
			firstErr = err
			return false
		}
		if _, dup := seen[p.Name]; dup {
			firstErr = &models.ExtractionError{Reason: fmt.Sprintf("product %d: duplicate name %q", i, p.Name)}
			return false
		}
		seen[p.Name] = struct{}{}
		products = append(products, p)
		return true
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return products, nil
}

func extractProduct(i int, block *goquery.Selection) (models.Product, error) {
	nameEl := block.FindMatcher(productNameSel).First()
	if nameEl.Length() == 0 {
		return models.Product{}, &models.ExtractionError{Reason: fmt.Sprintf("product %d: name (.infoHdWrap00) not found", i)}
	}
	name := strings.TrimSpace(nameEl.Text())
	if name == "" {
		return models.Product{}, &models.ExtractionError{Reason: fmt.Sprintf("product %d: empty name", i)}
	}

	body := block.FindMatcher(tbodySel).First()
	if body.Length() == 0 {
		return models.Product{}, &models.ExtractionError{Reason: fmt.Sprintf("product %q: table body not found", name)}
	}

	rows := body.FindMatcher(trSel)
	if rows.Length() < minRowsPerProduct {
		return models.Product{}, &models.ExtractionError{
			Reason: fmt.Sprintf("product %q: %d table rows, want at least %d", name, rows.Length(), minRowsPerProduct),
		}
	}

	acqCells := rows.Eq(acquisitionRow).FindMatcher(tdSel)
	if acqCells.Length() <= valuationCell {
		return models.Product{}, &models.ExtractionError{
			Reason: fmt.Sprintf("product %q: row %d has %d cells, want at least %d", name, acquisitionRow, acqCells.Length(), valuationCell+1),
		}
	}
	gainCells := rows.Eq(gainsRow).FindMatcher(tdSel)
	if gainCells.Length() == 0 {
		return models.Product{}, &models.ExtractionError{
			Reason: fmt.Sprintf("product %q: row %d has no cells", name, gainsRow),
		}
	}

	entry, err := parseEntry(
		acqCells.Last().Text(),
		gainCells.Last().Text(),
		acqCells.Eq(valuationCell).Text(),
	)
	if err != nil {
		return models.Product{}, &models.ExtractionError{Reason: fmt.Sprintf("product %q", name), Err: err}
	}
	return models.Product{Name: name, Entry: entry}, nil
}
