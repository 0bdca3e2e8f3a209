package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// AssetEntry is one valuation line in whole yen.
type AssetEntry struct {
	// CumulativeContributions is the total amount paid in to date
	// (for a product: its cumulative acquisition cost).
	CumulativeContributions int64 `json:"cumulative_contributions"`

	// GainsOrLosses is the signed unrealised gain or loss.
	GainsOrLosses int64 `json:"gains_or_losses"`

	// AssetValuation is the current market value.
	AssetValuation int64 `json:"asset_valuation"`
}

// Product is a named AssetEntry as listed on the valuation page.
type Product struct {
	Name  string
	Entry AssetEntry
}

// AssetSnapshot is the structured result of one successful scrape.
//
// Products keeps page order. It serialises as a JSON object keyed by product
// name, in that same order.
type AssetSnapshot struct {
	Total    AssetEntry `json:"total"`
	Products Products   `json:"products"`
}

// Product returns the entry for name, if present.
func (s *AssetSnapshot) Product(name string) (AssetEntry, bool) {
	for _, p := range s.Products {
		if p.Name == name {
			return p.Entry, true
		}
	}
	return AssetEntry{}, false
}

// Products is an ordered product-name → entry mapping.
type Products []Product

// MarshalJSON writes the products as an object, preserving order.
func (ps Products) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range ps {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		entry, err := json.Marshal(p.Entry)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(entry)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a products object, keeping the document's key order.
func (ps *Products) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*ps = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("products: expected object, got %v", tok)
	}

	out := Products{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("products: expected string key, got %v", keyTok)
		}
		var entry AssetEntry
		if err := dec.Decode(&entry); err != nil {
			return fmt.Errorf("products: %q: %w", name, err)
		}
		out = append(out, Product{Name: name, Entry: entry})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*ps = out
	return nil
}

// AssetRecord is one flattened per-product row of a daily snapshot.
type AssetRecord struct {
	Date                    time.Time
	Product                 string
	AssetValuation          int64
	CumulativeContributions int64
	GainsOrLosses           int64
}

// RecordsFromSnapshot flattens the snapshot's products into dated rows.
func RecordsFromSnapshot(date time.Time, s *AssetSnapshot) []AssetRecord {
	records := make([]AssetRecord, 0, len(s.Products))
	for _, p := range s.Products {
		records = append(records, AssetRecord{
			Date:                    date,
			Product:                 p.Name,
			AssetValuation:          p.Entry.AssetValuation,
			CumulativeContributions: p.Entry.CumulativeContributions,
			GainsOrLosses:           p.Entry.GainsOrLosses,
		})
	}
	return records
}

// DailyValuation is the summed valuation of one date with its change from the
// previous recorded date. Diff is nil for the oldest entry in a series.
type DailyValuation struct {
	Date      time.Time
	Valuation int64
	Diff      *int64
}
