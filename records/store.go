// Package records keeps one row per product per day in SQLite.
package records

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/kamaD-y/dcp-ops-monitor/models"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

const dateLayout = time.DateOnly

// Store is a SQLite-backed record table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies Schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &models.RecordError{Op: "open", Err: err}
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, &models.RecordError{Op: "migrate", Err: err}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveDailyRecords replaces every row for the dates present in records with
// records, in one transaction. Re-running a day is therefore idempotent.
func (s *Store) SaveDailyRecords(ctx context.Context, records []models.AssetRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &models.RecordError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	dates := make(map[string]struct{})
	for _, r := range records {
		d := r.Date.Format(dateLayout)
		if _, done := dates[d]; done {
			continue
		}
		dates[d] = struct{}{}
		if _, err := tx.ExecContext(ctx, `delete from asset_record where date = ?`, d); err != nil {
			return &models.RecordError{Op: "delete " + d, Err: err}
		}
	}

	for _, r := range records {
		_, err := tx.ExecContext(ctx,
			`insert into asset_record (date, product, asset_valuation, cumulative_contributions, gains_or_losses)
			values (?, ?, ?, ?, ?)`,
			r.Date.Format(dateLayout), r.Product, r.AssetValuation, r.CumulativeContributions, r.GainsOrLosses,
		)
		if err != nil {
			return &models.RecordError{Op: fmt.Sprintf("insert %q", r.Product), Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &models.RecordError{Op: "commit", Err: err}
	}
	return nil
}

// Records returns the rows stored for date, ordered by product name.
func (s *Store) Records(ctx context.Context, date time.Time) ([]models.AssetRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`select product, asset_valuation, cumulative_contributions, gains_or_losses
		from asset_record where date = ? order by product`,
		date.Format(dateLayout),
	)
	if err != nil {
		return nil, &models.RecordError{Op: "query records", Err: err}
	}
	defer rows.Close()

	day := civilDate(date)
	var out []models.AssetRecord
	for rows.Next() {
		r := models.AssetRecord{Date: day}
		if err := rows.Scan(&r.Product, &r.AssetValuation, &r.CumulativeContributions, &r.GainsOrLosses); err != nil {
			return nil, &models.RecordError{Op: "scan records", Err: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.RecordError{Op: "query records", Err: err}
	}
	return out, nil
}

// DailyValuations returns the summed valuation of up to days recorded dates
// on or before until, newest first. Each entry's Diff is the change from the
// next older entry; the oldest has none.
func (s *Store) DailyValuations(ctx context.Context, until time.Time, days int) ([]models.DailyValuation, error) {
	if days <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`select date, sum(asset_valuation) from asset_record
		where date <= ?
		group by date
		order by date desc
		limit ?`,
		until.Format(dateLayout), days,
	)
	if err != nil {
		return nil, &models.RecordError{Op: "query valuations", Err: err}
	}
	defer rows.Close()

	var out []models.DailyValuation
	for rows.Next() {
		var (
			raw string
			v   models.DailyValuation
		)
		if err := rows.Scan(&raw, &v.Valuation); err != nil {
			return nil, &models.RecordError{Op: "scan valuations", Err: err}
		}
		if v.Date, err = time.Parse(dateLayout, raw); err != nil {
			return nil, &models.RecordError{Op: "parse date", Err: err}
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.RecordError{Op: "query valuations", Err: err}
	}

	for i := 0; i+1 < len(out); i++ {
		diff := out[i].Valuation - out[i+1].Valuation
		out[i].Diff = &diff
	}
	return out, nil
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
