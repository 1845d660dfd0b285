package repository

import (
	"context"
	"fmt"
	"time"

	"PriceBoard/internal/domain/models"
	domrepo "PriceBoard/internal/domain/repository"
	pkgch "PriceBoard/pkg/clickhouse"
	"PriceBoard/pkg/util"
)

// ClickHouseArchive appends every fetched snapshot, one row per merged point,
// so the evolution of a prediction for a given date can be read back.
type ClickHouseArchive struct {
	client *pkgch.Client
	table  string
}

// NewClickHouseArchive creates the archive over database.table.
func NewClickHouseArchive(client *pkgch.Client, table string) *ClickHouseArchive {
	return &ClickHouseArchive{client: client, table: table}
}

// SchemaStatements returns the DDL for the archive table.
func SchemaStatements(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
            fetched_at DateTime64(3, 'UTC'),
            seq UInt64,
            commodity LowCardinality(String),
            dev UInt8,
            date Date,
            actual_price Nullable(Float64),
            predicted_14d Nullable(Float64),
            predicted_7d Nullable(Float64)
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(fetched_at)
        ORDER BY (commodity, dev, date, fetched_at)`, database, table),
	}
}

func (a *ClickHouseArchive) qualified() string {
	return a.client.Database() + "." + a.table
}

func (a *ClickHouseArchive) Init(ctx context.Context) error {
	return a.client.InitSchema(ctx, SchemaStatements(a.client.Database(), a.table))
}

func (a *ClickHouseArchive) StoreSnapshot(ctx context.Context, s *models.Snapshot) error {
	if s == nil || len(s.Merged) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(s.Merged))
	for _, pt := range s.Merged {
		day, ok := util.ParseDate(pt.Date)
		if !ok {
			continue
		}
		rows = append(rows, []interface{}{
			s.FetchedAt.UTC(),
			s.Seq,
			string(s.Commodity),
			boolToUInt8(s.Dev),
			day,
			pt.ActualPrice,
			pt.PredictedPrice14,
			pt.PredictedPrice7,
		})
	}

	q := fmt.Sprintf("INSERT INTO %s (fetched_at, seq, commodity, dev, date, actual_price, predicted_14d, predicted_7d)", a.qualified())
	if err := a.client.InsertBatch(ctx, q, rows); err != nil {
		return fmt.Errorf("store snapshot %s: %w", s.Key(), err)
	}
	return nil
}

// History returns the archived versions of the point at date, newest first.
func (a *ClickHouseArchive) History(ctx context.Context, key models.SeriesKey, date string, limit int) ([]models.ArchivedPoint, error) {
	day, ok := util.ParseDate(date)
	if !ok {
		return nil, fmt.Errorf("invalid date %q", date)
	}
	if limit <= 0 {
		limit = 100
	}

	q := fmt.Sprintf(`
        SELECT fetched_at, seq, actual_price, predicted_14d, predicted_7d
        FROM %s
        WHERE commodity = ? AND dev = ? AND date = ?
        ORDER BY fetched_at DESC
        LIMIT ?`, a.qualified())
	rows, err := a.client.DB().QueryContext(ctx, q, string(key.Commodity), boolToUInt8(key.Dev), day, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]models.ArchivedPoint, 0, limit)
	for rows.Next() {
		var (
			ap     models.ArchivedPoint
			at     time.Time
			actual *float64
			p14    *float64
			p7     *float64
		)
		if err := rows.Scan(&at, &ap.Seq, &actual, &p14, &p7); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		ap.FetchedAt = at
		ap.Date = util.FormatDate(day)
		ap.ActualPrice, ap.PredictedPrice14, ap.PredictedPrice7 = actual, p14, p7
		out = append(out, ap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (a *ClickHouseArchive) Health(ctx context.Context) error {
	return a.client.Health(ctx)
}

// Close is a no-op; the client is closed by its owner.
func (a *ClickHouseArchive) Close() error {
	return nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

var _ domrepo.Archive = (*ClickHouseArchive)(nil)
