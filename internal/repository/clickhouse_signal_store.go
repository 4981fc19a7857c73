package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"DipScan/internal/domain/models"
	pkgch "DipScan/pkg/clickhouse"
	applogger "DipScan/pkg/logger"
)

// CHSignalStore keeps the ranked table of every scan in ClickHouse.
type CHSignalStore struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHSignalStore(ch *pkgch.Client, table string, l *applogger.Logger) *CHSignalStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHSignalStore{ch: ch, db: ch.DB(), table: table, l: l}
}

func (s *CHSignalStore) Name() string { return "clickhouse" }

func (s *CHSignalStore) Schema() []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            run_id        String,
            scanned_at    DateTime64(3, 'UTC'),
            rank          UInt16,
            ticker        LowCardinality(String),
            name          String,
            probabilities String,
            avg           Float64,
            signal        LowCardinality(String),
            observations  UInt32
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(scanned_at)
        ORDER BY (scanned_at, rank)`, s.table)}
}

func (s *CHSignalStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, s.Schema())
}

// Write appends the ranked rows of one report.
func (s *CHSignalStore) Write(ctx context.Context, report *models.ScanReport) error {
	rows := make([][]any, 0, report.Ranked.Len())
	for _, sig := range report.Ranked.Signals {
		probs, err := json.Marshal(sig.Probabilities)
		if err != nil {
			return fmt.Errorf("encode probabilities %s: %w", sig.Asset.Ticker, err)
		}
		rows = append(rows, []any{
			report.RunID,
			report.FinishedAt,
			sig.Rank,
			sig.Asset.Ticker,
			sig.Asset.Name,
			string(probs),
			sig.Average,
			string(sig.Signal),
			sig.Observations,
		})
	}

	q := fmt.Sprintf("INSERT INTO %s (run_id, scanned_at, rank, ticker, name, probabilities, avg, signal, observations)", s.table)
	if err := s.ch.InsertBatch(ctx, q, rows); err != nil {
		s.l.Error("clickhouse insert signals error",
			applogger.String("table", s.table),
			applogger.String("run_id", report.RunID),
			applogger.Int("rows", len(rows)),
			applogger.Error(err),
		)
		return fmt.Errorf("insert signals: %w", err)
	}
	return nil
}

// Latest returns the ranked rows of the most recent run.
func (s *CHSignalStore) Latest(ctx context.Context, limit int) ([]models.AssetSignal, error) {
	q := fmt.Sprintf(`
        SELECT rank, ticker, name, probabilities, avg, signal, observations
        FROM %[1]s
        WHERE run_id = (SELECT run_id FROM %[1]s ORDER BY scanned_at DESC LIMIT 1)
        ORDER BY rank ASC
        LIMIT ?`, s.table)

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("latest signals: %w", err)
	}
	defer rows.Close()

	var out []models.AssetSignal
	for rows.Next() {
		var (
			sig    models.AssetSignal
			probs  string
			signal string
		)
		if err := rows.Scan(&sig.Rank, &sig.Asset.Ticker, &sig.Asset.Name, &probs, &sig.Average, &signal, &sig.Observations); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		if err := json.Unmarshal([]byte(probs), &sig.Probabilities); err != nil {
			return nil, fmt.Errorf("decode probabilities %s: %w", sig.Asset.Ticker, err)
		}
		sig.Signal = models.Signal(signal)
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHSignalStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHSignalStore) Close() error {
	return s.ch.Close()
}
