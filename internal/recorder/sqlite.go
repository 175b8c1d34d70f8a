package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"FAASentinel/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so readers don't block the bot while it writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
			id           TEXT PRIMARY KEY,
			timestamp    INTEGER NOT NULL,
			trigger_type TEXT,
			tickers      TEXT,
			scoring_mode TEXT,
			aggregation  TEXT,
			top_n        INTEGER,
			include_cash INTEGER,
			cash_share   REAL,
			window_start INTEGER,
			window_end   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_ts ON evaluations(timestamp)`,

		`CREATE TABLE IF NOT EXISTS asset_metrics (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			evaluation_id    TEXT NOT NULL REFERENCES evaluations(id),
			ticker           TEXT NOT NULL,
			momentum         REAL,
			volatility       REAL,
			correlation      REAL,
			momentum_rank    INTEGER,
			volatility_rank  INTEGER,
			correlation_rank INTEGER,
			weighted_score   REAL,
			riskless         INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_eval ON asset_metrics(evaluation_id)`,

		`CREATE TABLE IF NOT EXISTS selections (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			evaluation_id TEXT NOT NULL REFERENCES evaluations(id),
			slot          INTEGER NOT NULL,
			ticker        TEXT NOT NULL,
			allocation    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_selections_eval ON selections(evaluation_id)`,

		`CREATE TABLE IF NOT EXISTS allocations (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			evaluation_id TEXT,
			timestamp     INTEGER NOT NULL,
			currency      TEXT,
			input_amount  REAL,
			exchange_rate REAL,
			base_amount   REAL,
			cash_slots    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_allocations_ts ON allocations(timestamp)`,

		`CREATE TABLE IF NOT EXISTS allocation_items (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			allocation_id INTEGER NOT NULL REFERENCES allocations(id),
			ticker        TEXT NOT NULL,
			price         REAL,
			shares        REAL,
			amount        REAL,
			percentage    REAL
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordEvaluation stores the cycle, its per-asset metrics and its selection in one transaction.
func (r *SQLiteRecorder) RecordEvaluation(ev *model.Evaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ts := ev.EvaluatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	if _, err := tx.Exec(`INSERT INTO evaluations
		(id, timestamp, trigger_type, tickers, scoring_mode, aggregation, top_n, include_cash,
		 cash_share, window_start, window_end)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		ev.ID, ts.Unix(), string(ev.Trigger), strings.Join(ev.Tickers, ","),
		string(ev.Config.Mode), string(ev.Config.Aggregation), ev.Config.TopN, boolInt(ev.Config.IncludeCash),
		ev.CashShare, ev.WindowStart.Unix(), ev.WindowEnd.Unix(),
	); err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}

	for _, m := range ev.Metrics {
		if _, err := tx.Exec(`INSERT INTO asset_metrics
			(evaluation_id, ticker, momentum, volatility, correlation,
			 momentum_rank, volatility_rank, correlation_rank, weighted_score, riskless)
			VALUES (?,?,?,?,?,?,?,?,?,?)`,
			ev.ID, m.Ticker, m.Momentum, m.Volatility, m.Correlation,
			m.MomentumRank, m.VolatilityRank, m.CorrelationRank, m.WeightedScore, boolInt(m.Riskless),
		); err != nil {
			return fmt.Errorf("insert metrics for %s: %w", m.Ticker, err)
		}
	}

	for _, s := range ev.Selected {
		if _, err := tx.Exec(`INSERT INTO selections (evaluation_id, slot, ticker, allocation) VALUES (?,?,?,?)`,
			ev.ID, s.Rank, s.Ticker, s.Allocation,
		); err != nil {
			return fmt.Errorf("insert selection %d: %w", s.Rank, err)
		}
	}

	return tx.Commit()
}

// RecordAllocation stores a purchase plan, optionally linked to the evaluation it was derived from.
func (r *SQLiteRecorder) RecordAllocation(evalID string, plan *model.AllocationPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ts := plan.PlannedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	res, err := tx.Exec(`INSERT INTO allocations
		(evaluation_id, timestamp, currency, input_amount, exchange_rate, base_amount, cash_slots)
		VALUES (?,?,?,?,?,?,?)`,
		nullString(evalID), ts.Unix(), plan.Currency, plan.InputAmount,
		plan.ExchangeRate, plan.BaseAmount, plan.CashSlots,
	)
	if err != nil {
		return fmt.Errorf("insert allocation: %w", err)
	}
	allocID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("allocation id: %w", err)
	}

	for _, a := range plan.Allocations {
		if _, err := tx.Exec(`INSERT INTO allocation_items
			(allocation_id, ticker, price, shares, amount, percentage)
			VALUES (?,?,?,?,?,?)`,
			allocID, a.Ticker, a.CurrentPrice, a.Shares, a.Amount, a.PercentageOfTotal,
		); err != nil {
			return fmt.Errorf("insert allocation item %s: %w", a.Ticker, err)
		}
	}

	return tx.Commit()
}

// RecentEvaluations returns up to limit evaluations, newest first.
func (r *SQLiteRecorder) RecentEvaluations(limit int) ([]EvaluationSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT e.id, e.timestamp, e.trigger_type, e.tickers, e.cash_share,
			COALESCE((SELECT GROUP_CONCAT(allocation, ',') FROM
				(SELECT allocation FROM selections s WHERE s.evaluation_id = e.id ORDER BY s.slot)), '')
		FROM evaluations e
		ORDER BY e.timestamp DESC, e.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var out []EvaluationSummary
	for rows.Next() {
		var (
			s                 EvaluationSummary
			ts                int64
			trigger           string
			tickers, selected string
		)
		if err := rows.Scan(&s.ID, &ts, &trigger, &tickers, &s.CashShare, &selected); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		s.Trigger = model.TriggerType(trigger)
		s.EvaluatedAt = time.Unix(ts, 0)
		s.Tickers = splitList(tickers)
		s.Selected = splitList(selected)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
