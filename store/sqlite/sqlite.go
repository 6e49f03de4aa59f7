/*
Package sqlite provides SQLite-backed persistence for the payroll datasets.

PURPOSE:
  Stores the four source collections (worked days, bonuses, discounts, tax
  collections), the worker roster, the function catalog, and the durable paid
  flags. The consolidated ledger itself is never stored: it is a derived view
  rebuilt from these tables on demand. The paid flags are the single piece of
  ledger state that must survive recomputation.

KEY TABLES:
  workers:          Roster (id, display name)
  functions:        Function catalog with point weights
  worked_days:      Attendance records; edits replace by id
  bonuses:          Per-worker extra amounts
  discounts:        Per-worker deductions
  tax_collections:  Site-wide service-tax intake per date
  paid_flags:       (date, worker) -> paid, the only mutable ledger state

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite opened in WAL mode:
  multiple readers don't block, a single writer at a time.

USAGE:
  store, err := sqlite.New("./data/daywin.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  input, err := store.LoadConsolidationInput(ctx)
  ledger, err := engine.Consolidate(input)

SEE ALSO:
  - payroll/consolidate.go: Consumes LoadConsolidationInput
  - api/handlers.go: CRUD surface over this store
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/dirgocs/daywin/payroll"
)

// Store persists the payroll source datasets and paid flags.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Roster
	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Function catalog
	CREATE TABLE IF NOT EXISTS functions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		weight TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Attendance records; one row per worker per function per date entry
	CREATE TABLE IF NOT EXISTS worked_days (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		worker_id TEXT NOT NULL,
		function_id TEXT,
		hours TEXT NOT NULL,
		daily_value TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_worked_days_date
		ON worked_days(date);
	CREATE INDEX IF NOT EXISTS idx_worked_days_worker
		ON worked_days(worker_id, date);

	-- Bonuses and discounts share a shape but stay separate datasets
	CREATE TABLE IF NOT EXISTS bonuses (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		worker_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bonuses_date
		ON bonuses(date);

	CREATE TABLE IF NOT EXISTS discounts (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		worker_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_discounts_date
		ON discounts(date);

	-- Site-wide service-tax intake
	CREATE TABLE IF NOT EXISTS tax_collections (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		amount_collected TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tax_collections_date
		ON tax_collections(date);

	-- The only durable ledger state
	CREATE TABLE IF NOT EXISTS paid_flags (
		date TEXT NOT NULL,
		worker_id TEXT NOT NULL,
		paid BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (date, worker_id)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// =============================================================================
// ROSTER AND FUNCTION CATALOG
// =============================================================================

// SaveWorker upserts a roster entry.
func (s *Store) SaveWorker(ctx context.Context, w payroll.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workers (id, display_name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET display_name = excluded.display_name
	`, w.ID, w.DisplayName, now())
	if err != nil {
		return fmt.Errorf("failed to save worker: %w", err)
	}
	return nil
}

// ListWorkers returns the roster ordered by display name.
func (s *Store) ListWorkers(ctx context.Context) ([]payroll.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, display_name FROM workers ORDER BY display_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	defer rows.Close()

	var workers []payroll.Worker
	for rows.Next() {
		var w payroll.Worker
		if err := rows.Scan(&w.ID, &w.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

// SaveFunction upserts a catalog entry.
func (s *Store) SaveFunction(ctx context.Context, f payroll.Function) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO functions (id, name, weight, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, weight = excluded.weight
	`, f.ID, f.Name, f.Weight.String(), now())
	if err != nil {
		return fmt.Errorf("failed to save function: %w", err)
	}
	return nil
}

// ListFunctions returns the catalog ordered by name.
func (s *Store) ListFunctions(ctx context.Context) ([]payroll.Function, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, weight FROM functions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list functions: %w", err)
	}
	defer rows.Close()

	var functions []payroll.Function
	for rows.Next() {
		var (
			f      payroll.Function
			weight string
		)
		if err := rows.Scan(&f.ID, &f.Name, &weight); err != nil {
			return nil, fmt.Errorf("failed to scan function: %w", err)
		}
		f.Weight, err = decimal.NewFromString(weight)
		if err != nil {
			return nil, fmt.Errorf("corrupt weight for function %s: %w", f.ID, err)
		}
		functions = append(functions, f)
	}
	return functions, rows.Err()
}

// =============================================================================
// SOURCE RECORDS
// =============================================================================

// SaveWorkedDay inserts or replaces an attendance record. Worked days are
// immutable once created; an edit replaces the record wholesale by id.
// A missing id gets a generated one; the stored record is returned.
func (s *Store) SaveWorkedDay(ctx context.Context, wd payroll.WorkedDay) (payroll.WorkedDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wd.ID == "" {
		wd.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO worked_days (id, date, worker_id, function_id, hours, daily_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, wd.ID, wd.Date.String(), wd.WorkerID, nullString(string(wd.FunctionID)),
		wd.Hours.String(), wd.DailyValue.String(), now())
	if err != nil {
		return payroll.WorkedDay{}, fmt.Errorf("failed to save worked day: %w", err)
	}
	return wd, nil
}

// ListWorkedDays returns all attendance records, optionally filtered by date.
// Pass the zero Date for no filter. Ordered by creation so selection order
// is preserved for downstream grouping.
func (s *Store) ListWorkedDays(ctx context.Context, date payroll.Date) ([]payroll.WorkedDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, date, worker_id, function_id, hours, daily_value
		FROM worked_days`
	var args []any
	if !date.IsZero() {
		query += ` WHERE date = ?`
		args = append(args, date.String())
	}
	query += ` ORDER BY date, created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list worked days: %w", err)
	}
	defer rows.Close()

	var result []payroll.WorkedDay
	for rows.Next() {
		var (
			wd          payroll.WorkedDay
			dateStr     string
			functionID  sql.NullString
			hours       string
			dailyValue  string
		)
		if err := rows.Scan(&wd.ID, &dateStr, &wd.WorkerID, &functionID, &hours, &dailyValue); err != nil {
			return nil, fmt.Errorf("failed to scan worked day: %w", err)
		}
		if wd.Date, err = payroll.ParseDate(dateStr); err != nil {
			return nil, err
		}
		wd.FunctionID = payroll.FunctionID(functionID.String)
		if wd.Hours, err = decimal.NewFromString(hours); err != nil {
			return nil, fmt.Errorf("corrupt hours for worked day %s: %w", wd.ID, err)
		}
		if wd.DailyValue, err = decimal.NewFromString(dailyValue); err != nil {
			return nil, fmt.Errorf("corrupt daily value for worked day %s: %w", wd.ID, err)
		}
		result = append(result, wd)
	}
	return result, rows.Err()
}

// SaveBonus inserts or replaces a bonus record.
func (s *Store) SaveBonus(ctx context.Context, b payroll.Bonus) (payroll.Bonus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO bonuses (id, date, worker_id, amount, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, b.ID, b.Date.String(), b.WorkerID, b.Amount.String(), now())
	if err != nil {
		return payroll.Bonus{}, fmt.Errorf("failed to save bonus: %w", err)
	}
	return b, nil
}

// ListBonuses returns all bonus records.
func (s *Store) ListBonuses(ctx context.Context) ([]payroll.Bonus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, worker_id, amount FROM bonuses ORDER BY date, created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonuses: %w", err)
	}
	defer rows.Close()

	var result []payroll.Bonus
	for rows.Next() {
		var (
			b       payroll.Bonus
			dateStr string
			amount  string
		)
		if err := rows.Scan(&b.ID, &dateStr, &b.WorkerID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan bonus: %w", err)
		}
		if b.Date, err = payroll.ParseDate(dateStr); err != nil {
			return nil, err
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt amount for bonus %s: %w", b.ID, err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// SaveDiscount inserts or replaces a discount record.
func (s *Store) SaveDiscount(ctx context.Context, d payroll.Discount) (payroll.Discount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO discounts (id, date, worker_id, amount, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, d.ID, d.Date.String(), d.WorkerID, d.Amount.String(), now())
	if err != nil {
		return payroll.Discount{}, fmt.Errorf("failed to save discount: %w", err)
	}
	return d, nil
}

// ListDiscounts returns all discount records.
func (s *Store) ListDiscounts(ctx context.Context) ([]payroll.Discount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, worker_id, amount FROM discounts ORDER BY date, created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list discounts: %w", err)
	}
	defer rows.Close()

	var result []payroll.Discount
	for rows.Next() {
		var (
			d       payroll.Discount
			dateStr string
			amount  string
		)
		if err := rows.Scan(&d.ID, &dateStr, &d.WorkerID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan discount: %w", err)
		}
		if d.Date, err = payroll.ParseDate(dateStr); err != nil {
			return nil, err
		}
		if d.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt amount for discount %s: %w", d.ID, err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// SaveTaxCollection inserts or replaces a tax-collection record.
func (s *Store) SaveTaxCollection(ctx context.Context, tc payroll.TaxCollection) (payroll.TaxCollection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tc.ID == "" {
		tc.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO tax_collections (id, date, amount_collected, created_at)
		VALUES (?, ?, ?, ?)
	`, tc.ID, tc.Date.String(), tc.AmountCollected.String(), now())
	if err != nil {
		return payroll.TaxCollection{}, fmt.Errorf("failed to save tax collection: %w", err)
	}
	return tc, nil
}

// ListTaxCollections returns all tax-collection records.
func (s *Store) ListTaxCollections(ctx context.Context) ([]payroll.TaxCollection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, amount_collected FROM tax_collections ORDER BY date, created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax collections: %w", err)
	}
	defer rows.Close()

	var result []payroll.TaxCollection
	for rows.Next() {
		var (
			tc      payroll.TaxCollection
			dateStr string
			amount  string
		)
		if err := rows.Scan(&tc.ID, &dateStr, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan tax collection: %w", err)
		}
		if tc.Date, err = payroll.ParseDate(dateStr); err != nil {
			return nil, err
		}
		if tc.AmountCollected, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt amount for tax collection %s: %w", tc.ID, err)
		}
		result = append(result, tc)
	}
	return result, rows.Err()
}

// =============================================================================
// PAID FLAGS
// =============================================================================

// SetPaidFlag persists one line's paid status.
func (s *Store) SetPaidFlag(ctx context.Context, key payroll.PaidKey, paid bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO paid_flags (date, worker_id, paid, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date, worker_id) DO UPDATE SET paid = excluded.paid, updated_at = excluded.updated_at
	`, key.Date.String(), key.WorkerID, paid, now())
	if err != nil {
		return fmt.Errorf("failed to set paid flag: %w", err)
	}
	return nil
}

// ListPaidFlags returns every persisted paid flag.
func (s *Store) ListPaidFlags(ctx context.Context) (map[payroll.PaidKey]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT date, worker_id, paid FROM paid_flags`)
	if err != nil {
		return nil, fmt.Errorf("failed to list paid flags: %w", err)
	}
	defer rows.Close()

	flags := make(map[payroll.PaidKey]bool)
	for rows.Next() {
		var (
			dateStr  string
			workerID string
			paid     bool
		)
		if err := rows.Scan(&dateStr, &workerID, &paid); err != nil {
			return nil, fmt.Errorf("failed to scan paid flag: %w", err)
		}
		date, err := payroll.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}
		flags[payroll.PaidKey{Date: date, WorkerID: payroll.WorkerID(workerID)}] = paid
	}
	return flags, rows.Err()
}

// =============================================================================
// CONSOLIDATION INPUT
// =============================================================================

// LoadConsolidationInput assembles the full engine input from the store:
// the four source collections, the roster, the catalog and the paid flags.
func (s *Store) LoadConsolidationInput(ctx context.Context) (payroll.ConsolidationInput, error) {
	var (
		in  payroll.ConsolidationInput
		err error
	)

	if in.WorkedDays, err = s.ListWorkedDays(ctx, payroll.Date{}); err != nil {
		return in, err
	}
	if in.Bonuses, err = s.ListBonuses(ctx); err != nil {
		return in, err
	}
	if in.Discounts, err = s.ListDiscounts(ctx); err != nil {
		return in, err
	}
	if in.TaxCollections, err = s.ListTaxCollections(ctx); err != nil {
		return in, err
	}
	if in.Roster, err = s.ListWorkers(ctx); err != nil {
		return in, err
	}
	if in.Functions, err = s.ListFunctions(ctx); err != nil {
		return in, err
	}
	if in.PaidFlags, err = s.ListPaidFlags(ctx); err != nil {
		return in, err
	}
	return in, nil
}

// Reset wipes all data. Dev only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"workers", "functions", "worked_days", "bonuses",
		"discounts", "tax_collections", "paid_flags",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
