// Package ledger implements the persistent price log for Price-Tracker.
//
// It uses SQLite to store one row per recorded price observation
// (item, price, currency, store, date). This is the core of the bot —
// everything else (Telegram handlers, currency conversion, barcode
// scanning) talks to this.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Entry is one recorded price observation.
type Entry struct {
	ID       int64
	Item     string
	Price    decimal.Decimal
	Currency string
	Store    string
	Date     string // YYYY-MM-DD
}

// PriceString renders the stored amount with exactly two fraction digits.
func (e Entry) PriceString() string {
	return e.Price.StringFixed(2)
}

// ─── Config ──────────────────────────────────────────────────────────────────

type Config struct {
	// Path is the SQLite database file. Its directory is created on Open.
	Path string
	// HomeCurrency is the 3-letter code assumed when an entry carries none.
	HomeCurrency string
}

func DefaultConfig() Config {
	return Config{
		Path:         filepath.Join("data", "prices.db"),
		HomeCurrency: "SGD",
	}
}

// ─── Ledger ──────────────────────────────────────────────────────────────────

type Ledger struct {
	db   *sql.DB
	path string
	home string
}

// Open creates the data directory if needed, opens (or creates) the
// database and applies the schema. Safe to call on every start.
func Open(cfg Config) (*Ledger, error) {
	home := strings.ToUpper(strings.TrimSpace(cfg.HomeCurrency))
	if !isCurrencyCode(home) {
		return nil, &ValidationError{Reason: fmt.Sprintf("home currency %q is not a 3-letter code", cfg.HomeCurrency)}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, &StorageError{Op: "create data dir", Err: err}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, &StorageError{Op: "open database", Err: err}
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, &StorageError{Op: fmt.Sprintf("pragma %q", p), Err: err}
		}
	}

	l := &Ledger{db: db, path: cfg.Path, home: home}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, &StorageError{Op: "migration", Err: err}
	}

	return l, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// HomeCurrency returns the configured default currency code.
func (l *Ledger) HomeCurrency() string {
	return l.home
}

// ─── Migrations ──────────────────────────────────────────────────────────────

// migrate is idempotent: the base table predates the currency column, so
// existing databases gain it via an additive ALTER on first start after
// the upgrade.
func (l *Ledger) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS price_log (
			id    INTEGER PRIMARY KEY AUTOINCREMENT,
			item  TEXT NOT NULL,
			price TEXT NOT NULL,
			store TEXT NOT NULL,
			date  TEXT NOT NULL DEFAULT (date('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_price_log_item ON price_log(item);
	`
	if _, err := l.db.Exec(schema); err != nil {
		return err
	}

	if err := l.addColumnIfNotExists("price_log", "currency",
		fmt.Sprintf("TEXT NOT NULL DEFAULT '%s'", l.home)); err != nil {
		return err
	}

	return nil
}

func (l *Ledger) addColumnIfNotExists(tableName, columnName, definition string) error {
	rows, err := l.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, typ string
		var notNull int
		var defaultValue any
		var pk int
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultValue, &pk); err != nil {
			return err
		}
		if name == columnName {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = l.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", tableName, columnName, definition))
	return err
}

// ─── Writes ──────────────────────────────────────────────────────────────────

// Add validates and normalizes one observation and inserts it, returning
// the assigned id. Item is lower-cased, store and currency upper-cased;
// an empty currency falls back to the home currency; an empty date falls
// back to today.
func (l *Ledger) Add(item, price, currency, store, date string) (int64, error) {
	e, err := l.normalize(item, price, currency, store, date)
	if err != nil {
		return 0, err
	}

	res, err := l.db.Exec(
		`INSERT INTO price_log (item, price, currency, store, date) VALUES (?, ?, ?, ?, ?)`,
		e.Item, e.Price.StringFixed(2), e.Currency, e.Store, e.Date,
	)
	if err != nil {
		return 0, &StorageError{Op: "insert", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &StorageError{Op: "insert id", Err: err}
	}
	return id, nil
}

// UpdateByID overwrites every mutable field of an existing row. The new
// values go through the same validation and normalization as Add.
func (l *Ledger) UpdateByID(id int64, item, price, currency, store, date string) error {
	e, err := l.normalize(item, price, currency, store, date)
	if err != nil {
		return err
	}

	res, err := l.db.Exec(
		`UPDATE price_log SET item = ?, price = ?, currency = ?, store = ?, date = ? WHERE id = ?`,
		e.Item, e.Price.StringFixed(2), e.Currency, e.Store, e.Date, id,
	)
	if err != nil {
		return &StorageError{Op: "update", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &StorageError{Op: "update", Err: err}
	}
	if n == 0 {
		return fmt.Errorf("update entry #%d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteByID removes exactly one row. A missing id is not an error; the
// boolean reports whether a row was actually deleted.
func (l *Ledger) DeleteByID(id int64) (bool, error) {
	res, err := l.db.Exec(`DELETE FROM price_log WHERE id = ?`, id)
	if err != nil {
		return false, &StorageError{Op: "delete", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &StorageError{Op: "delete", Err: err}
	}
	return n > 0, nil
}

// DeleteMostRecent deletes the newest entry for an item and returns it.
// Returns ErrNotFound when the item has no entries.
func (l *Ledger) DeleteMostRecent(item string) (*Entry, error) {
	norm := normalizeItem(item)
	if norm == "" {
		return nil, &ValidationError{Reason: "item is required"}
	}

	row := l.db.QueryRow(
		`SELECT id, item, price, currency, store, date FROM price_log
		 WHERE item = ? ORDER BY id DESC LIMIT 1`, norm,
	)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("delete most recent %q: %w", norm, ErrNotFound)
	}
	if err != nil {
		return nil, &StorageError{Op: "select most recent", Err: err}
	}

	if _, err := l.db.Exec(`DELETE FROM price_log WHERE id = ?`, e.ID); err != nil {
		return nil, &StorageError{Op: "delete", Err: err}
	}
	return e, nil
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// GetEntry returns a single entry by id, or ErrNotFound.
func (l *Ledger) GetEntry(id int64) (*Entry, error) {
	row := l.db.QueryRow(
		`SELECT id, item, price, currency, store, date FROM price_log WHERE id = ?`, id,
	)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("entry #%d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, &StorageError{Op: "select entry", Err: err}
	}
	return e, nil
}

// DistinctItems returns all distinct item names, alphabetically.
func (l *Ledger) DistinctItems() ([]string, error) {
	rows, err := l.db.Query(`SELECT DISTINCT item FROM price_log ORDER BY item ASC`)
	if err != nil {
		return nil, &StorageError{Op: "select items", Err: err}
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var item string
		if err := rows.Scan(&item); err != nil {
			return nil, &StorageError{Op: "scan item", Err: err}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Compare returns every entry for an item, cheapest first within each
// currency. Home-currency rows come before foreign ones, remaining
// currencies alphabetically; insertion order breaks ties.
func (l *Ledger) Compare(item string) ([]Entry, error) {
	norm := normalizeItem(item)
	if norm == "" {
		return nil, &ValidationError{Reason: "item is required"}
	}

	return l.queryEntries(
		`SELECT id, item, price, currency, store, date FROM price_log
		 WHERE item = ?
		 ORDER BY (currency = ?) DESC, currency ASC, CAST(price AS REAL) ASC, id ASC`, norm, l.home,
	)
}

// RecentEntries returns up to limit newest entries for an item, newest
// first. Used to populate the entry-selection keyboard.
func (l *Ledger) RecentEntries(item string, limit int) ([]Entry, error) {
	norm := normalizeItem(item)
	if norm == "" {
		return nil, &ValidationError{Reason: "item is required"}
	}
	if limit <= 0 {
		limit = 5
	}

	return l.queryEntries(
		`SELECT id, item, price, currency, store, date FROM price_log
		 WHERE item = ? ORDER BY id DESC LIMIT ?`, norm, limit,
	)
}

// ─── Export ──────────────────────────────────────────────────────────────────

// ExportRaw returns a byte-exact copy of the database file. The WAL is
// checkpointed first so the copy contains every committed write.
func (l *Ledger) ExportRaw() ([]byte, error) {
	if _, err := l.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return nil, &StorageError{Op: "checkpoint", Err: err}
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, &StorageError{Op: "read database file", Err: err}
	}
	return data, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var price string
	if err := row.Scan(&e.ID, &e.Item, &price, &e.Currency, &e.Store, &e.Date); err != nil {
		return nil, err
	}
	dec, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("stored price %q: %w", price, err)
	}
	e.Price = dec
	return &e, nil
}

func (l *Ledger) queryEntries(query string, args ...any) ([]Entry, error) {
	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, &StorageError{Op: "select entries", Err: err}
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, &StorageError{Op: "scan entry", Err: err}
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// normalize validates one observation's fields and applies the write-time
// case folding so later lookups never need to case-fold.
func (l *Ledger) normalize(item, price, currency, store, date string) (*Entry, error) {
	e := &Entry{
		Item:     normalizeItem(item),
		Currency: strings.ToUpper(strings.TrimSpace(currency)),
		Store:    strings.ToUpper(strings.TrimSpace(store)),
		Date:     strings.TrimSpace(date),
	}

	if e.Item == "" {
		return nil, &ValidationError{Reason: "item is required"}
	}
	if e.Store == "" {
		return nil, &ValidationError{Reason: "store is required"}
	}

	dec, err := decimal.NewFromString(strings.TrimSpace(price))
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("price %q is not a number", price)}
	}
	if dec.IsNegative() {
		return nil, &ValidationError{Reason: fmt.Sprintf("price %s is negative", dec)}
	}
	e.Price = dec

	if e.Currency == "" {
		e.Currency = l.home
	}
	if !isCurrencyCode(e.Currency) {
		return nil, &ValidationError{Reason: fmt.Sprintf("currency %q is not a 3-letter code", currency)}
	}

	if e.Date == "" {
		e.Date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("date %q is not YYYY-MM-DD", date)}
	}

	return e, nil
}

func normalizeItem(item string) string {
	return strings.ToLower(strings.TrimSpace(item))
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
