package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/rl1809/pantry/internal/core/domain"
)

// dialect holds the statements that differ between SQL engines.
type dialect struct {
	name   string
	schema string
	upsert string
	merge  string
	// guardedMerge means the merge statement affects no row when the sum
	// would overflow, instead of failing.
	guardedMerge bool
}

// mysqlOutOfRange is ER_DATA_OUT_OF_RANGE, raised when BIGINT arithmetic overflows.
const mysqlOutOfRange = 1690

var mysqlDialect = dialect{
	name: "mysql",
	schema: `
		CREATE TABLE IF NOT EXISTS inventory (
			name        VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL PRIMARY KEY,
			quantity    BIGINT       NOT NULL,
			description TEXT         NOT NULL,
			updated_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
	upsert: `
		INSERT INTO inventory (name, quantity, description) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = VALUES(quantity), description = VALUES(description)`,
	merge: `
		INSERT INTO inventory (name, quantity, description) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`,
}

var sqliteDialect = dialect{
	name: "sqlite",
	schema: `
		CREATE TABLE IF NOT EXISTS inventory (
			name        TEXT    NOT NULL PRIMARY KEY,
			quantity    INTEGER NOT NULL,
			description TEXT    NOT NULL,
			updated_at  TEXT    NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	upsert: `
		INSERT INTO inventory (name, quantity, description) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			quantity = excluded.quantity,
			description = excluded.description,
			updated_at = CURRENT_TIMESTAMP`,
	merge: `
		INSERT INTO inventory (name, quantity, description) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			quantity = inventory.quantity + excluded.quantity,
			updated_at = CURRENT_TIMESTAMP
		WHERE inventory.quantity <= 9223372036854775807 - excluded.quantity`,
	guardedMerge: true,
}

// SQLAdapter stores items in an `inventory` table keyed by name.
type SQLAdapter struct {
	db      *sql.DB
	dialect dialect
}

func NewMySQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db, dialect: mysqlDialect}
}

func NewSQLiteAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db, dialect: sqliteDialect}
}

// OpenSQLite opens a SQLite file with a single connection so writers queue
// instead of failing with SQLITE_BUSY.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// EnsureSchema creates the inventory table if it does not exist.
func (s *SQLAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.schema); err != nil {
		return fmt.Errorf("create %s schema: %w", s.dialect.name, err)
	}
	return nil
}

func (s *SQLAdapter) ListAll(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, quantity, description FROM inventory`)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	items := []domain.InventoryItem{}
	for rows.Next() {
		var it domain.InventoryItem
		if err := rows.Scan(&it.Name, &it.Quantity, &it.Description); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory: %w", err)
	}
	return items, nil
}

func (s *SQLAdapter) GetOne(ctx context.Context, name string) (domain.Record, bool, error) {
	var r domain.Record
	err := s.db.QueryRowContext(ctx, `
		SELECT quantity, description
		FROM inventory WHERE name = ?`, name,
	).Scan(&r.Quantity, &r.Description)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Record{}, false, nil
	}
	if err != nil {
		return domain.Record{}, false, fmt.Errorf("query item: %w", err)
	}
	return r, true, nil
}

func (s *SQLAdapter) Upsert(ctx context.Context, name string, record domain.Record) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, name, record.Quantity, record.Description); err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

func (s *SQLAdapter) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM inventory WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// MergeAdd leaves the merge to the database: one statement either inserts
// the row or adds to its quantity, keeping the stored description.
func (s *SQLAdapter) MergeAdd(ctx context.Context, name string, quantity int, description string) error {
	res, err := s.db.ExecContext(ctx, s.dialect.merge, name, quantity, description)
	var merr *mysql.MySQLError
	if errors.As(err, &merr) && merr.Number == mysqlOutOfRange {
		return domain.OverflowError(quantity)
	}
	if err != nil {
		return fmt.Errorf("merge item: %w", err)
	}
	if s.dialect.guardedMerge {
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("merge item: %w", err)
		}
		if n == 0 {
			return domain.OverflowError(quantity)
		}
	}
	return nil
}

func openMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}
