package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/go-sql-driver/mysql"

	"github.com/meisai-dev/meisai/pkg/models"
)

// DefaultTable is the ledger table statement records land in.
const DefaultTable = "credit_histories"

// Store persists statement records into a single MySQL ledger table.
type Store struct {
	db     *sql.DB
	table  string
	logger *log.Logger
}

// Open connects to MySQL and verifies the connection. A failed ping is
// fatal for the whole run: no files are processed without a database.
func Open(dsn, table string, logger *log.Logger) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if table == "" {
		table = DefaultTable
	}
	return &Store{db: db, table: table, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// HasImport reports whether records for the (service, file) pair already
// exist. The pair is the sole idempotency key; content is not hashed, so a
// same-named file with different content still counts as imported.
func (s *Store) HasImport(ctx context.Context, service, file string) (bool, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE service = ? AND file = ?", s.table)

	var count int
	if err := s.db.QueryRowContext(ctx, query, service, file).Scan(&count); err != nil {
		return false, fmt.Errorf("error checking existing import: %w", err)
	}
	return count > 0, nil
}

// InsertAll writes every record in one transaction. Any failure rolls the
// whole file back; a partially imported file is never visible. Both
// timestamp columns get the same wall-clock value for the run.
func (s *Store) InsertAll(ctx context.Context, records []*models.Record) (inserted int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf(`INSERT INTO %s
		(used_at, store, price, payment, note, service, file, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("error preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, r := range records {
		note := sql.NullString{String: r.Note(), Valid: r.HasNote()}
		if _, err = stmt.ExecContext(ctx,
			r.UsedAt().Format("2006-01-02"), r.Store(), r.Price(), r.Payment(),
			note, r.Service(), r.File(), now, now,
		); err != nil {
			err = fmt.Errorf("error inserting record: %w", err)
			return 0, err
		}
		inserted++
		s.logger.Debug("inserted",
			"used_at", r.UsedAt().Format("2006-01-02"), "store", r.Store(), "price", r.Price())
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing transaction: %w", err)
	}
	return inserted, nil
}
