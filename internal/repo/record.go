// Package repo contains all database access logic for the workspace contents service.
// It exposes an interface and a Postgres implementation for the record store.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/blockfactory/internal/domain"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test.
// Begin on a pgx.Tx opens a savepoint, so WithTx nests cleanly inside tests.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RecordRepo defines the persistence operations for workspace contents records.
// The repo is the owning collection: it enforces name uniqueness.
type RecordRepo interface {
	// Create inserts a new record and returns the persisted copy with id and
	// timestamps populated. Returns domain.ErrConflict if the name is taken.
	Create(ctx context.Context, rec *domain.TaggedRecord) (*domain.TaggedRecord, error)

	// GetByName retrieves a record by its unique name.
	// Returns domain.ErrNotFound if no record has that name.
	GetByName(ctx context.Context, name string) (*domain.TaggedRecord, error)

	// GetByNameForUpdate is GetByName with a row lock held until the
	// surrounding transaction ends. Only meaningful inside WithTx.
	GetByNameForUpdate(ctx context.Context, name string) (*domain.TaggedRecord, error)

	// ListPaged returns one page of records ordered by name and the total count.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]*domain.TaggedRecord, int64, error)

	// Save overwrites the content and tags of an existing record and returns
	// the updated copy. Returns domain.ErrNotFound if the record does not exist.
	Save(ctx context.Context, rec *domain.TaggedRecord) (*domain.TaggedRecord, error)

	// Delete removes a record by name. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, name string) error

	// WithTx runs fn with a RecordRepo bound to a single transaction.
	// The transaction commits if fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(RecordRepo) error) error
}

// pgRecordRepo is the Postgres implementation of RecordRepo.
type pgRecordRepo struct {
	db db
}

// NewRecordRepo constructs a RecordRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewRecordRepo(db db) RecordRepo {
	return &pgRecordRepo{db: db}
}

const recordColumns = `id, name, content, tags, created_at, updated_at`

// Create inserts a new row and returns the full persisted record.
func (r *pgRecordRepo) Create(ctx context.Context, rec *domain.TaggedRecord) (*domain.TaggedRecord, error) {
	const q = `
		INSERT INTO workspace_contents (name, content, tags)
		VALUES (@name, @content, @tags)
		RETURNING ` + recordColumns

	args := pgx.NamedArgs{
		"name":    rec.Name(),
		"content": rec.Content(),
		"tags":    rec.Tags(),
	}

	result, err := scanRecord(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return nil, fmt.Errorf("repo.RecordRepo.Create: %w", mapWriteErr(err))
	}
	return result, nil
}

// GetByName retrieves a record by name.
func (r *pgRecordRepo) GetByName(ctx context.Context, name string) (*domain.TaggedRecord, error) {
	const q = `SELECT ` + recordColumns + ` FROM workspace_contents WHERE name = @name`

	result, err := scanRecord(r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name}))
	if err != nil {
		return nil, fmt.Errorf("repo.RecordRepo.GetByName: %w", err)
	}
	return result, nil
}

// GetByNameForUpdate retrieves a record by name and locks its row.
func (r *pgRecordRepo) GetByNameForUpdate(ctx context.Context, name string) (*domain.TaggedRecord, error) {
	const q = `SELECT ` + recordColumns + ` FROM workspace_contents WHERE name = @name FOR UPDATE`

	result, err := scanRecord(r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name}))
	if err != nil {
		return nil, fmt.Errorf("repo.RecordRepo.GetByNameForUpdate: %w", err)
	}
	return result, nil
}

// ListPaged returns one page of records ordered by name.
func (r *pgRecordRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]*domain.TaggedRecord, int64, error) {
	const countQ = `SELECT count(*) FROM workspace_contents`
	const q = `
		SELECT ` + recordColumns + `
		FROM workspace_contents
		ORDER BY name
		LIMIT @limit OFFSET @offset`

	var total int64
	if err := r.db.QueryRow(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.RecordRepo.ListPaged: count: %w", err)
	}

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.RecordRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	records := []*domain.TaggedRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.RecordRepo.ListPaged: scan: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.RecordRepo.ListPaged: rows: %w", err)
	}
	return records, total, nil
}

// Save overwrites content and tags and bumps updated_at.
func (r *pgRecordRepo) Save(ctx context.Context, rec *domain.TaggedRecord) (*domain.TaggedRecord, error) {
	const q = `
		UPDATE workspace_contents
		SET content    = @content,
		    tags       = @tags,
		    updated_at = now()
		WHERE name = @name
		RETURNING ` + recordColumns

	args := pgx.NamedArgs{
		"name":    rec.Name(),
		"content": rec.Content(),
		"tags":    rec.Tags(),
	}

	result, err := scanRecord(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return nil, fmt.Errorf("repo.RecordRepo.Save: %w", mapWriteErr(err))
	}
	return result, nil
}

// Delete removes a record by name.
func (r *pgRecordRepo) Delete(ctx context.Context, name string) error {
	const q = `DELETE FROM workspace_contents WHERE name = @name`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"name": name})
	if err != nil {
		return fmt.Errorf("repo.RecordRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.RecordRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// WithTx begins a transaction on the underlying db and hands fn a repo bound to it.
func (r *pgRecordRepo) WithTx(ctx context.Context, fn func(RecordRepo) error) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&pgRecordRepo{db: tx})
	})
	if err != nil {
		return fmt.Errorf("repo.RecordRepo.WithTx: %w", err)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanRecord to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord maps a single database row into a domain.TaggedRecord.
func scanRecord(s scanner) (*domain.TaggedRecord, error) {
	var (
		id        pgtype.UUID
		name      string
		content   domain.Content
		tags      []string
		createdAt time.Time
		updatedAt time.Time
	)

	err := s.Scan(&id, &name, &content, &tags, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return domain.RestoreTaggedRecord(uuid.UUID(id.Bytes), name, content, tags, createdAt, updatedAt), nil
}

// mapWriteErr translates a unique violation on name into domain.ErrConflict.
func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: name already exists", domain.ErrConflict)
	}
	return err
}
