// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package stock

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/libris/internal/platform/database/schema"
	"github.com/taibuivan/libris/internal/platform/dberr"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var selectColumns = fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s",
	schema.BookStock.ID, schema.BookStock.BookID, schema.BookStock.BranchID,
	schema.BookStock.Shelf, schema.BookStock.Floor, schema.BookStock.Room,
	schema.BookStock.Status, schema.BookStock.CreatedAt, schema.BookStock.UpdatedAt,
)

func scanCopy(row pgx.Row) (*Copy, error) {
	c := &Copy{}
	err := row.Scan(&c.ID, &c.BookID, &c.BranchID, &c.Shelf, &c.Floor, &c.Room, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (repository *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*Copy, int, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY %s ASC
		LIMIT $1 OFFSET $2
	`, selectColumns, schema.BookStock.Table, schema.BookStock.ID)
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s`, schema.BookStock.Table)

	var total int
	if err := repository.db.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_copies")
	}

	rows, err := repository.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_copies")
	}
	defer rows.Close()

	copies := []*Copy{}
	for rows.Next() {
		c, err := scanCopy(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_copy")
		}
		copies = append(copies, c)
	}

	return copies, total, dberr.Wrap(rows.Err(), "list_copies")
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id int) (*Copy, error) {
	return findCopy(ctx, repository.db, id, false)
}

func (repository *PostgresRepository) Create(ctx context.Context, c *Copy) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING %s, %s, %s
	`,
		schema.BookStock.Table, schema.BookStock.BookID, schema.BookStock.BranchID, schema.BookStock.Shelf,
		schema.BookStock.Floor, schema.BookStock.Room, schema.BookStock.Status,
		schema.BookStock.CreatedAt, schema.BookStock.UpdatedAt,
		schema.BookStock.ID, schema.BookStock.CreatedAt, schema.BookStock.UpdatedAt,
	)

	err := repository.db.QueryRow(ctx, query, c.BookID, c.BranchID, c.Shelf, c.Floor, c.Room, c.Status).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return dberr.Wrap(err, "create_copy")
}

// Update overwrites every field, status included, without locking.
func (repository *PostgresRepository) Update(ctx context.Context, c *Copy) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = NOW()
		WHERE %s = $1
		RETURNING %s, %s
	`,
		schema.BookStock.Table, schema.BookStock.BookID, schema.BookStock.BranchID, schema.BookStock.Shelf,
		schema.BookStock.Floor, schema.BookStock.Room, schema.BookStock.Status, schema.BookStock.UpdatedAt,
		schema.BookStock.ID, schema.BookStock.CreatedAt, schema.BookStock.UpdatedAt,
	)

	err := repository.db.QueryRow(ctx, query, c.ID, c.BookID, c.BranchID, c.Shelf, c.Floor, c.Room, c.Status).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	return dberr.Wrap(err, "update_copy")
}

func (repository *PostgresRepository) Delete(ctx context.Context, id int) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.BookStock.Table, schema.BookStock.ID)

	cmd, err := repository.db.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_copy")
	}

	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := repository.db.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, "begin_copy_tx")
	}
	defer tx.Rollback(ctx)

	if err := fn(&postgresTx{tx: tx}); err != nil {
		return err
	}

	return dberr.Wrap(tx.Commit(ctx), "commit_copy_tx")
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) LockByID(ctx context.Context, id int) (*Copy, error) {
	return findCopy(ctx, t.tx, id, true)
}

func (t *postgresTx) UpdateStatus(ctx context.Context, id int, status Status) (*Copy, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = NOW()
		WHERE %s = $1
		RETURNING %s
	`,
		schema.BookStock.Table, schema.BookStock.Status, schema.BookStock.UpdatedAt,
		schema.BookStock.ID, selectColumns,
	)

	c, err := scanCopy(t.tx.QueryRow(ctx, query, id, status))
	if err != nil {
		return nil, dberr.Wrap(err, "update_copy_status")
	}
	return c, nil
}

func findCopy(ctx context.Context, db querier, id int, forUpdate bool) (*Copy, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, selectColumns, schema.BookStock.Table, schema.BookStock.ID)
	if forUpdate {
		query += " FOR UPDATE"
	}

	c, err := scanCopy(db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_copy")
	}
	return c, nil
}
