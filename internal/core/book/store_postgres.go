// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package book

import (
	"context"
	"errors"
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

// aggregate selects one column of the rows linked to book b through a
// junction table, ordered by name, as an array (empty when unlinked).
func aggregate(column, junction, junctionBook, junctionRef, table, tableID, tableName string) string {
	return fmt.Sprintf(
		`COALESCE((SELECT array_agg(r.%s ORDER BY r.%s, r.%s) FROM %s j JOIN %s r ON r.%s = j.%s WHERE j.%s = b.%s), '{}')`,
		column, tableName, tableID, junction, table, tableID, junctionRef, junctionBook, schema.Book.ID,
	)
}

var selectColumns = fmt.Sprintf(
	"b.%s, b.%s, b.%s, b.%s, b.%s, b.%s, b.%s, b.%s, to_char(b.%s, 'YYYY-MM-DD'), b.%s, b.%s, %s, %s, %s, %s",
	schema.Book.ID, schema.Book.Title, schema.Book.ISBN, schema.Book.Publisher, schema.Book.Edition,
	schema.Book.Language, schema.Book.BookType, schema.Book.Synopsis, schema.Book.PublicationDate,
	schema.Book.CreatedAt, schema.Book.UpdatedAt,
	aggregate(schema.Author.ID, schema.BookAuthor.Table, schema.BookAuthor.BookID, schema.BookAuthor.AuthorID,
		schema.Author.Table, schema.Author.ID, schema.Author.Name),
	aggregate(schema.Author.Name, schema.BookAuthor.Table, schema.BookAuthor.BookID, schema.BookAuthor.AuthorID,
		schema.Author.Table, schema.Author.ID, schema.Author.Name),
	aggregate(schema.Category.ID, schema.BookCategory.Table, schema.BookCategory.BookID, schema.BookCategory.CategoryID,
		schema.Category.Table, schema.Category.ID, schema.Category.Name),
	aggregate(schema.Category.Name, schema.BookCategory.Table, schema.BookCategory.BookID, schema.BookCategory.CategoryID,
		schema.Category.Table, schema.Category.ID, schema.Category.Name),
)

func scanBook(row pgx.Row) (*Book, error) {
	b := &Book{}
	err := row.Scan(
		&b.ID, &b.Title, &b.ISBN, &b.Publisher, &b.Edition, &b.Language, &b.Type, &b.Synopsis,
		&b.PublicationDate, &b.CreatedAt, &b.UpdatedAt,
		&b.AuthorIDs, &b.Authors, &b.CategoryIDs, &b.Categories,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func findBook(ctx context.Context, db querier, id int) (*Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s b WHERE b.%s = $1`, selectColumns, schema.Book.Table, schema.Book.ID)

	b, err := scanBook(db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_book")
	}
	return b, nil
}

func (repository *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*Book, int, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s b
		ORDER BY b.%s ASC, b.%s ASC
		LIMIT $1 OFFSET $2
	`, selectColumns, schema.Book.Table, schema.Book.Title, schema.Book.ID)
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s`, schema.Book.Table)

	var total int
	if err := repository.db.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_books")
	}

	rows, err := repository.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_books")
	}
	defer rows.Close()

	books := []*Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_book")
		}
		books = append(books, b)
	}

	return books, total, dberr.Wrap(rows.Err(), "list_books")
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id int) (*Book, error) {
	return findBook(ctx, repository.db, id)
}

/*
Create inserts the book and its author and category links in one transaction.

A statement that inserts nothing (a BEFORE INSERT trigger returning NULL)
yields no row from RETURNING; that case is reported as (nil, nil).
*/
func (repository *PostgresRepository) Create(ctx context.Context, draft *Draft) (*Book, error) {
	transaction, err := repository.db.Begin(ctx)
	if err != nil {
		return nil, dberr.Wrap(err, "begin_create_book")
	}
	defer transaction.Rollback(ctx)

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::date, NOW(), NOW())
		RETURNING %s
	`,
		schema.Book.Table,
		schema.Book.Title, schema.Book.ISBN, schema.Book.Publisher, schema.Book.Edition, schema.Book.Language,
		schema.Book.BookType, schema.Book.Synopsis, schema.Book.PublicationDate,
		schema.Book.CreatedAt, schema.Book.UpdatedAt,
		schema.Book.ID,
	)

	var id int
	err = transaction.QueryRow(ctx, query,
		draft.Title, draft.ISBN, draft.Publisher, draft.Edition, draft.Language,
		string(draft.Type), draft.Synopsis, draft.PublicationDate,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.Wrap(err, "create_book")
	}

	if err := repository.writeLinks(ctx, transaction, id, draft); err != nil {
		return nil, err
	}

	created, err := findBook(ctx, transaction, id)
	if err != nil {
		return nil, err
	}

	if err := transaction.Commit(ctx); err != nil {
		return nil, dberr.Wrap(err, "commit_create_book")
	}
	return created, nil
}

// Update overwrites every column and replaces the author and category links.
func (repository *PostgresRepository) Update(ctx context.Context, id int, draft *Draft) (*Book, error) {
	transaction, err := repository.db.Begin(ctx)
	if err != nil {
		return nil, dberr.Wrap(err, "begin_update_book")
	}
	defer transaction.Rollback(ctx)

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8, %s = $9::date, %s = NOW()
		WHERE %s = $1
	`,
		schema.Book.Table,
		schema.Book.Title, schema.Book.ISBN, schema.Book.Publisher, schema.Book.Edition, schema.Book.Language,
		schema.Book.BookType, schema.Book.Synopsis, schema.Book.PublicationDate, schema.Book.UpdatedAt,
		schema.Book.ID,
	)

	cmd, err := transaction.Exec(ctx, query, id,
		draft.Title, draft.ISBN, draft.Publisher, draft.Edition, draft.Language,
		string(draft.Type), draft.Synopsis, draft.PublicationDate,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "update_book")
	}
	if cmd.RowsAffected() == 0 {
		return nil, dberr.ErrNotFound
	}

	if err := repository.writeLinks(ctx, transaction, id, draft); err != nil {
		return nil, err
	}

	updated, err := findBook(ctx, transaction, id)
	if err != nil {
		return nil, err
	}

	if err := transaction.Commit(ctx); err != nil {
		return nil, dberr.Wrap(err, "commit_update_book")
	}
	return updated, nil
}

// Delete removes the book; its links and copies go with it (ON DELETE CASCADE).
func (repository *PostgresRepository) Delete(ctx context.Context, id int) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Book.Table, schema.Book.ID)

	cmd, err := repository.db.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_book")
	}

	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) writeLinks(ctx context.Context, transaction pgx.Tx, id int, draft *Draft) error {
	err := replaceJunction(ctx, transaction,
		schema.BookAuthor.Table, schema.BookAuthor.BookID, schema.BookAuthor.AuthorID, id, draft.AuthorIDs)
	if err != nil {
		return err
	}

	return replaceJunction(ctx, transaction,
		schema.BookCategory.Table, schema.BookCategory.BookID, schema.BookCategory.CategoryID, id, draft.CategoryIDs)
}

// replaceJunction clears the links of id in table and batch-inserts refs.
func replaceJunction(ctx context.Context, transaction pgx.Tx, table, idCol, refCol string, id int, refs []int) error {
	clearQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table, idCol)
	if _, err := transaction.Exec(ctx, clearQuery, id); err != nil {
		return dberr.Wrap(err, "clear_"+table)
	}

	if len(refs) == 0 {
		return nil
	}

	insert := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`, table, idCol, refCol)
	batch := &pgx.Batch{}
	for _, ref := range refs {
		batch.Queue(insert, id, ref)
	}

	if err := transaction.SendBatch(ctx, batch).Close(); err != nil {
		return dberr.Wrap(err, "link_"+table)
	}
	return nil
}
