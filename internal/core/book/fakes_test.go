// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package book_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/libris/internal/core/book"
	"github.com/taibuivan/libris/internal/platform/apperr"
	"github.com/taibuivan/libris/internal/platform/dberr"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryRepository is an in-memory book.Repository with a unique ISBN
// constraint and fixed author and category names.
type memoryRepository struct {
	mu         sync.Mutex
	nextID     int
	rows       map[int]*book.Book
	authors    map[int]string
	categories map[int]string

	// dropCreates makes Create report that no row was produced.
	dropCreates bool

	creates int
	updates int
	deletes int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		nextID: 1,
		rows:   make(map[int]*book.Book),
		authors: map[int]string{
			1: "Machado de Assis",
			2: "Clarice Lispector",
		},
		categories: map[int]string{
			1: "Romance",
			2: "Ficção Brasileira",
		},
	}
}

func (r *memoryRepository) List(_ context.Context, limit, offset int) ([]*book.Book, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := []*book.Book{}
	for _, id := range ids {
		out = append(out, r.rows[id])
	}
	if offset >= len(out) {
		return []*book.Book{}, len(ids), nil
	}
	return out[offset:min(offset+limit, len(out))], len(ids), nil
}

func (r *memoryRepository) FindByID(_ context.Context, id int) (*book.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	clone := *row
	return &clone, nil
}

func (r *memoryRepository) Create(_ context.Context, draft *book.Draft) (*book.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.creates++
	if r.dropCreates {
		return nil, nil
	}
	if r.isbnTaken(draft.ISBN, 0) {
		return nil, apperr.Conflict("Resource already exists")
	}

	row := r.materialize(r.nextID, draft)
	row.CreatedAt = time.Now()
	r.rows[row.ID] = row
	r.nextID++

	clone := *row
	return &clone, nil
}

func (r *memoryRepository) Update(_ context.Context, id int, draft *book.Draft) (*book.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.updates++
	current, ok := r.rows[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	if r.isbnTaken(draft.ISBN, id) {
		return nil, apperr.Conflict("Resource already exists")
	}

	row := r.materialize(id, draft)
	row.CreatedAt = current.CreatedAt
	r.rows[id] = row

	clone := *row
	return &clone, nil
}

func (r *memoryRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deletes++
	if _, ok := r.rows[id]; !ok {
		return dberr.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memoryRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *memoryRepository) isbnTaken(isbn string, except int) bool {
	for id, row := range r.rows {
		if id != except && row.ISBN == isbn {
			return true
		}
	}
	return false
}

func (r *memoryRepository) materialize(id int, draft *book.Draft) *book.Book {
	row := &book.Book{
		ID:              id,
		Title:           draft.Title,
		ISBN:            draft.ISBN,
		Publisher:       draft.Publisher,
		Edition:         draft.Edition,
		Language:        draft.Language,
		Type:            draft.Type,
		Synopsis:        draft.Synopsis,
		PublicationDate: draft.PublicationDate,
		AuthorIDs:       append([]int{}, draft.AuthorIDs...),
		CategoryIDs:     append([]int{}, draft.CategoryIDs...),
		Authors:         []string{},
		Categories:      []string{},
		UpdatedAt:       time.Now(),
	}
	for _, authorID := range draft.AuthorIDs {
		row.Authors = append(row.Authors, r.authors[authorID])
	}
	for _, categoryID := range draft.CategoryIDs {
		row.Categories = append(row.Categories, r.categories[categoryID])
	}
	return row
}

// memoryIndex is an in-memory book.Index keyed by ISBN.
type memoryIndex struct {
	mu      sync.Mutex
	docs    map[string]book.SearchDocument
	upserts int
	deletes int

	// failUpserts makes Upsert fail this many more times; negative fails forever.
	failUpserts int
	failSearch  bool
}

var (
	errIndexDown = errors.New("index unavailable")
	errStoreDown = errors.New("connection refused")
)

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{docs: make(map[string]book.SearchDocument)}
}

func (i *memoryIndex) Upsert(_ context.Context, doc book.SearchDocument) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.upserts++
	if i.failUpserts != 0 {
		if i.failUpserts > 0 {
			i.failUpserts--
		}
		return errIndexDown
	}
	i.docs[doc.ISBN] = doc
	return nil
}

func (i *memoryIndex) Delete(_ context.Context, isbn string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.deletes++
	delete(i.docs, isbn)
	return nil
}

func (i *memoryIndex) Search(_ context.Context, text string, limit int) ([]book.SearchDocument, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.failSearch {
		return nil, errIndexDown
	}

	out := []book.SearchDocument{}
	for _, doc := range i.docs {
		if len(out) < limit && doc.Title == text {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (i *memoryIndex) doc(isbn string) (book.SearchDocument, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	doc, ok := i.docs[isbn]
	return doc, ok
}

func domCasmurro() *book.Draft {
	synopsis := "Bentinho e Capitu."
	return &book.Draft{
		Title:           "Dom Casmurro",
		ISBN:            "9788535910667",
		Publisher:       "Penguin-Companhia",
		Edition:         "1ª",
		Language:        "Português",
		Type:            book.TypePhysical,
		Synopsis:        &synopsis,
		PublicationDate: "1899-01-01",
		AuthorIDs:       []int{1},
		CategoryIDs:     []int{1, 2},
	}
}
