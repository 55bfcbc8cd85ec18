// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package book manages the catalogue of books and keeps the search index in step
with it.

Creation is asynchronous: the API validates a [Draft] and enqueues it, and the
worker persists it and indexes the result (see [Ingestor]). Update and delete
run synchronously and propagate to the index before returning.
*/
package book

import (
	"time"

	"github.com/taibuivan/libris/internal/platform/searchindex"
	"github.com/taibuivan/libris/pkg/pointer"
)

// Type is the medium a book is published in.
type Type string

const (
	TypePhysical Type = "physical"
	TypeEbook    Type = "ebook"
)

// Types lists every valid book type.
func Types() []string {
	return []string{string(TypePhysical), string(TypeEbook)}
}

// Book is a persisted catalogue entry together with the names of its authors
// and categories.
type Book struct {
	ID              int       `json:"id"`
	Title           string    `json:"title"`
	ISBN            string    `json:"isbn"`
	Publisher       string    `json:"publisher"`
	Edition         string    `json:"edition"`
	Language        string    `json:"language"`
	Type            Type      `json:"type"`
	Synopsis        *string   `json:"synopsis"`
	PublicationDate string    `json:"publication_date"`
	AuthorIDs       []int     `json:"author_ids"`
	CategoryIDs     []int     `json:"category_ids"`
	Authors         []string  `json:"authors"`
	Categories      []string  `json:"categories"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Draft is a book as submitted by a client, before it has an identifier.
// PublicationDate is a calendar date in YYYY-MM-DD form; it travels through
// the task queue in that form.
type Draft struct {
	Title           string  `json:"title"`
	ISBN            string  `json:"isbn"`
	Publisher       string  `json:"publisher"`
	Edition         string  `json:"edition"`
	Language        string  `json:"language"`
	Type            Type    `json:"type"`
	Synopsis        *string `json:"synopsis"`
	PublicationDate string  `json:"publication_date"`
	AuthorIDs       []int   `json:"author_ids"`
	CategoryIDs     []int   `json:"category_ids"`
}

// SearchDocument is the index projection of a book.
type SearchDocument = searchindex.Document

// Project derives the index document of a just-persisted book.
func Project(b *Book) SearchDocument {
	return SearchDocument{
		ISBN:            b.ISBN,
		Title:           b.Title,
		Synopsis:        pointer.Val(b.Synopsis),
		Authors:         append([]string{}, b.Authors...),
		Categories:      append([]string{}, b.Categories...),
		PublicationDate: b.PublicationDate,
	}
}

// Global field names for validation
const (
	FieldTitle           = "title"
	FieldISBN            = "isbn"
	FieldPublisher       = "publisher"
	FieldEdition         = "edition"
	FieldLanguage        = "language"
	FieldType            = "type"
	FieldPublicationDate = "publication_date"
	FieldAuthorIDs       = "author_ids"
	FieldCategoryIDs     = "category_ids"
)

// Field length limits.
const (
	maxTitle     = 255
	maxISBN      = 20
	maxPublisher = 255
	maxEdition   = 50
	maxLanguage  = 100
)

// entityName is used in NotFound messages.
const entityName = "Book"
