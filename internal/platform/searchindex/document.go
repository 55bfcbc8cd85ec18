// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package searchindex keeps the full-text index of books in RediSearch.

Each book is one Redis hash under libris:book:<isbn>. The searchable fields
hold accent-folded text; the original document is stored as JSON in the
payload field and is what searches return.

Schema:

  - title       TEXT WEIGHT 3
  - synopsis    TEXT
  - authors     TEXT
  - categories  TAG (separator "|")
  - publication_date TAG
*/
package searchindex

import (
	"strings"

	"github.com/taibuivan/libris/pkg/textfold"
)

// Document is the denormalized projection of a book kept in the index.
type Document struct {
	ISBN            string   `json:"isbn"`
	Title           string   `json:"title"`
	Synopsis        string   `json:"synopsis"`
	Authors         []string `json:"authors"`
	Categories      []string `json:"categories"`
	PublicationDate string   `json:"publication_date"`
}

// Hash field names.
const (
	FieldTitle           = "title"
	FieldSynopsis        = "synopsis"
	FieldAuthors         = "authors"
	FieldCategories      = "categories"
	FieldPublicationDate = "publication_date"
	FieldPayload         = "payload"
)

const tagSeparator = "|"

// hashFields flattens doc into the folded hash values written by Upsert.
func hashFields(doc Document, payload string) map[string]any {
	categories := make([]string, 0, len(doc.Categories))
	for _, category := range doc.Categories {
		categories = append(categories, strings.ReplaceAll(textfold.Fold(category), tagSeparator, " "))
	}

	return map[string]any{
		FieldTitle:           textfold.Fold(doc.Title),
		FieldSynopsis:        textfold.Fold(doc.Synopsis),
		FieldAuthors:         textfold.Fold(strings.Join(doc.Authors, ", ")),
		FieldCategories:      strings.Join(categories, tagSeparator),
		FieldPublicationDate: doc.PublicationDate,
		FieldPayload:         payload,
	}
}

// fuzzyMinLength is the shortest token searched with Levenshtein distance 1.
// Shorter tokens match as prefixes, single characters are ignored.
const (
	fuzzyMinLength  = 4
	prefixMinLength = 2
)

/*
BuildQuery turns free text into a RediSearch query over title, synopsis and authors.

Each folded token becomes a fuzzy term (%token%) or, when short, a prefix
term (token*). Tokens are implicitly intersected. Input without usable
tokens yields "".

Example:

	BuildQuery("Dom Casmurro") // "@title|synopsis|authors:(dom* %casmurro%)"
*/
func BuildQuery(text string) string {
	tokens := textfold.Tokens(text)
	if len(tokens) == 0 {
		return ""
	}

	terms := make([]string, 0, len(tokens))
	for _, token := range tokens {
		switch length := len([]rune(token)); {
		case length >= fuzzyMinLength:
			terms = append(terms, "%"+token+"%")
		case length >= prefixMinLength:
			terms = append(terms, token+"*")
		}
	}

	if len(terms) == 0 {
		return ""
	}

	return "@" + FieldTitle + "|" + FieldSynopsis + "|" + FieldAuthors + ":(" + strings.Join(terms, " ") + ")"
}
