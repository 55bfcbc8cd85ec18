package schema

// BookTable represents the 'library.book' table
type BookTable struct {
	Table           string
	ID              string
	Title           string
	ISBN            string
	Publisher       string
	Edition         string
	Language        string
	BookType        string
	Synopsis        string
	PublicationDate string
	CreatedAt       string
	UpdatedAt       string
}

// Book is the schema definition for library.book
var Book = BookTable{
	Table:           "library.book",
	ID:              "id",
	Title:           "title",
	ISBN:            "isbn",
	Publisher:       "publisher",
	Edition:         "edition",
	Language:        "language",
	BookType:        "booktype",
	Synopsis:        "synopsis",
	PublicationDate: "publicationdate",
	CreatedAt:       "createdat",
	UpdatedAt:       "updatedat",
}

func (t BookTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.ISBN, t.Publisher, t.Edition, t.Language,
		t.BookType, t.Synopsis, t.PublicationDate, t.CreatedAt, t.UpdatedAt,
	}
}
