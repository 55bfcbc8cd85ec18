package schema

// BookAuthorTable represents the 'library.bookauthor' table
type BookAuthorTable struct {
	Table    string
	BookID   string
	AuthorID string
}

// BookAuthor is the schema definition for library.bookauthor
var BookAuthor = BookAuthorTable{
	Table:    "library.bookauthor",
	BookID:   "bookid",
	AuthorID: "authorid",
}
