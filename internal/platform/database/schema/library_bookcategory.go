package schema

// BookCategoryTable represents the 'library.bookcategory' table
type BookCategoryTable struct {
	Table      string
	BookID     string
	CategoryID string
}

// BookCategory is the schema definition for library.bookcategory
var BookCategory = BookCategoryTable{
	Table:      "library.bookcategory",
	BookID:     "bookid",
	CategoryID: "categoryid",
}
