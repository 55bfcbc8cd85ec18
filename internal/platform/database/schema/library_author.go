package schema

// AuthorTable represents the 'library.author' table
type AuthorTable struct {
	Table     string
	ID        string
	Name      string
	CreatedAt string
	UpdatedAt string
}

// Author is the schema definition for library.author
var Author = AuthorTable{
	Table:     "library.author",
	ID:        "id",
	Name:      "name",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

func (t AuthorTable) Columns() []string {
	return []string{t.ID, t.Name, t.CreatedAt, t.UpdatedAt}
}
