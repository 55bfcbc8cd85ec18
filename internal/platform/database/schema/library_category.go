package schema

// CategoryTable represents the 'library.category' table
type CategoryTable struct {
	Table     string
	ID        string
	Name      string
	CreatedAt string
	UpdatedAt string
}

// Category is the schema definition for library.category
var Category = CategoryTable{
	Table:     "library.category",
	ID:        "id",
	Name:      "name",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

func (t CategoryTable) Columns() []string {
	return []string{t.ID, t.Name, t.CreatedAt, t.UpdatedAt}
}
