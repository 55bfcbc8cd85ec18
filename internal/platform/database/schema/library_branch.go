package schema

// BranchTable represents the 'library.branch' table
type BranchTable struct {
	Table     string
	ID        string
	Name      string
	Location  string
	CreatedAt string
	UpdatedAt string
}

// Branch is the schema definition for library.branch
var Branch = BranchTable{
	Table:     "library.branch",
	ID:        "id",
	Name:      "name",
	Location:  "location",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

func (t BranchTable) Columns() []string {
	return []string{t.ID, t.Name, t.Location, t.CreatedAt, t.UpdatedAt}
}
