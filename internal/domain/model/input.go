package model

// AddInput carries the arguments of an Add operation. Blank Name and Site
// are replaced by DefaultName and DefaultSite.
type AddInput struct {
	Secret string
	Name   string
	Site   string
	Desc   string
}

// DeleteInput locates the record to delete, either by ID (when positive) or
// by the Name and Site pair.
type DeleteInput struct {
	ID   int64
	Name string
	Site string
}

// UpdateInput describes a partial update. Without an ID the record is located
// by Name and Site and only Secret and Desc may change. With an ID, Name and
// Site are new values as well. Blank fields are left untouched.
type UpdateInput struct {
	ID     int64
	Name   string
	Site   string
	Secret string
	Desc   string
}
