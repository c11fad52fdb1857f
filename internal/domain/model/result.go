package model

// Status is the outcome category of a vault operation.
type Status string

// Status values. Everything but StatusOK is a recoverable outcome the caller
// may retry with corrected input.
const (
	StatusOK       Status = "ok"
	StatusInvalid  Status = "invalid"
	StatusConflict Status = "conflict"
	StatusNotFound Status = "not_found"
)

// Result is the structured outcome of Add, Delete and Update.
type Result struct {
	Status  Status
	Message string
	// ID identifies the affected record when Status is StatusOK.
	ID int64
	// Name is the label actually stored, which may carry a ~N suffix
	// after conflict resolution on Add.
	Name string
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Status == StatusOK
}
