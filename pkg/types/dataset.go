package types

// Dataset holds the tabular parameterization data attached to one test
// record. Immutable once loaded; only its packaging destination (which
// key-named file) is computed by the core. Column and row order are
// preserved from the source.
type Dataset struct {
	RecordID string     `json:"record_id"`
	Columns  []string   `json:"columns"`
	Rows     [][]string `json:"rows"`
}
