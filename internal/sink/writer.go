package sink

// RowWriter consumes result rows as conditions complete.
type RowWriter interface {
	Write(Row) error
}

// Optional: writers can also support batch mode.
type batchWriter interface {
	WriteBatch([]Row) error
}

// Progress reports how far a sweep has come.
type Progress struct {
	SweepID string `json:"sweep_id"`
	Total   int    `json:"total"`
	Done    int    `json:"done"`
	Failed  int    `json:"failed"`
	Current string `json:"current,omitempty"`
	LastErr string `json:"last_error,omitempty"`
}

// ProgressWriter lets writers receive sweep progress updates.
type ProgressWriter interface {
	WriteProgress(Progress) error
}
