package sink

import "sync"

// MemoryWriter keeps every row and the latest progress for later inspection,
// e.g. by the admin server.
type MemoryWriter struct {
	mu       sync.Mutex
	rows     []Row
	progress Progress
}

// Write records a row.
func (m *MemoryWriter) Write(row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, row)
	return nil
}

// WriteProgress records the latest progress.
func (m *MemoryWriter) WriteProgress(p Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress = p
	return nil
}

// Rows returns a copy of the recorded rows.
func (m *MemoryWriter) Rows() []Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Row, len(m.rows))
	copy(out, m.rows)
	return out
}

// Progress returns the latest progress update.
func (m *MemoryWriter) Progress() Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress
}
