package sink

import (
	"encoding/csv"
	"io"
	"os"
)

// CSVWriter writes rows as CSV with a header, flushing after every row so the
// file is usable while a long sweep is still running.
type CSVWriter struct {
	w        *csv.Writer
	closer   io.Closer
	counters []string
	header   bool
}

// NewCSVWriter writes to w. counters fixes the counter columns.
func NewCSVWriter(w io.Writer, counters []string) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w), counters: counters}
}

// NewCSVFile creates (truncating) the CSV file at path.
func NewCSVFile(path string, counters []string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	cw := NewCSVWriter(f, counters)
	cw.closer = f
	return cw, nil
}

// Write appends one row.
func (c *CSVWriter) Write(row Row) error {
	if !c.header {
		if err := c.w.Write(Header(c.counters)); err != nil {
			return err
		}
		c.header = true
	}
	if err := c.w.Write(row.Record(c.counters)); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

// Close flushes and closes the underlying file, if any.
func (c *CSVWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return err
	}
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
