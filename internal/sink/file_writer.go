package sink

import (
	"encoding/json"
	"os"
)

// FileWriter writes rows and progress updates to JSONL files.
type FileWriter struct {
	rowFile      *os.File
	progressFile *os.File
	rowEnc       *json.Encoder
	progressEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. progressPath may be empty to skip the
// progress log.
func NewFileWriter(rowPath, progressPath string) (*FileWriter, error) {
	rf, err := os.Create(rowPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{rowFile: rf, rowEnc: json.NewEncoder(rf)}
	if progressPath != "" {
		pf, err := os.Create(progressPath)
		if err != nil {
			rf.Close()
			return nil, err
		}
		fw.progressFile = pf
		fw.progressEnc = json.NewEncoder(pf)
	}
	return fw, nil
}

// Write logs a single row.
func (f *FileWriter) Write(row Row) error {
	return f.rowEnc.Encode(row)
}

// WriteBatch logs multiple rows.
func (f *FileWriter) WriteBatch(rows []Row) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteProgress logs a progress update, if enabled.
func (f *FileWriter) WriteProgress(p Progress) error {
	if f.progressEnc == nil {
		return nil
	}
	return f.progressEnc.Encode(p)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.rowFile != nil {
		if e := f.rowFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.progressFile != nil {
		if e := f.progressFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
