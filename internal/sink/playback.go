package sink

import (
	"encoding/json"
	"io"
	"os"
)

// ReplayLog re-emits rows previously written by a FileWriter.
func ReplayLog(r io.Reader, writer RowWriter) (int, error) {
	dec := json.NewDecoder(r)
	n := 0
	for {
		var row Row
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				return n, nil
			}
			return n, err
		}
		if err := writer.Write(row); err != nil {
			return n, err
		}
		n++
	}
}

// ReplayLogFile opens a file and replays its rows.
func ReplayLogFile(path string, writer RowWriter) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ReplayLog(f, writer)
}
