package backup

import (
	"archive/zip"
	"bufio"
	"bytes"
	"errors"
	"io"
	"iter"

	"encoding/json/v2"
)

// errFileNotFound indicates a file was not found in the archive.
var errFileNotFound = errors.New("file not found in archive")

// openFile finds and opens a file from a zip archive.
func openFile(zr *zip.Reader, path string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == path {
			return f.Open()
		}
	}
	return nil, errFileNotFound
}

// jsonlWriter streams records as JSONL into a zip archive.
type jsonlWriter struct {
	w     io.Writer
	count int
}

// newJSONLWriter creates a JSONL writer for a path within the zip.
func newJSONLWriter(zw *zip.Writer, path string) (*jsonlWriter, error) {
	w, err := zw.Create(path)
	if err != nil {
		return nil, err
	}
	return &jsonlWriter{w: w}, nil
}

// write encodes a single record as a JSON line.
func (w *jsonlWriter) write(record any) error {
	if err := json.MarshalWrite(w.w, record); err != nil {
		return err
	}
	if _, err := w.w.Write([]byte{'\n'}); err != nil {
		return err
	}
	w.count++
	return nil
}

// readJSONL iterates records from a JSONL file in a zip archive.
// Lines that fail to parse are yielded with their error so the caller can
// count them without aborting the import.
func readJSONL[T any](zr *zip.Reader, path string) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		rc, err := openFile(zr, path)
		if err != nil {
			// A missing entity file is an empty export, not an error.
			return
		}
		defer rc.Close()

		scanner := bufio.NewScanner(rc)
		scanner.Buffer(make([]byte, 0, 64*1024), 64<<20)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var record T
			if err := json.UnmarshalRead(bytes.NewReader(line), &record); err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			if !yield(&record, nil) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			yield(nil, err)
		}
	}
}
