package task

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
)

// FileSnapshotter keeps records in a CSV file with a header line:
//
//	id,type,name,status,description,duration,startTime,endTime,epic
//
// Every Save rewrites the whole file.
type FileSnapshotter struct {
	path string
}

// NewFileSnapshotter returns a snapshotter for the file at path.
func NewFileSnapshotter(path string) *FileSnapshotter {
	return &FileSnapshotter{path: path}
}

func (f *FileSnapshotter) Path() string {
	return f.path
}

// Save writes records to a temporary file next to the target and renames
// it into place.
func (f *FileSnapshotter) Save(_ context.Context, records []Task) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeRecords(tmp, records); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

// Load reads every record. A missing file is an error that wraps
// fs.ErrNotExist; an empty file holds no records.
func (f *FileSnapshotter) Load(_ context.Context) ([]Task, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer file.Close()

	records, err := readRecords(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return records, nil
}

func writeRecords(w io.Writer, records []Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordHeader); err != nil {
		return err
	}
	for i := range records {
		if err := cw.Write(encodeFields(&records[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func readRecords(r io.Reader) ([]Task, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(recordHeader)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrInvalid, err)
	}
	if !slices.Equal(header, recordHeader) {
		return nil, fmt.Errorf("%w: unexpected header %v", ErrInvalid, header)
	}

	var out []Task
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		line, _ := cr.FieldPos(0)
		t, err := decodeFields(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, *t)
	}
}
