package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"mlpipe/pkg/serrors"
)

// ReadCSV parses a headered CSV stream into a Frame.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrInvalidData, err, "could not parse csv")
	}
	if len(records) == 0 {
		return nil, serrors.With(serrors.ErrInvalidData, "csv has no header row")
	}

	return New(records[0], records[1:])
}

// ReadCSVFile parses the CSV file at path into a Frame.
func ReadCSVFile(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, serrors.Wrap(serrors.ErrNotFound, err, "dataset file %q", path)
		}

		return nil, fmt.Errorf("could not open dataset file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	return ReadCSV(f)
}

// WriteCSV serializes the Frame as headered CSV.
func (f *Frame) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.Columns); err != nil {
		return fmt.Errorf("could not write csv header: %w", err)
	}
	if err := writer.WriteAll(f.Rows); err != nil {
		return fmt.Errorf("could not write csv rows: %w", err)
	}
	writer.Flush()

	return writer.Error()
}

// WriteCSVFile serializes the Frame to the file at path.
func (f *Frame) WriteCSVFile(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create dataset file: %w", err)
	}

	if err := f.WriteCSV(out); err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}
