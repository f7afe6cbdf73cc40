package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVRowReader reads a header-first CSV stream and yields each data
// row as a column-name -> value map, the shape source transforms
// expect.
type CSVRowReader struct {
	r      *csv.Reader
	header []string
}

func NewCSVRowReader(r io.Reader) *CSVRowReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return &CSVRowReader{r: cr}
}

func (c *CSVRowReader) Next() (map[string]string, error) {
	if c.header == nil {
		header, err := c.r.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv header: %w", err)
		}
		c.header = header
	}

	fields, err := c.r.Read()
	if err != nil {
		return nil, err
	}
	row := make(map[string]string, len(c.header))
	for i, name := range c.header {
		if i < len(fields) {
			row[name] = fields[i]
		} else {
			row[name] = ""
		}
	}
	return row, nil
}

// sliceRowReader serves rows from memory.
type sliceRowReader struct {
	rows []map[string]string
}

// SliceRows wraps in-memory rows as a RowReader.
func SliceRows(rows []map[string]string) RowReader {
	return &sliceRowReader{rows: rows}
}

func (s *sliceRowReader) Next() (map[string]string, error) {
	if len(s.rows) == 0 {
		return nil, io.EOF
	}
	row := s.rows[0]
	s.rows = s.rows[1:]
	return row, nil
}
