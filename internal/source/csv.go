// Package source provides row sources for the ingestion pipeline.
//
// Sources tolerate the usual CSV mess: UTF-8 BOMs from Windows exports,
// invalid byte sequences, ragged rows, and blank lines. A file that cannot
// be read or parsed at all fails the whole entity's stage; a single short
// row only loses its missing columns and is judged by row validation.
package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/proshopdata/salespipe/internal/ingest"
)

// DefaultMaxFileSize caps source files at 100MB unless configured.
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// CSVFile is a restartable row source backed by one CSV file.
// Every Rows call re-reads the file, so repeated calls see the same data.
type CSVFile struct {
	path    string
	maxSize int64
}

// NewCSVFile creates a source for the given path.
// maxSize <= 0 selects DefaultMaxFileSize.
func NewCSVFile(path string, maxSize int64) *CSVFile {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &CSVFile{path: path, maxSize: maxSize}
}

// Name implements ingest.RowSource.
func (f *CSVFile) Name() string {
	return filepath.Base(f.path)
}

// Rows implements ingest.RowSource. The first record is the header; its
// cleaned, lowercased cells become the column names of every row map.
// Columns a row does not have are absent keys, and fully blank rows are
// dropped.
func (f *CSVFile) Rows(ctx context.Context) ([]ingest.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(f.path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", f.path, err)
	}
	if info.Size() > f.maxSize {
		return nil, fmt.Errorf("%s exceeds %dMB limit", f.Name(), f.maxSize/(1024*1024))
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	data = sanitizeUTF8(stripBOM(data))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Name(), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file", f.Name())
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.ToLower(ingest.CleanCell(h))
	}

	rows := make([]ingest.RawRow, 0, len(records)-1)
	for _, record := range records[1:] {
		if isEmptyRow(record) {
			continue
		}
		row := make(ingest.RawRow, len(header))
		for i, value := range record {
			if i >= len(header) || header[i] == "" {
				continue
			}
			row[header[i]] = value
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Discover returns a source for each registered entity that has a
// matching <entity>.csv file in dir. Entities without a file are simply
// absent from the result.
func Discover(dir string, maxSize int64) map[string]ingest.RowSource {
	sources := make(map[string]ingest.RowSource)
	for _, def := range ingest.Definitions() {
		path := filepath.Join(dir, def.Entity+".csv")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		sources[def.Entity] = NewCSVFile(path, maxSize)
	}
	return sources
}

// stripBOM removes a leading UTF-8 BOM (0xEF 0xBB 0xBF), commonly added
// by Windows programs.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with the replacement
// character so the CSV reader never chokes on encoding damage.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

// isEmptyRow reports whether every cell is blank.
func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
