// Package history loads the historical reservoir record from CSV.
package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/reservoir-forecast-service/internal/domain"
)

// Default column names of the cleaned reservoir export.
const (
	DefaultDateColumn  = "fecha"
	DefaultValueColumn = "total"
)

// dateLayouts are tried in order when parsing the date column.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
	"2006-01",
}

// Loader reads a HistoricalRecord from a CSV file.
type Loader struct {
	dateColumn  string
	valueColumn string
	logger      *slog.Logger
}

// NewLoader creates a Loader for the given column names. Empty names fall
// back to "fecha" and "total".
func NewLoader(dateColumn, valueColumn string, logger *slog.Logger) *Loader {
	if dateColumn == "" {
		dateColumn = DefaultDateColumn
	}
	if valueColumn == "" {
		valueColumn = DefaultValueColumn
	}
	return &Loader{dateColumn: dateColumn, valueColumn: valueColumn, logger: logger}
}

// Load opens path and parses it. It fails with domain.ErrNotFound when the
// file does not exist and domain.ErrSchema when a required column is missing
// or a present cell cannot be parsed. Rows with an empty date or total are
// dropped; the result is sorted ascending by date.
func (l *Loader) Load(path string) (domain.HistoricalRecord, error) {
	record, dropped, err := l.ParseFile(path)
	if err != nil {
		return nil, err
	}

	l.logger.Info("history loaded",
		"path", path,
		"rows", len(record),
		"dropped", dropped,
	)
	return record, nil
}

// ParseFile opens path and parses it like Load, also returning the number of
// dropped rows. A missing file is domain.ErrNotFound.
func (l *Loader) ParseFile(path string) (domain.HistoricalRecord, int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, 0, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	record, dropped, err := l.Parse(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	return record, dropped, nil
}

// Parse reads CSV rows from r. It returns the cleaned record and the number
// of rows dropped for a missing date or total.
func (l *Loader) Parse(r io.Reader) (domain.HistoricalRecord, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("%w: empty file", domain.ErrSchema)
		}
		return nil, 0, fmt.Errorf("%w: read header: %v", domain.ErrSchema, err)
	}

	dateIdx, valueIdx := columnIndex(header, l.dateColumn), columnIndex(header, l.valueColumn)
	if dateIdx < 0 || valueIdx < 0 {
		return nil, 0, fmt.Errorf("%w: required columns %q and %q, found %v",
			domain.ErrSchema, l.dateColumn, l.valueColumn, header)
	}

	var (
		record  domain.HistoricalRecord
		dropped int
		line    = 1
	)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, 0, fmt.Errorf("%w: line %d: %v", domain.ErrSchema, line, err)
		}

		rawDate, rawValue := cell(row, dateIdx), cell(row, valueIdx)
		if rawDate == "" || rawValue == "" {
			dropped++
			continue
		}

		date, err := parseDate(rawDate)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: line %d: %v", domain.ErrSchema, line, err)
		}
		value, err := strconv.ParseFloat(rawValue, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: line %d: total %q is not a number", domain.ErrSchema, line, rawValue)
		}
		record = append(record, domain.Observation{Date: date, Volume: value})
	}

	sort.SliceStable(record, func(i, j int) bool {
		return record[i].Date.Before(record[j].Date)
	})
	return record, dropped, nil
}

// columnIndex finds a header by case-insensitive name, ignoring a UTF-8 BOM.
func columnIndex(header []string, name string) int {
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[idx])
	switch strings.ToLower(v) {
	case "na", "nan", "null", "none":
		return ""
	}
	return v
}

// parseDate keeps the calendar date as written, dropping the time of day and
// any zone offset.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q not in a recognized format", s)
}
