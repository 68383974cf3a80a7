package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hujadis/geraship/internal/domain"
	"github.com/hujadis/geraship/internal/ports"
)

// PositionCSVHeader is the column order written by WritePositionsCSV.
// Readers match columns by name, so files may reorder or omit optional ones.
var PositionCSVHeader = []string{
	"id", "asset", "size", "entry_price", "leverage", "is_long", "pnl",
	"pnl_percentage", "status", "created_at", "updated_at", "address",
}

// WritePositionsCSV writes positions with a header row. Absent optional
// values are written as empty cells.
func WritePositionsCSV(w io.Writer, positions []domain.Position) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(PositionCSVHeader); err != nil {
		return err
	}
	for _, p := range positions {
		record := []string{
			strconv.FormatInt(p.ID, 10),
			p.Asset,
			formatFloat(p.Size),
			formatFloat(p.EntryPrice),
			formatFloat(p.Leverage),
			formatBool(p.IsLong),
			formatFloat(p.PnL),
			formatFloat(p.PnLPercentage),
			p.Status,
			formatTime(p.CreatedAt),
			formatTime(p.UpdatedAt),
			p.Address,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WritePositionsToCSV writes positions to filename, creating parent directories.
func WritePositionsToCSV(positions []domain.Position, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WritePositionsCSV(file, positions); err != nil {
		return err
	}
	return file.Close()
}

// ReadPositionsCSV parses a position CSV with a header row. Every row must
// parse; a malformed cell fails the whole read with ports.ErrMalformedRecord.
func ReadPositionsCSV(r io.Reader) ([]domain.Position, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []domain.Position{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w: %w", ports.ErrMalformedRecord, err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	positions := make([]domain.Position, 0)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %w", line, ports.ErrMalformedRecord, err)
		}
		p, err := parsePositionRecord(columns, record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %w", line, ports.ErrMalformedRecord, err)
		}
		positions = append(positions, p)
	}
	return positions, nil
}

// ReadPositionsFromCSV reads a position CSV file.
func ReadPositionsFromCSV(filename string) ([]domain.Position, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadPositionsCSV(file)
}

func parsePositionRecord(columns map[string]int, record []string) (domain.Position, error) {
	cell := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var p domain.Position
	var err error
	if raw := cell("id"); raw != "" {
		if p.ID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return p, fmt.Errorf("id %q: %w", raw, err)
		}
	}
	p.Asset = cell("asset")
	p.Status = cell("status")
	p.Address = cell("address")

	floats := []struct {
		name string
		dst  **float64
	}{
		{"size", &p.Size},
		{"entry_price", &p.EntryPrice},
		{"leverage", &p.Leverage},
		{"pnl", &p.PnL},
		{"pnl_percentage", &p.PnLPercentage},
	}
	for _, f := range floats {
		if *f.dst, err = parseFloat(f.name, cell(f.name)); err != nil {
			return p, err
		}
	}
	if p.IsLong, err = parseBool(cell("is_long")); err != nil {
		return p, err
	}
	if p.CreatedAt, err = parseTime("created_at", cell("created_at")); err != nil {
		return p, err
	}
	if p.UpdatedAt, err = parseTime("updated_at", cell("updated_at")); err != nil {
		return p, err
	}
	return p, nil
}

func parseFloat(name, raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", name, raw, err)
	}
	return domain.Float(d.InexactFloat64()), nil
}

func parseBool(raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	switch strings.ToLower(raw) {
	case "long":
		return domain.Bool(true), nil
	case "short":
		return domain.Bool(false), nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("is_long %q: %w", raw, err)
	}
	return domain.Bool(v), nil
}

func parseTime(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", name, raw, err)
	}
	return domain.Time(t), nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func formatTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}
