package bulk

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"datapro-service/internal/model"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ParseCSV reads a header-first CSV into header-keyed rows
func ParseCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("file has no header row")
	}
	return keyRows(records[0], records[1:]), nil
}

// ParseXLSX reads the first sheet of a spreadsheet into header-keyed rows
func ParseXLSX(r io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("file has no header row")
	}
	return keyRows(rows[0], rows[1:]), nil
}

func keyRows(header []string, body [][]string) []map[string]string {
	keyed := make([]map[string]string, 0, len(body))
	for _, record := range body {
		row := make(map[string]string, len(header))
		for i, col := range header {
			col = strings.TrimSpace(strings.ToLower(col))
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			} else {
				row[col] = ""
			}
		}
		keyed = append(keyed, row)
	}
	return keyed
}

// WriteCSV writes a header row followed by the data rows
func WriteCSV(w io.Writer, headers []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(headers); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes a single-sheet workbook
func WriteXLSX(w io.Writer, sheet string, headers []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	const defaultSheet = "Sheet1"
	if sheet != defaultSheet {
		f.SetSheetName(defaultSheet, sheet)
	}

	toRow := func(values []string) []interface{} {
		cells := make([]interface{}, len(values))
		for i, v := range values {
			cells[i] = v
		}
		return cells
	}

	if err := f.SetSheetRow(sheet, "A1", ptr(toRow(headers))); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, ptr(toRow(row))); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func ptr(v []interface{}) *[]interface{} { return &v }

// FormatDate serializes a date as ISO-8601, empty when unset
func FormatDate(d model.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

// FormatDatePtr serializes an optional date
func FormatDatePtr(d *model.Date) string {
	if d == nil {
		return ""
	}
	return FormatDate(*d)
}

// FormatFK serializes an optional foreign key as its primary key
func FormatFK(id *uint) string {
	if id == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*id), 10)
}

// ParseDateField parses a required ISO-8601 date column
func ParseDateField(row map[string]string, col string) (model.Date, error) {
	v := row[col]
	if v == "" {
		return model.Date{}, nil
	}
	return model.ParseDate(v)
}

// ParseDatePtrField parses an optional ISO-8601 date column
func ParseDatePtrField(row map[string]string, col string) (*model.Date, error) {
	v := row[col]
	if v == "" {
		return nil, nil
	}
	d, err := model.ParseDate(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseFloatField parses a numeric column, zero when empty
func ParseFloatField(row map[string]string, col string) (float64, error) {
	v := row[col]
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: invalid number %q", col, v)
	}
	return f, nil
}

// ParseIntField parses an integer column, zero when empty
func ParseIntField(row map[string]string, col string) (int, error) {
	v := row[col]
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("column %s: invalid integer %q", col, v)
	}
	return n, nil
}

// ResolveFK looks up a referenced row by primary key. A blank column or a
// reference that does not exist resolves to nil, not an error.
func ResolveFK(db *gorm.DB, dest interface{}, row map[string]string, col string) (*uint, error) {
	v := row[col]
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("column %s: invalid id %q", col, v)
	}
	err = db.First(dest, uint(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u := uint(id)
	return &u, nil
}
