// Package bulk moves entity data in and out of tabular files. Imports are
// all-or-nothing: every row of the file is applied inside one transaction and
// any bad row rolls the whole batch back with a single aggregated error.
package bulk

import (
	"fmt"
	"io"
	"time"

	"datapro-service/internal/tenancy"

	"gorm.io/gorm"
)

// Spec describes how one entity maps to rows of a tabular file
type Spec[T any] struct {
	// Entity is the plural name used for download filenames
	Entity string

	// Headers is the column order for exports and the set of recognized
	// import columns
	Headers []string

	// Row serializes one record. Dates must come out as ISO-8601 and
	// foreign keys as their primary key.
	Row func(obj *T) []string

	// FromRow builds a record from a header-keyed row. Foreign-key columns
	// are resolved by primary key lookup; a missing referent leaves the
	// field empty rather than failing the row.
	FromRow func(db *gorm.DB, actor *tenancy.Actor, row map[string]string) (*T, error)
}

// Filename names a download after the entity and the current date
func (s *Spec[T]) Filename(ext string) string {
	return fmt.Sprintf("%s_%s.%s", s.Entity, time.Now().Format("20060102"), ext)
}

// Import applies every parsed row inside one transaction, stamping the actor
// into the tracking columns. The first failing row aborts the batch; nothing
// is persisted and the error names the offending row.
func (s *Spec[T]) Import(db *gorm.DB, actor *tenancy.Actor, rows []map[string]string) (int, error) {
	count := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for i, row := range rows {
			obj, err := s.FromRow(tx, actor, row)
			if err != nil {
				return fmt.Errorf("import aborted at row %d: %w", i+1, err)
			}
			if err := tenancy.Authorize(tx, actor, obj); err != nil {
				return fmt.Errorf("import aborted at row %d: %w", i+1, err)
			}
			if err := tx.Create(obj).Error; err != nil {
				return fmt.Errorf("import aborted at row %d: %w", i+1, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Export serializes the records through the given writer function
func (s *Spec[T]) Export(items []T, write func(headers []string, rows [][]string) error) error {
	rows := make([][]string, 0, len(items))
	for i := range items {
		rows = append(rows, s.Row(&items[i]))
	}
	return write(s.Headers, rows)
}

// ExportCSV writes the records as CSV
func (s *Spec[T]) ExportCSV(w io.Writer, items []T) error {
	return s.Export(items, func(headers []string, rows [][]string) error {
		return WriteCSV(w, headers, rows)
	})
}

// ExportXLSX writes the records as a single-sheet spreadsheet
func (s *Spec[T]) ExportXLSX(w io.Writer, items []T) error {
	return s.Export(items, func(headers []string, rows [][]string) error {
		return WriteXLSX(w, s.Entity, headers, rows)
	})
}
