package excel

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"gostatsplot/domain/dataset"
)

// DefaultSheet is the sheet written by WriteXLSX
const DefaultSheet = "Sheet1"

func rowValues(t *dataset.Table, i int) []interface{} {
	names := t.Names()
	out := make([]interface{}, len(names))
	for j, n := range names {
		c, _ := t.Column(n)
		if c.IsMissing(i) {
			continue
		}
		if c.Kind == dataset.Numeric {
			out[j] = c.Floats[i]
		} else {
			out[j] = c.Strings[i]
		}
	}
	return out
}

// WriteXLSX writes t to w as a single-sheet workbook. Missing values are
// left blank.
func WriteXLSX(w io.Writer, t *dataset.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	names := t.Names()
	header := make([]interface{}, len(names))
	for j, n := range names {
		header[j] = n
	}
	if err := f.SetSheetRow(DefaultSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := 0; i < t.Len(); i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := rowValues(t, i)
		if err := f.SetSheetRow(DefaultSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	return f.Write(w)
}

// WriteCSV writes t to w with a header row. Missing values are written as NA.
func WriteCSV(w io.Writer, t *dataset.Table) error {
	cw := csv.NewWriter(w)
	names := t.Names()
	if err := cw.Write(names); err != nil {
		return err
	}
	record := make([]string, len(names))
	for i := 0; i < t.Len(); i++ {
		for j, n := range names {
			c, _ := t.Column(n)
			if c.IsMissing(i) {
				record[j] = "NA"
			} else {
				record[j] = c.Label(i)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
