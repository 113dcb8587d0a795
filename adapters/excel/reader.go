package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gostatsplot/domain/core"
	"gostatsplot/domain/dataset"
	"gostatsplot/internal"
)

// DataReader reads Excel and CSV files into tables
type DataReader struct {
	config ReaderConfig
	logger *internal.Logger
}

// NewDataReader creates a reader that handles both Excel and CSV files
func NewDataReader(config ReaderConfig, logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.NopLogger()
	}
	if config.Comma == 0 {
		config.Comma = ','
	}
	return &DataReader{config: config, logger: logger}
}

// FileType returns "csv" or "xlsx" for a file name, or "" when neither
func FileType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		return "csv"
	case ".xlsx", ".xlsm":
		return "xlsx"
	}
	return ""
}

// ReadFile opens path and reads it as a table
func (r *DataReader) ReadFile(ctx context.Context, path string) (*dataset.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()
	return r.ReadTable(ctx, path, f)
}

// ReadTable reads a CSV or XLSX stream, chosen by the extension of name,
// and infers the kind of every column.
func (r *DataReader) ReadTable(ctx context.Context, name string, in io.Reader) (*dataset.Table, error) {
	raw, err := r.ReadRaw(ctx, name, in)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.ToTable(raw)
}

// ReadRaw reads the header and data rows without interpreting cells
func (r *DataReader) ReadRaw(ctx context.Context, name string, in io.Reader) (*RawData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fileType := FileType(name)
	r.logger.Debug("[DataReader] Starting to read %s file: %s", fileType, name)

	start := time.Now()
	var rows [][]string
	var err error
	switch fileType {
	case "csv":
		comma := r.config.Comma
		if comma == ',' && strings.EqualFold(filepath.Ext(name), ".tsv") {
			comma = '\t'
		}
		rows, err = r.readCSV(in, comma)
	case "xlsx":
		rows, err = r.readExcel(in)
	default:
		return nil, fmt.Errorf("unsupported file type %q (accepted: .csv, .tsv, .txt, .xlsx, .xlsm)", filepath.Ext(name))
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("[DataReader] %s read in %.2fms (%d rows)", name, float64(time.Since(start).Nanoseconds())/1e6, len(rows))
	return r.processRows(rows)
}

func (r *DataReader) readExcel(in io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(in)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", core.ErrInsufficientData)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func (r *DataReader) readCSV(in io.Reader, comma rune) ([][]string, error) {
	reader := csv.NewReader(in)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// processRows trims cells, names blank headers V1, V2, ... and pads short
// rows. Rows with no content are skipped.
func (r *DataReader) processRows(rows [][]string) (*RawData, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: file must have a header row and at least one data row", core.ErrInsufficientData)
	}

	headers := make([]string, len(rows[0]))
	seen := make(map[string]bool, len(headers))
	for j, h := range rows[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "V" + strconv.Itoa(j+1)
		}
		if seen[h] {
			return nil, core.NewInvalidOptionError("header", fmt.Sprintf("duplicate column %q", h))
		}
		seen[h] = true
		headers[j] = h
	}

	data := &RawData{Headers: headers}
	for _, row := range rows[1:] {
		cells := make([]string, len(headers))
		empty := true
		for j := range cells {
			if j < len(row) {
				cells[j] = strings.TrimSpace(row[j])
			}
			empty = empty && cells[j] == ""
		}
		if !empty {
			data.Rows = append(data.Rows, cells)
		}
	}
	if len(data.Rows) == 0 {
		return nil, fmt.Errorf("%w: file has no data rows", core.ErrInsufficientData)
	}
	r.logger.Info("[DataReader] processed %d columns, %d rows", len(headers), len(data.Rows))
	return data, nil
}

// InferKinds decides the kind of every column: numeric when each
// non-missing cell parses as a number, categorical otherwise or when the
// column is listed in ReaderConfig.Categorical.
func (r *DataReader) InferKinds(data *RawData) map[string]dataset.Kind {
	kinds := make(map[string]dataset.Kind, data.Width())
	for j, name := range data.Headers {
		kinds[name] = r.inferKind(name, data.Cells(j))
	}
	return kinds
}

func (r *DataReader) inferKind(name string, cells []string) dataset.Kind {
	if r.config.forcedCategorical(name) {
		return dataset.Categorical
	}
	for _, cell := range cells {
		if r.config.isMissing(cell) {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return dataset.Categorical
		}
	}
	return dataset.Numeric
}

// ToTable converts raw cells into typed columns
func (r *DataReader) ToTable(data *RawData) (*dataset.Table, error) {
	kinds := r.InferKinds(data)
	cols := make([]*dataset.Column, data.Width())
	for j, name := range data.Headers {
		cells := data.Cells(j)
		if kinds[name] == dataset.Numeric {
			values := make([]float64, len(cells))
			for i, cell := range cells {
				values[i] = math.NaN()
				if !r.config.isMissing(cell) {
					values[i], _ = strconv.ParseFloat(cell, 64)
				}
			}
			cols[j] = dataset.NewNumeric(name, values)
			continue
		}
		values := make([]string, len(cells))
		for i, cell := range cells {
			if !r.config.isMissing(cell) {
				values[i] = cell
			}
		}
		cols[j] = dataset.NewCategorical(name, values)
	}
	return dataset.NewTable(cols...)
}
