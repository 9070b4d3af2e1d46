// Package ingest reads the NAMASTE to ICD-11 mapping sheet and loads it into
// a terminology store.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
	"github.com/xuri/excelize/v2"
	"golang.org/x/exp/slices"
)

// Header names of the mapping sheet.
const (
	ColumnSourceCode = "NAMASTE_CODE"
	ColumnSourceTerm = "NAMASTE_TERM"
	ColumnTargetCode = "ICD11_TM2_CODE"
	ColumnTargetTerm = "ICD11_TM2_TERM"
)

// ErrMissingColumn is returned when the header lacks one of the four columns.
var ErrMissingColumn = errors.New("missing column")

type columnIndices struct {
	sourceCode int
	sourceTerm int
	targetCode int
	targetTerm int
}

func getColumnIndices(headers []string) (columnIndices, error) {
	ci := columnIndices{
		sourceCode: findColumn(headers, ColumnSourceCode),
		sourceTerm: findColumn(headers, ColumnSourceTerm),
		targetCode: findColumn(headers, ColumnTargetCode),
		targetTerm: findColumn(headers, ColumnTargetTerm),
	}
	for name, idx := range map[string]int{
		ColumnSourceCode: ci.sourceCode,
		ColumnSourceTerm: ci.sourceTerm,
		ColumnTargetCode: ci.targetCode,
		ColumnTargetTerm: ci.targetTerm,
	} {
		if idx == -1 {
			return ci, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return ci, nil
}

func findColumn(headers []string, name string) int {
	return slices.IndexFunc(headers, func(h string) bool {
		// Spreadsheets saved with a BOM carry it on the first header.
		return strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), name)
	})
}

func (ci columnIndices) row(record []string, n int) (terminology.Row, error) {
	width := slices.Max([]int{ci.sourceCode, ci.sourceTerm, ci.targetCode, ci.targetTerm}) + 1
	if len(record) < width {
		return terminology.Row{}, &terminology.RowError{
			Row: n,
			Err: fmt.Errorf("%w: %d of %d columns", terminology.ErrMalformedRow, len(record), width),
		}
	}
	return terminology.Row{
		SourceCode: record[ci.sourceCode],
		SourceTerm: record[ci.sourceTerm],
		TargetCode: record[ci.targetCode],
		TargetTerm: record[ci.targetTerm],
	}, nil
}

// ReadCSV reads mapping rows from comma separated input.
func ReadCSV(r io.Reader) ([]terminology.Row, error) {
	return ReadDelimited(r, ',')
}

// ReadDelimited reads mapping rows using the given field separator.
func ReadDelimited(r io.Reader, comma rune) ([]terminology.Row, error) {
	csvReader := csv.NewReader(r)
	csvReader.Comma = comma
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	headers, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	ci, err := getColumnIndices(headers)
	if err != nil {
		return nil, err
	}

	var rows []terminology.Row
	for n := 1; ; n++ {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", n, err)
		}
		if isBlank(record) {
			n--
			continue
		}
		row, err := ci.row(record, n)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadXLSX reads mapping rows from the first sheet of a workbook.
func ReadXLSX(r io.Reader) ([]terminology.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("workbook has no sheets")
	}
	records, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheetName)
	}

	ci, err := getColumnIndices(records[0])
	if err != nil {
		return nil, err
	}

	var rows []terminology.Row
	n := 0
	for _, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		n++
		row, err := ci.row(record, n)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadFile picks the reader by file extension: .xlsx is read as a workbook,
// .tsv as tab separated, anything else as CSV.
func ReadFile(path string) ([]terminology.Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(file)
	case ".tsv":
		return ReadDelimited(file, '\t')
	default:
		return ReadCSV(file)
	}
}

func isBlank(record []string) bool {
	return !slices.ContainsFunc(record, func(field string) bool {
		return strings.TrimSpace(field) != ""
	})
}
