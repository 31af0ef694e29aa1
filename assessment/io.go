package assessment

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files no grid reader understands.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// GridFormat selects the reader used for an upload.
type GridFormat string

const (
	FormatCSV  GridFormat = "csv"
	FormatTSV  GridFormat = "tsv"
	FormatXLSX GridFormat = "xlsx"
)

// FormatFromPath infers the grid format from a file extension.
func FormatFromPath(path string) (GridFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadGridFile opens path and reads it as a grid.
func ReadGridFile(path string) (Grid, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	grid, err := ReadGrid(f, format)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return grid, nil
}

// ReadGrid reads r in the given format. Every cell is cleaned.
func ReadGrid(r io.Reader, format GridFormat) (Grid, error) {
	switch format {
	case FormatCSV:
		return readDelimited(r, ',')
	case FormatTSV:
		return readDelimited(r, '\t')
	case FormatXLSX:
		return readWorkbook(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// readDelimited keeps one empty row per blank line, which encoding/csv would
// otherwise skip.
func readDelimited(r io.Reader, delim rune) (Grid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	grid := make(Grid, 0, bytes.Count(data, []byte("\n"))+1)
	nextLine := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse delimited: %w", err)
		}
		line, _ := cr.FieldPos(0)
		for ; nextLine < line; nextLine++ {
			grid = append(grid, []string{})
		}
		grid = append(grid, NormalizeRow(rec))
		nextLine = bytes.Count(data[:cr.InputOffset()], []byte("\n")) + 1
	}
	return grid, nil
}

// readWorkbook reads the first sheet of an XLSX workbook.
func readWorkbook(r io.Reader) (Grid, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()
	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return Grid{}, nil
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	grid := make(Grid, len(rows))
	for i, row := range rows {
		grid[i] = NormalizeRow(row)
	}
	return grid, nil
}
