package assessment

import (
	"fmt"
	"strings"
)

// headerTerms is the vocabulary a header row is recognized by. Each entry
// counts once no matter how many of its alternatives appear.
var headerTerms = [][]string{
	{"id"},
	{"guid"},
	{"category"},
	{"subcategory"},
	{"text", "description"},
	{"status"},
	{"severity"},
	{"service"},
	{"recommendation"},
	{"check"},
	{"waf", "pillar"},
}

// HeaderTermNames returns the header vocabulary in a printable form.
func HeaderTermNames() []string {
	out := make([]string, len(headerTerms))
	for i, alts := range headerTerms {
		out[i] = strings.Join(alts, "/")
	}
	return out
}

// HeaderNotFoundError is returned when none of the scanned rows looks like a
// header row.
type HeaderNotFoundError struct {
	ScannedRows int
	MinCells    int
	MinTerms    int
}

func (e *HeaderNotFoundError) Error() string {
	return fmt.Sprintf(
		"could not find a header row in the first %d rows: expected at least %d non-empty columns naming at least %d of: %s",
		e.ScannedRows, e.MinCells, e.MinTerms, strings.Join(HeaderTermNames(), ", "),
	)
}

// LocateHeaderRow returns the index of the header row using the default limits.
func LocateHeaderRow(grid Grid) (int, error) {
	return locateHeaderRow(grid, DefaultConfig())
}

func locateHeaderRow(grid Grid, cfg Config) (int, error) {
	limit := cfg.HeaderScanRows
	if len(grid) < limit {
		limit = len(grid)
	}
	for i := 0; i < limit; i++ {
		row := grid[i]
		if countNonEmpty(row) < cfg.HeaderMinCells {
			continue
		}
		if countHeaderTerms(row) >= cfg.HeaderMinTerms {
			return i, nil
		}
	}
	return -1, &HeaderNotFoundError{
		ScannedRows: cfg.HeaderScanRows,
		MinCells:    cfg.HeaderMinCells,
		MinTerms:    cfg.HeaderMinTerms,
	}
}

func countHeaderTerms(row []string) int {
	joined := strings.ToLower(strings.Join(row, ""))
	n := 0
	for _, alts := range headerTerms {
		for _, term := range alts {
			if strings.Contains(joined, term) {
				n++
				break
			}
		}
	}
	return n
}

func countNonEmpty(row []string) int {
	n := 0
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			n++
		}
	}
	return n
}

func isEmptyRow(row []string) bool {
	return countNonEmpty(row) == 0
}
