package assessment

import (
	"context"
	"fmt"
	"regexp"
	"runtime"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

var (
	// idPrefixPattern recognizes identifiers such as "A01.02" at the start of a cell.
	idPrefixPattern = regexp.MustCompile(`^[A-Z]\d+\.\d+`)
	// idExactPattern is used to reject bare identifiers as recommendation text.
	idExactPattern = regexp.MustCompile(`^[A-Z]\d+\.\d+$`)
)

// ProgressFunc receives the number of processed units and the total.
type ProgressFunc func(done, total int)

// IngestResult is the outcome of ingesting one grid.
type IngestResult struct {
	HeaderRow int
	Columns   ColumnMap
	Items     []RowItem
	// Discarded counts non-empty rows that carried neither id nor text.
	Discarded int
}

// Ingestor turns raw grids into row items.
type Ingestor struct {
	cfg      Config
	logger   *zap.Logger
	progress ProgressFunc
}

// NewIngestor constructs an ingestor. A nil logger disables logging.
func NewIngestor(cfg Config, logger *zap.Logger) *Ingestor {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{cfg: cfg, logger: logger}
}

// OnProgress registers a callback invoked between batches.
func (in *Ingestor) OnProgress(fn ProgressFunc) {
	in.progress = fn
}

// LocateHeaderRow finds the header row within the configured scan window.
func (in *Ingestor) LocateHeaderRow(grid Grid) (int, error) {
	return locateHeaderRow(grid, in.cfg)
}

// Ingest locates the header, maps its columns and converts the data rows.
func (in *Ingestor) Ingest(ctx context.Context, grid Grid) (IngestResult, error) {
	headerIdx, err := in.LocateHeaderRow(grid)
	if err != nil {
		return IngestResult{}, err
	}
	cm := BuildColumnMap(grid[headerIdx])
	in.logger.Debug("header located",
		zap.Int("row", headerIdx),
		zap.Int("mappedColumns", len(cm)))
	res, err := in.ingest(ctx, grid, headerIdx, cm)
	if err != nil {
		return IngestResult{}, err
	}
	return res, nil
}

// IngestRows converts every row after headerIdx using the given column map.
func (in *Ingestor) IngestRows(ctx context.Context, grid Grid, headerIdx int, cm ColumnMap) ([]RowItem, error) {
	res, err := in.ingest(ctx, grid, headerIdx, cm)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (in *Ingestor) ingest(ctx context.Context, grid Grid, headerIdx int, cm ColumnMap) (IngestResult, error) {
	if headerIdx < -1 || headerIdx >= len(grid) {
		return IngestResult{}, fmt.Errorf("header row %d out of range (%d rows)", headerIdx, len(grid))
	}
	res := IngestResult{HeaderRow: headerIdx, Columns: cm}
	start := headerIdx + 1
	total := len(grid) - start
	batch := in.cfg.IngestBatchSize
	emptyRun := 0

rows:
	for batchStart := start; batchStart < len(grid); batchStart += batch {
		if err := ctx.Err(); err != nil {
			return IngestResult{}, err
		}
		batchEnd := batchStart + batch
		if batchEnd > len(grid) {
			batchEnd = len(grid)
		}
		for i := batchStart; i < batchEnd; i++ {
			row := grid[i]
			if isEmptyRow(row) {
				emptyRun++
				if emptyRun >= in.cfg.EmptyRowLimit {
					in.logger.Debug("blank run reached, stopping",
						zap.Int("row", i),
						zap.Int("blankRows", emptyRun))
					break rows
				}
				continue
			}
			emptyRun = 0
			item, ok := in.rowItem(row, i, cm)
			if !ok {
				res.Discarded++
				continue
			}
			res.Items = append(res.Items, item)
		}
		if in.progress != nil {
			in.progress(batchEnd-start, total)
		}
		if batchEnd < len(grid) {
			runtime.Gosched()
		}
	}
	in.logger.Info("rows ingested",
		zap.Int("items", len(res.Items)),
		zap.Int("discarded", res.Discarded))
	return res, nil
}

func (in *Ingestor) rowItem(row []string, rowIdx int, cm ColumnMap) (RowItem, bool) {
	item := RowItem{Status: StatusNotVerified}
	if idx, ok := cm.Index(FieldID); ok {
		item.ID = cellAt(row, idx)
	}
	if item.ID == "" {
		item.ID = scanForID(row, in.cfg.IDScanCells)
	}
	if item.ID == "" {
		ri := rowIdx
		item.RowIndex = &ri
	}
	if idx, ok := cm.Index(FieldStatus); ok {
		item.Status = NormalizeStatus(cellAt(row, idx))
	}
	item.Comment = mapped(row, cm, FieldComment)
	item.Category = mapped(row, cm, FieldCategory)
	item.Subcategory = mapped(row, cm, FieldSubcategory)
	item.RecommendationText = mapped(row, cm, FieldText)
	item.Severity = mapped(row, cm, FieldSeverity)
	item.Service = mapped(row, cm, FieldService)
	item.WAF = mapped(row, cm, FieldWAF)
	if item.RecommendationText == "" {
		item.RecommendationText = longestText(row, in.cfg.FallbackTextMinLen)
	}
	if item.ID == "" && item.RecommendationText == "" {
		return RowItem{}, false
	}
	return item, true
}

func mapped(row []string, cm ColumnMap, field Field) string {
	idx, ok := cm.Index(field)
	if !ok {
		return ""
	}
	return cellAt(row, idx)
}

func scanForID(row []string, cells int) string {
	if cells > len(row) {
		cells = len(row)
	}
	for i := 0; i < cells; i++ {
		v := strings.TrimSpace(row[i])
		if idPrefixPattern.MatchString(v) {
			return v
		}
	}
	return ""
}

// longestText picks the longest cell above minLen characters that is neither a
// status word nor a bare identifier. Long free-text comments can win here.
func longestText(row []string, minLen int) string {
	best := ""
	bestLen := 0
	for _, cell := range row {
		n := utf8.RuneCountInString(cell)
		if n <= minLen || n <= bestLen {
			continue
		}
		if isStatusWord(cell) || idExactPattern.MatchString(strings.TrimSpace(cell)) {
			continue
		}
		best, bestLen = cell, n
	}
	return strings.TrimSpace(best)
}
