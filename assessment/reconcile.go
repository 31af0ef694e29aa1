package assessment

import (
	"context"
	"errors"
	"runtime"

	"go.uber.org/zap"
)

// ErrReferenceUnavailable is returned when there is no reference checklist to
// reconcile against. Items are handed back untouched in that case.
var ErrReferenceUnavailable = errors.New("reference checklist unavailable")

// Match records which reference item an id-less row was resolved to.
type Match struct {
	RowIndex int
	ID       string
	Score    float64
}

// ReconcileResult holds the rows that carry an id after reconciliation and
// the rows that could not be matched.
type ReconcileResult struct {
	Items   []RowItem
	Dropped []RowItem
	Matches []Match
}

// Reconciler assigns reference ids to rows that lack one.
type Reconciler struct {
	cfg      Config
	logger   *zap.Logger
	progress ProgressFunc
}

// NewReconciler constructs a reconciler. A nil logger disables logging.
func NewReconciler(cfg Config, logger *zap.Logger) *Reconciler {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{cfg: cfg, logger: logger}
}

// OnProgress registers a callback invoked between batches.
func (r *Reconciler) OnProgress(fn ProgressFunc) {
	r.progress = fn
}

// Reconcile matches every id-less item against refs. Items that already carry
// an id pass through. With no reference items the input is returned unchanged
// together with ErrReferenceUnavailable.
func (r *Reconciler) Reconcile(ctx context.Context, items []RowItem, refs []ReferenceItem) (ReconcileResult, error) {
	if len(refs) == 0 {
		out := make([]RowItem, len(items))
		copy(out, items)
		return ReconcileResult{Items: out}, ErrReferenceUnavailable
	}
	idx := newKeywordIndex(refs, r.cfg.KeywordMinLen, r.cfg.KeywordLimit)
	r.logger.Debug("keyword index built",
		zap.Int("references", idx.Size()),
		zap.Int("keywords", idx.Keywords()))

	var res ReconcileResult
	batch := r.cfg.ReconcileBatchSize
	for start := 0; start < len(items); start += batch {
		if err := ctx.Err(); err != nil {
			return ReconcileResult{}, err
		}
		end := start + batch
		if end > len(items) {
			end = len(items)
		}
		for _, item := range items[start:end] {
			if item.HasID() {
				res.Items = append(res.Items, item)
				continue
			}
			ref, score, ok := r.bestMatch(idx, item.RecommendationText)
			if !ok {
				res.Dropped = append(res.Dropped, item)
				continue
			}
			if item.RowIndex != nil {
				res.Matches = append(res.Matches, Match{RowIndex: *item.RowIndex, ID: ref.ID, Score: score})
			}
			item.ID = ref.ID
			item.RowIndex = nil
			res.Items = append(res.Items, item)
		}
		if r.progress != nil {
			r.progress(end, len(items))
		}
		if end < len(items) {
			runtime.Gosched()
		}
	}
	r.logger.Info("rows reconciled",
		zap.Int("kept", len(res.Items)),
		zap.Int("dropped", len(res.Dropped)))
	return res, nil
}

func (r *Reconciler) bestMatch(idx *KeywordIndex, text string) (ReferenceItem, float64, bool) {
	if text == "" {
		return ReferenceItem{}, 0, false
	}
	var (
		best      ReferenceItem
		bestScore float64
		found     bool
	)
	for _, cand := range idx.Candidates(text) {
		score := similarity(text, cand.Text, r.cfg.SimilarityMinLen)
		if score > bestScore {
			best, bestScore = cand, score
			found = true
		}
	}
	if !found || bestScore <= r.cfg.MatchThreshold {
		return ReferenceItem{}, bestScore, false
	}
	return best, bestScore, true
}
