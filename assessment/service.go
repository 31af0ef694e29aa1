package assessment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrNoItems is returned when an upload yields no usable items.
var ErrNoItems = errors.New("no valid assessment items found")

// Stage names a phase of an upload for progress reporting.
type Stage string

const (
	StageIngest    Stage = "ingest"
	StageReconcile Stage = "reconcile"
)

// StageProgressFunc receives progress for one upload stage.
type StageProgressFunc func(stage Stage, done, total int)

// UploadResult is the outcome of processing one uploaded grid.
type UploadResult struct {
	AssessmentType AssessmentType `json:"assessmentType"`
	HeaderRow      int            `json:"headerRow"`
	Items          []RowItem      `json:"items"`
	// Dropped holds id-less rows without a confident reference match.
	Dropped []RowItem `json:"dropped,omitempty"`
	// Unresolved holds id-less rows left untouched because the reference
	// checklist could not be loaded.
	Unresolved   []RowItem  `json:"unresolved,omitempty"`
	Matches      []Match    `json:"matches,omitempty"`
	Discarded    int        `json:"discarded"`
	Checklist    *Checklist `json:"-"`
	ReconcileErr error      `json:"-"`
}

// Service runs the upload pipeline: ingest, detect, load the reference
// checklist and reconcile id-less rows.
type Service struct {
	loader ChecklistLoader

	cfgMu    sync.RWMutex
	cfg      Config
	progress StageProgressFunc

	logger *zap.Logger
}

// NewService constructs a service. A nil logger disables logging.
func NewService(cfg Config, loader ChecklistLoader, logger *zap.Logger) (*Service, error) {
	if loader == nil {
		return nil, errors.New("checklist loader is required")
	}
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{loader: loader, cfg: cfg, logger: logger}, nil
}

// Config returns a copy of the current configuration.
func (s *Service) Config() Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.Clone()
}

// UpdateConfig replaces the configuration.
func (s *Service) UpdateConfig(cfg Config) {
	cfg.ApplyDefaults()
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
}

// OnProgress registers a callback for ingest and reconcile progress.
func (s *Service) OnProgress(fn StageProgressFunc) {
	s.cfgMu.Lock()
	s.progress = fn
	s.cfgMu.Unlock()
}

// LoadChecklist loads the reference checklist for t.
func (s *Service) LoadChecklist(ctx context.Context, t AssessmentType) (*Checklist, error) {
	return s.loader.Load(ctx, t)
}

// UploadFile reads path into a grid and uploads it.
func (s *Service) UploadFile(ctx context.Context, path string) (UploadResult, error) {
	grid, err := ReadGridFile(path)
	if err != nil {
		return UploadResult{}, err
	}
	s.logger.Debug("grid read", zap.String("path", path), zap.Int("rows", len(grid)))
	return s.Upload(ctx, grid)
}

// Upload processes grid. Rows carrying an id are kept as-is; the remaining
// rows are matched against the detected reference checklist. When that
// checklist cannot be loaded the id-less rows are returned in Unresolved and
// the cause is recorded in ReconcileErr.
func (s *Service) Upload(ctx context.Context, grid Grid) (UploadResult, error) {
	cfg := s.Config()

	ingestor := NewIngestor(cfg, s.logger)
	ingestor.OnProgress(s.stageProgress(StageIngest))
	ingested, err := ingestor.Ingest(ctx, grid)
	if err != nil {
		return UploadResult{}, err
	}
	if len(ingested.Items) == 0 {
		return UploadResult{}, ErrNoItems
	}

	res := UploadResult{
		AssessmentType: DetectAssessmentType(ingested.Items, AssessmentType(cfg.DefaultType)),
		HeaderRow:      ingested.HeaderRow,
		Discarded:      ingested.Discarded,
	}
	s.logger.Info("assessment type detected", zap.String("type", string(res.AssessmentType)))

	cl, loadErr := s.loader.Load(ctx, res.AssessmentType)
	if loadErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return UploadResult{}, ctxErr
		}
		s.logger.Warn("reference checklist unavailable",
			zap.String("type", string(res.AssessmentType)),
			zap.Error(loadErr))
		for _, it := range ingested.Items {
			if it.HasID() {
				res.Items = append(res.Items, it)
			} else {
				res.Unresolved = append(res.Unresolved, it)
			}
		}
		res.ReconcileErr = fmt.Errorf("%w: %v", ErrReferenceUnavailable, loadErr)
		return res, nil
	}
	res.Checklist = cl

	reconciler := NewReconciler(cfg, s.logger)
	reconciler.OnProgress(s.stageProgress(StageReconcile))
	rec, err := reconciler.Reconcile(ctx, ingested.Items, cl.Items)
	switch {
	case errors.Is(err, ErrReferenceUnavailable):
		res.ReconcileErr = err
		for _, it := range rec.Items {
			if it.HasID() {
				res.Items = append(res.Items, it)
			} else {
				res.Unresolved = append(res.Unresolved, it)
			}
		}
	case err != nil:
		return UploadResult{}, err
	default:
		res.Items = rec.Items
		res.Dropped = rec.Dropped
		res.Matches = rec.Matches
	}
	if len(res.Items) == 0 && len(res.Unresolved) == 0 {
		return res, ErrNoItems
	}
	return res, nil
}

func (s *Service) stageProgress(stage Stage) ProgressFunc {
	s.cfgMu.RLock()
	fn := s.progress
	s.cfgMu.RUnlock()
	if fn == nil {
		return nil
	}
	return func(done, total int) {
		fn(stage, done, total)
	}
}
