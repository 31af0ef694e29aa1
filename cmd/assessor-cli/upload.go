package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"yashubustudio/assessor/assessment"
)

var (
	exportDir string
	outPath   string
)

// fileReport summarizes the upload of one file.
type fileReport struct {
	File           string                    `json:"file"`
	AssessmentType assessment.AssessmentType `json:"assessmentType,omitempty"`
	HeaderRow      int                       `json:"headerRow"`
	Items          []assessment.RowItem      `json:"items,omitempty"`
	Dropped        int                       `json:"dropped"`
	Unresolved     int                       `json:"unresolved"`
	Discarded      int                       `json:"discarded"`
	Statistics     *assessment.Statistics    `json:"statistics,omitempty"`
	Warning        string                    `json:"warning,omitempty"`
	Error          string                    `json:"error,omitempty"`
	ExportPath     string                    `json:"exportPath,omitempty"`
}

var uploadCmd = &cobra.Command{
	Use:   "upload FILE...",
	Short: "Ingest and reconcile one or more spreadsheets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		if exportDir != "" {
			if err := os.MkdirAll(exportDir, 0o755); err != nil {
				return fmt.Errorf("create export dir: %w", err)
			}
		}

		reports := make([]fileReport, len(args))
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(cfg.MaxParallelUploads)
		for i, path := range args {
			i, path := i, path
			g.Go(func() error {
				report, err := processFile(ctx, svc, path, exportDir)
				if err != nil && !isPerFileError(err) {
					return err
				}
				reports[i] = report
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		failed := 0
		for _, r := range reports {
			if r.Error != "" {
				failed++
			}
		}
		if outPath != "" {
			if err := writeJSONFile(outPath, reports); err != nil {
				return err
			}
		} else if err := writeJSON(cmd.OutOrStdout(), reports); err != nil {
			return err
		}
		if failed == len(reports) {
			return errors.New("no file could be processed")
		}
		return nil
	},
}

func init() {
	uploadCmd.Flags().StringVar(&exportDir, "export", "", "Directory to write an assessment export per file")
	uploadCmd.Flags().StringVarP(&outPath, "output", "o", "", "Write the JSON report to this file instead of stdout")
}

// processFile uploads one file. Problems with the file itself are recorded in
// the report and returned so the caller can tell them from cancellation.
func processFile(ctx context.Context, svc *assessment.Service, path, exportTo string) (fileReport, error) {
	report := fileReport{File: path}
	res, err := svc.UploadFile(ctx, path)
	if err != nil {
		report.Error = err.Error()
		logger.Warn("upload failed", zap.String("file", path), zap.Error(err))
		return report, err
	}
	report.AssessmentType = res.AssessmentType
	report.HeaderRow = res.HeaderRow
	report.Items = res.Items
	report.Dropped = len(res.Dropped)
	report.Unresolved = len(res.Unresolved)
	report.Discarded = res.Discarded
	if res.ReconcileErr != nil {
		report.Warning = res.ReconcileErr.Error()
	}
	logger.Info("upload processed",
		zap.String("file", path),
		zap.String("type", string(res.AssessmentType)),
		zap.Int("items", len(res.Items)),
		zap.Int("dropped", len(res.Dropped)),
		zap.Int("unresolved", len(res.Unresolved)))

	if res.Checklist == nil {
		return report, nil
	}
	session := assessment.NewSession(res.Checklist, cfg.Reviewer)
	if _, err := session.ApplyProgress(res.Items); err != nil {
		report.Warning = err.Error()
		return report, nil
	}
	st := session.Statistics()
	report.Statistics = &st
	if exportTo != "" {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".assessment.json"
		report.ExportPath = filepath.Join(exportTo, name)
		if err := writeJSONFile(report.ExportPath, session.Export(assessment.DefaultExportOptions())); err != nil {
			report.Error = err.Error()
			return report, err
		}
	}
	return report, nil
}

func isPerFileError(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
