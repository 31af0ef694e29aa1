package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/assessor/assessment"
	"yashubustudio/assessor/internal/watch"
)

var watchExportDir string

var watchCmd = &cobra.Command{
	Use:   "watch DIR",
	Short: "Process spreadsheets as they are dropped into a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		svc, err := newService()
		if err != nil {
			return err
		}
		out := watchExportDir
		if out == "" {
			out = filepath.Join(dir, "exports")
		}
		if err := os.MkdirAll(out, 0o755); err != nil {
			return err
		}

		handle := func(ctx context.Context, path string) {
			report, err := processFile(ctx, svc, path, out)
			if err != nil {
				return
			}
			logger.Info("export written",
				zap.String("file", path),
				zap.String("export", report.ExportPath))
		}
		settle := time.Duration(cfg.WatchSettleMillis) * time.Millisecond
		box := watch.NewDropbox(dir, settle, isGridFile, handle, logger)
		err = box.Run(cmd.Context())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchExportDir, "export", "", "Directory for assessment exports (default: DIR/exports)")
}

func isGridFile(path string) bool {
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return false
	}
	_, err := assessment.FormatFromPath(path)
	return err == nil
}
