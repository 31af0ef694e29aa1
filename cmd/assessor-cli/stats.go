package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/assessor/assessment"
)

var (
	statsType   string
	statsFilter assessment.Filter
	statsStatus string
	statsList   bool
)

type statsReport struct {
	AssessmentType assessment.AssessmentType `json:"assessmentType"`
	Applied        int                       `json:"applied"`
	Statistics     assessment.Statistics     `json:"statistics"`
	Items          []assessment.SessionItem  `json:"items,omitempty"`
}

var statsCmd = &cobra.Command{
	Use:   "stats PROGRESS.json",
	Short: "Apply a saved progress file to its reference checklist and print statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read progress: %w", err)
		}
		docType, entries, err := assessment.DecodeUpload(data)
		if err != nil {
			return err
		}
		kind := assessment.AssessmentType(statsType)
		if kind == "" {
			kind = docType
		}
		if kind == "" {
			kind = assessment.AssessmentType(cfg.DefaultType)
		}

		cl, err := assessment.NewFileLoader(cfg, logger).Load(cmd.Context(), kind)
		if err != nil {
			return err
		}
		session := assessment.NewSession(cl, cfg.Reviewer)
		applied, err := session.ApplyEntries(entries)
		if err != nil {
			return err
		}
		logger.Info("progress applied",
			zap.String("type", string(kind)),
			zap.Int("entries", len(entries)),
			zap.Int("applied", applied))

		report := statsReport{
			AssessmentType: kind,
			Applied:        applied,
			Statistics:     session.Statistics(),
		}
		if statsList {
			statsFilter.Status = ""
			if statsStatus != "" {
				statsFilter.Status = assessment.NormalizeStatus(statsStatus)
			}
			report.Items = session.Filter(statsFilter)
		}
		return writeJSON(cmd.OutOrStdout(), report)
	},
}

func init() {
	f := statsCmd.Flags()
	f.StringVarP(&statsType, "type", "t", "", "Assessment type (default: from the file, then config)")
	f.BoolVar(&statsList, "list", false, "Also print the items matching the filters")
	f.StringVar(&statsFilter.Category, "category", "", "Filter by category")
	f.StringVar(&statsFilter.Subcategory, "subcategory", "", "Filter by subcategory")
	f.StringVar(&statsFilter.Severity, "severity", "", "Filter by severity")
	f.StringVar(&statsFilter.WAF, "waf", "", "Filter by WAF pillar")
	f.StringVar(&statsFilter.Service, "service", "", "Filter by service")
	f.StringVar(&statsStatus, "status", "", "Filter by status")
	f.StringVar(&statsFilter.Search, "search", "", "Free-text search over id, text and categories")
}
