package app

import (
	"fmt"
	"strings"

	"yashubustudio/assessor/assessment"
)

type tableColumn struct {
	Title  string
	Width  float32
	Render func(assessment.SessionItem) string
}

func sessionColumns() []tableColumn {
	return []tableColumn{
		{Title: "ID", Width: 90, Render: func(it assessment.SessionItem) string { return it.ID }},
		{Title: "カテゴリ", Width: 150, Render: func(it assessment.SessionItem) string { return it.Category }},
		{Title: "サブカテゴリ", Width: 150, Render: func(it assessment.SessionItem) string { return it.Subcategory }},
		{Title: "推奨事項", Width: 380, Render: func(it assessment.SessionItem) string { return oneLine(it.Text) }},
		{Title: "重要度", Width: 80, Render: func(it assessment.SessionItem) string { return it.Severity }},
		{Title: "ステータス", Width: 110, Render: func(it assessment.SessionItem) string { return statusLabel(it.Status) }},
		{Title: "コメント", Width: 220, Render: func(it assessment.SessionItem) string { return oneLine(it.Comment) }},
		{
			Title: "更新",
			Width: 120,
			Render: func(it assessment.SessionItem) string {
				if it.ReviewedAt == nil {
					return ""
				}
				return it.ReviewedAt.Local().Format("01/02 15:04")
			},
		},
	}
}

var statusLabels = map[assessment.Status]string{
	assessment.StatusFulfilled:   "対応済",
	assessment.StatusOpen:        "未対応",
	assessment.StatusNotRequired: "対象外",
	assessment.StatusNotVerified: "未確認",
}

func statusLabel(s assessment.Status) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func stageLabel(s assessment.Stage) string {
	switch s {
	case assessment.StageIngest:
		return "取込"
	case assessment.StageReconcile:
		return "照合"
	}
	return string(s)
}

func formatStatistics(st assessment.Statistics) string {
	return fmt.Sprintf("全%d件 / 確認済 %d件 (%d%%)\n対応済 %d・未対応 %d・対象外 %d・未確認 %d",
		st.Total, st.Reviewed, st.CompletionPercentage,
		st.Fulfilled, st.Open, st.NotApplicable, st.NotReviewed)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
