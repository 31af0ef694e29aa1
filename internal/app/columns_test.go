package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/assessor/assessment"
)

func TestSessionColumnsRender(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.Local)
	item := assessment.SessionItem{
		ReferenceItem: assessment.ReferenceItem{
			ID:       "A01.01",
			Category: "Identity",
			Text:     "Enforce MFA\n for admins",
			Severity: "High",
		},
		Status:     assessment.StatusOpen,
		Comment:    "tracked",
		ReviewedAt: &at,
	}
	cols := sessionColumns()
	got := make(map[string]string, len(cols))
	for _, c := range cols {
		require.NotNil(t, c.Render)
		got[c.Title] = c.Render(item)
	}
	assert.Equal(t, "A01.01", got["ID"])
	assert.Equal(t, "Enforce MFA for admins", got["推奨事項"])
	assert.Equal(t, "未対応", got["ステータス"])
	assert.Equal(t, "03/01 09:30", got["更新"])

	item.ReviewedAt = nil
	for _, c := range cols {
		if c.Title == "更新" {
			assert.Empty(t, c.Render(item))
		}
	}
}

func TestFormatStatistics(t *testing.T) {
	st := assessment.Statistics{Total: 4, Reviewed: 2, Fulfilled: 1, Open: 1, NotReviewed: 2, CompletionPercentage: 50}
	assert.Equal(t, "全4件 / 確認済 2件 (50%)\n対応済 1・未対応 1・対象外 0・未確認 2", formatStatistics(st))
}

func TestStatusLabelUnknownFallsBack(t *testing.T) {
	assert.Equal(t, "Custom", statusLabel(assessment.Status("Custom")))
	assert.Equal(t, "照合", stageLabel(assessment.StageReconcile))
}
