package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/assessor/assessment"
)

const alzChecklist = `{"items":[
  {"id":"A01.01","category":"Billing","text":"Use one Entra tenant"},
  {"id":"A02.01","category":"Identity","text":"Enforce MFA for admins"}
]}`

func setupWorkspace(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	lists := filepath.Join(dir, "checklists")
	require.NoError(t, os.MkdirAll(lists, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(lists, "alz_checklist.en.json"), []byte(alzChecklist), 0o644))

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, assessment.SaveConfig(cfgPath, assessment.Config{ChecklistDir: lists}))
	return dir, cfgPath
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUploadCommand(t *testing.T) {
	dir, cfgPath := setupWorkspace(t)
	csvPath := filepath.Join(dir, "review.csv")
	content := "ID,Category,Subcategory,Text,Status,Severity\n" +
		"A01.01,Billing,Tenants,Use one Entra tenant,Fulfilled,High\n" +
		",Identity,RBAC,Enforce MFA for admins,Open,High\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(content), 0o644))
	exports := filepath.Join(dir, "out")

	out, err := runCLI(t, "--config", cfgPath, "--env-file", filepath.Join(dir, "none.env"),
		"upload", "--export", exports, "--output", "", csvPath)
	require.NoError(t, err)

	var reports []fileReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	r := reports[0]
	assert.Equal(t, assessment.AssessmentType("alz"), r.AssessmentType)
	require.Len(t, r.Items, 2)
	assert.Equal(t, "A02.01", r.Items[1].ID)
	require.NotNil(t, r.Statistics)
	assert.Equal(t, 100, r.Statistics.CompletionPercentage)

	data, err := os.ReadFile(filepath.Join(exports, "review.assessment.json"))
	require.NoError(t, err)
	assert.NoError(t, assessment.ValidateUpload(data))

	statsOut, err := runCLI(t, "--config", cfgPath, "stats", filepath.Join(exports, "review.assessment.json"))
	require.NoError(t, err)
	var st statsReport
	require.NoError(t, json.Unmarshal([]byte(statsOut), &st))
	assert.Equal(t, 2, st.Applied)
	assert.Equal(t, 1, st.Statistics.Fulfilled)
	assert.Equal(t, 1, st.Statistics.Open)
}

func TestUploadCommandAllFilesFail(t *testing.T) {
	dir, cfgPath := setupWorkspace(t)
	_, err := runCLI(t, "--config", cfgPath, "upload", "--export", "", "--output", "", filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestIsGridFile(t *testing.T) {
	assert.True(t, isGridFile("/drop/review.xlsx"))
	assert.True(t, isGridFile("review.TSV"))
	assert.False(t, isGridFile("/drop/~$review.xlsx"))
	assert.False(t, isGridFile("/drop/review.assessment.json"))
}
