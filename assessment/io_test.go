package assessment

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadGridCSV(t *testing.T) {
	data := "\ufeffID,Text,Status\n" +
		"A01.01,\"Use one tenant, not many\",Fulfilled\n" +
		"A01.02,ｆｕｌｌｗｉｄｔｈ text\n"

	grid, err := ReadGrid(strings.NewReader(data), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, Grid{
		{"ID", "Text", "Status"},
		{"A01.01", "Use one tenant, not many", "Fulfilled"},
		{"A01.02", "fullwidth text"},
	}, grid)
}

func TestReadGridCSVKeepsBlankLines(t *testing.T) {
	data := "ID,Category,Subcategory,Text,Severity,Status\n" +
		"A01.01,Identity,RBAC,Enforce MFA for admins,High,Open\n" +
		"A01.02,Identity,RBAC,\"Review role\nassignments\",Medium,Fulfilled\n" +
		"A01.03,Network,Hub,Deploy a hub network,High,Open\n" +
		strings.Repeat("\n", 10) +
		"A01.04,Footer,Notes,Generated by export tool,Low,Open\n"

	grid, err := ReadGrid(strings.NewReader(data), FormatCSV)
	require.NoError(t, err)
	require.Len(t, grid, 15)
	assert.Equal(t, "Review role\nassignments", grid[2][3])
	for i := 4; i < 14; i++ {
		assert.Empty(t, grid[i], "row %d", i)
	}
	assert.Equal(t, "A01.04", grid[14][0])

	res, err := NewIngestor(DefaultConfig(), nil).Ingest(context.Background(), grid)
	require.NoError(t, err)
	ids := make([]string, len(res.Items))
	for i, it := range res.Items {
		ids[i] = it.ID
	}
	assert.Equal(t, []string{"A01.01", "A01.02", "A01.03"}, ids)
}

func TestReadGridTSV(t *testing.T) {
	grid, err := ReadGrid(strings.NewReader("ID\tStatus\nA01.01\t  Open \n"), FormatTSV)
	require.NoError(t, err)
	assert.Equal(t, Grid{{"ID", "Status"}, {"A01.01", "Open"}}, grid)
}

func TestReadGridXLSX(t *testing.T) {
	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]interface{}{"ID", "Text", "Status"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A2", &[]interface{}{"A01.01", "Use one tenant", "Open"}))
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)

	grid, err := ReadGrid(bytes.NewReader(buf.Bytes()), FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, Grid{{"ID", "Text", "Status"}, {"A01.01", "Use one tenant", "Open"}}, grid)
}

func TestReadGridFileFormats(t *testing.T) {
	_, err := ReadGridFile("notes.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	path := filepath.Join(t.TempDir(), "upload.CSV")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2,3\n"), 0o644))
	grid, err := ReadGridFile(path)
	require.NoError(t, err)
	assert.Equal(t, Grid{{"a", "b"}, {"1", "2", "3"}}, grid)
}

func TestNormalizeRow(t *testing.T) {
	assert.Equal(t, []string{"Open", "tab\tkept", "x"}, NormalizeRow([]string{"\ufeff Open ", "tab\tkept\x00", "x"}))
}
