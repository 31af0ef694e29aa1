package assessment

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func uploadGrid() Grid {
	return Grid{
		{"Landing zone review"},
		{"ID", "Category", "Subcategory", "Text", "Status", "Comment"},
		{"A01.01", "Billing", "Tenants", "Use one Entra tenant", "Yes", ""},
		{"", "Identity", "RBAC", "Enforce MFA for all admins", "No", "two admins without MFA"},
		{"", "Finance", "", "Negotiate cheaper licences", "Open", ""},
	}
}

func newTestService(t *testing.T, loader ChecklistLoader, logger *zap.Logger) *Service {
	t.Helper()
	svc, err := NewService(DefaultConfig(), loader, logger)
	require.NoError(t, err)
	return svc
}

func TestServiceUpload(t *testing.T) {
	svc := newTestService(t, StaticLoader{"alz": sampleChecklist()}, nil)
	var stages []Stage
	svc.OnProgress(func(stage Stage, done, total int) {
		if len(stages) == 0 || stages[len(stages)-1] != stage {
			stages = append(stages, stage)
		}
	})

	res, err := svc.Upload(context.Background(), uploadGrid())
	require.NoError(t, err)
	assert.Equal(t, AssessmentType("alz"), res.AssessmentType)
	assert.Equal(t, 1, res.HeaderRow)
	require.NotNil(t, res.Checklist)
	assert.NoError(t, res.ReconcileErr)

	require.Len(t, res.Items, 2)
	assert.Equal(t, "A01.01", res.Items[0].ID)
	assert.Equal(t, StatusFulfilled, res.Items[0].Status)
	assert.Equal(t, "A02.01", res.Items[1].ID)
	assert.Equal(t, StatusOpen, res.Items[1].Status)
	assert.Equal(t, "two admins without MFA", res.Items[1].Comment)

	require.Len(t, res.Dropped, 1)
	assert.Equal(t, "Negotiate cheaper licences", res.Dropped[0].RecommendationText)
	assert.Empty(t, res.Unresolved)
	assert.Equal(t, []Stage{StageIngest, StageReconcile}, stages)

	s := NewSession(res.Checklist, "")
	applied, err := s.ApplyProgress(res.Items)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)
}

func TestServiceOnProgressDuringUploads(t *testing.T) {
	svc := newTestService(t, StaticLoader{"alz": sampleChecklist()}, nil)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			svc.OnProgress(func(Stage, int, int) {})
			svc.OnProgress(nil)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.Upload(context.Background(), uploadGrid())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestServiceUploadLoaderFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := newTestService(t, StaticLoader{}, zap.New(core))

	res, err := svc.Upload(context.Background(), uploadGrid())
	require.NoError(t, err)
	assert.ErrorIs(t, res.ReconcileErr, ErrReferenceUnavailable)
	assert.Nil(t, res.Checklist)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "A01.01", res.Items[0].ID)
	require.Len(t, res.Unresolved, 2)
	require.NotNil(t, res.Unresolved[0].RowIndex)
	assert.Equal(t, 3, *res.Unresolved[0].RowIndex)
	assert.Equal(t, 1, logs.FilterMessage("reference checklist unavailable").Len())
}

func TestServiceUploadNoItems(t *testing.T) {
	svc := newTestService(t, StaticLoader{"alz": sampleChecklist()}, nil)
	grid := Grid{
		{"ID", "Category", "Subcategory", "Text", "Status", "Severity"},
		{"", "Billing", "", "", "Open", "High"},
	}

	_, err := svc.Upload(context.Background(), grid)
	assert.ErrorIs(t, err, ErrNoItems)

	grid = append(grid, []string{"", "Billing", "", "Something nobody has ever written down", "Open", ""})
	_, err = svc.Upload(context.Background(), grid)
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestServiceUploadHeaderMissing(t *testing.T) {
	svc := newTestService(t, StaticLoader{}, nil)
	_, err := svc.Upload(context.Background(), Grid{{"just", "some", "cells"}})
	var hnf *HeaderNotFoundError
	assert.ErrorAs(t, err, &hnf)
}

func TestServiceUploadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review.csv")
	content := "ID,Category,Subcategory,Text,Status,Severity\n" +
		"A01.01,Billing,Tenants,Use one Entra tenant,Fulfilled,High\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	svc := newTestService(t, StaticLoader{"alz": sampleChecklist()}, nil)

	res, err := svc.UploadFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, StatusFulfilled, res.Items[0].Status)
}

func TestServiceConfig(t *testing.T) {
	_, err := NewService(DefaultConfig(), nil, nil)
	require.Error(t, err)

	svc := newTestService(t, StaticLoader{}, nil)
	svc.UpdateConfig(Config{DefaultType: "aks"})
	cfg := svc.Config()
	assert.Equal(t, "aks", cfg.DefaultType)
	assert.Equal(t, 0.3, cfg.MatchThreshold)
}
